package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Timetable API",
        "description": "University timetable scheduling engine",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "Timetable", "description": "Scheduling and timetable queries"},
        {"name": "Catalog", "description": "Courses, professors and time slots"},
        {"name": "Rooms", "description": "Rooms and availability"},
        {"name": "Autocomplete", "description": "Prefix lookups over course codes and room numbers"},
        {"name": "Export", "description": "PDF and iCalendar downloads"},
        {"name": "Realtime", "description": "Websocket timetable feed"}
    ],
    "paths": {
        "/schedule": {
            "post": {
                "tags": ["Timetable"],
                "summary": "Schedule a course",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ScheduleRequest"}}
                ],
                "responses": {
                    "201": {"description": "Committed", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Validation error", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Unknown course, professor or time slot", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Professor conflict or no room available", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/schedule/{id}": {
            "get": {
                "tags": ["Timetable"],
                "summary": "Get schedule entry",
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "delete": {
                "tags": ["Timetable"],
                "summary": "Delete schedule entry",
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {
                    "204": {"description": "Deleted"},
                    "404": {"description": "Not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/schedule/day": {
            "get": {
                "tags": ["Timetable"],
                "summary": "List entries for a day",
                "parameters": [{"name": "day", "in": "query", "required": true, "type": "string"}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/schedule/all": {
            "get": {
                "tags": ["Timetable"],
                "summary": "List the whole timetable",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/schedule/export.pdf": {
            "get": {
                "tags": ["Export"],
                "summary": "Download timetable as PDF",
                "produces": ["application/pdf"],
                "parameters": [
                    {"name": "day", "in": "query", "type": "string"},
                    {"name": "professorId", "in": "query", "type": "string"},
                    {"name": "roomId", "in": "query", "type": "string"}
                ],
                "responses": {"200": {"description": "PDF document"}}
            }
        },
        "/schedule/export.ics": {
            "get": {
                "tags": ["Export"],
                "summary": "Download timetable as iCalendar",
                "produces": ["text/calendar"],
                "parameters": [
                    {"name": "day", "in": "query", "type": "string"},
                    {"name": "professorId", "in": "query", "type": "string"},
                    {"name": "roomId", "in": "query", "type": "string"}
                ],
                "responses": {"200": {"description": "iCalendar feed"}}
            }
        },
        "/rooms/available": {
            "get": {
                "tags": ["Rooms"],
                "summary": "List rooms free in a time slot",
                "parameters": [{"name": "timeSlotId", "in": "query", "required": true, "type": "string"}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/rooms": {
            "get": {
                "tags": ["Rooms"],
                "summary": "List rooms",
                "parameters": [
                    {"name": "search", "in": "query", "type": "string"},
                    {"name": "building", "in": "query", "type": "string"},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "pageSize", "in": "query", "type": "integer"}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            },
            "post": {
                "tags": ["Rooms"],
                "summary": "Create room",
                "parameters": [{"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateRoomRequest"}}],
                "responses": {"201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/courses": {
            "get": {
                "tags": ["Catalog"],
                "summary": "List courses",
                "parameters": [
                    {"name": "search", "in": "query", "type": "string"},
                    {"name": "department", "in": "query", "type": "string"},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "pageSize", "in": "query", "type": "integer"}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            },
            "post": {
                "tags": ["Catalog"],
                "summary": "Create course",
                "parameters": [{"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateCourseRequest"}}],
                "responses": {"201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/courses/{id}/enrollment": {
            "patch": {
                "tags": ["Catalog"],
                "summary": "Update enrolled student count",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"type": "object", "properties": {"enrolledStudents": {"type": "integer"}}}}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/professors": {
            "get": {
                "tags": ["Catalog"],
                "summary": "List professors",
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/timeslots": {
            "get": {
                "tags": ["Catalog"],
                "summary": "List time slots",
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/autocomplete/course": {
            "get": {
                "tags": ["Autocomplete"],
                "summary": "Suggest course codes",
                "parameters": [
                    {"name": "prefix", "in": "query", "required": true, "type": "string"},
                    {"name": "limit", "in": "query", "type": "integer"}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/autocomplete/room": {
            "get": {
                "tags": ["Autocomplete"],
                "summary": "Suggest room numbers",
                "parameters": [
                    {"name": "prefix", "in": "query", "required": true, "type": "string"},
                    {"name": "limit", "in": "query", "type": "integer"}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/stats": {
            "get": {
                "tags": ["Timetable"],
                "summary": "Engine statistics",
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/ws/timetable": {
            "get": {
                "tags": ["Realtime"],
                "summary": "Subscribe to timetable changes",
                "parameters": [{"name": "day", "in": "query", "type": "string"}],
                "responses": {"101": {"description": "Switching protocols"}}
            }
        }
    },
    "definitions": {
        "ScheduleRequest": {
            "type": "object",
            "required": ["courseId", "professorId", "timeSlotId"],
            "properties": {
                "courseId": {"type": "string"},
                "professorId": {"type": "string"},
                "timeSlotId": {"type": "string"},
                "preferredRoomType": {"type": "string", "enum": ["LECTURE", "LAB", "SEMINAR", "OTHER"]}
            }
        },
        "CreateCourseRequest": {
            "type": "object",
            "required": ["code", "name", "department"],
            "properties": {
                "code": {"type": "string"},
                "name": {"type": "string"},
                "department": {"type": "string"},
                "credits": {"type": "integer"},
                "enrolledStudents": {"type": "integer"}
            }
        },
        "CreateRoomRequest": {
            "type": "object",
            "required": ["roomNumber", "capacity"],
            "properties": {
                "roomNumber": {"type": "string"},
                "name": {"type": "string"},
                "type": {"type": "string"},
                "capacity": {"type": "integer"},
                "building": {"type": "string"}
            }
        },
        "Pagination": {
            "type": "object",
            "properties": {
                "page": {"type": "integer"},
                "page_size": {"type": "integer"},
                "total_count": {"type": "integer"}
            }
        },
        "APIError": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "message": {"type": "string"},
                "status": {"type": "integer"},
                "details": {"type": "object"}
            }
        },
        "ResponseEnvelope": {
            "type": "object",
            "properties": {
                "data": {"type": "object"},
                "error": {"$ref": "#/definitions/APIError"},
                "pagination": {"$ref": "#/definitions/Pagination"},
                "meta": {"type": "object"}
            }
        }
    }
}`

type swaggerDoc struct{}

// ReadDoc returns the Swagger document.
func (s *swaggerDoc) ReadDoc() string {
	return docTemplate
}

func init() {
	swag.Register(swag.Name, &swaggerDoc{})
}
