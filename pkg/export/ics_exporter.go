package export

import (
	"fmt"
	"time"

	ics "github.com/arran4/golang-ical"
)

// CalendarEvent is a weekly recurring class meeting.
type CalendarEvent struct {
	UID         string
	Summary     string
	Location    string
	Description string
	Start       time.Time
	End         time.Time
	Weeks       int
}

// ICSExporter renders events as an RFC 5545 calendar.
type ICSExporter struct {
	productID string
	now       func() time.Time
}

// NewICSExporter constructs an iCalendar exporter.
func NewICSExporter(productID string) *ICSExporter {
	if productID == "" {
		productID = "-//timetable-api//EN"
	}
	return &ICSExporter{productID: productID, now: time.Now}
}

// Render serialises events; each repeats weekly for its Weeks count.
func (e *ICSExporter) Render(calendarName string, events []CalendarEvent) ([]byte, error) {
	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId(e.productID)
	if calendarName != "" {
		cal.SetName(calendarName)
		cal.SetXWRCalName(calendarName)
	}

	stamp := e.now().UTC()
	for _, evt := range events {
		if !evt.End.After(evt.Start) {
			return nil, fmt.Errorf("event %s ends before it starts", evt.UID)
		}
		event := cal.AddEvent(evt.UID)
		event.SetDtStampTime(stamp)
		event.SetStartAt(evt.Start)
		event.SetEndAt(evt.End)
		event.SetSummary(evt.Summary)
		if evt.Location != "" {
			event.SetLocation(evt.Location)
		}
		if evt.Description != "" {
			event.SetDescription(evt.Description)
		}
		if evt.Weeks > 1 {
			event.SetProperty(ics.ComponentPropertyRrule, fmt.Sprintf("FREQ=WEEKLY;COUNT=%d", evt.Weeks))
		}
	}
	return []byte(cal.Serialize()), nil
}
