package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/timetable-api/internal/dto"
	"github.com/noah-isme/timetable-api/internal/models"
	"github.com/noah-isme/timetable-api/internal/scheduling"
	appErrors "github.com/noah-isme/timetable-api/pkg/errors"
	"github.com/noah-isme/timetable-api/pkg/export"
)

// ExportConfig tunes export behaviour.
type ExportConfig struct {
	TermStart time.Time
	TermWeeks int
	Location  *time.Location
}

type pdfRenderer interface {
	Render(data export.Dataset, title, subtitle string) ([]byte, error)
}

type icsRenderer interface {
	Render(calendarName string, events []export.CalendarEvent) ([]byte, error)
}

// ExportService renders the committed timetable as PDF or iCalendar documents.
type ExportService struct {
	index  *scheduling.ScheduleIndex
	pdf    pdfRenderer
	ics    icsRenderer
	cfg    ExportConfig
	logger *zap.Logger
	now    func() time.Time
}

// NewExportService constructs an ExportService.
func NewExportService(index *scheduling.ScheduleIndex, cfg ExportConfig, logger *zap.Logger, pdf pdfRenderer, ics icsRenderer) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.TermWeeks <= 0 {
		cfg.TermWeeks = 15
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	if pdf == nil {
		pdf = export.NewPDFExporter()
	}
	if ics == nil {
		ics = export.NewICSExporter("")
	}
	return &ExportService{index: index, pdf: pdf, ics: ics, cfg: cfg, logger: logger, now: time.Now}
}

// PDF renders the timetable grid for the filtered entries.
func (s *ExportService) PDF(_ context.Context, query dto.ExportQuery) ([]byte, error) {
	entries, err := s.selectEntries(query)
	if err != nil {
		return nil, err
	}

	dataset := export.Dataset{
		Headers: []string{"Day", "Time", "Course", "Title", "Professor", "Room", "Enrolled"},
		Widths:  []float64{28, 28, 26, 75, 55, 35, 30},
	}
	for _, entry := range entries {
		dataset.Rows = append(dataset.Rows, exportRow(entry))
	}

	subtitle := fmt.Sprintf("%d entries, generated %s", len(entries), s.now().UTC().Format(time.RFC1123))
	payload, err := s.pdf.Render(dataset, exportTitle(query), subtitle)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render timetable pdf")
	}
	s.logger.Debug("timetable pdf rendered", zap.Int("entries", len(entries)), zap.Int("bytes", len(payload)))
	return payload, nil
}

// ICS renders the filtered entries as weekly recurring events across the configured term.
func (s *ExportService) ICS(_ context.Context, query dto.ExportQuery) ([]byte, error) {
	entries, err := s.selectEntries(query)
	if err != nil {
		return nil, err
	}

	termStart := s.cfg.TermStart
	if termStart.IsZero() {
		termStart = s.now()
	}
	events := make([]export.CalendarEvent, 0, len(entries))
	for _, entry := range entries {
		if entry.TimeSlot == nil {
			continue
		}
		date := firstOccurrence(termStart.In(s.cfg.Location), entry.TimeSlot.Day)
		events = append(events, export.CalendarEvent{
			UID:         entry.ID + "@timetable",
			Summary:     courseLabel(entry),
			Location:    roomLabel(entry),
			Description: professorName(entry),
			Start:       atTimeOfDay(date, entry.TimeSlot.StartTime),
			End:         atTimeOfDay(date, entry.TimeSlot.EndTime),
			Weeks:       s.cfg.TermWeeks,
		})
	}

	payload, err := s.ics.Render(exportTitle(query), events)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render timetable calendar")
	}
	return payload, nil
}

// Filename builds a download name for the export.
func (s *ExportService) Filename(query dto.ExportQuery, ext string) string {
	parts := []string{"timetable"}
	if query.Day != "" {
		parts = append(parts, strings.ToLower(query.Day))
	}
	if query.ProfessorID != "" {
		parts = append(parts, sanitizeFilename(query.ProfessorID))
	}
	if query.RoomID != "" {
		parts = append(parts, sanitizeFilename(query.RoomID))
	}
	parts = append(parts, s.now().UTC().Format("20060102"))
	return strings.Join(parts, "_") + "." + ext
}

func (s *ExportService) selectEntries(query dto.ExportQuery) ([]models.ScheduleEntry, error) {
	var entries []models.ScheduleEntry
	if query.Day == "" || strings.EqualFold(query.Day, models.AllDays) {
		entries = s.index.All()
	} else {
		day, err := models.ParseWeekday(query.Day)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid day")
		}
		entries = s.index.EntriesByDay(day)
	}

	filtered := entries[:0]
	for _, entry := range entries {
		if query.ProfessorID != "" && entry.ProfessorID != query.ProfessorID {
			continue
		}
		if query.RoomID != "" && entry.RoomID != query.RoomID {
			continue
		}
		filtered = append(filtered, entry)
	}
	return filtered, nil
}

func exportRow(entry models.ScheduleEntry) map[string]string {
	row := map[string]string{
		"Course":    courseCode(entry),
		"Professor": professorName(entry),
		"Room":      roomLabel(entry),
	}
	if entry.TimeSlot != nil {
		row["Day"] = string(entry.TimeSlot.Day)
		row["Time"] = fmt.Sprintf("%s-%s", entry.TimeSlot.StartTime, entry.TimeSlot.EndTime)
	}
	if entry.Course != nil {
		row["Title"] = entry.Course.Name
		row["Enrolled"] = fmt.Sprintf("%d", entry.Course.EnrolledStudents)
		if entry.Room != nil && entry.Room.Capacity > 0 {
			row["Enrolled"] = fmt.Sprintf("%d / %d", entry.Course.EnrolledStudents, entry.Room.Capacity)
		}
	}
	return row
}

func exportTitle(query dto.ExportQuery) string {
	if query.Day == "" || strings.EqualFold(query.Day, models.AllDays) {
		return "Weekly timetable"
	}
	return "Timetable " + strings.ToUpper(query.Day)
}

func courseCode(entry models.ScheduleEntry) string {
	if entry.Course != nil {
		return entry.Course.Code
	}
	return entry.CourseID
}

func courseLabel(entry models.ScheduleEntry) string {
	if entry.Course != nil {
		return entry.Course.Code + " " + entry.Course.Name
	}
	return entry.CourseID
}

func professorName(entry models.ScheduleEntry) string {
	if entry.Professor != nil {
		return entry.Professor.Name
	}
	return entry.ProfessorID
}

func roomLabel(entry models.ScheduleEntry) string {
	if entry.Room != nil {
		return strings.TrimSpace(entry.Room.Building + " " + entry.Room.RoomNumber)
	}
	return entry.RoomID
}

// firstOccurrence returns the first date on or after start falling on day.
func firstOccurrence(start time.Time, day models.Weekday) time.Time {
	date := time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, start.Location())
	target := time.Weekday(day.Ordinal() % 7)
	offset := (int(target) - int(date.Weekday()) + 7) % 7
	return date.AddDate(0, 0, offset)
}

func atTimeOfDay(date time.Time, t models.TimeOfDay) time.Time {
	return time.Date(date.Year(), date.Month(), date.Day(), t.Hour(), t.Minute(), 0, 0, date.Location())
}

func sanitizeFilename(raw string) string {
	replacer := strings.NewReplacer(" ", "_", "/", "-", "\\", "-", ":", "-", "..", ".")
	result := replacer.Replace(raw)
	if len(result) > 64 {
		return result[:64]
	}
	return result
}
