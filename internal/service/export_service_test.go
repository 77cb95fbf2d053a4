package service

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/timetable-api/internal/dto"
	"github.com/noah-isme/timetable-api/internal/models"
	appErrors "github.com/noah-isme/timetable-api/pkg/errors"
	"github.com/noah-isme/timetable-api/pkg/export"
)

type capturingICS struct {
	events []export.CalendarEvent
}

func (c *capturingICS) Render(_ string, events []export.CalendarEvent) ([]byte, error) {
	c.events = events
	return []byte("BEGIN:VCALENDAR"), nil
}

func TestExportServicePDF(t *testing.T) {
	f := newTimetableFixture(t)
	ctx := context.Background()
	_, err := f.scheduler.Schedule(ctx, dto.ScheduleRequest{CourseID: "C1", ProfessorID: "P1", TimeSlotID: "T1"})
	require.NoError(t, err)

	svc := NewExportService(f.index, ExportConfig{}, zap.NewNop(), nil, nil)
	payload, err := svc.PDF(ctx, dto.ExportQuery{Day: "monday"})
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(payload, []byte("%PDF")))

	_, err = svc.PDF(ctx, dto.ExportQuery{Day: "someday"})
	assert.True(t, appErrors.Is(err, appErrors.ErrValidation))
}

func TestExportServiceICSAnchorsToTermStart(t *testing.T) {
	f := newTimetableFixture(t)
	ctx := context.Background()
	_, err := f.scheduler.Schedule(ctx, dto.ScheduleRequest{CourseID: "C1", ProfessorID: "P1", TimeSlotID: "T1"})
	require.NoError(t, err)
	_, err = f.scheduler.Schedule(ctx, dto.ScheduleRequest{CourseID: "C2", ProfessorID: "P2", TimeSlotID: "T4"})
	require.NoError(t, err)

	ics := &capturingICS{}
	// Wednesday 7 January 2026.
	termStart := time.Date(2026, 1, 7, 0, 0, 0, 0, time.UTC)
	svc := NewExportService(f.index, ExportConfig{TermStart: termStart, TermWeeks: 12}, zap.NewNop(), nil, ics)

	_, err = svc.ICS(ctx, dto.ExportQuery{})
	require.NoError(t, err)
	require.Len(t, ics.events, 2)

	monday := ics.events[0]
	assert.Equal(t, time.Date(2026, 1, 12, 9, 0, 0, 0, time.UTC), monday.Start)
	assert.Equal(t, time.Date(2026, 1, 12, 10, 30, 0, 0, time.UTC), monday.End)
	assert.Equal(t, 12, monday.Weeks)
	assert.Equal(t, "CS101 Intro to Programming", monday.Summary)
	assert.Equal(t, "Main L40", monday.Location)

	tuesday := ics.events[1]
	assert.Equal(t, time.Date(2026, 1, 13, 9, 0, 0, 0, time.UTC), tuesday.Start)

	_, err = svc.ICS(ctx, dto.ExportQuery{ProfessorID: "P2"})
	require.NoError(t, err)
	require.Len(t, ics.events, 1)
	assert.True(t, strings.HasPrefix(ics.events[0].Summary, "CS102"))
}

func TestFirstOccurrence(t *testing.T) {
	sunday := time.Date(2026, 1, 4, 15, 0, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2026, 1, 4, 0, 0, 0, 0, time.UTC), firstOccurrence(sunday, models.Sunday))
	assert.Equal(t, time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC), firstOccurrence(sunday, models.Monday))
	assert.Equal(t, time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC), firstOccurrence(sunday, models.Saturday))
}

func TestExportServiceFilename(t *testing.T) {
	svc := NewExportService(nil, ExportConfig{}, nil, nil, nil)
	svc.now = func() time.Time { return time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC) }
	assert.Equal(t, "timetable_monday_P1_20260201.pdf", svc.Filename(dto.ExportQuery{Day: "MONDAY", ProfessorID: "P1"}, "pdf"))
	assert.Equal(t, "timetable_20260201.ics", svc.Filename(dto.ExportQuery{}, "ics"))
}
