package main

import (
	"fmt"
	"io"
	"sort"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"

	"github.com/noah-isme/timetable-api/internal/dto"
	"github.com/noah-isme/timetable-api/internal/models"
)

func renderEntries(w io.Writer, entries []models.ScheduleEntry) {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Day", "Time", "Course", "Professor", "Room", "Entry"})
	table.SetAutoWrapText(false)
	for _, entry := range entries {
		day, span := "-", "-"
		if entry.TimeSlot != nil {
			day = string(entry.TimeSlot.Day)
			span = entry.TimeSlot.StartTime.String() + "-" + entry.TimeSlot.EndTime.String()
		}
		course := entry.CourseID
		if entry.Course != nil {
			course = entry.Course.Code
		}
		professor := entry.ProfessorID
		if entry.Professor != nil {
			professor = entry.Professor.Name
		}
		room := entry.RoomID
		if entry.Room != nil {
			room = entry.Room.RoomNumber
		}
		table.Append([]string{day, span, course, professor, room, entry.ID})
	}
	table.Render()
}

func renderRooms(w io.Writer, rooms []models.Room) {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Room", "Name", "Type", "Capacity", "Building"})
	for _, room := range rooms {
		table.Append([]string{room.RoomNumber, room.Name, string(room.Type), fmt.Sprintf("%d", room.Capacity), room.Building})
	}
	table.Render()
}

func renderBooking(w io.Writer, result *dto.ScheduleResult) {
	color.New(color.FgGreen).Fprintf(w, "%s: %s\n", result.State, result.Message)
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Entry", "Room", "Capacity", "Utilization"})
	table.Append([]string{result.Entry.ID, result.Room.RoomNumber, fmt.Sprintf("%d", result.Room.Capacity), result.UtilizationLabel})
	table.Render()
	if result.OverCapacity {
		color.New(color.FgYellow).Fprintln(w, "warning: enrollment exceeds room capacity")
	}
}

func renderRejection(w io.Writer, err error) {
	color.New(color.FgRed).Fprintf(w, "rejected: %v\n", err)
	details, ok := rejection(err)
	if !ok {
		return
	}
	if len(details.Conflicts) > 0 {
		table := tablewriter.NewWriter(w)
		table.SetHeader([]string{"Conflicting entry", "Course", "Day", "Time", "Dimension"})
		for _, conflict := range details.Conflicts {
			table.Append([]string{
				conflict.EntryID,
				conflict.CourseCode,
				string(conflict.Day),
				conflict.StartTime.String() + "-" + conflict.EndTime.String(),
				string(conflict.Dimension),
			})
		}
		table.Render()
	}
	if details.Suggestion != "" {
		color.New(color.FgYellow).Fprintf(w, "suggestion: %s\n", details.Suggestion)
	}
}

func renderStats(w io.Writer, stats map[string]interface{}) {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Metric", "Value"})
	for _, section := range []string{"engine", "metrics"} {
		values, ok := stats[section].(map[string]interface{})
		if !ok {
			continue
		}
		keys := make([]string, 0, len(values))
		for key := range values {
			keys = append(keys, key)
		}
		sort.Strings(keys)
		for _, key := range keys {
			table.Append([]string{section + "." + key, fmt.Sprintf("%v", values[key])})
		}
	}
	table.Render()
}

type probeResult struct {
	Target   target
	Status   int
	Err      error
	Duration string
}

func (p probeResult) ok() bool {
	return p.Err == nil && p.Status == p.Target.expected()
}

func renderProbes(w io.Writer, results []probeResult) {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Result", "Method", "Path", "Status", "Latency"})
	for _, res := range results {
		status := fmt.Sprintf("%d", res.Status)
		if res.Err != nil {
			status = res.Err.Error()
		}
		verdict := "OK"
		if !res.ok() {
			verdict = "FAIL"
			if !res.Target.Critical {
				verdict = "DIFF"
			}
		}
		table.Append([]string{verdict, res.Target.Method, res.Target.Path, status, res.Duration})
	}
	table.Render()
}
