package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/fatih/color"

	"github.com/noah-isme/timetable-api/internal/dto"
)

const usage = `usage: timetable-cli [flags] <command> [args]

commands:
  day <DAY|all>                      list scheduled entries
  rooms <timeSlotId>                 list rooms free in a slot
  book <course> <professor> <slot> [roomType]
  cancel <entryId>                   delete an entry
  complete <course|room> <prefix>    prefix suggestions
  stats                              engine statistics
  smoke <targets.json>               probe endpoints and fail on critical mismatches
`

type target struct {
	Method   string `json:"method"`
	Path     string `json:"path"`
	Status   int    `json:"status"`
	Critical bool   `json:"critical"`
}

func (t target) expected() int {
	if t.Status == 0 {
		return http.StatusOK
	}
	return t.Status
}

type targets struct {
	Targets []target `json:"targets"`
}

func main() {
	var (
		base    string
		timeout time.Duration
		limit   int
	)
	flag.StringVar(&base, "base", "http://localhost:8080/api/v1", "Timetable API base URL")
	flag.DurationVar(&timeout, "timeout", 5*time.Second, "HTTP client timeout")
	flag.IntVar(&limit, "limit", 10, "Maximum autocomplete suggestions")
	flag.Usage = func() { fmt.Fprint(os.Stderr, usage) }
	flag.Parse()

	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(2)
	}

	client := newAPIClient(base, timeout)
	code := run(context.Background(), client, os.Stdout, flag.Args(), limit)
	os.Exit(code)
}

func run(ctx context.Context, client *apiClient, w io.Writer, args []string, limit int) int {
	cmd, rest := strings.ToLower(args[0]), args[1:]
	fail := func(err error) int {
		color.New(color.FgRed).Fprintf(w, "error: %v\n", err)
		return 1
	}

	switch {
	case cmd == "day" && len(rest) == 1:
		entries, err := client.Day(ctx, rest[0])
		if err != nil {
			return fail(err)
		}
		color.New(color.FgCyan).Fprintf(w, "%d entries\n", len(entries))
		renderEntries(w, entries)
	case cmd == "rooms" && len(rest) == 1:
		result, err := client.AvailableRooms(ctx, rest[0])
		if err != nil {
			return fail(err)
		}
		color.New(color.FgCyan).Fprintf(w, "%s %s-%s: %d rooms free\n", result.TimeSlot.Day, result.TimeSlot.StartTime, result.TimeSlot.EndTime, len(result.Rooms))
		renderRooms(w, result.Rooms)
	case cmd == "book" && (len(rest) == 3 || len(rest) == 4):
		req := dto.ScheduleRequest{CourseID: rest[0], ProfessorID: rest[1], TimeSlotID: rest[2]}
		if len(rest) == 4 {
			req.PreferredRoomType = strings.ToUpper(rest[3])
		}
		result, err := client.Schedule(ctx, req)
		if err != nil {
			renderRejection(w, err)
			return 1
		}
		renderBooking(w, result)
	case cmd == "cancel" && len(rest) == 1:
		if err := client.Cancel(ctx, rest[0]); err != nil {
			return fail(err)
		}
		color.New(color.FgGreen).Fprintf(w, "deleted %s\n", rest[0])
	case cmd == "complete" && len(rest) == 2:
		suggestions, err := client.Autocomplete(ctx, rest[0], rest[1], limit)
		if err != nil {
			return fail(err)
		}
		for _, s := range suggestions {
			fmt.Fprintln(w, s)
		}
	case cmd == "stats" && len(rest) == 0:
		stats, err := client.Stats(ctx)
		if err != nil {
			return fail(err)
		}
		renderStats(w, stats)
	case cmd == "smoke" && len(rest) == 1:
		return smoke(ctx, client, w, rest[0])
	default:
		fmt.Fprint(w, usage)
		return 2
	}
	return 0
}

func smoke(ctx context.Context, client *apiClient, w io.Writer, path string) int {
	list, err := loadTargets(path)
	if err != nil {
		color.New(color.FgRed).Fprintf(w, "failed to load targets: %v\n", err)
		return 1
	}

	var (
		results  []probeResult
		breaking int
		optional int
	)
	for _, t := range list {
		status, latency, err := client.Probe(ctx, t.Method, t.Path)
		res := probeResult{Target: t, Status: status, Err: err, Duration: latency.String()}
		if !res.ok() {
			if t.Critical {
				breaking++
			} else {
				optional++
			}
		}
		results = append(results, res)
	}

	renderProbes(w, results)
	fmt.Fprintf(w, "Breaking: %d, Optional: %d\n", breaking, optional)
	if breaking > 0 {
		return 1
	}
	return 0
}

func loadTargets(path string) ([]target, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cfg targets
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	if len(cfg.Targets) == 0 {
		return nil, fmt.Errorf("no targets defined in %s", path)
	}
	return cfg.Targets, nil
}
