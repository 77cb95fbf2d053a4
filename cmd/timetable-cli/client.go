package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/noah-isme/timetable-api/internal/dto"
	"github.com/noah-isme/timetable-api/internal/models"
	appErrors "github.com/noah-isme/timetable-api/pkg/errors"
)

type envelope[T any] struct {
	Data  T                      `json:"data"`
	Error *appErrors.Error       `json:"error"`
	Meta  map[string]interface{} `json:"meta"`
}

// apiClient talks to the timetable HTTP API.
type apiClient struct {
	base string
	http *http.Client
}

func newAPIClient(base string, timeout time.Duration) *apiClient {
	return &apiClient{
		base: strings.TrimRight(base, "/"),
		http: &http.Client{Timeout: timeout},
	}
}

func (c *apiClient) Day(ctx context.Context, day string) ([]models.ScheduleEntry, error) {
	var out envelope[[]models.ScheduleEntry]
	err := c.do(ctx, http.MethodGet, "/schedule/day?day="+url.QueryEscape(day), nil, &out)
	return out.Data, err
}

func (c *apiClient) AvailableRooms(ctx context.Context, slotID string) (*dto.AvailableRoomsResponse, error) {
	var out envelope[dto.AvailableRoomsResponse]
	if err := c.do(ctx, http.MethodGet, "/rooms/available?timeSlotId="+url.QueryEscape(slotID), nil, &out); err != nil {
		return nil, err
	}
	return &out.Data, nil
}

func (c *apiClient) Schedule(ctx context.Context, req dto.ScheduleRequest) (*dto.ScheduleResult, error) {
	var out envelope[dto.ScheduleResult]
	if err := c.do(ctx, http.MethodPost, "/schedule", req, &out); err != nil {
		return nil, err
	}
	return &out.Data, nil
}

func (c *apiClient) Cancel(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/schedule/"+url.PathEscape(id), nil, nil)
}

func (c *apiClient) Autocomplete(ctx context.Context, kind, prefix string, limit int) ([]string, error) {
	var out envelope[[]string]
	path := fmt.Sprintf("/autocomplete/%s?prefix=%s&limit=%d", url.PathEscape(kind), url.QueryEscape(prefix), limit)
	err := c.do(ctx, http.MethodGet, path, nil, &out)
	return out.Data, err
}

func (c *apiClient) Stats(ctx context.Context) (map[string]interface{}, error) {
	var out envelope[map[string]interface{}]
	err := c.do(ctx, http.MethodGet, "/stats", nil, &out)
	return out.Data, err
}

// Probe issues a bare request and reports the status code and latency.
func (c *apiClient) Probe(ctx context.Context, method, path string) (int, time.Duration, error) {
	method = strings.ToUpper(strings.TrimSpace(method))
	if method == "" {
		method = http.MethodGet
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	req, err := http.NewRequestWithContext(ctx, method, c.base+path, nil)
	if err != nil {
		return 0, 0, err
	}
	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return 0, 0, err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	return resp.StatusCode, time.Since(start), nil
}

func (c *apiClient) do(ctx context.Context, method, path string, body interface{}, out interface{}) error {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(raw)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.base+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode >= http.StatusBadRequest {
		var failed envelope[json.RawMessage]
		if err := json.Unmarshal(raw, &failed); err == nil && failed.Error != nil {
			return failed.Error
		}
		return fmt.Errorf("%s %s: unexpected status %d", method, path, resp.StatusCode)
	}
	if out == nil || len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// rejection extracts booking details from a refused schedule request.
func rejection(err error) (*dto.ScheduleRejection, bool) {
	var appErr *appErrors.Error
	if !errors.As(err, &appErr) || appErr.Details == nil {
		return nil, false
	}
	raw, mErr := json.Marshal(appErr.Details)
	if mErr != nil {
		return nil, false
	}
	var out dto.ScheduleRejection
	if json.Unmarshal(raw, &out) != nil {
		return nil, false
	}
	return &out, true
}
