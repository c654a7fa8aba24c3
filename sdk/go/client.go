package goaltracksdk

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// Client is a minimal Goal Tracker HTTP API client.
type Client struct {
	BaseURL     string
	BasePath    string
	BearerToken string
	HTTPClient  *http.Client
	Timeout     time.Duration
}

// New creates a client with sane defaults.
func New(baseURL string) *Client {
	return &Client{
		BaseURL: baseURL,
		Timeout: 30 * time.Second,
	}
}

// ReportRequest describes the goal to plan.
type ReportRequest struct {
	Name      string `json:"name"`
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
	// Today, when set, is sent as the evaluation date (YYYY-MM-DD).
	Today string `json:"-"`
}

type DayCell struct {
	CalendarDay   int `json:"calendar_day"`
	SequenceIndex int `json:"sequence_index"`
	DaysRemaining int `json:"days_remaining"`
}

// Month is one calendar month. A nil cell is a day outside the goal.
type Month struct {
	Year               int        `json:"year"`
	MonthIndex         int        `json:"month_index"`
	MonthName          string     `json:"month_name"`
	FirstWeekdayOffset int        `json:"first_weekday_offset"`
	DayCount           int        `json:"day_count"`
	Cells              []*DayCell `json:"cells"`
}

// Report is the computed goal calendar.
type Report struct {
	ID   string `json:"id"`
	Plan struct {
		Name      string `json:"name"`
		StartDate string `json:"start_date"`
		EndDate   string `json:"end_date"`
	} `json:"plan"`
	TotalDays     int     `json:"total_days"`
	DaysElapsed   *int    `json:"days_elapsed,omitempty"`
	DaysRemaining int     `json:"days_remaining"`
	FileName      string  `json:"file_name"`
	Months        []Month `json:"months"`
}

// JournalEntry represents a journal record.
type JournalEntry struct {
	ID       int64          `json:"id"`
	TS       string         `json:"ts"`
	Type     string         `json:"type"`
	ReportID string         `json:"report_id"`
	Goal     string         `json:"goal"`
	ActorID  string         `json:"actor_id"`
	Payload  map[string]any `json:"payload"`
}

// PaginatedJournal wraps list responses with cursors.
type PaginatedJournal struct {
	Items      []JournalEntry `json:"items"`
	NextCursor string         `json:"next_cursor"`
}

// PDF is a downloaded export.
type PDF struct {
	FileName string
	Pages    int
	Data     []byte
}

// APIError wraps non-2xx responses.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error: status=%d body=%s", e.StatusCode, e.Body)
}

// BuildReport computes the calendar for a goal.
func (c *Client) BuildReport(ctx context.Context, req ReportRequest) (Report, error) {
	var resp Report
	err := c.do(ctx, http.MethodPost, reportPath("reports", req), req, &resp)
	return resp, err
}

// DownloadPDF computes the calendar and returns the exported PDF.
func (c *Client) DownloadPDF(ctx context.Context, req ReportRequest) (PDF, error) {
	res, err := c.send(ctx, http.MethodPost, reportPath("reports/pdf", req), req)
	if err != nil {
		return PDF{}, err
	}
	defer res.Body.Close()
	data, err := io.ReadAll(res.Body)
	if err != nil {
		return PDF{}, err
	}
	out := PDF{Data: data}
	if _, params, err := mime.ParseMediaType(res.Header.Get("Content-Disposition")); err == nil {
		out.FileName = params["filename"]
	}
	out.Pages, _ = strconv.Atoi(res.Header.Get("X-Page-Count"))
	return out, nil
}

// Journal returns a page of journal entries, newest first.
func (c *Client) Journal(ctx context.Context, limit int, entryType, cursor string) (PaginatedJournal, error) {
	q := url.Values{}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	if entryType != "" {
		q.Set("type", entryType)
	}
	if cursor != "" {
		q.Set("cursor", cursor)
	}
	endpoint := "journal"
	if len(q) > 0 {
		endpoint += "?" + q.Encode()
	}
	var resp PaginatedJournal
	err := c.do(ctx, http.MethodGet, endpoint, nil, &resp)
	return resp, err
}

// JournalEntry fetches a single journal entry by id.
func (c *Client) JournalEntry(ctx context.Context, id int64) (JournalEntry, error) {
	var resp JournalEntry
	err := c.do(ctx, http.MethodGet, "journal/"+strconv.FormatInt(id, 10), nil, &resp)
	return resp, err
}

// Health pings the API.
func (c *Client) Health(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "health", nil, nil)
}

func reportPath(p string, req ReportRequest) string {
	if req.Today == "" {
		return p
	}
	return p + "?today=" + url.QueryEscape(req.Today)
}

func (c *Client) send(ctx context.Context, method, endpoint string, body any) (*http.Response, error) {
	if c.HTTPClient == nil {
		c.HTTPClient = &http.Client{Timeout: c.Timeout}
	}
	url := c.base() + "/" + strings.TrimLeft(endpoint, "/")
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return nil, err
		}
	}
	req, err := http.NewRequestWithContext(ctx, method, url, &buf)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.BearerToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.BearerToken)
	}
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode >= 300 {
		defer resp.Body.Close()
		b, _ := io.ReadAll(resp.Body)
		return nil, &APIError{StatusCode: resp.StatusCode, Body: string(b)}
	}
	return resp, nil
}

func (c *Client) do(ctx context.Context, method, endpoint string, body any, out any) error {
	resp, err := c.send(ctx, method, endpoint, body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}

func (c *Client) base() string {
	basePath := c.BasePath
	if basePath == "" {
		basePath = "/v0"
	}
	return strings.TrimRight(c.BaseURL, "/") + "/" + strings.Trim(basePath, "/")
}
