package reporter

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
	"watchtime/internal/models"

	json "github.com/goccy/go-json"
)

const defaultTimeout = 5 * time.Second

var ErrEndpointUnavailable = errors.New("watch-time endpoint unavailable")

// Client talks to a running daemon over its HTTP API.
type Client struct {
	base string
	http *http.Client
}

func NewClient(server string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	if !strings.Contains(server, "://") {
		server = "http://" + server
	}
	return &Client{
		base: strings.TrimRight(server, "/"),
		http: &http.Client{Timeout: timeout},
	}
}

// Send posts one report to /log. Any transport failure or non-2xx answer is
// reported as ErrEndpointUnavailable.
func (c *Client) Send(ctx context.Context, report *models.Report) error {
	body, err := json.Marshal(report)
	if err != nil {
		return err
	}
	resp, err := c.do(ctx, http.MethodPost, "/log", nil, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrEndpointUnavailable, err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode/100 != 2 {
		return fmt.Errorf("%w: status %d", ErrEndpointUnavailable, resp.StatusCode)
	}
	return nil
}

func (c *Client) Day(ctx context.Context, dayKey string) (*models.DailyRecord, error) {
	q := url.Values{}
	if dayKey != "" {
		q.Set("date", dayKey)
	}
	rec := models.NewDailyRecord()
	if err := c.getJSON(ctx, "/day", q, rec); err != nil {
		return nil, err
	}
	return rec, nil
}

func (c *Client) Rollup(ctx context.Context, from, to string) (*models.RangeSummary, error) {
	q := url.Values{}
	if from != "" {
		q.Set("from", from)
	}
	if to != "" {
		q.Set("to", to)
	}
	var summary models.RangeSummary
	if err := c.getJSON(ctx, "/rollup", q, &summary); err != nil {
		return nil, err
	}
	return &summary, nil
}

func (c *Client) Days(ctx context.Context) ([]string, error) {
	var days []string
	if err := c.getJSON(ctx, "/days", nil, &days); err != nil {
		return nil, err
	}
	return days, nil
}

// Reset clears one day, or every day when dayKey is empty.
func (c *Client) Reset(ctx context.Context, dayKey string) error {
	path, q := "/days", url.Values(nil)
	if dayKey != "" {
		path, q = "/day", url.Values{"date": {dayKey}}
	}
	resp, err := c.do(ctx, http.MethodDelete, path, q, nil)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrEndpointUnavailable, err)
	}
	defer resp.Body.Close()
	return checkStatus(resp)
}

func (c *Client) getJSON(ctx context.Context, path string, q url.Values, out any) error {
	resp, err := c.do(ctx, http.MethodGet, path, q, nil)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrEndpointUnavailable, err)
	}
	defer resp.Body.Close()
	if err := checkStatus(resp); err != nil {
		return err
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func (c *Client) do(ctx context.Context, method, path string, q url.Values, body io.Reader) (*http.Response, error) {
	target := c.base + path
	if len(q) > 0 {
		target += "?" + q.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return c.http.Do(req)
}

// checkStatus surfaces the daemon's {"error": "..."} message on failure.
func checkStatus(resp *http.Response) error {
	if resp.StatusCode/100 == 2 {
		return nil
	}
	var payload struct {
		Error string `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err == nil && payload.Error != "" {
		return fmt.Errorf("server returned %d: %s", resp.StatusCode, payload.Error)
	}
	return fmt.Errorf("server returned %d", resp.StatusCode)
}
