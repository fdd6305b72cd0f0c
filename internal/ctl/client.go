// Package ctl implements artctl, the command line client of the artd API.
package ctl

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"artd/pkg/types"
)

// APIError is a non-2xx answer from the daemon.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("server returned %d: %s", e.Status, e.Message)
}

// Client talks to one artd instance.
type Client struct {
	BaseURL string
	HTTP    *http.Client
}

// NewClient returns a client for base (e.g. http://localhost:8080).
// timeout bounds unary calls; event streams are not limited by it.
func NewClient(base string, timeout time.Duration) *Client {
	return &Client{
		BaseURL: strings.TrimRight(base, "/"),
		HTTP:    &http.Client{Timeout: timeout},
	}
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode/100 != 2 {
		return decodeAPIError(resp)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}

func decodeAPIError(resp *http.Response) error {
	b, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	var er types.ErrorResponse
	if err := json.Unmarshal(b, &er); err == nil && er.Error != "" {
		return &APIError{Status: resp.StatusCode, Message: er.Error}
	}
	return &APIError{Status: resp.StatusCode, Message: strings.TrimSpace(string(b))}
}

func (c *Client) Status(ctx context.Context) (types.StatusResponse, error) {
	var out types.StatusResponse
	return out, c.do(ctx, http.MethodGet, "/api/status", nil, &out)
}

func (c *Client) Workers(ctx context.Context) ([]types.WorkerStatus, error) {
	var out types.WorkersResponse
	err := c.do(ctx, http.MethodGet, "/api/workers", nil, &out)
	return out.Workers, err
}

func (c *Client) Log(ctx context.Context) (types.LogResponse, error) {
	var out types.LogResponse
	return out, c.do(ctx, http.MethodGet, "/api/log", nil, &out)
}

func (c *Client) ResizeLog(ctx context.Context, n int) (types.LogResponse, error) {
	var out types.LogResponse
	return out, c.do(ctx, http.MethodPut, "/api/log/length", types.LogLengthRequest{Length: &n}, &out)
}

func (c *Client) ClearLog(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "/api/log/clear", nil, nil)
}

func (c *Client) Pause(ctx context.Context) (types.ControlResponse, error) {
	return c.control(ctx, "pause")
}

func (c *Client) Unpause(ctx context.Context) (types.ControlResponse, error) {
	return c.control(ctx, "unpause")
}

func (c *Client) Shutdown(ctx context.Context) (types.ControlResponse, error) {
	return c.control(ctx, "shutdown")
}

func (c *Client) control(ctx context.Context, op string) (types.ControlResponse, error) {
	var out types.ControlResponse
	return out, c.do(ctx, http.MethodPost, "/api/"+op, nil, &out)
}

func (c *Client) PromptFiles(ctx context.Context) ([]types.PromptFile, error) {
	var out types.PromptFilesResponse
	err := c.do(ctx, http.MethodGet, "/api/prompts", nil, &out)
	return out.Files, err
}

func (c *Client) PromptSource(ctx context.Context) (types.PromptSourceInfo, error) {
	var out types.PromptSourceInfo
	return out, c.do(ctx, http.MethodGet, "/api/prompt-source", nil, &out)
}

func (c *Client) LoadPromptFile(ctx context.Context, path string) (types.PromptSourceInfo, error) {
	var out types.PromptSourceInfo
	return out, c.do(ctx, http.MethodPost, "/api/prompt-source", types.PromptSourceRequest{Path: path}, &out)
}

// StreamEvent is one frame of /api/events.
type StreamEvent struct {
	Name string
	Data string
}

// Events follows the daemon's event stream, calling fn for every event until
// ctx is canceled, the stream ends or fn returns an error.
func (c *Client) Events(ctx context.Context, fn func(StreamEvent) error) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+"/api/events", nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "text/event-stream")
	// the stream is long-lived; only ctx bounds it
	hc := *c.HTTP
	hc.Timeout = 0
	resp, err := hc.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return decodeAPIError(resp)
	}
	sc := bufio.NewScanner(resp.Body)
	var ev StreamEvent
	for sc.Scan() {
		line := sc.Text()
		switch {
		case line == "":
			if ev.Name != "" || ev.Data != "" {
				if err := fn(ev); err != nil {
					return err
				}
			}
			ev = StreamEvent{}
		case strings.HasPrefix(line, ":"):
		case strings.HasPrefix(line, "event:"):
			ev.Name = strings.TrimSpace(strings.TrimPrefix(line, "event:"))
		case strings.HasPrefix(line, "data:"):
			ev.Data = strings.TrimSpace(strings.TrimPrefix(line, "data:"))
		}
	}
	if ctx.Err() != nil {
		return nil
	}
	return sc.Err()
}
