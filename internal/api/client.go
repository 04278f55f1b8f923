package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// Error is returned by Client when the daemon answers with a non-2xx status.
type Error struct {
	StatusCode int
	Message    string
}

func (e *Error) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("daemon returned HTTP %d", e.StatusCode)
	}
	return fmt.Sprintf("%s (HTTP %d)", e.Message, e.StatusCode)
}

// IsStatus reports whether err is an API error with the given HTTP status.
func IsStatus(err error, status int) bool {
	var apiErr *Error
	return errors.As(err, &apiErr) && apiErr.StatusCode == status
}

// Client talks to the daemon HTTP API.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
}

// NewClient builds a client for baseURL. An empty token disables the
// Authorization header.
func NewClient(baseURL, token string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(BaseURL(baseURL), "/"),
		token:   strings.TrimSpace(token),
		http:    &http.Client{Timeout: timeout},
	}
}

// BaseURL turns a listen address such as ":5000" or "0.0.0.0:5000" into a
// URL a local client can dial. Values that already carry a scheme are kept.
func BaseURL(bind string) string {
	bind = strings.TrimSpace(bind)
	if strings.Contains(bind, "://") {
		return bind
	}
	host, port, err := net.SplitHostPort(bind)
	if err != nil {
		return "http://" + bind
	}
	if host == "" || host == "0.0.0.0" || host == "::" {
		host = "127.0.0.1"
	}
	return "http://" + net.JoinHostPort(host, port)
}

// Status fetches daemon status.
func (c *Client) Status(ctx context.Context) (*DaemonStatus, error) {
	var resp DaemonStatus
	if err := c.do(ctx, http.MethodGet, "/api/status", nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Info previews a URL.
func (c *Client) Info(ctx context.Context, req InfoRequest) (*InfoResponse, error) {
	var resp InfoResponse
	if err := c.do(ctx, http.MethodPost, "/api/info", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Submit starts an immediate download and returns its task id.
func (c *Client) Submit(ctx context.Context, req SubmitRequest) (string, error) {
	var resp SubmitResponse
	if err := c.do(ctx, http.MethodPost, "/api/download", req, &resp); err != nil {
		return "", err
	}
	return resp.TaskID, nil
}

// Batch enqueues URLs on the batch queue.
func (c *Client) Batch(ctx context.Context, req BatchRequest) (*BatchResponse, error) {
	var resp BatchResponse
	if err := c.do(ctx, http.MethodPost, "/api/batch", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Task fetches a task snapshot.
func (c *Client) Task(ctx context.Context, id string) (*Task, error) {
	var resp Task
	if err := c.do(ctx, http.MethodGet, "/api/tasks/"+url.PathEscape(id), nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// TaskEntries lists the entry sub-tasks of a playlist task.
func (c *Client) TaskEntries(ctx context.Context, id string) (*TaskEntriesResponse, error) {
	var resp TaskEntriesResponse
	if err := c.do(ctx, http.MethodGet, "/api/tasks/"+url.PathEscape(id)+"/entries", nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Queue lists the batch queue.
func (c *Client) Queue(ctx context.Context) (*QueueListResponse, error) {
	var resp QueueListResponse
	if err := c.do(ctx, http.MethodGet, "/api/queue", nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Cancel withdraws a queued task.
func (c *Client) Cancel(ctx context.Context, id string) (string, error) {
	var resp MessageResponse
	if err := c.do(ctx, http.MethodDelete, "/api/queue/"+url.PathEscape(id), nil, &resp); err != nil {
		return "", err
	}
	return resp.Message, nil
}

// ClearQueue purges terminal queue entries.
func (c *Client) ClearQueue(ctx context.Context) (*ClearResponse, error) {
	var resp ClearResponse
	if err := c.do(ctx, http.MethodPost, "/api/queue/clear", nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Downloads lists audio files in the download directory.
func (c *Client) Downloads(ctx context.Context) (*DownloadListResponse, error) {
	var resp DownloadListResponse
	if err := c.do(ctx, http.MethodGet, "/api/list-downloads", nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// History lists finished tasks, newest first.
func (c *Client) History(ctx context.Context, limit int) (*HistoryResponse, error) {
	path := "/api/history"
	if limit > 0 {
		path += "?limit=" + strconv.Itoa(limit)
	}
	var resp HistoryResponse
	if err := c.do(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// LogsQuery selects daemon log lines. Offset < 0 requests the last Limit lines.
type LogsQuery struct {
	Offset int64
	Limit  int
	Follow bool
}

// Logs reads the daemon log file.
func (c *Client) Logs(ctx context.Context, q LogsQuery) (*LogsResponse, error) {
	values := url.Values{}
	values.Set("offset", strconv.FormatInt(q.Offset, 10))
	if q.Limit > 0 {
		values.Set("limit", strconv.Itoa(q.Limit))
	}
	if q.Follow {
		values.Set("follow", "1")
	}
	var resp LogsResponse
	if err := c.do(ctx, http.MethodGet, "/api/logs?"+values.Encode(), nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// FetchTaskFile streams the output of a completed task into w and returns
// the file name announced by the daemon.
func (c *Client) FetchTaskFile(ctx context.Context, id string, w io.Writer) (string, error) {
	return c.stream(ctx, "/api/download-file/"+url.PathEscape(id), w)
}

// FetchDownload streams an existing file from the download directory into w.
func (c *Client) FetchDownload(ctx context.Context, name string, w io.Writer) (string, error) {
	return c.stream(ctx, "/api/download-existing/"+url.PathEscape(name), w)
}

func (c *Client) stream(ctx context.Context, path string, w io.Writer) (string, error) {
	resp, err := c.send(ctx, http.MethodGet, path, nil)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if _, err := io.Copy(w, resp.Body); err != nil {
		return "", fmt.Errorf("read download: %w", err)
	}
	name := ""
	if _, params, err := mime.ParseMediaType(resp.Header.Get("Content-Disposition")); err == nil {
		name = params["filename"]
	}
	return name, nil
}

func (c *Client) do(ctx context.Context, method, path string, body any, out any) error {
	resp, err := c.send(ctx, method, path, body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", path, err)
	}
	return nil
}

func (c *Client) send(ctx context.Context, method, path string, body any) (*http.Response, error) {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("contact daemon at %s: %w", c.baseURL, err)
	}
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return resp, nil
	}
	defer resp.Body.Close()
	apiErr := &Error{StatusCode: resp.StatusCode}
	var payload ErrorResponse
	if raw, readErr := io.ReadAll(io.LimitReader(resp.Body, 64<<10)); readErr == nil {
		if json.Unmarshal(raw, &payload) == nil {
			apiErr.Message = payload.Error
		} else {
			apiErr.Message = strings.TrimSpace(string(raw))
		}
	}
	return nil, apiErr
}
