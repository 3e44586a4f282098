// Package client mirrors server task state on the user's machine: an HTTP
// client for the planner API, a local cache, and a Store that keeps the two
// in step.
package client

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

	"habit-planner/internal/model"
	"habit-planner/internal/service"
)

// ErrUnavailable wraps transport failures: the server could not be reached.
var ErrUnavailable = errors.New("planner server unavailable")

// APIError is a non-2xx response from the server.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("planner api: %d %s", e.Status, e.Message)
}

// Session is the body returned by /login.
type Session struct {
	User  model.User `json:"user"`
	Token string     `json:"token"`
}

// TaskDraft carries the editable task fields sent on create and update.
type TaskDraft struct {
	Title                string
	ScheduledDate        time.Time
	ScheduledTime        *string
	NotificationsEnabled bool
}

type taskPayload struct {
	UserID                string  `json:"userId,omitempty"`
	Title                 string  `json:"title"`
	ScheduledDate         string  `json:"scheduledDate"`
	ScheduledTime         *string `json:"scheduledTime,omitempty"`
	IsNotificationEnabled bool    `json:"isNotificationEnabled"`
}

func (d TaskDraft) payload(userID string) taskPayload {
	return taskPayload{
		UserID:                userID,
		Title:                 d.Title,
		ScheduledDate:         d.ScheduledDate.UTC().Format(time.RFC3339Nano),
		ScheduledTime:         d.ScheduledTime,
		IsNotificationEnabled: d.NotificationsEnabled,
	}
}

// APIClient calls the planner HTTP API.
type APIClient struct {
	baseURL string
	token   string
	http    *http.Client
}

// NewAPIClient builds a client for baseURL; a nil httpClient gets a 10s timeout.
func NewAPIClient(baseURL, token string, httpClient *http.Client) *APIClient {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &APIClient{baseURL: strings.TrimRight(baseURL, "/"), token: token, http: httpClient}
}

func (c *APIClient) Login(ctx context.Context, email, password string) (*Session, error) {
	var out Session
	body := map[string]string{"email": email, "password": password}
	if err := c.do(ctx, http.MethodPost, "/login", nil, body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Tasks lists the user's tasks, restricted to one calendar day when day is set.
func (c *APIClient) Tasks(ctx context.Context, userID string, day *time.Time) ([]model.Task, error) {
	q := url.Values{"userId": {userID}}
	if day != nil {
		q.Set("date", day.Format("2006-01-02"))
	}
	var out []model.Task
	if err := c.do(ctx, http.MethodGet, "/tasks", q, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *APIClient) AddTask(ctx context.Context, userID string, draft TaskDraft) (*model.Task, error) {
	var out model.Task
	if err := c.do(ctx, http.MethodPost, "/tasks", nil, draft.payload(userID), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *APIClient) UpdateTask(ctx context.Context, taskID string, draft TaskDraft) (*model.Task, error) {
	var out model.Task
	if err := c.do(ctx, http.MethodPut, "/tasks/"+url.PathEscape(taskID), nil, draft.payload(""), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *APIClient) ToggleTask(ctx context.Context, taskID string) (*model.Task, error) {
	var out model.Task
	if err := c.do(ctx, http.MethodPost, "/tasks/"+url.PathEscape(taskID)+"/complete", nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *APIClient) DeleteTasks(ctx context.Context, taskIDs []string) (int64, error) {
	var out struct {
		Count int64 `json:"count"`
	}
	body := map[string][]string{"taskIds": taskIDs}
	if err := c.do(ctx, http.MethodDelete, "/tasks", nil, body, &out); err != nil {
		return 0, err
	}
	return out.Count, nil
}

func (c *APIClient) Stats(ctx context.Context, userID string) (*service.Stats, error) {
	var out service.Stats
	if err := c.do(ctx, http.MethodGet, "/users/"+url.PathEscape(userID)+"/stats", nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *APIClient) Templates(ctx context.Context) ([]model.Template, error) {
	var out []model.Template
	if err := c.do(ctx, http.MethodGet, "/templates", nil, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *APIClient) ApplyTemplate(ctx context.Context, userID, templateID string) (*service.ApplyResult, error) {
	var out service.ApplyResult
	body := map[string]string{"userId": userID}
	if err := c.do(ctx, http.MethodPost, "/templates/"+url.PathEscape(templateID)+"/apply", nil, body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *APIClient) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(buf)
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: read body: %v", ErrUnavailable, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var apiErr struct {
			Error string `json:"error"`
		}
		msg := strings.TrimSpace(string(raw))
		if json.Unmarshal(raw, &apiErr) == nil && apiErr.Error != "" {
			msg = apiErr.Error
		}
		return &APIError{Status: resp.StatusCode, Message: msg}
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
