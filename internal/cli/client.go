package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// TaskResponse — task из API.
type TaskResponse struct {
	ID             string          `json:"id"`
	Status         string          `json:"status"`
	URL            string          `json:"url"`
	Result         json.RawMessage `json:"result,omitempty"`
	Recommendation string          `json:"recommendation,omitempty"`
	EmailStatus    string          `json:"email_status"`
	EmailError     string          `json:"email_error,omitempty"`
	Error          string          `json:"error,omitempty"`
	IdempotencyKey string          `json:"idempotency_key,omitempty"`
	StartedAt      string          `json:"started_at,omitempty"`
	FinishedAt     string          `json:"finished_at,omitempty"`
	CreatedAt      string          `json:"created_at"`
}

// Finished — task в финальном статусе.
func (t *TaskResponse) Finished() bool {
	return t.Status == "SUCCEEDED" || t.Status == "FAILED"
}

// CreateTaskRequest — отправка заявки.
type CreateTaskRequest struct {
	URL            string `json:"url"`
	IdempotencyKey string `json:"idempotency_key,omitempty"`
}

// ListTasksOpts — фильтр списка tasks.
type ListTasksOpts struct {
	Status string
	Limit  int
	Offset int
}

// APIError — ответ API с ошибкой.
type APIError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *APIError) Error() string {
	if e.Code == "" {
		return fmt.Sprintf("API error: HTTP %d", e.StatusCode)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

type dataResponse struct {
	Data json.RawMessage `json:"data"`
}

type listResponse struct {
	Data  json.RawMessage `json:"data"`
	Total int             `json:"total"`
}

type errorResponse struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// Client — HTTP-клиент loanworker API.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient создаёт клиент.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// CreateTask отправляет заявку.
func (c *Client) CreateTask(ctx context.Context, req CreateTaskRequest) (*TaskResponse, error) {
	var task TaskResponse
	err := c.doData(ctx, http.MethodPost, "/api/v1/tasks", req, &task)
	return &task, err
}

// GetTask возвращает task по ID.
func (c *Client) GetTask(ctx context.Context, id string) (*TaskResponse, error) {
	var task TaskResponse
	err := c.doData(ctx, http.MethodGet, "/api/v1/tasks/"+url.PathEscape(id), nil, &task)
	return &task, err
}

// ListTasks возвращает tasks и их общее число.
func (c *Client) ListTasks(ctx context.Context, opts ListTasksOpts) ([]TaskResponse, int, error) {
	params := url.Values{}
	if opts.Status != "" {
		params.Set("status", opts.Status)
	}
	if opts.Limit > 0 {
		params.Set("limit", strconv.Itoa(opts.Limit))
	}
	if opts.Offset > 0 {
		params.Set("offset", strconv.Itoa(opts.Offset))
	}

	path := "/api/v1/tasks"
	if len(params) > 0 {
		path += "?" + params.Encode()
	}

	resp, err := c.do(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()

	if err := checkError(resp); err != nil {
		return nil, 0, err
	}

	var lr listResponse
	if err := json.NewDecoder(resp.Body).Decode(&lr); err != nil {
		return nil, 0, fmt.Errorf("failed to decode response: %w", err)
	}

	var tasks []TaskResponse
	if err := json.Unmarshal(lr.Data, &tasks); err != nil {
		return nil, 0, fmt.Errorf("failed to decode tasks: %w", err)
	}
	return tasks, lr.Total, nil
}

// WaitTask опрашивает task с интервалом interval, пока он не завершится
// или не отменится ctx.
func (c *Client) WaitTask(ctx context.Context, id string, interval time.Duration) (*TaskResponse, error) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		task, err := c.GetTask(ctx, id)
		if err != nil {
			return nil, err
		}
		if task.Finished() {
			return task, nil
		}

		select {
		case <-ctx.Done():
			return task, fmt.Errorf("task %s is still %s: %w", id, task.Status, ctx.Err())
		case <-ticker.C:
		}
	}
}

// --- HTTP helpers ---

func (c *Client) doData(ctx context.Context, method, path string, body, result any) error {
	resp, err := c.do(ctx, method, path, body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := checkError(resp); err != nil {
		return err
	}

	var dr dataResponse
	if err := json.NewDecoder(resp.Body).Decode(&dr); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return json.Unmarshal(dr.Data, result)
}

func (c *Client) do(ctx context.Context, method, path string, body any) (*http.Response, error) {
	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	return c.httpClient.Do(req)
}

func checkError(resp *http.Response) error {
	if resp.StatusCode < 400 {
		return nil
	}

	apiErr := &APIError{StatusCode: resp.StatusCode}
	var er errorResponse
	if err := json.NewDecoder(resp.Body).Decode(&er); err == nil {
		apiErr.Code = er.Error.Code
		apiErr.Message = er.Error.Message
	}
	return apiErr
}
