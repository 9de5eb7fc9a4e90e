package skill

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const (
	defaultHTTPTimeout = 30 * time.Second
	maxResponseBody    = 10 * 1024 * 1024 // 10 MB
	maxErrorBody       = 200
)

// HTTPSkill — skill, доступный по HTTP.
//
// Параметры сериализуются в JSON и отправляются в теле запроса.
// Ответ должен быть JSON; пустое тело (например, 204) — null.
// HTTP >= 400 — *CallError.
type HTTPSkill struct {
	name    string
	url     string
	method  string
	headers map[string]string
	timeout time.Duration
	maxBody int64
	client  *http.Client
}

// HTTPConfig — конфигурация HTTPSkill.
type HTTPConfig struct {
	Name    string
	URL     string
	Method  string            // default: POST
	Headers map[string]string // например, Authorization
	Timeout time.Duration     // default: 30s
	Client  *http.Client      // default: новый http.Client

	// MaxResponseBody — предел размера ответа в байтах (default: 10 MB).
	MaxResponseBody int64
}

// NewHTTPSkill создаёт HTTPSkill.
func NewHTTPSkill(cfg HTTPConfig) *HTTPSkill {
	method := cfg.Method
	if method == "" {
		method = http.MethodPost
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultHTTPTimeout
	}
	client := cfg.Client
	if client == nil {
		client = &http.Client{}
	}
	maxBody := cfg.MaxResponseBody
	if maxBody <= 0 {
		maxBody = maxResponseBody
	}
	return &HTTPSkill{
		name:    cfg.Name,
		url:     cfg.URL,
		method:  method,
		headers: cfg.Headers,
		timeout: timeout,
		maxBody: maxBody,
		client:  client,
	}
}

// Execute вызывает skill.
func (s *HTTPSkill) Execute(ctx context.Context, params any) (json.RawMessage, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	body, err := json.Marshal(params)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: marshal params: %v", ErrSkillCall, s.name, err)
	}

	req, err := http.NewRequestWithContext(ctx, s.method, s.url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: %s: create request: %v", ErrSkillCall, s.name, err)
	}
	for key, val := range s.headers {
		req.Header.Set(key, val)
	}
	if req.Header.Get("Content-Type") == "" {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrSkillCall, s.name, err)
	}
	defer resp.Body.Close()

	// лишний байт сверх предела отличает обрезанный ответ от ответа ровно в предел
	respBody, err := io.ReadAll(io.LimitReader(resp.Body, s.maxBody+1))
	if err != nil {
		return nil, fmt.Errorf("%w: %s: read response: %v", ErrSkillCall, s.name, err)
	}

	if resp.StatusCode >= 400 {
		return nil, &CallError{
			Skill:      s.name,
			StatusCode: resp.StatusCode,
			Body:       truncate(string(respBody), maxErrorBody),
		}
	}

	if int64(len(respBody)) > s.maxBody {
		return nil, fmt.Errorf("%w: %s: response exceeds %d bytes", ErrInvalidResponse, s.name, s.maxBody)
	}

	respBody = bytes.TrimSpace(respBody)
	if len(respBody) == 0 {
		return json.RawMessage("null"), nil
	}
	if !json.Valid(respBody) {
		return nil, fmt.Errorf("%w: %s: response is not JSON: %s", ErrInvalidResponse, s.name, truncate(string(respBody), maxErrorBody))
	}
	return json.RawMessage(respBody), nil
}

// decodeNumbers разбирает JSON, сохраняя числа как json.Number.
func decodeNumbers(raw json.RawMessage, v any) error {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	return dec.Decode(v)
}

// truncate обрезает строку до указанной длины.
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
