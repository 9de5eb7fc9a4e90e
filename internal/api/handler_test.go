package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"sync"
	"testing"

	"github.com/google/uuid"

	"github.com/shaiso/loanworker/internal/domain"
	"github.com/shaiso/loanworker/internal/repo"
	"github.com/shaiso/loanworker/internal/telemetry"
)

// memStore — TaskStore в памяти.
type memStore struct {
	mu      sync.Mutex
	tasks   []*domain.TaskRun
	listErr error
}

func (s *memStore) Create(_ context.Context, task *domain.TaskRun) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range s.tasks {
		if task.IdempotencyKey != "" && t.IdempotencyKey == task.IdempotencyKey {
			return repo.ErrAlreadyExists
		}
	}
	cp := *task
	s.tasks = append(s.tasks, &cp)
	return nil
}

func (s *memStore) GetByID(_ context.Context, id uuid.UUID) (*domain.TaskRun, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range s.tasks {
		if t.ID == id {
			cp := *t
			return &cp, nil
		}
	}
	return nil, repo.ErrNotFound
}

func (s *memStore) GetByIdempotencyKey(_ context.Context, key string) (*domain.TaskRun, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range s.tasks {
		if t.IdempotencyKey == key {
			cp := *t
			return &cp, nil
		}
	}
	return nil, repo.ErrNotFound
}

func (s *memStore) filtered(filter repo.TaskFilter) []domain.TaskRun {
	var out []domain.TaskRun
	for _, t := range s.tasks {
		if filter.Status == "" || t.Status == filter.Status {
			out = append(out, *t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

func (s *memStore) List(_ context.Context, filter repo.TaskFilter) ([]domain.TaskRun, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listErr != nil {
		return nil, s.listErr
	}
	out := s.filtered(filter)
	if filter.Offset >= len(out) {
		return nil, nil
	}
	out = out[filter.Offset:]
	if len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

func (s *memStore) Count(_ context.Context, filter repo.TaskFilter) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.filtered(filter)), nil
}

// fakePublisher запоминает опубликованные task.
type fakePublisher struct {
	published []uuid.UUID
	err       error
}

func (p *fakePublisher) PublishTaskSubmitted(_ context.Context, id uuid.UUID) error {
	p.published = append(p.published, id)
	return p.err
}

func newTestServer(store *memStore, pub Publisher) *http.ServeMux {
	h := NewHandler(Config{Tasks: store, Publisher: pub, Logger: telemetry.NopLogger()})
	mux := http.NewServeMux()
	h.RegisterRoutes(mux)
	return mux
}

func do(t *testing.T, mux http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	return rec
}

func decodeData(t *testing.T, rec *httptest.ResponseRecorder) TaskResponse {
	t.Helper()
	var resp struct {
		Data TaskResponse `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode %s: %v", rec.Body.String(), err)
	}
	return resp.Data
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) ErrorCode {
	t.Helper()
	var resp ErrorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode %s: %v", rec.Body.String(), err)
	}
	return resp.Error.Code
}

func TestCreateTask(t *testing.T) {
	store := &memStore{}
	pub := &fakePublisher{}
	mux := newTestServer(store, pub)

	rec := do(t, mux, http.MethodPost, "/api/v1/tasks", `{"url":"https://forms.example.com/42.pdf"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body)
	}

	task := decodeData(t, rec)
	if task.Status != "PENDING" || task.EmailStatus != "NONE" || task.URL != "https://forms.example.com/42.pdf" {
		t.Errorf("unexpected task: %+v", task)
	}
	if len(pub.published) != 1 || pub.published[0] != task.ID {
		t.Errorf("published = %v", pub.published)
	}
	if len(store.tasks) != 1 {
		t.Errorf("stored %d tasks", len(store.tasks))
	}
}

func TestCreateTask_Idempotent(t *testing.T) {
	store := &memStore{}
	pub := &fakePublisher{}
	mux := newTestServer(store, pub)

	body := `{"url":"https://forms.example.com/42.pdf","idempotency_key":"app-42"}`
	first := do(t, mux, http.MethodPost, "/api/v1/tasks", body)
	second := do(t, mux, http.MethodPost, "/api/v1/tasks", body)

	if first.Code != http.StatusCreated || second.Code != http.StatusOK {
		t.Fatalf("codes = %d, %d", first.Code, second.Code)
	}
	if decodeData(t, first).ID != decodeData(t, second).ID {
		t.Error("same key must return the same task")
	}
	if len(pub.published) != 1 {
		t.Errorf("published %d times, want 1", len(pub.published))
	}
}

func TestCreateTask_PublishFailureStillCreates(t *testing.T) {
	store := &memStore{}
	mux := newTestServer(store, &fakePublisher{err: errors.New("broker down")})

	rec := do(t, mux, http.MethodPost, "/api/v1/tasks", `{"url":"https://forms.example.com/42.pdf"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestCreateTask_WithoutPublisher(t *testing.T) {
	mux := newTestServer(&memStore{}, nil)

	rec := do(t, mux, http.MethodPost, "/api/v1/tasks", `{"url":"http://forms.example.com/42.pdf"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestCreateTask_BadRequest(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"not json", `{`},
		{"missing url", `{}`},
		{"relative url", `{"url":"/forms/42.pdf"}`},
		{"unsupported scheme", `{"url":"ftp://forms.example.com/42.pdf"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := &memStore{}
			rec := do(t, newTestServer(store, nil), http.MethodPost, "/api/v1/tasks", tt.body)
			if rec.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", rec.Code)
			}
			if code := errorCode(t, rec); code != ErrCodeBadRequest {
				t.Errorf("code = %s", code)
			}
			if len(store.tasks) != 0 {
				t.Error("invalid request must not create a task")
			}
		})
	}
}

func TestGetTask(t *testing.T) {
	task := domain.NewTaskRun(domain.TaskInput{URL: "https://forms.example.com/1.pdf"}, "")
	task.Status = domain.TaskStatusRunning
	task.MarkSucceeded(json.RawMessage(`{"approved":true,"recommendation":"ok"}`), "ok")
	store := &memStore{tasks: []*domain.TaskRun{task}}
	mux := newTestServer(store, nil)

	rec := do(t, mux, http.MethodGet, "/api/v1/tasks/"+task.ID.String(), "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	got := decodeData(t, rec)
	if got.Status != "SUCCEEDED" || !got.Finished || got.Recommendation != "ok" {
		t.Errorf("unexpected task: %+v", got)
	}
	if !strings.Contains(string(got.Result), `"recommendation":"ok"`) {
		t.Errorf("result = %s", got.Result)
	}

	if rec := do(t, mux, http.MethodGet, "/api/v1/tasks/"+uuid.NewString(), ""); rec.Code != http.StatusNotFound {
		t.Errorf("unknown id: status = %d", rec.Code)
	}
	if rec := do(t, mux, http.MethodGet, "/api/v1/tasks/not-a-uuid", ""); rec.Code != http.StatusBadRequest {
		t.Errorf("bad id: status = %d", rec.Code)
	}
}

func TestListTasks(t *testing.T) {
	store := &memStore{}
	for i := 0; i < 3; i++ {
		task := domain.NewTaskRun(domain.TaskInput{URL: "https://forms.example.com/x.pdf"}, "")
		if i == 0 {
			task.Status = domain.TaskStatusRunning
			task.MarkFailed("boom")
		}
		store.tasks = append(store.tasks, task)
	}
	mux := newTestServer(store, nil)

	tests := []struct {
		query     string
		wantCode  int
		wantLen   int
		wantTotal int
	}{
		{"", http.StatusOK, 3, 3},
		{"?status=FAILED", http.StatusOK, 1, 1},
		{"?status=PENDING&limit=1", http.StatusOK, 1, 2},
		{"?offset=10", http.StatusOK, 0, 3},
		{"?status=DONE", http.StatusBadRequest, 0, 0},
		{"?limit=0", http.StatusBadRequest, 0, 0},
		{"?limit=abc", http.StatusBadRequest, 0, 0},
		{"?offset=-1", http.StatusBadRequest, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			rec := do(t, mux, http.MethodGet, "/api/v1/tasks"+tt.query, "")
			if rec.Code != tt.wantCode {
				t.Fatalf("status = %d, want %d", rec.Code, tt.wantCode)
			}
			if tt.wantCode != http.StatusOK {
				return
			}

			var resp struct {
				Data  []TaskResponse `json:"data"`
				Total int            `json:"total"`
			}
			if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if len(resp.Data) != tt.wantLen || resp.Total != tt.wantTotal {
				t.Errorf("len = %d, total = %d; want %d, %d", len(resp.Data), resp.Total, tt.wantLen, tt.wantTotal)
			}
		})
	}
}

func TestListTasks_StoreError(t *testing.T) {
	mux := newTestServer(&memStore{listErr: errors.New("db down")}, nil)

	rec := do(t, mux, http.MethodGet, "/api/v1/tasks", "")
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d", rec.Code)
	}
	if strings.Contains(rec.Body.String(), "db down") {
		t.Error("internal error details must not leak")
	}
}

func TestRecovery(t *testing.T) {
	h := Chain(Recovery(telemetry.NopLogger()), Logging(telemetry.NopLogger()))(
		http.HandlerFunc(func(http.ResponseWriter, *http.Request) { panic("boom") }),
	)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d", rec.Code)
	}
	if code := errorCode(t, rec); code != ErrCodeInternalError {
		t.Errorf("code = %s", code)
	}
}
