package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/google/uuid"

	"github.com/shaiso/loanworker/internal/domain"
	"github.com/shaiso/loanworker/internal/repo"
)

const (
	defaultListLimit = 50
	maxListLimit     = 500
)

// CreateTask принимает заявку.
// POST /api/v1/tasks
//
// Повтор с тем же idempotency_key возвращает существующий task (200).
func (h *Handler) CreateTask(w http.ResponseWriter, r *http.Request) {
	var req CreateTaskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		BadRequest(w, "invalid request body")
		return
	}
	if err := validateURL(req.URL); err != nil {
		BadRequest(w, err.Error())
		return
	}

	if req.IdempotencyKey != "" {
		existing, err := h.tasks.GetByIdempotencyKey(r.Context(), req.IdempotencyKey)
		if err == nil {
			Success(w, TaskFromDomain(*existing))
			return
		}
		if !errors.Is(err, repo.ErrNotFound) {
			InternalError(w, h.logger, err)
			return
		}
	}

	task := domain.NewTaskRun(domain.TaskInput{URL: req.URL}, req.IdempotencyKey)
	if err := h.tasks.Create(r.Context(), task); err != nil {
		// параллельный запрос с тем же ключом успел раньше
		if errors.Is(err, repo.ErrAlreadyExists) && req.IdempotencyKey != "" {
			existing, getErr := h.tasks.GetByIdempotencyKey(r.Context(), req.IdempotencyKey)
			if getErr == nil {
				Success(w, TaskFromDomain(*existing))
				return
			}
		}
		HandleRepoError(w, h.logger, err, "")
		return
	}

	if h.publisher != nil {
		if err := h.publisher.PublishTaskSubmitted(r.Context(), task.ID); err != nil {
			// воркер подхватит task через polling
			h.logger.Warn("failed to publish task.submitted", "task_id", task.ID, "error", err)
		}
	}

	Created(w, TaskFromDomain(*task))
}

// GetTask возвращает task.
// GET /api/v1/tasks/{id}
func (h *Handler) GetTask(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		BadRequest(w, "invalid task id")
		return
	}

	task, err := h.tasks.GetByID(r.Context(), id)
	if HandleRepoError(w, h.logger, err, "task not found") {
		return
	}

	Success(w, TaskFromDomain(*task))
}

// ListTasks возвращает tasks, новые первыми.
// GET /api/v1/tasks?status=...&limit=...&offset=...
func (h *Handler) ListTasks(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := repo.TaskFilter{Limit: defaultListLimit}

	if status := q.Get("status"); status != "" {
		filter.Status = domain.TaskStatus(status)
		if !filter.Status.Valid() {
			BadRequest(w, fmt.Sprintf("invalid status %q", status))
			return
		}
	}

	var err error
	if filter.Limit, err = intParam(q, "limit", defaultListLimit); err != nil || filter.Limit <= 0 || filter.Limit > maxListLimit {
		BadRequest(w, fmt.Sprintf("limit must be between 1 and %d", maxListLimit))
		return
	}
	if filter.Offset, err = intParam(q, "offset", 0); err != nil || filter.Offset < 0 {
		BadRequest(w, "offset must be a non-negative integer")
		return
	}

	tasks, err := h.tasks.List(r.Context(), filter)
	if HandleRepoError(w, h.logger, err, "") {
		return
	}
	total, err := h.tasks.Count(r.Context(), filter)
	if HandleRepoError(w, h.logger, err, "") {
		return
	}

	result := make([]TaskResponse, len(tasks))
	for i, t := range tasks {
		result[i] = TaskFromDomain(t)
	}
	List(w, result, total)
}

// validateURL — ссылка на анкету должна быть абсолютным http(s) URL.
func validateURL(raw string) error {
	if raw == "" {
		return errors.New("url is required")
	}
	u, err := url.Parse(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("url must be an absolute http(s) URL, got %q", raw)
	}
	return nil
}

func intParam(q url.Values, name string, def int) (int, error) {
	s := q.Get(name)
	if s == "" {
		return def, nil
	}
	return strconv.Atoi(s)
}
