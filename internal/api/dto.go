package api

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/shaiso/loanworker/internal/domain"
)

// CreateTaskRequest — отправка заявки на проверку.
type CreateTaskRequest struct {
	// URL — ссылка на PDF анкеты.
	URL            string `json:"url"`
	IdempotencyKey string `json:"idempotency_key,omitempty"`
}

// TaskResponse — task в ответах API.
type TaskResponse struct {
	ID             uuid.UUID       `json:"id"`
	Status         string          `json:"status"`
	Finished       bool            `json:"finished"`
	URL            string          `json:"url"`
	Result         json.RawMessage `json:"result,omitempty"`
	Recommendation string          `json:"recommendation,omitempty"`
	EmailStatus    string          `json:"email_status"`
	EmailError     string          `json:"email_error,omitempty"`
	Error          string          `json:"error,omitempty"`
	IdempotencyKey string          `json:"idempotency_key,omitempty"`
	StartedAt      *time.Time      `json:"started_at,omitempty"`
	FinishedAt     *time.Time      `json:"finished_at,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
}

// TaskFromDomain преобразует domain.TaskRun в TaskResponse.
func TaskFromDomain(t domain.TaskRun) TaskResponse {
	return TaskResponse{
		ID:             t.ID,
		Status:         string(t.Status),
		Finished:       t.IsFinished(),
		URL:            t.Input.URL,
		Result:         t.Result,
		Recommendation: t.Recommendation,
		EmailStatus:    string(t.EmailStatus),
		EmailError:     t.EmailError,
		Error:          t.Error,
		IdempotencyKey: t.IdempotencyKey,
		StartedAt:      t.StartedAt,
		FinishedAt:     t.FinishedAt,
		CreatedAt:      t.CreatedAt,
	}
}
