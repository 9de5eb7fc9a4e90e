package domain

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// TaskInput — входные данные digital worker task.
type TaskInput struct {
	// URL — ссылка на PDF анкеты заявки на кредит.
	URL string `json:"url"`
}

// TaskRun — одно выполнение digital worker task.
//
// TaskRun создаётся API при отправке заявки и выполняется воркером.
// Весь pipeline (extraction → compliance → email) укладывается в один TaskRun.
type TaskRun struct {
	// ID — уникальный идентификатор task.
	ID uuid.UUID `json:"id"`

	// Status — текущий статус выполнения.
	Status TaskStatus `json:"status"`

	// Input — входные параметры, переданные при отправке.
	Input TaskInput `json:"input"`

	// Result — результат compliance skill, дополненный полем recommendation.
	// Хранится как есть (сырой JSON), т.к. форма отчёта принадлежит rules engine.
	Result json.RawMessage `json:"result,omitempty"`

	// Recommendation — текст письма с рекомендацией.
	Recommendation string `json:"recommendation,omitempty"`

	// EmailStatus — статус отправки письма.
	EmailStatus EmailStatus `json:"email_status"`

	// EmailError — ошибка отправки письма, если EmailStatus == FAILED.
	EmailError string `json:"email_error,omitempty"`

	// Error — текст ошибки, если task завершился с FAILED.
	Error string `json:"error,omitempty"`

	// IdempotencyKey — ключ идемпотентности, чтобы повторная отправка
	// той же заявки не запускала pipeline второй раз.
	IdempotencyKey string `json:"idempotency_key,omitempty"`

	StartedAt  *time.Time `json:"started_at,omitempty"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
}

// NewTaskRun создаёт task в статусе PENDING.
func NewTaskRun(input TaskInput, idempotencyKey string) *TaskRun {
	return &TaskRun{
		ID:             uuid.New(),
		Status:         TaskStatusPending,
		Input:          input,
		EmailStatus:    EmailStatusNone,
		IdempotencyKey: idempotencyKey,
		CreatedAt:      time.Now().UTC(),
	}
}

// Duration возвращает продолжительность выполнения.
// Возвращает 0, если task ещё не завершён.
func (t *TaskRun) Duration() time.Duration {
	if t.StartedAt == nil || t.FinishedAt == nil {
		return 0
	}
	return t.FinishedAt.Sub(*t.StartedAt)
}

// IsFinished возвращает true, если task завершён (в любом статусе).
func (t *TaskRun) IsFinished() bool {
	return t.Status.IsTerminal()
}

// MarkSucceeded переводит task в статус SUCCEEDED с результатом.
func (t *TaskRun) MarkSucceeded(result json.RawMessage, recommendation string) {
	now := time.Now().UTC()
	t.Status = TaskStatusSucceeded
	t.FinishedAt = &now
	t.Result = result
	t.Recommendation = recommendation
}

// MarkFailed переводит task в статус FAILED с ошибкой.
func (t *TaskRun) MarkFailed(err string) {
	now := time.Now().UTC()
	t.Status = TaskStatusFailed
	t.FinishedAt = &now
	t.Error = err
}

// MarkEmail обновляет статус отправки письма.
func (t *TaskRun) MarkEmail(status EmailStatus, err string) {
	t.EmailStatus = status
	t.EmailError = err
}
