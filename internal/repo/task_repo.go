package repo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/shaiso/loanworker/internal/domain"
)

// pgUniqueViolation — SQLSTATE нарушения уникальности.
const pgUniqueViolation = "23505"

const taskColumns = `
	id, status, input, result, recommendation, email_status, email_error,
	error, idempotency_key, started_at, finished_at, created_at`

// TaskFilter — фильтр для List и Count.
type TaskFilter struct {
	Status domain.TaskStatus
	Limit  int
	Offset int
}

// TaskRepo — репозиторий task_runs.
type TaskRepo struct {
	pool *pgxpool.Pool
}

// NewTaskRepo создаёт TaskRepo.
func NewTaskRepo(pool *pgxpool.Pool) *TaskRepo {
	return &TaskRepo{pool: pool}
}

// Create сохраняет новый task.
// Повтор idempotency_key — ErrAlreadyExists.
func (r *TaskRepo) Create(ctx context.Context, task *domain.TaskRun) error {
	inputJSON, err := json.Marshal(task.Input)
	if err != nil {
		return fmt.Errorf("marshal input: %w", err)
	}

	_, err = r.pool.Exec(ctx, `
		INSERT INTO task_runs (id, status, input, email_status, idempotency_key, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`,
		task.ID,
		task.Status,
		inputJSON,
		task.EmailStatus,
		nullString(task.IdempotencyKey),
		task.CreatedAt,
	)
	if isUniqueViolation(err) {
		return fmt.Errorf("%w: idempotency key %q", ErrAlreadyExists, task.IdempotencyKey)
	}
	if err != nil {
		return fmt.Errorf("insert task: %w", err)
	}
	return nil
}

// GetByID возвращает task по ID.
func (r *TaskRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.TaskRun, error) {
	return scanTask(r.pool.QueryRow(ctx, `SELECT `+taskColumns+` FROM task_runs WHERE id = $1`, id))
}

// GetByIdempotencyKey возвращает task по ключу идемпотентности.
func (r *TaskRepo) GetByIdempotencyKey(ctx context.Context, key string) (*domain.TaskRun, error) {
	return scanTask(r.pool.QueryRow(ctx, `SELECT `+taskColumns+` FROM task_runs WHERE idempotency_key = $1`, key))
}

// List возвращает tasks, новые первыми.
func (r *TaskRepo) List(ctx context.Context, filter TaskFilter) ([]domain.TaskRun, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+taskColumns+`
		FROM task_runs
		WHERE ($1::text IS NULL OR status = $1)
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`,
		nullString(string(filter.Status)),
		filter.Limit,
		filter.Offset,
	)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	return collectTasks(rows)
}

// Count возвращает число tasks под фильтром (без limit/offset).
func (r *TaskRepo) Count(ctx context.Context, filter TaskFilter) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx, `
		SELECT COUNT(*) FROM task_runs WHERE ($1::text IS NULL OR status = $1)
	`, nullString(string(filter.Status))).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count tasks: %w", err)
	}
	return count, nil
}

// Update сохраняет статус, результат и ошибку task.
func (r *TaskRepo) Update(ctx context.Context, task *domain.TaskRun) error {
	result, err := r.pool.Exec(ctx, `
		UPDATE task_runs
		SET status = $2, result = $3, recommendation = $4, email_status = $5,
		    email_error = $6, error = $7, started_at = $8, finished_at = $9
		WHERE id = $1
	`,
		task.ID,
		task.Status,
		nullJSON(task.Result),
		nullString(task.Recommendation),
		task.EmailStatus,
		nullString(task.EmailError),
		nullString(task.Error),
		task.StartedAt,
		task.FinishedAt,
	)
	if err != nil {
		return fmt.Errorf("update task: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// ListPending возвращает PENDING tasks, старые первыми.
func (r *TaskRepo) ListPending(ctx context.Context, limit int) ([]domain.TaskRun, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+taskColumns+`
		FROM task_runs
		WHERE status = 'PENDING'
		ORDER BY created_at ASC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("list pending tasks: %w", err)
	}
	return collectTasks(rows)
}

// ClaimPending атомарно переводит task из PENDING в RUNNING.
// Забрать task может только один воркер; остальные получат ErrInvalidState.
func (r *TaskRepo) ClaimPending(ctx context.Context, id uuid.UUID) (*domain.TaskRun, error) {
	task, err := scanTask(r.pool.QueryRow(ctx, `
		UPDATE task_runs
		SET status = 'RUNNING', started_at = now()
		WHERE id = $1 AND status = 'PENDING'
		RETURNING `+taskColumns,
		id,
	))
	if !errors.Is(err, ErrNotFound) {
		return task, err
	}

	// строки нет или она уже не PENDING
	if _, getErr := r.GetByID(ctx, id); getErr != nil {
		return nil, getErr
	}
	return nil, fmt.Errorf("%w: task %s is not pending", ErrInvalidState, id)
}

// UpdateEmail сохраняет статус отправки письма.
func (r *TaskRepo) UpdateEmail(ctx context.Context, id uuid.UUID, status domain.EmailStatus, emailErr string) error {
	result, err := r.pool.Exec(ctx, `
		UPDATE task_runs SET email_status = $2, email_error = $3 WHERE id = $1
	`, id, status, nullString(emailErr))
	if err != nil {
		return fmt.Errorf("update email status: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// ListStale возвращает RUNNING tasks, начатые раньше before.
func (r *TaskRepo) ListStale(ctx context.Context, before time.Time) ([]domain.TaskRun, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+taskColumns+`
		FROM task_runs
		WHERE status = 'RUNNING' AND started_at < $1
		ORDER BY started_at ASC
	`, before)
	if err != nil {
		return nil, fmt.Errorf("list stale tasks: %w", err)
	}
	return collectTasks(rows)
}

// FailRunning переводит task из RUNNING в FAILED.
// Если воркер успел завершить task, возвращает ErrInvalidState.
func (r *TaskRepo) FailRunning(ctx context.Context, id uuid.UUID, reason string) error {
	result, err := r.pool.Exec(ctx, `
		UPDATE task_runs
		SET status = 'FAILED', error = $2, finished_at = now()
		WHERE id = $1 AND status = 'RUNNING'
	`, id, reason)
	if err != nil {
		return fmt.Errorf("fail task: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("%w: task %s is not running", ErrInvalidState, id)
	}
	return nil
}

// --- Helpers ---

func scanTask(row pgx.Row) (*domain.TaskRun, error) {
	var task domain.TaskRun
	var inputJSON, resultJSON []byte
	var recommendation, emailError, taskError, idempotencyKey *string

	err := row.Scan(
		&task.ID,
		&task.Status,
		&inputJSON,
		&resultJSON,
		&recommendation,
		&task.EmailStatus,
		&emailError,
		&taskError,
		&idempotencyKey,
		&task.StartedAt,
		&task.FinishedAt,
		&task.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan task: %w", err)
	}

	if err := json.Unmarshal(inputJSON, &task.Input); err != nil {
		return nil, fmt.Errorf("unmarshal input: %w", err)
	}
	if resultJSON != nil {
		task.Result = json.RawMessage(resultJSON)
	}
	task.Recommendation = deref(recommendation)
	task.EmailError = deref(emailError)
	task.Error = deref(taskError)
	task.IdempotencyKey = deref(idempotencyKey)

	return &task, nil
}

func collectTasks(rows pgx.Rows) ([]domain.TaskRun, error) {
	defer rows.Close()

	var tasks []domain.TaskRun
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, *task)
	}
	return tasks, rows.Err()
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation
}

// nullString возвращает nil для пустой строки (NULL в БД).
func nullString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// nullJSON возвращает nil для пустого JSON (NULL в БД).
func nullJSON(raw json.RawMessage) any {
	if len(raw) == 0 {
		return nil
	}
	return string(raw)
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
