package api

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/shaiso/loanworker/internal/domain"
	"github.com/shaiso/loanworker/internal/repo"
)

// TaskStore — операции с tasks, нужные API. Реализуется repo.TaskRepo.
type TaskStore interface {
	Create(ctx context.Context, task *domain.TaskRun) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.TaskRun, error)
	GetByIdempotencyKey(ctx context.Context, key string) (*domain.TaskRun, error)
	List(ctx context.Context, filter repo.TaskFilter) ([]domain.TaskRun, error)
	Count(ctx context.Context, filter repo.TaskFilter) (int, error)
}

// Publisher уведомляет воркеров о новом task. Реализуется mq.Publisher.
type Publisher interface {
	PublishTaskSubmitted(ctx context.Context, taskID uuid.UUID) error
}

// Handler — обработчик API.
type Handler struct {
	tasks     TaskStore
	publisher Publisher
	logger    *slog.Logger
}

// Config — зависимости Handler.
type Config struct {
	Tasks TaskStore

	// Publisher — nil: воркер найдёт task через polling.
	Publisher Publisher

	Logger *slog.Logger
}

// NewHandler создаёт Handler.
func NewHandler(cfg Config) *Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		tasks:     cfg.Tasks,
		publisher: cfg.Publisher,
		logger:    logger,
	}
}
