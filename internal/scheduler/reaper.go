package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"

	"github.com/shaiso/loanworker/internal/domain"
	"github.com/shaiso/loanworker/internal/repo"
	"github.com/shaiso/loanworker/internal/telemetry"
)

// StaleReason — текст ошибки у task, помеченного reaper'ом.
const StaleReason = "stale: worker did not finish"

const defaultStaleAfter = 15 * time.Minute

// StaleStore — операции, нужные reaper'у. Реализуется repo.TaskRepo.
type StaleStore interface {
	ListStale(ctx context.Context, before time.Time) ([]domain.TaskRun, error)
	FailRunning(ctx context.Context, id uuid.UUID, reason string) error
}

// Config — конфигурация Reaper.
type Config struct {
	Tasks StaleStore

	// StaleAfter — сколько task может быть в RUNNING (default: 15m).
	StaleAfter time.Duration

	Logger *slog.Logger

	// Clock — источник времени (default: time.Now).
	Clock func() time.Time
}

// Reaper переводит зависшие RUNNING tasks в FAILED.
type Reaper struct {
	tasks      StaleStore
	staleAfter time.Duration
	logger     *slog.Logger
	clock      func() time.Time

	mu   sync.Mutex
	cron *cron.Cron
}

// NewReaper создаёт Reaper.
func NewReaper(cfg Config) *Reaper {
	r := &Reaper{
		tasks:      cfg.Tasks,
		staleAfter: cfg.StaleAfter,
		logger:     cfg.Logger,
		clock:      cfg.Clock,
	}
	if r.staleAfter <= 0 {
		r.staleAfter = defaultStaleAfter
	}
	if r.logger == nil {
		r.logger = slog.Default()
	}
	if r.clock == nil {
		r.clock = time.Now
	}
	r.logger = r.logger.With("component", "reaper")
	return r
}

// Sweep выполняет один проход. Возвращает число помеченных tasks.
// Ошибка одного task не останавливает обработку остальных.
func (r *Reaper) Sweep(ctx context.Context) (int, error) {
	before := r.clock().Add(-r.staleAfter)

	stale, err := r.tasks.ListStale(ctx, before)
	if err != nil {
		return 0, fmt.Errorf("list stale tasks: %w", err)
	}
	if len(stale) == 0 {
		return 0, nil
	}

	var reaped int
	for i := range stale {
		task := &stale[i]
		err := r.tasks.FailRunning(ctx, task.ID, StaleReason)
		switch {
		case err == nil:
			reaped++
			telemetry.StaleTasks.Inc()
			r.logger.Warn("stale task marked failed", "task_id", task.ID, "started_at", task.StartedAt)
		case errors.Is(err, repo.ErrInvalidState):
			// воркер успел завершить task
			r.logger.Debug("stale task finished meanwhile", "task_id", task.ID)
		default:
			r.logger.Error("failed to mark stale task", "task_id", task.ID, "error", err)
		}
	}

	r.logger.Info("reaper sweep completed", "stale", len(stale), "reaped", reaped)
	return reaped, nil
}

// Start запускает Sweep по cron-расписанию до Stop или отмены ctx.
func (r *Reaper) Start(ctx context.Context, expr string) error {
	if err := ValidateCronExpr(expr); err != nil {
		return err
	}

	c := cron.New(cron.WithParser(cronParser), cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))
	_, err := c.AddFunc(expr, func() {
		if _, err := r.Sweep(ctx); err != nil && ctx.Err() == nil {
			r.logger.Error("reaper sweep failed", "error", err)
		}
	})
	if err != nil {
		return fmt.Errorf("schedule reaper: %w", err)
	}

	r.mu.Lock()
	r.cron = c
	r.mu.Unlock()

	c.Start()

	next, _ := NextRun(expr, r.clock())
	r.logger.Info("reaper started", "cron", expr, "stale_after", r.staleAfter, "next_sweep", next)

	go func() {
		<-ctx.Done()
		r.Stop()
	}()
	return nil
}

// Stop останавливает расписание и ждёт текущий Sweep.
func (r *Reaper) Stop() {
	r.mu.Lock()
	c := r.cron
	r.cron = nil
	r.mu.Unlock()

	if c == nil {
		return
	}
	<-c.Stop().Done()
	r.logger.Info("reaper stopped")
}
