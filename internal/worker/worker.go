package worker

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/shaiso/loanworker/internal/domain"
	"github.com/shaiso/loanworker/internal/mq"
	"github.com/shaiso/loanworker/internal/pipeline"
)

const (
	defaultPollInterval = 10 * time.Second
	defaultBatchSize    = 50
	defaultPrefetch     = 5
	defaultEmailTimeout = 2 * time.Minute
)

// TaskStore — хранилище tasks, нужное воркеру. Реализуется repo.TaskRepo.
type TaskStore interface {
	ClaimPending(ctx context.Context, id uuid.UUID) (*domain.TaskRun, error)
	Update(ctx context.Context, task *domain.TaskRun) error
	UpdateEmail(ctx context.Context, id uuid.UUID, status domain.EmailStatus, emailErr string) error
	ListPending(ctx context.Context, limit int) ([]domain.TaskRun, error)
}

// Runner выполняет pipeline. Реализуется *pipeline.Pipeline.
type Runner interface {
	Run(ctx context.Context, input domain.TaskInput) (*pipeline.Result, *pipeline.Dispatch, error)
}

// Config — конфигурация Worker.
type Config struct {
	Tasks  TaskStore
	Runner Runner

	// Conn — соединение с RabbitMQ. nil — только polling.
	Conn *mq.Connection

	PollInterval time.Duration // default: 10s
	BatchSize    int           // tasks за один poll, default: 50

	// EmailAwait — ждать письмо внутри processTask.
	EmailAwait bool

	// EmailTimeout — сколько ждать отправку письма (default: 2m).
	EmailTimeout time.Duration

	Logger *slog.Logger
}

// Worker выполняет loan tasks.
type Worker struct {
	tasks  TaskStore
	runner Runner
	conn   *mq.Connection

	pollInterval time.Duration
	batchSize    int
	emailAwait   bool
	emailTimeout time.Duration

	logger     *slog.Logger
	cancelFunc context.CancelFunc
	wg         sync.WaitGroup
	emails     sync.WaitGroup
}

// New создаёт Worker.
func New(cfg Config) *Worker {
	w := &Worker{
		tasks:        cfg.Tasks,
		runner:       cfg.Runner,
		conn:         cfg.Conn,
		pollInterval: cfg.PollInterval,
		batchSize:    cfg.BatchSize,
		emailAwait:   cfg.EmailAwait,
		emailTimeout: cfg.EmailTimeout,
		logger:       cfg.Logger,
	}
	if w.pollInterval <= 0 {
		w.pollInterval = defaultPollInterval
	}
	if w.batchSize <= 0 {
		w.batchSize = defaultBatchSize
	}
	if w.emailTimeout <= 0 {
		w.emailTimeout = defaultEmailTimeout
	}
	if w.logger == nil {
		w.logger = slog.Default()
	}
	return w
}

// Start запускает consumer (если есть соединение) и polling.
func (w *Worker) Start(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	w.cancelFunc = cancel

	w.logger.Info("starting worker",
		"poll_interval", w.pollInterval,
		"batch_size", w.batchSize,
		"email_await", w.emailAwait,
	)

	if w.conn != nil {
		consumer := mq.NewConsumer(w.conn, w.logger, mq.ConsumerConfig{
			Queue:    mq.QueueTasksSubmitted,
			Handler:  w.handleTaskSubmitted,
			Prefetch: defaultPrefetch,
		})

		w.wg.Add(1)
		go func() {
			defer w.wg.Done()
			if err := consumer.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				w.logger.Error("task consumer error", "error", err)
			}
		}()
	} else {
		w.logger.Warn("no RabbitMQ connection, polling only")
	}

	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		w.pollLoop(ctx)
	}()

	w.logger.Info("worker started")
	return nil
}

// Stop останавливает приём tasks и ждёт фоновые отправки писем.
func (w *Worker) Stop() {
	w.logger.Info("stopping worker...")

	if w.cancelFunc != nil {
		w.cancelFunc()
	}
	w.wg.Wait()
	w.emails.Wait()

	w.logger.Info("worker stopped")
}

// pollLoop — polling fallback. Первый poll сразу: подхватываем tasks,
// созданные, пока воркер был выключен.
func (w *Worker) pollLoop(ctx context.Context) {
	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	w.poll(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.poll(ctx)
		}
	}
}

// poll забирает одну пачку PENDING tasks.
func (w *Worker) poll(ctx context.Context) {
	tasks, err := w.tasks.ListPending(ctx, w.batchSize)
	if err != nil {
		if ctx.Err() == nil {
			w.logger.Error("failed to list pending tasks", "error", err)
		}
		return
	}
	if len(tasks) == 0 {
		return
	}

	w.logger.Debug("poll found pending tasks", "count", len(tasks))

	for i := range tasks {
		if ctx.Err() != nil {
			return
		}
		err := w.processTask(ctx, tasks[i].ID)
		if err != nil && !skippable(err) {
			w.logger.Error("failed to process task from poll", "task_id", tasks[i].ID, "error", err)
		}
	}
}

// skippable — task забрал другой воркер или его удалили.
func skippable(err error) bool {
	return errors.Is(err, ErrTaskNotFound) || errors.Is(err, ErrTaskNotPending)
}
