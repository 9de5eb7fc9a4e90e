// loanworker-worker — выполняет loan tasks.
//
// Worker:
//   - Получает task.submitted из RabbitMQ (и подбирает PENDING через polling)
//   - Прогоняет pipeline: extraction → compliance → рекомендация → письмо
//   - По cron помечает зависшие RUNNING tasks как FAILED
//
// Workers масштабируются горизонтально: task забирается атомарно.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/shaiso/loanworker/internal/config"
	"github.com/shaiso/loanworker/internal/guardrail"
	"github.com/shaiso/loanworker/internal/mq"
	"github.com/shaiso/loanworker/internal/pipeline"
	"github.com/shaiso/loanworker/internal/repo"
	"github.com/shaiso/loanworker/internal/scheduler"
	"github.com/shaiso/loanworker/internal/skill"
	"github.com/shaiso/loanworker/internal/telemetry"
	"github.com/shaiso/loanworker/internal/worker"
)

func main() {
	logger := telemetry.SetupLogger()
	logger.Info("starting loanworker-worker")

	env, err := config.FromEnv()
	if err != nil {
		logger.Error("invalid environment", "error", err)
		os.Exit(1)
	}

	file, err := config.Load(env.SkillsPath)
	if err != nil {
		logger.Error("failed to load skills config", "path", env.SkillsPath, "error", err)
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	pool, err := repo.NewPool(ctx)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()
	logger.Info("database connected")

	taskRepo := repo.NewTaskRepo(pool)

	// RabbitMQ: без него нет queue skills и push-уведомлений,
	// но http skills и polling работают.
	var skillPublisher skill.QueuePublisher
	mqConn, err := mq.NewConnection(env.RabbitMQURL, logger)
	if err != nil {
		logger.Warn("RabbitMQ not available, running in polling-only mode", "error", err)
		mqConn = nil
	} else {
		defer mqConn.Close()
		logger.Info("RabbitMQ connected")

		if err := mq.SetupTopology(mqConn); err != nil {
			logger.Warn("failed to setup topology", "error", err)
		}
		skillPublisher = mq.NewPublisher(mqConn, logger)
	}

	skills, err := skill.BuildRegistry(file.Skills, skillPublisher)
	if err != nil {
		logger.Error("failed to build skills", "error", err)
		os.Exit(1)
	}
	logger.Info("skills loaded", "skills", skills.Names())

	guardrails, err := guardrail.NewRegistry(file.Guardrails)
	if err != nil {
		logger.Error("failed to compile guardrails", "error", err)
		os.Exit(1)
	}

	p, err := pipeline.New(pipeline.Config{
		Skills:     skills,
		Guardrails: guardrails,
		Email:      file.Email.Recommend(),
		Logger:     logger,
	})
	if err != nil {
		logger.Error("failed to assemble pipeline", "error", err)
		os.Exit(1)
	}

	w := worker.New(worker.Config{
		Tasks:      taskRepo,
		Runner:     p,
		Conn:       mqConn,
		EmailAwait: env.EmailAwait,
		Logger:     logger,
	})
	if err := w.Start(ctx); err != nil {
		logger.Error("failed to start worker", "error", err)
		os.Exit(1)
	}

	reaper := scheduler.NewReaper(scheduler.Config{
		Tasks:      taskRepo,
		StaleAfter: env.ReaperStaleAfter,
		Logger:     logger,
	})
	if err := reaper.Start(ctx, env.ReaperCron); err != nil {
		logger.Error("failed to start reaper", "error", err)
		os.Exit(1)
	}

	// /healthz + /metrics
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	mux.Handle("/metrics", promhttp.Handler())

	addr := ":" + env.WorkerPort
	server := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 10 * time.Second}

	go func() {
		logger.Info("listening", "addr", addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
			cancel()
		}
	}()

	<-ctx.Done()

	reaper.Stop()
	w.Stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	server.Shutdown(shutdownCtx)

	logger.Info("loanworker-worker stopped")
}
