// loanworker-api — HTTP API для отправки заявок и чтения результатов.
//
// API:
//   - Создаёт task в PENDING и публикует task.submitted в RabbitMQ
//   - Отдаёт task с результатом и рекомендацией
//
// Без RabbitMQ task всё равно создаётся: воркер найдёт его через polling.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/shaiso/loanworker/internal/api"
	"github.com/shaiso/loanworker/internal/config"
	"github.com/shaiso/loanworker/internal/mq"
	"github.com/shaiso/loanworker/internal/repo"
	"github.com/shaiso/loanworker/internal/telemetry"
)

var startTime = time.Now()

func main() {
	logger := telemetry.SetupLogger()
	logger.Info("starting loanworker-api")

	env, err := config.FromEnv()
	if err != nil {
		logger.Error("invalid environment", "error", err)
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
	logger.Info("connected to database")

	cfg := api.Config{
		Tasks:  repo.NewTaskRepo(pool),
		Logger: logger,
	}

	// RabbitMQ опционален
	mqConn, err := mq.NewConnection(env.RabbitMQURL, logger)
	if err != nil {
		logger.Warn("RabbitMQ not available, workers will poll", "error", err)
	} else {
		defer mqConn.Close()
		if err := mq.SetupTopology(mqConn); err != nil {
			logger.Warn("failed to setup topology", "error", err)
		}
		cfg.Publisher = mq.NewPublisher(mqConn, logger)
	}

	handler := api.NewHandler(cfg)

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		fmt.Fprintf(w, "ok %s", time.Since(startTime).Round(time.Second))
	})
	mux.Handle("/metrics", promhttp.Handler())
	handler.RegisterRoutes(mux)

	addr := ":" + env.APIPort
	server := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("listening", "addr", addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", "error", err)
			cancel()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", "error", err)
	}
	logger.Info("stopped")
}
