// Package telemetry — наблюдаемость loanworker.
//
//   - logging.go — structured logging через slog
//   - metrics.go — Prometheus метрики pipeline, worker и API
//
// Сервисы пишут логи в одном формате и отдают метрики на /metrics.
package telemetry
