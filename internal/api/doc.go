// Package api — HTTP API loanworker.
//
// Структура:
//   - handler.go      — Handler и его зависимости
//   - routes.go       — регистрация маршрутов
//   - middleware.go   — recovery, logging, метрики запросов
//   - response.go     — единые JSON-ответы и ошибки
//   - dto.go          — request/response
//   - task_handler.go — /api/v1/tasks
//
// API принимает заявки на проверку кредита и отдаёт их статус.
// Выполняет заявки loanworker-worker.
package api
