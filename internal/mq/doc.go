// Package mq — инфраструктура RabbitMQ для loanworker.
//
// Структура:
//   - connection.go — соединение с автоматическим reconnect
//   - topology.go   — exchanges, queues, bindings
//   - publisher.go  — публикация сообщений
//   - consumer.go   — потребление сообщений с ручным ack
//
// Типы сообщений:
//   - task.submitted — API принял заявку, воркер должен выполнить pipeline
//   - skill.request  — параметры для skill'а с транспортом queue (email)
//
// Exchanges:
//   - loanworker.tasks  — события tasks
//   - loanworker.skills — запросы к skills
//   - loanworker.dlq    — dead letter
package mq
