// Package cli — команда loanworker для работы с API.
//
// CLI ходит в loanworker-api по HTTP и не импортирует внутренние пакеты
// сервиса: типы ответов дублируются в client.go.
//
// Компоненты:
//   - Client — HTTP-клиент API (envelopes data / data+total / error)
//   - Output — таблица (text/tabwriter) или JSON (--json); данные в stdout,
//     сообщения в stderr, так что работает `loanworker task list --json | jq .`
//   - команды task: submit, show, list, wait
//
// Команды получают clientFn и outputFn — замыкания, которые создают
// Client и Output после разбора persistent flags.
package cli
