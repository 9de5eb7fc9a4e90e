package domain

// TaskStatus — статус выполнения digital worker task.
//
// Жизненный цикл:
//
//	PENDING → RUNNING → SUCCEEDED
//	                  ↘ FAILED
type TaskStatus string

const (
	// TaskStatusPending — task принят API, ожидает воркера.
	TaskStatusPending TaskStatus = "PENDING"

	// TaskStatusRunning — воркер выполняет pipeline.
	TaskStatusRunning TaskStatus = "RUNNING"

	// TaskStatusSucceeded — pipeline завершён, результат сохранён.
	TaskStatusSucceeded TaskStatus = "SUCCEEDED"

	// TaskStatusFailed — pipeline завершился ошибкой.
	TaskStatusFailed TaskStatus = "FAILED"
)

// IsTerminal возвращает true, если статус финальный.
func (s TaskStatus) IsTerminal() bool {
	switch s {
	case TaskStatusSucceeded, TaskStatusFailed:
		return true
	default:
		return false
	}
}

// Valid проверяет, что строка — известный статус.
func (s TaskStatus) Valid() bool {
	switch s {
	case TaskStatusPending, TaskStatusRunning, TaskStatusSucceeded, TaskStatusFailed:
		return true
	default:
		return false
	}
}

// EmailStatus — статус отправки письма с рекомендацией.
//
// Письмо отправляется асинхронно, поэтому его статус живёт
// отдельно от статуса task:
//
//	NONE → PENDING → SENT
//	               ↘ FAILED
type EmailStatus string

const (
	// EmailStatusNone — письмо ещё не отправлялось.
	EmailStatusNone EmailStatus = "NONE"

	// EmailStatusPending — отправка запущена.
	EmailStatusPending EmailStatus = "PENDING"

	// EmailStatusSent — email skill принял письмо.
	EmailStatusSent EmailStatus = "SENT"

	// EmailStatusFailed — email skill вернул ошибку.
	EmailStatusFailed EmailStatus = "FAILED"
)
