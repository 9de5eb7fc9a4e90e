package skill

import (
	"errors"
	"fmt"
)

var (
	// ErrSkillNotFound — skill с таким именем не зарегистрирован.
	ErrSkillNotFound = errors.New("skill not found")

	// ErrSkillCall — вызов skill'а завершился ошибкой.
	ErrSkillCall = errors.New("skill call failed")

	// ErrInvalidResponse — ответ skill'а не соответствует ожидаемой форме.
	ErrInvalidResponse = errors.New("invalid skill response")

	// ErrUnknownTransport — неизвестный транспорт в конфигурации skill'а.
	ErrUnknownTransport = errors.New("unknown skill transport")
)

// CallError — skill ответил HTTP-кодом ошибки.
type CallError struct {
	Skill      string
	StatusCode int
	Body       string
}

// Error реализует интерфейс error.
func (e *CallError) Error() string {
	return fmt.Sprintf("skill %q: HTTP %d: %s", e.Skill, e.StatusCode, e.Body)
}

// Unwrap возвращает ErrSkillCall.
func (e *CallError) Unwrap() error {
	return ErrSkillCall
}
