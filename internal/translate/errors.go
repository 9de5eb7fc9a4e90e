package translate

import (
	"errors"
	"strings"
)

// ErrMissingField — в результате extraction нет обязательного поля.
var ErrMissingField = errors.New("missing extraction field")

// MissingFieldsError перечисляет все отсутствующие поля.
type MissingFieldsError struct {
	Fields []string
}

// Error реализует интерфейс error.
func (e *MissingFieldsError) Error() string {
	return ErrMissingField.Error() + ": " + strings.Join(e.Fields, ", ")
}

// Unwrap возвращает ErrMissingField.
func (e *MissingFieldsError) Unwrap() error {
	return ErrMissingField
}
