package repo

import "errors"

var (
	// ErrNotFound — task не найден.
	ErrNotFound = errors.New("not found")

	// ErrAlreadyExists — нарушена уникальность (idempotency_key).
	ErrAlreadyExists = errors.New("already exists")

	// ErrInvalidState — переход невозможен из текущего статуса.
	ErrInvalidState = errors.New("invalid state")
)
