package worker

import "errors"

var (
	// ErrTaskNotFound — task не найден в БД.
	ErrTaskNotFound = errors.New("task not found")

	// ErrTaskNotPending — task уже забран или завершён.
	ErrTaskNotPending = errors.New("task is not in PENDING status")
)
