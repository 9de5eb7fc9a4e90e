package guardrail

import "errors"

var (
	// ErrGuardrailNotFound — guardrail с таким именем не настроен.
	ErrGuardrailNotFound = errors.New("guardrail not found")

	// ErrEmptyName — guardrail без имени.
	ErrEmptyName = errors.New("guardrail has empty name")

	// ErrDuplicateName — два guardrail с одним именем.
	ErrDuplicateName = errors.New("duplicate guardrail name")

	// ErrInvalidCondition — условие не компилируется.
	ErrInvalidCondition = errors.New("invalid guardrail condition")

	// ErrConditionType — условие возвращает не bool.
	ErrConditionType = errors.New("guardrail condition must return bool")
)
