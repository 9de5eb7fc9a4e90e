// Package guardrail хранит пороговые политики, которые используются
// при формировании рекомендации.
//
// Guardrail — именованное значение threshold и условие, которое
// решает, можно ли одобрить кредит автоматически. По умолчанию
// условие — amount < threshold. Оператор может задать своё условие
// на CEL (переменные amount и threshold, тип double).
package guardrail

import (
	"fmt"
	"sync"

	"github.com/google/cel-go/cel"
)

// AutoApprovalName — имя guardrail для автоматического одобрения.
const AutoApprovalName = "Loan Approved Automatically"

// DefaultCondition — условие по умолчанию.
const DefaultCondition = "amount < threshold"

// Guardrail — описание политики из конфигурации.
type Guardrail struct {
	Name      string  `yaml:"name" json:"name"`
	Threshold float64 `yaml:"threshold" json:"threshold"`

	// Condition — CEL-выражение. Пусто — DefaultCondition.
	Condition string `yaml:"condition,omitempty" json:"condition,omitempty"`
}

// Policy — скомпилированный guardrail. Безопасен для конкурентного использования.
type Policy struct {
	Guardrail

	program cel.Program
}

var (
	envOnce sync.Once
	env     *cel.Env
	envErr  error
)

// celEnv возвращает общее CEL-окружение для условий.
func celEnv() (*cel.Env, error) {
	envOnce.Do(func() {
		env, envErr = cel.NewEnv(
			cel.Variable("amount", cel.DoubleType),
			cel.Variable("threshold", cel.DoubleType),
		)
	})
	return env, envErr
}

// Compile компилирует условие guardrail.
func Compile(g Guardrail) (*Policy, error) {
	if g.Condition == "" {
		g.Condition = DefaultCondition
	}

	e, err := celEnv()
	if err != nil {
		return nil, fmt.Errorf("create cel env: %w", err)
	}

	ast, issues := e.Compile(g.Condition)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidCondition, g.Name, issues.Err())
	}
	if !ast.OutputType().IsExactType(cel.BoolType) {
		return nil, fmt.Errorf("%w: %s returns %s", ErrConditionType, g.Name, ast.OutputType())
	}

	prog, err := e.Program(ast, cel.CostLimit(10000))
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidCondition, g.Name, err)
	}

	return &Policy{Guardrail: g, program: prog}, nil
}

// Allows проверяет, разрешает ли политика автоматическое одобрение суммы.
func (p *Policy) Allows(amount float64) (bool, error) {
	out, _, err := p.program.Eval(map[string]any{
		"amount":    amount,
		"threshold": p.Threshold,
	})
	if err != nil {
		return false, fmt.Errorf("evaluate guardrail %s: %w", p.Name, err)
	}

	allowed, ok := out.Value().(bool)
	if !ok {
		return false, fmt.Errorf("%w: %s returns %T", ErrConditionType, p.Name, out.Value())
	}
	return allowed, nil
}
