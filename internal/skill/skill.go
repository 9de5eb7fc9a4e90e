package skill

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
)

// Имена skills, которые использует pipeline.
const (
	ExtractName    = "Extract data from loan application form"
	ComplianceName = "Check compliance"
	EmailName      = "Email recommendation"
)

// Skill — удалённая возможность, вызываемая с объектом параметров.
type Skill interface {
	Execute(ctx context.Context, params any) (json.RawMessage, error)
}

// Func адаптирует функцию к интерфейсу Skill.
type Func func(ctx context.Context, params any) (json.RawMessage, error)

// Execute вызывает f.
func (f Func) Execute(ctx context.Context, params any) (json.RawMessage, error) {
	return f(ctx, params)
}

// Registry — реестр skills по имени.
type Registry struct {
	skills map[string]Skill
}

// NewRegistry создаёт пустой реестр.
func NewRegistry() *Registry {
	return &Registry{skills: make(map[string]Skill)}
}

// Register добавляет skill.
func (r *Registry) Register(name string, s Skill) {
	r.skills[name] = s
}

// Get возвращает skill по имени.
func (r *Registry) Get(name string) (Skill, error) {
	s, ok := r.skills[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrSkillNotFound, name)
	}
	return s, nil
}

// Names возвращает имена зарегистрированных skills по алфавиту.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.skills))
	for name := range r.skills {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
