package guardrail

import "fmt"

// Registry — набор скомпилированных guardrail по имени.
type Registry struct {
	policies map[string]*Policy
}

// NewRegistry компилирует все guardrail из конфигурации.
func NewRegistry(guardrails []Guardrail) (*Registry, error) {
	r := &Registry{policies: make(map[string]*Policy, len(guardrails))}
	for _, g := range guardrails {
		if g.Name == "" {
			return nil, ErrEmptyName
		}
		if _, exists := r.policies[g.Name]; exists {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateName, g.Name)
		}
		p, err := Compile(g)
		if err != nil {
			return nil, err
		}
		r.policies[g.Name] = p
	}
	return r, nil
}

// Get возвращает guardrail по имени.
func (r *Registry) Get(name string) (*Policy, error) {
	p, ok := r.policies[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrGuardrailNotFound, name)
	}
	return p, nil
}
