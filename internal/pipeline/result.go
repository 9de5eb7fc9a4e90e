package pipeline

import (
	"encoding/json"
	"fmt"
)

// Result — ответ compliance skill с добавленной рекомендацией.
type Result struct {
	// Compliance — исходный JSON-объект от compliance skill.
	Compliance json.RawMessage

	// Recommendation — текст письма.
	Recommendation string
}

// MarshalJSON отдаёт поля compliance и ключ recommendation.
// Одноимённый ключ из compliance перезаписывается.
func (r Result) MarshalJSON() ([]byte, error) {
	fields := map[string]json.RawMessage{}
	if len(r.Compliance) > 0 {
		if err := json.Unmarshal(r.Compliance, &fields); err != nil {
			return nil, fmt.Errorf("compliance result is not an object: %w", err)
		}
		if fields == nil {
			fields = map[string]json.RawMessage{}
		}
	}

	recommendation, err := json.Marshal(r.Recommendation)
	if err != nil {
		return nil, err
	}
	fields["recommendation"] = recommendation
	return json.Marshal(fields)
}
