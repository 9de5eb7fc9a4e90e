package skill

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/shaiso/loanworker/internal/domain"
	"github.com/shaiso/loanworker/internal/translate"
)

// Extractor извлекает данные из анкеты заявки.
type Extractor interface {
	Extract(ctx context.Context, url string) (translate.ExtractionResult, error)
}

// ComplianceChecker проверяет заявку в rules engine.
// Возвращает сырой ответ: его форма принадлежит rules engine.
type ComplianceChecker interface {
	Check(ctx context.Context, doc *domain.LoanDocument) (json.RawMessage, error)
}

// Mailer отправляет письмо с рекомендацией.
type Mailer interface {
	Send(ctx context.Context, msg domain.EmailMessage) error
}

// Capabilities — три skill'а, нужные pipeline.
type Capabilities struct {
	Extractor  Extractor
	Compliance ComplianceChecker
	Mailer     Mailer
}

// Resolve достаёт skills из реестра по фиксированным именам.
// Возвращает ошибку со списком всех отсутствующих skills.
func Resolve(r *Registry) (*Capabilities, error) {
	var errs []error
	get := func(name string) Skill {
		s, err := r.Get(name)
		if err != nil {
			errs = append(errs, err)
		}
		return s
	}

	extract := get(ExtractName)
	compliance := get(ComplianceName)
	email := get(EmailName)
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}

	return &Capabilities{
		Extractor:  &extractor{skill: extract},
		Compliance: &complianceChecker{skill: compliance},
		Mailer:     &mailer{skill: email},
	}, nil
}

type extractor struct {
	skill Skill
}

// Extract вызывает extraction skill с {"url": url}.
func (e *extractor) Extract(ctx context.Context, url string) (translate.ExtractionResult, error) {
	raw, err := e.skill.Execute(ctx, map[string]any{"url": url})
	if err != nil {
		return nil, err
	}

	var result translate.ExtractionResult
	if err := decodeNumbers(raw, &result); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidResponse, ExtractName, err)
	}
	if result == nil {
		return nil, fmt.Errorf("%w: %s: empty result", ErrInvalidResponse, ExtractName)
	}
	return result, nil
}

type complianceChecker struct {
	skill Skill
}

// Check вызывает compliance skill с {"data": doc}.
func (c *complianceChecker) Check(ctx context.Context, doc *domain.LoanDocument) (json.RawMessage, error) {
	raw, err := c.skill.Execute(ctx, map[string]any{"data": doc})
	if err != nil {
		return nil, err
	}
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || raw[0] != '{' || !json.Valid(raw) {
		return nil, fmt.Errorf("%w: %s: expected JSON object", ErrInvalidResponse, ComplianceName)
	}
	return raw, nil
}

type mailer struct {
	skill Skill
}

// Send вызывает email skill с письмом как параметрами.
func (m *mailer) Send(ctx context.Context, msg domain.EmailMessage) error {
	_, err := m.skill.Execute(ctx, msg)
	return err
}
