package recommend

import (
	"encoding/json"
	"fmt"
	"text/template"
	"time"

	"github.com/shaiso/loanworker/internal/domain"
	"github.com/shaiso/loanworker/internal/guardrail"
	"github.com/shaiso/loanworker/internal/telemetry"
)

// DefaultAddress — адрес получателя и отправителя, если не настроен.
const DefaultAddress = "name@example.com"

// Тексты рекомендаций.
const (
	rejectedText     = "The loan was rejected"
	autoApprovedText = "The loan can be automatically approved because the requested amount is below $%s."
	needsInputText   = "The loan was approved but requires further input because the requested amount is equal to or above $%s."
)

// Config — конфигурация Formatter.
type Config struct {
	// Policy — guardrail автоматического одобрения (обязательно).
	Policy *guardrail.Policy

	// To, From — адреса письма (default: DefaultAddress).
	To   string
	From string

	// SubjectTemplate, BodyTemplate — шаблоны (default: Default*Template).
	SubjectTemplate string
	BodyTemplate    string

	// Clock — источник текущего времени (default: time.Now).
	Clock func() time.Time
}

// Formatter строит письмо с рекомендацией. Безопасен для конкурентного использования.
type Formatter struct {
	policy  *guardrail.Policy
	to      string
	from    string
	subject *template.Template
	body    *template.Template
	clock   func() time.Time
}

// New создаёт Formatter.
func New(cfg Config) (*Formatter, error) {
	if cfg.Policy == nil {
		return nil, fmt.Errorf("recommend: policy is required")
	}

	subject, err := parseTemplate("subject", cfg.SubjectTemplate, DefaultSubjectTemplate)
	if err != nil {
		return nil, err
	}
	body, err := parseTemplate("body", cfg.BodyTemplate, DefaultBodyTemplate)
	if err != nil {
		return nil, err
	}

	f := &Formatter{
		policy:  cfg.Policy,
		to:      cfg.To,
		from:    cfg.From,
		subject: subject,
		body:    body,
		clock:   cfg.Clock,
	}
	if f.to == "" {
		f.to = DefaultAddress
	}
	if f.from == "" {
		f.from = DefaultAddress
	}
	if f.clock == nil {
		f.clock = time.Now
	}
	return f, nil
}

// Format строит письмо из сырого ответа compliance skill.
func (f *Formatter) Format(raw json.RawMessage) (domain.EmailMessage, error) {
	report, err := ParseReport(raw)
	if err != nil {
		return domain.EmailMessage{}, err
	}
	return f.FormatReport(report)
}

// FormatReport строит письмо из разобранного отчёта.
func (f *Formatter) FormatReport(report *domain.ComplianceReport) (domain.EmailMessage, error) {
	recommendation, err := f.Recommend(report)
	if err != nil {
		return domain.EmailMessage{}, err
	}

	view := &View{
		Now:            f.clock(),
		Borrower:       report.Borrower,
		Loan:           report.Loan,
		Approved:       report.Approved,
		Message:        report.Message,
		Recommendation: recommendation,
		Threshold:      domain.FormatNumber(f.policy.Threshold),
	}

	subject, err := render(f.subject, view)
	if err != nil {
		return domain.EmailMessage{}, err
	}
	text, err := render(f.body, view)
	if err != nil {
		return domain.EmailMessage{}, err
	}

	return domain.EmailMessage{
		Subject: subject,
		To:      f.to,
		From:    f.from,
		Text:    text,
	}, nil
}

// Recommend выбирает текст рекомендации.
func (f *Formatter) Recommend(report *domain.ComplianceReport) (string, error) {
	if !report.Approved {
		telemetry.Recommendations.WithLabelValues("rejected").Inc()
		return rejectedText, nil
	}

	amount, ok := report.Loan.Amount.Float()
	if !ok {
		return "", fmt.Errorf("%w: loan amount %q is not a number", ErrMalformedReport, report.Loan.Amount.String())
	}

	allowed, err := f.policy.Allows(amount)
	if err != nil {
		return "", err
	}

	threshold := domain.FormatNumber(f.policy.Threshold)
	if allowed {
		telemetry.Recommendations.WithLabelValues("auto_approved").Inc()
		return fmt.Sprintf(autoApprovedText, threshold), nil
	}
	telemetry.Recommendations.WithLabelValues("needs_review").Inc()
	return fmt.Sprintf(needsInputText, threshold), nil
}

// ParseReport извлекает data.report из ответа compliance skill.
// borrower, loan и message обязательны; approved по умолчанию false.
func ParseReport(raw json.RawMessage) (*domain.ComplianceReport, error) {
	var envelope struct {
		Data *struct {
			Report *struct {
				Borrower *domain.Borrower `json:"borrower"`
				Loan     *domain.Loan     `json:"loan"`
				Approved bool             `json:"approved"`
				Message  json.RawMessage  `json:"message"`
			} `json:"report"`
		} `json:"data"`
	}
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedReport, err)
	}
	if envelope.Data == nil || envelope.Data.Report == nil {
		return nil, fmt.Errorf("%w: data.report is missing", ErrMalformedReport)
	}

	r := envelope.Data.Report
	switch {
	case r.Borrower == nil:
		return nil, fmt.Errorf("%w: report.borrower is missing", ErrMalformedReport)
	case r.Loan == nil:
		return nil, fmt.Errorf("%w: report.loan is missing", ErrMalformedReport)
	}

	var message *string
	if err := json.Unmarshal(r.Message, &message); err != nil || message == nil {
		return nil, fmt.Errorf("%w: report.message must be a string", ErrMalformedReport)
	}

	return &domain.ComplianceReport{
		Borrower: *r.Borrower,
		Loan:     *r.Loan,
		Approved: r.Approved,
		Message:  *message,
	}, nil
}
