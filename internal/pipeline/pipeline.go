package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/shaiso/loanworker/internal/domain"
	"github.com/shaiso/loanworker/internal/guardrail"
	"github.com/shaiso/loanworker/internal/recommend"
	"github.com/shaiso/loanworker/internal/skill"
	"github.com/shaiso/loanworker/internal/telemetry"
	"github.com/shaiso/loanworker/internal/translate"
)

// Стадии pipeline. Используются в ошибках, логах и метриках.
const (
	StageExtract    = "extract"
	StageTranslate  = "translate"
	StageCompliance = "compliance"
	StageFormat     = "format"
	StageEmail      = "email"
)

// Config — конфигурация Pipeline.
type Config struct {
	// Skills — реестр skills. Должен содержать все три skill'а pipeline.
	Skills *skill.Registry

	// Guardrails — реестр guardrail. Должен содержать guardrail.AutoApprovalName.
	Guardrails *guardrail.Registry

	// Email — адреса и шаблоны письма. Policy заполняется из Guardrails.
	Email recommend.Config

	Logger *slog.Logger
}

// Pipeline — собранный pipeline. Безопасен для конкурентного Run.
type Pipeline struct {
	caps      *skill.Capabilities
	formatter *recommend.Formatter
	logger    *slog.Logger
}

// New разрешает skills и guardrail. Всё, чего не хватает, — ошибка
// здесь, а не посреди запуска.
func New(cfg Config) (*Pipeline, error) {
	if cfg.Skills == nil || cfg.Guardrails == nil {
		return nil, errors.New("pipeline: skills and guardrails are required")
	}

	caps, skillErr := skill.Resolve(cfg.Skills)
	policy, guardErr := cfg.Guardrails.Get(guardrail.AutoApprovalName)
	if err := errors.Join(skillErr, guardErr); err != nil {
		return nil, err
	}

	emailCfg := cfg.Email
	emailCfg.Policy = policy
	formatter, err := recommend.New(emailCfg)
	if err != nil {
		return nil, err
	}

	return NewWithCapabilities(caps, formatter, cfg.Logger), nil
}

// NewWithCapabilities собирает Pipeline из готовых зависимостей.
func NewWithCapabilities(caps *skill.Capabilities, formatter *recommend.Formatter, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{caps: caps, formatter: formatter, logger: logger}
}

// Run выполняет pipeline для одной заявки.
//
// Возвращает результат compliance с рекомендацией и запущенную отправку письма.
// При ошибке Dispatch равен nil: письмо не отправлялось.
func (p *Pipeline) Run(ctx context.Context, input domain.TaskInput) (*Result, *Dispatch, error) {
	logger := telemetry.FromContext(ctx, p.logger)

	var extraction translate.ExtractionResult
	err := observe(StageExtract, func() (err error) {
		extraction, err = p.caps.Extractor.Extract(ctx, input.URL)
		return err
	})
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", StageExtract, err)
	}

	var doc *domain.LoanDocument
	err = observe(StageTranslate, func() (err error) {
		doc, err = translate.Translate(extraction)
		return err
	})
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", StageTranslate, err)
	}

	var compliance json.RawMessage
	err = observe(StageCompliance, func() (err error) {
		compliance, err = p.caps.Compliance.Check(ctx, doc)
		return err
	})
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", StageCompliance, err)
	}

	logger.Info("compliance result", slog.Any("result", compliance))

	var email domain.EmailMessage
	err = observe(StageFormat, func() (err error) {
		email, err = p.formatter.Format(compliance)
		return err
	})
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", StageFormat, err)
	}

	// письмо переживает отмену ctx вызывающего: run уже завершён
	sendCtx := context.WithoutCancel(ctx)
	dispatch := StartDispatch(telemetry.WithStage(logger, StageEmail), func() error {
		return observe(StageEmail, func() error {
			return p.caps.Mailer.Send(sendCtx, email)
		})
	})

	return &Result{Compliance: compliance, Recommendation: email.Text}, dispatch, nil
}

// observe замеряет стадию в telemetry.StageDuration.
func observe(stage string, fn func() error) error {
	start := time.Now()
	err := fn()

	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	telemetry.StageDuration.WithLabelValues(stage, outcome).Observe(time.Since(start).Seconds())
	return err
}
