package recommend

import "errors"

var (
	// ErrMalformedReport — в ответе compliance skill нет data.report
	// или он не разбирается.
	ErrMalformedReport = errors.New("malformed compliance report")

	// ErrTemplateParse — шаблон письма не парсится.
	ErrTemplateParse = errors.New("template parse failed")

	// ErrTemplateRender — шаблон письма не рендерится.
	ErrTemplateRender = errors.New("template render failed")
)
