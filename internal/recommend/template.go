package recommend

import (
	"bytes"
	"fmt"
	"regexp"
	"strings"
	"text/template"
	"time"

	"github.com/shaiso/loanworker/internal/domain"
)

// SubmittedLayout — формат даты отправки заявки в письме.
const SubmittedLayout = "Mon Jan 02 2006 15:04:05 GMT-0700 (MST)"

// DefaultSubjectTemplate — тема письма по умолчанию.
const DefaultSubjectTemplate = `[Bank Company/Loan Recommendation] Loan application processed for customer {{ .Borrower.FirstName }} {{ .Borrower.LastName }}`

// DefaultBodyTemplate — тело письма по умолчанию.
const DefaultBodyTemplate = `Loan request submitted on {{ submitted .Now }} for customer {{ .Borrower.FirstName }} {{ .Borrower.LastName }}:
    - Amount asked: ${{ .Loan.Amount }}
    - Recommendation: {{ .Recommendation }}
    - Explanation: {{ oneline .Message }}`

// View — данные, доступные в шаблонах письма.
//
//	{{ .Borrower.FirstName }}, {{ .Loan.Amount }}, {{ .Approved }},
//	{{ .Message }}, {{ .Recommendation }}, {{ .Threshold }}, {{ .Now }}
type View struct {
	Now            time.Time
	Borrower       domain.Borrower
	Loan           domain.Loan
	Approved       bool
	Message        string
	Recommendation string
	Threshold      string
}

var lineBreaks = regexp.MustCompile(`\r\n|\n|\r`)

// Oneline заменяет каждый перевод строки на ". ".
func Oneline(s string) string {
	return lineBreaks.ReplaceAllString(s, ". ")
}

// templateFuncs — функции, доступные в шаблонах.
var templateFuncs = template.FuncMap{
	// oneline — склеивает многострочный текст в одну строку
	"oneline": Oneline,

	// submitted — форматирует время отправки заявки
	"submitted": func(t time.Time) string {
		return t.Format(SubmittedLayout)
	},

	// number — форматирует число без экспоненты
	"number": number,

	"upper": func(v any) string { return strings.ToUpper(fmt.Sprint(v)) },
	"lower": func(v any) string { return strings.ToLower(fmt.Sprint(v)) },
	"trim":  func(v any) string { return strings.TrimSpace(fmt.Sprint(v)) },
}

// number принимает domain.Scalar, float64 или int. Нечисловой Scalar
// выводится как есть.
func number(v any) string {
	switch n := v.(type) {
	case domain.Scalar:
		return n.String()
	case float64:
		return domain.FormatNumber(n)
	case int:
		return domain.FormatNumber(float64(n))
	default:
		return fmt.Sprint(v)
	}
}

// parseTemplate парсит шаблон письма. Пустой текст — шаблон по умолчанию.
func parseTemplate(name, text, fallback string) (*template.Template, error) {
	if text == "" {
		text = fallback
	}
	t, err := template.New(name).Funcs(templateFuncs).Option("missingkey=error").Parse(text)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrTemplateParse, name, err)
	}
	return t, nil
}

// render рендерит шаблон с View.
func render(t *template.Template, view *View) (string, error) {
	var buf bytes.Buffer
	if err := t.Execute(&buf, view); err != nil {
		return "", fmt.Errorf("%w: %s: %v", ErrTemplateRender, t.Name(), err)
	}
	return buf.String(), nil
}
