package translate

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"unicode"

	"github.com/shaiso/loanworker/internal/domain"
)

// ExtractionResult — плоский результат extraction skill.
type ExtractionResult map[string]any

// Имена полей документа. Порядок — как в документе.
const (
	FieldNumberOfMonthlyPayments = "numberOfMonthlyPayments"
	FieldStartDate               = "startDate"
	FieldAmount                  = "amount"
	FieldLoanToValue             = "loanToValue"
	FieldFirstName               = "firstName"
	FieldLastName                = "lastName"
	FieldBirth                   = "birth"
	FieldAreaNumber              = "areaNumber"
	FieldGroupCode               = "groupCode"
	FieldSerialNumber            = "serialNumber"
	FieldYearlyIncome            = "yearlyIncome"
	FieldZipCode                 = "zipCode"
	FieldCreditScore             = "creditScore"
)

// RequiredFields — поля, без которых документ не строится.
var RequiredFields = []string{
	FieldNumberOfMonthlyPayments,
	FieldStartDate,
	FieldAmount,
	FieldLoanToValue,
	FieldFirstName,
	FieldLastName,
	FieldBirth,
	FieldAreaNumber,
	FieldGroupCode,
	FieldSerialNumber,
	FieldYearlyIncome,
	FieldZipCode,
	FieldCreditScore,
}

// Translate строит LoanDocument из результата extraction.
//
// Неизвестные поля игнорируются. Если несколько ключей нормализуются
// в одно поле, побеждает первый в лексикографическом порядке.
func Translate(input ExtractionResult) (*domain.LoanDocument, error) {
	fields := normalize(input)

	var missing []string
	get := func(name string) domain.Scalar {
		v, ok := fields[NormalizeName(name)]
		if !ok {
			missing = append(missing, name)
			return domain.Scalar{}
		}
		return toScalar(v)
	}

	doc := &domain.LoanDocument{
		Loan: domain.Loan{
			NumberOfMonthlyPayments: get(FieldNumberOfMonthlyPayments),
			StartDate:               get(FieldStartDate),
			Amount:                  get(FieldAmount),
			LoanToValue:             get(FieldLoanToValue),
		},
		Borrower: domain.Borrower{
			FirstName: get(FieldFirstName),
			LastName:  get(FieldLastName),
			Birth:     get(FieldBirth),
			SSN: domain.SSN{
				AreaNumber:   get(FieldAreaNumber),
				GroupCode:    get(FieldGroupCode),
				SerialNumber: get(FieldSerialNumber),
			},
			YearlyIncome: get(FieldYearlyIncome),
			ZipCode:      asText(get(FieldZipCode), fields[NormalizeName(FieldZipCode)]),
			CreditScore:  get(FieldCreditScore),
		},
	}

	if len(missing) > 0 {
		sort.Strings(missing)
		return nil, &MissingFieldsError{Fields: missing}
	}
	return doc, nil
}

// NormalizeName приводит имя поля к ключу сравнения:
// нижний регистр, без пробельных символов.
func NormalizeName(name string) string {
	var b strings.Builder
	b.Grow(len(name))
	for _, r := range name {
		if unicode.IsSpace(r) {
			continue
		}
		b.WriteRune(unicode.ToLower(r))
	}
	return b.String()
}

// normalize строит индекс "нормализованное имя → значение".
func normalize(input ExtractionResult) map[string]any {
	keys := make([]string, 0, len(input))
	for key := range input {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	fields := make(map[string]any, len(input))
	for _, key := range keys {
		name := NormalizeName(key)
		if _, seen := fields[name]; !seen {
			fields[name] = input[key]
		}
	}
	return fields
}

// toScalar определяет, число значение или строка.
func toScalar(v any) domain.Scalar {
	switch val := v.(type) {
	case nil:
		return domain.Text("")
	case float64:
		return finite(val, v)
	case float32:
		return finite(float64(val), v)
	case int:
		return domain.Number(float64(val))
	case int32:
		return domain.Number(float64(val))
	case int64:
		return domain.Number(float64(val))
	case json.Number:
		return parseText(val.String())
	case string:
		return parseText(val)
	default:
		return domain.Text(fmt.Sprint(val))
	}
}

// parseText возвращает число, если строка — конечное число, иначе строку как есть.
func parseText(s string) domain.Scalar {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return domain.Text(s)
	}
	num, err := strconv.ParseFloat(trimmed, 64)
	if err != nil || math.IsNaN(num) || math.IsInf(num, 0) {
		return domain.Text(s)
	}
	return domain.Number(num)
}

// asText превращает значение в строку. Строковый ввод сохраняется как есть,
// чтобы не терять ведущие нули ("02139").
func asText(s domain.Scalar, raw any) domain.Scalar {
	if text, ok := raw.(string); ok {
		return domain.Text(strings.TrimSpace(text))
	}
	return domain.Text(s.String())
}

func finite(num float64, raw any) domain.Scalar {
	if math.IsNaN(num) || math.IsInf(num, 0) {
		return domain.Text(fmt.Sprint(raw))
	}
	return domain.Number(num)
}
