package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
)

// Scalar — значение листового поля LoanDocument: число или строка.
//
// Rules engine различает числа и строки, поэтому Scalar сериализуется
// либо в голое JSON-число, либо в строку в кавычках.
// Нулевое значение — пустая строка.
type Scalar struct {
	num   float64
	text  string
	isNum bool
}

// Number создаёт числовой Scalar.
func Number(v float64) Scalar {
	return Scalar{num: v, isNum: true}
}

// Text создаёт строковый Scalar.
func Text(s string) Scalar {
	return Scalar{text: s}
}

// IsNumber возвращает true для числового значения.
func (s Scalar) IsNumber() bool {
	return s.isNum
}

// Float возвращает числовое значение.
// Для строки пробует распарсить её как число.
func (s Scalar) Float() (float64, bool) {
	if s.isNum {
		return s.num, true
	}
	v, err := strconv.ParseFloat(s.text, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

// String возвращает текстовое представление.
// Числа выводятся в кратчайшей десятичной форме: 100000, 0.8.
func (s Scalar) String() string {
	if s.isNum {
		return FormatNumber(s.num)
	}
	return s.text
}

// MarshalJSON реализует json.Marshaler.
func (s Scalar) MarshalJSON() ([]byte, error) {
	if s.isNum {
		return json.Marshal(s.num)
	}
	return json.Marshal(s.text)
}

// UnmarshalJSON реализует json.Unmarshaler.
// Принимает число, строку или null (null → пустая строка).
func (s *Scalar) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*s = Scalar{}
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var text string
		if err := json.Unmarshal(data, &text); err != nil {
			return err
		}
		*s = Text(text)
		return nil
	}
	var num float64
	if err := json.Unmarshal(data, &num); err != nil {
		return fmt.Errorf("scalar: expected number or string, got %s", data)
	}
	*s = Number(num)
	return nil
}

// FormatNumber форматирует число без экспоненты и лишних нулей.
func FormatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
