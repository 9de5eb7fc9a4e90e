// Package translate строит LoanDocument из результата extraction skill.
//
// Extraction skill возвращает плоский словарь "имя поля → значение".
// Имена полей сопоставляются с полями документа без учёта регистра
// и пробелов: "Loan To Value", "loantovalue" и "loanToValue" — одно поле.
//
// Правила значений:
//   - число или строка, которая парсится как число, — JSON-число;
//   - всё остальное — JSON-строка;
//   - zipCode — всегда строка;
//   - latestBankruptcy — всегда null.
//
// Отсутствующие поля — ошибка (*MissingFieldsError), а не частичный документ.
package translate
