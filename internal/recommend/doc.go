// Package recommend превращает решение compliance skill в письмо
// с рекомендацией для email skill.
//
// Рекомендация выбирается так:
//   - approved == false — кредит отклонён;
//   - approved и guardrail разрешает сумму — можно одобрить автоматически;
//   - approved и guardrail не разрешает — одобрен, но нужен ручной разбор.
//
// Одобренный отчёт с отсутствующей или нечисловой суммой — ErrMalformedReport:
// task завершается с ошибкой, а не получает текст "нужен ручной разбор".
// Отчёт без borrower, loan или строкового message — тоже ErrMalformedReport.
//
// Тема и тело письма — text/template шаблоны. Шаблоны по умолчанию
// (DefaultSubjectTemplate, DefaultBodyTemplate) оператор может заменить
// в конфигурации.
package recommend
