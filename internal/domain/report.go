package domain

// ComplianceReport — решение rules engine по заявке.
//
// Приходит в ответе compliance skill по пути data.report.
// Остальные поля ответа не интерпретируются и возвращаются как есть.
type ComplianceReport struct {
	Borrower Borrower `json:"borrower"`
	Loan     Loan     `json:"loan"`
	Approved bool     `json:"approved"`
	Message  string   `json:"message"`
}

// EmailMessage — письмо с рекомендацией для email skill.
type EmailMessage struct {
	Subject string `json:"subject"`
	To      string `json:"to"`
	From    string `json:"from"`
	Text    string `json:"text"`
}
