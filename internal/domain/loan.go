package domain

import "encoding/json"

// LoanDocument — заявка на кредит в формате ruleset'а "loan validation".
//
// Документ строится из плоского результата extraction skill
// и отправляется в compliance skill как {"data": LoanDocument}.
type LoanDocument struct {
	Loan     Loan     `json:"loan"`
	Borrower Borrower `json:"borrower"`
}

// Loan — параметры запрашиваемого кредита.
type Loan struct {
	NumberOfMonthlyPayments Scalar `json:"numberOfMonthlyPayments"`
	StartDate               Scalar `json:"startDate"`
	Amount                  Scalar `json:"amount"`
	LoanToValue             Scalar `json:"loanToValue"`
}

// Borrower — заёмщик.
type Borrower struct {
	FirstName    Scalar `json:"firstName"`
	LastName     Scalar `json:"lastName"`
	Birth        Scalar `json:"birth"`
	SSN          SSN    `json:"SSN"`
	YearlyIncome Scalar `json:"yearlyIncome"`

	// ZipCode всегда строка: почтовые индексы с ведущими нулями
	// не должны превращаться в числа.
	ZipCode     Scalar `json:"zipCode"`
	CreditScore Scalar `json:"creditScore"`

	// LatestBankruptcy — сведения о последнем банкротстве.
	// Extraction их не извлекает, в заявке всегда null.
	LatestBankruptcy json.RawMessage `json:"latestBankruptcy"`
}

// SSN — номер социального страхования, разбитый на части.
type SSN struct {
	AreaNumber   Scalar `json:"areaNumber"`
	GroupCode    Scalar `json:"groupCode"`
	SerialNumber Scalar `json:"serialNumber"`
}

// FullName возвращает "Имя Фамилия".
func (b Borrower) FullName() string {
	return b.FirstName.String() + " " + b.LastName.String()
}
