package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransactionType separates money coming in from money going out.
type TransactionType string

const (
	TransactionTypeIncome  TransactionType = "income"
	TransactionTypeExpense TransactionType = "expense"
)

// MonthYearLayout is the time layout of Transaction.MonthYear ("2026-02").
const MonthYearLayout = "2006-01"

// Valid reports whether t is a known transaction type.
func (t TransactionType) Valid() bool {
	return t == TransactionTypeIncome || t == TransactionTypeExpense
}

// Transaction is a single dated income or expense entry.
type Transaction struct {
	ID              string
	UserID          string
	MonthYear       string
	Type            TransactionType
	Amount          decimal.Decimal
	Description     string
	Category        string
	TransactionDate time.Time
	CreatedAt       time.Time
}

// MonthlySummary aggregates one user's month.
type MonthlySummary struct {
	MonthYear string          `json:"monthYear"`
	Income    decimal.Decimal `json:"income"`
	Expenses  decimal.Decimal `json:"expenses"`
	Balance   decimal.Decimal `json:"balance"`
	Count     int             `json:"count"`
}

// YearlySummary aggregates all months of a year that have data.
type YearlySummary struct {
	Year          string          `json:"year"`
	TotalIncome   decimal.Decimal `json:"totalIncome"`
	TotalExpenses decimal.Decimal `json:"totalExpenses"`
	Balance       decimal.Decimal `json:"balance"`
	Months        int             `json:"months"`
}

// Totals is the raw income/expense sum pair returned by aggregate queries.
type Totals struct {
	Income   decimal.Decimal
	Expenses decimal.Decimal
	Count    int
}
