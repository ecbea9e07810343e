package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/spec-kit/finance-tracker/internal/domain"
)

// CreateTransactionRequest payload. Amount accepts a JSON number or string.
type CreateTransactionRequest struct {
	Type            string          `json:"type" validate:"required,oneof=income expense"`
	Amount          decimal.Decimal `json:"amount"`
	Description     string          `json:"description" validate:"max=500"`
	Category        string          `json:"category" validate:"max=100"`
	MonthYear       string          `json:"monthYear" validate:"omitempty,datetime=2006-01"`
	TransactionDate *time.Time      `json:"transactionDate"`
}

// TransactionResponse is the public view of a transaction.
type TransactionResponse struct {
	ID              string          `json:"id"`
	MonthYear       string          `json:"monthYear"`
	Type            string          `json:"type"`
	Amount          decimal.Decimal `json:"amount"`
	Description     string          `json:"description"`
	Category        string          `json:"category"`
	TransactionDate time.Time       `json:"transactionDate"`
	CreatedAt       time.Time       `json:"createdAt"`
}

// BalanceResponse is the all-time balance.
type BalanceResponse struct {
	Balance decimal.Decimal `json:"balance"`
}

// NewTransactionResponse maps a domain transaction.
func NewTransactionResponse(tx domain.Transaction) TransactionResponse {
	return TransactionResponse{
		ID:              tx.ID,
		MonthYear:       tx.MonthYear,
		Type:            string(tx.Type),
		Amount:          tx.Amount,
		Description:     tx.Description,
		Category:        tx.Category,
		TransactionDate: tx.TransactionDate,
		CreatedAt:       tx.CreatedAt,
	}
}

// NewTransactionList maps a slice, never returning nil.
func NewTransactionList(txs []domain.Transaction) []TransactionResponse {
	out := make([]TransactionResponse, 0, len(txs))
	for _, tx := range txs {
		out = append(out, NewTransactionResponse(tx))
	}
	return out
}
