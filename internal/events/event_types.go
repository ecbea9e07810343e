package events

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/spec-kit/finance-tracker/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventTransactionCreated EventType = "transaction_created"
	EventTransactionDeleted EventType = "transaction_deleted"
)

// Event represents a domain event emitted by services.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	UserID    string      `json:"user_id"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// TransactionPayload is carried by both transaction events.
type TransactionPayload struct {
	TransactionID string                 `json:"transaction_id"`
	MonthYear     string                 `json:"month_year"`
	Type          domain.TransactionType `json:"type"`
	Amount        decimal.Decimal        `json:"amount"`
	Category      string                 `json:"category,omitempty"`
}

// NewTransactionEvent builds an event for tx.
func NewTransactionEvent(eventType EventType, tx domain.Transaction, at time.Time) Event {
	return Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		UserID:    tx.UserID,
		Timestamp: at,
		Payload: TransactionPayload{
			TransactionID: tx.ID,
			MonthYear:     tx.MonthYear,
			Type:          tx.Type,
			Amount:        tx.Amount,
			Category:      tx.Category,
		},
	}
}
