package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/spec-kit/finance-tracker/internal/events"
)

// SummaryInvalidator drops cached monthly summaries.
type SummaryInvalidator interface {
	Invalidate(ctx context.Context, userID, monthYear string) error
}

// ActivityService reacts to transaction events: it keeps cached summaries
// consistent and writes an activity log line per change.
type ActivityService struct {
	dispatcher events.Dispatcher
	summaries  SummaryInvalidator
	logger     *zap.Logger
}

// NewActivityService creates the service. summaries may be nil.
func NewActivityService(dispatcher events.Dispatcher, summaries SummaryInvalidator, logger *zap.Logger) *ActivityService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ActivityService{
		dispatcher: dispatcher,
		summaries:  summaries,
		logger:     logger.Named("activity"),
	}
}

// RegisterHandlers subscribes to events.
func (a *ActivityService) RegisterHandlers() {
	if a.dispatcher == nil {
		return
	}
	if a.summaries != nil {
		a.dispatcher.Subscribe(events.EventTransactionCreated, a.invalidateSummary)
		a.dispatcher.Subscribe(events.EventTransactionDeleted, a.invalidateSummary)
	}
	a.dispatcher.Subscribe(events.EventTransactionCreated, a.logActivity)
	a.dispatcher.Subscribe(events.EventTransactionDeleted, a.logActivity)
}

func (a *ActivityService) invalidateSummary(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.TransactionPayload)
	if !ok {
		return nil
	}
	return a.summaries.Invalidate(ctx, event.UserID, payload.MonthYear)
}

func (a *ActivityService) logActivity(_ context.Context, event events.Event) error {
	fields := []zap.Field{
		zap.String("event_id", event.ID),
		zap.String("event", string(event.Type)),
		zap.String("user_id", event.UserID),
		zap.Time("at", event.Timestamp),
	}
	if payload, ok := event.Payload.(events.TransactionPayload); ok {
		fields = append(fields,
			zap.String("transaction_id", payload.TransactionID),
			zap.String("month_year", payload.MonthYear),
			zap.String("type", string(payload.Type)),
			zap.String("amount", payload.Amount.StringFixed(2)),
		)
	}
	a.logger.Info("transaction activity", fields...)
	return nil
}
