package service

import (
	"context"
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/spec-kit/finance-tracker/internal/cache"
	"github.com/spec-kit/finance-tracker/internal/domain"
	"github.com/spec-kit/finance-tracker/internal/events"
	"github.com/spec-kit/finance-tracker/internal/repository"
	apperrors "github.com/spec-kit/finance-tracker/pkg/util/errorutil"
)

// MaxDescriptionLength is the longest accepted transaction description in characters.
const MaxDescriptionLength = 500

// SummaryCache stores computed monthly summaries. Get reports the month's
// generation; Set refuses with cache.ErrStaleSummary once it has moved on.
type SummaryCache interface {
	Get(ctx context.Context, userID, monthYear string) (domain.MonthlySummary, int64, bool, error)
	Set(ctx context.Context, userID string, summary domain.MonthlySummary, generation int64) error
}

// TransactionService coordinates transaction workflows.
type TransactionService struct {
	transactions repository.TransactionRepository
	summaries    SummaryCache
	dispatcher   events.Dispatcher
	logger       *zap.Logger
	now          func() time.Time
}

// TransactionDependencies bundles requirements for the transaction service.
// Summaries and Dispatcher may be nil.
type TransactionDependencies struct {
	TransactionRepo repository.TransactionRepository
	Summaries       SummaryCache
	Dispatcher      events.Dispatcher
	Logger          *zap.Logger
	Now             func() time.Time
}

// NewTransactionService constructs the service.
func NewTransactionService(deps TransactionDependencies) *TransactionService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	return &TransactionService{
		transactions: deps.TransactionRepo,
		summaries:    deps.Summaries,
		dispatcher:   deps.Dispatcher,
		logger:       logger.Named("transactions"),
		now:          now,
	}
}

// TransactionCreateInput describes a new transaction.
type TransactionCreateInput struct {
	Type            domain.TransactionType
	Amount          decimal.Decimal
	Description     string
	Category        string
	MonthYear       string
	TransactionDate *time.Time
}

// Add records a transaction for userID.
func (s *TransactionService) Add(ctx context.Context, userID string, input TransactionCreateInput) (*domain.Transaction, error) {
	details := map[string]any{}
	if !input.Type.Valid() {
		details["type"] = "must be income or expense"
	}
	if !input.Amount.IsPositive() {
		details["amount"] = "must be greater than zero"
	}
	description := strings.TrimSpace(input.Description)
	if utf8.RuneCountInString(description) > MaxDescriptionLength {
		details["description"] = "must be at most 500 characters"
	}
	if input.MonthYear != "" {
		if _, err := ParseMonthYear(input.MonthYear); err != nil {
			details["monthYear"] = "must be formatted YYYY-MM"
		}
	}
	if len(details) > 0 {
		return nil, apperrors.NewValidationError("invalid transaction", details)
	}

	date := s.now()
	if input.TransactionDate != nil {
		date = *input.TransactionDate
	}
	monthYear := input.MonthYear
	if monthYear == "" {
		monthYear = date.Format(domain.MonthYearLayout)
	}

	tx := &domain.Transaction{
		UserID:          userID,
		MonthYear:       monthYear,
		Type:            input.Type,
		Amount:          input.Amount.Round(2),
		Description:     description,
		Category:        strings.TrimSpace(input.Category),
		TransactionDate: date,
	}
	if err := s.transactions.Create(ctx, tx); err != nil {
		return nil, err
	}
	s.publishEvent(ctx, events.NewTransactionEvent(events.EventTransactionCreated, *tx, s.now()))
	return tx, nil
}

// List returns the user's transactions of a month; empty monthYear means the current month.
func (s *TransactionService) List(ctx context.Context, userID, monthYear string) ([]domain.Transaction, error) {
	month, err := s.monthOrCurrent(monthYear)
	if err != nil {
		return nil, err
	}
	return s.transactions.ListByMonth(ctx, userID, month)
}

// Delete removes a transaction owned by userID.
func (s *TransactionService) Delete(ctx context.Context, userID, id string) error {
	tx, err := s.transactions.Delete(ctx, userID, id)
	if errors.Is(err, pgx.ErrNoRows) {
		return apperrors.NewNotFound("transaction", map[string]any{"id": id})
	}
	if err != nil {
		return err
	}
	s.publishEvent(ctx, events.NewTransactionEvent(events.EventTransactionDeleted, *tx, s.now()))
	return nil
}

// MonthlySummary aggregates one month, served from the cache when possible.
func (s *TransactionService) MonthlySummary(ctx context.Context, userID, monthYear string) (domain.MonthlySummary, error) {
	if _, err := ParseMonthYear(monthYear); err != nil {
		return domain.MonthlySummary{}, apperrors.NewValidationError("invalid monthYear", map[string]any{"monthYear": "must be formatted YYYY-MM"})
	}

	var (
		generation int64
		writeBack  bool
	)
	if s.summaries != nil {
		cached, gen, found, err := s.summaries.Get(ctx, userID, monthYear)
		switch {
		case err != nil:
			s.logger.Warn("summary cache read failed", zap.Error(err))
		case found:
			return cached, nil
		default:
			generation, writeBack = gen, true
		}
	}

	totals, err := s.transactions.MonthTotals(ctx, userID, monthYear)
	if err != nil {
		return domain.MonthlySummary{}, err
	}
	summary := domain.MonthlySummary{
		MonthYear: monthYear,
		Income:    totals.Income,
		Expenses:  totals.Expenses,
		Balance:   totals.Income.Sub(totals.Expenses),
		Count:     totals.Count,
	}

	if writeBack {
		err := s.summaries.Set(ctx, userID, summary, generation)
		switch {
		case errors.Is(err, cache.ErrStaleSummary):
			s.logger.Debug("summary changed while computing, not cached",
				zap.String("user_id", userID), zap.String("month_year", monthYear))
		case err != nil:
			s.logger.Warn("summary cache write failed", zap.Error(err))
		}
	}
	return summary, nil
}

// YearlySummary aggregates every month of year.
func (s *TransactionService) YearlySummary(ctx context.Context, userID, year string) (domain.YearlySummary, error) {
	if _, err := time.Parse("2006", year); err != nil {
		return domain.YearlySummary{}, apperrors.NewValidationError("invalid year", map[string]any{"year": "must be formatted YYYY"})
	}
	totals, err := s.transactions.YearTotals(ctx, userID, year)
	if err != nil {
		return domain.YearlySummary{}, err
	}
	return domain.YearlySummary{
		Year:          year,
		TotalIncome:   totals.Income,
		TotalExpenses: totals.Expenses,
		Balance:       totals.Income.Sub(totals.Expenses),
		Months:        totals.Count,
	}, nil
}

// TotalBalance is income minus expenses over all time.
func (s *TransactionService) TotalBalance(ctx context.Context, userID string) (decimal.Decimal, error) {
	totals, err := s.transactions.AllTotals(ctx, userID)
	if err != nil {
		return decimal.Zero, err
	}
	return totals.Income.Sub(totals.Expenses), nil
}

// Months lists months with data, newest first.
func (s *TransactionService) Months(ctx context.Context, userID string) ([]string, error) {
	return s.transactions.Months(ctx, userID)
}

func (s *TransactionService) monthOrCurrent(monthYear string) (string, error) {
	if monthYear == "" {
		return s.now().Format(domain.MonthYearLayout), nil
	}
	if _, err := ParseMonthYear(monthYear); err != nil {
		return "", apperrors.NewValidationError("invalid monthYear", map[string]any{"monthYear": "must be formatted YYYY-MM"})
	}
	return monthYear, nil
}

func (s *TransactionService) publishEvent(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if err := s.dispatcher.Publish(ctx, event); err != nil {
		s.logger.Warn("event handlers failed", zap.String("event", string(event.Type)), zap.Error(err))
	}
}

// ParseMonthYear parses a "YYYY-MM" month.
func ParseMonthYear(monthYear string) (time.Time, error) {
	return time.Parse(domain.MonthYearLayout, monthYear)
}
