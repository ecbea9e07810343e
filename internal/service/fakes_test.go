package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/spec-kit/finance-tracker/internal/cache"
	"github.com/spec-kit/finance-tracker/internal/domain"
)

type fakeUserRepo struct {
	mu      sync.Mutex
	byEmail map[string]*domain.User
	err     error
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{byEmail: map[string]*domain.User{}}
}

func (r *fakeUserRepo) Create(_ context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	user.ID = fmt.Sprintf("user-%d", len(r.byEmail)+1)
	copied := *user
	r.byEmail[user.Email] = &copied
	return nil
}

func (r *fakeUserRepo) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	u, ok := r.byEmail[email]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := *u
	return &copied, nil
}

func (r *fakeUserRepo) ExistsByEmail(_ context.Context, email string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return false, r.err
	}
	_, ok := r.byEmail[email]
	return ok, nil
}

type fakeTransactionRepo struct {
	mu     sync.Mutex
	byID   map[string]domain.Transaction
	nextID int
	calls  map[string]int
	// afterMonthTotals runs once totals are read, outside the lock.
	afterMonthTotals func()
}

func newFakeTransactionRepo() *fakeTransactionRepo {
	return &fakeTransactionRepo{byID: map[string]domain.Transaction{}, calls: map[string]int{}}
}

func (r *fakeTransactionRepo) Create(_ context.Context, tx *domain.Transaction) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	tx.ID = fmt.Sprintf("tx-%d", r.nextID)
	tx.CreatedAt = tx.TransactionDate
	r.byID[tx.ID] = *tx
	return nil
}

func (r *fakeTransactionRepo) ListByMonth(_ context.Context, userID, monthYear string) ([]domain.Transaction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	result := make([]domain.Transaction, 0)
	for _, tx := range r.byID {
		if tx.UserID == userID && tx.MonthYear == monthYear {
			result = append(result, tx)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].TransactionDate.After(result[j].TransactionDate) })
	return result, nil
}

func (r *fakeTransactionRepo) Delete(_ context.Context, userID, id string) (*domain.Transaction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	tx, ok := r.byID[id]
	if !ok || tx.UserID != userID {
		return nil, pgx.ErrNoRows
	}
	delete(r.byID, id)
	return &tx, nil
}

func (r *fakeTransactionRepo) totals(match func(domain.Transaction) bool) domain.Totals {
	totals := domain.Totals{Income: decimal.Zero, Expenses: decimal.Zero}
	for _, tx := range r.byID {
		if !match(tx) {
			continue
		}
		if tx.Type == domain.TransactionTypeIncome {
			totals.Income = totals.Income.Add(tx.Amount)
		} else {
			totals.Expenses = totals.Expenses.Add(tx.Amount)
		}
		totals.Count++
	}
	return totals
}

func (r *fakeTransactionRepo) MonthTotals(_ context.Context, userID, monthYear string) (domain.Totals, error) {
	r.mu.Lock()
	r.calls["MonthTotals"]++
	totals := r.totals(func(tx domain.Transaction) bool {
		return tx.UserID == userID && tx.MonthYear == monthYear
	})
	hook := r.afterMonthTotals
	r.mu.Unlock()

	if hook != nil {
		hook()
	}
	return totals, nil
}

func (r *fakeTransactionRepo) YearTotals(_ context.Context, userID, year string) (domain.Totals, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	months := map[string]struct{}{}
	totals := r.totals(func(tx domain.Transaction) bool {
		ok := tx.UserID == userID && strings.HasPrefix(tx.MonthYear, year+"-")
		if ok {
			months[tx.MonthYear] = struct{}{}
		}
		return ok
	})
	totals.Count = len(months)
	return totals, nil
}

func (r *fakeTransactionRepo) AllTotals(_ context.Context, userID string) (domain.Totals, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.totals(func(tx domain.Transaction) bool { return tx.UserID == userID }), nil
}

func (r *fakeTransactionRepo) Months(_ context.Context, userID string) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	seen := map[string]struct{}{}
	months := make([]string, 0)
	for _, tx := range r.byID {
		if _, ok := seen[tx.MonthYear]; tx.UserID != userID || ok {
			continue
		}
		seen[tx.MonthYear] = struct{}{}
		months = append(months, tx.MonthYear)
	}
	sort.Sort(sort.Reverse(sort.StringSlice(months)))
	return months, nil
}

type fakeSummaryCache struct {
	mu          sync.Mutex
	entries     map[string]domain.MonthlySummary
	generations map[string]int64
	stale       int
	err         error
}

func newFakeSummaryCache() *fakeSummaryCache {
	return &fakeSummaryCache{entries: map[string]domain.MonthlySummary{}, generations: map[string]int64{}}
}

func (c *fakeSummaryCache) Get(_ context.Context, userID, monthYear string) (domain.MonthlySummary, int64, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return domain.MonthlySummary{}, 0, false, c.err
	}
	key := userID + ":" + monthYear
	s, ok := c.entries[key]
	return s, c.generations[key], ok, nil
}

func (c *fakeSummaryCache) Set(_ context.Context, userID string, summary domain.MonthlySummary, generation int64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return c.err
	}
	key := userID + ":" + summary.MonthYear
	if c.generations[key] != generation {
		c.stale++
		return cache.ErrStaleSummary
	}
	c.entries[key] = summary
	return nil
}

func (c *fakeSummaryCache) Invalidate(_ context.Context, userID, monthYear string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	key := userID + ":" + monthYear
	c.generations[key]++
	delete(c.entries, key)
	return nil
}

type fakeLockoutStore struct {
	mu       sync.Mutex
	failures map[string]int
	locked   map[string]time.Time
	now      func() time.Time
	err      error
}

func newFakeLockoutStore(now func() time.Time) *fakeLockoutStore {
	return &fakeLockoutStore{failures: map[string]int{}, locked: map[string]time.Time{}, now: now}
}

func (s *fakeLockoutStore) RecordFailure(_ context.Context, id string, _ time.Duration) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return 0, s.err
	}
	s.failures[id]++
	return s.failures[id], nil
}

func (s *fakeLockoutStore) ClearFailures(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.failures, id)
	return nil
}

func (s *fakeLockoutStore) Lock(_ context.Context, id string, d time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.locked[id] = s.now().Add(d)
	delete(s.failures, id)
	return nil
}

func (s *fakeLockoutStore) IsLocked(_ context.Context, id string) (bool, time.Time, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return false, time.Time{}, s.err
	}
	until, ok := s.locked[id]
	if !ok || !until.After(s.now()) {
		return false, time.Time{}, nil
	}
	return true, until, nil
}
