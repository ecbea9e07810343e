package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/spec-kit/finance-tracker/internal/api/dto"
	"github.com/spec-kit/finance-tracker/internal/domain"
	"github.com/spec-kit/finance-tracker/internal/service"
	apperrors "github.com/spec-kit/finance-tracker/pkg/util/errorutil"
)

// TransactionService is the transaction surface used by the HTTP layer.
type TransactionService interface {
	Add(ctx context.Context, userID string, input service.TransactionCreateInput) (*domain.Transaction, error)
	List(ctx context.Context, userID, monthYear string) ([]domain.Transaction, error)
	Delete(ctx context.Context, userID, id string) error
	MonthlySummary(ctx context.Context, userID, monthYear string) (domain.MonthlySummary, error)
	YearlySummary(ctx context.Context, userID, year string) (domain.YearlySummary, error)
	TotalBalance(ctx context.Context, userID string) (decimal.Decimal, error)
	Months(ctx context.Context, userID string) ([]string, error)
}

// TransactionsHandler exposes the signed-in user's transactions.
type TransactionsHandler struct {
	transactions TransactionService
	users        userResolver
}

// NewTransactionsHandler constructs handler.
func NewTransactionsHandler(transactions TransactionService, users AuthService) *TransactionsHandler {
	return &TransactionsHandler{transactions: transactions, users: users}
}

// List handles GET /api/transactions.
func (h *TransactionsHandler) List(c *fiber.Ctx) error {
	user, err := currentUser(c, h.users)
	if err != nil {
		return err
	}
	txs, err := h.transactions.List(c.UserContext(), user.ID, strings.TrimSpace(c.Query("monthYear")))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewTransactionList(txs)})
}

// Create handles POST /api/transactions.
func (h *TransactionsHandler) Create(c *fiber.Ctx) error {
	user, err := currentUser(c, h.users)
	if err != nil {
		return err
	}

	var req dto.CreateTransactionRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}
	if err := dto.Validate(req); err != nil {
		return err
	}

	tx, err := h.transactions.Add(c.UserContext(), user.ID, service.TransactionCreateInput{
		Type:            domain.TransactionType(req.Type),
		Amount:          req.Amount,
		Description:     req.Description,
		Category:        req.Category,
		MonthYear:       req.MonthYear,
		TransactionDate: req.TransactionDate,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.NewTransactionResponse(*tx)})
}

// Delete handles DELETE /api/transactions/:id.
func (h *TransactionsHandler) Delete(c *fiber.Ctx) error {
	user, err := currentUser(c, h.users)
	if err != nil {
		return err
	}
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return apperrors.NewValidationError("invalid transaction id", map[string]any{"id": c.Params("id")})
	}
	if err := h.transactions.Delete(c.UserContext(), user.ID, id.String()); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}

// MonthlySummary handles GET /api/transactions/summary.
func (h *TransactionsHandler) MonthlySummary(c *fiber.Ctx) error {
	user, err := currentUser(c, h.users)
	if err != nil {
		return err
	}
	summary, err := h.transactions.MonthlySummary(c.UserContext(), user.ID, strings.TrimSpace(c.Query("monthYear")))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": summary})
}

// YearlySummary handles GET /api/transactions/summary/yearly.
func (h *TransactionsHandler) YearlySummary(c *fiber.Ctx) error {
	user, err := currentUser(c, h.users)
	if err != nil {
		return err
	}
	summary, err := h.transactions.YearlySummary(c.UserContext(), user.ID, strings.TrimSpace(c.Query("year")))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": summary})
}

// Balance handles GET /api/transactions/balance.
func (h *TransactionsHandler) Balance(c *fiber.Ctx) error {
	user, err := currentUser(c, h.users)
	if err != nil {
		return err
	}
	balance, err := h.transactions.TotalBalance(c.UserContext(), user.ID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.BalanceResponse{Balance: balance}})
}

// Months handles GET /api/transactions/months.
func (h *TransactionsHandler) Months(c *fiber.Ctx) error {
	user, err := currentUser(c, h.users)
	if err != nil {
		return err
	}
	months, err := h.transactions.Months(c.UserContext(), user.ID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": months})
}
