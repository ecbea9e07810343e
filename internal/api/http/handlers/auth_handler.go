package handlers

import (
	"context"
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/finance-tracker/internal/api/dto"
	"github.com/spec-kit/finance-tracker/internal/auth"
	"github.com/spec-kit/finance-tracker/internal/domain"
	"github.com/spec-kit/finance-tracker/internal/service"
	apperrors "github.com/spec-kit/finance-tracker/pkg/util/errorutil"
)

// AuthService is the account surface used by the HTTP layer.
type AuthService interface {
	Register(ctx context.Context, input service.RegisterInput) (*service.AuthResult, error)
	Login(ctx context.Context, email, password string) (*service.AuthResult, error)
	Validate(token string) service.TokenCheck
	ResolveUser(ctx context.Context, email string) (*domain.User, error)
}

// AuthHandler exposes account endpoints.
type AuthHandler struct {
	auth AuthService
}

// NewAuthHandler constructs handler.
func NewAuthHandler(authService AuthService) *AuthHandler {
	return &AuthHandler{auth: authService}
}

// Register handles POST /api/auth/register.
func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var req dto.RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}
	if err := dto.Validate(req); err != nil {
		return err
	}

	result, err := h.auth.Register(c.UserContext(), service.RegisterInput{
		Email:     req.Email,
		Password:  req.Password,
		FirstName: req.FirstName,
		LastName:  req.LastName,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{
		"data": dto.NewAuthResponse(result.User, result.Token),
	})
}

// Login handles POST /api/auth/login.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}
	if err := dto.Validate(req); err != nil {
		return err
	}

	result, err := h.auth.Login(c.UserContext(), req.Email, req.Password)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"data": dto.NewAuthResponse(result.User, result.Token),
	})
}

// Validate handles POST /api/auth/validate. Unusable tokens answer valid=false, not an error.
func (h *AuthHandler) Validate(c *fiber.Ctx) error {
	var req dto.ValidateTokenRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}
	if err := dto.Validate(req); err != nil {
		return err
	}

	check := h.auth.Validate(req.Token)
	return c.JSON(fiber.Map{
		"data": dto.ValidateTokenResponse{Valid: check.Valid, Email: check.Email},
	})
}

// Me handles GET /api/auth/me.
func (h *AuthHandler) Me(c *fiber.Ctx) error {
	user, err := currentUser(c, h.auth)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewUserResponse(user)})
}

type userResolver interface {
	ResolveUser(ctx context.Context, email string) (*domain.User, error)
}

// currentUser loads the account of the identity bound to the request.
func currentUser(c *fiber.Ctx, users userResolver) (*domain.User, error) {
	identity, ok := auth.IdentityFromFiber(c)
	if !ok {
		return nil, apperrors.NewUnauthorized("authentication required")
	}
	return users.ResolveUser(c.UserContext(), identity.Subject)
}
