package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/Rohit5932/consult-smart-portal/internal/api/dto"
	"github.com/Rohit5932/consult-smart-portal/internal/guard"
	"github.com/Rohit5932/consult-smart-portal/internal/identity"
	"github.com/Rohit5932/consult-smart-portal/internal/session"
	"github.com/Rohit5932/consult-smart-portal/internal/validate"
	apperrors "github.com/Rohit5932/consult-smart-portal/pkg/util"
)

// passwordResetConfirmer is implemented by providers that complete resets
// with a token, such as the built-in one.
type passwordResetConfirmer interface {
	ConfirmPasswordReset(ctx context.Context, token, newPassword string) error
}

// AuthHandler exposes the credential operations of the identity service.
// All pre-flight validation runs here, before any backend call, using the
// same rules the session manager applies.
type AuthHandler struct {
	svc                identity.Service
	logger             *zap.Logger
	defaultCountryCode string
}

// NewAuthHandler constructs handler.
func NewAuthHandler(svc identity.Service, logger *zap.Logger, defaultCountryCode string) *AuthHandler {
	return &AuthHandler{svc: svc, logger: logger, defaultCountryCode: defaultCountryCode}
}

// SignUp handles POST /auth/signup.
func (h *AuthHandler) SignUp(c *fiber.Ctx) error {
	var req dto.SignUpRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	email, err := validate.Email(req.Email)
	if err != nil {
		return err
	}
	if err := validate.Password(req.Password); err != nil {
		return err
	}

	result, err := h.svc.SignUp(c.UserContext(), identity.SignUpInput{
		Email:       email,
		Password:    req.Password,
		DisplayName: req.DisplayName,
	})
	if err != nil {
		return apperrors.FromRemote("sign-up", err)
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.AuthResponse{
		Token:                result.Token,
		ExpiresAt:            result.ExpiresAt,
		RequiresVerification: result.RequiresVerification,
	}})
}

// SignIn handles POST /auth/signin.
func (h *AuthHandler) SignIn(c *fiber.Ctx) error {
	var req dto.SignInRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	email, err := validate.Email(req.Email)
	if err != nil {
		return err
	}
	if req.Password == "" {
		return apperrors.NewInvalidCredentials("")
	}

	result, err := h.svc.SignInWithPassword(c.UserContext(), email, req.Password)
	if err != nil {
		return apperrors.FromRemote("sign-in", err)
	}
	return c.JSON(fiber.Map{"data": dto.AuthResponse{
		Token:     result.Token,
		ExpiresAt: result.ExpiresAt,
	}})
}

// SendOTP handles POST /auth/otp/send.
func (h *AuthHandler) SendOTP(c *fiber.Ctx) error {
	var req dto.OTPSendRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	phone, err := validate.Phone(req.Phone, h.defaultCountryCode)
	if err != nil {
		return err
	}
	if err := h.svc.SendOTP(c.UserContext(), phone); err != nil {
		return apperrors.FromRemote("otp send", err)
	}
	return c.Status(http.StatusAccepted).JSON(fiber.Map{"data": fiber.Map{"phone": phone}})
}

// VerifyOTP handles POST /auth/otp/verify.
func (h *AuthHandler) VerifyOTP(c *fiber.Ctx) error {
	var req dto.OTPVerifyRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	phone, err := validate.Phone(req.Phone, h.defaultCountryCode)
	if err != nil {
		return err
	}
	if err := validate.OTP(req.Code); err != nil {
		return err
	}

	result, err := h.svc.VerifyOTP(c.UserContext(), phone, req.Code)
	if err != nil {
		return apperrors.FromRemote("otp verify", err)
	}
	return c.JSON(fiber.Map{"data": dto.AuthResponse{
		Token:     result.Token,
		ExpiresAt: result.ExpiresAt,
	}})
}

// OAuthRedirect handles GET /auth/oauth/:provider. The flow completes out of
// band; the client presents the token it receives after redirect-back.
func (h *AuthHandler) OAuthRedirect(c *fiber.Ctx) error {
	provider := strings.TrimSpace(c.Params("provider"))
	if provider == "" {
		return apperrors.NewValidationError("provider required", nil)
	}
	url, err := h.svc.OAuthRedirectURL(provider, c.Query("redirect_to"))
	if err != nil {
		return apperrors.FromRemote("oauth", err)
	}
	return c.Redirect(url, http.StatusFound)
}

// ResetPassword handles POST /auth/password/reset.
func (h *AuthHandler) ResetPassword(c *fiber.Ctx) error {
	var req dto.PasswordResetRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	email, err := validate.Email(req.Email)
	if err != nil {
		return err
	}
	if err := h.svc.ResetPassword(c.UserContext(), email); err != nil {
		return apperrors.FromRemote("password reset", err)
	}
	return c.SendStatus(http.StatusAccepted)
}

// ConfirmPasswordReset handles POST /auth/password/reset/confirm.
func (h *AuthHandler) ConfirmPasswordReset(c *fiber.Ctx) error {
	confirmer, ok := h.svc.(passwordResetConfirmer)
	if !ok {
		return apperrors.NewNotFound("operation", nil)
	}
	var req dto.PasswordResetConfirmRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.Token == "" {
		return apperrors.NewValidationError("token required", nil)
	}
	if err := validate.Password(req.Password); err != nil {
		return err
	}
	if err := confirmer.ConfirmPasswordReset(c.UserContext(), req.Token, req.Password); err != nil {
		return apperrors.FromRemote("password reset", err)
	}
	return c.SendStatus(http.StatusNoContent)
}

// SignOut handles POST /auth/signout. Always succeeds from the caller's
// perspective: local invalidation is authoritative, the remote revocation is
// best effort and only logged on failure.
func (h *AuthHandler) SignOut(c *fiber.Ctx) error {
	header := c.Get(fiber.HeaderAuthorization)
	parts := strings.SplitN(header, " ", 2)
	if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
		if err := h.svc.SignOut(c.UserContext(), parts[1]); err != nil {
			h.logger.Warn("remote sign-out failed", zap.Error(err))
		}
	}
	return c.SendStatus(http.StatusNoContent)
}

// Session handles GET /auth/session, returning the resolved snapshot for
// the presented token.
func (h *AuthHandler) Session(c *fiber.Ctx) error {
	snapshot := guard.SnapshotFromContext(c)
	if snapshot.State != session.StateAuthenticated {
		return c.JSON(fiber.Map{"data": fiber.Map{"state": string(snapshot.State)}})
	}

	payload := fiber.Map{
		"state": string(snapshot.State),
		"identity": fiber.Map{
			"id":           snapshot.Identity.ID,
			"email":        snapshot.Identity.Email,
			"phone":        snapshot.Identity.Phone,
			"display_name": snapshot.Identity.DisplayName,
		},
	}
	if snapshot.Profile != nil {
		payload["profile"] = fiber.Map{
			"id":         snapshot.Profile.ID,
			"email":      snapshot.Profile.Email,
			"full_name":  snapshot.Profile.FullName,
			"avatar_url": snapshot.Profile.AvatarURL,
			"role":       string(snapshot.Profile.Role),
		}
	}
	return c.JSON(fiber.Map{"data": payload})
}
