package handler

import (
	"log/slog"
	"net/http"

	"credvault/internal/delivery/http/response"
	domainerrors "credvault/internal/domain/errors"
	"credvault/internal/usecase"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
)

// forgotPasswordAccepted is returned whether or not the email is registered,
// so the endpoint cannot be used to probe for accounts.
const forgotPasswordAccepted = "If the email is registered, a reset link has been sent"

// RecoveryHandler holds dependencies for password reset handlers.
type RecoveryHandler struct {
	uc     usecase.RecoveryUsecase
	logger *slog.Logger
}

// NewRecoveryHandler is the constructor for RecoveryHandler, injected by Fx.
func NewRecoveryHandler(uc usecase.RecoveryUsecase, logger *slog.Logger) *RecoveryHandler {
	return &RecoveryHandler{
		uc:     uc,
		logger: logger,
	}
}

type forgotPasswordRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type resetPasswordRequest struct {
	Token           string `json:"token" validate:"required"`
	NewPassword     string `json:"new_password" validate:"required"`
	ConfirmPassword string `json:"confirm_password" validate:"required"`
}

// ForgotPassword starts the reset flow. The response is identical for known
// and unknown emails; only the mail reveals whether an account exists.
func (h *RecoveryHandler) ForgotPassword(c echo.Context) error {
	var input forgotPasswordRequest
	if err := c.Bind(&input); err != nil {
		return response.BindingError(c, "INVALID_INPUT", "Invalid email input")
	}
	if err := c.Validate(&input); err != nil {
		return errors.WithStack(err)
	}

	_, err := h.uc.RequestReset(c.Request().Context(), &usecase.RequestResetInput{Email: input.Email})
	if err != nil && !errors.Is(err, domainerrors.ErrAccountNotFound) {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusAccepted, nil, forgotPasswordAccepted)
}

// ValidateToken checks a reset token without consuming it, typically called
// when the reset form loads.
func (h *RecoveryHandler) ValidateToken(c echo.Context) error {
	token := c.QueryParam("token")
	if token == "" {
		return response.BadRequest(c, "INVALID_INPUT", "Missing token parameter")
	}

	info, err := h.uc.ValidateToken(c.Request().Context(), token)
	if err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusOK, map[string]string{"email": info.Email}, "Token is valid")
}

// ResetPassword redeems a reset token and sets the new password.
func (h *RecoveryHandler) ResetPassword(c echo.Context) error {
	var input resetPasswordRequest
	if err := c.Bind(&input); err != nil {
		return response.BindingError(c, "INVALID_INPUT", "Invalid reset input")
	}
	if err := c.Validate(&input); err != nil {
		return errors.WithStack(err)
	}

	err := h.uc.ResetPassword(c.Request().Context(), &usecase.ResetPasswordInput{
		Token:           input.Token,
		NewPassword:     input.NewPassword,
		ConfirmPassword: input.ConfirmPassword,
	})
	if err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusOK, nil, "Password has been reset")
}
