package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// --- Input DTOs ---

// RequestResetInput defines the data required to start a password reset.
type RequestResetInput struct {
	Email string
}

// ResetPasswordInput defines the data required to redeem a reset token.
type ResetPasswordInput struct {
	Token           string
	NewPassword     string
	ConfirmPassword string
}

// --- Output DTOs ---

// RequestResetOutput returns the issued token and its validity window.
// The delivery layer decides how much of this reaches the client; the
// secret itself normally travels only through the notification channel.
type RequestResetOutput struct {
	Token     string
	ExpiresAt time.Time
}

// ValidateTokenOutput identifies the token and the account it belongs to.
type ValidateTokenOutput struct {
	TokenID   uuid.UUID
	AccountID uuid.UUID
	Email     string
}

// RecoveryUsecase defines the interface for the password reset lifecycle:
// issuing tokens, checking them, redeeming them, and purging the dead ones.
type RecoveryUsecase interface {
	// RequestReset issues a fresh reset token for the account behind the email
	// and sends the reset link. An unknown email yields a not-found error and
	// no token. Notification failure does not void the issued token.
	RequestReset(ctx context.Context, input *RequestResetInput) (*RequestResetOutput, error)

	// ValidateToken checks a token without consuming it, distinguishing
	// unknown, already used, and expired tokens.
	ValidateToken(ctx context.Context, token string) (*ValidateTokenOutput, error)

	// ResetPassword redeems a token: confirmation match, policy check, token
	// validity, then password update and token consumption atomically.
	ResetPassword(ctx context.Context, input *ResetPasswordInput) error

	// Cleanup purges expired and consumed tokens, returning the number removed.
	Cleanup(ctx context.Context) (int64, error)
}
