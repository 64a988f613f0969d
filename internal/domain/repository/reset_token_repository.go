// Package repository defines the interfaces for the persistence layer.
// These interfaces act as a contract between the domain/application layers and the infrastructure layer.
package repository

import (
	"context"
	"time"

	"credvault/internal/domain/entity"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// Domain-specific errors for reset token persistence.
var (
	// ErrResetTokenNotFound is returned when a reset token is not found.
	ErrResetTokenNotFound = errors.New("reset token not found")
	// ErrDuplicateResetToken is returned when inserting a token whose secret already
	// exists. Generation collisions are vanishingly rare; the caller regenerates and retries.
	ErrDuplicateResetToken = errors.New("reset token already exists")
	// ErrResetTokenConsumed is returned when a conditional consume finds the token
	// already marked consumed. Exactly one concurrent redeemer wins the flip.
	ErrResetTokenConsumed = errors.New("reset token already consumed")
)

// ResetTokenRepository defines the interface for reset token persistence.
// The repository stores and mutates rows; deciding whether a token is redeemable
// is the recovery use case's job.
type ResetTokenRepository interface {
	// Create persists a newly issued reset token.
	// A uniqueness violation on the token column surfaces as ErrDuplicateResetToken.
	Create(ctx context.Context, token *entity.ResetToken) error

	// FindByToken retrieves a reset token record by its secret string, regardless of
	// its consumed flag or expiry. Returns ErrResetTokenNotFound when absent.
	FindByToken(ctx context.Context, token string) (*entity.ResetToken, error)

	// Consume flips the consumed flag with a single conditional update
	// ("consumed = true WHERE id = ? AND consumed = false"). When zero rows match,
	// it reports ErrResetTokenConsumed if the row exists and ErrResetTokenNotFound
	// otherwise, so two concurrent redeemers can never both observe success.
	Consume(ctx context.Context, id uuid.UUID) error

	// PurgeBefore deletes every token that expired before the given instant or has
	// been consumed, returning the number of rows removed. Idempotent.
	PurgeBefore(ctx context.Context, now time.Time) (int64, error)
}
