// Package entity contains the core business objects of the project,
// each representing a unique, identifiable concept within the domain.
package entity

import (
	"time"

	"github.com/google/uuid"
)

// ResetToken represents a single-use, time-limited authorization to change the
// password of exactly one account. A token starts out issued and ends either
// consumed (successful redemption) or expired; expiry is never stored, it is
// always derived by comparing the current time against ExpiresAt.
type ResetToken struct {
	ID        uuid.UUID // The unique ID for this token record.
	AccountID uuid.UUID // Links this token to the Account it belongs to.
	Token     string    // The URL-safe random secret handed to the account holder.
	ExpiresAt time.Time // The exact time when this token stops being redeemable.
	Consumed  bool      // Set once, on successful redemption. Never cleared.
	CreatedAt time.Time // Timestamp of when this token was issued.
}

// Redeemable reports whether the token can still authorize a password change
// at the given instant: not yet consumed and not past its expiry.
func (t *ResetToken) Redeemable(now time.Time) bool {
	return !t.Consumed && !now.After(t.ExpiresAt)
}

// Expired reports whether the token's validity window has passed.
func (t *ResetToken) Expired(now time.Time) bool {
	return now.After(t.ExpiresAt)
}
