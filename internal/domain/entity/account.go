// Package entity contains the core business objects of the project,
// each representing a unique, identifiable concept within the domain.
package entity

import (
	"time"

	"github.com/google/uuid"
)

// Account is the core entity in the system, representing a registered credential holder.
type Account struct {
	ID           uuid.UUID // The unique identifier for the account.
	Email        string    // The account's email, unique across all accounts and used as the login identifier.
	PasswordHash string    // The salted password record in "salt:digest" form. Never reversible.
	CreatedAt    time.Time // Timestamp of when this account was created.
	UpdatedAt    time.Time // Timestamp of the last modification to this account.
}
