// Package repository defines the interfaces for the persistence layer.
// These interfaces act as a contract between the domain/application layers and the infrastructure layer.
package repository

import (
	"context"
	"errors"

	"credvault/internal/domain/entity"

	"github.com/google/uuid"
)

// ErrAccountNotFound is a domain-specific error returned when an account is not found.
var ErrAccountNotFound = errors.New("account not found")

// AccountRepository defines the standard operations for account persistence.
// The application layer will depend on this interface, not the concrete implementation.
// The repository performs no business validation; uniqueness of the email column is
// enforced by the storage backend's constraint, not by a check-then-act in here.
type AccountRepository interface {
	// Create persists a new account entity to the storage.
	// A violation of the email uniqueness constraint surfaces as a domain conflict error.
	Create(ctx context.Context, account *entity.Account) error

	// FindByID retrieves a single account by its unique ID.
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Account, error)

	// FindByEmail retrieves a single account by its email address (case-sensitive, as stored).
	FindByEmail(ctx context.Context, email string) (*entity.Account, error)

	// UpdatePasswordHash replaces the stored password record of an existing account.
	// Returns ErrAccountNotFound when no row matches.
	UpdatePasswordHash(ctx context.Context, id uuid.UUID, passwordHash string) error
}
