// Package usecase contains the application-specific business rules.
// It orchestrates the domain layer to perform tasks.
package usecase

import (
	"context"

	"credvault/internal/domain/entity"
)

// --- Input DTOs ---

// RegisterInput defines the data required to register a new account.
type RegisterInput struct {
	Email    string
	Password string
}

// LoginInput defines the data required to verify a credential.
type LoginInput struct {
	Email    string
	Password string
}

// --- Output DTOs ---

// AccountOutput returns the account's basic information.
type AccountOutput struct {
	Account *entity.Account
}

// AccountUsecase defines the interface for account-related business operations.
// This is the contract that the delivery layer (e.g., HTTP handlers) will depend on.
type AccountUsecase interface {
	// Register creates a new account with a policy-checked, salted-hashed password.
	Register(ctx context.Context, input *RegisterInput) (*AccountOutput, error)

	// Login verifies an email and password pair against the stored record.
	// It issues no session state; it only reports whether the credential matches.
	Login(ctx context.Context, input *LoginInput) (*AccountOutput, error)
}
