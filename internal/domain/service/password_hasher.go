// Package service defines interfaces for core, stateless domain logic.
// These services encapsulate business rules that don't naturally fit within a single entity.
package service

// PasswordHasher defines the interface for password hashing and verification.
// This abstracts the underlying hashing scheme and record encoding, keeping the domain pure.
type PasswordHasher interface {
	// Hash generates a salted hash record from a plaintext password.
	// Hashing the same password twice yields different records; both verify.
	Hash(password string) (string, error)

	// Check compares a plaintext password with a stored record to see if they match.
	// A malformed record is treated as a mismatch.
	Check(password, record string) bool
}
