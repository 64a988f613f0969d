package service

// TokenGenerator defines the interface for minting reset token secrets.
// This abstracts the entropy source and encoding from the use cases.
type TokenGenerator interface {
	// Generate returns a fresh, URL-safe secret with at least 256 bits of entropy.
	// Uniqueness is not guaranteed here; the store's constraint is the backstop.
	Generate() (string, error)
}
