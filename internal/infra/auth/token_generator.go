package auth

import (
	"crypto/rand"
	"encoding/base64"

	"credvault/internal/domain/service"
	"credvault/internal/errors"
)

const tokenByteLength = 32

// randomTokenGenerator mints URL-safe reset token secrets from crypto/rand.
type randomTokenGenerator struct{}

// NewRandomTokenGenerator is the constructor for randomTokenGenerator.
func NewRandomTokenGenerator() service.TokenGenerator {
	return &randomTokenGenerator{}
}

// Generate returns 32 random bytes encoded with the unpadded URL-safe alphabet.
func (g *randomTokenGenerator) Generate() (string, error) {
	raw := make([]byte, tokenByteLength)
	if _, err := rand.Read(raw); err != nil {
		return "", errors.Wrap(err, "generate token bytes")
	}

	return base64.RawURLEncoding.EncodeToString(raw), nil
}
