// Package auth provides concrete implementations for credential-related domain services.
package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"strings"

	"credvault/internal/domain/service"
	"credvault/internal/errors"
)

// ErrMalformedHashRecord is returned when a stored record does not decode as
// "hex(salt):hex(digest)". Check treats it as a mismatch; callers that need to
// tell corruption apart from a wrong password use DecodeRecord directly.
var ErrMalformedHashRecord = errors.New("malformed password hash record")

const saltLength = 16

// saltedHasher is a concrete implementation of the PasswordHasher interface.
// It stores a per-password random salt next to a SHA-256 digest of the salted
// password, encoded as "hex(salt):hex(digest)".
type saltedHasher struct{}

// NewSaltedHasher is the constructor for saltedHasher.
// It returns the implementation as a service.PasswordHasher interface.
func NewSaltedHasher() service.PasswordHasher {
	return &saltedHasher{}
}

// Hash generates a fresh random salt and returns the encoded record.
func (h *saltedHasher) Hash(password string) (string, error) {
	salt := make([]byte, saltLength)
	if _, err := rand.Read(salt); err != nil {
		return "", errors.Wrap(err, "generate salt")
	}

	digest := digestWithSalt(password, salt)

	return hex.EncodeToString(salt) + ":" + hex.EncodeToString(digest), nil
}

// Check recomputes the digest with the record's salt and compares in constant time.
func (h *saltedHasher) Check(password, record string) bool {
	salt, digest, err := DecodeRecord(record)
	if err != nil {
		return false
	}

	computed := digestWithSalt(password, salt)

	return subtle.ConstantTimeCompare(computed, digest) == 1
}

// DecodeRecord splits a stored record into its salt and digest parts.
// Returns ErrMalformedHashRecord when either part is missing or not valid hex.
func DecodeRecord(record string) (salt, digest []byte, err error) {
	saltPart, digestPart, found := strings.Cut(record, ":")
	if !found || saltPart == "" || digestPart == "" {
		return nil, nil, ErrMalformedHashRecord
	}

	salt, err = hex.DecodeString(saltPart)
	if err != nil {
		return nil, nil, ErrMalformedHashRecord
	}

	digest, err = hex.DecodeString(digestPart)
	if err != nil {
		return nil, nil, ErrMalformedHashRecord
	}

	if len(digest) != sha256.Size {
		return nil, nil, ErrMalformedHashRecord
	}

	return salt, digest, nil
}

func digestWithSalt(password string, salt []byte) []byte {
	hash := sha256.New()
	hash.Write([]byte(password))
	hash.Write(salt)

	return hash.Sum(nil)
}
