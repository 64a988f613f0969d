package auth

import (
	"fmt"
	"unicode"
	"unicode/utf8"

	"credvault/internal/domain/service"
)

// PolicyConfig holds the tunable knobs of the password policy.
type PolicyConfig struct {
	MinLength int `json:"minLength" yaml:"minLength"`
}

// passwordPolicy is a concrete implementation of the PasswordPolicy interface.
// Every rule is evaluated on each call so the caller sees all violations at once.
type passwordPolicy struct {
	minLength int
}

// NewPasswordPolicy is the constructor for passwordPolicy.
// A zero or negative MinLength falls back to the default of 8.
func NewPasswordPolicy(cfg PolicyConfig) service.PasswordPolicy {
	minLength := cfg.MinLength
	if minLength <= 0 {
		minLength = 8
	}

	return &passwordPolicy{minLength: minLength}
}

// Validate checks the password against every rule and collects the violations in rule order.
func (p *passwordPolicy) Validate(password string) []string {
	var violations []string

	// Length counts characters, not bytes, so multibyte runes weigh one each.
	if utf8.RuneCountInString(password) < p.minLength {
		violations = append(violations, fmt.Sprintf("Password must be at least %d characters long", p.minLength))
	}
	if !containsFunc(password, unicode.IsUpper) {
		violations = append(violations, "Password must contain at least one uppercase letter")
	}
	if !containsFunc(password, unicode.IsLower) {
		violations = append(violations, "Password must contain at least one lowercase letter")
	}
	if !containsFunc(password, unicode.IsDigit) {
		violations = append(violations, "Password must contain at least one number")
	}
	if !containsFunc(password, isSpecialChar) {
		violations = append(violations, "Password must contain at least one special character")
	}

	return violations
}

func containsFunc(s string, fn func(rune) bool) bool {
	for _, r := range s {
		if fn(r) {
			return true
		}
	}

	return false
}

func isSpecialChar(r rune) bool {
	return !unicode.IsLetter(r) && !unicode.IsDigit(r)
}
