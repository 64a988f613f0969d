package service

// PasswordPolicy defines the interface for password strength evaluation.
type PasswordPolicy interface {
	// Validate checks a candidate password against every rule of the policy and
	// returns one human-readable message per violated rule, in rule order.
	// An empty slice means the password is acceptable. Rules never short-circuit,
	// so the caller always sees the complete set of problems at once.
	Validate(password string) []string
}
