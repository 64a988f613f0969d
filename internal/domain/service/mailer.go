package service

import "context"

// Mailer defines the interface for delivering password reset notifications.
// Delivery failures are reported to the caller, which decides whether they are fatal.
type Mailer interface {
	// SendResetLink delivers the reset link to the given address.
	// The implementation honors the context's deadline for dialing and IO.
	SendResetLink(ctx context.Context, toEmail, resetLink string) error
}
