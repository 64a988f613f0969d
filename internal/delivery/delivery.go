// Package delivery defines the contract shared by everything that serves
// traffic or runs a background loop for the application.
package delivery

import "context"

// Delivery is implemented by each server or worker the application runs.
// Serve blocks until the delivery stops or the context is cancelled.
type Delivery interface {
	Serve(ctx context.Context) error
}
