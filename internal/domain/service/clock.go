package service

import "time"

// Clock defines the interface for reading the current time.
// Expiry decisions go through this so tests can pin the clock.
type Clock interface {
	Now() time.Time
}
