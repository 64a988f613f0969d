// Package lifecycle holds shared constants for application start and stop handling.
package lifecycle

import "time"

// DefaultTimeout bounds graceful startup and shutdown operations such as
// HTTP server drain and database connection close.
const DefaultTimeout = 10 * time.Second
