package hasad

import (
	"errors"
	"time"
)

// ErrClosed is returned by operations on a client after Shutdown.
var ErrClosed = errors.New("hasad: client is closed")

// Config holds the client configuration.
type Config struct {
	BaseURL        string        // Hasad server URL, e.g. http://localhost:8080
	APIKey         string        // API key for bearer authentication
	UserID         string        // User whose aggregate is tracked
	DebounceWindow time.Duration // Quiet period before a write (default: 1.5s)
	RequestTimeout time.Duration // Per-request timeout (default: 30s)
}

// Health is the server health response.
type Health struct {
	Status  string `json:"status"`
	Version string `json:"version"`
	Users   int    `json:"users"`
}
