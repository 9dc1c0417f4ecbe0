// Package coach produces personal coaching advice from a user's tracked
// state with a chat completion model.
package coach

import (
	"context"
	"errors"

	"github.com/hyperengineering/hasad/internal/state"
	"github.com/hyperengineering/hasad/internal/types"
)

// ErrNotConfigured is returned when no model credentials are configured.
var ErrNotConfigured = errors.New("coach not configured")

// DefaultPrompt is used when the user asks nothing specific.
const DefaultPrompt = "Analyze my current progress and give me a short smart summary and one piece of advice to improve."

// Request is the context sent to the model.
type Request struct {
	State   types.State
	Summary state.Summary
	Prompt  string
}

// Coach defines the interface contract for advice generation.
type Coach interface {
	Advise(ctx context.Context, req Request) (string, error)
	ModelName() string
}

// Noop is the coach used when no API key is configured.
type Noop struct{}

var _ Coach = Noop{}

func (Noop) Advise(context.Context, Request) (string, error) {
	return "", ErrNotConfigured
}

func (Noop) ModelName() string { return "" }
