// Package hasad is the client library for a Hasad server. A Client holds
// the user's aggregate in memory, applies mutations to it locally and
// persists the result with debounced full-state writes.
package hasad

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/hyperengineering/hasad/internal/state"
	hasadsync "github.com/hyperengineering/hasad/internal/sync"
	"github.com/hyperengineering/hasad/internal/types"
)

// Client is the Hasad client for one user's aggregate.
type Client struct {
	config    Config
	remote    *HTTPRemote
	container *state.Container
	syncer    *hasadsync.Synchronizer

	mu     sync.RWMutex
	closed bool
}

// New creates a new client. Call Initialize before applying mutations.
func New(config Config, opts ...hasadsync.Option) (*Client, error) {
	if config.BaseURL == "" {
		return nil, errors.New("BaseURL is required")
	}
	if config.UserID == "" {
		return nil, errors.New("UserID is required")
	}

	remote := NewHTTPRemote(config.BaseURL, config.APIKey, config.UserID, config.RequestTimeout)
	container := state.NewContainer(types.State{})

	opts = append([]hasadsync.Option{
		hasadsync.WithDebounce(config.DebounceWindow),
		hasadsync.WithWriteTimeout(config.RequestTimeout),
		hasadsync.WithLogger(slog.Default().With("user_id", config.UserID)),
	}, opts...)
	syncer := hasadsync.New(remote, container, opts...)
	syncer.Attach(container)

	return &Client{
		config:    config,
		remote:    remote,
		container: container,
		syncer:    syncer,
	}, nil
}

// Initialize loads the stored aggregate. A failed fetch leaves the client
// with the default aggregate rather than returning an error.
func (c *Client) Initialize(ctx context.Context) error {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.closed {
		return ErrClosed
	}
	c.container.Replace(c.syncer.Load(ctx))
	return nil
}

// State returns the current snapshot.
func (c *Client) State() types.State {
	return c.container.State()
}

// Apply runs m against the aggregate and schedules a write.
func (c *Client) Apply(m state.Mutation) (types.State, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.closed {
		return types.State{}, ErrClosed
	}
	return c.container.Apply(m), nil
}

// Saving reports whether a write is in flight.
func (c *Client) Saving() bool {
	return c.syncer.Saving()
}

// Status reports the synchronizer state.
func (c *Client) Status() hasadsync.Status {
	return c.syncer.Status()
}

// Stats returns the synchronizer's activity counters.
func (c *Client) Stats() hasadsync.Stats {
	return c.syncer.Stats()
}

// Ping checks connectivity to the server.
func (c *Client) Ping(ctx context.Context) (*Health, error) {
	return c.remote.Ping(ctx)
}

// Shutdown writes any pending changes and stops further writes.
func (c *Client) Shutdown(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil
	}
	c.closed = true

	err := c.syncer.Flush(ctx)
	c.syncer.Close()
	return err
}
