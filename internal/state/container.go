// Package state holds the single in-memory aggregate of a user's tracked
// domains and the pure mutations that transform it.
//
// Every write goes through Container.Apply as a Mutation over the previous
// snapshot. Mutations read nothing but that snapshot and their own
// arguments; "today" is always an argument so the same mutation yields the
// same result regardless of when it runs.
package state

import (
	"sync"

	"github.com/oklog/ulid/v2"

	"github.com/hyperengineering/hasad/internal/types"
)

// Mutation is a pure transform of the aggregate. A mutation that cannot
// apply (malformed input, unknown id) returns its argument unchanged.
type Mutation func(types.State) types.State

// Compose applies mutations left to right as a single mutation.
func Compose(ms ...Mutation) Mutation {
	return func(s types.State) types.State {
		for _, m := range ms {
			if m != nil {
				s = m(s)
			}
		}
		return s
	}
}

// Container is the single source of truth for the aggregate.
type Container struct {
	applyMu sync.Mutex // serializes Apply so mutations run one at a time

	mu          sync.RWMutex
	current     types.State
	subscribers []func(types.State)
}

// NewContainer returns a container holding initial.
func NewContainer(initial types.State) *Container {
	return &Container{current: initial}
}

// State returns the current snapshot. Collections are immutable values, so
// the snapshot can be shared freely.
func (c *Container) State() types.State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.current
}

// Apply runs m against the current snapshot, swaps in the result and
// notifies subscribers.
func (c *Container) Apply(m Mutation) types.State {
	c.applyMu.Lock()
	defer c.applyMu.Unlock()

	c.mu.Lock()
	next := c.current
	if m != nil {
		next = m(c.current)
	}
	c.current = next
	subs := c.subscribers
	c.mu.Unlock()

	for _, fn := range subs {
		fn(next)
	}
	return next
}

// Replace installs s without notifying subscribers. It is used to populate
// the container from storage.
func (c *Container) Replace(s types.State) {
	c.applyMu.Lock()
	defer c.applyMu.Unlock()

	c.mu.Lock()
	c.current = s
	c.mu.Unlock()
}

// Subscribe registers fn to run after every Apply.
func (c *Container) Subscribe(fn func(types.State)) {
	if fn == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	subs := make([]func(types.State), len(c.subscribers), len(c.subscribers)+1)
	copy(subs, c.subscribers)
	c.subscribers = append(subs, fn)
}

// NewID returns a sortable unique identifier for a new entity.
func NewID() string {
	return ulid.Make().String()
}
