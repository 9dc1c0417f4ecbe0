// Package sync persists the aggregate to a remote store with debounced
// full-state writes.
//
// The synchronizer moves between three states. Idle has nothing to write.
// PendingWrite has a debounce timer running; every new mutation restarts it.
// Writing has a Replace call in flight. A mutation arriving while Writing
// schedules the next cycle rather than amending the current request, and a
// failed write is logged and left for that next cycle to cover.
package sync

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/hyperengineering/hasad/internal/dates"
	"github.com/hyperengineering/hasad/internal/types"
)

const (
	// DefaultDebounce is the quiet period before a scheduled write fires.
	DefaultDebounce = 1500 * time.Millisecond
	// DefaultWriteTimeout bounds a single Replace call.
	DefaultWriteTimeout = 30 * time.Second
)

// Option configures a Synchronizer.
type Option func(*Synchronizer)

// WithDebounce sets the debounce window. Non-positive values are ignored.
func WithDebounce(d time.Duration) Option {
	return func(s *Synchronizer) {
		if d > 0 {
			s.debounce = d
		}
	}
}

// WithWriteTimeout bounds each Replace call. Non-positive values are ignored.
func WithWriteTimeout(d time.Duration) Option {
	return func(s *Synchronizer) {
		if d > 0 {
			s.writeTimeout = d
		}
	}
}

// WithClock replaces the wall clock, mainly for tests.
func WithClock(c Clock) Option {
	return func(s *Synchronizer) {
		if c != nil {
			s.clock = c
		}
	}
}

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(s *Synchronizer) {
		if l != nil {
			s.logger = l
		}
	}
}

// Synchronizer debounces writes of a Source's snapshot to a Remote.
type Synchronizer struct {
	remote       Remote
	source       Source
	clock        Clock
	logger       *slog.Logger
	debounce     time.Duration
	writeTimeout time.Duration

	mu      sync.Mutex
	timer   Timer
	gen     uint64 // bumped on every Schedule; a timer only fires its own generation
	pending bool
	writing int
	closed  bool
	stats   Stats

	writeMu sync.Mutex // one Replace in flight at a time
}

// New creates a synchronizer writing source's snapshots to remote.
func New(remote Remote, source Source, opts ...Option) *Synchronizer {
	s := &Synchronizer{
		remote:       remote,
		source:       source,
		clock:        realClock{},
		logger:       slog.Default(),
		debounce:     DefaultDebounce,
		writeTimeout: DefaultWriteTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With("component", "sync")
	return s
}

// Load performs the startup fetch. It never fails: on error the default
// aggregate for today is returned and the error is logged.
func (s *Synchronizer) Load(ctx context.Context) types.State {
	today := dates.KeyOf(s.clock.Now())

	st, err := s.remote.Fetch(ctx)
	if err == nil && st == nil {
		err = fmt.Errorf("remote returned no state")
	}
	if err != nil {
		s.logger.Warn("startup fetch failed, using defaults", "error", err)
		s.mu.Lock()
		s.stats.LoadFailed = true
		s.mu.Unlock()
		return types.NewState(today)
	}
	return st.FillDefaults(today)
}

// Attach subscribes the synchronizer to every mutation applied to c.
func (s *Synchronizer) Attach(c interface {
	Subscribe(fn func(types.State))
}) {
	c.Subscribe(func(types.State) { s.Schedule() })
}

// Schedule restarts the debounce timer. Calls within one window coalesce
// into a single write of the snapshot current when the timer fires.
func (s *Synchronizer) Schedule() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}
	if s.timer != nil {
		s.timer.Stop()
	}
	s.gen++
	gen := s.gen
	s.pending = true
	s.stats.Scheduled++
	s.timer = s.clock.AfterFunc(s.debounce, func() { s.fire(gen) })
}

func (s *Synchronizer) fire(gen uint64) {
	s.mu.Lock()
	if gen != s.gen || !s.pending {
		s.mu.Unlock()
		return
	}
	s.pending = false
	s.timer = nil
	s.writing++
	s.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), s.writeTimeout)
	defer cancel()
	if err := s.write(ctx); err != nil {
		s.logger.Warn("state write failed", "error", err)
	}
}

// write sends the current snapshot. The caller must have incremented
// s.writing.
func (s *Synchronizer) write(ctx context.Context) error {
	defer func() {
		s.mu.Lock()
		s.writing--
		s.mu.Unlock()
	}()

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	snapshot := s.source.State()
	err := s.remote.Replace(ctx, snapshot)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.stats.Failures++
		s.stats.LastError = err.Error()
		return fmt.Errorf("replace state: %w", err)
	}
	s.stats.Writes++
	s.stats.LastWriteAt = s.clock.Now()
	s.stats.LastError = ""
	return nil
}

// Flush cancels a pending timer and writes immediately if a write was
// pending. With nothing pending it waits for any in-flight write.
func (s *Synchronizer) Flush(ctx context.Context) error {
	s.mu.Lock()
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	pending := s.pending
	s.pending = false
	s.gen++
	if pending {
		s.writing++
	}
	s.mu.Unlock()

	if !pending {
		s.writeMu.Lock()
		defer s.writeMu.Unlock()
		return nil
	}

	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.writeTimeout)
		defer cancel()
	}
	return s.write(ctx)
}

// Close stops the pending timer and ignores later Schedule calls. It does
// not write; call Flush first to persist pending changes.
func (s *Synchronizer) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.pending = false
	s.gen++
}

// Status reports the current state of the write cycle.
func (s *Synchronizer) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch {
	case s.writing > 0:
		return Writing
	case s.pending:
		return PendingWrite
	default:
		return Idle
	}
}

// Saving reports whether a write is in flight.
func (s *Synchronizer) Saving() bool {
	return s.Status() == Writing
}

// Stats returns a copy of the activity counters.
func (s *Synchronizer) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stats
}
