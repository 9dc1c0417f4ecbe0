package sync

import (
	"context"
	"time"

	"github.com/hyperengineering/hasad/internal/types"
)

// Remote is the persistence backend. Replace must reconcile every domain
// wholesale: entries absent from s are deleted, present ones upserted.
type Remote interface {
	Fetch(ctx context.Context) (*types.State, error)
	Replace(ctx context.Context, s types.State) error
}

// Source supplies the snapshot to persist.
type Source interface {
	State() types.State
}

// Status is the synchronizer's position in its write cycle.
type Status int

const (
	Idle Status = iota
	PendingWrite
	Writing
)

func (s Status) String() string {
	switch s {
	case Idle:
		return "idle"
	case PendingWrite:
		return "pending_write"
	case Writing:
		return "writing"
	default:
		return "unknown"
	}
}

// Stats counts synchronizer activity since construction.
type Stats struct {
	Scheduled   int64     `json:"scheduled"`
	Writes      int64     `json:"writes"`
	Failures    int64     `json:"failures"`
	LastWriteAt time.Time `json:"last_write_at,omitempty"`
	LastError   string    `json:"last_error,omitempty"`
	LoadFailed  bool      `json:"load_failed"`
}

// Timer is a scheduled callback that can be cancelled.
type Timer interface {
	Stop() bool
}

// Clock abstracts time so tests can drive the debounce window manually.
type Clock interface {
	Now() time.Time
	AfterFunc(d time.Duration, f func()) Timer
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

func (realClock) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}
