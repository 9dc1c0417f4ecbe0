package store

import (
	"context"
	"time"

	"github.com/hyperengineering/hasad/internal/dates"
	"github.com/hyperengineering/hasad/internal/types"
)

// Store defines the persistence contract for per-user aggregates.
type Store interface {
	// GetState returns the stored aggregate for userID. Missing program
	// settings are synthesized as of today. Returns ErrNotFound when the
	// user has never written.
	GetState(ctx context.Context, userID string, today dates.Key) (*types.State, error)

	// ReplaceState reconciles every domain wholesale in one transaction:
	// present entries are upserted, stored entries absent from s deleted.
	ReplaceState(ctx context.Context, userID string, s types.State) (*ReplaceResult, error)

	ListUsers(ctx context.Context) ([]UserInfo, error)
	DeleteUser(ctx context.Context, userID string) error
	GetStats(ctx context.Context) (*Stats, error)
	Close() error
}

// ReplaceResult reports what a reconciliation changed.
type ReplaceResult struct {
	Upserted int64 `json:"upserted"`
	Deleted  int64 `json:"deleted"`
}

// UserInfo describes one stored user.
type UserInfo struct {
	ID        string    `json:"id"`
	Entries   int64     `json:"entries"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Stats holds aggregate store statistics.
type Stats struct {
	Users   int64            `json:"users"`
	Entries int64            `json:"entries"`
	Domains map[string]int64 `json:"domains"`
}
