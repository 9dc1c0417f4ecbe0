// Package worker runs background jobs for the hasad server.
package worker

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/hyperengineering/hasad/internal/dates"
	"github.com/hyperengineering/hasad/internal/snapshot"
	"github.com/hyperengineering/hasad/internal/store"
	"github.com/hyperengineering/hasad/internal/types"
)

// ExportStore defines the store operations needed by the export coordinator.
type ExportStore interface {
	ListUsers(ctx context.Context) ([]store.UserInfo, error)
	GetState(ctx context.Context, userID string, today dates.Key) (*types.State, error)
}

// ExportCoordinator periodically writes every user's aggregate to a local
// export file and uploads it when S3 is configured.
type ExportCoordinator struct {
	store       ExportStore
	uploader    snapshot.Uploader
	dir         string
	interval    time.Duration
	concurrency int
	now         func() time.Time
	lastRun     map[string]time.Time
}

// NewExportCoordinator creates a coordinator writing exports under dir.
// The uploader parameter is optional; if nil, no S3 upload is attempted.
func NewExportCoordinator(
	s ExportStore,
	dir string,
	interval time.Duration,
	concurrency int,
	uploader snapshot.Uploader,
) *ExportCoordinator {
	if concurrency < 1 {
		concurrency = 1
	}
	return &ExportCoordinator{
		store:       s,
		uploader:    uploader,
		dir:         dir,
		interval:    interval,
		concurrency: concurrency,
		now:         time.Now,
		lastRun:     make(map[string]time.Time),
	}
}

// Run starts the coordinator loop. Exports immediately on start, then on
// each interval, until ctx is cancelled.
func (c *ExportCoordinator) Run(ctx context.Context) {
	slog.Info("worker started",
		"component", "worker",
		"worker", "export-coordinator",
		"action", "worker_started",
		"interval", c.interval.String(),
	)

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	c.ExportAll(ctx)

	for {
		select {
		case <-ctx.Done():
			slog.Info("worker stopped",
				"component", "worker",
				"worker", "export-coordinator",
				"action", "worker_stopped",
				"reason", "context_cancelled",
			)
			return
		case <-ticker.C:
			c.ExportAll(ctx)
		}
	}
}

// ExportAll exports every user whose state changed since their last
// successful export. It returns the number of users exported and failed.
// ExportAll must not be called concurrently with itself.
func (c *ExportCoordinator) ExportAll(ctx context.Context) (succeeded, failed int) {
	users, err := c.store.ListUsers(ctx)
	if err != nil {
		slog.Error("failed to list users for export",
			"component", "worker",
			"worker", "export-coordinator",
			"action", "list_users_failed",
			"error", err,
		)
		return 0, 0
	}

	exported := make([]bool, len(users))
	var ok, bad atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.concurrency)

	for i, u := range users {
		if ctx.Err() != nil {
			break
		}
		if last, seen := c.lastRun[u.ID]; seen && !u.UpdatedAt.After(last) {
			continue
		}
		g.Go(func() error {
			if c.exportUser(gctx, u.ID) {
				exported[i] = true
				ok.Add(1)
			} else {
				bad.Add(1)
			}
			// Failures are per user; never cancel the siblings.
			return nil
		})
	}
	_ = g.Wait()

	// lastRun is only touched after the group finishes.
	for i, u := range users {
		if exported[i] {
			c.lastRun[u.ID] = u.UpdatedAt
		}
	}

	if ctx.Err() != nil {
		return int(ok.Load()), int(bad.Load())
	}

	succeeded, failed = int(ok.Load()), int(bad.Load())
	if succeeded > 0 || failed > 0 {
		slog.Info("export cycle completed",
			"component", "worker",
			"worker", "export-coordinator",
			"action", "cycle_complete",
			"total", len(users),
			"succeeded", succeeded,
			"failed", failed,
		)
	}
	return succeeded, failed
}

// exportUser writes one user's export. Returns true if successful.
func (c *ExportCoordinator) exportUser(ctx context.Context, userID string) bool {
	now := c.now()
	s, err := c.store.GetState(ctx, userID, dates.KeyOf(now))
	if err != nil {
		if ctx.Err() != nil {
			return false
		}
		slog.Warn("failed to load state for export",
			"component", "worker",
			"worker", "export-coordinator",
			"action", "export_failed",
			"user_id", userID,
			"error", err,
		)
		return false
	}

	path := snapshot.ExportPath(c.dir, userID)
	if err := snapshot.WriteFile(path, snapshot.NewExport(userID, *s, now)); err != nil {
		slog.Warn("failed to write export",
			"component", "worker",
			"worker", "export-coordinator",
			"action", "export_failed",
			"user_id", userID,
			"error", err,
		)
		return false
	}

	// Upload to S3 if configured (non-fatal on failure)
	if c.uploader != nil {
		c.uploadExport(ctx, userID, path)
	}
	return true
}

// uploadExport uploads the written export. Upload failures are logged as
// warnings; the local export remains valid.
func (c *ExportCoordinator) uploadExport(ctx context.Context, userID, path string) {
	if err := c.uploader.Upload(ctx, userID, path); err != nil {
		slog.Warn("export upload to S3 failed",
			"component", "worker",
			"worker", "export-coordinator",
			"action", "export_upload_failed",
			"user_id", userID,
			"error", err,
		)
		return
	}

	slog.Info("export uploaded to S3",
		"component", "worker",
		"worker", "export-coordinator",
		"action", "export_uploaded",
		"user_id", userID,
	)
}
