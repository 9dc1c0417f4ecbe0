package snapshot

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/hyperengineering/hasad/internal/types"
)

// ExportVersion is the current export document format.
const ExportVersion = 1

// ErrUnsupportedVersion is returned when decoding an export from a newer format.
var ErrUnsupportedVersion = errors.New("unsupported export version")

// Export is a portable copy of one user's aggregate.
type Export struct {
	Version    int         `json:"version"`
	UserID     string      `json:"userId"`
	ExportedAt time.Time   `json:"exportedAt"`
	State      types.State `json:"state"`
}

// NewExport wraps s for userID at the given time.
func NewExport(userID string, s types.State, at time.Time) Export {
	return Export{
		Version:    ExportVersion,
		UserID:     userID,
		ExportedAt: at.UTC(),
		State:      s,
	}
}

// Encode writes e as indented JSON.
func (e Export) Encode(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(e)
}

// DecodeExport reads an export document.
func DecodeExport(r io.Reader) (Export, error) {
	var e Export
	if err := json.NewDecoder(r).Decode(&e); err != nil {
		return Export{}, fmt.Errorf("decode export: %w", err)
	}
	if e.Version < 1 || e.Version > ExportVersion {
		return Export{}, fmt.Errorf("%w: %d", ErrUnsupportedVersion, e.Version)
	}
	return e, nil
}

// ExportPath returns the local path of a user's latest export under dir.
func ExportPath(dir, userID string) string {
	return filepath.Join(dir, userID, "state.json")
}

// WriteFile writes e to path through a temp file and rename, so readers
// never see a partial export.
func WriteFile(path string, e Export) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create export directory: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".state-*.json")
	if err != nil {
		return fmt.Errorf("create temp export: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := e.Encode(tmp); err != nil {
		tmp.Close()
		return fmt.Errorf("encode export: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp export: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("rename export: %w", err)
	}
	return nil
}

// ReadFile reads the export document at path.
func ReadFile(path string) (Export, error) {
	f, err := os.Open(path)
	if err != nil {
		return Export{}, fmt.Errorf("open export: %w", err)
	}
	defer f.Close()
	return DecodeExport(f)
}
