package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/hyperengineering/hasad/internal/dates"
	"github.com/hyperengineering/hasad/internal/types"
)

// SQLiteStore persists aggregates in a SQLite database.
type SQLiteStore struct {
	db  *sql.DB
	now func() time.Time
}

var _ Store = (*SQLiteStore)(nil)

// NewSQLiteStore creates a new SQLiteStore instance.
// It initializes the database with WAL mode, applies pragmas, and runs migrations.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	// Ensure parent directory exists
	if dir := filepath.Dir(dbPath); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if dbPath == ":memory:" {
		// Every connection to :memory: is a separate database.
		db.SetMaxOpenConns(1)
	}

	if err := enablePragmas(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable pragmas: %w", err)
	}

	if err := RunMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteStore{db: db, now: time.Now}, nil
}

// enablePragmas sets SQLite pragmas for optimal performance and safety.
func enablePragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA foreign_keys=ON",
		"PRAGMA synchronous=NORMAL",
	}

	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("execute %s: %w", pragma, err)
		}
	}

	return nil
}

// Close closes the database connection
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// GetState loads the aggregate for userID.
func (s *SQLiteStore) GetState(ctx context.Context, userID string, today dates.Key) (*types.State, error) {
	if err := ValidateUserID(userID); err != nil {
		return nil, err
	}

	var exists int
	err := s.db.QueryRowContext(ctx, `SELECT 1 FROM users WHERE id = ?`, userID).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query user: %w", err)
	}

	var st types.State

	settings, err := s.loadSettings(ctx, userID)
	if err != nil {
		return nil, err
	}
	for _, p := range programs {
		data, ok := settings[p.name]
		if !ok {
			continue
		}
		if err := p.decode(&st, data); err != nil {
			return nil, fmt.Errorf("decode %s settings: %w", p.name, err)
		}
	}

	rows, err := s.loadEntries(ctx, userID)
	if err != nil {
		return nil, err
	}
	for _, d := range domains {
		if err := d.decode(&st, rows[d.name]); err != nil {
			return nil, fmt.Errorf("decode %s: %w", d.name, err)
		}
	}

	st = st.FillDefaults(today)
	return &st, nil
}

func (s *SQLiteStore) loadSettings(ctx context.Context, userID string) (map[string][]byte, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT program, data FROM program_settings WHERE user_id = ?`, userID)
	if err != nil {
		return nil, fmt.Errorf("query program settings: %w", err)
	}
	defer rows.Close()

	settings := make(map[string][]byte)
	for rows.Next() {
		var program, data string
		if err := rows.Scan(&program, &data); err != nil {
			return nil, fmt.Errorf("scan program settings: %w", err)
		}
		settings[program] = []byte(data)
	}
	return settings, rows.Err()
}

func (s *SQLiteStore) loadEntries(ctx context.Context, userID string) (map[string][]row, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT domain, entry_key, data
		FROM entries
		WHERE user_id = ?
		ORDER BY domain, position
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("query entries: %w", err)
	}
	defer rows.Close()

	byDomain := make(map[string][]row)
	for rows.Next() {
		var domain, data string
		var r row
		if err := rows.Scan(&domain, &r.key, &data); err != nil {
			return nil, fmt.Errorf("scan entry: %w", err)
		}
		r.data = []byte(data)
		byDomain[domain] = append(byDomain[domain], r)
	}
	return byDomain, rows.Err()
}

const upsertEntrySQL = `
	INSERT INTO entries (user_id, domain, entry_key, position, data, updated_at)
	VALUES (?, ?, ?, ?, ?, ?)
	ON CONFLICT (user_id, domain, entry_key) DO UPDATE SET
		position = excluded.position,
		data = excluded.data,
		updated_at = excluded.updated_at
	WHERE entries.position != excluded.position OR entries.data != excluded.data`

const upsertSettingsSQL = `
	INSERT INTO program_settings (user_id, program, data, updated_at)
	VALUES (?, ?, ?, ?)
	ON CONFLICT (user_id, program) DO UPDATE SET
		data = excluded.data,
		updated_at = excluded.updated_at
	WHERE program_settings.data != excluded.data`

// ReplaceState reconciles the stored aggregate with st in one transaction.
func (s *SQLiteStore) ReplaceState(ctx context.Context, userID string, st types.State) (*ReplaceResult, error) {
	if err := ValidateUserID(userID); err != nil {
		return nil, err
	}

	now := s.now().UTC().Format(time.RFC3339Nano)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO users (id, created_at, updated_at) VALUES (?, ?, ?)
		ON CONFLICT (id) DO NOTHING
	`, userID, now, now)
	if err != nil {
		return nil, fmt.Errorf("insert user: %w", err)
	}

	result := &ReplaceResult{}

	for _, p := range programs {
		data, err := p.encode(st)
		if err != nil {
			return nil, fmt.Errorf("encode %s settings: %w", p.name, err)
		}
		res, err := tx.ExecContext(ctx, upsertSettingsSQL, userID, p.name, string(data), now)
		if err != nil {
			return nil, fmt.Errorf("upsert %s settings: %w", p.name, err)
		}
		n, _ := res.RowsAffected()
		result.Upserted += n
	}

	for _, d := range domains {
		rows, err := d.encode(&st)
		if err != nil {
			return nil, fmt.Errorf("encode %s: %w", d.name, err)
		}
		upserted, deleted, err := reconcileDomain(ctx, tx, userID, d.name, rows, now)
		if err != nil {
			return nil, fmt.Errorf("reconcile %s: %w", d.name, err)
		}
		result.Upserted += upserted
		result.Deleted += deleted
	}

	if result.Upserted+result.Deleted > 0 {
		if _, err := tx.ExecContext(ctx, `UPDATE users SET updated_at = ? WHERE id = ?`, now, userID); err != nil {
			return nil, fmt.Errorf("touch user: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit transaction: %w", err)
	}

	slog.Debug("state replaced",
		"component", "store",
		"user_id", userID,
		"upserted", result.Upserted,
		"deleted", result.Deleted,
	)
	return result, nil
}

// reconcileDomain upserts rows and deletes every stored key of the domain
// that rows does not contain.
func reconcileDomain(ctx context.Context, tx *sql.Tx, userID, domain string, rows []row, now string) (int64, int64, error) {
	stored, err := storedKeys(ctx, tx, userID, domain)
	if err != nil {
		return 0, 0, err
	}

	var upserted, deleted int64
	for i, r := range rows {
		res, err := tx.ExecContext(ctx, upsertEntrySQL, userID, domain, r.key, i, string(r.data), now)
		if err != nil {
			return 0, 0, fmt.Errorf("upsert %q: %w", r.key, err)
		}
		n, _ := res.RowsAffected()
		upserted += n
		delete(stored, r.key)
	}

	for key := range stored {
		res, err := tx.ExecContext(ctx,
			`DELETE FROM entries WHERE user_id = ? AND domain = ? AND entry_key = ?`,
			userID, domain, key)
		if err != nil {
			return 0, 0, fmt.Errorf("delete %q: %w", key, err)
		}
		n, _ := res.RowsAffected()
		deleted += n
	}
	return upserted, deleted, nil
}

func storedKeys(ctx context.Context, tx *sql.Tx, userID, domain string) (map[string]struct{}, error) {
	rows, err := tx.QueryContext(ctx,
		`SELECT entry_key FROM entries WHERE user_id = ? AND domain = ?`, userID, domain)
	if err != nil {
		return nil, fmt.Errorf("query stored keys: %w", err)
	}
	defer rows.Close()

	keys := make(map[string]struct{})
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, fmt.Errorf("scan stored key: %w", err)
		}
		keys[k] = struct{}{}
	}
	return keys, rows.Err()
}

// ListUsers returns every stored user ordered by ID.
func (s *SQLiteStore) ListUsers(ctx context.Context) ([]UserInfo, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT u.id, u.created_at, u.updated_at, COUNT(e.entry_key)
		FROM users u
		LEFT JOIN entries e ON e.user_id = u.id
		GROUP BY u.id
		ORDER BY u.id
	`)
	if err != nil {
		return nil, fmt.Errorf("query users: %w", err)
	}
	defer rows.Close()

	users := make([]UserInfo, 0)
	for rows.Next() {
		var u UserInfo
		var createdAt, updatedAt string
		if err := rows.Scan(&u.ID, &createdAt, &updatedAt, &u.Entries); err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		var parseErr error
		if u.CreatedAt, parseErr = time.Parse(time.RFC3339Nano, createdAt); parseErr != nil {
			slog.Warn("users: failed to parse created_at", "value", createdAt, "error", parseErr)
		}
		if u.UpdatedAt, parseErr = time.Parse(time.RFC3339Nano, updatedAt); parseErr != nil {
			slog.Warn("users: failed to parse updated_at", "value", updatedAt, "error", parseErr)
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

// DeleteUser removes a user and all of their entries.
func (s *SQLiteStore) DeleteUser(ctx context.Context, userID string) error {
	if err := ValidateUserID(userID); err != nil {
		return err
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	// foreign_keys is per connection, so children are removed explicitly.
	for _, q := range []string{
		`DELETE FROM entries WHERE user_id = ?`,
		`DELETE FROM program_settings WHERE user_id = ?`,
	} {
		if _, err := tx.ExecContext(ctx, q, userID); err != nil {
			return fmt.Errorf("delete user data: %w", err)
		}
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM users WHERE id = ?`, userID)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return tx.Commit()
}

// GetStats returns aggregate store statistics
func (s *SQLiteStore) GetStats(ctx context.Context) (*Stats, error) {
	stats := &Stats{Domains: make(map[string]int64)}

	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&stats.Users); err != nil {
		return nil, fmt.Errorf("count users: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, `SELECT domain, COUNT(*) FROM entries GROUP BY domain`)
	if err != nil {
		return nil, fmt.Errorf("count entries: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var domain string
		var n int64
		if err := rows.Scan(&domain, &n); err != nil {
			return nil, fmt.Errorf("scan entry count: %w", err)
		}
		stats.Domains[domain] = n
		stats.Entries += n
	}
	return stats, rows.Err()
}
