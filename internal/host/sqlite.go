package host

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite" // pure go sqlite driver

	"github.com/dshills/devtoolsettings/internal/settings/store"
)

// SQLiteFileName is the database file name used by Open.
const SQLiteFileName = "devtools.db"

// SQLitePath returns the database path inside dir.
func SQLitePath(dir string) string {
	return filepath.Join(dir, SQLiteFileName)
}

// SQLiteBackend stores one JSON payload per scope in a single table.
type SQLiteBackend struct {
	db   *sql.DB
	path string
}

// NewSQLiteBackend opens or creates the database at path.
func NewSQLiteBackend(path string) (*SQLiteBackend, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil && !errors.Is(err, os.ErrExist) {
		return nil, fmt.Errorf("create dirs: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS instance_state (
		scope TEXT PRIMARY KEY,
		payload BLOB NOT NULL
	)`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create instance_state table: %w", err)
	}
	return &SQLiteBackend{db: db, path: path}, nil
}

// Read implements Backend.
func (b *SQLiteBackend) Read(ctx context.Context, scope store.Scope) (*store.InstanceState, error) {
	var payload []byte
	err := b.db.QueryRowContext(ctx, `SELECT payload FROM instance_state WHERE scope = ?`, string(scope)).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, &BackendError{Op: "read", Scope: scope, Err: err}
	}

	var state store.InstanceState
	if err := json.Unmarshal(payload, &state); err != nil {
		return nil, &BackendError{Op: "read", Scope: scope, Err: fmt.Errorf("decode: %w", err)}
	}
	return &state, nil
}

// Write implements Backend. An empty state deletes the row.
func (b *SQLiteBackend) Write(ctx context.Context, scope store.Scope, state *store.InstanceState) error {
	if state.Empty() {
		if _, err := b.db.ExecContext(ctx, `DELETE FROM instance_state WHERE scope = ?`, string(scope)); err != nil {
			return &BackendError{Op: "write", Scope: scope, Err: err}
		}
		return nil
	}

	data, err := json.Marshal(state)
	if err != nil {
		return &BackendError{Op: "write", Scope: scope, Err: err}
	}
	if _, err := b.db.ExecContext(ctx,
		`INSERT INTO instance_state(scope,payload) VALUES(?,?) ON CONFLICT(scope) DO UPDATE SET payload=excluded.payload`,
		string(scope), data); err != nil {
		return &BackendError{Op: "write", Scope: scope, Err: fmt.Errorf("upsert: %w", err)}
	}
	return nil
}

// Quarantine implements Quarantiner by moving the row of scope to the key
// "<scope>.corrupt", replacing an earlier quarantined row.
func (b *SQLiteBackend) Quarantine(ctx context.Context, scope store.Scope) (_ string, retErr error) {
	target := string(scope) + QuarantineSuffix

	tx, err := b.db.BeginTx(ctx, nil)
	if err != nil {
		return "", &BackendError{Op: "quarantine", Scope: scope, Err: err}
	}
	defer func() {
		if retErr != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err := tx.ExecContext(ctx, `DELETE FROM instance_state WHERE scope = ?`, target); err != nil {
		return "", &BackendError{Op: "quarantine", Scope: scope, Err: err}
	}
	if _, err := tx.ExecContext(ctx, `UPDATE instance_state SET scope = ? WHERE scope = ?`, target, string(scope)); err != nil {
		return "", &BackendError{Op: "quarantine", Scope: scope, Err: err}
	}
	if err := tx.Commit(); err != nil {
		return "", &BackendError{Op: "quarantine", Scope: scope, Err: err}
	}
	return b.path + "#" + target, nil
}

// Path returns the database path.
func (b *SQLiteBackend) Path() string { return b.path }

// Close closes the database.
func (b *SQLiteBackend) Close() error {
	return b.db.Close()
}
