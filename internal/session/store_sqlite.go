package session

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// expectedSchemaVersion is the latest credential schema version.
const expectedSchemaVersion = 1

type migration struct {
	Up          func(*sql.Tx) error
	Description string
	Version     int
}

var migrations = []migration{
	{
		Version:     1,
		Description: "Credential table",
		Up: func(tx *sql.Tx) error {
			_, err := tx.Exec(`CREATE TABLE IF NOT EXISTS credentials (
				id INTEGER PRIMARY KEY CHECK (id = 1),
				token TEXT NOT NULL,
				issued_at TEXT NOT NULL,
				expires_at TEXT NOT NULL,
				path TEXT NOT NULL DEFAULT '/',
				same_site TEXT NOT NULL DEFAULT 'lax'
			)`)
			return err
		},
	},
}

// SQLiteStore keeps the credential in a single-row SQLite table.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (and migrates) the database at dbPath.
// ":memory:" gives a private in-memory store.
func NewSQLiteStore(ctx context.Context, dbPath string) (*SQLiteStore, error) {
	if dbPath == "" {
		return nil, fmt.Errorf("database path is required")
	}

	dsn := dbPath
	if dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0o700); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
		dsn = dbPath + "?_journal_mode=WAL&_busy_timeout=5000"
	}

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// One connection keeps ":memory:" databases alive and serializes writers.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	s := &SQLiteStore{db: db}
	if err := s.migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) migrate(ctx context.Context) error {
	var current int
	if err := s.db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&current); err != nil {
		return fmt.Errorf("failed to get schema version: %w", err)
	}

	for _, m := range migrations {
		if m.Version <= current {
			continue
		}

		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("failed to begin transaction: %w", err)
		}
		if err := m.Up(tx); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("migration %d failed: %w", m.Version, err)
		}
		if _, err := tx.Exec(fmt.Sprintf("PRAGMA user_version = %d", m.Version)); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("failed to update schema version: %w", err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("failed to commit migration %d: %w", m.Version, err)
		}

		slog.Debug("Applied migration", "version", m.Version, "description", m.Description)
	}

	var final int
	if err := s.db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&final); err != nil {
		return fmt.Errorf("failed to verify schema version: %w", err)
	}
	if final != expectedSchemaVersion {
		return fmt.Errorf("database schema version mismatch: expected %d, got %d", expectedSchemaVersion, final)
	}
	return nil
}

// Load reads the credential row, deleting it if expired.
func (s *SQLiteStore) Load() (Credential, error) {
	var (
		cred      Credential
		issuedAt  string
		expiresAt string
	)
	err := s.db.QueryRow(
		`SELECT token, issued_at, expires_at, path, same_site FROM credentials WHERE id = 1`,
	).Scan(&cred.Token, &issuedAt, &expiresAt, &cred.Path, &cred.SameSite)
	if errors.Is(err, sql.ErrNoRows) {
		return Credential{}, ErrNoCredential
	}
	if err != nil {
		return Credential{}, fmt.Errorf("failed to read credential: %w", err)
	}

	if cred.IssuedAt, err = time.Parse(time.RFC3339Nano, issuedAt); err != nil {
		return Credential{}, fmt.Errorf("failed to parse issued_at: %w", err)
	}
	if cred.ExpiresAt, err = time.Parse(time.RFC3339Nano, expiresAt); err != nil {
		return Credential{}, fmt.Errorf("failed to parse expires_at: %w", err)
	}

	if !cred.Usable() {
		slog.Debug("Stored credential expired", "expires_at", cred.ExpiresAt)
		if err := s.Clear(); err != nil {
			return Credential{}, err
		}
		return Credential{}, ErrNoCredential
	}
	return cred, nil
}

// Save upserts the single credential row.
func (s *SQLiteStore) Save(cred Credential) error {
	_, err := s.db.Exec(
		`INSERT INTO credentials (id, token, issued_at, expires_at, path, same_site)
		 VALUES (1, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
			token = excluded.token,
			issued_at = excluded.issued_at,
			expires_at = excluded.expires_at,
			path = excluded.path,
			same_site = excluded.same_site`,
		cred.Token,
		cred.IssuedAt.UTC().Format(time.RFC3339Nano),
		cred.ExpiresAt.UTC().Format(time.RFC3339Nano),
		cred.Path,
		cred.SameSite,
	)
	if err != nil {
		return fmt.Errorf("failed to save credential: %w", err)
	}
	return nil
}

// Clear deletes the credential row.
func (s *SQLiteStore) Clear() error {
	if _, err := s.db.Exec(`DELETE FROM credentials`); err != nil {
		return fmt.Errorf("failed to clear credential: %w", err)
	}
	return nil
}
