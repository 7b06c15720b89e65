// Package sqlite keeps the document in an embedded key-value table.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	msqlite "modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/MrSnakeDoc/tweetvault/internal/domain"
	"github.com/MrSnakeDoc/tweetvault/internal/logger"
	"github.com/MrSnakeDoc/tweetvault/internal/retry"
	"github.com/MrSnakeDoc/tweetvault/internal/store/persist"
)

// RootKey is the row holding the serialized document.
const RootKey = "root"

// Store is a document store backed by a single SQLite table.
type Store struct {
	db     *sql.DB
	policy retry.Policy
	log    logger.Logger
	now    func() time.Time
}

// Open creates the parent directory, opens the database in WAL mode and
// makes sure the kv table exists.
func Open(ctx context.Context, path string, r persist.Retry, log logger.Logger) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("sqlite: create data dir: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("sqlite: open database: %w", err)
	}
	// One connection keeps pragmas and locks predictable.
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA synchronous = NORMAL",
	}
	for _, p := range pragmas {
		if _, err := db.ExecContext(ctx, p); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("sqlite: pragma %q: %w", p, err)
		}
	}

	const schema = `
		CREATE TABLE IF NOT EXISTS kv (
			key        TEXT PRIMARY KEY,
			value      TEXT NOT NULL,
			updated_at TEXT NOT NULL
		);`
	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlite: migration: %w", err)
	}

	log = log.With(logger.String("store", "sqlite"), logger.String("path", path))
	return &Store{
		db:     db,
		policy: persist.Policy(r, IsBusy, log),
		log:    log,
		now:    time.Now,
	}, nil
}

// IsBusy reports SQLITE_BUSY and SQLITE_LOCKED, including extended codes.
func IsBusy(err error) bool {
	var se *msqlite.Error
	if !errors.As(err, &se) {
		return false
	}
	switch se.Code() & 0xff {
	case sqlite3.SQLITE_BUSY, sqlite3.SQLITE_LOCKED:
		return true
	}
	return false
}

func (s *Store) Read(ctx context.Context) (*domain.Document, error) {
	value, err := retry.DoValue(ctx, s.policy, func(ctx context.Context) (string, error) {
		var v string
		err := s.db.QueryRowContext(ctx, `SELECT value FROM kv WHERE key = ?`, RootKey).Scan(&v)
		return v, err
	})
	if errors.Is(err, sql.ErrNoRows) {
		doc := domain.NewDocument(s.now())
		if err := s.Write(ctx, doc); err != nil {
			return nil, err
		}
		s.log.Info("seeded new document")
		return doc, nil
	}
	if err != nil {
		return nil, persist.Classify("read document", err)
	}

	doc, err := domain.DecodeDocument([]byte(value))
	if err != nil {
		return nil, persist.Classify("read document", err)
	}
	return doc, nil
}

func (s *Store) Write(ctx context.Context, doc *domain.Document) error {
	data, err := domain.EncodeDocument(doc)
	if err != nil {
		return persist.Classify("write document", err)
	}

	err = retry.Do(ctx, s.policy, func(ctx context.Context) error {
		_, err := s.db.ExecContext(ctx, `
			INSERT INTO kv (key, value, updated_at) VALUES (?, ?, ?)
			ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
			RootKey, string(data), s.now().UTC().Format(time.RFC3339Nano))
		return err
	})
	return persist.Classify("write document", err)
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}
