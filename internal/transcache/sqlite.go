package transcache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

const (
	sqliteBusyCode          = 5
	busyRetryAttempts       = 5
	busyRetryInitialBackoff = 10 * time.Millisecond
	busyRetryMaxBackoff     = 200 * time.Millisecond

	// SQLite caps bound parameters per statement.
	lookupChunkSize = 500
)

// SQLiteBackend stores entries in a WAL-mode SQLite database.
type SQLiteBackend struct {
	db   *sql.DB
	path string
}

// OpenSQLite opens (or creates) the database at path and applies migrations.
func OpenSQLite(ctx context.Context, path string) (*SQLiteBackend, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create cache directory: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.ExecContext(ctx, pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	if err := applyMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &SQLiteBackend{db: db, path: path}, nil
}

func (s *SQLiteBackend) Name() string { return "sqlite" }

// Path returns the database file location.
func (s *SQLiteBackend) Path() string { return s.path }

func (s *SQLiteBackend) Lookup(ctx context.Context, keys []string) (map[string]string, error) {
	found := make(map[string]string, len(keys))
	for start := 0; start < len(keys); start += lookupChunkSize {
		chunk := keys[start:min(start+lookupChunkSize, len(keys))]
		args := make([]any, len(chunk))
		for i, key := range chunk {
			args[i] = key
		}
		query := "SELECT cache_key, translated FROM translations WHERE cache_key IN (" + placeholders(len(chunk)) + ")"
		err := retryOnBusy(ctx, func() error {
			rows, err := s.db.QueryContext(ctx, query, args...)
			if err != nil {
				return err
			}
			defer rows.Close()
			for rows.Next() {
				var key, value string
				if err := rows.Scan(&key, &value); err != nil {
					return err
				}
				found[key] = value
			}
			return rows.Err()
		})
		if err != nil {
			return nil, fmt.Errorf("lookup translations: %w", err)
		}
	}
	return found, nil
}

func (s *SQLiteBackend) Store(ctx context.Context, entries []Entry) error {
	if len(entries) == 0 {
		return nil
	}
	return retryOnBusy(ctx, func() error {
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("begin store tx: %w", err)
		}
		defer func() { _ = tx.Rollback() }()

		stmt, err := tx.PrepareContext(ctx, `INSERT INTO translations
			(cache_key, engine, target_lang, source_text, translated, cached_at)
			VALUES (?, ?, ?, ?, ?, ?)
			ON CONFLICT(cache_key) DO UPDATE SET translated = excluded.translated, cached_at = excluded.cached_at`)
		if err != nil {
			return fmt.Errorf("prepare store: %w", err)
		}
		defer stmt.Close()

		for _, entry := range entries {
			cachedAt := entry.CachedAt
			if cachedAt.IsZero() {
				cachedAt = time.Now().UTC()
			}
			if _, err := stmt.ExecContext(ctx, entry.Key(), entry.Engine, entry.Lang, entry.Source,
				entry.Translated, cachedAt.Format(time.RFC3339Nano)); err != nil {
				return fmt.Errorf("store translation: %w", err)
			}
		}
		return tx.Commit()
	})
}

func (s *SQLiteBackend) Stats(ctx context.Context) (Stats, error) {
	stats := Stats{Backend: s.Name(), Path: s.path, Groups: []GroupCount{}}
	rows, err := s.db.QueryContext(ctx,
		"SELECT engine, target_lang, COUNT(1) FROM translations GROUP BY engine, target_lang ORDER BY engine, target_lang")
	if err != nil {
		return Stats{}, fmt.Errorf("query stats: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var group GroupCount
		if err := rows.Scan(&group.Engine, &group.Lang, &group.Count); err != nil {
			return Stats{}, fmt.Errorf("scan stats: %w", err)
		}
		stats.Entries += group.Count
		stats.Groups = append(stats.Groups, group)
	}
	if err := rows.Err(); err != nil {
		return Stats{}, fmt.Errorf("iterate stats: %w", err)
	}
	return stats, nil
}

func (s *SQLiteBackend) Clear(ctx context.Context) error {
	return retryOnBusy(ctx, func() error {
		_, err := s.db.ExecContext(ctx, "DELETE FROM translations")
		return err
	})
}

func (s *SQLiteBackend) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}

func isSQLiteBusy(err error) bool {
	if err == nil {
		return false
	}
	var coder interface{ Code() int }
	if errors.As(err, &coder) && coder.Code() == sqliteBusyCode {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "SQLITE_BUSY") || strings.Contains(msg, "database is locked")
}

func retryOnBusy(ctx context.Context, op func() error) error {
	delay := busyRetryInitialBackoff
	var lastErr error
	for attempt := 0; attempt < busyRetryAttempts; attempt++ {
		lastErr = op()
		if lastErr == nil {
			return nil
		}
		if !isSQLiteBusy(lastErr) || attempt == busyRetryAttempts-1 {
			break
		}
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
		if next := delay * 2; next <= busyRetryMaxBackoff {
			delay = next
		}
	}
	return lastErr
}
