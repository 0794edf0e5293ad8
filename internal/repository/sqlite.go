package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/set-night/leadbot/internal/domain"
	_ "modernc.org/sqlite"
)

// SQLiteStore keeps the transcript in a single SQLite file. The file is a
// disposable log: if it fails the integrity check on open it is deleted and
// recreated empty.
type SQLiteStore struct {
	db      *sql.DB
	path    string
	rebuilt bool
	now     func() time.Time
}

func sqliteDSN(path string) string {
	return path + "?_pragma=busy_timeout(5000)"
}

// OpenSQLite opens or creates the store at path. It fails with
// domain.ErrStorageUnavailable only when path cannot be written at all.
func OpenSQLite(ctx context.Context, path string) (*SQLiteStore, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, fmt.Errorf("%w: empty location", domain.ErrStorageUnavailable)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("%w: create directory: %w", domain.ErrStorageUnavailable, err)
	}

	rebuilt := false
	if _, err := os.Stat(path); err == nil {
		if err := checkIntegrity(ctx, path); err != nil {
			slog.Warn("transcript store failed integrity check, recreating", "path", path, "error", err)
			if err := removeDatabaseFiles(path); err != nil {
				return nil, fmt.Errorf("%w: remove corrupt store: %w", domain.ErrStorageUnavailable, err)
			}
			rebuilt = true
		}
	}

	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o644)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrStorageUnavailable, err)
	}
	f.Close()

	migrationsFS, err := migrationsFor("sqlite")
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrStorageUnavailable, err)
	}
	migrationDB, err := sql.Open("sqlite", sqliteDSN(path))
	if err != nil {
		return nil, fmt.Errorf("%w: open for migrations: %w", domain.ErrStorageUnavailable, err)
	}
	if err := runSQLiteMigrations(migrationDB, migrationsFS); err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrStorageUnavailable, err)
	}

	db, err := sql.Open("sqlite", sqliteDSN(path))
	if err != nil {
		return nil, fmt.Errorf("%w: open: %w", domain.ErrStorageUnavailable, err)
	}
	// One connection keeps every append a plain serialised insert.
	db.SetMaxOpenConns(1)
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: ping: %w", domain.ErrStorageUnavailable, err)
	}

	slog.Info("transcript store opened", "backend", "sqlite", "path", path, "rebuilt", rebuilt)
	return &SQLiteStore{db: db, path: path, rebuilt: rebuilt, now: time.Now}, nil
}

// Rebuilt reports whether the file was discarded as corrupt during open.
func (s *SQLiteStore) Rebuilt() bool {
	return s.rebuilt
}

func (s *SQLiteStore) Path() string {
	return s.path
}

func (s *SQLiteStore) Append(ctx context.Context, entry *domain.TranscriptEntry) error {
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = s.now()
	}

	res, err := s.db.ExecContext(ctx,
		`INSERT INTO messages (conversation_id, display_name, role, text, attachment, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		int64(entry.ConversationID),
		entry.DisplayName,
		string(entry.Role),
		entry.Text,
		nullableBlob(entry.Attachment),
		entry.CreatedAt.UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("%w: insert message: %w", domain.ErrStorageWrite, err)
	}

	if id, err := res.LastInsertId(); err == nil {
		entry.ID = id
	}
	return nil
}

func (s *SQLiteStore) HistoryFor(ctx context.Context, id domain.ConversationID) ([]domain.TranscriptEntry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, conversation_id, display_name, role, text, attachment, created_at
		 FROM messages
		 WHERE conversation_id = ?
		 ORDER BY created_at, id`,
		int64(id),
	)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	entries := []domain.TranscriptEntry{}
	for rows.Next() {
		var (
			e         domain.TranscriptEntry
			convID    int64
			role      string
			createdAt int64
		)
		if err := rows.Scan(&e.ID, &convID, &e.DisplayName, &role, &e.Text, &e.Attachment, &createdAt); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		e.ConversationID = domain.ConversationID(convID)
		e.Role = domain.Role(role)
		e.CreatedAt = time.Unix(0, createdAt)
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate history: %w", err)
	}
	return entries, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func checkIntegrity(ctx context.Context, path string) error {
	db, err := sql.Open("sqlite", sqliteDSN(path))
	if err != nil {
		return err
	}
	defer db.Close()

	var result string
	if err := db.QueryRowContext(ctx, "PRAGMA integrity_check").Scan(&result); err != nil {
		return err
	}
	if result != "ok" {
		return fmt.Errorf("integrity_check: %s", result)
	}
	return nil
}

func removeDatabaseFiles(path string) error {
	for _, p := range []string{path, path + "-journal", path + "-wal", path + "-shm"} {
		if err := os.Remove(p); err != nil && !errors.Is(err, os.ErrNotExist) {
			return err
		}
	}
	return nil
}

func nullableBlob(b []byte) any {
	if len(b) == 0 {
		return nil
	}
	return b
}
