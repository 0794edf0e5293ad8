package repository

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/set-night/leadbot/internal/domain"
)

// PostgresStore keeps the transcript in a PostgreSQL table. There is no
// rebuild path: the server owns integrity.
type PostgresStore struct {
	pool *pgxpool.Pool
}

func OpenPostgres(ctx context.Context, databaseURL string) (*PostgresStore, error) {
	pool, err := NewPool(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrStorageUnavailable, err)
	}

	migrationsFS, err := migrationsFor("postgres")
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("%w: %w", domain.ErrStorageUnavailable, err)
	}
	if err := RunMigrations(databaseURL, migrationsFS); err != nil {
		pool.Close()
		return nil, fmt.Errorf("%w: %w", domain.ErrStorageUnavailable, err)
	}

	slog.Info("transcript store opened", "backend", "postgres")
	return &PostgresStore{pool: pool}, nil
}

func (s *PostgresStore) Append(ctx context.Context, entry *domain.TranscriptEntry) error {
	var err error
	if entry.CreatedAt.IsZero() {
		err = s.pool.QueryRow(ctx,
			`INSERT INTO messages (conversation_id, display_name, role, text, attachment)
			 VALUES ($1, $2, $3, $4, $5)
			 RETURNING id, created_at`,
			int64(entry.ConversationID), entry.DisplayName, string(entry.Role), entry.Text, nullableBlob(entry.Attachment),
		).Scan(&entry.ID, &entry.CreatedAt)
	} else {
		err = s.pool.QueryRow(ctx,
			`INSERT INTO messages (conversation_id, display_name, role, text, attachment, created_at)
			 VALUES ($1, $2, $3, $4, $5, $6)
			 RETURNING id`,
			int64(entry.ConversationID), entry.DisplayName, string(entry.Role), entry.Text, nullableBlob(entry.Attachment), entry.CreatedAt,
		).Scan(&entry.ID)
	}
	if err != nil {
		return fmt.Errorf("%w: insert message: %w", domain.ErrStorageWrite, err)
	}
	return nil
}

func (s *PostgresStore) HistoryFor(ctx context.Context, id domain.ConversationID) ([]domain.TranscriptEntry, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, conversation_id, display_name, role, text, attachment, created_at
		 FROM messages
		 WHERE conversation_id = $1
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
			e      domain.TranscriptEntry
			convID int64
			role   string
		)
		if err := rows.Scan(&e.ID, &convID, &e.DisplayName, &role, &e.Text, &e.Attachment, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		e.ConversationID = domain.ConversationID(convID)
		e.Role = domain.Role(role)
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate history: %w", err)
	}
	return entries, nil
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}
