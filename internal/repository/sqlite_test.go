package repository

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/set-night/leadbot/internal/domain"
)

func openTestStore(t *testing.T, path string) *SQLiteStore {
	t.Helper()
	s, err := OpenSQLite(context.Background(), path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestOpenSQLite_CreatesSchema(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "messages.db")
	s := openTestStore(t, path)

	require.False(t, s.Rebuilt())
	_, err := os.Stat(path)
	require.NoError(t, err)

	got, err := s.HistoryFor(context.Background(), 1)
	require.NoError(t, err)
	require.NotNil(t, got)
	require.Empty(t, got)
}

func TestAppendAndHistoryFor(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t, filepath.Join(t.TempDir(), "messages.db"))

	base := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	entries := []domain.TranscriptEntry{
		{ConversationID: 10, Role: domain.RoleUser, DisplayName: "ivan", Text: "привет", CreatedAt: base},
		{ConversationID: 20, Role: domain.RoleUser, Text: "other chat", CreatedAt: base.Add(time.Second)},
		{ConversationID: 10, Role: domain.RoleAssistant, Text: "здравствуйте", CreatedAt: base.Add(2 * time.Second)},
		{ConversationID: 10, Role: domain.RoleUser, Text: "фото", Attachment: []byte{0xff, 0xd8, 0x00}, CreatedAt: base.Add(3 * time.Second)},
	}
	for i := range entries {
		require.NoError(t, s.Append(ctx, &entries[i]))
		require.NotZero(t, entries[i].ID)
	}

	got, err := s.HistoryFor(ctx, 10)
	require.NoError(t, err)
	require.Len(t, got, 3)
	require.Equal(t, "привет", got[0].Text)
	require.Equal(t, "ivan", got[0].DisplayName)
	require.Equal(t, domain.RoleAssistant, got[1].Role)
	require.Equal(t, []byte{0xff, 0xd8, 0x00}, got[2].Attachment)
	require.Nil(t, got[0].Attachment)
	for i := 1; i < len(got); i++ {
		require.False(t, got[i].CreatedAt.Before(got[i-1].CreatedAt))
	}
	require.True(t, got[0].CreatedAt.Equal(base))

	other, err := s.HistoryFor(ctx, 20)
	require.NoError(t, err)
	require.Len(t, other, 1)
}

func TestAppend_FillsTimestampAndKeepsInsertionOrder(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t, filepath.Join(t.TempDir(), "messages.db"))
	fixed := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return fixed }

	for _, text := range []string{"a", "b", "c"} {
		require.NoError(t, s.Append(ctx, &domain.TranscriptEntry{ConversationID: 7, Role: domain.RoleUser, Text: text}))
	}

	got, err := s.HistoryFor(ctx, 7)
	require.NoError(t, err)
	require.Len(t, got, 3)
	require.Equal(t, "a", got[0].Text)
	require.Equal(t, "b", got[1].Text)
	require.Equal(t, "c", got[2].Text)
	require.True(t, got[2].CreatedAt.Equal(fixed))
}

func TestHistoryFor_ReturnsSnapshot(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t, filepath.Join(t.TempDir(), "messages.db"))
	require.NoError(t, s.Append(ctx, &domain.TranscriptEntry{ConversationID: 1, Role: domain.RoleUser, Text: "one"}))

	snap, err := s.HistoryFor(ctx, 1)
	require.NoError(t, err)
	require.NoError(t, s.Append(ctx, &domain.TranscriptEntry{ConversationID: 1, Role: domain.RoleUser, Text: "two"}))

	require.Len(t, snap, 1)
}

func TestOpenSQLite_ReopenKeepsData(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "messages.db")

	s, err := OpenSQLite(ctx, path)
	require.NoError(t, err)
	require.NoError(t, s.Append(ctx, &domain.TranscriptEntry{ConversationID: 3, Role: domain.RoleUser, Text: "kept"}))
	require.NoError(t, s.Close())

	s2 := openTestStore(t, path)
	require.False(t, s2.Rebuilt())
	got, err := s2.HistoryFor(ctx, 3)
	require.NoError(t, err)
	require.Len(t, got, 1)
}

func TestOpenSQLite_RebuildsGarbageFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "messages.db")
	require.NoError(t, os.WriteFile(path, bytes.Repeat([]byte("this is not a sqlite database\n"), 200), 0o644))

	s := openTestStore(t, path)
	require.True(t, s.Rebuilt())

	ctx := context.Background()
	got, err := s.HistoryFor(ctx, 1)
	require.NoError(t, err)
	require.Empty(t, got)
	require.NoError(t, s.Append(ctx, &domain.TranscriptEntry{ConversationID: 1, Role: domain.RoleUser, Text: "fresh"}))
}

func TestOpenSQLite_RebuildsDamagedHeader(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "messages.db")

	s, err := OpenSQLite(ctx, path)
	require.NoError(t, err)
	for i := 0; i < 20; i++ {
		require.NoError(t, s.Append(ctx, &domain.TranscriptEntry{ConversationID: 9, Role: domain.RoleUser, Text: "row"}))
	}
	require.NoError(t, s.Close())

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	copy(raw, []byte("garbage garbage!"))
	require.NoError(t, os.WriteFile(path, raw[:len(raw)/2], 0o644))

	s2 := openTestStore(t, path)
	require.True(t, s2.Rebuilt())
	got, err := s2.HistoryFor(ctx, 9)
	require.NoError(t, err)
	require.Empty(t, got)
}

func TestOpenSQLite_UnwritableLocation(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "blocker")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o644))

	_, err := OpenSQLite(context.Background(), filepath.Join(blocker, "messages.db"))
	require.Error(t, err)
	require.True(t, errors.Is(err, domain.ErrStorageUnavailable))

	_, err = OpenSQLite(context.Background(), "  ")
	require.ErrorIs(t, err, domain.ErrStorageUnavailable)
}

func TestAppend_ClosedStoreIsWriteError(t *testing.T) {
	s, err := OpenSQLite(context.Background(), filepath.Join(t.TempDir(), "messages.db"))
	require.NoError(t, err)
	require.NoError(t, s.Close())

	err = s.Append(context.Background(), &domain.TranscriptEntry{ConversationID: 1, Role: domain.RoleUser, Text: "x"})
	require.ErrorIs(t, err, domain.ErrStorageWrite)
}

func TestOpen_SelectsBackend(t *testing.T) {
	require.True(t, IsPostgresURL("postgres://u:p@localhost/db"))
	require.True(t, IsPostgresURL(" PostgreSQL://localhost/db"))
	require.False(t, IsPostgresURL("/tmp/messages.db"))

	st, err := Open(context.Background(), filepath.Join(t.TempDir(), "messages.db"))
	require.NoError(t, err)
	defer st.Close()
	_, ok := st.(*SQLiteStore)
	require.True(t, ok)
}
