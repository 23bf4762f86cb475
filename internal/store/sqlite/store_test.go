package sqlite_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zhouzirui/quickchat/backend/internal/model/chat"
	"github.com/zhouzirui/quickchat/backend/internal/store"
	"github.com/zhouzirui/quickchat/backend/internal/store/sqlite"
)

func openTestStore(t *testing.T) *sqlite.Store {
	t.Helper()

	s, err := sqlite.Open(context.Background(), filepath.Join(t.TempDir(), "chat.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestStoreAppendThenList(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	user, err := s.Append(ctx, chat.NewUserMessage("hello"))
	require.NoError(t, err)
	assert.False(t, user.Timestamp.IsZero())

	_, err = s.Append(ctx, chat.NewBotMessage("hi there"))
	require.NoError(t, err)

	got, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, chat.SenderUser, got[0].Sender)
	assert.Equal(t, "hello", got[0].Text)
	assert.True(t, got[0].Timestamp.Equal(user.Timestamp))
	assert.Equal(t, chat.SenderBot, got[1].Sender)
	assert.Equal(t, "hi there", got[1].Text)
}

func TestStoreKeepsExplicitTimestamp(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	at := time.Date(2024, 5, 6, 7, 8, 9, 0, time.UTC)

	_, err := s.Append(ctx, chat.Message{Sender: chat.SenderUser, Text: "dated", Timestamp: at})
	require.NoError(t, err)

	got, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.True(t, got[0].Timestamp.Equal(at))
}

func TestStoreRejectsUnknownSender(t *testing.T) {
	s := openTestStore(t)

	_, err := s.Append(context.Background(), chat.Message{Sender: "system", Text: "nope"})
	require.ErrorIs(t, err, store.ErrStorage)

	got, err := s.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestStoreReopenKeepsLog(t *testing.T) {
	path := filepath.Join(t.TempDir(), "chat.db")
	ctx := context.Background()

	first, err := sqlite.Open(ctx, path)
	require.NoError(t, err)
	_, err = first.Append(ctx, chat.NewUserMessage("persisted"))
	require.NoError(t, err)
	require.NoError(t, first.Close())

	second, err := sqlite.Open(ctx, path)
	require.NoError(t, err)
	defer second.Close()

	got, err := second.List(ctx)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "persisted", got[0].Text)
}

func TestStoreAppendAfterClose(t *testing.T) {
	s, err := sqlite.Open(context.Background(), filepath.Join(t.TempDir(), "chat.db"))
	require.NoError(t, err)
	require.NoError(t, s.Close())

	_, err = s.Append(context.Background(), chat.NewUserMessage("closed"))
	require.ErrorIs(t, err, store.ErrStorage)
}
