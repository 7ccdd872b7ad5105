package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ragchat/internal/domain"
	"ragchat/internal/session"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(filepath.Join(t.TempDir(), "chat.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	created := time.Now().Truncate(time.Millisecond)
	sess := domain.ChatSession{ID: "s1", Name: "New Chat", CreatedAt: created}
	require.NoError(t, s.SaveSession(ctx, sess))
	require.NoError(t, s.SaveTurn(ctx, "s1", domain.ChatTurn{
		Role: domain.RoleUser, Content: "tell me about Diwali", Timestamp: created,
	}))
	require.NoError(t, s.SaveTurn(ctx, "s1", domain.ChatTurn{
		Role: domain.RoleAssistant, Content: "festival of lights", Timestamp: created.Add(time.Second),
	}))
	require.NoError(t, s.RenameSession(ctx, "s1", "tell me about"))

	loaded, err := s.LoadSessions(ctx)
	require.NoError(t, err)
	require.Len(t, loaded, 1)
	got := loaded[0]
	assert.Equal(t, "s1", got.ID)
	assert.Equal(t, "tell me about", got.Name)
	assert.True(t, got.CreatedAt.Equal(created))
	require.Len(t, got.Turns, 2)
	assert.Equal(t, domain.RoleUser, got.Turns[0].Role)
	assert.Equal(t, "tell me about Diwali", got.Turns[0].Content)
	assert.Equal(t, domain.RoleAssistant, got.Turns[1].Role)
}

func TestDeleteSession(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	require.NoError(t, s.SaveSession(ctx, domain.ChatSession{ID: "s1", Name: "a", CreatedAt: time.Now()}))
	require.NoError(t, s.SaveTurn(ctx, "s1", domain.ChatTurn{Role: domain.RoleUser, Content: "hi", Timestamp: time.Now()}))

	require.NoError(t, s.DeleteSession(ctx, "s1"))
	require.NoError(t, s.DeleteSession(ctx, "s1")) // idempotent

	loaded, err := s.LoadSessions(ctx)
	require.NoError(t, err)
	assert.Empty(t, loaded)
}

func TestManagerReloadsPersistedSessions(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "chat.db")

	s, err := New(path)
	require.NoError(t, err)
	m, err := session.NewManager(ctx, s)
	require.NoError(t, err)
	id := m.Active().ID
	require.NoError(t, m.Append(ctx, id, domain.ChatTurn{Role: domain.RoleUser, Content: "tell me about Diwali", Timestamp: time.Now()}))
	require.NoError(t, m.Append(ctx, id, domain.ChatTurn{Role: domain.RoleAssistant, Content: "ok", Timestamp: time.Now()}))
	require.NoError(t, s.Close())

	s2, err := New(path)
	require.NoError(t, err)
	defer s2.Close()
	m2, err := session.NewManager(ctx, s2)
	require.NoError(t, err)

	listed := m2.List()
	require.Len(t, listed, 1)
	assert.Equal(t, id, listed[0].ID)
	assert.Equal(t, "tell me about", listed[0].Name)
	require.Len(t, listed[0].Turns, 2)
}
