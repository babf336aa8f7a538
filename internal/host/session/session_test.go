package session

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joss/piext/internal/host/domain"
	"github.com/joss/piext/internal/host/storage"
)

func newManager(t *testing.T) *Manager {
	t.Helper()
	store, err := storage.NewMemory()
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return NewManager(store)
}

func TestCreateAndLatest(t *testing.T) {
	ctx := context.Background()
	m := newManager(t)

	sess, err := m.Create(ctx, "/work")
	require.NoError(t, err)
	assert.NotEmpty(t, sess.ID)

	latest, err := m.Latest(ctx, "/work")
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.Equal(t, sess.ID, latest.ID)

	latest, err = m.Latest(ctx, "/elsewhere")
	require.NoError(t, err)
	assert.Nil(t, latest)
}

func TestGetOrCreate(t *testing.T) {
	ctx := context.Background()
	m := newManager(t)

	first, err := m.GetOrCreate(ctx, "/work")
	require.NoError(t, err)

	second, err := m.GetOrCreate(ctx, "/work")
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID, "existing session is reused")
}

func TestForkLinksParentWithoutCopyingMessages(t *testing.T) {
	ctx := context.Background()
	m := newManager(t)

	parent, err := m.Create(ctx, "/work")
	require.NoError(t, err)
	require.NoError(t, m.Append(ctx, &domain.Message{
		SessionID: parent.ID,
		Role:      domain.RoleUser,
		Parts:     []domain.Part{domain.TextPart{Text: "history"}},
	}))

	child, err := m.Fork(ctx, parent.ID)
	require.NoError(t, err)
	assert.Equal(t, parent.ID, child.ParentID)
	assert.Equal(t, parent.Directory, child.Directory)

	messages, err := m.Messages(ctx, child.ID)
	require.NoError(t, err)
	assert.Empty(t, messages, "handoff sessions start with a clean context")
}

func TestAppendAssignsIDAndTimestamp(t *testing.T) {
	ctx := context.Background()
	m := newManager(t)

	sess, err := m.Create(ctx, "/work")
	require.NoError(t, err)

	msg := &domain.Message{
		SessionID: sess.ID,
		Role:      domain.RoleUser,
		Parts:     []domain.Part{domain.TextPart{Text: "hi"}},
	}
	require.NoError(t, m.Append(ctx, msg))
	assert.NotEmpty(t, msg.ID)
	assert.False(t, msg.Timestamp.IsZero())
}

func TestEntryLog(t *testing.T) {
	ctx := context.Background()
	m := newManager(t)

	sess, err := m.Create(ctx, "/work")
	require.NoError(t, err)

	latest, err := m.LatestEntry(ctx, sess.ID, "ralph-state")
	require.NoError(t, err)
	assert.Nil(t, latest)

	require.NoError(t, m.AppendEntry(ctx, sess.ID, "ralph-state", []byte(`{"active":true}`)))
	require.NoError(t, m.AppendEntry(ctx, sess.ID, "ralph-state", []byte(`{"active":false}`)))

	latest, err = m.LatestEntry(ctx, sess.ID, "ralph-state")
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.JSONEq(t, `{"active":false}`, string(latest.Payload))
}
