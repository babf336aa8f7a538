package host

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joss/piext/internal/host/domain"
	"github.com/joss/piext/internal/host/hook"
	"github.com/joss/piext/internal/host/session"
	"github.com/joss/piext/internal/host/storage"
	"github.com/joss/piext/internal/ui"
)

func testRuntime(t *testing.T) (*Runtime, *ui.Recorder) {
	t.Helper()
	store, err := storage.NewMemory()
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	rec := &ui.Recorder{}
	rt := NewRuntime(session.NewManager(store), rec, &domain.Model{ID: "test", ContextWindow: 100000})

	sess, err := rt.Sessions().Create(context.Background(), "/tmp/proj")
	require.NoError(t, err)
	rt.SetActiveSession(sess)
	return rt, rec
}

func TestSendMessagePersists(t *testing.T) {
	rt, _ := testRuntime(t)
	ctx := context.Background()

	err := rt.SendMessage(ctx, "visible", hook.SendOptions{})
	require.NoError(t, err)
	err = rt.SendMessage(ctx, "internal", hook.SendOptions{Role: domain.RoleSystem, Hidden: true})
	require.NoError(t, err)

	msgs, err := rt.Messages(ctx)
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, domain.RoleUser, msgs[0].Role)
	assert.False(t, msgs[0].Hidden)
	assert.Equal(t, domain.RoleSystem, msgs[1].Role)
	assert.True(t, msgs[1].Hidden)
	assert.Equal(t, "internal", msgs[1].Text())
}

func TestSystemPromptAdditionsDrain(t *testing.T) {
	rt, _ := testRuntime(t)

	rt.AppendSystemPrompt("one")
	rt.AppendSystemPrompt("two")

	assert.Equal(t, []string{"one", "two"}, rt.SystemPromptAdditions())
	assert.Empty(t, rt.SystemPromptAdditions())
}

func TestCreateLinkedSessionSwitchesActive(t *testing.T) {
	rt, _ := testRuntime(t)
	ctx := context.Background()
	parentID := rt.SessionID()

	require.NoError(t, rt.SendMessage(ctx, "old context", hook.SendOptions{}))

	child, err := rt.CreateLinkedSession(ctx)
	require.NoError(t, err)
	assert.Equal(t, parentID, child.ParentID)
	assert.Equal(t, child.ID, rt.SessionID())

	msgs, err := rt.Messages(ctx)
	require.NoError(t, err)
	assert.Empty(t, msgs)
}

func TestEntryLogRoundTrip(t *testing.T) {
	rt, _ := testRuntime(t)
	ctx := context.Background()

	entry, err := rt.LatestEntry(ctx, "loop-state")
	require.NoError(t, err)
	assert.Nil(t, entry)

	require.NoError(t, rt.AppendEntry(ctx, "loop-state", []byte(`{"n":1}`)))
	require.NoError(t, rt.AppendEntry(ctx, "loop-state", []byte(`{"n":2}`)))

	entry, err = rt.LatestEntry(ctx, "loop-state")
	require.NoError(t, err)
	require.NotNil(t, entry)
	assert.JSONEq(t, `{"n":2}`, string(entry.Payload))
}

func TestFireDispatchesWithCaps(t *testing.T) {
	rt, rec := testRuntime(t)
	var got hook.Capabilities

	rt.Hooks().Register(hook.EventTurnEnd, func(ctx context.Context, hctx *hook.Context) hook.Result {
		got = hctx.Caps
		hctx.Caps.Notify("saw %s", hctx.Message.Text())
		return hook.Result{Continue: true}
	})

	msg := &domain.Message{Role: domain.RoleAssistant, Parts: []domain.Part{domain.TextPart{Text: "done"}}}
	res := rt.Fire(context.Background(), hook.EventTurnEnd, msg)
	assert.True(t, res.Continue)
	assert.Same(t, rt, got.(*Runtime))
	assert.Equal(t, []string{"saw done"}, rec.Notices)
}

func TestNotifierPassthrough(t *testing.T) {
	rt, rec := testRuntime(t)
	rec.ConfirmAnswer = true

	rt.Notify("n %d", 1)
	rt.Warn("w %d", 2)
	assert.True(t, rt.Confirm("ok?"))

	assert.Equal(t, []string{"n 1"}, rec.Notices)
	assert.Equal(t, []string{"w 2"}, rec.Warnings)
	assert.Equal(t, []string{"ok?"}, rec.ConfirmPrompts)
}
