package command

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joss/piext/internal/checkpoint"
	"github.com/joss/piext/internal/host/domain"
	"github.com/joss/piext/internal/host/hook/hooktest"
	"github.com/joss/piext/internal/ralph"
)

func testEnv(t *testing.T) (*Env, *hooktest.Caps) {
	t.Helper()
	caps := hooktest.New()
	store := checkpoint.NewStore(t.TempDir())
	return &Env{
		Caps:        caps,
		Checkpoints: checkpoint.NewExtension(store),
		Ralph:       ralph.NewController(),
		Defaults:    ralph.Defaults{ContextThreshold: 70},
		Directory:   "/work/project",
	}, caps
}

func TestParse(t *testing.T) {
	tests := []struct {
		input string
		name  string
		args  string
	}{
		{"checkpoint save my work", "checkpoint", "save my work"},
		{"  RALPH-STATUS  ", "ralph-status", ""},
		{"checkpoint", "checkpoint", ""},
		{"load   id  ", "load", "id"},
	}
	for _, tt := range tests {
		name, args := Parse(tt.input)
		assert.Equal(t, tt.name, name, tt.input)
		assert.Equal(t, tt.args, args, tt.input)
	}
}

func TestDispatchUnknownCommand(t *testing.T) {
	env, _ := testEnv(t)
	reg := DefaultRegistry()

	_, err := reg.Dispatch(context.Background(), "teleport somewhere", env)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown command "teleport"`)
	assert.Contains(t, err.Error(), "Available commands:")
	assert.Contains(t, err.Error(), "checkpoint")
	assert.Contains(t, err.Error(), "ralph-handoff")
}

func TestDispatchEmptyInput(t *testing.T) {
	env, _ := testEnv(t)
	_, err := DefaultRegistry().Dispatch(context.Background(), "   ", env)
	assert.Error(t, err)
}

func TestCheckpointSaveAndList(t *testing.T) {
	env, caps := testEnv(t)
	caps.Append(domain.RoleUser, "fix the parser")
	caps.Append(domain.RoleAssistant, "done")

	reg := DefaultRegistry()
	out, err := reg.Dispatch(context.Background(), "checkpoint save parser work", env)
	require.NoError(t, err)
	assert.Contains(t, out, "Saved checkpoint")
	assert.Contains(t, out, "2 messages")

	out, err = reg.Dispatch(context.Background(), "checkpoint list", env)
	require.NoError(t, err)
	assert.Contains(t, out, "parser work")
}

func TestCheckpointSaveEmptySessionWarns(t *testing.T) {
	env, caps := testEnv(t)

	out, err := DefaultRegistry().Dispatch(context.Background(), "checkpoint save", env)
	require.NoError(t, err)
	assert.Empty(t, out)
	require.Len(t, caps.Warnings, 1)
	assert.Contains(t, caps.Warnings[0], "no messages")
}

func TestCheckpointLoadQueuesRestore(t *testing.T) {
	env, caps := testEnv(t)
	caps.Append(domain.RoleUser, "hello")
	cp, err := env.Checkpoints.Store().Save(caps.Log, "", env.Directory)
	require.NoError(t, err)

	out, err := DefaultRegistry().Dispatch(context.Background(), "checkpoint load "+cp.ID, env)
	require.NoError(t, err)
	assert.Contains(t, out, cp.ID)
	assert.True(t, env.Checkpoints.PendingRestore())
}

func TestCheckpointLoadUnknownIDWarns(t *testing.T) {
	env, caps := testEnv(t)

	out, err := DefaultRegistry().Dispatch(context.Background(), "checkpoint load nope42", env)
	require.NoError(t, err)
	assert.Empty(t, out)
	require.Len(t, caps.Warnings, 1)
	assert.Contains(t, caps.Warnings[0], "nope42")
}

func TestCheckpointDeleteAndShow(t *testing.T) {
	env, caps := testEnv(t)
	caps.Append(domain.RoleUser, "keep this")
	cp, err := env.Checkpoints.Store().Save(caps.Log, "described", env.Directory)
	require.NoError(t, err)

	reg := DefaultRegistry()
	out, err := reg.Dispatch(context.Background(), "checkpoint show "+cp.ID, env)
	require.NoError(t, err)
	assert.Contains(t, out, "described")
	assert.Contains(t, out, "keep this")
	assert.Contains(t, out, "/work/project")

	out, err = reg.Dispatch(context.Background(), "checkpoint delete "+cp.ID, env)
	require.NoError(t, err)
	assert.Contains(t, out, "Deleted")

	_, ok := env.Checkpoints.Store().Load(cp.ID)
	assert.False(t, ok)
}

func TestCheckpointSubcommandErrors(t *testing.T) {
	env, _ := testEnv(t)
	reg := DefaultRegistry()

	for _, input := range []string{
		"checkpoint",
		"checkpoint frobnicate",
		"checkpoint load",
		"checkpoint delete",
		"checkpoint show",
	} {
		_, err := reg.Dispatch(context.Background(), input, env)
		assert.Error(t, err, input)
	}
}

func TestRalphCommandStartsLoop(t *testing.T) {
	env, caps := testEnv(t)

	out, err := DefaultRegistry().Dispatch(context.Background(),
		`ralph --max-iterations 5 "build the thing"`, env)
	require.NoError(t, err)
	assert.Empty(t, out)
	require.Len(t, caps.SentMsgs, 1)
	assert.True(t, strings.Contains(caps.SentMsgs[0].Text, "build the thing"))
}

func TestRalphCommandBadFlagsShowUsage(t *testing.T) {
	env, _ := testEnv(t)

	_, err := DefaultRegistry().Dispatch(context.Background(),
		"ralph --max-iterations lots", env)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--max-iterations expects an integer")
	assert.Contains(t, err.Error(), "ralph <prompt>")
}

func TestCancelRalphWithoutLoop(t *testing.T) {
	env, _ := testEnv(t)
	_, err := DefaultRegistry().Dispatch(context.Background(), "cancel-ralph", env)
	assert.ErrorIs(t, err, ralph.ErrNotActive)
}

func TestRalphStatusIdle(t *testing.T) {
	env, _ := testEnv(t)
	out, err := DefaultRegistry().Dispatch(context.Background(), "ralph-status", env)
	require.NoError(t, err)
	assert.Contains(t, out, "No active ralph loop")
}
