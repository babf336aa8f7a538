package hook

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRunInOrder(t *testing.T) {
	reg := NewRegistry()
	var calls []string

	reg.Register(EventTurnEnd, func(ctx context.Context, hctx *Context) Result {
		calls = append(calls, "first")
		return Result{Continue: true}
	})
	reg.Register(EventTurnEnd, func(ctx context.Context, hctx *Context) Result {
		calls = append(calls, "second")
		return Result{Continue: true}
	})

	res := reg.Run(context.Background(), &Context{Event: EventTurnEnd})
	assert.True(t, res.Continue)
	assert.Equal(t, []string{"first", "second"}, calls)
}

func TestRunStopsOnError(t *testing.T) {
	reg := NewRegistry()
	boom := errors.New("boom")
	reached := false

	reg.Register(EventBeforeTurn, func(ctx context.Context, hctx *Context) Result {
		return Result{Continue: true, Error: boom}
	})
	reg.Register(EventBeforeTurn, func(ctx context.Context, hctx *Context) Result {
		reached = true
		return Result{Continue: true}
	})

	res := reg.Run(context.Background(), &Context{Event: EventBeforeTurn})
	assert.ErrorIs(t, res.Error, boom)
	assert.False(t, reached)
}

func TestRunStopsWhenHookHalts(t *testing.T) {
	reg := NewRegistry()
	reached := false

	reg.Register(EventTurnEnd, func(ctx context.Context, hctx *Context) Result {
		return Result{Continue: false}
	})
	reg.Register(EventTurnEnd, func(ctx context.Context, hctx *Context) Result {
		reached = true
		return Result{Continue: true}
	})

	res := reg.Run(context.Background(), &Context{Event: EventTurnEnd})
	assert.False(t, res.Continue)
	assert.False(t, reached)
}

func TestRunNoHooksContinues(t *testing.T) {
	reg := NewRegistry()
	res := reg.Run(context.Background(), &Context{Event: EventSessionEnd})
	assert.True(t, res.Continue)
	assert.NoError(t, res.Error)
}

func TestHasAndClear(t *testing.T) {
	reg := NewRegistry()
	assert.False(t, reg.Has(EventSessionStart))

	reg.Register(EventSessionStart, func(ctx context.Context, hctx *Context) Result {
		return Result{Continue: true}
	})
	assert.True(t, reg.Has(EventSessionStart))

	reg.Clear(EventSessionStart)
	assert.False(t, reg.Has(EventSessionStart))
}
