package checkpoint

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/joss/piext/internal/host/hook"
	"github.com/joss/piext/internal/logging"
)

// restoreEntryKind is the session entry kind carrying the queued
// restore. The marker lives in the entry log so a restore queued by one
// process is still delivered when a later process runs the next turn.
const restoreEntryKind = "checkpoint-restore"

type restoreMarker struct {
	ID string `json:"id"`
}

// Extension wires the checkpoint store into the host lifecycle. It is
// session-scoped: the host creates one per session, so a pending
// restore never leaks between sessions.
type Extension struct {
	store   *Store
	pending *Checkpoint
	log     *logging.Logger
}

// NewExtension creates a session-scoped checkpoint extension.
func NewExtension(store *Store) *Extension {
	return &Extension{store: store, log: logging.New("checkpoint")}
}

// Store exposes the underlying checkpoint store.
func (e *Extension) Store() *Store {
	return e.store
}

// QueueRestore loads a checkpoint and marks it for injection on the
// next agent turn. The marker is persisted to the session entry log so
// it survives until a turn actually happens. Returns false when the
// checkpoint does not exist.
func (e *Extension) QueueRestore(ctx context.Context, caps hook.Capabilities, id string) bool {
	cp, ok := e.store.Load(id)
	if !ok {
		return false
	}
	e.pending = cp
	e.writeMarker(ctx, caps, id)
	return true
}

// PendingRestore reports whether a restore is queued.
func (e *Extension) PendingRestore() bool {
	return e.pending != nil
}

// Register attaches the extension's hooks to the registry.
func (e *Extension) Register(reg *hook.Registry) {
	reg.Register(hook.EventSessionResume, e.onResume)
	reg.Register(hook.EventBeforeTurn, e.beforeTurn)
}

// onResume picks up a restore marker written by an earlier process.
func (e *Extension) onResume(ctx context.Context, hctx *hook.Context) hook.Result {
	entry, err := hctx.Caps.LatestEntry(ctx, restoreEntryKind)
	if err != nil || entry == nil {
		return hook.Result{Continue: true}
	}

	var marker restoreMarker
	if json.Unmarshal(entry.Payload, &marker) != nil || marker.ID == "" {
		return hook.Result{Continue: true}
	}

	cp, ok := e.store.Load(marker.ID)
	if !ok {
		hctx.Caps.Warn("Queued checkpoint %q no longer exists", marker.ID)
		e.writeMarker(ctx, hctx.Caps, "")
		return hook.Result{Continue: true}
	}
	e.pending = cp
	return hook.Result{Continue: true}
}

// beforeTurn injects a queued restore into the system prompt, exactly
// once, then clears the marker.
func (e *Extension) beforeTurn(ctx context.Context, hctx *hook.Context) hook.Result {
	if e.pending == nil {
		return hook.Result{Continue: true}
	}

	cp := e.pending
	e.pending = nil
	e.writeMarker(ctx, hctx.Caps, "")

	hctx.Caps.AppendSystemPrompt(fmt.Sprintf(
		"<restored-context checkpoint=%q saved=%q>\n%s\n</restored-context>",
		cp.ID, cp.CreatedAt.Format("2006-01-02 15:04:05"), cp.Transcript))
	hctx.Caps.Notify("Restored checkpoint %s (%d messages)", cp.ID, cp.Stats.MessageCount)

	return hook.Result{Continue: true}
}

// writeMarker appends the marker entry; an empty id clears it. The
// entry log is append-only, the latest marker wins.
func (e *Extension) writeMarker(ctx context.Context, caps hook.Capabilities, id string) {
	payload, _ := json.Marshal(restoreMarker{ID: id})
	if err := caps.AppendEntry(ctx, restoreEntryKind, payload); err != nil {
		e.log.Warn("restore_marker", map[string]interface{}{"id": id}, err)
	}
}
