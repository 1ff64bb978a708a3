package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/glossa-cli/internal/core/domain"
)

func TestNewSessionStore(t *testing.T) {
	store := NewSessionStore()
	require.NotNil(t, store)
	assert.NotNil(t, store.sessions)
	assert.NotNil(t, store.deltas)
	assert.NotNil(t, store.events)
}

func TestSessionStore_SaveSession_Success(t *testing.T) {
	store := NewSessionStore()
	ctx := context.Background()

	now := time.Now().UTC()
	session := &domain.Session{
		ID:        "sess-1",
		Path:      "/books/study.xml",
		Title:     "A Study in Scarlet",
		Markup:    "<TEI><text><body><p>Hello</p></body></text></TEI>",
		Revision:  3,
		Cursor:    2,
		CreatedAt: now,
		UpdatedAt: now,
	}

	err := store.SaveSession(ctx, session)
	require.NoError(t, err)

	saved, err := store.GetSession(ctx, "sess-1")
	require.NoError(t, err)
	assert.Equal(t, "sess-1", saved.ID)
	assert.Equal(t, "A Study in Scarlet", saved.Title)
	assert.Equal(t, uint64(3), saved.Revision)
	assert.Equal(t, 2, saved.Cursor)
}

func TestSessionStore_SaveSession_Update(t *testing.T) {
	store := NewSessionStore()
	ctx := context.Background()

	session := &domain.Session{ID: "sess-1", Title: "Draft", Revision: 0}
	require.NoError(t, store.SaveSession(ctx, session))

	session.Title = "Final"
	session.Revision = 5
	require.NoError(t, store.SaveSession(ctx, session))

	saved, err := store.GetSession(ctx, "sess-1")
	require.NoError(t, err)
	assert.Equal(t, "Final", saved.Title)
	assert.Equal(t, uint64(5), saved.Revision)
}

func TestSessionStore_SaveSession_CopyIsolation(t *testing.T) {
	store := NewSessionStore()
	ctx := context.Background()

	session := &domain.Session{ID: "sess-1", Title: "Original"}
	require.NoError(t, store.SaveSession(ctx, session))

	// Mutating the caller's struct after save must not leak into the store.
	session.Title = "Mutated"

	saved, err := store.GetSession(ctx, "sess-1")
	require.NoError(t, err)
	assert.Equal(t, "Original", saved.Title)
}

func TestSessionStore_GetSession_NotFound(t *testing.T) {
	store := NewSessionStore()
	ctx := context.Background()

	session, err := store.GetSession(ctx, "nonexistent")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.Nil(t, session)
}

func TestSessionStore_ListSessions_Empty(t *testing.T) {
	store := NewSessionStore()
	ctx := context.Background()

	sessions, err := store.ListSessions(ctx)
	require.NoError(t, err)
	assert.Empty(t, sessions)
}

func TestSessionStore_ListSessions_OrderedByUpdatedAt(t *testing.T) {
	store := NewSessionStore()
	ctx := context.Background()

	base := time.Now().UTC()
	older := &domain.Session{ID: "sess-old", UpdatedAt: base.Add(-time.Hour)}
	newest := &domain.Session{ID: "sess-new", UpdatedAt: base.Add(time.Hour)}
	middle := &domain.Session{ID: "sess-mid", UpdatedAt: base}

	require.NoError(t, store.SaveSession(ctx, older))
	require.NoError(t, store.SaveSession(ctx, newest))
	require.NoError(t, store.SaveSession(ctx, middle))

	sessions, err := store.ListSessions(ctx)
	require.NoError(t, err)
	require.Len(t, sessions, 3)
	assert.Equal(t, "sess-new", sessions[0].ID)
	assert.Equal(t, "sess-mid", sessions[1].ID)
	assert.Equal(t, "sess-old", sessions[2].ID)
}

func TestSessionStore_DeleteSession_Success(t *testing.T) {
	store := NewSessionStore()
	ctx := context.Background()

	session := &domain.Session{ID: "sess-1"}
	require.NoError(t, store.SaveSession(ctx, session))
	require.NoError(t, store.AppendDelta(ctx, "sess-1", 1, domain.NewDeleteDelta(domain.KindCharacter, "char-1")))
	require.NoError(t, store.AppendEvent(ctx, "sess-1", domain.DocEvent{Op: domain.OpAddTag}))

	err := store.DeleteSession(ctx, "sess-1")
	require.NoError(t, err)

	_, err = store.GetSession(ctx, "sess-1")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	// Deltas and events go with the session.
	deltas, err := store.ListDeltas(ctx, "sess-1")
	require.NoError(t, err)
	assert.Empty(t, deltas)

	events, err := store.ListEvents(ctx, "sess-1")
	require.NoError(t, err)
	assert.Empty(t, events)
}

func TestSessionStore_DeleteSession_NotFound(t *testing.T) {
	store := NewSessionStore()
	ctx := context.Background()

	err := store.DeleteSession(ctx, "nonexistent")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestSessionStore_AppendDelta_Sequential(t *testing.T) {
	store := NewSessionStore()
	ctx := context.Background()

	d1 := domain.NewDeleteDelta(domain.KindCharacter, "char-1")
	d2 := domain.NewDeleteDelta(domain.KindPlace, "place-1")

	require.NoError(t, store.AppendDelta(ctx, "sess-1", 1, d1))
	require.NoError(t, store.AppendDelta(ctx, "sess-1", 2, d2))

	deltas, err := store.ListDeltas(ctx, "sess-1")
	require.NoError(t, err)
	require.Len(t, deltas, 2)
	assert.Equal(t, "char-1", deltas[0].TargetID)
	assert.Equal(t, "place-1", deltas[1].TargetID)
}

func TestSessionStore_AppendDelta_OutOfOrder(t *testing.T) {
	store := NewSessionStore()
	ctx := context.Background()

	delta := domain.NewDeleteDelta(domain.KindCharacter, "char-1")

	// Log is empty, so seq 3 leaves a gap.
	err := store.AppendDelta(ctx, "sess-1", 3, delta)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	// Re-appending an already-taken seq is rejected too.
	require.NoError(t, store.AppendDelta(ctx, "sess-1", 1, delta))
	err = store.AppendDelta(ctx, "sess-1", 1, delta)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestSessionStore_TruncateDeltas_DropsSuffix(t *testing.T) {
	store := NewSessionStore()
	ctx := context.Background()

	for i := 1; i <= 4; i++ {
		delta := domain.NewDeleteDelta(domain.KindCharacter, "char-"+string(rune('0'+i)))
		require.NoError(t, store.AppendDelta(ctx, "sess-1", i, delta))
	}

	// Keep deltas 1 and 2, drop 3 and 4.
	err := store.TruncateDeltas(ctx, "sess-1", 3)
	require.NoError(t, err)

	deltas, err := store.ListDeltas(ctx, "sess-1")
	require.NoError(t, err)
	require.Len(t, deltas, 2)
	assert.Equal(t, "char-1", deltas[0].TargetID)
	assert.Equal(t, "char-2", deltas[1].TargetID)

	// The next append lands at seq 3 again.
	require.NoError(t, store.AppendDelta(ctx, "sess-1", 3, domain.NewDeleteDelta(domain.KindPlace, "place-1")))
}

func TestSessionStore_TruncateDeltas_BeyondEnd(t *testing.T) {
	store := NewSessionStore()
	ctx := context.Background()

	require.NoError(t, store.AppendDelta(ctx, "sess-1", 1, domain.NewDeleteDelta(domain.KindCharacter, "char-1")))

	// fromSeq past the log end is a no-op.
	require.NoError(t, store.TruncateDeltas(ctx, "sess-1", 10))

	deltas, err := store.ListDeltas(ctx, "sess-1")
	require.NoError(t, err)
	assert.Len(t, deltas, 1)
}

func TestSessionStore_TruncateDeltas_All(t *testing.T) {
	store := NewSessionStore()
	ctx := context.Background()

	require.NoError(t, store.AppendDelta(ctx, "sess-1", 1, domain.NewDeleteDelta(domain.KindCharacter, "char-1")))
	require.NoError(t, store.TruncateDeltas(ctx, "sess-1", 1))

	deltas, err := store.ListDeltas(ctx, "sess-1")
	require.NoError(t, err)
	assert.Empty(t, deltas)
}

func TestSessionStore_ListDeltas_Isolation(t *testing.T) {
	store := NewSessionStore()
	ctx := context.Background()

	require.NoError(t, store.AppendDelta(ctx, "sess-1", 1, domain.NewDeleteDelta(domain.KindCharacter, "char-1")))
	require.NoError(t, store.AppendDelta(ctx, "sess-2", 1, domain.NewDeleteDelta(domain.KindPlace, "place-1")))

	deltas, err := store.ListDeltas(ctx, "sess-1")
	require.NoError(t, err)
	require.Len(t, deltas, 1)
	assert.Equal(t, "char-1", deltas[0].TargetID)
}

func TestSessionStore_AppendEvent_AssignsSeq(t *testing.T) {
	store := NewSessionStore()
	ctx := context.Background()

	// Caller-provided Seq is overwritten by the store.
	e1 := domain.DocEvent{Seq: 99, Op: domain.OpAddTag, Detail: "<said> [0,5)"}
	e2 := domain.DocEvent{Op: domain.OpRemoveTag, Detail: "<said> [0,5)"}

	require.NoError(t, store.AppendEvent(ctx, "sess-1", e1))
	require.NoError(t, store.AppendEvent(ctx, "sess-1", e2))

	events, err := store.ListEvents(ctx, "sess-1")
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, uint64(1), events[0].Seq)
	assert.Equal(t, uint64(2), events[1].Seq)
	assert.Equal(t, domain.OpAddTag, events[0].Op)
	assert.Equal(t, domain.OpRemoveTag, events[1].Op)
}

func TestSessionStore_ListEvents_Empty(t *testing.T) {
	store := NewSessionStore()
	ctx := context.Background()

	events, err := store.ListEvents(ctx, "nonexistent")
	require.NoError(t, err)
	assert.Empty(t, events)
}
