package domain

import (
	"fmt"
	"time"
)

// Session is one open document with its persisted editing state.
// The markup text is the document's canonical on-disk form; the delta
// log and cursor live beside it in the session store.
type Session struct {
	// ID is the unique session identifier.
	ID string

	// Path is the file the document was opened from.
	Path string

	// Title is the document title at open time, for listings.
	Title string

	// Markup is the current serialized document text.
	Markup string

	// Revision mirrors the document revision after the last applied
	// mutation.
	Revision uint64

	// Cursor is the undo/redo position within the delta log.
	Cursor int

	// CreatedAt is when the session was opened.
	CreatedAt time.Time

	// UpdatedAt is when the session last changed.
	UpdatedAt time.Time
}

// DocKey is the report cache key component for this session's document
// state. Undo and redo move the cursor without bumping the revision, so
// the key carries both: a cursor move must never be served a report
// cached for the state it just left.
func (s Session) DocKey() string {
	return fmt.Sprintf("%s@%d", s.ID, s.Cursor)
}

// Document event operations recorded in the session audit trail.
const (
	// OpAddTag records a tag addition.
	OpAddTag = "tag.add"

	// OpRemoveTag records a tag removal.
	OpRemoveTag = "tag.remove"

	// OpSetTagAttrs records a tag attribute change.
	OpSetTagAttrs = "tag.set-attrs"
)

// DocEvent is one entry of the session's document audit trail. Events
// record applied tag mutations for inspection; they are not the undo
// log and are never replayed.
type DocEvent struct {
	// Seq is the position in the trail, from 1. Assigned by the store
	// on append.
	Seq uint64

	// Op is the operation, one of the Op constants.
	Op string

	// PassageID is the passage the operation touched.
	PassageID string

	// TagID is the tag the operation touched.
	TagID string

	// Detail is a short human-readable summary.
	Detail string

	// At is when the mutation was applied.
	At time.Time
}
