package services

import (
	"github.com/custodia-labs/glossa-cli/internal/core/domain"
	"github.com/custodia-labs/glossa-cli/internal/core/ports/driving"
)

// History is the undo/redo engine: an append-only delta log with a
// cursor. Undo and redo only move the cursor; applying a new delta
// after undoing truncates the undone suffix first, giving linear
// history semantics.
//
// State is reconstructed by full replay of the log prefix below the
// cursor, never by incremental mutation, so the cursor position alone
// fully determines the entity state.
type History struct {
	entities driving.EntityEditor
	log      []domain.EntityDelta
	pos      int
}

// NewHistory builds an engine over an existing log with the cursor at
// pos, clamped into [0, len(log)].
func NewHistory(entities driving.EntityEditor, log []domain.EntityDelta, pos int) *History {
	if pos < 0 {
		pos = 0
	}
	if pos > len(log) {
		pos = len(log)
	}
	return &History{
		entities: entities,
		log:      append([]domain.EntityDelta(nil), log...),
		pos:      pos,
	}
}

// Apply validates the delta against the current state and appends it
// at the cursor, discarding any redo suffix. On validation failure the
// log and cursor are untouched.
func (h *History) Apply(delta domain.EntityDelta) []domain.ValidationError {
	if _, errs := h.entities.Apply(h.State(), delta); len(errs) > 0 {
		return errs
	}
	h.log = append(h.log[:h.pos:h.pos], delta)
	h.pos++
	return nil
}

// Undo steps the cursor back one delta. Returns false at position 0.
func (h *History) Undo() bool {
	if h.pos == 0 {
		return false
	}
	h.pos--
	return true
}

// Redo steps the cursor forward one delta. Returns false at the head.
func (h *History) Redo() bool {
	if h.pos == len(h.log) {
		return false
	}
	h.pos++
	return true
}

// State replays the log up to the cursor from the empty set.
func (h *History) State() domain.EntitySet {
	return h.StateAt(h.pos)
}

// StateAt replays the log up to pos from the empty set. Entries were
// validated when appended; an entry that fails re-validation leaves
// the set unchanged.
func (h *History) StateAt(pos int) domain.EntitySet {
	if pos < 0 {
		pos = 0
	}
	if pos > len(h.log) {
		pos = len(h.log)
	}
	set := domain.EntitySet{}
	for _, delta := range h.log[:pos] {
		set, _ = h.entities.Apply(set, delta)
	}
	return set
}

// Log returns a copy of the full delta log, including any redo suffix.
func (h *History) Log() []domain.EntityDelta {
	return append([]domain.EntityDelta(nil), h.log...)
}

// Position returns the cursor position in [0, len(log)].
func (h *History) Position() int { return h.pos }

// CanUndo reports whether an undo would move the cursor.
func (h *History) CanUndo() bool { return h.pos > 0 }

// CanRedo reports whether a redo would move the cursor.
func (h *History) CanRedo() bool { return h.pos < len(h.log) }
