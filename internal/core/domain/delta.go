package domain

import "time"

// DeltaKind names the operation an EntityDelta performs.
type DeltaKind string

const (
	// DeltaCreate inserts a new entity or relationship.
	DeltaCreate DeltaKind = "create"

	// DeltaUpdate applies a partial update to an existing entity.
	DeltaUpdate DeltaKind = "update"

	// DeltaDelete removes an entity or relationship.
	DeltaDelete DeltaKind = "delete"
)

// Valid reports whether k is a known delta kind.
func (k DeltaKind) Valid() bool {
	switch k {
	case DeltaCreate, DeltaUpdate, DeltaDelete:
		return true
	}
	return false
}

// EntityUpdate is the partial payload of an update delta. Nil fields
// leave the corresponding entity field unchanged. XMLID is absent on
// purpose: markup identifiers are immutable after creation.
type EntityUpdate struct {
	Name     *string
	Subtype  *string
	Note     *string
	Archived *bool
}

// EntityDelta is the unit of the append-only change log. Replaying a
// log prefix from the empty set reconstructs the entity collection at
// that point, so a delta must carry everything its application needs.
type EntityDelta struct {
	// Kind is the operation.
	Kind DeltaKind

	// EntityKind says what the delta addresses: a character, place,
	// organization, or relationship.
	EntityKind EntityKind

	// Entity is the full payload of a create. Nil otherwise.
	Entity *Entity

	// Relationship is the full payload of a relationship create.
	// Nil otherwise.
	Relationship *Relationship

	// TargetID addresses the record an update or delete applies to.
	TargetID string

	// Update is the partial payload of an update. Nil otherwise.
	Update *EntityUpdate

	// At is when the delta was authored. Informational; replay
	// ignores it.
	At time.Time
}

// NewCreateDelta builds a create delta for an entity.
func NewCreateDelta(e Entity) EntityDelta {
	copied := e
	return EntityDelta{
		Kind:       DeltaCreate,
		EntityKind: e.Kind,
		Entity:     &copied,
		At:         time.Now().UTC(),
	}
}

// NewUpdateDelta builds a partial update delta for an entity.
func NewUpdateDelta(kind EntityKind, targetID string, update EntityUpdate) EntityDelta {
	copied := update
	return EntityDelta{
		Kind:       DeltaUpdate,
		EntityKind: kind,
		TargetID:   targetID,
		Update:     &copied,
		At:         time.Now().UTC(),
	}
}

// NewDeleteDelta builds a delete delta for an entity.
func NewDeleteDelta(kind EntityKind, targetID string) EntityDelta {
	return EntityDelta{
		Kind:       DeltaDelete,
		EntityKind: kind,
		TargetID:   targetID,
		At:         time.Now().UTC(),
	}
}

// NewRelationDelta builds a create delta for a relationship. A mutual
// relationship expands to its reciprocal pair at application time.
func NewRelationDelta(rel Relationship) EntityDelta {
	copied := rel
	return EntityDelta{
		Kind:         DeltaCreate,
		EntityKind:   KindRelationship,
		Relationship: &copied,
		At:           time.Now().UTC(),
	}
}

// NewRelationDeleteDelta builds a delete delta for a relationship.
func NewRelationDeleteDelta(targetID string) EntityDelta {
	return EntityDelta{
		Kind:       DeltaDelete,
		EntityKind: KindRelationship,
		TargetID:   targetID,
		At:         time.Now().UTC(),
	}
}
