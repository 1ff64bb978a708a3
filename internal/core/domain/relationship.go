package domain

// Relationship is a directed link between two entities, addressed by
// their xml:ids so the record survives entity renames and round-trips
// through markup unchanged.
//
// A mutual relationship is stored as two reciprocal records, one per
// direction, both with Mutual set. Serialization collapses a reciprocal
// pair back to a single relation element.
type Relationship struct {
	// ID is the runtime identifier.
	ID string

	// Type is the relationship category, e.g. "personal" or "social".
	Type string

	// Subtype refines the type, e.g. "siblings" or "engaged".
	Subtype string

	// From is the xml:id of the source entity (the active party for
	// directed relationships).
	From string

	// To is the xml:id of the target entity.
	To string

	// Mutual marks the record as one half of a reciprocal pair.
	Mutual bool
}

// Reciprocates reports whether other is the reverse direction of r
// with the same type and subtype. Only meaningful for mutual records.
func (r Relationship) Reciprocates(other Relationship) bool {
	return r.Type == other.Type && r.Subtype == other.Subtype &&
		r.From == other.To && r.To == other.From &&
		r.Mutual && other.Mutual
}

// FindReciprocal returns the index of the reciprocal half of rel in the
// set's relationship list, or -1.
func (s EntitySet) FindReciprocal(rel Relationship) int {
	for i, other := range s.Relationships {
		if other.ID != rel.ID && rel.Reciprocates(other) {
			return i
		}
	}
	return -1
}

// RemoveRelationship deletes the relationship with the given ID and,
// for mutual records, its reciprocal half. Returns false when absent.
func (s *EntitySet) RemoveRelationship(id string) bool {
	target := s.Relationship(id)
	if target == nil {
		return false
	}
	rel := *target
	keep := s.Relationships[:0:0]
	recip := -1
	if rel.Mutual {
		recip = s.FindReciprocal(rel)
	}
	for i, other := range s.Relationships {
		if other.ID == id || i == recip {
			continue
		}
		keep = append(keep, other)
	}
	s.Relationships = keep
	return true
}
