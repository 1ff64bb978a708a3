package domain

import (
	"strconv"
	"strings"
	"unicode"
)

// EntityKind discriminates the entity variants in the standoff collection.
type EntityKind string

const (
	// KindCharacter is a person appearing in or speaking within the text.
	KindCharacter EntityKind = "character"

	// KindPlace is a location.
	KindPlace EntityKind = "place"

	// KindOrganization is an institution or group.
	KindOrganization EntityKind = "organization"

	// KindRelationship is a link between two entities. Used only to
	// address relationships in deltas; relationships are not entities.
	KindRelationship EntityKind = "relationship"
)

// Valid reports whether k names a concrete entity variant.
func (k EntityKind) Valid() bool {
	switch k {
	case KindCharacter, KindPlace, KindOrganization:
		return true
	}
	return false
}

// Entity is one record in the standoff collection. The same shape serves
// characters, places, and organizations; Kind discriminates.
type Entity struct {
	// ID is the runtime identifier. Never equal to XMLID.
	ID string

	// XMLID is the markup identifier referenced by IDREF attributes
	// (who="#jane"). Derived from Name at creation and immutable
	// thereafter, so renames never break references.
	XMLID string

	// Kind discriminates character, place, organization.
	Kind EntityKind

	// Name is the display name.
	Name string

	// Subtype is a kind-specific classification, e.g. "city" for a
	// place or "military" for an organization. Empty for characters.
	Subtype string

	// Note is free-form descriptive text.
	Note string

	// Archived marks the entity as retired without deleting it.
	// Archived entities keep their identity and still resolve IDREFs.
	Archived bool
}

// EntitySet is the standoff collection attached to a document. The
// zero value is the empty set. Sets are treated as immutable; use
// Clone before building a modified copy.
type EntitySet struct {
	Characters    []Entity
	Places        []Entity
	Organizations []Entity
	Relationships []Relationship
}

// Empty reports whether the set holds no records at all.
func (s EntitySet) Empty() bool {
	return len(s.Characters) == 0 && len(s.Places) == 0 &&
		len(s.Organizations) == 0 && len(s.Relationships) == 0
}

// All returns every entity across the three variants, characters first.
func (s EntitySet) All() []Entity {
	out := make([]Entity, 0, len(s.Characters)+len(s.Places)+len(s.Organizations))
	out = append(out, s.Characters...)
	out = append(out, s.Places...)
	out = append(out, s.Organizations...)
	return out
}

// ByID returns the entity with the given runtime ID, or nil.
func (s EntitySet) ByID(id string) *Entity {
	for _, list := range [][]Entity{s.Characters, s.Places, s.Organizations} {
		for i := range list {
			if list[i].ID == id {
				return &list[i]
			}
		}
	}
	return nil
}

// ByXMLID returns the entity with the given markup identifier, or nil.
func (s EntitySet) ByXMLID(xmlID string) *Entity {
	for _, list := range [][]Entity{s.Characters, s.Places, s.Organizations} {
		for i := range list {
			if list[i].XMLID == xmlID {
				return &list[i]
			}
		}
	}
	return nil
}

// Relationship returns the relationship with the given ID, or nil.
func (s EntitySet) Relationship(id string) *Relationship {
	for i := range s.Relationships {
		if s.Relationships[i].ID == id {
			return &s.Relationships[i]
		}
	}
	return nil
}

// RelationshipsWith returns every relationship whose endpoints include
// the given xml:id.
func (s EntitySet) RelationshipsWith(xmlID string) []Relationship {
	var out []Relationship
	for _, r := range s.Relationships {
		if r.From == xmlID || r.To == xmlID {
			out = append(out, r)
		}
	}
	return out
}

// Clone returns a deep copy of the set. Modifying the copy never
// affects the original.
func (s EntitySet) Clone() EntitySet {
	out := EntitySet{}
	if len(s.Characters) > 0 {
		out.Characters = append([]Entity(nil), s.Characters...)
	}
	if len(s.Places) > 0 {
		out.Places = append([]Entity(nil), s.Places...)
	}
	if len(s.Organizations) > 0 {
		out.Organizations = append([]Entity(nil), s.Organizations...)
	}
	if len(s.Relationships) > 0 {
		out.Relationships = append([]Relationship(nil), s.Relationships...)
	}
	return out
}

// kindList returns the slice holding the given kind. The returned
// pointer addresses the set's own backing slice.
func (s *EntitySet) kindList(kind EntityKind) *[]Entity {
	switch kind {
	case KindCharacter:
		return &s.Characters
	case KindPlace:
		return &s.Places
	case KindOrganization:
		return &s.Organizations
	}
	return nil
}

// Insert appends an entity to its kind's list.
func (s *EntitySet) Insert(e Entity) {
	if list := s.kindList(e.Kind); list != nil {
		*list = append(*list, e)
	}
}

// Remove deletes the entity with the given ID. Returns false when absent.
func (s *EntitySet) Remove(id string) bool {
	for _, kind := range []EntityKind{KindCharacter, KindPlace, KindOrganization} {
		list := s.kindList(kind)
		for i := range *list {
			if (*list)[i].ID == id {
				*list = append((*list)[:i], (*list)[i+1:]...)
				return true
			}
		}
	}
	return false
}

// Slugify derives a markup identifier from a display name: lower-cased,
// runs of non-alphanumeric characters collapsed to single hyphens,
// leading and trailing hyphens trimmed. "Sherlock Holmes" becomes
// "sherlock-holmes".
func Slugify(name string) string {
	var b strings.Builder
	lastHyphen := true
	for _, r := range strings.ToLower(name) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			lastHyphen = false
			continue
		}
		if !lastHyphen {
			b.WriteByte('-')
			lastHyphen = true
		}
	}
	return strings.TrimRight(b.String(), "-")
}

// UniqueXMLID returns base if no entity in the set uses it, otherwise
// base-2, base-3, and so on.
func (s EntitySet) UniqueXMLID(base string) string {
	if base == "" {
		base = "entity"
	}
	if s.ByXMLID(base) == nil {
		return base
	}
	for i := 2; ; i++ {
		candidate := base + "-" + strconv.Itoa(i)
		if s.ByXMLID(candidate) == nil {
			return candidate
		}
	}
}
