package services

import (
	"fmt"
	"strings"

	"github.com/custodia-labs/glossa-cli/internal/core/domain"
	"github.com/custodia-labs/glossa-cli/internal/core/ports/driving"
)

// EntityService builds and applies entity deltas. Apply is pure and
// deterministic: the same delta folded into the same set always yields
// the same result, which is what makes full history replay sound.
type EntityService struct{}

// NewEntityService creates an entity editor.
func NewEntityService() *EntityService {
	return &EntityService{}
}

// Ensure EntityService implements the driving port.
var _ driving.EntityEditor = (*EntityService)(nil)

// Apply implements driving.EntityEditor.
func (s *EntityService) Apply(set domain.EntitySet, delta domain.EntityDelta) (domain.EntitySet, []domain.ValidationError) {
	switch delta.Kind {
	case domain.DeltaCreate:
		if delta.EntityKind == domain.KindRelationship {
			return applyRelationCreate(set, delta)
		}
		return applyEntityCreate(set, delta)
	case domain.DeltaUpdate:
		return applyEntityUpdate(set, delta)
	case domain.DeltaDelete:
		if delta.EntityKind == domain.KindRelationship {
			return applyRelationDelete(set, delta)
		}
		return applyEntityDelete(set, delta)
	}
	return set, []domain.ValidationError{{
		Code:    domain.CodeUnknownEntityKind,
		Message: fmt.Sprintf("unsupported delta kind %q", delta.Kind),
	}}
}

// ApplyToDocument implements driving.EntityEditor.
func (s *EntityService) ApplyToDocument(doc *domain.Document, delta domain.EntityDelta) (*domain.Document, []domain.ValidationError) {
	errs := checkTagReferences(doc, delta)
	newSet, applyErrs := s.Apply(doc.Entities, delta)
	errs = append(errs, applyErrs...)
	if len(errs) > 0 {
		return nil, errs
	}
	out := *doc
	out.Revision = doc.Revision + 1
	out.Entities = newSet
	return &out, nil
}

// NewEntity implements driving.EntityEditor.
func (s *EntityService) NewEntity(set domain.EntitySet, kind domain.EntityKind, name, subtype, note string) (domain.EntityDelta, []domain.ValidationError) {
	var errs []domain.ValidationError
	if !kind.Valid() {
		errs = append(errs, domain.ValidationError{
			Code:    domain.CodeUnknownEntityKind,
			Message: fmt.Sprintf("unknown entity kind %q", kind),
		})
	}
	if strings.TrimSpace(name) == "" {
		errs = append(errs, domain.ValidationError{
			Code:    domain.CodeEmptyName,
			Message: "entity name must not be empty",
		})
	}
	if len(errs) > 0 {
		return domain.EntityDelta{}, errs
	}

	xmlID := set.UniqueXMLID(domain.Slugify(name))
	return domain.NewCreateDelta(domain.Entity{
		ID:      entityID(kind, xmlID),
		XMLID:   xmlID,
		Kind:    kind,
		Name:    name,
		Subtype: subtype,
		Note:    note,
	}), nil
}

// NewRelation implements driving.EntityEditor.
func (s *EntityService) NewRelation(set domain.EntitySet, from, to, relType, subtype string, mutual bool) (domain.EntityDelta, []domain.ValidationError) {
	rel := domain.Relationship{
		ID:      relationID(relType, subtype, from, to, mutual),
		Type:    relType,
		Subtype: subtype,
		From:    from,
		To:      to,
		Mutual:  mutual,
	}
	if errs := checkRelation(set, rel); len(errs) > 0 {
		return domain.EntityDelta{}, errs
	}
	return domain.NewRelationDelta(rel), nil
}

// applyEntityCreate validates and inserts an entity. Deltas missing an
// xml:id or runtime ID get them derived, so handcrafted deltas behave
// like ones built by NewEntity.
func applyEntityCreate(set domain.EntitySet, delta domain.EntityDelta) (domain.EntitySet, []domain.ValidationError) {
	if delta.Entity == nil {
		return set, []domain.ValidationError{{
			Code:    domain.CodeUnknownEntityKind,
			Message: "create delta has no entity payload",
		}}
	}
	e := *delta.Entity
	var errs []domain.ValidationError
	if !e.Kind.Valid() {
		errs = append(errs, domain.ValidationError{
			Code:    domain.CodeUnknownEntityKind,
			Message: fmt.Sprintf("unknown entity kind %q", e.Kind),
		})
	}
	if strings.TrimSpace(e.Name) == "" && e.XMLID == "" {
		errs = append(errs, domain.ValidationError{
			Code:    domain.CodeEmptyName,
			Message: "entity name must not be empty",
		})
	}
	if len(errs) > 0 {
		return set, errs
	}

	if e.XMLID == "" {
		e.XMLID = set.UniqueXMLID(domain.Slugify(e.Name))
	} else if set.ByXMLID(e.XMLID) != nil {
		return set, []domain.ValidationError{{
			Code:    domain.CodeDuplicateXMLID,
			Message: fmt.Sprintf("xml:id %q is already in use", e.XMLID),
			Path:    "entity/" + e.XMLID,
		}}
	}
	if e.ID == "" {
		e.ID = entityID(e.Kind, e.XMLID)
	}

	out := set.Clone()
	out.Insert(e)
	return out, nil
}

// applyEntityUpdate applies a partial update to an existing entity.
// The xml:id is immutable and has no update field.
func applyEntityUpdate(set domain.EntitySet, delta domain.EntityDelta) (domain.EntitySet, []domain.ValidationError) {
	if delta.EntityKind == domain.KindRelationship {
		return set, []domain.ValidationError{{
			Code:    domain.CodeUnknownEntityKind,
			Message: "relationships cannot be updated; delete and recreate",
		}}
	}
	if set.ByID(delta.TargetID) == nil {
		return set, []domain.ValidationError{{
			Code:    domain.CodeEntityNotFound,
			Message: fmt.Sprintf("no entity with ID %q", delta.TargetID),
		}}
	}
	update := delta.Update
	if update == nil {
		update = &domain.EntityUpdate{}
	}
	if update.Name != nil && strings.TrimSpace(*update.Name) == "" {
		return set, []domain.ValidationError{{
			Code:    domain.CodeEmptyName,
			Message: "entity name must not be empty",
		}}
	}

	out := set.Clone()
	e := out.ByID(delta.TargetID)
	if update.Name != nil {
		e.Name = *update.Name
	}
	if update.Subtype != nil {
		e.Subtype = *update.Subtype
	}
	if update.Note != nil {
		e.Note = *update.Note
	}
	if update.Archived != nil {
		e.Archived = *update.Archived
	}
	return out, nil
}

// applyEntityDelete removes an entity unless relationships still
// reference it. Each blocking relationship is reported with an
// archive-instead fix.
func applyEntityDelete(set domain.EntitySet, delta domain.EntityDelta) (domain.EntitySet, []domain.ValidationError) {
	e := set.ByID(delta.TargetID)
	if e == nil {
		return set, []domain.ValidationError{{
			Code:    domain.CodeEntityNotFound,
			Message: fmt.Sprintf("no entity with ID %q", delta.TargetID),
		}}
	}

	var errs []domain.ValidationError
	for _, rel := range set.RelationshipsWith(e.XMLID) {
		errs = append(errs, domain.ValidationError{
			Code: domain.CodeEntityInUse,
			Message: fmt.Sprintf("%q is referenced by %s relationship %s",
				e.Name, relationLabel(rel), rel.ID),
			Path: "entity/" + e.XMLID,
			Fix:  domain.ArchiveInstead{EntityID: e.ID},
		})
	}
	if len(errs) > 0 {
		return set, errs
	}

	out := set.Clone()
	out.Remove(e.ID)
	return out, nil
}

func relationLabel(rel domain.Relationship) string {
	if rel.Subtype != "" {
		return rel.Type + "/" + rel.Subtype
	}
	if rel.Type != "" {
		return rel.Type
	}
	return "a"
}

// applyRelationCreate validates and inserts a relationship. Mutual
// relationships insert the reciprocal record alongside, with its ID
// derived from the reversed endpoints so replay reproduces it exactly.
func applyRelationCreate(set domain.EntitySet, delta domain.EntityDelta) (domain.EntitySet, []domain.ValidationError) {
	if delta.Relationship == nil {
		return set, []domain.ValidationError{{
			Code:    domain.CodeUnknownEntityKind,
			Message: "create delta has no relationship payload",
		}}
	}
	rel := *delta.Relationship
	if rel.ID == "" {
		rel.ID = relationID(rel.Type, rel.Subtype, rel.From, rel.To, rel.Mutual)
	}
	if errs := checkRelation(set, rel); len(errs) > 0 {
		return set, errs
	}

	out := set.Clone()
	out.Relationships = append(out.Relationships, rel)
	if rel.Mutual && out.FindReciprocal(rel) == -1 {
		out.Relationships = append(out.Relationships, domain.Relationship{
			ID:      relationID(rel.Type, rel.Subtype, rel.To, rel.From, true),
			Type:    rel.Type,
			Subtype: rel.Subtype,
			From:    rel.To,
			To:      rel.From,
			Mutual:  true,
		})
	}
	return out, nil
}

// checkRelation validates a relationship record against the set:
// endpoints must resolve, differ, and not duplicate an existing
// relationship of the same type.
func checkRelation(set domain.EntitySet, rel domain.Relationship) []domain.ValidationError {
	var errs []domain.ValidationError
	for _, end := range []string{rel.From, rel.To} {
		if end == "" || set.ByXMLID(end) == nil {
			errs = append(errs, domain.ValidationError{
				Code:    domain.CodeDanglingIDRef,
				Message: fmt.Sprintf("relationship endpoint #%s does not resolve to an entity", end),
			})
		}
	}
	if rel.From != "" && rel.From == rel.To {
		errs = append(errs, domain.ValidationError{
			Code:    domain.CodeSelfRelation,
			Message: fmt.Sprintf("relationship links %q to itself", rel.From),
		})
	}
	for _, ex := range set.Relationships {
		if ex.Type != rel.Type || ex.Subtype != rel.Subtype {
			continue
		}
		duplicate := ex.From == rel.From && ex.To == rel.To
		if rel.Mutual && ex.Mutual && ex.From == rel.To && ex.To == rel.From {
			duplicate = true
		}
		if duplicate {
			errs = append(errs, domain.ValidationError{
				Code: domain.CodeDuplicateRelation,
				Message: fmt.Sprintf("a %s relationship between #%s and #%s already exists",
					relationLabel(rel), rel.From, rel.To),
			})
			break
		}
	}
	return errs
}

// applyRelationDelete removes a relationship and, for mutual records,
// its reciprocal half.
func applyRelationDelete(set domain.EntitySet, delta domain.EntityDelta) (domain.EntitySet, []domain.ValidationError) {
	if set.Relationship(delta.TargetID) == nil {
		return set, []domain.ValidationError{{
			Code:    domain.CodeRelationNotFound,
			Message: fmt.Sprintf("no relationship with ID %q", delta.TargetID),
		}}
	}
	out := set.Clone()
	out.RemoveRelationship(delta.TargetID)
	return out, nil
}

// checkTagReferences blocks entity deletes while document tags still
// point at the entity through reference attributes.
func checkTagReferences(doc *domain.Document, delta domain.EntityDelta) []domain.ValidationError {
	if delta.Kind != domain.DeltaDelete || delta.EntityKind == domain.KindRelationship {
		return nil
	}
	e := doc.Entities.ByID(delta.TargetID)
	if e == nil {
		return nil // Apply reports the missing entity
	}

	var errs []domain.ValidationError
	for _, p := range doc.Passages {
		for _, t := range p.Tags {
			for name, value := range t.Attrs {
				if !wellKnownRefs[name] {
					continue
				}
				for _, ref := range refList(value) {
					if ref != e.XMLID {
						continue
					}
					errs = append(errs, domain.ValidationError{
						Code: domain.CodeEntityInUse,
						Message: fmt.Sprintf("%q is referenced by tag <%s> (%s) in passage %d",
							e.Name, t.Type, t.ID, p.Index),
						Path: fmt.Sprintf("passage[%d]/%s", p.Index, t.Type),
						Fix:  domain.ArchiveInstead{EntityID: e.ID},
					})
				}
			}
		}
	}
	return errs
}
