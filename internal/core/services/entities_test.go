package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/glossa-cli/internal/core/domain"
)

// castSet builds an entity set with two characters and a place.
func castSet() domain.EntitySet {
	var set domain.EntitySet
	set.Insert(domain.Entity{
		ID: entityID(domain.KindCharacter, "jane"), XMLID: "jane",
		Kind: domain.KindCharacter, Name: "Jane Eyre",
	})
	set.Insert(domain.Entity{
		ID: entityID(domain.KindCharacter, "rochester"), XMLID: "rochester",
		Kind: domain.KindCharacter, Name: "Edward Rochester",
	})
	set.Insert(domain.Entity{
		ID: entityID(domain.KindPlace, "thornfield"), XMLID: "thornfield",
		Kind: domain.KindPlace, Name: "Thornfield Hall",
	})
	return set
}

func strPtr(s string) *string { return &s }
func boolPtr(b bool) *bool    { return &b }

func TestEntityService_NewEntity_Success(t *testing.T) {
	svc := NewEntityService()
	set := castSet()

	delta, errs := svc.NewEntity(set, domain.KindCharacter, "Sherlock Holmes", "protagonist", "Consulting detective.")
	require.Empty(t, errs)

	assert.Equal(t, domain.DeltaCreate, delta.Kind)
	assert.Equal(t, domain.KindCharacter, delta.EntityKind)
	require.NotNil(t, delta.Entity)
	assert.Equal(t, "sherlock-holmes", delta.Entity.XMLID)
	assert.Equal(t, "Sherlock Holmes", delta.Entity.Name)
	assert.Equal(t, "protagonist", delta.Entity.Subtype)

	// The runtime ID is derived and distinct from the markup identifier.
	assert.NotEmpty(t, delta.Entity.ID)
	assert.NotEqual(t, delta.Entity.XMLID, delta.Entity.ID)
}

func TestEntityService_NewEntity_SlugCollision(t *testing.T) {
	svc := NewEntityService()
	set := castSet()

	// "jane-eyre" is free even though "jane" is taken.
	delta, errs := svc.NewEntity(set, domain.KindCharacter, "Jane Eyre", "", "")
	require.Empty(t, errs)
	assert.Equal(t, "jane-eyre", delta.Entity.XMLID)

	// A name slugging onto a taken identifier is disambiguated.
	delta2, errs := svc.NewEntity(set, domain.KindPlace, "Thornfield", "", "")
	require.Empty(t, errs)
	assert.Equal(t, "thornfield-2", delta2.Entity.XMLID)
}

func TestEntityService_NewEntity_Invalid(t *testing.T) {
	svc := NewEntityService()
	set := castSet()

	_, errs := svc.NewEntity(set, domain.EntityKind("ghost"), "Someone", "", "")
	require.Len(t, errs, 1)
	assert.Equal(t, domain.CodeUnknownEntityKind, errs[0].Code)

	_, errs = svc.NewEntity(set, domain.KindCharacter, "   ", "", "")
	require.Len(t, errs, 1)
	assert.Equal(t, domain.CodeEmptyName, errs[0].Code)
}

func TestEntityService_Apply_Create(t *testing.T) {
	svc := NewEntityService()
	set := castSet()

	delta, errs := svc.NewEntity(set, domain.KindOrganization, "Scotland Yard", "", "")
	require.Empty(t, errs)

	out, errs := svc.Apply(set, delta)
	require.Empty(t, errs)
	require.Len(t, out.Organizations, 1)
	assert.Equal(t, "Scotland Yard", out.Organizations[0].Name)

	// The input set is untouched.
	assert.Empty(t, set.Organizations)
}

func TestEntityService_Apply_Create_DuplicateXMLID(t *testing.T) {
	svc := NewEntityService()
	set := castSet()

	delta := domain.NewCreateDelta(domain.Entity{
		XMLID: "jane", Kind: domain.KindCharacter, Name: "Another Jane",
	})
	out, errs := svc.Apply(set, delta)
	require.Len(t, errs, 1)
	assert.Equal(t, domain.CodeDuplicateXMLID, errs[0].Code)
	assert.Equal(t, set, out)
}

func TestEntityService_Apply_Create_DerivesMissingIDs(t *testing.T) {
	svc := NewEntityService()
	set := castSet()

	// A handcrafted delta without identifiers behaves like one built
	// by NewEntity.
	delta := domain.NewCreateDelta(domain.Entity{
		Kind: domain.KindCharacter, Name: "Bertha Mason",
	})
	out, errs := svc.Apply(set, delta)
	require.Empty(t, errs)

	e := out.ByXMLID("bertha-mason")
	require.NotNil(t, e)
	assert.NotEmpty(t, e.ID)
}

func TestEntityService_Apply_Update(t *testing.T) {
	svc := NewEntityService()
	set := castSet()
	target := set.ByXMLID("jane").ID

	delta := domain.NewUpdateDelta(domain.KindCharacter, target, domain.EntityUpdate{
		Name: strPtr("Jane Rochester"),
		Note: strPtr("Married in the final chapter."),
	})
	out, errs := svc.Apply(set, delta)
	require.Empty(t, errs)

	e := out.ByID(target)
	require.NotNil(t, e)
	assert.Equal(t, "Jane Rochester", e.Name)
	assert.Equal(t, "Married in the final chapter.", e.Note)
	// Unset fields stay as they were.
	assert.Equal(t, "jane", e.XMLID)
	assert.False(t, e.Archived)

	// The input set keeps the old name.
	assert.Equal(t, "Jane Eyre", set.ByID(target).Name)
}

func TestEntityService_Apply_Update_Archive(t *testing.T) {
	svc := NewEntityService()
	set := castSet()
	target := set.ByXMLID("rochester").ID

	delta := domain.NewUpdateDelta(domain.KindCharacter, target, domain.EntityUpdate{
		Archived: boolPtr(true),
	})
	out, errs := svc.Apply(set, delta)
	require.Empty(t, errs)
	assert.True(t, out.ByID(target).Archived)
	assert.Equal(t, "Edward Rochester", out.ByID(target).Name)
}

func TestEntityService_Apply_Update_Errors(t *testing.T) {
	svc := NewEntityService()
	set := castSet()

	_, errs := svc.Apply(set, domain.NewUpdateDelta(domain.KindCharacter, "missing", domain.EntityUpdate{}))
	require.Len(t, errs, 1)
	assert.Equal(t, domain.CodeEntityNotFound, errs[0].Code)

	target := set.ByXMLID("jane").ID
	_, errs = svc.Apply(set, domain.NewUpdateDelta(domain.KindCharacter, target, domain.EntityUpdate{
		Name: strPtr("   "),
	}))
	require.Len(t, errs, 1)
	assert.Equal(t, domain.CodeEmptyName, errs[0].Code)

	_, errs = svc.Apply(set, domain.NewUpdateDelta(domain.KindRelationship, "rel-1", domain.EntityUpdate{}))
	require.Len(t, errs, 1)
	assert.Equal(t, domain.CodeUnknownEntityKind, errs[0].Code)
}

func TestEntityService_Apply_Delete(t *testing.T) {
	svc := NewEntityService()
	set := castSet()
	target := set.ByXMLID("thornfield").ID

	out, errs := svc.Apply(set, domain.NewDeleteDelta(domain.KindPlace, target))
	require.Empty(t, errs)
	assert.Nil(t, out.ByID(target))
	assert.Empty(t, out.Places)

	// The input set still has the place.
	assert.NotNil(t, set.ByID(target))
}

func TestEntityService_Apply_Delete_BlockedByRelationship(t *testing.T) {
	svc := NewEntityService()
	set := castSet()

	relDelta, errs := svc.NewRelation(set, "jane", "rochester", "social", "spouse", true)
	require.Empty(t, errs)
	set, errs = svc.Apply(set, relDelta)
	require.Empty(t, errs)

	target := set.ByXMLID("jane").ID
	out, errs := svc.Apply(set, domain.NewDeleteDelta(domain.KindCharacter, target))

	// Both reciprocal records block; each one is named.
	require.Len(t, errs, 2)
	for _, ve := range errs {
		assert.Equal(t, domain.CodeEntityInUse, ve.Code)
		assert.Contains(t, ve.Message, "social/spouse")
		fix, ok := ve.Fix.(domain.ArchiveInstead)
		require.True(t, ok)
		assert.Equal(t, target, fix.EntityID)
	}
	assert.Equal(t, set, out)
}

func TestEntityService_Apply_Delete_NotFound(t *testing.T) {
	svc := NewEntityService()
	set := castSet()

	_, errs := svc.Apply(set, domain.NewDeleteDelta(domain.KindCharacter, "missing"))
	require.Len(t, errs, 1)
	assert.Equal(t, domain.CodeEntityNotFound, errs[0].Code)
}

func TestEntityService_NewRelation_Errors(t *testing.T) {
	svc := NewEntityService()
	set := castSet()

	_, errs := svc.NewRelation(set, "jane", "nobody", "social", "", false)
	require.Len(t, errs, 1)
	assert.Equal(t, domain.CodeDanglingIDRef, errs[0].Code)

	_, errs = svc.NewRelation(set, "jane", "jane", "social", "", false)
	require.Len(t, errs, 1)
	assert.Equal(t, domain.CodeSelfRelation, errs[0].Code)
}

func TestEntityService_Apply_RelationCreate_Mutual(t *testing.T) {
	svc := NewEntityService()
	set := castSet()

	delta, errs := svc.NewRelation(set, "jane", "rochester", "social", "spouse", true)
	require.Empty(t, errs)

	out, errs := svc.Apply(set, delta)
	require.Empty(t, errs)

	// One mutual delta materializes as exactly two reciprocal records.
	require.Len(t, out.Relationships, 2)
	fwd, rev := out.Relationships[0], out.Relationships[1]
	assert.Equal(t, "jane", fwd.From)
	assert.Equal(t, "rochester", fwd.To)
	assert.Equal(t, "rochester", rev.From)
	assert.Equal(t, "jane", rev.To)
	assert.True(t, fwd.Reciprocates(rev))
	assert.NotEqual(t, fwd.ID, rev.ID)

	// Replaying the same delta against the same set is deterministic.
	again, errs := svc.Apply(set, delta)
	require.Empty(t, errs)
	assert.Equal(t, out, again)
}

func TestEntityService_Apply_RelationCreate_Directed(t *testing.T) {
	svc := NewEntityService()
	set := castSet()

	delta, errs := svc.NewRelation(set, "rochester", "jane", "professional", "employer", false)
	require.Empty(t, errs)

	out, errs := svc.Apply(set, delta)
	require.Empty(t, errs)
	require.Len(t, out.Relationships, 1)
	assert.False(t, out.Relationships[0].Mutual)
}

func TestEntityService_Apply_RelationCreate_Duplicate(t *testing.T) {
	svc := NewEntityService()
	set := castSet()

	delta, errs := svc.NewRelation(set, "jane", "rochester", "social", "spouse", true)
	require.Empty(t, errs)
	set, errs = svc.Apply(set, delta)
	require.Empty(t, errs)

	// The same pair again, in either direction, is a duplicate.
	_, errs = svc.NewRelation(set, "jane", "rochester", "social", "spouse", true)
	require.Len(t, errs, 1)
	assert.Equal(t, domain.CodeDuplicateRelation, errs[0].Code)

	_, errs = svc.NewRelation(set, "rochester", "jane", "social", "spouse", true)
	require.Len(t, errs, 1)
	assert.Equal(t, domain.CodeDuplicateRelation, errs[0].Code)

	// A different subtype is a different relationship.
	_, errs = svc.NewRelation(set, "jane", "rochester", "social", "friend", true)
	assert.Empty(t, errs)
}

func TestEntityService_Apply_RelationDelete_RemovesPair(t *testing.T) {
	svc := NewEntityService()
	set := castSet()

	delta, errs := svc.NewRelation(set, "jane", "rochester", "social", "spouse", true)
	require.Empty(t, errs)
	set, errs = svc.Apply(set, delta)
	require.Empty(t, errs)
	require.Len(t, set.Relationships, 2)

	out, errs := svc.Apply(set, domain.NewRelationDeleteDelta(set.Relationships[0].ID))
	require.Empty(t, errs)

	// Deleting one half of a mutual pair removes both.
	assert.Empty(t, out.Relationships)
}

func TestEntityService_Apply_RelationDelete_NotFound(t *testing.T) {
	svc := NewEntityService()
	set := castSet()

	_, errs := svc.Apply(set, domain.NewRelationDeleteDelta("missing"))
	require.Len(t, errs, 1)
	assert.Equal(t, domain.CodeRelationNotFound, errs[0].Code)
}

func TestEntityService_ApplyToDocument_DeleteReferencedEntity(t *testing.T) {
	svc := NewEntityService()
	doc := mustParse(t, wrap(`<p><said who="#jane">Reader, I married him.</said></p>`))
	target := doc.Entities.ByXMLID("jane").ID

	newDoc, errs := svc.ApplyToDocument(doc, domain.NewDeleteDelta(domain.KindCharacter, target))
	assert.Nil(t, newDoc)
	require.Len(t, errs, 1)

	// The rejection names the blocking tag and offers archiving.
	ve := errs[0]
	assert.Equal(t, domain.CodeEntityInUse, ve.Code)
	assert.Contains(t, ve.Message, "<said>")
	assert.Contains(t, ve.Message, doc.Passages[0].Tags[0].ID)
	fix, ok := ve.Fix.(domain.ArchiveInstead)
	require.True(t, ok)
	assert.Equal(t, target, fix.EntityID)
}

func TestEntityService_ApplyToDocument_Success(t *testing.T) {
	svc := NewEntityService()
	doc := mustParse(t, wrap(`<p>Nobody speaks.</p>`))
	target := doc.Entities.ByXMLID("rochester").ID

	newDoc, errs := svc.ApplyToDocument(doc, domain.NewDeleteDelta(domain.KindCharacter, target))
	require.Empty(t, errs)
	require.NotNil(t, newDoc)

	assert.Equal(t, uint64(1), newDoc.Revision)
	assert.Nil(t, newDoc.Entities.ByID(target))

	// The input document is untouched.
	assert.Equal(t, uint64(0), doc.Revision)
	assert.NotNil(t, doc.Entities.ByID(target))
}
