package services

import (
	"sort"
	"strconv"
	"strings"

	"github.com/custodia-labs/glossa-cli/internal/core/domain"
	"github.com/custodia-labs/glossa-cli/internal/core/ports/driving"
)

// EditorService applies tag mutations. Every operation validates
// first; on success it builds a new document with the revision
// incremented and the passage's tag IDs and dialogue spans re-derived,
// exactly as a re-parse of the new markup would derive them. The input
// document is never touched.
type EditorService struct{}

// NewEditorService creates a document editor.
func NewEditorService() *EditorService {
	return &EditorService{}
}

// Ensure EditorService implements the driving port.
var _ driving.DocumentEditor = (*EditorService)(nil)

// AddTag implements driving.DocumentEditor.
func (s *EditorService) AddTag(doc *domain.Document, table domain.ConstraintTable, passageID string, r domain.TextRange, tagType string, attrs map[string]string) (*domain.Document, *domain.Tag, []domain.ValidationError) {
	if errs := checkAddTag(doc, table, passageID, r, tagType, attrs); len(errs) > 0 {
		return nil, nil, errs
	}

	p := clonePassage(doc.Passage(passageID))
	p.Tags = append(p.Tags, domain.Tag{
		Type:  tagType,
		Range: r,
		Attrs: copyAttrs(attrs),
	})
	rebuildPassage(&p)

	newDoc := replacePassage(doc, p)
	return newDoc, findTag(newDoc.Passage(passageID), tagType, r, attrs), nil
}

// RemoveTag implements driving.DocumentEditor.
func (s *EditorService) RemoveTag(doc *domain.Document, passageID, tagID string) (*domain.Document, []domain.ValidationError) {
	if errs := checkRemoveTag(doc, passageID, tagID); len(errs) > 0 {
		return nil, errs
	}

	p := clonePassage(doc.Passage(passageID))
	kept := p.Tags[:0:0]
	for _, t := range p.Tags {
		if t.ID != tagID {
			kept = append(kept, t)
		}
	}
	p.Tags = kept
	rebuildPassage(&p)

	return replacePassage(doc, p), nil
}

// SetTagAttrs implements driving.DocumentEditor.
func (s *EditorService) SetTagAttrs(doc *domain.Document, table domain.ConstraintTable, passageID, tagID string, attrs map[string]string) (*domain.Document, []domain.ValidationError) {
	if errs := checkSetTagAttrs(doc, table, passageID, tagID, attrs); len(errs) > 0 {
		return nil, errs
	}

	p := clonePassage(doc.Passage(passageID))
	for i := range p.Tags {
		if p.Tags[i].ID == tagID {
			p.Tags[i].Attrs = copyAttrs(attrs)
			break
		}
	}
	rebuildPassage(&p)

	return replacePassage(doc, p), nil
}

// clonePassage deep-copies a passage so mutations never reach the
// input document.
func clonePassage(p *domain.Passage) domain.Passage {
	out := *p
	if len(p.Tags) > 0 {
		out.Tags = make([]domain.Tag, len(p.Tags))
		for i, t := range p.Tags {
			out.Tags[i] = t
			out.Tags[i].Attrs = copyAttrs(t.Attrs)
		}
	}
	if len(p.Dialogue) > 0 {
		out.Dialogue = append([]domain.DialogueSpan(nil), p.Dialogue...)
	}
	return out
}

// copyAttrs copies an attribute map, normalising empty to nil so
// constructed tags compare equal to parsed ones.
func copyAttrs(attrs map[string]string) map[string]string {
	if len(attrs) == 0 {
		return nil
	}
	out := make(map[string]string, len(attrs))
	for k, v := range attrs {
		out[k] = v
	}
	return out
}

// rebuildPassage restores the derived parts of a passage after its
// tag list changed: sort order, tag IDs, and dialogue spans, each
// re-derived exactly as a parse would derive them.
func rebuildPassage(p *domain.Passage) {
	if len(p.Tags) == 0 {
		p.Tags = nil
		p.Dialogue = nil
		return
	}
	sort.SliceStable(p.Tags, func(i, j int) bool {
		a, z := p.Tags[i], p.Tags[j]
		if a.Range.Start != z.Range.Start {
			return a.Range.Start < z.Range.Start
		}
		return a.Range.End > z.Range.End
	})
	occ := map[string]int{}
	for i := range p.Tags {
		t := &p.Tags[i]
		key := strings.Join([]string{
			t.Type,
			strconv.Itoa(t.Range.Start), strconv.Itoa(t.Range.End),
			canonicalAttrs(t.Attrs),
		}, idSep)
		o := occ[key]
		occ[key]++
		t.ID = tagID(p.ID, t.Type, t.Range, t.Attrs, o)
	}
	p.Dialogue = deriveDialogue(*p)
}

// replacePassage builds the next document revision with one passage
// replaced. Untouched passages are shared; they are never mutated.
func replacePassage(doc *domain.Document, p domain.Passage) *domain.Document {
	out := *doc
	out.Revision = doc.Revision + 1
	out.Passages = append([]domain.Passage(nil), doc.Passages...)
	for i := range out.Passages {
		if out.Passages[i].ID == p.ID {
			out.Passages[i] = p
			break
		}
	}
	return &out
}

// findTag locates the tag just inserted: the last tag matching the
// requested type, range, and attributes.
func findTag(p *domain.Passage, tagType string, r domain.TextRange, attrs map[string]string) *domain.Tag {
	want := canonicalAttrs(attrs)
	var found *domain.Tag
	for i := range p.Tags {
		t := &p.Tags[i]
		if t.Type == tagType && t.Range == r && canonicalAttrs(t.Attrs) == want {
			found = t
		}
	}
	return found
}
