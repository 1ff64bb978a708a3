package domain

// Document is an immutable snapshot of an annotated text.
// Mutations never modify a Document in place; they produce a new value
// with Revision incremented. The derived indices (Passages, DialogueSpans,
// Entities, Relationships) are rebuilt or re-derived by the services that
// construct documents and are always consistent with the markup.
type Document struct {
	// Title is the document title from the header, if any.
	Title string

	// Author is the document author from the header, if any.
	Author string

	// Revision counts successful mutations since parse. A freshly
	// parsed document is revision 0.
	Revision uint64

	// Passages are the block-level text units in document order.
	Passages []Passage

	// Entities is the standoff entity collection.
	Entities EntitySet
}

// Passage is a block-level unit of text (a paragraph, anonymous block,
// or verse line). Content is the passage text with all tags stripped;
// tag ranges are rune offsets into Content.
type Passage struct {
	// ID is stable across re-parses of textually unchanged passages.
	ID string

	// Kind is the source element name: "p", "ab", or "l".
	Kind string

	// Index is the ordinal position in document order, from 0.
	Index int

	// Content is the plain text of the passage, tags stripped.
	Content string

	// Tags are the annotations on this passage, ordered by range start
	// then descending range end (outermost first at equal starts).
	Tags []Tag

	// Dialogue are the speech spans derived from this passage's
	// speech-role tags, in range order.
	Dialogue []DialogueSpan
}

// TextRange addresses a half-open span [Start, End) of rune offsets
// within a passage's Content.
type TextRange struct {
	Start int
	End   int
}

// Len returns the number of runes covered by the range.
func (r TextRange) Len() int { return r.End - r.Start }

// Contains reports whether r fully contains other.
func (r TextRange) Contains(other TextRange) bool {
	return r.Start <= other.Start && other.End <= r.End
}

// Disjoint reports whether r and other share no positions.
// Touching ranges ([0,3) and [3,5)) are disjoint.
func (r TextRange) Disjoint(other TextRange) bool {
	return r.End <= other.Start || other.End <= r.Start
}

// Splits reports whether r and other partially overlap: they share
// positions but neither contains the other. Applying both as markup
// would split one of the two elements.
func (r TextRange) Splits(other TextRange) bool {
	if r.Disjoint(other) {
		return false
	}
	return !r.Contains(other) && !other.Contains(r)
}

// Tag is an annotation applied to a range within a single passage.
// Ranges never cross passage boundaries.
type Tag struct {
	// ID is stable across re-parses of unchanged markup.
	ID string

	// Type is the element name, e.g. "said" or "persName".
	Type string

	// Range is the annotated span within the passage content.
	Range TextRange

	// Attrs are the tag's attributes by name.
	Attrs map[string]string
}

// Attr returns the named attribute value, or "" when absent.
func (t Tag) Attr(name string) string { return t.Attrs[name] }

// SpeechMode distinguishes direct from reported speech.
type SpeechMode string

const (
	// SpeechDirect is quoted speech. The default when a speech tag
	// carries no type attribute.
	SpeechDirect SpeechMode = "direct"

	// SpeechIndirect is reported speech.
	SpeechIndirect SpeechMode = "indirect"
)

// DialogueSpan is a speech attribution derived from a speech-role tag.
// Spans are recomputed whenever a mutation touches a speech-role tag;
// they are never edited directly.
type DialogueSpan struct {
	// ID is derived from the underlying tag and stable with it.
	ID string

	// PassageID is the passage containing the span.
	PassageID string

	// TagID is the speech-role tag this span was derived from.
	TagID string

	// Range is the spoken text within the passage content.
	Range TextRange

	// Content is the spoken text itself, a copy of the passage content
	// covered by Range.
	Content string

	// Speaker is the first reference from the tag's who attribute with
	// the leading # stripped, or "" when the tag carries no who.
	Speaker string

	// Addressee is the toWhom reference with the leading # stripped,
	// or "" when absent.
	Addressee string

	// Mode is direct or indirect speech.
	Mode SpeechMode
}

// SpeechRoles lists the element names that carry dialogue. Tags of
// these types produce DialogueSpans.
var SpeechRoles = map[string]bool{
	"said":   true,
	"q":      true,
	"quote":  true,
	"sp":     true,
	"s":      true,
	"speech": true,
}

// PassageRoles lists the element names treated as block-level passages.
var PassageRoles = map[string]bool{
	"p":  true,
	"ab": true,
	"l":  true,
}

// Passage returns the passage with the given ID, or nil.
func (d *Document) Passage(id string) *Passage {
	for i := range d.Passages {
		if d.Passages[i].ID == id {
			return &d.Passages[i]
		}
	}
	return nil
}

// Tag returns the tag with the given ID within the given passage, or nil.
func (d *Document) Tag(passageID, tagID string) *Tag {
	p := d.Passage(passageID)
	if p == nil {
		return nil
	}
	for i := range p.Tags {
		if p.Tags[i].ID == tagID {
			return &p.Tags[i]
		}
	}
	return nil
}

// DialogueSpans returns every dialogue span in document order.
func (d *Document) DialogueSpans() []DialogueSpan {
	var spans []DialogueSpan
	for _, p := range d.Passages {
		spans = append(spans, p.Dialogue...)
	}
	return spans
}
