package services

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/custodia-labs/glossa-cli/internal/core/domain"
	"github.com/custodia-labs/glossa-cli/internal/core/ports/driving"
	"github.com/custodia-labs/glossa-cli/internal/markup"
)

// rootElement is the required document root.
const rootElement = "TEI"

// standOffLists maps standoff list elements to the entity kind of
// their items.
var standOffLists = map[string]domain.EntityKind{
	"listPerson": domain.KindCharacter,
	"listPlace":  domain.KindPlace,
	"listOrg":    domain.KindOrganization,
}

// entityItems maps standoff item elements to entity kinds.
var entityItems = map[string]domain.EntityKind{
	"person": domain.KindCharacter,
	"place":  domain.KindPlace,
	"org":    domain.KindOrganization,
}

// listElements is the inverse of standOffLists, used by the serializer.
var listElements = map[domain.EntityKind]string{
	domain.KindCharacter:    "listPerson",
	domain.KindPlace:        "listPlace",
	domain.KindOrganization: "listOrg",
}

// itemElements is the inverse of entityItems.
var itemElements = map[domain.EntityKind]string{
	domain.KindCharacter:    "person",
	domain.KindPlace:        "place",
	domain.KindOrganization: "org",
}

// nameElements maps entity kinds to their display-name child element.
var nameElements = map[domain.EntityKind]string{
	domain.KindCharacter:    "persName",
	domain.KindPlace:        "placeName",
	domain.KindOrganization: "orgName",
}

// attrOrder fixes the serialization order of well-known attributes.
// Unlisted attributes follow, sorted by name.
var attrOrder = []string{"xml:id", "who", "toWhom", "type", "name", "ref", "active", "passive", "mutual", "status", "n", "rend"}

// CodecService converts between markup text and documents. Parsing
// derives every index (passages, tags, dialogue spans, entities,
// relationships) in one pass; serializing rebuilds the markup tree
// from those indices. Both directions are pure and deterministic, so
// a parse of serialized output reproduces the input document's
// derived state exactly.
type CodecService struct{}

// NewCodecService creates a document codec.
func NewCodecService() *CodecService {
	return &CodecService{}
}

// Ensure CodecService implements the driving port.
var _ driving.DocumentCodec = (*CodecService)(nil)

// Parse implements driving.DocumentCodec.
func (s *CodecService) Parse(text string) (*domain.Document, error) {
	root, err := markup.Decode(text)
	if err != nil {
		return nil, err
	}
	if root.Name != rootElement {
		return nil, &domain.ParseError{
			Line:   root.Line,
			Detail: fmt.Sprintf("root element is <%s>, want <%s>", root.Name, rootElement),
		}
	}

	doc := &domain.Document{}

	if hdr := root.Child("teiHeader"); hdr != nil {
		if n := hdr.Find("title"); n != nil {
			doc.Title = strings.TrimSpace(n.InnerText())
		}
		if n := hdr.Find("author"); n != nil {
			doc.Author = strings.TrimSpace(n.InnerText())
		}
	}

	for _, child := range root.ChildElements() {
		if child.Name == "standOff" {
			parseStandOff(child, &doc.Entities)
		}
	}

	if textEl := root.Child("text"); textEl != nil {
		seen := map[string]int{}
		textEl.Walk(func(n *markup.Node) bool {
			if n.Kind != markup.ElementNode || !domain.PassageRoles[n.Name] {
				return true
			}
			doc.Passages = append(doc.Passages, buildPassage(n, len(doc.Passages), seen))
			return false
		})
	}

	return doc, nil
}

// Serialize implements driving.DocumentCodec.
func (s *CodecService) Serialize(doc *domain.Document) string {
	root := markup.Element(rootElement)
	if hdr := buildHeader(doc); hdr != nil {
		root.Append(hdr)
	}
	if so := buildStandOff(doc.Entities); so != nil {
		root.Append(so)
	}
	body := markup.Element("body")
	for _, p := range doc.Passages {
		body.Append(buildPassageNode(p))
	}
	root.Append(markup.Element("text").Append(body))
	return markup.SerializeIndent(root, domain.PassageRoles)
}

// rawTag is a tag under construction: the source element, its resolved
// range, and its nesting depth below the passage root.
type rawTag struct {
	node  *markup.Node
	r     domain.TextRange
	depth int
}

// passageBuilder accumulates a passage's plain text and tag ranges
// while walking the passage subtree. Offsets count runes.
type passageBuilder struct {
	text strings.Builder
	pos  int
	tags []rawTag
}

func (b *passageBuilder) walk(n *markup.Node, depth int) {
	for _, c := range n.Children {
		switch c.Kind {
		case markup.TextNode:
			b.text.WriteString(c.Text)
			b.pos += utf8.RuneCountInString(c.Text)
		case markup.ElementNode:
			start := b.pos
			b.walk(c, depth+1)
			b.tags = append(b.tags, rawTag{
				node:  c,
				r:     domain.TextRange{Start: start, End: b.pos},
				depth: depth,
			})
		}
	}
}

// buildPassage derives one passage from its source element. seen
// counts previously built passages per (kind, content) pair so that
// identical passages still get distinct stable IDs.
func buildPassage(n *markup.Node, index int, seen map[string]int) domain.Passage {
	b := &passageBuilder{}
	b.walk(n, 0)
	content := b.text.String()

	key := n.Name + idSep + content
	occurrence := seen[key]
	seen[key]++

	p := domain.Passage{
		ID:      passageID(n.Name, content, occurrence),
		Kind:    n.Name,
		Index:   index,
		Content: content,
	}

	// Outermost first at equal starts; siblings keep document order.
	sort.SliceStable(b.tags, func(i, j int) bool {
		a, z := b.tags[i], b.tags[j]
		if a.r.Start != z.r.Start {
			return a.r.Start < z.r.Start
		}
		if a.r.End != z.r.End {
			return a.r.End > z.r.End
		}
		return a.depth < z.depth
	})

	p.Tags = finalizeTags(p.ID, b.tags)
	p.Dialogue = deriveDialogue(p)
	return p
}

// finalizeTags assigns IDs to sorted raw tags. The occurrence counter
// disambiguates tags that are identical in type, range, and
// attributes, such as repeated empty milestones at one offset.
func finalizeTags(passageID string, raws []rawTag) []domain.Tag {
	if len(raws) == 0 {
		return nil
	}
	tags := make([]domain.Tag, 0, len(raws))
	occ := map[string]int{}
	for _, raw := range raws {
		attrs := attrMap(raw.node.Attrs)
		key := strings.Join([]string{
			raw.node.Name,
			strconv.Itoa(raw.r.Start), strconv.Itoa(raw.r.End),
			canonicalAttrs(attrs),
		}, idSep)
		o := occ[key]
		occ[key]++
		tags = append(tags, domain.Tag{
			ID:    tagID(passageID, raw.node.Name, raw.r, attrs, o),
			Type:  raw.node.Name,
			Range: raw.r,
			Attrs: attrs,
		})
	}
	return tags
}

// deriveDialogue rebuilds a passage's dialogue spans from its
// speech-role tags. Tags are already in range order, so spans are too.
func deriveDialogue(p domain.Passage) []domain.DialogueSpan {
	var spans []domain.DialogueSpan
	for _, t := range p.Tags {
		if !domain.SpeechRoles[t.Type] {
			continue
		}
		spans = append(spans, domain.DialogueSpan{
			ID:        spanID(t.ID),
			PassageID: p.ID,
			TagID:     t.ID,
			Range:     t.Range,
			Content:   sliceRunes(p.Content, t.Range),
			Speaker:   firstRef(t.Attr("who")),
			Addressee: firstRef(t.Attr("toWhom")),
			Mode:      speechMode(t.Attr("type")),
		})
	}
	return spans
}

func speechMode(v string) domain.SpeechMode {
	if v == string(domain.SpeechIndirect) {
		return domain.SpeechIndirect
	}
	return domain.SpeechDirect
}

// firstRef returns the first whitespace-separated reference with its
// leading # stripped, or "".
func firstRef(v string) string {
	for _, f := range strings.Fields(v) {
		return strings.TrimPrefix(f, "#")
	}
	return ""
}

// refList returns every reference in a pointer attribute value with
// leading # stripped.
func refList(v string) []string {
	fields := strings.Fields(v)
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		out = append(out, strings.TrimPrefix(f, "#"))
	}
	return out
}

// sliceRunes returns the content covered by r, counting runes.
func sliceRunes(content string, r domain.TextRange) string {
	runes := []rune(content)
	if r.Start < 0 || r.End > len(runes) || r.Start > r.End {
		return ""
	}
	return string(runes[r.Start:r.End])
}

// attrMap converts source attributes to a map. Returns nil for empty
// lists so parsed and constructed tags compare equal.
func attrMap(attrs []markup.Attr) map[string]string {
	if len(attrs) == 0 {
		return nil
	}
	m := make(map[string]string, len(attrs))
	for _, a := range attrs {
		m[a.Name] = a.Value
	}
	return m
}

// parseStandOff collects entities and relationships from one standOff
// element into the set.
func parseStandOff(so *markup.Node, set *domain.EntitySet) {
	for _, list := range so.ChildElements() {
		if kind, ok := standOffLists[list.Name]; ok {
			for _, item := range list.ChildElements() {
				if entityItems[item.Name] != kind {
					continue
				}
				set.Insert(parseEntity(item, kind, set))
			}
			continue
		}
		if list.Name == "listRelation" {
			for _, rel := range list.ChildElements() {
				if rel.Name == "relation" {
					parseRelation(rel, set)
				}
			}
		}
	}
}

// parseEntity derives one entity from its standoff item. Items without
// an xml:id get one derived from the name, kept unique within the set.
func parseEntity(item *markup.Node, kind domain.EntityKind, set *domain.EntitySet) domain.Entity {
	e := domain.Entity{
		Kind:     kind,
		XMLID:    item.Attr("xml:id"),
		Subtype:  item.Attr("type"),
		Archived: item.Attr("status") == "archived",
	}
	if n := item.Child(nameElements[kind]); n != nil {
		e.Name = strings.TrimSpace(n.InnerText())
	}
	if n := item.Child("note"); n != nil {
		e.Note = strings.TrimSpace(n.InnerText())
	}
	if e.XMLID == "" {
		e.XMLID = set.UniqueXMLID(domain.Slugify(e.Name))
	}
	e.ID = entityID(kind, e.XMLID)
	return e
}

// parseRelation appends relationship records for one relation element.
// A mutual relation expands to a reciprocal record pair per distinct
// endpoint pair; a directed relation yields a single record.
func parseRelation(rel *markup.Node, set *domain.EntitySet) {
	relType := rel.Attr("type")
	subtype := rel.Attr("name")

	if mutual := rel.Attr("mutual"); mutual != "" {
		ids := refList(mutual)
		for i := 0; i < len(ids); i++ {
			for j := i + 1; j < len(ids); j++ {
				a, b := ids[i], ids[j]
				set.Relationships = append(set.Relationships,
					domain.Relationship{
						ID: relationID(relType, subtype, a, b, true),
						Type: relType, Subtype: subtype,
						From: a, To: b, Mutual: true,
					},
					domain.Relationship{
						ID: relationID(relType, subtype, b, a, true),
						Type: relType, Subtype: subtype,
						From: b, To: a, Mutual: true,
					},
				)
			}
		}
		return
	}

	from := firstRef(rel.Attr("active"))
	to := firstRef(rel.Attr("passive"))
	if from == "" || to == "" {
		return
	}
	set.Relationships = append(set.Relationships, domain.Relationship{
		ID: relationID(relType, subtype, from, to, false),
		Type: relType, Subtype: subtype,
		From: from, To: to, Mutual: false,
	})
}

// buildHeader renders the document header, or nil when there is
// nothing to record.
func buildHeader(doc *domain.Document) *markup.Node {
	if doc.Title == "" && doc.Author == "" {
		return nil
	}
	stmt := markup.Element("titleStmt")
	if doc.Title != "" {
		stmt.Append(markup.Element("title").Append(markup.Text(doc.Title)))
	}
	if doc.Author != "" {
		stmt.Append(markup.Element("author").Append(markup.Text(doc.Author)))
	}
	return markup.Element("teiHeader").Append(markup.Element("fileDesc").Append(stmt))
}

// buildStandOff renders the standoff entity collection, or nil when
// the set is empty.
func buildStandOff(set domain.EntitySet) *markup.Node {
	if set.Empty() {
		return nil
	}
	so := markup.Element("standOff")
	appendEntityList(so, domain.KindCharacter, set.Characters)
	appendEntityList(so, domain.KindPlace, set.Places)
	appendEntityList(so, domain.KindOrganization, set.Organizations)

	if len(set.Relationships) > 0 {
		lr := markup.Element("listRelation")
		emitted := map[string]bool{}
		for _, rel := range set.Relationships {
			if emitted[rel.ID] {
				continue
			}
			emitted[rel.ID] = true
			node := markup.Element("relation")
			if rel.Type != "" {
				node.SetAttr("type", rel.Type)
			}
			if rel.Subtype != "" {
				node.SetAttr("name", rel.Subtype)
			}
			if rel.Mutual {
				if i := set.FindReciprocal(rel); i >= 0 {
					emitted[set.Relationships[i].ID] = true
				}
				node.SetAttr("mutual", "#"+rel.From+" #"+rel.To)
			} else {
				node.SetAttr("active", "#"+rel.From)
				node.SetAttr("passive", "#"+rel.To)
			}
			lr.Append(node)
		}
		so.Append(lr)
	}
	return so
}

func appendEntityList(so *markup.Node, kind domain.EntityKind, entities []domain.Entity) {
	if len(entities) == 0 {
		return
	}
	list := markup.Element(listElements[kind])
	for _, e := range entities {
		list.Append(entityNode(e))
	}
	so.Append(list)
}

func entityNode(e domain.Entity) *markup.Node {
	node := markup.Element(itemElements[e.Kind], markup.Attr{Name: "xml:id", Value: e.XMLID})
	if e.Subtype != "" {
		node.SetAttr("type", e.Subtype)
	}
	if e.Archived {
		node.SetAttr("status", "archived")
	}
	if e.Name != "" {
		node.Append(markup.Element(nameElements[e.Kind]).Append(markup.Text(e.Name)))
	}
	if e.Note != "" {
		node.Append(markup.Element("note").Append(markup.Text(e.Note)))
	}
	return node
}

// buildPassageNode rebuilds a passage element from its plain content
// and sorted tag list. Tags never partially overlap, so the sorted
// list nests back into a tree.
func buildPassageNode(p domain.Passage) *markup.Node {
	node := markup.Element(p.Kind)
	runes := []rune(p.Content)
	emitContent(node, runes, p.Tags, 0, len(runes))
	return node
}

// emitContent writes the text and tags covering [from, to) under
// parent. tags must be sorted by start ascending, end descending.
func emitContent(parent *markup.Node, runes []rune, tags []domain.Tag, from, to int) {
	pos := from
	i := 0
	for i < len(tags) {
		t := tags[i]
		if t.Range.Start > pos {
			parent.Append(markup.Text(string(runes[pos:t.Range.Start])))
		}
		j := i + 1
		for j < len(tags) && tags[j].Range.Start < t.Range.End {
			j++
		}
		elem := markup.Element(t.Type, attrList(t.Attrs)...)
		parent.Append(elem)
		emitContent(elem, runes, tags[i+1:j], t.Range.Start, t.Range.End)
		pos = t.Range.End
		i = j
	}
	if pos < to {
		parent.Append(markup.Text(string(runes[pos:to])))
	}
}

// attrList renders an attribute map in canonical order: well-known
// names first, the rest sorted.
func attrList(attrs map[string]string) []markup.Attr {
	if len(attrs) == 0 {
		return nil
	}
	out := make([]markup.Attr, 0, len(attrs))
	taken := make(map[string]bool, len(attrs))
	for _, name := range attrOrder {
		if v, ok := attrs[name]; ok {
			out = append(out, markup.Attr{Name: name, Value: v})
			taken[name] = true
		}
	}
	var rest []string
	for name := range attrs {
		if !taken[name] {
			rest = append(rest, name)
		}
	}
	sort.Strings(rest)
	for _, name := range rest {
		out = append(out, markup.Attr{Name: name, Value: attrs[name]})
	}
	return out
}
