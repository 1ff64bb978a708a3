package services

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/custodia-labs/glossa-cli/internal/core/domain"
	"github.com/custodia-labs/glossa-cli/internal/core/ports/driving"
)

// wellKnownRefs are attributes that reference entity xml:ids even when
// the schema does not declare them as IDREF.
var wellKnownRefs = map[string]bool{
	"who":    true,
	"toWhom": true,
	"ref":    true,
}

// ValidatorService checks documents against compiled constraint
// tables. The same checks back both whole-document reports and
// per-mutation rejection.
type ValidatorService struct{}

// NewValidatorService creates a document validator.
func NewValidatorService() *ValidatorService {
	return &ValidatorService{}
}

// Ensure ValidatorService implements the driving port.
var _ driving.Validator = (*ValidatorService)(nil)

// ValidateDocument implements driving.Validator.
func (s *ValidatorService) ValidateDocument(doc *domain.Document, table domain.ConstraintTable) domain.ValidationReport {
	report := domain.ValidationReport{SchemaID: table.SchemaID}
	for i := range doc.Passages {
		validatePassage(&doc.Passages[i], doc.Entities, table, &report)
	}
	validateEntities(doc.Entities, &report)
	return report
}

// validatePassage reports every finding for one passage: unknown tag
// types, attribute violations, unresolved references, and content
// model violations.
func validatePassage(p *domain.Passage, entities domain.EntitySet, table domain.ConstraintTable, report *domain.ValidationReport) {
	base := passagePath(p)
	if !table.Known(p.Kind) {
		addIssue(report, domain.CodeUnknownTagType, base,
			"passage element <%s> is not in the schema", p.Kind)
	}

	for i := range p.Tags {
		t := &p.Tags[i]
		path := base + "/" + t.Type

		tc, known := table.Lookup(t.Type)
		if !known {
			addIssue(report, domain.CodeUnknownTagType, path,
				"tag <%s> is not in the schema", t.Type)
		} else {
			for _, name := range tc.RequiredAttrs() {
				if _, ok := t.Attrs[name]; !ok {
					addIssue(report, domain.CodeMissingRequiredAttr, path,
						"required attribute %q is missing", name)
				}
			}
			for name, value := range t.Attrs {
				ac, declared := tc.Attrs[name]
				if !declared {
					addIssue(report, domain.CodeUnknownAttr, path,
						"attribute %q is not declared for <%s>", name, t.Type)
					continue
				}
				if !ac.Allows(value) {
					addIssue(report, domain.CodeInvalidAttrValue, path,
						"attribute %s=%q is not one of %s", name, value, strings.Join(ac.Enum, ", "))
				}
			}
		}

		for _, ve := range checkTagRefs(entities, t.Type, t.Attrs, table, path) {
			report.Issues = append(report.Issues, issueOf(ve))
		}

		if parent, ok := containerConstraint(p, i, table); ok && !parent.AllowsChild(t.Type) {
			addIssue(report, domain.CodeContentNotAllowed, path,
				"<%s> is not allowed inside <%s>", t.Type, parent.Name)
		}
		if known && !tc.AllowsText() && hasBareText(p, i) {
			addIssue(report, domain.CodeContentNotAllowed, path,
				"text is not allowed inside <%s>", t.Type)
		}
	}
}

// validateEntities reports duplicate xml:ids, nameless entities, and
// broken relationships.
func validateEntities(set domain.EntitySet, report *domain.ValidationReport) {
	counts := map[string]int{}
	for _, e := range set.All() {
		counts[e.XMLID]++
	}
	for _, e := range set.All() {
		path := "entity/" + e.XMLID
		if counts[e.XMLID] > 1 {
			counts[e.XMLID] = 1 // report each duplicate group once
			addIssue(report, domain.CodeDuplicateXMLID, path,
				"xml:id %q is used by more than one entity", e.XMLID)
		}
		if strings.TrimSpace(e.Name) == "" {
			report.Issues = append(report.Issues, domain.ValidationIssue{
				Code:     domain.CodeEmptyName,
				Severity: domain.SeverityWarning,
				Message:  "entity has no display name",
				Path:     path,
			})
		}
	}

	for _, rel := range set.Relationships {
		path := "relation/" + rel.ID
		for _, end := range []string{rel.From, rel.To} {
			if set.ByXMLID(end) == nil {
				addIssue(report, domain.CodeDanglingIDRef, path,
					"relationship endpoint #%s does not resolve", end)
			}
		}
		if rel.From == rel.To {
			addIssue(report, domain.CodeSelfRelation, path,
				"relationship links %q to itself", rel.From)
		}
	}
}

// addIssue appends a finding with the severity its code implies.
func addIssue(report *domain.ValidationReport, code domain.Code, path, format string, args ...any) {
	report.Issues = append(report.Issues, domain.ValidationIssue{
		Code:     code,
		Severity: domain.SeverityOf(code),
		Message:  fmt.Sprintf(format, args...),
		Path:     path,
	})
}

// issueOf converts a mutation-style validation error to a report issue.
func issueOf(ve domain.ValidationError) domain.ValidationIssue {
	return domain.ValidationIssue{
		Code:     ve.Code,
		Severity: domain.SeverityOf(ve.Code),
		Message:  ve.Message,
		Path:     ve.Path,
	}
}

func passagePath(p *domain.Passage) string {
	return fmt.Sprintf("passage[%d]", p.Index)
}

// containerConstraint returns the constraint of the element directly
// containing tag i: the innermost enclosing tag, or the passage
// element itself. ok is false when the container is not in the schema.
func containerConstraint(p *domain.Passage, i int, table domain.ConstraintTable) (domain.TagConstraint, bool) {
	if j := containerIndex(p.Tags, i); j >= 0 {
		return table.Lookup(p.Tags[j].Type)
	}
	return table.Lookup(p.Kind)
}

// containerIndex returns the index of the innermost tag containing tag
// i, or -1 when the tag sits directly in the passage. Tags are sorted
// by start ascending then end descending, so enclosing tags precede
// their contents; among equal ranges the earlier tag is the outer one.
// Zero-width tags never contain each other.
func containerIndex(tags []domain.Tag, i int) int {
	t := tags[i]
	for j := i - 1; j >= 0; j-- {
		c := tags[j]
		if c.Range == t.Range && c.Range.Len() == 0 {
			continue
		}
		if c.Range.Contains(t.Range) {
			return j
		}
	}
	return -1
}

// directChildren returns the indices of tags directly contained by tag
// i, skipping tags nested deeper.
func directChildren(tags []domain.Tag, i int) []int {
	var out []int
	for j := range tags {
		if j != i && containerIndex(tags, j) == i {
			out = append(out, j)
		}
	}
	return out
}

// hasBareText reports whether tag i covers character data that no
// direct child element covers, ignoring whitespace.
func hasBareText(p *domain.Passage, i int) bool {
	t := p.Tags[i]
	if t.Range.Len() == 0 {
		return false
	}
	covered := make([]bool, t.Range.Len())
	for _, j := range directChildren(p.Tags, i) {
		c := p.Tags[j].Range
		for k := c.Start; k < c.End; k++ {
			covered[k-t.Range.Start] = true
		}
	}
	runes := []rune(p.Content)
	for k := t.Range.Start; k < t.Range.End; k++ {
		if !covered[k-t.Range.Start] && !isSpace(runes[k]) {
			return true
		}
	}
	return false
}

func isSpace(r rune) bool {
	switch r {
	case ' ', '\t', '\n', '\r':
		return true
	}
	return false
}

// checkAddTag validates every precondition of a tag addition and
// returns all findings. Warning-grade findings (undeclared attributes)
// never block a mutation and are excluded here.
func checkAddTag(doc *domain.Document, table domain.ConstraintTable, passageID string, r domain.TextRange, tagType string, attrs map[string]string) []domain.ValidationError {
	p := doc.Passage(passageID)
	if p == nil {
		return []domain.ValidationError{{
			Code:    domain.CodePassageNotFound,
			Message: fmt.Sprintf("no passage with ID %q", passageID),
			Path:    "passage/" + passageID,
		}}
	}
	path := passagePath(p) + "/" + tagType

	var errs []domain.ValidationError
	errs = append(errs, checkRange(p, r, path)...)
	if len(errs) > 0 {
		// Overlap and content checks need a well-formed range.
		return errs
	}

	tc, known := table.Lookup(tagType)
	if !known {
		errs = append(errs, domain.ValidationError{
			Code:    domain.CodeUnknownTagType,
			Message: fmt.Sprintf("tag <%s> is not in the schema", tagType),
			Path:    path,
		})
	} else {
		errs = append(errs, checkRequiredAttrs(tc, attrs, path)...)
		errs = append(errs, checkAttrValues(tc, attrs, path)...)
	}
	errs = append(errs, checkTagRefs(doc.Entities, tagType, attrs, table, path)...)
	errs = append(errs, checkOverlap(p, r, tagType, path)...)
	errs = append(errs, checkNesting(p, r, tagType, table, path)...)
	return errs
}

// checkRange validates range shape and passage bounds, suggesting the
// nearest valid range on bound violations.
func checkRange(p *domain.Passage, r domain.TextRange, path string) []domain.ValidationError {
	if r.Start > r.End {
		return []domain.ValidationError{{
			Code:    domain.CodeRangeInverted,
			Message: fmt.Sprintf("range [%d,%d) ends before it starts", r.Start, r.End),
			Path:    path,
		}}
	}
	length := utf8.RuneCountInString(p.Content)
	if r.Start < 0 || r.End > length {
		return []domain.ValidationError{{
			Code:    domain.CodeRangeOutOfBounds,
			Message: fmt.Sprintf("range [%d,%d) is outside the passage bounds [0,%d)", r.Start, r.End, length),
			Path:    path,
			Fix:     domain.AdjustRange{Range: clampRange(r, length)},
		}}
	}
	return nil
}

func clampRange(r domain.TextRange, length int) domain.TextRange {
	out := r
	if out.Start < 0 {
		out.Start = 0
	}
	if out.End > length {
		out.End = length
	}
	if out.Start > out.End {
		out.Start = out.End
	}
	return out
}

// checkRequiredAttrs reports required attributes missing from the
// mutation, each with an add-attribute fix.
func checkRequiredAttrs(tc domain.TagConstraint, attrs map[string]string, path string) []domain.ValidationError {
	var errs []domain.ValidationError
	for _, name := range tc.RequiredAttrs() {
		if _, ok := attrs[name]; ok {
			continue
		}
		errs = append(errs, domain.ValidationError{
			Code:    domain.CodeMissingRequiredAttr,
			Message: fmt.Sprintf("required attribute %q is missing", name),
			Path:    path,
			Fix:     domain.AddAttribute{Name: name, Value: suggestedValue(tc.Attrs[name])},
		})
	}
	return errs
}

func suggestedValue(ac domain.AttributeConstraint) string {
	if len(ac.Enum) > 0 {
		return ac.Enum[0]
	}
	return ""
}

// checkAttrValues reports enum violations on declared attributes.
// Undeclared attributes are warning-grade and never block a mutation.
func checkAttrValues(tc domain.TagConstraint, attrs map[string]string, path string) []domain.ValidationError {
	var errs []domain.ValidationError
	for name, value := range attrs {
		ac, declared := tc.Attrs[name]
		if !declared || ac.Allows(value) {
			continue
		}
		errs = append(errs, domain.ValidationError{
			Code:    domain.CodeInvalidAttrValue,
			Message: fmt.Sprintf("attribute %s=%q is not one of %s", name, value, strings.Join(ac.Enum, ", ")),
			Path:    path,
		})
	}
	return errs
}

// checkTagRefs resolves reference attributes against the entity set.
// An attribute is reference-typed when the schema declares it IDREF or
// when it is a well-known pointer attribute.
func checkTagRefs(entities domain.EntitySet, tagType string, attrs map[string]string, table domain.ConstraintTable, path string) []domain.ValidationError {
	tc, known := table.Lookup(tagType)
	var errs []domain.ValidationError
	for name, value := range attrs {
		isRef := wellKnownRefs[name]
		if known {
			if ac, declared := tc.Attrs[name]; declared {
				isRef = ac.Type == domain.AttrIDRef || wellKnownRefs[name]
			}
		}
		if !isRef || strings.TrimSpace(value) == "" {
			continue
		}
		for _, ref := range refList(value) {
			if entities.ByXMLID(ref) == nil {
				errs = append(errs, domain.ValidationError{
					Code:    domain.CodeDanglingIDRef,
					Message: fmt.Sprintf("%s=%q does not resolve to an entity", name, "#"+ref),
					Path:    path,
				})
			}
		}
	}
	return errs
}

// checkOverlap rejects ranges that partially overlap an existing tag.
// The markup tree can only represent nesting, so a range must be
// disjoint from or properly nested with every existing tag. The fix
// expands the range to cover the split tag.
func checkOverlap(p *domain.Passage, r domain.TextRange, tagType, path string) []domain.ValidationError {
	var errs []domain.ValidationError
	for _, t := range p.Tags {
		if !r.Splits(t.Range) {
			continue
		}
		errs = append(errs, domain.ValidationError{
			Code: domain.CodeSplitsExistingTag,
			Message: fmt.Sprintf("range [%d,%d) splits existing <%s> [%d,%d)",
				r.Start, r.End, t.Type, t.Range.Start, t.Range.End),
			Path: path,
			Fix:  domain.AdjustRange{Range: unionRange(r, t.Range)},
		})
	}
	return errs
}

func unionRange(a, b domain.TextRange) domain.TextRange {
	out := a
	if b.Start < out.Start {
		out.Start = b.Start
	}
	if b.End > out.End {
		out.End = b.End
	}
	return out
}

// checkNesting verifies the content models around the new tag: the
// enclosing element must allow it as a child, it must allow every tag
// it would directly contain, and it must allow text when it would
// cover bare text.
func checkNesting(p *domain.Passage, r domain.TextRange, tagType string, table domain.ConstraintTable, path string) []domain.ValidationError {
	tc, known := table.Lookup(tagType)
	if !known {
		return nil
	}
	var errs []domain.ValidationError

	parent := enclosingConstraint(p, r, table)
	if parent != nil && !parent.AllowsChild(tagType) {
		errs = append(errs, domain.ValidationError{
			Code:    domain.CodeContentNotAllowed,
			Message: fmt.Sprintf("<%s> is not allowed inside <%s>", tagType, parent.Name),
			Path:    path,
		})
	}

	contained := containedRoots(p.Tags, r)
	for _, j := range contained {
		child := p.Tags[j]
		if !tc.AllowsChild(child.Type) {
			errs = append(errs, domain.ValidationError{
				Code:    domain.CodeContentNotAllowed,
				Message: fmt.Sprintf("<%s> is not allowed inside <%s>", child.Type, tagType),
				Path:    path,
			})
		}
	}

	if !tc.AllowsText() && coversBareText(p, r, contained) {
		errs = append(errs, domain.ValidationError{
			Code:    domain.CodeContentNotAllowed,
			Message: fmt.Sprintf("text is not allowed inside <%s>", tagType),
			Path:    path,
		})
	}
	return errs
}

// enclosingConstraint returns the constraint of the element a new
// range would sit inside: the innermost existing tag properly
// containing it, or the passage element. Nil when that element is not
// in the schema.
func enclosingConstraint(p *domain.Passage, r domain.TextRange, table domain.ConstraintTable) *domain.TagConstraint {
	best := -1
	for i, t := range p.Tags {
		if !t.Range.Contains(r) || (t.Range == r && t.Range.Len() == 0) {
			continue
		}
		if best == -1 || p.Tags[best].Range.Contains(t.Range) {
			best = i
		}
	}
	name := p.Kind
	if best >= 0 {
		name = p.Tags[best].Type
	}
	if tc, ok := table.Lookup(name); ok {
		return &tc
	}
	return nil
}

// containedRoots returns the indices of existing tags the new range
// would directly contain: tags within r whose container would become
// the new tag.
func containedRoots(tags []domain.Tag, r domain.TextRange) []int {
	var out []int
	for i, t := range tags {
		if !r.Contains(t.Range) {
			continue
		}
		if j := containerIndex(tags, i); j >= 0 && r.Contains(tags[j].Range) {
			continue // nested below another contained tag
		}
		out = append(out, i)
	}
	return out
}

// coversBareText reports whether r covers character data outside the
// directly contained tags, ignoring whitespace.
func coversBareText(p *domain.Passage, r domain.TextRange, contained []int) bool {
	if r.Len() == 0 {
		return false
	}
	covered := make([]bool, r.Len())
	for _, j := range contained {
		c := p.Tags[j].Range
		for k := c.Start; k < c.End; k++ {
			covered[k-r.Start] = true
		}
	}
	runes := []rune(p.Content)
	for k := r.Start; k < r.End; k++ {
		if !covered[k-r.Start] && !isSpace(runes[k]) {
			return true
		}
	}
	return false
}

// checkSetTagAttrs validates an attribute replacement on an existing
// tag.
func checkSetTagAttrs(doc *domain.Document, table domain.ConstraintTable, passageID, tagID string, attrs map[string]string) []domain.ValidationError {
	p := doc.Passage(passageID)
	if p == nil {
		return []domain.ValidationError{{
			Code:    domain.CodePassageNotFound,
			Message: fmt.Sprintf("no passage with ID %q", passageID),
			Path:    "passage/" + passageID,
		}}
	}
	t := doc.Tag(passageID, tagID)
	if t == nil {
		return []domain.ValidationError{{
			Code:    domain.CodeTagNotFound,
			Message: fmt.Sprintf("no tag with ID %q in the passage", tagID),
			Path:    passagePath(p),
		}}
	}
	path := passagePath(p) + "/" + t.Type

	var errs []domain.ValidationError
	if tc, known := table.Lookup(t.Type); known {
		errs = append(errs, checkRequiredAttrs(tc, attrs, path)...)
		errs = append(errs, checkAttrValues(tc, attrs, path)...)
	}
	errs = append(errs, checkTagRefs(doc.Entities, t.Type, attrs, table, path)...)
	return errs
}

// checkRemoveTag validates a tag removal.
func checkRemoveTag(doc *domain.Document, passageID, tagID string) []domain.ValidationError {
	p := doc.Passage(passageID)
	if p == nil {
		return []domain.ValidationError{{
			Code:    domain.CodePassageNotFound,
			Message: fmt.Sprintf("no passage with ID %q", passageID),
			Path:    "passage/" + passageID,
		}}
	}
	if doc.Tag(passageID, tagID) == nil {
		return []domain.ValidationError{{
			Code:    domain.CodeTagNotFound,
			Message: fmt.Sprintf("no tag with ID %q in the passage", tagID),
			Path:    passagePath(p),
		}}
	}
	return nil
}
