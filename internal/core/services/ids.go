package services

import (
	"sort"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/custodia-labs/glossa-cli/internal/core/domain"
)

// Derived identifiers are content-addressed UUIDs (version 5) so that
// re-parsing unchanged markup, or parsing serialized output, yields
// the same IDs every time. Each record class gets its own namespace.
var (
	nsPassage  = uuid.MustParse("8f4a1f5e-0c0d-4b7e-9b8a-2c6d1e3f5a70")
	nsTag      = uuid.MustParse("3d9c2b4a-6e8f-4a1c-8d2e-7b5a9c1f3e62")
	nsSpan     = uuid.MustParse("b1e7d3c5-9a2f-4e6b-8c4d-5f1a7e9b2d84")
	nsEntity   = uuid.MustParse("6a2c8e4b-1d3f-4c5a-9e7b-8d2f4a6c1e93")
	nsRelation = uuid.MustParse("e5b3a1c7-4f6d-4e2a-b8c9-1a3e5d7f9b26")
)

// idSep joins derivation key parts. The unit separator is not a legal
// character in markup text, so keys cannot collide across parts.
const idSep = "\x1f"

// passageID derives a passage identifier from its kind, its plain
// content, and its occurrence ordinal among identical passages.
func passageID(kind, content string, occurrence int) string {
	key := strings.Join([]string{kind, content, strconv.Itoa(occurrence)}, idSep)
	return uuid.NewSHA1(nsPassage, []byte(key)).String()
}

// tagID derives a tag identifier from its passage, type, range,
// attributes, and occurrence ordinal among identical tags.
func tagID(passageID, tagType string, r domain.TextRange, attrs map[string]string, occurrence int) string {
	key := strings.Join([]string{
		passageID,
		tagType,
		strconv.Itoa(r.Start),
		strconv.Itoa(r.End),
		canonicalAttrs(attrs),
		strconv.Itoa(occurrence),
	}, idSep)
	return uuid.NewSHA1(nsTag, []byte(key)).String()
}

// spanID derives a dialogue span identifier from its tag.
func spanID(tagID string) string {
	return uuid.NewSHA1(nsSpan, []byte(tagID)).String()
}

// entityID derives an entity identifier from its kind and xml:id.
// The result is a UUID and therefore never equal to the xml:id itself.
func entityID(kind domain.EntityKind, xmlID string) string {
	return uuid.NewSHA1(nsEntity, []byte(string(kind)+idSep+xmlID)).String()
}

// relationID derives a relationship identifier from its type, subtype,
// endpoints, and direction. The reciprocal half of a mutual pair swaps
// the endpoints and so derives a distinct ID.
func relationID(relType, subtype, from, to string, mutual bool) string {
	key := strings.Join([]string{relType, subtype, from, to, strconv.FormatBool(mutual)}, idSep)
	return uuid.NewSHA1(nsRelation, []byte(key)).String()
}

// canonicalAttrs renders an attribute map with sorted names, making
// the derivation independent of source attribute order.
func canonicalAttrs(attrs map[string]string) string {
	if len(attrs) == 0 {
		return ""
	}
	names := make([]string, 0, len(attrs))
	for name := range attrs {
		names = append(names, name)
	}
	sort.Strings(names)
	var b strings.Builder
	for i, name := range names {
		if i > 0 {
			b.WriteString(idSep)
		}
		b.WriteString(name)
		b.WriteString("=")
		b.WriteString(attrs[name])
	}
	return b.String()
}
