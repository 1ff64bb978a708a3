package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/glossa-cli/internal/core/domain"
)

const dialogueSample = `<TEI>
  <teiHeader>
    <fileDesc>
      <titleStmt>
        <title>A Study in Scarlet</title>
        <author>Arthur Conan Doyle</author>
      </titleStmt>
    </fileDesc>
  </teiHeader>
  <text>
    <body>
      <p><said who="#jane">Hello</said></p>
    </body>
  </text>
</TEI>`

func TestCodecService_Parse_DialogueSpan(t *testing.T) {
	codec := NewCodecService()

	doc, err := codec.Parse(dialogueSample)
	require.NoError(t, err)

	assert.Equal(t, "A Study in Scarlet", doc.Title)
	assert.Equal(t, "Arthur Conan Doyle", doc.Author)
	assert.Equal(t, uint64(0), doc.Revision)

	require.Len(t, doc.Passages, 1)
	p := doc.Passages[0]
	assert.Equal(t, "p", p.Kind)
	assert.Equal(t, 0, p.Index)
	assert.Equal(t, "Hello", p.Content)

	require.Len(t, p.Tags, 1)
	tag := p.Tags[0]
	assert.Equal(t, "said", tag.Type)
	assert.Equal(t, domain.TextRange{Start: 0, End: 5}, tag.Range)
	assert.Equal(t, "#jane", tag.Attr("who"))

	require.Len(t, p.Dialogue, 1)
	span := p.Dialogue[0]
	assert.Equal(t, p.ID, span.PassageID)
	assert.Equal(t, tag.ID, span.TagID)
	assert.Equal(t, "Hello", span.Content)
	assert.Equal(t, "jane", span.Speaker)
	assert.Equal(t, "", span.Addressee)
	assert.Equal(t, domain.SpeechDirect, span.Mode)
}

func TestCodecService_Parse_NestedTags(t *testing.T) {
	codec := NewCodecService()

	doc, err := codec.Parse(`<TEI><text><body>` +
		`<p>He said <said who="#watson" toWhom="#holmes" type="indirect">that the <emph>game</emph> was afoot</said>.</p>` +
		`</body></text></TEI>`)
	require.NoError(t, err)

	require.Len(t, doc.Passages, 1)
	p := doc.Passages[0]
	assert.Equal(t, "He said that the game was afoot.", p.Content)

	require.Len(t, p.Tags, 2)
	// Outer tag first: start ascending.
	said := p.Tags[0]
	emph := p.Tags[1]
	assert.Equal(t, "said", said.Type)
	assert.Equal(t, domain.TextRange{Start: 8, End: 31}, said.Range)
	assert.Equal(t, "emph", emph.Type)
	assert.Equal(t, domain.TextRange{Start: 17, End: 21}, emph.Range)
	assert.Equal(t, "game", p.Content[emph.Range.Start:emph.Range.End])

	require.Len(t, p.Dialogue, 1)
	span := p.Dialogue[0]
	assert.Equal(t, "watson", span.Speaker)
	assert.Equal(t, "holmes", span.Addressee)
	assert.Equal(t, domain.SpeechIndirect, span.Mode)
	assert.Equal(t, "that the game was afoot", span.Content)
}

func TestCodecService_Parse_MultibyteOffsets(t *testing.T) {
	codec := NewCodecService()

	doc, err := codec.Parse(`<TEI><text><body>` +
		`<p>«Où?» <said who="#rené">Ici — naturellement</said></p>` +
		`</body></text></TEI>`)
	require.NoError(t, err)

	p := doc.Passages[0]
	require.Len(t, p.Tags, 1)
	// Offsets count runes, not bytes.
	assert.Equal(t, domain.TextRange{Start: 6, End: 25}, p.Tags[0].Range)
	assert.Equal(t, "Ici — naturellement", p.Dialogue[0].Content)
	assert.Equal(t, "rené", p.Dialogue[0].Speaker)
}

func TestCodecService_Parse_MultiplePassages(t *testing.T) {
	codec := NewCodecService()

	doc, err := codec.Parse(`<TEI><text><body>` +
		`<div><p>First.</p><ab>Second.</ab><l>Third.</l></div>` +
		`</body></text></TEI>`)
	require.NoError(t, err)

	require.Len(t, doc.Passages, 3)
	assert.Equal(t, "p", doc.Passages[0].Kind)
	assert.Equal(t, "ab", doc.Passages[1].Kind)
	assert.Equal(t, "l", doc.Passages[2].Kind)
	for i, p := range doc.Passages {
		assert.Equal(t, i, p.Index)
	}
}

func TestCodecService_Parse_IdenticalPassagesDistinctIDs(t *testing.T) {
	codec := NewCodecService()

	doc, err := codec.Parse(`<TEI><text><body>` +
		`<p>Ditto.</p><p>Ditto.</p>` +
		`</body></text></TEI>`)
	require.NoError(t, err)

	require.Len(t, doc.Passages, 2)
	assert.NotEqual(t, doc.Passages[0].ID, doc.Passages[1].ID)
}

func TestCodecService_Parse_StandOffEntities(t *testing.T) {
	codec := NewCodecService()

	doc, err := codec.Parse(`<TEI>
  <standOff>
    <listPerson>
      <person xml:id="holmes" type="protagonist"><persName>Sherlock Holmes</persName><note>Consulting detective.</note></person>
      <person xml:id="watson" status="archived"><persName>John Watson</persName></person>
    </listPerson>
    <listPlace>
      <place xml:id="baker-street"><placeName>221B Baker Street</placeName></place>
    </listPlace>
    <listOrg>
      <org xml:id="the-yard"><orgName>Scotland Yard</orgName></org>
    </listOrg>
  </standOff>
  <text><body><p>Text.</p></body></text>
</TEI>`)
	require.NoError(t, err)

	require.Len(t, doc.Entities.Characters, 2)
	holmes := doc.Entities.Characters[0]
	assert.Equal(t, "holmes", holmes.XMLID)
	assert.Equal(t, "Sherlock Holmes", holmes.Name)
	assert.Equal(t, "protagonist", holmes.Subtype)
	assert.Equal(t, "Consulting detective.", holmes.Note)
	assert.False(t, holmes.Archived)
	assert.NotEmpty(t, holmes.ID)
	assert.NotEqual(t, holmes.XMLID, holmes.ID)

	assert.True(t, doc.Entities.Characters[1].Archived)

	require.Len(t, doc.Entities.Places, 1)
	assert.Equal(t, "221B Baker Street", doc.Entities.Places[0].Name)
	require.Len(t, doc.Entities.Organizations, 1)
	assert.Equal(t, "Scotland Yard", doc.Entities.Organizations[0].Name)
}

func TestCodecService_Parse_EntityWithoutXMLID(t *testing.T) {
	codec := NewCodecService()

	doc, err := codec.Parse(`<TEI>
  <standOff>
    <listPerson>
      <person><persName>Sherlock Holmes</persName></person>
      <person><persName>Sherlock Holmes</persName></person>
    </listPerson>
  </standOff>
  <text><body><p>Text.</p></body></text>
</TEI>`)
	require.NoError(t, err)

	require.Len(t, doc.Entities.Characters, 2)
	assert.Equal(t, "sherlock-holmes", doc.Entities.Characters[0].XMLID)
	// The second identical name gets a disambiguated identifier.
	assert.Equal(t, "sherlock-holmes-2", doc.Entities.Characters[1].XMLID)
	assert.NotEqual(t, doc.Entities.Characters[0].ID, doc.Entities.Characters[1].ID)
}

func TestCodecService_Parse_MutualRelation(t *testing.T) {
	codec := NewCodecService()

	doc, err := codec.Parse(`<TEI>
  <standOff>
    <listPerson>
      <person xml:id="holmes"><persName>Sherlock Holmes</persName></person>
      <person xml:id="watson"><persName>John Watson</persName></person>
    </listPerson>
    <listRelation>
      <relation type="social" name="friend" mutual="#holmes #watson"/>
    </listRelation>
  </standOff>
  <text><body><p>Text.</p></body></text>
</TEI>`)
	require.NoError(t, err)

	// A mutual relation materializes as exactly two reciprocal records.
	require.Len(t, doc.Entities.Relationships, 2)
	fwd := doc.Entities.Relationships[0]
	rev := doc.Entities.Relationships[1]
	assert.Equal(t, "holmes", fwd.From)
	assert.Equal(t, "watson", fwd.To)
	assert.Equal(t, "watson", rev.From)
	assert.Equal(t, "holmes", rev.To)
	assert.True(t, fwd.Mutual)
	assert.True(t, rev.Mutual)
	assert.Equal(t, "social", fwd.Type)
	assert.Equal(t, "friend", fwd.Subtype)
	assert.True(t, fwd.Reciprocates(rev))
	assert.NotEqual(t, fwd.ID, rev.ID)
}

func TestCodecService_Parse_DirectedRelation(t *testing.T) {
	codec := NewCodecService()

	doc, err := codec.Parse(`<TEI>
  <standOff>
    <listPerson>
      <person xml:id="moriarty"><persName>James Moriarty</persName></person>
      <person xml:id="moran"><persName>Sebastian Moran</persName></person>
    </listPerson>
    <listRelation>
      <relation type="professional" name="employer" active="#moriarty" passive="#moran"/>
    </listRelation>
  </standOff>
  <text><body><p>Text.</p></body></text>
</TEI>`)
	require.NoError(t, err)

	require.Len(t, doc.Entities.Relationships, 1)
	rel := doc.Entities.Relationships[0]
	assert.Equal(t, "moriarty", rel.From)
	assert.Equal(t, "moran", rel.To)
	assert.False(t, rel.Mutual)
}

func TestCodecService_Parse_WrongRoot(t *testing.T) {
	codec := NewCodecService()

	doc, err := codec.Parse(`<html><body><p>Hi</p></body></html>`)
	require.Error(t, err)
	assert.Nil(t, doc)

	var perr *domain.ParseError
	require.ErrorAs(t, err, &perr)
	assert.Contains(t, perr.Detail, "<html>")
}

func TestCodecService_Parse_Malformed(t *testing.T) {
	codec := NewCodecService()

	_, err := codec.Parse(`<TEI><text><body><p>unclosed`)
	require.Error(t, err)

	var perr *domain.ParseError
	assert.ErrorAs(t, err, &perr)
}

func TestCodecService_Parse_Idempotent(t *testing.T) {
	codec := NewCodecService()

	first, err := codec.Parse(dialogueSample)
	require.NoError(t, err)
	second, err := codec.Parse(dialogueSample)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestCodecService_RoundTrip(t *testing.T) {
	codec := NewCodecService()

	source := `<TEI>
  <teiHeader>
    <fileDesc>
      <titleStmt>
        <title>The Sign of the Four</title>
        <author>Arthur Conan Doyle</author>
      </titleStmt>
    </fileDesc>
  </teiHeader>
  <standOff>
    <listPerson>
      <person xml:id="holmes" type="protagonist"><persName>Sherlock Holmes</persName></person>
      <person xml:id="watson"><persName>John Watson</persName></person>
    </listPerson>
    <listPlace>
      <place xml:id="baker-street"><placeName>221B Baker Street</placeName></place>
    </listPlace>
    <listRelation>
      <relation type="social" name="friend" mutual="#holmes #watson"/>
    </listRelation>
  </standOff>
  <text>
    <body>
      <p>He said <said who="#holmes" toWhom="#watson">the <emph>game</emph> is afoot</said> and left.</p>
      <ab>No dialogue here.</ab>
    </body>
  </text>
</TEI>`

	doc, err := codec.Parse(source)
	require.NoError(t, err)

	again, err := codec.Parse(codec.Serialize(doc))
	require.NoError(t, err)

	// Every derived index survives the trip, IDs included.
	assert.Equal(t, doc, again)
}

func TestCodecService_RoundTrip_StableSerialization(t *testing.T) {
	codec := NewCodecService()

	doc, err := codec.Parse(dialogueSample)
	require.NoError(t, err)

	out1 := codec.Serialize(doc)
	out2 := codec.Serialize(doc)
	assert.Equal(t, out1, out2)

	// Serializing the re-parse reproduces the same text.
	again, err := codec.Parse(out1)
	require.NoError(t, err)
	assert.Equal(t, out1, codec.Serialize(again))
}

func TestCodecService_Serialize_EmptyDocument(t *testing.T) {
	codec := NewCodecService()

	out := codec.Serialize(&domain.Document{})
	doc, err := codec.Parse(out)
	require.NoError(t, err)
	assert.Empty(t, doc.Passages)
	assert.True(t, doc.Entities.Empty())
}
