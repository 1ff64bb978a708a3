package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/glossa-cli/internal/core/domain"
)

func TestValidateCmd_ResolvesConformance(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	out, err := execute("validate")
	require.NoError(t, err)
	assert.Contains(t, out, "Conformance: tei-dialogue-strict")
	assert.Contains(t, out, "PASS against tei-dialogue-strict")

	// The report cache key carries the history cursor, so undone state
	// never resolves against a report cached before the undo.
	assert.Equal(t, "sess-1@2", schemaService.(*mockSchemas).docKey)
}

func TestValidateCmd_NoConformance(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	schemaService.(*mockSchemas).result = domain.ConformanceResult{
		Report: domain.ValidationReport{
			SchemaID: "tei-minimal",
			Issues: []domain.ValidationIssue{
				{Code: domain.CodeDanglingIDRef, Severity: domain.SeverityCritical, Message: "who references missing entity", Path: "passage[0]/said"},
				{Code: domain.CodeUnknownAttr, Severity: domain.SeverityWarning, Message: "unexpected attribute rend"},
			},
		},
		Attempted: []string{"tei-dialogue-strict", "tei-dialogue-base", "tei-minimal"},
		Notes:     []string{"tei-dialogue-base: grammar unavailable"},
	}

	out, err := execute("validate")
	require.NoError(t, err)
	assert.Contains(t, out, "Conformance: none")
	assert.Contains(t, out, "tei-dialogue-strict, tei-dialogue-base, tei-minimal")
	assert.Contains(t, out, "grammar unavailable")
	assert.Contains(t, out, "FAIL against tei-minimal: 1 critical, 1 warnings")
	assert.Contains(t, out, "DANGLING_IDREF")
	assert.Contains(t, out, "at passage[0]/said")
	assert.Contains(t, out, "UNKNOWN_ATTR")
}

func TestValidateCmd_SingleSchema(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()
	defer func() { validateSchemaFlag = "" }()

	schemaService.(*mockSchemas).report = domain.ValidationReport{
		Issues: []domain.ValidationIssue{
			{Code: domain.CodeMissingRequiredAttr, Severity: domain.SeverityCritical, Message: "said requires who"},
		},
	}

	out, err := execute("validate", "--schema", "tei-dialogue-strict")
	require.NoError(t, err)
	assert.Contains(t, out, "FAIL against tei-dialogue-strict")
	assert.Contains(t, out, "MISSING_REQUIRED_ATTR")
	assert.NotContains(t, out, "Conformance:")
	assert.Equal(t, "sess-1@2", schemaService.(*mockSchemas).docKey)
}

func TestValidateCmd_ServiceError(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()
	schemaService.(*mockSchemas).err = errBoom

	_, err := execute("validate")
	require.Error(t, err)
	assert.ErrorIs(t, err, errBoom)
}
