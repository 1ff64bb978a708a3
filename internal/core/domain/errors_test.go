package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestErrors_Existence tests that all error variables exist and are not nil
func TestErrors_Existence(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{"ErrNotFound", ErrNotFound},
		{"ErrAlreadyExists", ErrAlreadyExists},
		{"ErrInvalidInput", ErrInvalidInput},
		{"ErrInvalidMutation", ErrInvalidMutation},
		{"ErrNoSession", ErrNoSession},
		{"ErrSchemaNotFound", ErrSchemaNotFound},
		{"ErrSchemaUnavailable", ErrSchemaUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.NotNil(t, tt.err)
			assert.NotEmpty(t, tt.err.Error())
		})
	}
}

// TestErrors_Uniqueness tests that all errors are distinct
func TestErrors_Uniqueness(t *testing.T) {
	allErrors := []error{
		ErrNotFound,
		ErrAlreadyExists,
		ErrInvalidInput,
		ErrInvalidMutation,
		ErrNoSession,
		ErrSchemaNotFound,
		ErrSchemaUnavailable,
	}

	for i, err1 := range allErrors {
		for j, err2 := range allErrors {
			if i != j {
				assert.False(t, errors.Is(err1, err2),
					"Error %v should not match error %v", err1, err2)
			}
		}
	}
}

// TestErrors_WithWrapping tests error wrapping behavior
func TestErrors_WithWrapping(t *testing.T) {
	wrapped := fmt.Errorf("fetching grammar %q: %w", "tei-minimal", ErrSchemaNotFound)

	assert.True(t, errors.Is(wrapped, ErrSchemaNotFound))
	assert.Contains(t, wrapped.Error(), "schema not found")
}

func TestErrors_SchemaFallthroughDistinct(t *testing.T) {
	// Resolution treats not-found and unavailable the same way, but
	// callers report them differently.
	assert.False(t, errors.Is(ErrSchemaNotFound, ErrSchemaUnavailable))
	assert.False(t, errors.Is(ErrSchemaUnavailable, ErrSchemaNotFound))
}

func TestParseError_Message(t *testing.T) {
	t.Run("with line", func(t *testing.T) {
		err := &ParseError{Line: 14, Detail: "mismatched closing tag </said>"}
		assert.Equal(t, "parse error at line 14: mismatched closing tag </said>", err.Error())
	})

	t.Run("without line", func(t *testing.T) {
		err := &ParseError{Detail: "empty document"}
		assert.Equal(t, "parse error: empty document", err.Error())
	})
}

func TestSchemaParseError_Message(t *testing.T) {
	t.Run("with schema and line", func(t *testing.T) {
		err := &SchemaParseError{SchemaID: "tei-dialogue-strict", Line: 3, Detail: "root element is not grammar"}
		assert.Equal(t, "tei-dialogue-strict: parse error at line 3: root element is not grammar", err.Error())
	})

	t.Run("unknown schema", func(t *testing.T) {
		err := &SchemaParseError{Detail: "unexpected EOF"}
		assert.Equal(t, "schema: parse error: unexpected EOF", err.Error())
	})
}
