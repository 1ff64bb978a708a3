// Package mcp provides a Model Context Protocol server adapter so AI
// assistants can drive annotation sessions: opening documents, tagging
// dialogue, maintaining the entity registry, and validating conformance.
package mcp

import (
	"errors"
	"fmt"

	"github.com/custodia-labs/glossa-cli/internal/core/domain"
)

// ErrMissingWorkspace is returned when the workspace port is not provided.
var ErrMissingWorkspace = errors.New("mcp: workspace service is required")

// ErrMissingSchemas is returned when the schema port is not provided.
var ErrMissingSchemas = errors.New("mcp: schema service is required")

// toolError converts a domain failure into the message a tool caller
// sees. Validation rejections keep their codes and suggested fixes so
// the assistant can correct the call; everything else passes through.
func toolError(action string, err error) error {
	var merr *domain.MutationError
	if errors.As(err, &merr) {
		msg := fmt.Sprintf("%s rejected: %s", action, merr.Error())
		for _, ve := range merr.Errors {
			if ve.Fix != nil {
				msg += fmt.Sprintf(" (suggested: %s)", ve.Fix.Describe())
			}
		}
		return errors.New(msg)
	}

	switch {
	case errors.Is(err, domain.ErrNoSession):
		return errors.New("no session open: call open_document first")
	case errors.Is(err, domain.ErrNotFound):
		return fmt.Errorf("%s: %w", action, err)
	default:
		return fmt.Errorf("%s: %w", action, err)
	}
}
