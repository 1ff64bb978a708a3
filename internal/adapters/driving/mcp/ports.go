package mcp

import (
	"github.com/custodia-labs/glossa-cli/internal/core/ports/driving"
)

// Ports aggregates the driving ports the MCP server exposes. A single
// injection point keeps the CLI wiring and the tests identical.
type Ports struct {
	// Workspace drives sessions, mutations, and history.
	Workspace driving.Workspace

	// Schemas resolves conformance and serves the catalog.
	Schemas driving.SchemaService
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	if p.Workspace == nil {
		return ErrMissingWorkspace
	}
	if p.Schemas == nil {
		return ErrMissingSchemas
	}
	return nil
}
