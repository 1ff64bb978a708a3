package mcp

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// uriScheme is the custom URI scheme for glossa resources.
const uriScheme = "glossa://"

// registerResources registers all resource handlers with the MCP server.
func (s *Server) registerResources() {
	s.server.AddResource(&mcp.Resource{
		URI:         uriScheme + "session/current",
		Name:        "current-session",
		Description: "Serialized markup of the current annotation session",
		MIMEType:    "application/xml",
	}, s.handleCurrentSessionResource)
}

// handleCurrentSessionResource serves the current document state as
// markup.
func (s *Server) handleCurrentSessionResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	markup, err := s.ports.Workspace.Export(ctx)
	if err != nil {
		return nil, fmt.Errorf("exporting session: %w", err)
	}

	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      req.Params.URI,
			MIMEType: "application/xml",
			Text:     markup,
		}},
	}, nil
}
