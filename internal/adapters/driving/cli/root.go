// Package cli implements the glossa command-line interface using cobra.
// Commands drive the application exclusively through the driving ports;
// main wires the concrete services before Execute runs.
package cli

import (
	"github.com/spf13/cobra"

	"github.com/custodia-labs/glossa-cli/internal/core/ports/driving"
	"github.com/custodia-labs/glossa-cli/internal/logger"
)

// version is the build version, overridden at link time.
var version = "dev"

// Services backing the commands. Wired by SetServices before Execute;
// every runner nil-guards so a partially wired binary fails cleanly.
var (
	workspaceService driving.Workspace
	schemaService    driving.SchemaService
)

var verboseFlag bool

var rootCmd = &cobra.Command{
	Use:   "glossa",
	Short: "Annotate dialogue and entities in literary markup",
	Long: `Glossa is a document annotation engine for TEI-style literary markup.

Open a document to start a session, tag dialogue and entity references,
maintain a standoff registry of characters, places, and organizations,
and validate the result against a catalog of schemas from strict to
permissive. Every entity change is recorded and can be undone.`,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		logger.SetVerbose(verboseFlag)
	},
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verboseFlag, "verbose", "v", false, "Enable debug logging")
}

// SetServices wires the driving ports the commands depend on.
func SetServices(workspace driving.Workspace, schemas driving.SchemaService) {
	workspaceService = workspace
	schemaService = schemas
}

// SetVersion sets the version string reported by the version command.
func SetVersion(v string) {
	if v != "" {
		version = v
	}
}

// Execute runs the CLI.
func Execute() error {
	return rootCmd.Execute()
}
