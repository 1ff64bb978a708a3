package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var exportOutputFlag string

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Serialize the current document state",
	Long:  `Serializes the current document, annotations and standoff registry included, back to markup. Prints to stdout unless --output names a file.`,
	Args:  cobra.NoArgs,
	RunE:  runExport,
}

func init() {
	exportCmd.Flags().StringVarP(&exportOutputFlag, "output", "o", "", "Write to file instead of stdout")
	rootCmd.AddCommand(exportCmd)
}

func runExport(cmd *cobra.Command, _ []string) error {
	if workspaceService == nil {
		return errors.New("workspace service not configured")
	}

	markup, err := workspaceService.Export(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to export: %w", err)
	}

	if exportOutputFlag == "" {
		cmd.Println(markup)
		return nil
	}

	if err := os.WriteFile(exportOutputFlag, []byte(markup), 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", exportOutputFlag, err)
	}
	cmd.Printf("Exported to %s.\n", exportOutputFlag)
	return nil
}
