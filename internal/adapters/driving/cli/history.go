package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/glossa-cli/internal/core/domain"
)

var undoCmd = &cobra.Command{
	Use:   "undo",
	Short: "Undo the last entity change",
	Args:  cobra.NoArgs,
	RunE:  runUndo,
}

var redoCmd = &cobra.Command{
	Use:   "redo",
	Short: "Redo the last undone entity change",
	Args:  cobra.NoArgs,
	RunE:  runRedo,
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show the entity change log",
	Long:  `Prints the session's entity delta log. The cursor marks how far the log is applied; entries past the cursor are redoable.`,
	Args:  cobra.NoArgs,
	RunE:  runHistory,
}

func init() {
	rootCmd.AddCommand(undoCmd)
	rootCmd.AddCommand(redoCmd)
	rootCmd.AddCommand(historyCmd)
}

func runUndo(cmd *cobra.Command, _ []string) error {
	if workspaceService == nil {
		return errors.New("workspace service not configured")
	}

	ok, state, err := workspaceService.Undo(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to undo: %w", err)
	}
	if !ok {
		cmd.Println("Nothing to undo.")
		return nil
	}

	cmd.Printf("Undone (revision %d).\n", state.Document.Revision)
	return nil
}

func runRedo(cmd *cobra.Command, _ []string) error {
	if workspaceService == nil {
		return errors.New("workspace service not configured")
	}

	ok, state, err := workspaceService.Redo(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to redo: %w", err)
	}
	if !ok {
		cmd.Println("Nothing to redo.")
		return nil
	}

	cmd.Printf("Redone (revision %d).\n", state.Document.Revision)
	return nil
}

func runHistory(cmd *cobra.Command, _ []string) error {
	if workspaceService == nil {
		return errors.New("workspace service not configured")
	}

	deltas, cursor, err := workspaceService.History(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to load history: %w", err)
	}

	if len(deltas) == 0 {
		cmd.Println("No history.")
		return nil
	}

	for i, delta := range deltas {
		marker := " "
		line := fmt.Sprintf("%3d  %s", i+1, describeDelta(delta))
		if i >= cursor {
			line = styled(styleDim, line)
		}
		if i == cursor-1 {
			marker = "*"
		}
		cmd.Printf("%s%s\n", marker, line)
	}
	cmd.Printf("\nCursor at %d of %d; entries past the cursor are redoable.\n", cursor, len(deltas))
	return nil
}

// describeDelta renders one log entry for the history listing.
func describeDelta(d domain.EntityDelta) string {
	switch d.Kind {
	case domain.DeltaCreate:
		if d.Relationship != nil {
			rel := d.Relationship
			arrow := "->"
			if rel.Mutual {
				arrow = "<->"
			}
			return fmt.Sprintf("create relationship %s %s %s (%s)", rel.From, arrow, rel.To, rel.Type)
		}
		if d.Entity != nil {
			return fmt.Sprintf("create %s %q (%s)", d.EntityKind, d.Entity.Name, d.Entity.XMLID)
		}
		return fmt.Sprintf("create %s", d.EntityKind)
	case domain.DeltaUpdate:
		return fmt.Sprintf("update %s %s", d.EntityKind, d.TargetID)
	case domain.DeltaDelete:
		if d.EntityKind == domain.KindRelationship {
			return fmt.Sprintf("delete relationship %s", d.TargetID)
		}
		return fmt.Sprintf("delete %s %s", d.EntityKind, d.TargetID)
	default:
		return string(d.Kind)
	}
}
