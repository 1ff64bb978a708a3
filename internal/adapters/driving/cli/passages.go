package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/glossa-cli/internal/core/ports/driving"
)

var passagesDialogueFlag bool

var passagesCmd = &cobra.Command{
	Use:   "passages",
	Short: "List the passages of the current document",
	Args:  cobra.NoArgs,
	RunE:  runPassages,
}

func init() {
	passagesCmd.Flags().BoolVar(&passagesDialogueFlag, "dialogue", false, "List dialogue spans instead of passages")
	rootCmd.AddCommand(passagesCmd)
}

func runPassages(cmd *cobra.Command, _ []string) error {
	if workspaceService == nil {
		return errors.New("workspace service not configured")
	}

	state, err := workspaceService.Current(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to load session: %w", err)
	}

	if passagesDialogueFlag {
		return printDialogue(cmd, state)
	}

	doc := state.Document
	if len(doc.Passages) == 0 {
		cmd.Println("No passages.")
		return nil
	}

	for _, p := range doc.Passages {
		cmd.Printf("%3d  %-4s %s  %s\n", p.Index, p.Kind, p.ID, snippet(p.Content, 60))
		if len(p.Tags) > 0 {
			cmd.Printf("     %s\n", styled(styleDim, fmt.Sprintf("%d tags, %d dialogue spans", len(p.Tags), len(p.Dialogue))))
		}
	}
	cmd.Printf("\nTotal: %d passages\n", len(doc.Passages))
	return nil
}

func printDialogue(cmd *cobra.Command, state *driving.WorkspaceState) error {
	spans := state.Document.DialogueSpans()
	if len(spans) == 0 {
		cmd.Println("No dialogue spans.")
		return nil
	}

	for _, span := range spans {
		speaker := span.Speaker
		if speaker == "" {
			speaker = "(unattributed)"
		}
		cmd.Printf("%s  %s [%d,%d) %s\n", span.PassageID, styled(styleEmphasis, speaker), span.Range.Start, span.Range.End, span.Mode)
		cmd.Printf("    %q\n", snippet(span.Content, 70))
		if span.Addressee != "" {
			cmd.Printf("    to %s\n", span.Addressee)
		}
	}
	cmd.Printf("\nTotal: %d dialogue spans\n", len(spans))
	return nil
}

// snippet truncates text to max runes on a single line.
func snippet(text string, max int) string {
	runes := []rune(text)
	if len(runes) <= max {
		return text
	}
	return string(runes[:max-1]) + "…"
}
