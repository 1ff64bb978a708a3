package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/glossa-cli/internal/core/domain"
	"github.com/custodia-labs/glossa-cli/internal/core/ports/driving"
)

var openCmd = &cobra.Command{
	Use:   "open [file]",
	Short: "Open a document and start a session",
	Long:  `Parses a markup file, builds the passage and entity indices, and starts a new annotation session. The new session becomes current.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runOpen,
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the current session",
	Args:  cobra.NoArgs,
	RunE:  runStatus,
}

var sessionsCmd = &cobra.Command{
	Use:   "sessions",
	Short: "List annotation sessions",
	Args:  cobra.NoArgs,
	RunE:  runSessions,
}

var sessionsUseCmd = &cobra.Command{
	Use:   "use [session-id]",
	Short: "Switch to another session",
	Args:  cobra.ExactArgs(1),
	RunE:  runSessionsUse,
}

var closeCmd = &cobra.Command{
	Use:   "close [session-id]",
	Short: "Close a session",
	Long:  `Deletes a session together with its history and event trail. Without an argument the current session is closed.`,
	Args:  cobra.MaximumNArgs(1),
	RunE:  runClose,
}

func init() {
	sessionsCmd.AddCommand(sessionsUseCmd)

	rootCmd.AddCommand(openCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(sessionsCmd)
	rootCmd.AddCommand(closeCmd)
}

func runOpen(cmd *cobra.Command, args []string) error {
	if workspaceService == nil {
		return errors.New("workspace service not configured")
	}

	state, err := workspaceService.Open(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("failed to open document: %w", err)
	}

	cmd.Printf("Opened %s\n", state.Session.Path)
	printStateSummary(cmd, state)
	return nil
}

func runStatus(cmd *cobra.Command, _ []string) error {
	if workspaceService == nil {
		return errors.New("workspace service not configured")
	}

	state, err := workspaceService.Current(cmd.Context())
	if err != nil {
		if errors.Is(err, domain.ErrNoSession) {
			cmd.Println("No session open. Run 'glossa open <file>' to start one.")
			return nil
		}
		return fmt.Errorf("failed to load session: %w", err)
	}

	printStateSummary(cmd, state)
	return nil
}

func runSessions(cmd *cobra.Command, _ []string) error {
	if workspaceService == nil {
		return errors.New("workspace service not configured")
	}

	ctx := cmd.Context()
	sessions, err := workspaceService.List(ctx)
	if err != nil {
		return fmt.Errorf("failed to list sessions: %w", err)
	}

	if len(sessions) == 0 {
		cmd.Println("No sessions. Run 'glossa open <file>' to start one.")
		return nil
	}

	currentID := ""
	if current, err := workspaceService.Current(ctx); err == nil {
		currentID = current.Session.ID
	}

	for _, s := range sessions {
		marker := " "
		if s.ID == currentID {
			marker = "*"
		}
		title := s.Title
		if title == "" {
			title = "(untitled)"
		}
		cmd.Printf("%s %s  %s\n", marker, s.ID, title)
		cmd.Printf("    %s  rev %d  updated %s\n", s.Path, s.Revision, s.UpdatedAt.Format("2006-01-02 15:04:05"))
	}
	cmd.Printf("\nTotal: %d sessions\n", len(sessions))
	return nil
}

func runSessionsUse(cmd *cobra.Command, args []string) error {
	if workspaceService == nil {
		return errors.New("workspace service not configured")
	}

	if err := workspaceService.Use(cmd.Context(), args[0]); err != nil {
		return fmt.Errorf("failed to switch session: %w", err)
	}

	cmd.Printf("Session %s is now current.\n", args[0])
	return nil
}

func runClose(cmd *cobra.Command, args []string) error {
	if workspaceService == nil {
		return errors.New("workspace service not configured")
	}

	ctx := cmd.Context()
	sessionID := ""
	if len(args) == 1 {
		sessionID = args[0]
	} else {
		state, err := workspaceService.Current(ctx)
		if err != nil {
			if errors.Is(err, domain.ErrNoSession) {
				cmd.Println("No session open.")
				return nil
			}
			return fmt.Errorf("failed to load session: %w", err)
		}
		sessionID = state.Session.ID
	}

	if err := workspaceService.Close(ctx, sessionID); err != nil {
		return fmt.Errorf("failed to close session: %w", err)
	}

	cmd.Printf("Session %s closed.\n", sessionID)
	return nil
}

// printStateSummary prints the shared session header used by open and
// status.
func printStateSummary(cmd *cobra.Command, state *driving.WorkspaceState) {
	doc := state.Document
	title := doc.Title
	if title == "" {
		title = "(untitled)"
	}

	cmd.Printf("Session:  %s\n", styled(styleEmphasis, state.Session.ID))
	cmd.Printf("Title:    %s\n", title)
	if doc.Author != "" {
		cmd.Printf("Author:   %s\n", doc.Author)
	}
	cmd.Printf("Revision: %d\n", doc.Revision)
	cmd.Printf("Passages: %d  Dialogue: %d  Entities: %d\n",
		len(doc.Passages), len(doc.DialogueSpans()), len(doc.Entities.All()))
}
