package cli

import (
	"errors"

	"github.com/spf13/cobra"
)

var relationCmd = &cobra.Command{
	Use:   "relation",
	Short: "Manage relationships between entities",
}

var relationAddCmd = &cobra.Command{
	Use:   "add [from-xml-id] [to-xml-id] [type]",
	Short: "Link two entities",
	Long:  `Adds a typed relationship between two entities addressed by xml:id. With --mutual, a reciprocal relationship is inserted in the same step and both halves are undone together.`,
	Args:  cobra.ExactArgs(3),
	RunE:  runRelationAdd,
}

var relationRmCmd = &cobra.Command{
	Use:   "rm [relation-id]",
	Short: "Remove a relationship",
	Args:  cobra.ExactArgs(1),
	RunE:  runRelationRm,
}

var (
	relationSubtype string
	relationMutual  bool
)

func init() {
	relationAddCmd.Flags().StringVar(&relationSubtype, "subtype", "", "Relationship subtype, e.g. friends")
	relationAddCmd.Flags().BoolVar(&relationMutual, "mutual", false, "Insert the reciprocal relationship too")

	relationCmd.AddCommand(relationAddCmd)
	relationCmd.AddCommand(relationRmCmd)
	rootCmd.AddCommand(relationCmd)
}

func runRelationAdd(cmd *cobra.Command, args []string) error {
	if workspaceService == nil {
		return errors.New("workspace service not configured")
	}

	_, err := workspaceService.AddRelation(cmd.Context(), args[0], args[1], args[2], relationSubtype, relationMutual)
	if err != nil {
		return describeMutationError(err, "failed to add relationship")
	}

	if relationMutual {
		cmd.Printf("Linked %s and %s (%s, mutual).\n", args[0], args[1], args[2])
	} else {
		cmd.Printf("Linked %s to %s (%s).\n", args[0], args[1], args[2])
	}
	return nil
}

func runRelationRm(cmd *cobra.Command, args []string) error {
	if workspaceService == nil {
		return errors.New("workspace service not configured")
	}

	_, err := workspaceService.RemoveRelation(cmd.Context(), args[0])
	if err != nil {
		return describeMutationError(err, "failed to remove relationship")
	}

	cmd.Printf("Relationship %s removed.\n", args[0])
	return nil
}
