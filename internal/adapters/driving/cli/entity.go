package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/glossa-cli/internal/core/domain"
)

var entityCmd = &cobra.Command{
	Use:   "entity",
	Short: "Manage the standoff entity registry",
	Long:  `Create, list, update, archive, and delete the characters, places, and organizations referenced by annotations.`,
}

var entityAddCmd = &cobra.Command{
	Use:   "add [kind] [name]",
	Short: "Create an entity",
	Long:  `Creates an entity of kind character, place, or organization. The xml:id is derived from the name and kept unique within the document.`,
	Args:  cobra.ExactArgs(2),
	RunE:  runEntityAdd,
}

var entityLsCmd = &cobra.Command{
	Use:   "ls",
	Short: "List entities",
	Args:  cobra.NoArgs,
	RunE:  runEntityLs,
}

var entitySetCmd = &cobra.Command{
	Use:   "set [id|xml:id]",
	Short: "Update an entity",
	Args:  cobra.ExactArgs(1),
	RunE:  runEntitySet,
}

var entityRmCmd = &cobra.Command{
	Use:   "rm [id|xml:id]",
	Short: "Delete an entity",
	Long:  `Deletes an entity. Rejected while tags or relationships still reference it; archive instead to retire an entity without breaking references.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runEntityRm,
}

var entityArchiveCmd = &cobra.Command{
	Use:   "archive [id|xml:id]",
	Short: "Archive an entity",
	Args:  cobra.ExactArgs(1),
	RunE:  runEntityArchive,
}

var (
	entityAddNote    string
	entityAddSubtype string
	entityLsKind     string
	entityLsArchived bool
	entitySetName    string
	entitySetNote    string
	entitySetSubtype string
)

func init() {
	entityAddCmd.Flags().StringVar(&entityAddNote, "note", "", "Free-form note")
	entityAddCmd.Flags().StringVar(&entityAddSubtype, "type", "", "Kind-specific subtype, e.g. city")

	entityLsCmd.Flags().StringVar(&entityLsKind, "kind", "", "Filter by kind (character, place, organization)")
	entityLsCmd.Flags().BoolVar(&entityLsArchived, "archived", false, "Include archived entities")

	entitySetCmd.Flags().StringVar(&entitySetName, "name", "", "New display name")
	entitySetCmd.Flags().StringVar(&entitySetNote, "note", "", "New note")
	entitySetCmd.Flags().StringVar(&entitySetSubtype, "type", "", "New subtype")

	entityCmd.AddCommand(entityAddCmd)
	entityCmd.AddCommand(entityLsCmd)
	entityCmd.AddCommand(entitySetCmd)
	entityCmd.AddCommand(entityRmCmd)
	entityCmd.AddCommand(entityArchiveCmd)
	rootCmd.AddCommand(entityCmd)
}

func runEntityAdd(cmd *cobra.Command, args []string) error {
	if workspaceService == nil {
		return errors.New("workspace service not configured")
	}

	kind := domain.EntityKind(args[0])
	if !kind.Valid() {
		return fmt.Errorf("invalid kind %q, want character, place, or organization", args[0])
	}

	state, err := workspaceService.CreateEntity(cmd.Context(), kind, args[1], entityAddSubtype, entityAddNote)
	if err != nil {
		return describeMutationError(err, "failed to create entity")
	}

	// The new entity is the latest of its kind in the replayed set.
	created := findEntityByName(state.Document.Entities, kind, args[1])
	if created != nil {
		cmd.Printf("Created %s %s (xml:id %s).\n", kind, created.ID, created.XMLID)
	} else {
		cmd.Printf("Created %s %q.\n", kind, args[1])
	}
	return nil
}

func runEntityLs(cmd *cobra.Command, _ []string) error {
	if workspaceService == nil {
		return errors.New("workspace service not configured")
	}

	state, err := workspaceService.Current(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to load session: %w", err)
	}

	entities := state.Document.Entities.All()
	shown := 0
	for _, e := range entities {
		if entityLsKind != "" && string(e.Kind) != entityLsKind {
			continue
		}
		if e.Archived && !entityLsArchived {
			continue
		}
		shown++

		label := ""
		if e.Subtype != "" {
			label = " (" + e.Subtype + ")"
		}
		if e.Archived {
			label += " " + styled(styleDim, "[archived]")
		}
		cmd.Printf("%-14s %s  %s%s\n", e.Kind, e.ID, styled(styleEmphasis, e.Name), label)
		cmd.Printf("               xml:id %s\n", e.XMLID)
		if e.Note != "" {
			cmd.Printf("               %s\n", snippet(e.Note, 70))
		}
	}

	if shown == 0 {
		cmd.Println("No entities.")
		return nil
	}
	cmd.Printf("\nTotal: %d entities\n", shown)
	return nil
}

func runEntitySet(cmd *cobra.Command, args []string) error {
	if workspaceService == nil {
		return errors.New("workspace service not configured")
	}

	// Only flags the user passed become part of the partial update;
	// an empty string is a legitimate way to clear a note.
	var update domain.EntityUpdate
	if cmd.Flags().Changed("name") {
		update.Name = &entitySetName
	}
	if cmd.Flags().Changed("note") {
		update.Note = &entitySetNote
	}
	if cmd.Flags().Changed("type") {
		update.Subtype = &entitySetSubtype
	}
	if update.Name == nil && update.Note == nil && update.Subtype == nil {
		return errors.New("nothing to update: pass --name, --note, or --type")
	}

	_, err := workspaceService.UpdateEntity(cmd.Context(), args[0], update)
	if err != nil {
		return describeMutationError(err, "failed to update entity")
	}

	cmd.Printf("Entity %s updated.\n", args[0])
	return nil
}

func runEntityRm(cmd *cobra.Command, args []string) error {
	if workspaceService == nil {
		return errors.New("workspace service not configured")
	}

	_, err := workspaceService.DeleteEntity(cmd.Context(), args[0])
	if err != nil {
		return describeMutationError(err, "failed to delete entity")
	}

	cmd.Printf("Entity %s deleted.\n", args[0])
	return nil
}

func runEntityArchive(cmd *cobra.Command, args []string) error {
	if workspaceService == nil {
		return errors.New("workspace service not configured")
	}

	_, err := workspaceService.ArchiveEntity(cmd.Context(), args[0])
	if err != nil {
		return describeMutationError(err, "failed to archive entity")
	}

	cmd.Printf("Entity %s archived.\n", args[0])
	return nil
}

// findEntityByName returns the last entity of the kind with the name.
// Creation appends, so the last match is the newest.
func findEntityByName(set domain.EntitySet, kind domain.EntityKind, name string) *domain.Entity {
	var found *domain.Entity
	for _, e := range set.All() {
		if e.Kind == kind && e.Name == name {
			e := e
			found = &e
		}
	}
	return found
}
