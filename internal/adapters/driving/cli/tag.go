package cli

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/glossa-cli/internal/core/domain"
)

var tagCmd = &cobra.Command{
	Use:   "tag",
	Short: "Manage annotations on passages",
}

var tagAddCmd = &cobra.Command{
	Use:   "add [passage-id] [start] [end] [type]",
	Short: "Add a tag to a passage range",
	Long: `Adds an annotation covering the half-open rune range [start, end)
of the passage content. The mutation is validated against the session's
effective schema before anything changes; a rejected tag leaves the
document untouched.`,
	Args: cobra.ExactArgs(4),
	RunE: runTagAdd,
}

var tagRmCmd = &cobra.Command{
	Use:   "rm [passage-id] [tag-id]",
	Short: "Remove a tag",
	Args:  cobra.ExactArgs(2),
	RunE:  runTagRm,
}

var tagSetCmd = &cobra.Command{
	Use:   "set [passage-id] [tag-id]",
	Short: "Set tag attributes",
	Args:  cobra.ExactArgs(2),
	RunE:  runTagSet,
}

var tagLsCmd = &cobra.Command{
	Use:   "ls [passage-id]",
	Short: "List the tags on a passage",
	Args:  cobra.ExactArgs(1),
	RunE:  runTagLs,
}

// tagAttrs collects repeated --attr key=value flags.
var (
	tagAddAttrs []string
	tagSetAttrs []string
)

func init() {
	tagAddCmd.Flags().StringArrayVar(&tagAddAttrs, "attr", nil, "Tag attribute as key=value (repeatable)")
	tagSetCmd.Flags().StringArrayVar(&tagSetAttrs, "attr", nil, "Tag attribute as key=value (repeatable)")

	tagCmd.AddCommand(tagAddCmd)
	tagCmd.AddCommand(tagRmCmd)
	tagCmd.AddCommand(tagSetCmd)
	tagCmd.AddCommand(tagLsCmd)
	rootCmd.AddCommand(tagCmd)
}

func runTagAdd(cmd *cobra.Command, args []string) error {
	if workspaceService == nil {
		return errors.New("workspace service not configured")
	}

	start, err := strconv.Atoi(args[1])
	if err != nil {
		return fmt.Errorf("invalid start offset %q", args[1])
	}
	end, err := strconv.Atoi(args[2])
	if err != nil {
		return fmt.Errorf("invalid end offset %q", args[2])
	}
	attrs, err := parseAttrs(tagAddAttrs)
	if err != nil {
		return err
	}

	state, err := workspaceService.AddTag(cmd.Context(), args[0], domain.TextRange{Start: start, End: end}, args[3], attrs)
	if err != nil {
		return describeMutationError(err, "failed to add tag")
	}

	cmd.Printf("Added <%s> [%d,%d) to %s (revision %d).\n", args[3], start, end, args[0], state.Document.Revision)
	return nil
}

func runTagRm(cmd *cobra.Command, args []string) error {
	if workspaceService == nil {
		return errors.New("workspace service not configured")
	}

	state, err := workspaceService.RemoveTag(cmd.Context(), args[0], args[1])
	if err != nil {
		return describeMutationError(err, "failed to remove tag")
	}

	cmd.Printf("Removed tag %s from %s (revision %d).\n", args[1], args[0], state.Document.Revision)
	return nil
}

func runTagSet(cmd *cobra.Command, args []string) error {
	if workspaceService == nil {
		return errors.New("workspace service not configured")
	}

	attrs, err := parseAttrs(tagSetAttrs)
	if err != nil {
		return err
	}
	if len(attrs) == 0 {
		return errors.New("at least one --attr key=value is required")
	}

	state, err := workspaceService.SetTagAttrs(cmd.Context(), args[0], args[1], attrs)
	if err != nil {
		return describeMutationError(err, "failed to set tag attributes")
	}

	cmd.Printf("Updated tag %s on %s (revision %d).\n", args[1], args[0], state.Document.Revision)
	return nil
}

func runTagLs(cmd *cobra.Command, args []string) error {
	if workspaceService == nil {
		return errors.New("workspace service not configured")
	}

	state, err := workspaceService.Current(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to load session: %w", err)
	}

	passage := state.Document.Passage(args[0])
	if passage == nil {
		return fmt.Errorf("passage %s: %w", args[0], domain.ErrNotFound)
	}

	if len(passage.Tags) == 0 {
		cmd.Printf("No tags on %s.\n", passage.ID)
		return nil
	}

	for _, tag := range passage.Tags {
		cmd.Printf("%s  <%s> [%d,%d)", tag.ID, tag.Type, tag.Range.Start, tag.Range.End)
		if len(tag.Attrs) > 0 {
			keys := make([]string, 0, len(tag.Attrs))
			for k := range tag.Attrs {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			pairs := make([]string, len(keys))
			for i, k := range keys {
				pairs[i] = fmt.Sprintf("%s=%q", k, tag.Attrs[k])
			}
			cmd.Printf("  %s", strings.Join(pairs, " "))
		}
		cmd.Println()
	}
	cmd.Printf("\nTotal: %d tags\n", len(passage.Tags))
	return nil
}

// parseAttrs splits repeated key=value flags into a map.
func parseAttrs(pairs []string) (map[string]string, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	attrs := make(map[string]string, len(pairs))
	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid attribute %q, want key=value", pair)
		}
		attrs[key] = value
	}
	return attrs, nil
}

// describeMutationError surfaces suggested fixes alongside the
// validation codes that rejected a mutation.
func describeMutationError(err error, prefix string) error {
	var merr *domain.MutationError
	if !errors.As(err, &merr) {
		return fmt.Errorf("%s: %w", prefix, err)
	}

	var fixes []string
	for _, ve := range merr.Errors {
		if ve.Fix != nil {
			fixes = append(fixes, ve.Fix.Describe())
		}
	}
	if len(fixes) == 0 {
		return fmt.Errorf("%s: %w", prefix, merr)
	}
	return fmt.Errorf("%s: %w (suggested: %s)", prefix, merr, strings.Join(fixes, "; "))
}
