package cli

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"
)

var schemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Inspect the schema catalog",
}

var schemaLsCmd = &cobra.Command{
	Use:   "ls",
	Short: "List the schema catalog",
	Args:  cobra.NoArgs,
	RunE:  runSchemaLs,
}

var schemaShowCmd = &cobra.Command{
	Use:   "show [schema-id]",
	Short: "Show a schema's compiled constraints",
	Args:  cobra.ExactArgs(1),
	RunE:  runSchemaShow,
}

var schemaRefreshCmd = &cobra.Command{
	Use:   "refresh",
	Short: "Drop cached schemas and reports",
	Long:  `Drops compiled constraint tables and cached validation reports so the next validation re-fetches and re-compiles every grammar.`,
	Args:  cobra.NoArgs,
	RunE:  runSchemaRefresh,
}

func init() {
	schemaCmd.AddCommand(schemaLsCmd)
	schemaCmd.AddCommand(schemaShowCmd)
	schemaCmd.AddCommand(schemaRefreshCmd)
	rootCmd.AddCommand(schemaCmd)
}

func runSchemaLs(cmd *cobra.Command, _ []string) error {
	if schemaService == nil {
		return errors.New("schema service not configured")
	}

	refs, err := schemaService.Catalog(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to list schemas: %w", err)
	}

	cmd.Println("Schema catalog (strictest first):")
	for i, ref := range refs {
		cmd.Printf("%3d  %s  %s\n", i+1, styled(styleEmphasis, ref.ID), ref.Name)
		if ref.Description != "" {
			cmd.Printf("     %s\n", styled(styleDim, ref.Description))
		}
	}
	return nil
}

func runSchemaShow(cmd *cobra.Command, args []string) error {
	if schemaService == nil {
		return errors.New("schema service not configured")
	}

	table, err := schemaService.Table(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("failed to load schema: %w", err)
	}

	cmd.Printf("Schema %s: %d constrained tags\n\n", table.SchemaID, len(table.Tags))
	for _, name := range table.Names() {
		tag := table.Tags[name]
		cmd.Printf("<%s>  content: %s\n", name, tag.Content)

		attrNames := make([]string, 0, len(tag.Attrs))
		for attr := range tag.Attrs {
			attrNames = append(attrNames, attr)
		}
		sort.Strings(attrNames)
		for _, attrName := range attrNames {
			attr := tag.Attrs[attrName]
			desc := string(attr.Type)
			if attr.Required {
				desc += ", required"
			}
			if len(attr.Enum) > 0 {
				desc += ", one of " + strings.Join(attr.Enum, "|")
			}
			cmd.Printf("  @%s (%s)\n", attrName, desc)
		}

		if len(tag.Children) > 0 {
			children := make([]string, 0, len(tag.Children))
			for child := range tag.Children {
				children = append(children, child)
			}
			sort.Strings(children)
			cmd.Printf("  children: %s\n", strings.Join(children, ", "))
		}
	}

	if len(table.Warnings) > 0 {
		cmd.Println()
		for _, w := range table.Warnings {
			cmd.Printf("%s %s\n", styled(styleWarn, "warning:"), w)
		}
	}
	return nil
}

func runSchemaRefresh(cmd *cobra.Command, _ []string) error {
	if schemaService == nil {
		return errors.New("schema service not configured")
	}

	schemaService.ClearCaches()
	cmd.Println("Schema caches cleared.")
	return nil
}
