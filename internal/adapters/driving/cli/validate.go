package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/glossa-cli/internal/core/domain"
)

var validateSchemaFlag string

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the current document",
	Long: `Resolves the document's conformance level by validating against the
schema catalog, strictest first. The first schema the document fully
passes is its effective conformance level. With --schema, validates
against that one schema instead.`,
	Args: cobra.NoArgs,
	RunE: runValidate,
}

func init() {
	validateCmd.Flags().StringVar(&validateSchemaFlag, "schema", "", "Validate against one schema instead of resolving the catalog")
	rootCmd.AddCommand(validateCmd)
}

func runValidate(cmd *cobra.Command, _ []string) error {
	if workspaceService == nil || schemaService == nil {
		return errors.New("services not configured")
	}

	ctx := cmd.Context()
	state, err := workspaceService.Current(ctx)
	if err != nil {
		return fmt.Errorf("failed to load session: %w", err)
	}

	if validateSchemaFlag != "" {
		report, err := schemaService.Validate(ctx, state.Document, state.Session.DocKey(), validateSchemaFlag)
		if err != nil {
			return fmt.Errorf("failed to validate: %w", err)
		}
		printReport(cmd, report)
		return nil
	}

	result, err := schemaService.Resolve(ctx, state.Document, state.Session.DocKey())
	if err != nil {
		return fmt.Errorf("failed to resolve conformance: %w", err)
	}

	if result.EffectiveSchemaID != "" {
		cmd.Printf("Conformance: %s\n", styled(stylePass, result.EffectiveSchemaID))
	} else {
		cmd.Printf("Conformance: %s\n", styled(styleFail, "none"))
	}
	if len(result.Attempted) > 0 {
		cmd.Printf("Attempted:   %s\n", joinAttempted(result))
	}
	for _, note := range result.Notes {
		cmd.Printf("Note: %s\n", styled(styleDim, note))
	}
	cmd.Println()
	printReport(cmd, result.Report)
	return nil
}

// joinAttempted marks the effective schema within the attempted list.
func joinAttempted(result domain.ConformanceResult) string {
	out := ""
	for i, id := range result.Attempted {
		if i > 0 {
			out += ", "
		}
		if id == result.EffectiveSchemaID {
			out += styled(styleEmphasis, id)
		} else {
			out += id
		}
	}
	return out
}

// printReport prints one schema's validation report with severity
// styling.
func printReport(cmd *cobra.Command, report domain.ValidationReport) {
	if report.Pass() && len(report.Issues) == 0 {
		cmd.Printf("%s against %s\n", styled(stylePass, "PASS"), report.SchemaID)
		return
	}

	verdict := styled(stylePass, "PASS")
	if !report.Pass() {
		verdict = styled(styleFail, "FAIL")
	}
	cmd.Printf("%s against %s: %d critical, %d warnings\n", verdict, report.SchemaID, report.Criticals(), report.Warnings())

	for _, issue := range report.Issues {
		var sev string
		switch issue.Severity {
		case domain.SeverityCritical:
			sev = styled(styleFail, "CRIT")
		case domain.SeverityWarning:
			sev = styled(styleWarn, "WARN")
		default:
			sev = styled(styleInfo, "INFO")
		}
		cmd.Printf("  %s %-24s %s", sev, issue.Code, issue.Message)
		if issue.Path != "" {
			cmd.Printf("  %s", styled(styleDim, "at "+issue.Path))
		}
		cmd.Println()
	}
}
