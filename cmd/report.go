package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Ashfaaq98/claims-console/internal/export"
	"github.com/Ashfaaq98/claims-console/internal/timeline"
)

var (
	reportScope   string
	reportFilters timeline.Filters
)

// reportCmd prints a claim report as markdown
var reportCmd = &cobra.Command{
	Use:   "report <claim-id>",
	Short: "Print a claim report as markdown",
	Long: `Render a claim report to stdout. Unknown claim ids render the default
report. Timeline filter flags narrow the Medical Timeline section.

Examples:
  claims-console report 1
  claims-console report 2 --scope billing
  claims-console report 1 --key-date yes --start 2024-01-01`,
	Args: cobra.ExactArgs(1),
	RunE: runReport,
}

func init() {
	rootCmd.AddCommand(reportCmd)

	f := reportCmd.Flags()
	f.StringVar(&reportScope, "scope", string(export.ScopeFull), "Sections to render (full, summary, medical, causation, billing)")
	f.StringVar(&reportFilters.PatientName, "patient", "", "Timeline: patient name")
	f.StringVar(&reportFilters.DoctorName, "doctor", "", "Timeline: doctor name")
	f.StringVar(&reportFilters.MedicalFacility, "facility", "", "Timeline: medical facility")
	f.StringVar(&reportFilters.MedicalSpecialty, "specialty", "", "Timeline: medical specialty")
	f.StringVar(&reportFilters.ProcedureType, "procedure", "", "Timeline: procedure type")
	f.StringVar(&reportFilters.MedicationType, "medication", "", "Timeline: medication type")
	f.StringVar(&reportFilters.Label, "label", "", "Timeline: event label")
	f.StringVar(&reportFilters.NeedsReview, "needs-review", "", "Timeline: yes or no")
	f.StringVar(&reportFilters.IsKeyDate, "key-date", "", "Timeline: yes or no")
	f.StringVar(&reportFilters.StartDate, "start", "", "Timeline: first date (YYYY-MM-DD)")
	f.StringVar(&reportFilters.EndDate, "end", "", "Timeline: last date (YYYY-MM-DD)")
	f.StringVar(&reportFilters.Search, "search", "", "Timeline: free-text search")
}

func runReport(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	config := GetConfig()

	scope, err := parseScope(reportScope)
	if err != nil {
		return err
	}

	logger, syncLogs, err := cliLogger(config, "report")
	if err != nil {
		return err
	}
	defer syncLogs()

	svc, err := openServices(ctx, config, logger)
	if err != nil {
		return err
	}
	defer svc.Close()

	r, err := svc.resolveReport(ctx, args[0])
	if err != nil {
		return fmt.Errorf("failed to load report %s: %w", args[0], err)
	}

	fmt.Fprint(cmd.OutOrStdout(), export.RenderMarkdown(r, export.MarkdownOptions{
		Scope:     scope,
		Formatter: svc.formatter,
		Guidance:  svc.guidance,
		NextSteps: svc.nextSteps,
		Filters:   reportFilters,
	}))
	return nil
}

func parseScope(s string) (export.Scope, error) {
	switch scope := export.Scope(s); scope {
	case export.ScopeFull, export.ScopeSummary, export.ScopeMedical, export.ScopeCausation, export.ScopeBilling:
		return scope, nil
	}
	return "", fmt.Errorf("unknown scope %q", s)
}
