package cmd

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Ashfaaq98/claims-console/internal/billing"
	"github.com/Ashfaaq98/claims-console/internal/report"
	"github.com/Ashfaaq98/claims-console/internal/store"
)

// claimsCmd lists the claim catalog
var claimsCmd = &cobra.Command{
	Use:   "claims [search]",
	Short: "List claims, optionally filtered by name",
	Long: `List claims from the catalog in a simple text format.
This command works in any terminal environment and provides an alternative
to the TUI when terminal capabilities are limited.

Examples:
  # List all claims
  claims-console claims

  # Claims whose name contains "smith"
  claims-console claims smith

  # Include documents and recent activity
  claims-console claims --details`,
	Args: cobra.MaximumNArgs(1),
	RunE: runClaims,
}

var (
	claimsDetails bool
	claimsLimit   int
)

func init() {
	rootCmd.AddCommand(claimsCmd)

	claimsCmd.Flags().BoolVar(&claimsDetails, "details", false, "Show documents and recent audit entries")
	claimsCmd.Flags().IntVar(&claimsLimit, "limit", 5, "Audit entries per claim with --details")
}

func runClaims(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	config := GetConfig()

	logger, syncLogs, err := cliLogger(config, "claims")
	if err != nil {
		return err
	}
	defer syncLogs()

	svc, err := openServices(ctx, config, logger)
	if err != nil {
		return err
	}
	defer svc.Close()

	query := ""
	if len(args) > 0 {
		query = args[0]
	}
	return listClaims(ctx, cmd.OutOrStdout(), svc.store, svc.formatter, query, claimsDetails, claimsLimit)
}

func listClaims(ctx context.Context, w io.Writer, st *store.Store, f *billing.Formatter, query string, details bool, limit int) error {
	claims, err := st.SearchClaims(ctx, query)
	if err != nil {
		return fmt.Errorf("failed to list claims: %w", err)
	}

	if len(claims) == 0 {
		if query != "" {
			fmt.Fprintf(w, "No claims match %q.\n", query)
		} else {
			fmt.Fprintln(w, "No claims found.")
		}
		return nil
	}

	fmt.Fprintf(w, "Found %d claims:\n\n", len(claims))

	for i, c := range claims {
		fmt.Fprintf(w, "%d. [%s] %s\n", i+1, strings.ToUpper(c.Status), c.Name)
		fmt.Fprintf(w, "   ID: %s\n", c.ID)
		fmt.Fprintf(w, "   Documents: %d\n", c.FileCount)
		if c.TotalBilled != nil {
			fmt.Fprintf(w, "   Total billed: %s\n", f.Format(*c.TotalBilled))
		}
		if c.AccidentDate != "" {
			fmt.Fprintf(w, "   Accident date: %s\n", c.AccidentDate)
		}
		fmt.Fprintf(w, "   Last updated: %s\n", c.LastUpdated.Format("2006-01-02 15:04:05"))
		if c.Ready() {
			fmt.Fprintf(w, "   Report: %s\n", report.Title(c))
		}
		if details {
			if err := printClaimDetails(ctx, w, st, c.ID, limit); err != nil {
				return err
			}
		}
		fmt.Fprintln(w)
	}

	return nil
}

func printClaimDetails(ctx context.Context, w io.Writer, st *store.Store, claimID string, limit int) error {
	docs, err := st.ListDocuments(ctx, claimID)
	if err != nil {
		return fmt.Errorf("failed to list documents for claim %s: %w", claimID, err)
	}
	for _, d := range docs {
		fmt.Fprintf(w, "     - %s (%s)\n", d.FileName, strings.ToUpper(d.Kind))
	}
	entries, err := st.GetAuditEntries(ctx, claimID, limit)
	if err != nil {
		return fmt.Errorf("failed to get audit entries for claim %s: %w", claimID, err)
	}
	for _, e := range entries {
		fmt.Fprintf(w, "     %s %s by %s\n", e.Timestamp.Format("2006-01-02 15:04"), e.Action, e.Actor)
	}
	return nil
}
