package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/Ashfaaq98/claims-console/internal/assistant"
	"github.com/Ashfaaq98/claims-console/internal/store"
)

var askInsert bool

// askCmd sends one question to the Elyon assistant
var askCmd = &cobra.Command{
	Use:   "ask <claim-id> <question...>",
	Short: "Ask the Elyon assistant about a claim",
	Long: `Send a single question about a claim to the configured assistant provider
and print the answer. Answers that read as analysis are offered as a report
section; --insert prints the section markdown as well.

Examples:
  claims-console ask 1 "What are the key risk factors?"
  claims-console ask 2 give me a billing breakdown --insert`,
	Args: cobra.MinimumNArgs(2),
	RunE: runAsk,
}

func init() {
	rootCmd.AddCommand(askCmd)

	askCmd.Flags().BoolVar(&askInsert, "insert", false, "Print the suggested report section")
}

func runAsk(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	config := GetConfig()

	logger, syncLogs, err := cliLogger(config, "ask")
	if err != nil {
		return err
	}
	defer syncLogs()

	svc, err := openServices(ctx, config, logger)
	if err != nil {
		return err
	}
	defer svc.Close()

	claimID := args[0]
	r, err := svc.resolveReport(ctx, claimID)
	if err != nil {
		return fmt.Errorf("failed to load report %s: %w", claimID, err)
	}

	q := assistant.Question{
		Text:      strings.Join(args[1:], " "),
		ClaimID:   claimID,
		Timestamp: time.Now(),
		Context:   assistant.BuildReportContext(r.Claim, r.Title, r.Data()),
	}
	reply := svc.assistant.Reply(ctx, q)

	if err := svc.store.LogAssistantQuery(ctx, claimID, "cli", svc.assistant.Provider().Name(),
		q.Text, reply.Text, reply.TokensEst, reply.Failed); err != nil {
		logger.Printf("Failed to audit assistant query: %v", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, reply.Text)
	if reply.Suggestion == nil {
		return nil
	}
	fmt.Fprintf(out, "\nSuggested section: %s\n", reply.Suggestion.Title)
	if askInsert {
		sec := r.InsertSection(reply.Suggestion.Title, reply.Suggestion.Markdown)
		if err := svc.store.LogClaimAction(ctx, claimID, store.ActionSectionInsert, "cli",
			map[string]interface{}{"section": sec.Title}); err != nil {
			logger.Printf("Failed to audit section insert: %v", err)
		}
		fmt.Fprintf(out, "\n## %s\n\n%s\n", sec.Title, sec.Markdown)
	}
	return nil
}
