package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/Ashfaaq98/claims-console/internal/ingest"
)

var (
	ingestWatch     bool
	ingestClaimID   string
	ingestClaimName string
)

// ingestCmd attaches documents from the drop folder
var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Attach claim documents from a folder",
	Long: `Attach documents dropped into a folder to claims. Files named
"claim-<id>_<name>.pdf" go to that claim; other files go to --claim, or to
a claim named --claim-name that is created on first use.

Each document is processed like an upload: the claim turns ready once the
processing delay has passed.

Examples:
  # One-shot
  claims-console ingest --dir ./incoming

  # Keep watching until interrupted
  claims-console ingest --dir ./incoming --watch --claim 3`,
	RunE: runIngest,
}

func init() {
	rootCmd.AddCommand(ingestCmd)

	ingestCmd.Flags().String("dir", "data/incoming", "Folder to read documents from")
	ingestCmd.Flags().BoolVar(&ingestWatch, "watch", false, "Watch the folder for new files")
	ingestCmd.Flags().StringVar(&ingestClaimID, "claim", "", "Claim id for files without a claim prefix")
	ingestCmd.Flags().StringVar(&ingestClaimName, "claim-name", ingest.DefaultIntakeClaim, "Claim created for unprefixed files when --claim is empty")
	bindFlag(ingestCmd, "ingest.dir", "dir")
}

func runIngest(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	config := GetConfig()

	logger, syncLogs, err := cliLogger(config, "ingest")
	if err != nil {
		return err
	}
	defer syncLogs()

	svc, err := openServices(ctx, config, logger)
	if err != nil {
		return err
	}
	defer svc.Close()

	if ingestClaimID != "" {
		if _, err := svc.store.GetClaim(ctx, ingestClaimID); err != nil {
			return fmt.Errorf("claim %s: %w", ingestClaimID, err)
		}
	}

	dir := resolvePathRelativeToBase(getWorkingDir(), config.Ingest.Dir)
	folder := ingest.NewFolderIngestor(svc.store, svc.bus, ingest.FolderOptions{
		Dir:       dir,
		Watch:     ingestWatch,
		ClaimID:   ingestClaimID,
		ClaimName: ingestClaimName,
		Logger:    componentLogger("ingest-folder"),
	})

	processor := ingest.NewProcessor(svc.store, svc.bus, ingest.ProcessorOptions{
		Delay:       config.Processing.Delay,
		TotalBilled: config.Processing.TotalBilled,
		Logger:      componentLogger("processor"),
	})
	procCtx, stopProcessor := context.WithCancel(ctx)
	procDone := make(chan error, 1)
	go func() { procDone <- processor.Run(procCtx) }()

	logger.Printf("Ingesting from %s (watch=%v)", dir, ingestWatch)
	runErr := folder.Run(ctx)

	// A one-shot run leaves the processor to settle what it was handed.
	if !ingestWatch && runErr == nil {
		waitSettled(ctx, processor, config.Processing.Delay)
	}
	stopProcessor()
	if err := <-procDone; err != nil && procCtx.Err() == nil {
		logger.Printf("Processor stopped: %v", err)
	}

	ingested, skipped, failed := folder.Stats()
	fmt.Fprintf(cmd.OutOrStdout(), "Ingested %d documents (%d skipped, %d failed)\n", ingested, skipped, failed)
	if runErr != nil && ctx.Err() == nil {
		return fmt.Errorf("ingest failed: %w", runErr)
	}
	return nil
}

// waitSettled blocks until the processor has no claims pending, bounded by
// a couple of processing delays.
func waitSettled(ctx context.Context, p *ingest.Processor, delay time.Duration) {
	deadline := time.NewTimer(2*delay + 2*time.Second)
	defer deadline.Stop()
	tick := time.NewTicker(250 * time.Millisecond)
	defer tick.Stop()

	// Give the processor a tick to pick up the last announcements.
	seen := false
	for {
		select {
		case <-ctx.Done():
			return
		case <-deadline.C:
			return
		case <-tick.C:
			if p.Pending() > 0 {
				seen = true
				continue
			}
			if seen || delay <= 0 {
				return
			}
			seen = true
		}
	}
}
