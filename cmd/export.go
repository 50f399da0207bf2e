package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Ashfaaq98/claims-console/internal/export"
	"github.com/Ashfaaq98/claims-console/internal/store"
)

var (
	exportFormats []string
	exportOut     string
)

// exportCmd writes report exports to disk
var exportCmd = &cobra.Command{
	Use:   "export <claim-id>",
	Short: "Export a claim report to files",
	Long: `Render a claim report in one or more formats and write the files to the
export directory. PDF and Word formats report that no renderer is available.

Formats: ` + formatList() + `

Examples:
  claims-console export 1
  claims-console export 2 --format md,md-billing,xlsx-billing --out /tmp/claim-2`,
	Args: cobra.ExactArgs(1),
	RunE: runExport,
}

func init() {
	rootCmd.AddCommand(exportCmd)

	exportCmd.Flags().StringSliceVar(&exportFormats, "format", []string{string(export.FormatMD)}, "Export formats")
	exportCmd.Flags().StringVar(&exportOut, "out", "", "Output directory (default export.dir)")
}

func formatList() string {
	names := make([]string, 0, len(export.Options))
	for _, o := range export.Options {
		names = append(names, string(o.Format))
	}
	return strings.Join(names, ", ")
}

func runExport(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	config := GetConfig()

	formats := make([]export.Format, 0, len(exportFormats))
	for _, s := range exportFormats {
		f, err := export.ParseFormat(s)
		if err != nil {
			return err
		}
		formats = append(formats, f)
	}

	logger, syncLogs, err := cliLogger(config, "export")
	if err != nil {
		return err
	}
	defer syncLogs()

	svc, err := openServices(ctx, config, logger)
	if err != nil {
		return err
	}
	defer svc.Close()

	dir := exportOut
	if dir == "" {
		dir = resolvePathRelativeToBase(getWorkingDir(), config.Export.Dir)
	}

	claimID := args[0]
	files, err := export.Bundle(ctx, svc.exporter, formats, claimID)
	if err != nil {
		return fmt.Errorf("failed to export claim %s: %w", claimID, err)
	}

	for _, f := range files {
		path, err := export.Save(dir, f)
		if err != nil {
			return err
		}
		if err := svc.store.LogClaimAction(ctx, claimID, store.ActionExport, "cli",
			map[string]interface{}{"file": f.Name}); err != nil {
			logger.Printf("Failed to audit export: %v", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✓ %s\n", path)
	}
	return nil
}
