package cmd

import (
	"github.com/spf13/cobra"

	"github.com/Ashfaaq98/claims-console/internal/ingest"
)

var apiCmd = &cobra.Command{
	Use:   "api",
	Short: "Serve the JSON HTTP API without the TUI",
	Long: `Serve the claims console over HTTP. Claims created through the API are
settled to ready by the document processor running in the same process.

Examples:
  claims-console api --bind 0.0.0.0:8080
  curl localhost:8080/api/claims/1/report`,
	RunE: runAPI,
}

func init() {
	rootCmd.AddCommand(apiCmd)

	apiCmd.Flags().String("bind", "127.0.0.1:8080", "Bind address for the HTTP API")
	apiCmd.Flags().StringSlice("cors-origin", []string{"*"}, "Allowed CORS origins")
	bindFlag(apiCmd, "api.bind", "bind")
	bindFlag(apiCmd, "api.cors_origins", "cors-origin")
}

func runAPI(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	config := GetConfig()

	logger, syncLogs, err := cliLogger(config, "api")
	if err != nil {
		return err
	}
	defer syncLogs()

	svc, err := openServices(ctx, config, logger)
	if err != nil {
		return err
	}
	defer svc.Close()

	coordinator := &ServiceCoordinator{
		store:  svc.store,
		bus:    svc.bus,
		logger: componentLogger("services"),
		ctx:    ctx,
		processor: ingest.NewProcessor(svc.store, svc.bus, ingest.ProcessorOptions{
			Delay:       config.Processing.Delay,
			TotalBilled: config.Processing.TotalBilled,
			Logger:      componentLogger("processor"),
		}),
	}
	if err := coordinator.Start(); err != nil {
		return err
	}
	defer coordinator.Stop()

	if err := startAPI(ctx, svc, config); err != nil {
		return err
	}

	<-ctx.Done()
	logger.Println("Received shutdown signal")
	return nil
}
