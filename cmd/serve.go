package cmd

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Ashfaaq98/claims-console/internal/api"
	"github.com/Ashfaaq98/claims-console/internal/bus"
	"github.com/Ashfaaq98/claims-console/internal/ingest"
	"github.com/Ashfaaq98/claims-console/internal/store"
	"github.com/Ashfaaq98/claims-console/internal/ui"
)

var (
	noTUI    bool
	forceTUI bool
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the TUI and claim processing services",
	Long: `Start the Claims Console, which includes:

1. Terminal User Interface (TUI) for claims and reports
2. Document processor that settles new claims to ready
3. Drop-folder document intake (ingest.dir)
4. Optional HTTP document intake and JSON API

The serve command runs until interrupted (Ctrl+C).

Examples:
  # Start with TUI (default)
  claims-console serve

  # Start without TUI (headless mode) with the HTTP API
  claims-console serve --no-tui --api

  # Accept documents over HTTP as well
  claims-console serve --http-ingest-enable --http-ingest-token secret`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().BoolVar(&noTUI, "no-tui", false, "Run in headless mode without TUI")
	serveCmd.Flags().BoolVar(&forceTUI, "force-tui", false, "Force TUI mode even in unsupported terminals")
	serveCmd.Flags().Bool("api", false, "Serve the JSON HTTP API alongside the TUI")

	// HTTP ingestion flags
	serveCmd.Flags().Bool("http-ingest-enable", false, "Enable HTTP ingestion server")
	serveCmd.Flags().String("http-ingest-bind", "127.0.0.1:8081", "Bind address for HTTP ingestion")
	serveCmd.Flags().String("http-ingest-token", "", "Bearer token required for HTTP ingestion (optional)")
	serveCmd.Flags().Float64("http-ingest-rps", 10, "Max HTTP ingestion requests per second")
	serveCmd.Flags().Int("http-ingest-burst", 20, "Burst size for HTTP ingestion rate limiter")
	serveCmd.Flags().String("ingest-dir", "data/incoming", "Drop folder watched for claim documents")

	bindFlag(serveCmd, "api.enable", "api")
	bindFlag(serveCmd, "ingest.http.enable", "http-ingest-enable")
	bindFlag(serveCmd, "ingest.http.bind", "http-ingest-bind")
	bindFlag(serveCmd, "ingest.http.token", "http-ingest-token")
	bindFlag(serveCmd, "ingest.http.rps", "http-ingest-rps")
	bindFlag(serveCmd, "ingest.http.burst", "http-ingest-burst")
	bindFlag(serveCmd, "ingest.dir", "ingest-dir")
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	config := GetConfig()

	willUseTUI := determineTUIMode()

	// In TUI mode logs go to a file so the terminal stays clean; errors are
	// still echoed to stderr once the screen is released.
	logPath := ""
	if willUseTUI {
		logPath = filepath.Join(getWorkingDir(), "logs", "claims-console.log")
	}
	syncLogs, err := initLogger(config.Log, logPath)
	if err != nil {
		return err
	}
	defer syncLogs()

	logger := componentLogger("serve")
	if willUseTUI {
		logger.SetOutput(io.MultiWriter(logger.Writer(), &errorFilterWriter{os.Stderr}))
	}
	logger.Println("Starting Claims Console")

	svc, err := openServices(ctx, config, logger)
	if err != nil {
		return err
	}
	defer svc.Close()

	// Cancelled when the TUI exits so background services stop with it.
	svcCtx, svcCancel := context.WithCancel(ctx)
	defer svcCancel()

	coordinator := &ServiceCoordinator{
		store:  svc.store,
		bus:    svc.bus,
		logger: componentLogger("services"),
		ctx:    svcCtx,
		processor: ingest.NewProcessor(svc.store, svc.bus, ingest.ProcessorOptions{
			Delay:       config.Processing.Delay,
			TotalBilled: config.Processing.TotalBilled,
			Logger:      componentLogger("processor"),
		}),
		folder: ingest.NewFolderIngestor(svc.store, svc.bus, ingest.FolderOptions{
			Dir:          config.Ingest.Dir,
			Watch:        true,
			SkipExisting: true,
			Logger:       componentLogger("ingest-folder"),
		}),
	}

	logger.Println("Starting background services...")
	if err := coordinator.Start(); err != nil {
		return fmt.Errorf("failed to start services: %w", err)
	}
	defer coordinator.Stop()

	if config.Ingest.HTTP.Enable {
		httpSrv, err := ingest.NewHTTPIngestServer(ingest.HTTPIngestOptions{
			Bind:   config.Ingest.HTTP.Bind,
			Token:  config.Ingest.HTTP.Token,
			Dir:    config.Ingest.Dir,
			RPS:    config.Ingest.HTTP.RPS,
			Burst:  config.Ingest.HTTP.Burst,
			Logger: componentLogger("http-ingest"),
		})
		if err != nil {
			logger.Printf("HTTP ingest init error: %v", err)
		} else if err := httpSrv.Start(svcCtx); err != nil {
			logger.Printf("HTTP ingest start error: %v", err)
		} else {
			logger.Printf("HTTP ingest server enabled on %s writing to %s", config.Ingest.HTTP.Bind, config.Ingest.Dir)
		}
	}

	if config.API.Enable || noTUI {
		if err := startAPI(svcCtx, svc, config); err != nil {
			logger.Printf("API start error: %v", err)
		}
	}

	if !noTUI {
		logger.Println("Starting TUI...")
		logger.Printf("Terminal info: %s", getTerminalInfo())

		if !forceTUI && !canInitializeTUI() {
			if needsPseudoTTY() {
				logger.Println("No TTY available, using script command for pseudo-TTY...")
				return runWithPseudoTTY(cmd, args)
			}
			logger.Println("TUI cannot be initialized in this terminal environment")
			logger.Println("Automatically switching to headless mode...")
			logger.Println("Current alternatives:")
			logger.Println("  - CLI commands: claims-console claims, claims-console report 1")
			logger.Println("  - Headless mode: claims-console serve --no-tui")
			noTUI = true
		} else {
			tui := ui.NewUI(ctx, ui.Deps{
				Store:     svc.store,
				Bus:       svc.bus,
				Intake:    svc.intake,
				Sessions:  svc.sessions,
				Assistant: svc.assistant,
				Exporter:  svc.exporter,
				Formatter: svc.formatter,
				Guidance:  svc.guidance,
				NextSteps: svc.nextSteps,
				ExportDir: config.Export.Dir,
			}, componentLogger("ui"))

			if err := tui.Start(ctx); err != nil {
				return fmt.Errorf("TUI error: %w", err)
			}
			logger.Println("TUI exited, cancelling background services...")
			svcCancel()
		}
	}

	if noTUI {
		logger.Println("Running in headless mode...")
		<-ctx.Done()
		logger.Println("Received shutdown signal")
	}

	logger.Println("Claims Console stopped")
	return nil
}

func startAPI(ctx context.Context, svc *services, config Config) error {
	srv := api.New(api.Deps{
		Store:     svc.store,
		Bus:       svc.bus,
		Intake:    svc.intake,
		Sessions:  svc.sessions,
		Assistant: svc.assistant,
		Exporter:  svc.exporter,
		Formatter: svc.formatter,
		Guidance:  svc.guidance,
		NextSteps: svc.nextSteps,
		ExportDir: config.Export.Dir,
	}, api.Options{
		Bind:        config.API.Bind,
		CORSOrigins: config.API.CORSOrigins,
	})
	if err := srv.Start(ctx); err != nil {
		return err
	}
	zap.L().Info("api listening", zap.String("bind", config.API.Bind))
	return nil
}

// ServiceCoordinator manages background services
type ServiceCoordinator struct {
	store     *store.Store
	bus       bus.Bus
	processor *ingest.Processor
	folder    *ingest.FolderIngestor
	logger    *log.Logger
	ctx       context.Context

	// Service state
	wg      sync.WaitGroup
	running bool
}

// Start starts all background services
func (sc *ServiceCoordinator) Start() error {
	if sc.running {
		return fmt.Errorf("services already running")
	}

	sc.running = true

	sc.wg.Add(1)
	go sc.runProcessor()

	if sc.folder != nil {
		sc.wg.Add(1)
		go sc.runFolderIngest()
	}

	sc.wg.Add(1)
	go sc.runHealthMonitor()

	sc.wg.Add(1)
	go sc.runMetricsCollector()

	sc.logger.Println("Background services started")
	return nil
}

// Stop waits for background services; they exit when the coordinator's
// context ends.
func (sc *ServiceCoordinator) Stop() {
	if !sc.running {
		return
	}

	sc.logger.Println("Stopping background services...")
	sc.running = false
	sc.wg.Wait()
	sc.logger.Println("Background services stopped")
}

// runProcessor settles processing claims, restarting the stream readers if
// they fail.
func (sc *ServiceCoordinator) runProcessor() {
	defer sc.wg.Done()

	sc.logger.Println("Starting document processor")
	for {
		err := sc.processor.Run(sc.ctx)
		if sc.ctx.Err() != nil {
			sc.logger.Println("Document processor stopping")
			return
		}
		sc.logger.Printf("Error reading claim streams: %v", err)
		select {
		case <-sc.ctx.Done():
			return
		case <-time.After(5 * time.Second):
		}
	}
}

func (sc *ServiceCoordinator) runFolderIngest() {
	defer sc.wg.Done()

	if err := sc.folder.Run(sc.ctx); err != nil && sc.ctx.Err() == nil {
		sc.logger.Printf("Folder ingest error: %v", err)
	}
}

// runHealthMonitor checks the bus periodically
func (sc *ServiceCoordinator) runHealthMonitor() {
	defer sc.wg.Done()

	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-sc.ctx.Done():
			return
		case <-ticker.C:
			sc.performHealthChecks()
		}
	}
}

// runMetricsCollector collects and logs system metrics
func (sc *ServiceCoordinator) runMetricsCollector() {
	defer sc.wg.Done()

	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-sc.ctx.Done():
			return
		case <-ticker.C:
			sc.collectMetrics()
		}
	}
}

func (sc *ServiceCoordinator) performHealthChecks() {
	ctx, cancel := context.WithTimeout(sc.ctx, 30*time.Second)
	defer cancel()

	if err := sc.bus.HealthCheck(ctx); err != nil {
		sc.logger.Printf("Bus health check failed: %v", err)
	}
}

func (sc *ServiceCoordinator) collectMetrics() {
	ctx, cancel := context.WithTimeout(sc.ctx, 30*time.Second)
	defer cancel()

	busStats, err := sc.bus.GetStats(ctx)
	if err != nil {
		sc.logger.Printf("Failed to get bus stats: %v", err)
	} else {
		sc.logger.Printf("Bus stats: %+v", busStats)
	}

	claims, err := sc.store.ListClaims(ctx)
	if err != nil {
		sc.logger.Printf("Failed to get claim count: %v", err)
		return
	}
	ready, files := 0, 0
	for _, c := range claims {
		if c.Ready() {
			ready++
		}
		files += c.FileCount
	}
	sc.logger.Printf("Catalog stats: %d claims (%d ready), %d documents, %d awaiting analysis",
		len(claims), ready, files, sc.processor.Pending())
}

// errorFilterWriter only writes error messages to the underlying writer
type errorFilterWriter struct {
	writer io.Writer
}

func (w *errorFilterWriter) Write(p []byte) (n int, err error) {
	lc := strings.ToLower(string(p))
	if strings.Contains(lc, "error") ||
		strings.Contains(lc, "failed") ||
		strings.Contains(lc, "panic") {
		return w.writer.Write(p)
	}
	return len(p), nil
}
