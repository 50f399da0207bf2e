package cmd

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/Ashfaaq98/claims-console/internal/assistant"
	"github.com/Ashfaaq98/claims-console/internal/billing"
	"github.com/Ashfaaq98/claims-console/internal/bus"
	"github.com/Ashfaaq98/claims-console/internal/export"
	"github.com/Ashfaaq98/claims-console/internal/ingest"
	"github.com/Ashfaaq98/claims-console/internal/report"
	"github.com/Ashfaaq98/claims-console/internal/store"
)

// services are the shared components every command builds on.
type services struct {
	store     *store.Store
	bus       bus.Bus
	sessions  *report.Sessions
	guidance  report.Guidance
	formatter *billing.Formatter
	exporter  *export.Service
	intake    *ingest.Intake
	assistant *assistant.Bridge
	nextSteps bool
}

// openServices initializes the store (seeded with the demo claims), the bus
// and the report services. Callers must Close the result.
func openServices(ctx context.Context, config Config, logger *log.Logger) (*services, error) {
	baseDir := getWorkingDir()
	path := config.Database.Path
	if path != store.MemoryPath {
		path = resolvePathRelativeToBase(baseDir, path)
	}
	logger.Printf("Using database at %s", path)
	st, err := store.NewStore(path)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize store: %w", err)
	}
	if err := st.SeedDemoClaims(ctx); err != nil {
		st.Close()
		return nil, fmt.Errorf("failed to seed claims: %w", err)
	}

	eventBus := bus.NewBus(config.Redis.URL, componentLogger("bus"))

	guidance, err := report.LoadGuidance()
	if err != nil {
		eventBus.Close()
		st.Close()
		return nil, fmt.Errorf("failed to load guidance: %w", err)
	}

	ttl := config.Report.SessionTTL
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	sessions := report.NewSessions(report.NewProvider(), ttl)
	formatter := billing.NewFormatter(config.Locale)

	exp, err := export.NewService(func(ctx context.Context, id string) (*report.Report, error) {
		return sessions.Resolve(ctx, st, id)
	}, formatter, config.Report.NextSteps)
	if err != nil {
		eventBus.Close()
		st.Close()
		return nil, fmt.Errorf("failed to initialize exporter: %w", err)
	}

	return &services{
		store:     st,
		bus:       eventBus,
		sessions:  sessions,
		guidance:  guidance,
		formatter: formatter,
		exporter:  exp,
		intake:    ingest.NewIntake(st, eventBus, componentLogger("intake")),
		assistant: assistant.NewBridge(buildProvider(config.Assistant, logger), componentLogger("assistant")),
		nextSteps: config.Report.NextSteps,
	}, nil
}

func (s *services) Close() {
	s.bus.Close()
	s.store.Close()
}

// resolveReport opens the live report for a claim id. Unknown ids fall back
// to the default report.
func (s *services) resolveReport(ctx context.Context, id string) (*report.Report, error) {
	return s.sessions.Resolve(ctx, s.store, id)
}

// buildProvider loads the persisted assistant settings, applies config
// overrides and builds the provider. A provider that cannot be built falls
// back to the offline stub.
func buildProvider(cfg AssistantConfig, logger *log.Logger) assistant.Provider {
	settings := assistant.DefaultSettings()
	if cfg.Settings != "" {
		loaded, err := assistant.LoadSettings(cfg.Settings)
		if err != nil {
			logger.Printf("Assistant settings %s unreadable: %v; using defaults", cfg.Settings, err)
		} else {
			settings = loaded
		}
	}
	active := settings.Active
	if cfg.Provider != "" {
		if cfg.Provider != active.Provider {
			active.Endpoint = ""
			active.Model = ""
		}
		active.Provider = cfg.Provider
	}
	if cfg.Endpoint != "" {
		active.Endpoint = cfg.Endpoint
	}
	if cfg.Model != "" {
		active.Model = cfg.Model
	}
	if cfg.APIKey != "" {
		active.APIKey = cfg.APIKey
	}
	if cfg.Timeout > 0 {
		active.TimeoutSeconds = int(cfg.Timeout / time.Second)
	}
	if cfg.RPS > 0 {
		active.RPS = cfg.RPS
	}

	p, err := assistant.Build(active, componentLogger("assistant"))
	if err != nil || p == nil {
		logger.Printf("Assistant provider build failed: %v; falling back to local stub", err)
		return assistant.NewLocalStub()
	}
	logger.Printf("Assistant provider: %s", p.Name())
	return p
}

// cliLogger initializes stderr logging for one-shot commands.
func cliLogger(config Config, name string) (*log.Logger, func(), error) {
	syncLogs, err := initLogger(config.Log, "")
	if err != nil {
		return nil, nil, err
	}
	return componentLogger(name), syncLogs, nil
}
