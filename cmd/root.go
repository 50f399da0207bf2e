package cmd

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	cfgFile   string
	dbPath    string
	redisURL  string
	logLevel  string
	logFormat string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "claims-console",
	Short: "Terminal-first claims review console",
	Long: `Claims Console is a terminal-first workspace for reviewing insurance claims.

Features:
- Claims catalog with search, new claims and document intake
- Full and abbreviated medical claim reports with a section navigator
- Medical timeline filters, key-date and review flags, edit mode
- Billing review with risk-only view and high impact bills
- Elyon chat assistant over the open report
- Markdown and spreadsheet exports, JSON HTTP API`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.claims-console.yaml)")
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", ":memory:", "SQLite database path (:memory: keeps claims for the process lifetime)")
	rootCmd.PersistentFlags().StringVar(&redisURL, "redis", "", "Redis connection URL (empty uses the in-process bus)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "console", "Log format (console, json)")

	// Bind flags to viper
	viper.BindPFlag("database.path", rootCmd.PersistentFlags().Lookup("db"))
	viper.BindPFlag("redis.url", rootCmd.PersistentFlags().Lookup("redis"))
	viper.BindPFlag("log.level", rootCmd.PersistentFlags().Lookup("log-level"))
	viper.BindPFlag("log.format", rootCmd.PersistentFlags().Lookup("log-format"))
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		cobra.CheckErr(err)

		viper.AddConfigPath(home)
		viper.AddConfigPath(".")
		viper.SetConfigType("yaml")
		viper.SetConfigName(".claims-console")
	}

	viper.SetEnvPrefix("CLAIMS_CONSOLE")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}

	setDefaults()
}

func setDefaults() {
	viper.SetDefault("database.path", ":memory:")
	viper.SetDefault("redis.url", "")
	viper.SetDefault("log.level", "info")
	viper.SetDefault("log.format", "console")

	viper.SetDefault("assistant.settings", "config/assistant_settings.json")
	viper.SetDefault("assistant.provider", "")
	viper.SetDefault("assistant.endpoint", "")
	viper.SetDefault("assistant.model", "")
	viper.SetDefault("assistant.api_key", "")
	viper.SetDefault("assistant.timeout", 30*time.Second)
	viper.SetDefault("assistant.rps", 2.0)

	viper.SetDefault("ingest.dir", "data/incoming")
	viper.SetDefault("ingest.http.enable", false)
	viper.SetDefault("ingest.http.bind", "127.0.0.1:8081")
	viper.SetDefault("ingest.http.token", "")
	viper.SetDefault("ingest.http.rps", 10.0)
	viper.SetDefault("ingest.http.burst", 20)

	viper.SetDefault("processing.delay", 3*time.Second)
	viper.SetDefault("processing.total_billed", 185000.0)

	viper.SetDefault("api.enable", false)
	viper.SetDefault("api.bind", "127.0.0.1:8080")
	viper.SetDefault("api.cors_origins", []string{"*"})

	viper.SetDefault("export.dir", "exports")
	viper.SetDefault("report.session_ttl", 30*time.Minute)
	viper.SetDefault("report.next_steps", true)
	viper.SetDefault("locale", "en-US")
}

// GetConfig returns the current configuration values
func GetConfig() Config {
	return Config{
		Database: DatabaseConfig{
			Path: viper.GetString("database.path"),
		},
		Redis: RedisConfig{
			URL: viper.GetString("redis.url"),
		},
		Log: LogConfig{
			Level:  viper.GetString("log.level"),
			Format: viper.GetString("log.format"),
		},
		Assistant: AssistantConfig{
			Settings: viper.GetString("assistant.settings"),
			Provider: viper.GetString("assistant.provider"),
			Endpoint: viper.GetString("assistant.endpoint"),
			Model:    viper.GetString("assistant.model"),
			APIKey:   viper.GetString("assistant.api_key"),
			Timeout:  viper.GetDuration("assistant.timeout"),
			RPS:      viper.GetFloat64("assistant.rps"),
		},
		Ingest: IngestConfig{
			Dir: viper.GetString("ingest.dir"),
			HTTP: HTTPIngestConfig{
				Enable: viper.GetBool("ingest.http.enable"),
				Bind:   viper.GetString("ingest.http.bind"),
				Token:  viper.GetString("ingest.http.token"),
				RPS:    viper.GetFloat64("ingest.http.rps"),
				Burst:  viper.GetInt("ingest.http.burst"),
			},
		},
		Processing: ProcessingConfig{
			Delay:       viper.GetDuration("processing.delay"),
			TotalBilled: viper.GetFloat64("processing.total_billed"),
		},
		API: APIConfig{
			Enable:      viper.GetBool("api.enable"),
			Bind:        viper.GetString("api.bind"),
			CORSOrigins: viper.GetStringSlice("api.cors_origins"),
		},
		Export: ExportConfig{
			Dir: viper.GetString("export.dir"),
		},
		Report: ReportConfig{
			SessionTTL: viper.GetDuration("report.session_ttl"),
			NextSteps:  viper.GetBool("report.next_steps"),
		},
		Locale: viper.GetString("locale"),
	}
}

// Config represents the application configuration
type Config struct {
	Database   DatabaseConfig   `mapstructure:"database"`
	Redis      RedisConfig      `mapstructure:"redis"`
	Log        LogConfig        `mapstructure:"log"`
	Assistant  AssistantConfig  `mapstructure:"assistant"`
	Ingest     IngestConfig     `mapstructure:"ingest"`
	Processing ProcessingConfig `mapstructure:"processing"`
	API        APIConfig        `mapstructure:"api"`
	Export     ExportConfig     `mapstructure:"export"`
	Report     ReportConfig     `mapstructure:"report"`
	Locale     string           `mapstructure:"locale"`
}

type DatabaseConfig struct {
	Path string `mapstructure:"path"`
}

type RedisConfig struct {
	URL string `mapstructure:"url"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// AssistantConfig overrides the persisted assistant settings file when a
// field is set.
type AssistantConfig struct {
	Settings string        `mapstructure:"settings"`
	Provider string        `mapstructure:"provider"`
	Endpoint string        `mapstructure:"endpoint"`
	Model    string        `mapstructure:"model"`
	APIKey   string        `mapstructure:"api_key"`
	Timeout  time.Duration `mapstructure:"timeout"`
	RPS      float64       `mapstructure:"rps"`
}

type IngestConfig struct {
	Dir  string           `mapstructure:"dir"`
	HTTP HTTPIngestConfig `mapstructure:"http"`
}

type HTTPIngestConfig struct {
	Enable bool    `mapstructure:"enable"`
	Bind   string  `mapstructure:"bind"`
	Token  string  `mapstructure:"token"`
	RPS    float64 `mapstructure:"rps"`
	Burst  int     `mapstructure:"burst"`
}

type ProcessingConfig struct {
	Delay       time.Duration `mapstructure:"delay"`
	TotalBilled float64       `mapstructure:"total_billed"`
}

type APIConfig struct {
	Enable      bool     `mapstructure:"enable"`
	Bind        string   `mapstructure:"bind"`
	CORSOrigins []string `mapstructure:"cors_origins"`
}

type ExportConfig struct {
	Dir string `mapstructure:"dir"`
}

type ReportConfig struct {
	SessionTTL time.Duration `mapstructure:"session_ttl"`
	NextSteps  bool          `mapstructure:"next_steps"`
}

// initLogger replaces the global zap logger. An empty logPath logs to
// stderr; otherwise output goes to the file, which keeps a running TUI
// clean.
func initLogger(cfg LogConfig, logPath string) (func(), error) {
	var zapCfg zap.Config
	if cfg.Format == "json" {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("failed to parse log level %q: %w", cfg.Level, err)
	}
	zapCfg.Level.SetLevel(level)

	if logPath != "" {
		if err := os.MkdirAll(filepath.Dir(logPath), 0755); err != nil {
			return nil, fmt.Errorf("failed to create log dir: %w", err)
		}
		zapCfg.OutputPaths = []string{logPath}
		zapCfg.ErrorOutputPaths = []string{logPath}
	}

	logger, err := zapCfg.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build logger: %w", err)
	}
	restore := zap.ReplaceGlobals(logger)
	return func() {
		_ = logger.Sync()
		restore()
	}, nil
}

// componentLogger bridges a component's *log.Logger onto the global zap
// core.
func componentLogger(name string) *log.Logger {
	l := zap.NewStdLog(zap.L().Named(name))
	l.SetPrefix("[" + name + "] ")
	return l
}

// bindFlag binds a command-local flag to a config key.
func bindFlag(c *cobra.Command, key, flag string) {
	viper.BindPFlag(key, c.Flags().Lookup(flag))
}
