package cmd

import (
	"bytes"
	"context"
	"io"
	"log"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ashfaaq98/claims-console/internal/billing"
	"github.com/Ashfaaq98/claims-console/internal/export"
	"github.com/Ashfaaq98/claims-console/internal/ingest"
	"github.com/Ashfaaq98/claims-console/internal/store"
)

var quiet = log.New(io.Discard, "", 0)

func TestGetConfigDefaults(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)
	setDefaults()

	config := GetConfig()
	assert.Equal(t, store.MemoryPath, config.Database.Path)
	assert.Empty(t, config.Redis.URL)
	assert.Equal(t, "info", config.Log.Level)
	assert.Equal(t, 3*time.Second, config.Processing.Delay)
	assert.Equal(t, 185000.0, config.Processing.TotalBilled)
	assert.Equal(t, 30*time.Minute, config.Report.SessionTTL)
	assert.True(t, config.Report.NextSteps)
	assert.Equal(t, []string{"*"}, config.API.CORSOrigins)
	assert.Equal(t, "127.0.0.1:8081", config.Ingest.HTTP.Bind)
	assert.Equal(t, 20, config.Ingest.HTTP.Burst)
}

func TestGetConfigEnvOverride(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)
	t.Setenv("CLAIMS_CONSOLE_PROCESSING_DELAY", "250ms")
	t.Setenv("CLAIMS_CONSOLE_LOCALE", "en-GB")
	initConfig()

	config := GetConfig()
	assert.Equal(t, 250*time.Millisecond, config.Processing.Delay)
	assert.Equal(t, "en-GB", config.Locale)
}

func TestBuildProviderFallsBackToStub(t *testing.T) {
	p := buildProvider(AssistantConfig{Settings: filepath.Join(t.TempDir(), "none.json"), Provider: "carrier-pigeon"}, quiet)
	assert.Equal(t, "local_stub", p.Name())

	p = buildProvider(AssistantConfig{Provider: "local_stub"}, quiet)
	assert.Equal(t, "local_stub", p.Name())
}

func TestBuildProviderDefaultsToWebhook(t *testing.T) {
	p := buildProvider(AssistantConfig{Settings: filepath.Join(t.TempDir(), "none.json")}, quiet)
	assert.Equal(t, "webhook", p.Name())
}

func TestInitLoggerRejectsBadLevel(t *testing.T) {
	_, err := initLogger(LogConfig{Level: "loud"}, "")
	assert.Error(t, err)
}

func TestInitLoggerWritesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "claims-console.log")
	syncLogs, err := initLogger(LogConfig{Level: "debug", Format: "json"}, path)
	require.NoError(t, err)

	componentLogger("test").Println("hello")
	syncLogs()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "[test] hello")
}

func testServices(t *testing.T) *services {
	t.Helper()
	viper.Reset()
	t.Cleanup(viper.Reset)
	setDefaults()

	config := GetConfig()
	config.Assistant.Provider = "local_stub"
	svc, err := openServices(context.Background(), config, quiet)
	require.NoError(t, err)
	t.Cleanup(svc.Close)
	return svc
}

func TestListClaims(t *testing.T) {
	svc := testServices(t)
	ctx := context.Background()

	var out bytes.Buffer
	require.NoError(t, listClaims(ctx, &out, svc.store, svc.formatter, "", false, 5))
	assert.Contains(t, out.String(), "Found 2 claims")
	assert.Contains(t, out.String(), "Johnson v. Metro Transit Authority")
	assert.Contains(t, out.String(), "$41,501.77")

	out.Reset()
	require.NoError(t, listClaims(ctx, &out, svc.store, svc.formatter, "smith", true, 5))
	assert.Contains(t, out.String(), "Found 1 claims")
	assert.NotContains(t, out.String(), "Johnson")

	out.Reset()
	require.NoError(t, listClaims(ctx, &out, svc.store, billing.NewFormatter("en-US"), "nobody", false, 5))
	assert.Contains(t, out.String(), `No claims match "nobody"`)
}

func TestResolveReportUnknownID(t *testing.T) {
	svc := testServices(t)

	r, err := svc.resolveReport(context.Background(), "999")
	require.NoError(t, err)
	assert.Equal(t, "999", r.Claim.ID)
	assert.NotEmpty(t, r.Data().Timeline)
}

func TestParseScope(t *testing.T) {
	scope, err := parseScope("billing")
	require.NoError(t, err)
	assert.Equal(t, export.ScopeBilling, scope)

	_, err = parseScope("everything")
	assert.Error(t, err)
}

func TestResetDatabase(t *testing.T) {
	require.NoError(t, resetDatabase(store.MemoryPath))

	path := filepath.Join(t.TempDir(), "claims.db")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0644))
	require.NoError(t, os.WriteFile(path+"-wal", []byte("x"), 0644))

	require.NoError(t, resetDatabase(path))
	assert.NoFileExists(t, path)
	assert.NoFileExists(t, path+"-wal")
}

func TestWaitSettledReturnsWhenIdle(t *testing.T) {
	svc := testServices(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	p := ingest.NewProcessor(svc.store, svc.bus, ingest.ProcessorOptions{Logger: quiet})
	start := time.Now()
	waitSettled(ctx, p, 0)
	assert.Less(t, time.Since(start), 2*time.Second)
}

func TestSizeFromEnv(t *testing.T) {
	t.Setenv("COLUMNS", "120")
	t.Setenv("LINES", "40")
	c, r, ok := sizeFromEnv()
	require.True(t, ok)
	assert.Equal(t, 120, c)
	assert.Equal(t, 40, r)

	t.Setenv("LINES", "tall")
	_, _, ok = sizeFromEnv()
	assert.False(t, ok)
}
