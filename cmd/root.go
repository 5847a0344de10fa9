package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/alekseisolovev/databot/internal/ai"
	cfgpkg "github.com/alekseisolovev/databot/internal/config"
	"github.com/alekseisolovev/databot/internal/logging"
)

var (
	// Global flags
	cfgFile  string
	debug    bool
	logFile  string
	provider string
	model    string
	maxHops  int
	// Retry/HTTP flags (override config if set)
	flagHTTPTimeoutSec   int
	flagRetryMaxAttempts int
	flagRetryBaseDelayMs int
	flagRetryMaxDelayMs  int

	// Loaded configuration
	cfg    *cfgpkg.Global
	logger *logging.Logger
)

var rootCmd = &cobra.Command{
	Use:   "databot",
	Short: "DataBot: ask questions about a CSV or Excel file in plain language",
	Long: `DataBot loads a tabular dataset and answers natural-language questions about it.
A language model plans the analysis and runs queries against the data; results come back
as text, tables or charts.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = logger.Close()
	},
}

// Execute is the entry point called by main.main()
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "✗ Error:", err)
		os.Exit(1)
	}
}

func init() {
	// Initialize configuration before executing commands
	cobra.OnInitialize(loadConfig)
	// Persistent global flags available to all subcommands
	f := rootCmd.PersistentFlags()
	f.StringVar(&cfgFile, "config", "", "config file (default is ~/.databot/config.yaml)")
	f.BoolVar(&debug, "debug", false, "enable debug logging")
	f.StringVar(&logFile, "log-file", "", "also write JSON logs to this file (overrides config)")
	f.StringVar(&provider, "provider", "", "model provider: openrouter|ollama (overrides config)")
	f.StringVar(&model, "model", "", "model name (overrides config)")
	f.IntVar(&maxHops, "max-hops", 0, "maximum queries per question (overrides config)")
	f.IntVar(&flagHTTPTimeoutSec, "http-timeout", 0, "HTTP client timeout in seconds (overrides config)")
	f.IntVar(&flagRetryMaxAttempts, "retry-max", 0, "max retry attempts on 429/5xx (overrides config)")
	f.IntVar(&flagRetryBaseDelayMs, "retry-base-ms", 0, "base retry backoff in ms (overrides config)")
	f.IntVar(&flagRetryMaxDelayMs, "retry-max-ms", 0, "max retry backoff cap in ms (overrides config)")
}

func loadConfig() {
	c, err := cfgpkg.Load(cfgFile)
	if err != nil {
		// Non-fatal: allow running commands that don't need config
		fmt.Fprintf(os.Stderr, "⚠ Warning: failed to load config: %v\n", err)
		c = &cfgpkg.Global{}
	}
	cfg = c
	applyFlagOverrides(rootCmd.PersistentFlags().Changed)
	setupLogger()

	// Optional: auto-sync model catalog at startup
	if cfg.ModelsAutoSync && cfg.ModelsCatalogURL != "" {
		if err := fetchAndApplyCatalog(cfg.ModelsCatalogURL, cfg.ModelsMerge); err != nil {
			logger.Warn("models.auto_sync_failed", "url", cfg.ModelsCatalogURL, "error", err.Error())
		}
	}
}

// applyFlagOverrides copies explicitly set global flags over the loaded config.
func applyFlagOverrides(changed func(string) bool) {
	if changed("http-timeout") && flagHTTPTimeoutSec > 0 {
		cfg.HTTPTimeoutSec = flagHTTPTimeoutSec
	}
	if changed("retry-max") && flagRetryMaxAttempts > 0 {
		cfg.RetryMaxAttempts = flagRetryMaxAttempts
	}
	if changed("retry-base-ms") && flagRetryBaseDelayMs > 0 {
		cfg.RetryBaseDelayMs = flagRetryBaseDelayMs
	}
	if changed("retry-max-ms") && flagRetryMaxDelayMs > 0 {
		cfg.RetryMaxDelayMs = flagRetryMaxDelayMs
	}
	if changed("provider") && provider != "" {
		cfg.DefaultProvider = provider
	}
	if changed("model") && model != "" {
		cfg.DefaultModel = model
	}
	if changed("max-hops") && maxHops > 0 {
		cfg.MaxToolHops = maxHops
	}
	if changed("log-file") {
		cfg.LogFile = logFile
	}
}

func setupLogger() {
	l, err := logging.New(logging.Options{Level: cfg.LogLevel, Debug: debug, File: cfg.LogFile})
	if err != nil {
		fmt.Fprintf(os.Stderr, "⚠ Warning: logging setup failed: %v\n", err)
		l = &logging.Logger{Logger: logging.Nop()}
	}
	logger = l
	slog.SetDefault(l.Logger)
	logger.Debug("config.loaded",
		"provider", cfg.DefaultProvider,
		"model", cfg.DefaultModel,
		"api_key", logging.RedactValue(cfg.APIKey),
		"max_tool_hops", cfg.MaxToolHops)
}

// fetchAndApplyCatalog downloads a JSON catalog and applies it in-memory.
func fetchAndApplyCatalog(url string, merge bool) error {
	m, err := fetchCatalog(url)
	if err != nil {
		return err
	}
	if merge {
		ai.MergeCatalog(m)
	} else {
		ai.OverrideCatalog(m)
	}
	return nil
}

func fetchCatalog(url string) (map[string]ai.ModelInfo, error) {
	client := &http.Client{Timeout: 20 * time.Second}
	resp, err := client.Get(url)
	if err != nil {
		return nil, fmt.Errorf("fetch: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		return nil, fmt.Errorf("fetch: unexpected status %s: %s", resp.Status, string(b))
	}
	var m map[string]ai.ModelInfo
	if err := json.NewDecoder(resp.Body).Decode(&m); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	return m, nil
}
