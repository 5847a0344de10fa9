package cmd

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/alekseisolovev/databot/internal/agent"
	"github.com/alekseisolovev/databot/internal/ai"
	"github.com/alekseisolovev/databot/internal/frame"
	"github.com/alekseisolovev/databot/internal/session"
)

// Dataset parsing flags shared by commands that take a file.
var (
	dsDelimiter  string
	dsDecimal    string
	dsThousands  string
	dsMaxRows    int
	dsSheetName  string
	dsSheetIndex int
)

func addDatasetFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&dsDelimiter, "delimiter", "", "CSV delimiter: ',' | ';' | 'tab' | '|' (auto-detect if omitted)")
	cmd.Flags().StringVar(&dsDecimal, "decimal", "", "decimal separator for numbers: '.'|'comma'")
	cmd.Flags().StringVar(&dsThousands, "thousands", "", "thousands separator for numbers: ','|'.'|'space'")
	cmd.Flags().IntVar(&dsMaxRows, "max-rows", 0, "maximum rows to load (0 = unlimited)")
	cmd.Flags().StringVar(&dsSheetName, "sheet-name", "", "XLSX: sheet name to load")
	cmd.Flags().IntVar(&dsSheetIndex, "sheet-index", 1, "XLSX: 1-based sheet index (used if --sheet-name not provided)")
}

func loadOptions() (frame.LoadOptions, error) {
	opt := frame.LoadOptions{MaxRows: dsMaxRows, Sheet: dsSheetName, SheetIndex: dsSheetIndex}
	switch dsDelimiter {
	case "":
	case ",":
		opt.Delimiter = ','
	case "\t", "tab":
		opt.Delimiter = '\t'
	case ";":
		opt.Delimiter = ';'
	case "|":
		opt.Delimiter = '|'
	default:
		return opt, fmt.Errorf("unsupported --delimiter: %s", dsDelimiter)
	}
	// Locale separators
	switch strings.ToLower(strings.TrimSpace(dsDecimal)) {
	case ",", "comma":
		opt.DecimalSeparator = ','
	case ".", "dot":
		opt.DecimalSeparator = '.'
	case "":
	default:
		return opt, fmt.Errorf("unsupported --decimal: %s (use '.'|'comma')", dsDecimal)
	}
	switch strings.ToLower(strings.TrimSpace(dsThousands)) {
	case ",":
		opt.ThousandsSeparator = ','
	case ".":
		opt.ThousandsSeparator = '.'
	case "space", " ":
		opt.ThousandsSeparator = ' '
	case "":
	default:
		return opt, fmt.Errorf("unsupported --thousands: %s (use ','|'.'|'space')", dsThousands)
	}
	return opt, nil
}

// runtimeConfig maps the loaded config onto the shared runtime knobs.
func runtimeConfig() ai.RuntimeConfig {
	rc := ai.RuntimeConfig{
		HTTPTimeout:       time.Duration(cfg.HTTPTimeoutSec) * time.Second,
		RetryMax:          cfg.RetryMaxAttempts,
		BaseDelay:         time.Duration(cfg.RetryBaseDelayMs) * time.Millisecond,
		MaxDelay:          time.Duration(cfg.RetryMaxDelayMs) * time.Millisecond,
		RequestsPerMinute: cfg.RequestsPerMinute,
		APIKey:            cfg.APIKey,
		BaseURL:           cfg.BaseURL,
		Host:              cfg.OllamaHost,
	}
	if providerName() == ai.ProviderOllama && cfg.OllamaTimeoutSec > 0 {
		rc.HTTPTimeout = time.Duration(cfg.OllamaTimeoutSec) * time.Second
	}
	return rc
}

func providerName() string {
	p := strings.ToLower(strings.TrimSpace(cfg.DefaultProvider))
	switch p {
	case "", ai.ProviderOpenRouter:
		return ai.ProviderOpenRouter
	case ai.ProviderLocal:
		return ai.ProviderOllama
	}
	return p
}

func modelName() string {
	if cfg.DefaultModel != "" {
		return cfg.DefaultModel
	}
	if name, ok := ai.RecommendModel(providerName(), "cheap"); ok {
		return name
	}
	return ai.DefaultModel
}

var errNoAPIKey = errors.New("no API key: set DATABOT_API_KEY or OPENROUTER_API_KEY, or run 'databot config set api_key <key>'")

// newModel builds the chat model from config. It fails fast on a missing API key so that the
// session reports an agent construction error instead of failing on the first question.
func newModel() (agent.Model, error) {
	p := providerName()
	if p == ai.ProviderOpenRouter && cfg.APIKey == "" {
		return nil, errNoAPIKey
	}
	rt, err := ai.NewRuntime(p, runtimeConfig())
	if err != nil {
		return nil, err
	}
	name := modelName()
	if !ai.SupportsTools(name) {
		logger.Warn("models.no_tool_support", "model", name)
	}
	return &agent.RuntimeModel{Runtime: rt, Name: name, MaxTokens: cfg.MaxTokens, Temperature: cfg.Temperature}, nil
}

func newSession() (*session.Session, error) {
	opt, err := loadOptions()
	if err != nil {
		return nil, err
	}
	return session.New(session.Options{
		NewModel:          newModel,
		MaxHops:           cfg.MaxToolHops,
		ObservationTokens: cfg.ObservationMaxTokens,
		Load:              opt,
		Logger:            logger.With("component", "session"),
	}), nil
}

// costLine summarizes token usage and, when the model is priced, its cost.
func costLine(u ai.Usage) string {
	if u.TotalTokens == 0 {
		return ""
	}
	line := fmt.Sprintf("tokens: %d in / %d out", u.PromptTokens, u.CompletionTokens)
	if cost, ok := ai.EstimateCostUSD(modelName(), u.PromptTokens, u.CompletionTokens); ok && cost > 0 {
		line += fmt.Sprintf(" · ~$%.4f", cost)
	}
	return line
}
