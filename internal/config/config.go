package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Global configuration structure.
type Global struct {
	APIKey          string  `mapstructure:"api_key" yaml:"api_key"`
	BaseURL         string  `mapstructure:"base_url" yaml:"base_url"`
	DefaultModel    string  `mapstructure:"default_model" yaml:"default_model"`
	DefaultProvider string  `mapstructure:"default_provider" yaml:"default_provider"`
	MaxTokens       int     `mapstructure:"max_tokens" yaml:"max_tokens"`
	Temperature     float64 `mapstructure:"temperature" yaml:"temperature"`

	// Agent
	MaxToolHops          int `mapstructure:"max_tool_hops" yaml:"max_tool_hops"`
	ObservationMaxTokens int `mapstructure:"observation_max_tokens" yaml:"observation_max_tokens"`
	RequestsPerMinute    int `mapstructure:"requests_per_minute" yaml:"requests_per_minute"`

	// Output
	FiguresDir  string `mapstructure:"figures_dir" yaml:"figures_dir"`
	HistoryFile string `mapstructure:"history_file" yaml:"history_file"`
	LogFile     string `mapstructure:"log_file" yaml:"log_file"`
	LogLevel    string `mapstructure:"log_level" yaml:"log_level"`

	// Models catalog auto-sync
	ModelsCatalogURL string `mapstructure:"models_catalog_url" yaml:"models_catalog_url"`
	ModelsAutoSync   bool   `mapstructure:"models_auto_sync" yaml:"models_auto_sync"`
	ModelsMerge      bool   `mapstructure:"models_merge" yaml:"models_merge"`

	// HTTP/Retry configuration
	HTTPTimeoutSec   int `mapstructure:"http_timeout_sec" yaml:"http_timeout_sec"`
	RetryMaxAttempts int `mapstructure:"retry_max_attempts" yaml:"retry_max_attempts"`
	RetryBaseDelayMs int `mapstructure:"retry_base_delay_ms" yaml:"retry_base_delay_ms"`
	RetryMaxDelayMs  int `mapstructure:"retry_max_delay_ms" yaml:"retry_max_delay_ms"`

	// Local runtimes (Ollama)
	OllamaHost       string `mapstructure:"ollama_host" yaml:"ollama_host"`
	OllamaTimeoutSec int    `mapstructure:"ollama_timeout_sec" yaml:"ollama_timeout_sec"`
}

// Dir is the per-user state directory, ~/.databot.
func Dir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home dir: %w", err)
	}
	return filepath.Join(home, ".databot"), nil
}

// Save writes the given configuration to the cfgFile path. If cfgFile is empty,
// it writes to ~/.databot/config.yaml, creating the directory if necessary.
func Save(c *Global, cfgFile string) error {
	path := cfgFile
	if path == "" {
		dir, err := Dir()
		if err != nil {
			return err
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("mkdir config dir: %w", err)
		}
		path = filepath.Join(dir, "config.yaml")
	}
	b, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal yaml: %w", err)
	}
	// the file may hold an API key
	if err := os.WriteFile(path, b, 0o600); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	// every key needs a default so that AutomaticEnv sees it during Unmarshal
	for _, k := range []string{"api_key", "base_url", "figures_dir", "history_file", "log_file", "models_catalog_url"} {
		v.SetDefault(k, "")
	}
	v.SetDefault("default_model", "google/gemini-2.0-flash-001")
	v.SetDefault("default_provider", "openrouter")
	v.SetDefault("max_tokens", 2048)
	v.SetDefault("temperature", 0.0)
	v.SetDefault("max_tool_hops", 8)
	v.SetDefault("observation_max_tokens", 1500)
	v.SetDefault("requests_per_minute", 0)
	v.SetDefault("log_level", "warn")
	v.SetDefault("models_auto_sync", false)
	v.SetDefault("models_merge", true)
	// HTTP/retry defaults
	v.SetDefault("http_timeout_sec", 60)
	v.SetDefault("retry_max_attempts", 3)
	v.SetDefault("retry_base_delay_ms", 500)
	v.SetDefault("retry_max_delay_ms", 4000)
	// Ollama defaults
	v.SetDefault("ollama_host", "http://127.0.0.1:11434")
	v.SetDefault("ollama_timeout_sec", 120)
}

// Load loads configuration from file, env, and defaults.
// Precedence: flags (applied by the caller) > env > config file > defaults.
func Load(cfgFile string) (*Global, error) {
	v := viper.New()
	v.SetEnvPrefix("DATABOT")
	v.AutomaticEnv()
	setDefaults(v)

	dir, err := Dir()
	if err != nil {
		return nil, err
	}
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.AddConfigPath(dir)
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var c Global
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if c.APIKey == "" {
		c.APIKey = os.Getenv("OPENROUTER_API_KEY")
	}
	if c.FiguresDir == "" {
		c.FiguresDir = filepath.Join(dir, "figures")
	}
	if c.HistoryFile == "" {
		c.HistoryFile = filepath.Join(dir, "history")
	}
	return &c, nil
}

// Keys lists the settable keys in sorted order.
func Keys() []string {
	out := make([]string, 0, len(setters))
	for k := range setters {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

type setter func(c *Global, val string) error

func intSetter(dst func(*Global) *int, min int) setter {
	return func(c *Global, val string) error {
		i, err := strconv.Atoi(val)
		if err != nil || i < min {
			return fmt.Errorf("invalid int %q (minimum %d)", val, min)
		}
		*dst(c) = i
		return nil
	}
}

func stringSetter(dst func(*Global) *string) setter {
	return func(c *Global, val string) error {
		*dst(c) = val
		return nil
	}
}

func boolSetter(dst func(*Global) *bool) setter {
	return func(c *Global, val string) error {
		b, err := strconv.ParseBool(val)
		if err != nil {
			return fmt.Errorf("invalid bool %q", val)
		}
		*dst(c) = b
		return nil
	}
}

var setters = map[string]setter{
	"api_key":       stringSetter(func(c *Global) *string { return &c.APIKey }),
	"base_url":      stringSetter(func(c *Global) *string { return &c.BaseURL }),
	"default_model": stringSetter(func(c *Global) *string { return &c.DefaultModel }),
	"default_provider": func(c *Global, val string) error {
		switch strings.ToLower(val) {
		case "openrouter":
			c.DefaultProvider = "openrouter"
		case "ollama", "local":
			c.DefaultProvider = "ollama"
		default:
			return fmt.Errorf("invalid default_provider: %s (use openrouter or ollama)", val)
		}
		return nil
	},
	"max_tokens": intSetter(func(c *Global) *int { return &c.MaxTokens }, 0),
	"temperature": func(c *Global, val string) error {
		f, err := strconv.ParseFloat(val, 64)
		if err != nil || f < 0 || f > 2 {
			return fmt.Errorf("invalid temperature %q (0 to 2)", val)
		}
		c.Temperature = f
		return nil
	},
	"max_tool_hops":          intSetter(func(c *Global) *int { return &c.MaxToolHops }, 1),
	"observation_max_tokens": intSetter(func(c *Global) *int { return &c.ObservationMaxTokens }, 1),
	"requests_per_minute":    intSetter(func(c *Global) *int { return &c.RequestsPerMinute }, 0),
	"figures_dir":            stringSetter(func(c *Global) *string { return &c.FiguresDir }),
	"history_file":           stringSetter(func(c *Global) *string { return &c.HistoryFile }),
	"log_file":               stringSetter(func(c *Global) *string { return &c.LogFile }),
	"log_level":              stringSetter(func(c *Global) *string { return &c.LogLevel }),
	"models_catalog_url":     stringSetter(func(c *Global) *string { return &c.ModelsCatalogURL }),
	"models_auto_sync":       boolSetter(func(c *Global) *bool { return &c.ModelsAutoSync }),
	"models_merge":           boolSetter(func(c *Global) *bool { return &c.ModelsMerge }),
	"http_timeout_sec":       intSetter(func(c *Global) *int { return &c.HTTPTimeoutSec }, 1),
	"retry_max_attempts":     intSetter(func(c *Global) *int { return &c.RetryMaxAttempts }, 1),
	"retry_base_delay_ms":    intSetter(func(c *Global) *int { return &c.RetryBaseDelayMs }, 0),
	"retry_max_delay_ms":     intSetter(func(c *Global) *int { return &c.RetryMaxDelayMs }, 0),
	"ollama_host":            stringSetter(func(c *Global) *string { return &c.OllamaHost }),
	"ollama_timeout_sec":     intSetter(func(c *Global) *int { return &c.OllamaTimeoutSec }, 1),
}

// Set parses val and assigns it to the named key.
func (c *Global) Set(key, val string) error {
	set, ok := setters[key]
	if !ok {
		return fmt.Errorf("unknown key: %s (known: %s)", key, strings.Join(Keys(), ", "))
	}
	if err := set(c, strings.TrimSpace(val)); err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	return nil
}
