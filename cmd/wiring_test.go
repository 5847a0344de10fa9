package cmd

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alekseisolovev/databot/internal/ai"
	cfgpkg "github.com/alekseisolovev/databot/internal/config"
)

func withConfig(t *testing.T, c *cfgpkg.Global) {
	t.Helper()
	old := cfg
	cfg = c
	t.Cleanup(func() { cfg = old })
}

func TestLoadOptions(t *testing.T) {
	t.Cleanup(func() { dsDelimiter, dsDecimal, dsThousands, dsMaxRows = "", "", "", 0 })

	dsDelimiter, dsDecimal, dsThousands, dsMaxRows = "tab", "comma", "space", 10
	opt, err := loadOptions()
	require.NoError(t, err)
	assert.Equal(t, '\t', opt.Delimiter)
	assert.Equal(t, ',', opt.DecimalSeparator)
	assert.Equal(t, ' ', opt.ThousandsSeparator)
	assert.Equal(t, 10, opt.MaxRows)

	for _, tc := range []struct{ delim, dec, thou string }{
		{delim: "#"},
		{dec: "x"},
		{thou: "_"},
	} {
		dsDelimiter, dsDecimal, dsThousands = tc.delim, tc.dec, tc.thou
		_, err := loadOptions()
		assert.Error(t, err, "%+v", tc)
	}
}

func TestProviderAndModelName(t *testing.T) {
	withConfig(t, &cfgpkg.Global{})
	assert.Equal(t, ai.ProviderOpenRouter, providerName())
	assert.Equal(t, "google/gemini-2.0-flash-001", modelName())

	withConfig(t, &cfgpkg.Global{DefaultProvider: "Local"})
	assert.Equal(t, ai.ProviderOllama, providerName())
	assert.Equal(t, "llama3.1:8b", modelName())

	withConfig(t, &cfgpkg.Global{DefaultProvider: "ollama", DefaultModel: "qwen2.5:7b"})
	assert.Equal(t, "qwen2.5:7b", modelName())
}

func TestApplyFlagOverrides(t *testing.T) {
	withConfig(t, &cfgpkg.Global{DefaultModel: "cfg-model", MaxToolHops: 8, RetryMaxAttempts: 3})
	t.Cleanup(func() { model, maxHops, flagRetryMaxAttempts = "", 0, 0 })
	model, maxHops, flagRetryMaxAttempts = "flag-model", 3, 7

	changed := map[string]bool{"model": true, "max-hops": true}
	applyFlagOverrides(func(name string) bool { return changed[name] })
	assert.Equal(t, "flag-model", cfg.DefaultModel)
	assert.Equal(t, 3, cfg.MaxToolHops)
	// retry-max was not changed on the command line
	assert.Equal(t, 3, cfg.RetryMaxAttempts)
}

func TestCostLine(t *testing.T) {
	withConfig(t, &cfgpkg.Global{DefaultModel: "openai/gpt-4o-mini"})
	assert.Empty(t, costLine(ai.Usage{}))
	line := costLine(ai.Usage{PromptTokens: 10000, CompletionTokens: 10000, TotalTokens: 20000})
	assert.Contains(t, line, "10000 in / 10000 out")
	assert.Contains(t, line, "$0.0075")
}
