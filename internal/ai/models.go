package ai

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"sync"
)

// Model metadata and pricing used for cost display after each turn.
// Prices are illustrative and should be verified against the provider.

type ModelInfo struct {
	Name          string
	Provider      string
	ContextTokens int     // approximate context window
	InputPerK     float64 // USD per 1K input tokens
	OutputPerK    float64 // USD per 1K output tokens
	// Tools reports whether the model supports function calling.
	Tools bool
}

// builtin is the default catalog. Only tool-capable models are useful for the assistant,
// but a few text-only ones are listed so that cost estimates still work for them.
var builtin = []ModelInfo{
	{Name: "google/gemini-2.0-flash-001", Provider: ProviderGoogle, ContextTokens: 1000000, InputPerK: 0.0001, OutputPerK: 0.0004, Tools: true},
	{Name: "google/gemini-1.5-pro", Provider: ProviderGoogle, ContextTokens: 2000000, InputPerK: 0.00125, OutputPerK: 0.005, Tools: true},
	{Name: "openai/gpt-4o-mini", Provider: ProviderOpenAI, ContextTokens: 128000, InputPerK: 0.00015, OutputPerK: 0.0006, Tools: true},
	{Name: "openai/gpt-4o", Provider: ProviderOpenAI, ContextTokens: 128000, InputPerK: 0.0025, OutputPerK: 0.01, Tools: true},
	{Name: "openai/gpt-4.1-mini", Provider: ProviderOpenAI, ContextTokens: 1000000, InputPerK: 0.0004, OutputPerK: 0.0016, Tools: true},
	{Name: "anthropic/claude-3.5-sonnet", Provider: ProviderAnthropic, ContextTokens: 200000, InputPerK: 0.003, OutputPerK: 0.015, Tools: true},
	{Name: "anthropic/claude-3-haiku", Provider: ProviderAnthropic, ContextTokens: 200000, InputPerK: 0.00025, OutputPerK: 0.00125, Tools: true},
	{Name: "meta-llama/llama-3.1-70b-instruct", Provider: ProviderMeta, ContextTokens: 131072, Tools: true},
	{Name: "meta-llama/llama-3.1-8b-instruct", Provider: ProviderMeta, ContextTokens: 131072, Tools: true},
	{Name: "deepseek/deepseek-r1:free", Provider: ProviderOpenRouter, ContextTokens: 128000},
	// Common local (Ollama) tags
	{Name: "llama3.1:8b", Provider: ProviderOllama, ContextTokens: 131072, Tools: true},
	{Name: "llama3.1:70b", Provider: ProviderOllama, ContextTokens: 131072, Tools: true},
	{Name: "qwen2.5:7b", Provider: ProviderOllama, ContextTokens: 32768, Tools: true},
	{Name: "mistral-nemo:latest", Provider: ProviderOllama, ContextTokens: 131072, Tools: true},
	{Name: "phi3:mini-4k-instruct", Provider: ProviderOllama, ContextTokens: 4096},
}

var (
	catalogMu sync.RWMutex
	models    = builtinCatalog()
)

func builtinCatalog() map[string]ModelInfo {
	out := make(map[string]ModelInfo, len(builtin))
	for _, m := range builtin {
		out[m.Name] = m
	}
	return out
}

// LookupModel returns ModelInfo and ok flag.
func LookupModel(name string) (ModelInfo, bool) {
	catalogMu.RLock()
	defer catalogMu.RUnlock()
	mi, ok := models[name]
	return mi, ok
}

// EstimateCostUSD estimates total cost in USD for given tokens using model pricing.
// If the model is unknown, returns 0 and ok=false.
func EstimateCostUSD(model string, promptTokens, completionTokens int) (float64, bool) {
	mi, ok := LookupModel(model)
	if !ok {
		return 0, false
	}
	inCost := (float64(promptTokens) / 1000.0) * mi.InputPerK
	outCost := (float64(completionTokens) / 1000.0) * mi.OutputPerK
	return inCost + outCost, true
}

// SupportsTools reports whether a model is known to accept tool definitions.
// Unknown models are assumed capable; the provider will reject the request otherwise.
func SupportsTools(model string) bool {
	mi, ok := LookupModel(model)
	return !ok || mi.Tools
}

// ---- Sync/override helpers ----

// LoadCatalogFromJSON loads a JSON object map[string]ModelInfo from a file path.
// Example JSON entry:
// { "openai/gpt-4o-mini": {"Name":"openai/gpt-4o-mini","ContextTokens":128000,"InputPerK":0.00015,"OutputPerK":0.0006,"Tools":true} }
func LoadCatalogFromJSON(path string) (map[string]ModelInfo, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	var m map[string]ModelInfo
	if err := json.NewDecoder(f).Decode(&m); err != nil {
		return nil, fmt.Errorf("decode catalog %s: %w", path, err)
	}
	for k, v := range m {
		if v.Name == "" {
			v.Name = k
			m[k] = v
		}
	}
	return m, nil
}

// OverrideCatalog replaces the in-memory catalog entirely.
func OverrideCatalog(m map[string]ModelInfo) {
	if m == nil {
		return
	}
	catalogMu.Lock()
	defer catalogMu.Unlock()
	models = make(map[string]ModelInfo, len(m))
	for k, v := range m {
		models[k] = v
	}
}

// MergeCatalog merges/overrides entries in the in-memory catalog.
func MergeCatalog(m map[string]ModelInfo) {
	catalogMu.Lock()
	defer catalogMu.Unlock()
	for k, v := range m {
		models[k] = v
	}
}

// ResetCatalog restores the built-in catalog.
func ResetCatalog() {
	catalogMu.Lock()
	defer catalogMu.Unlock()
	models = builtinCatalog()
}

// Catalog returns a shallow copy of the current model catalog.
func Catalog() map[string]ModelInfo {
	catalogMu.RLock()
	defer catalogMu.RUnlock()
	out := make(map[string]ModelInfo, len(models))
	for k, v := range models {
		out[k] = v
	}
	return out
}

// providerOf infers the provider of a catalog entry when it was not recorded.
func providerOf(mi ModelInfo) string {
	if mi.Provider != "" {
		return mi.Provider
	}
	if !strings.Contains(mi.Name, "/") && strings.Contains(mi.Name, ":") {
		return ProviderOllama
	}
	return ProviderOpenRouter
}
