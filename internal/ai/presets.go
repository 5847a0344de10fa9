package ai

// PresetCatalog returns the slice of the built-in catalog for a provider.
// "openrouter" covers every hosted model since they are all reachable through it;
// "local" is an alias for "ollama", "gemini" for "google" and "llama" for "meta".
func PresetCatalog(provider string) (map[string]ModelInfo, bool) {
	switch provider {
	case ProviderGemini:
		provider = ProviderGoogle
	case ProviderLlama:
		provider = ProviderMeta
	case ProviderLocal:
		provider = ProviderOllama
	}
	out := map[string]ModelInfo{}
	for _, m := range builtin {
		p := providerOf(m)
		hosted := p != ProviderOllama
		if p == provider || (provider == ProviderOpenRouter && hosted) {
			out[m.Name] = m
		}
	}
	if len(out) == 0 {
		return nil, false
	}
	return out, true
}

// DefaultModel is used when no model is configured.
const DefaultModel = "google/gemini-2.0-flash-001"

// RecommendModel returns a recommended tool-capable model for a tier and provider.
// If provider is empty, defaults to "openrouter". Tiers: cheap|balanced|high-context.
func RecommendModel(provider, tier string) (string, bool) {
	if provider == "" {
		provider = ProviderOpenRouter
	}
	switch tier {
	case "cheap":
		switch provider {
		case ProviderOpenRouter, ProviderGoogle, ProviderGemini:
			return DefaultModel, true
		case ProviderOpenAI:
			return "openai/gpt-4o-mini", true
		case ProviderAnthropic:
			return "anthropic/claude-3-haiku", true
		case ProviderMeta, ProviderLlama:
			return "meta-llama/llama-3.1-8b-instruct", true
		case ProviderOllama, ProviderLocal:
			return "llama3.1:8b", true
		}
	case "balanced":
		switch provider {
		case ProviderOpenRouter, ProviderOpenAI:
			return "openai/gpt-4o", true
		case ProviderAnthropic:
			return "anthropic/claude-3.5-sonnet", true
		case ProviderGoogle, ProviderGemini:
			return "google/gemini-1.5-pro", true
		case ProviderMeta, ProviderLlama:
			return "meta-llama/llama-3.1-70b-instruct", true
		case ProviderOllama, ProviderLocal:
			return "qwen2.5:7b", true
		}
	case "high-context":
		switch provider {
		case ProviderOpenRouter, ProviderGoogle, ProviderGemini:
			return "google/gemini-1.5-pro", true
		case ProviderAnthropic:
			return "anthropic/claude-3.5-sonnet", true
		case ProviderOpenAI:
			return "openai/gpt-4.1-mini", true
		case ProviderMeta, ProviderLlama:
			return "meta-llama/llama-3.1-70b-instruct", true
		case ProviderOllama, ProviderLocal:
			return "llama3.1:8b", true
		}
	}
	return "", false
}
