package factory

import (
	"fmt"

	"ai-salesbot-be/pkg/llm"
	"ai-salesbot-be/pkg/llm/gemini"
	"ai-salesbot-be/pkg/llm/ollama"
)

// NewLLMProvider builds the configured chat provider.
// Supported providers: "gemini", "ollama".
func NewLLMProvider(provider, apiKey, baseURL, model string) (llm.LLMProvider, error) {
	switch provider {
	case "gemini":
		if apiKey == "" {
			return nil, fmt.Errorf("gemini provider requires an API key")
		}
		return gemini.NewGeminiProvider(apiKey, model), nil
	case "ollama":
		return ollama.NewOllamaProvider(baseURL, model), nil
	default:
		return nil, fmt.Errorf("unsupported llm provider: %s", provider)
	}
}
