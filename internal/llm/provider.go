package llm

import (
	"fmt"

	"github.com/soarlabs/soar/internal/domain"
)

const (
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
	ProviderGemini    = "gemini"
	ProviderCerebras  = "cerebras"
	ProviderMock      = "mock"
	ProviderTemplate  = "template"
)

// NewClient creates a Generator for the named provider. ProviderTemplate
// returns a nil Generator, which downstream services treat as template mode.
func NewClient(provider, apiKey string) (domain.Generator, error) {
	switch provider {
	case ProviderOpenAI:
		if apiKey == "" {
			return nil, fmt.Errorf("OPENAI_API_KEY is required for openai provider")
		}
		return NewOpenAIClient(apiKey), nil
	case ProviderAnthropic:
		if apiKey == "" {
			return nil, fmt.Errorf("ANTHROPIC_API_KEY is required for anthropic provider")
		}
		return NewAnthropicClient(apiKey), nil
	case ProviderGemini:
		if apiKey == "" {
			return nil, fmt.Errorf("GEMINI_API_KEY is required for gemini provider")
		}
		return NewGeminiClient(apiKey), nil
	case ProviderCerebras:
		if apiKey == "" {
			return nil, fmt.Errorf("CEREBRAS_API_KEY is required for cerebras provider")
		}
		return NewCerebrasClient(apiKey), nil
	case ProviderMock:
		return NewMockClient(), nil
	case ProviderTemplate:
		return nil, nil
	default:
		return nil, fmt.Errorf("unknown LLM provider: %s", provider)
	}
}

// Compile-time interface checks
var (
	_ domain.Generator = (*OpenAIClient)(nil)
	_ domain.Generator = (*AnthropicClient)(nil)
	_ domain.Generator = (*GeminiClient)(nil)
	_ domain.Generator = (*CerebrasClient)(nil)
	_ domain.Generator = (*MockClient)(nil)
)
