package analyzer

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
)

// NewFromEnv picks a provider from DENTALSCAN_PROVIDER (anthropic by default,
// or gemini). DENTALSCAN_NO_LLM disables upstream calls entirely.
func NewFromEnv(ctx context.Context) (Analyzer, error) {
	if envEnabled("DENTALSCAN_NO_LLM") {
		return nil, ErrAnalyzerDisabled
	}
	model := strings.TrimSpace(os.Getenv("DENTALSCAN_MODEL"))
	switch provider := strings.ToLower(strings.TrimSpace(os.Getenv("DENTALSCAN_PROVIDER"))); provider {
	case "", "anthropic":
		apiKey := strings.TrimSpace(os.Getenv("ANTHROPIC_API_KEY"))
		if apiKey == "" {
			return nil, errors.New("ANTHROPIC_API_KEY not configured")
		}
		return NewAnthropicAnalyzer(apiKey, model), nil
	case "gemini":
		apiKey := strings.TrimSpace(os.Getenv("GEMINI_API_KEY"))
		if apiKey == "" {
			return nil, errors.New("GEMINI_API_KEY not configured")
		}
		an, err := NewGeminiAnalyzer(ctx, apiKey, model)
		if err != nil {
			return nil, err
		}
		return an, nil
	default:
		return nil, fmt.Errorf("unknown DENTALSCAN_PROVIDER %q", provider)
	}
}

func envEnabled(key string) bool {
	switch strings.ToLower(strings.TrimSpace(os.Getenv(key))) {
	case "1", "true", "yes", "on":
		return true
	default:
		return false
	}
}
