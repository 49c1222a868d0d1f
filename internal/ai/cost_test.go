package ai

import (
	"testing"

	"hirescope/internal/config"

	"github.com/stretchr/testify/assert"
)

var testPricing = config.PricingConfig{
	InputPer1K:     0.015,
	OutputPer1K:    0.060,
	ReasoningPer1K: 0.060,
}

func TestCalculateCost(t *testing.T) {
	tests := []struct {
		name     string
		usage    TokenUsage
		expected float64
	}{
		{
			name:     "zero usage costs nothing",
			usage:    TokenUsage{},
			expected: 0,
		},
		{
			name: "all token classes priced",
			usage: TokenUsage{
				PromptTokens:     1000,
				CompletionTokens: 2000,
				ReasoningTokens:  1000,
			},
			expected: 0.195,
		},
		{
			name:     "prompt only",
			usage:    TokenUsage{PromptTokens: 2000},
			expected: 0.03,
		},
		{
			name:     "rounds to four decimal places",
			usage:    TokenUsage{PromptTokens: 333},
			expected: 0.005,
		},
		{
			name:     "sub-cent usage rounds down to zero",
			usage:    TokenUsage{PromptTokens: 1},
			expected: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.expected, CalculateCost(tt.usage, testPricing), 1e-9)
		})
	}
}

func TestCalculateCostMonotonic(t *testing.T) {
	small := CalculateCost(TokenUsage{PromptTokens: 10000}, testPricing)
	large := CalculateCost(TokenUsage{PromptTokens: 20000}, testPricing)
	assert.Greater(t, large, small)
}
