package ai

import (
	"math"

	"hirescope/internal/config"
)

// CalculateCost estimates the dollar cost of one scoring call from its token
// usage and the configured per-1000-token rates, rounded to 4 decimal places.
func CalculateCost(usage TokenUsage, pricing config.PricingConfig) float64 {
	cost := float64(usage.PromptTokens)/1000*pricing.InputPer1K +
		float64(usage.CompletionTokens)/1000*pricing.OutputPer1K +
		float64(usage.ReasoningTokens)/1000*pricing.ReasoningPer1K

	return math.Round(cost*10000) / 10000
}
