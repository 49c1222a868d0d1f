package ai

import (
	"hirescope/internal/config"
	"hirescope/internal/errors"

	"github.com/sony/gobreaker/v2"
	"google.golang.org/genai"
)

// ScoringBreaker wraps scoring calls with a circuit breaker so a hard
// provider outage fails fast instead of burning the full retry budget on
// every candidate.
type ScoringBreaker struct {
	cb *gobreaker.CircuitBreaker[*genai.GenerateContentResponse]
}

// NewScoringBreaker creates a circuit breaker from configuration. Returns nil
// when disabled; a nil breaker executes operations directly.
func NewScoringBreaker(cfg *config.CircuitBreakerConfig, logger *errors.Logger) *ScoringBreaker {
	if !cfg.Enabled {
		return nil
	}

	settings := gobreaker.Settings{
		Name:        "AI-Scoring",
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= cfg.MinRequests &&
				failureRatio >= cfg.FailureThreshold
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.Info("Circuit breaker state changed",
				"name", name,
				"from", from.String(),
				"to", to.String())
		},
	}

	return &ScoringBreaker{
		cb: gobreaker.NewCircuitBreaker[*genai.GenerateContentResponse](settings),
	}
}

// Execute runs the operation through the breaker when enabled.
func (b *ScoringBreaker) Execute(operation func() (*genai.GenerateContentResponse, error)) (*genai.GenerateContentResponse, error) {
	if b == nil || b.cb == nil {
		return operation()
	}
	return b.cb.Execute(operation)
}
