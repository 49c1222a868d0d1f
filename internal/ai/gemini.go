// Package ai implements the candidate scoring client on top of Gemini
// structured output. Scoring is total: retries are bounded and exhaustion
// produces a flagged fallback evaluation, never an error.
package ai

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"net/http"
	"time"

	"hirescope/internal/config"
	hsErrors "hirescope/internal/errors"
	"hirescope/internal/types"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"google.golang.org/api/googleapi"
	"google.golang.org/genai"
)

// GeminiScorer scores candidate profiles against job descriptions using the
// Gemini API with a JSON response schema.
type GeminiScorer struct {
	client  *genai.Client
	cfg     *config.AIConfig
	breaker *ScoringBreaker
	logger  *hsErrors.Logger

	// generate and sleep are swapped out by tests.
	generate func(ctx context.Context, prompt string) (*genai.GenerateContentResponse, error)
	sleep    func(ctx context.Context, d time.Duration) error
}

// NewGeminiScorer creates a scorer from configuration.
func NewGeminiScorer(ctx context.Context, cfg *config.AIConfig, logger *hsErrors.Logger) (*GeminiScorer, error) {
	if cfg.APIKey == "" {
		return nil, hsErrors.NewConfigError(hsErrors.ErrCodeMissingAPIKey,
			"Scoring service API key is not configured", nil)
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, hsErrors.NewAIError(hsErrors.ErrCodeScoringFailed,
			"Failed to create scoring client", err)
	}

	s := &GeminiScorer{
		client:  client,
		cfg:     cfg,
		breaker: NewScoringBreaker(&cfg.CircuitBreaker, logger),
		logger:  logger,
	}
	s.generate = s.generateContent
	s.sleep = sleepContext

	return s, nil
}

func sleepContext(ctx context.Context, d time.Duration) error {
	select {
	case <-time.After(d):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// ScoreCandidate evaluates one candidate. Rate-limited attempts back off
// linearly (backoff step times the attempt number); other failures retry
// immediately. When all attempts fail the fallback evaluation is returned.
func (s *GeminiScorer) ScoreCandidate(ctx context.Context, req ScoreRequest) types.Evaluation {
	tracer := otel.Tracer("hirescope.ai.gemini")
	ctx, span := tracer.Start(ctx, "gemini.score_candidate")
	defer span.End()

	span.SetAttributes(
		attribute.String("ai.provider", "gemini"),
		attribute.String("ai.model", s.cfg.Model),
		attribute.String("job.title", req.JobTitle),
	)

	prompt := BuildScoringPrompt(req)

	for attempt := 1; attempt <= s.cfg.MaxAttempts; attempt++ {
		result, err := s.breaker.Execute(func() (*genai.GenerateContentResponse, error) {
			return s.generate(ctx, prompt)
		})
		if err != nil {
			span.RecordError(err)
			if isRateLimited(err) {
				wait := time.Duration(attempt) * s.cfg.BackoffStep
				s.logger.Warn("Scoring service rate limited, backing off",
					"wait_seconds", wait.Seconds(),
					"attempt", attempt,
					"max_attempts", s.cfg.MaxAttempts)
				if attempt < s.cfg.MaxAttempts {
					if serr := s.sleep(ctx, wait); serr != nil {
						break
					}
				}
				continue
			}
			s.logger.LogError(
				hsErrors.NewAIError(hsErrors.ErrCodeScoringFailed, "Scoring request failed", err),
				"Scoring attempt failed", "attempt", attempt)
			continue
		}

		evaluation, err := parseEvaluation(result.Text())
		if err != nil {
			span.RecordError(err)
			s.logger.LogError(
				hsErrors.NewAIError(hsErrors.ErrCodeScoringParseFailed, "Invalid scoring response", err),
				"Scoring attempt failed", "attempt", attempt)
			continue
		}

		usage := extractTokenUsage(result)
		evaluation.Cost = CalculateCost(usage, s.cfg.Pricing)

		span.SetAttributes(
			attribute.Int("ai.score", evaluation.Score),
			attribute.Int64("ai.tokens.total", usage.TotalTokens),
			attribute.Bool("success", true),
		)
		return evaluation
	}

	span.SetAttributes(attribute.Bool("success", false))
	s.logger.Warn("Scoring attempts exhausted, recording fallback evaluation",
		"max_attempts", s.cfg.MaxAttempts)
	return FallbackEvaluation()
}

// Close implements Scorer. The Gemini client has no close in single-shot use.
func (s *GeminiScorer) Close() error {
	return nil
}

func (s *GeminiScorer) generateContent(ctx context.Context, prompt string) (*genai.GenerateContentResponse, error) {
	return s.client.Models.GenerateContent(ctx, s.cfg.Model, genai.Text(prompt), s.buildEvaluationConfig())
}

// buildEvaluationConfig creates the structured-output schema for evaluations.
func (s *GeminiScorer) buildEvaluationConfig() *genai.GenerateContentConfig {
	genaiConfig := &genai.GenerateContentConfig{
		ResponseMIMEType:  "application/json",
		SystemInstruction: genai.NewContentFromText(scoringSystemPrompt, genai.RoleUser),
		ResponseSchema: &genai.Schema{
			Type: genai.TypeObject,
			Properties: map[string]*genai.Schema{
				"score":   {Type: genai.TypeInteger},
				"summary": {Type: genai.TypeString},
				"key_strengths": {
					Type:  genai.TypeArray,
					Items: &genai.Schema{Type: genai.TypeString},
				},
				"concerns": {
					Type:  genai.TypeArray,
					Items: &genai.Schema{Type: genai.TypeString},
				},
				"hire_recommendation": {Type: genai.TypeString},
				"notable_achievements": {
					Type:  genai.TypeArray,
					Items: &genai.Schema{Type: genai.TypeString},
				},
				"culture_fit":  {Type: genai.TypeString},
				"data_quality": {Type: genai.TypeString},
			},
			Required: []string{"score", "summary", "key_strengths", "concerns", "hire_recommendation"},
		},
	}

	if s.cfg.Temperature > 0 {
		genaiConfig.Temperature = genai.Ptr(s.cfg.Temperature)
	}

	return genaiConfig
}

// FallbackEvaluation is the record written when scoring cannot complete.
func FallbackEvaluation() types.Evaluation {
	return types.Evaluation{
		Score:              0,
		Summary:            "Scoring failed due to technical issues",
		KeyStrengths:       []string{},
		Concerns:           []string{"Unable to complete AI evaluation"},
		HireRecommendation: "Unable to assess",
		Failed:             true,
		Cost:               0,
	}
}

// parseEvaluation decodes the model's JSON response, clamping the score into
// the 0-100 range.
func parseEvaluation(text string) (types.Evaluation, error) {
	var evaluation types.Evaluation
	if err := json.Unmarshal([]byte(text), &evaluation); err != nil {
		return types.Evaluation{}, err
	}

	if evaluation.Score < 0 {
		evaluation.Score = 0
	}
	if evaluation.Score > 100 {
		evaluation.Score = 100
	}

	return evaluation, nil
}

// isRateLimited reports whether the error is an HTTP 429 from the provider.
func isRateLimited(err error) bool {
	var apiErr *googleapi.Error
	if stderrors.As(err, &apiErr) {
		return apiErr.Code == http.StatusTooManyRequests
	}
	return false
}

// extractTokenUsage pulls token counts from the response metadata. Thought
// tokens are billed at the reasoning rate.
func extractTokenUsage(result *genai.GenerateContentResponse) TokenUsage {
	if result == nil || result.UsageMetadata == nil {
		return TokenUsage{}
	}

	usage := result.UsageMetadata
	return TokenUsage{
		PromptTokens:     int64(usage.PromptTokenCount),
		CompletionTokens: int64(usage.CandidatesTokenCount),
		ReasoningTokens:  int64(usage.ThoughtsTokenCount),
		TotalTokens:      int64(usage.TotalTokenCount),
	}
}
