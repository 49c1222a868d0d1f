package ai

import (
	"context"
	stderrors "errors"
	"log/slog"
	"testing"
	"time"

	"hirescope/internal/config"
	hsErrors "hirescope/internal/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/googleapi"
	"google.golang.org/genai"
)

const validScoreJSON = `{
	"score": 85,
	"summary": "Strong backend engineer with relevant Go experience",
	"key_strengths": ["Go", "Distributed systems"],
	"concerns": ["No team lead experience"],
	"hire_recommendation": "Strong yes",
	"notable_achievements": ["Scaled service to 1M QPS"],
	"culture_fit": "Good match for collaborative teams",
	"data_quality": "Complete resume and cover letter"
}`

func genaiResponse(text string, usage *genai.GenerateContentResponseUsageMetadata) *genai.GenerateContentResponse {
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{
			{Content: &genai.Content{Parts: []*genai.Part{{Text: text}}}},
		},
		UsageMetadata: usage,
	}
}

func newTestScorer(generate func(ctx context.Context, prompt string) (*genai.GenerateContentResponse, error)) (*GeminiScorer, *[]time.Duration) {
	waits := &[]time.Duration{}
	s := &GeminiScorer{
		cfg: &config.AIConfig{
			Model:       "gemini-2.5-pro",
			MaxAttempts: 3,
			BackoffStep: 30 * time.Second,
			Pricing:     testPricing,
		},
		logger:   hsErrors.NewLogger(slog.LevelError),
		generate: generate,
		sleep: func(ctx context.Context, d time.Duration) error {
			*waits = append(*waits, d)
			return nil
		},
	}
	return s, waits
}

func TestScoreCandidateSuccess(t *testing.T) {
	calls := 0
	scorer, _ := newTestScorer(func(ctx context.Context, prompt string) (*genai.GenerateContentResponse, error) {
		calls++
		assert.Contains(t, prompt, "Backend Engineer")
		assert.Contains(t, prompt, "SCORING RUBRIC")
		return genaiResponse(validScoreJSON, &genai.GenerateContentResponseUsageMetadata{
			PromptTokenCount:     1000,
			CandidatesTokenCount: 2000,
			ThoughtsTokenCount:   1000,
			TotalTokenCount:      4000,
		}), nil
	})

	eval := scorer.ScoreCandidate(context.Background(), ScoreRequest{
		JobTitle:         "Backend Engineer",
		JobDescription:   "Build Go services",
		CandidateProfile: "CANDIDATE: Jane Doe",
	})

	assert.Equal(t, 1, calls)
	assert.Equal(t, 85, eval.Score)
	assert.Equal(t, "Strong yes", eval.HireRecommendation)
	assert.False(t, eval.Failed)
	assert.InDelta(t, 0.195, eval.Cost, 1e-9)
}

func TestScoreCandidateExhaustionReturnsFallback(t *testing.T) {
	calls := 0
	scorer, waits := newTestScorer(func(ctx context.Context, prompt string) (*genai.GenerateContentResponse, error) {
		calls++
		return nil, stderrors.New("connection reset")
	})

	eval := scorer.ScoreCandidate(context.Background(), ScoreRequest{JobTitle: "SRE"})

	assert.Equal(t, 3, calls)
	assert.Empty(t, *waits)
	assert.True(t, eval.Failed)
	assert.Equal(t, 0, eval.Score)
	assert.Equal(t, "Scoring failed due to technical issues", eval.Summary)
	assert.Equal(t, []string{"Unable to complete AI evaluation"}, eval.Concerns)
	assert.Equal(t, "Unable to assess", eval.HireRecommendation)
	assert.Zero(t, eval.Cost)
}

func TestScoreCandidateRateLimitBackoff(t *testing.T) {
	calls := 0
	scorer, waits := newTestScorer(func(ctx context.Context, prompt string) (*genai.GenerateContentResponse, error) {
		calls++
		if calls < 3 {
			return nil, &googleapi.Error{Code: 429, Message: "quota exceeded"}
		}
		return genaiResponse(validScoreJSON, nil), nil
	})

	eval := scorer.ScoreCandidate(context.Background(), ScoreRequest{JobTitle: "SRE"})

	assert.Equal(t, 3, calls)
	assert.Equal(t, []time.Duration{30 * time.Second, 60 * time.Second}, *waits)
	assert.False(t, eval.Failed)
	assert.Equal(t, 85, eval.Score)
	assert.Zero(t, eval.Cost)
}

func TestScoreCandidateRetriesOnInvalidResponse(t *testing.T) {
	calls := 0
	scorer, _ := newTestScorer(func(ctx context.Context, prompt string) (*genai.GenerateContentResponse, error) {
		calls++
		if calls == 1 {
			return genaiResponse("not json at all", nil), nil
		}
		return genaiResponse(validScoreJSON, nil), nil
	})

	eval := scorer.ScoreCandidate(context.Background(), ScoreRequest{JobTitle: "SRE"})

	assert.Equal(t, 2, calls)
	assert.Equal(t, 85, eval.Score)
}

func TestParseEvaluationClampsScore(t *testing.T) {
	eval, err := parseEvaluation(`{"score": 150, "summary": "s", "key_strengths": [], "concerns": [], "hire_recommendation": "No"}`)
	require.NoError(t, err)
	assert.Equal(t, 100, eval.Score)

	eval, err = parseEvaluation(`{"score": -5, "summary": "s", "key_strengths": [], "concerns": [], "hire_recommendation": "No"}`)
	require.NoError(t, err)
	assert.Equal(t, 0, eval.Score)
}

func TestBuildScoringPromptCompanyContext(t *testing.T) {
	withContext := BuildScoringPrompt(ScoreRequest{
		JobTitle:       "PM",
		CompanyContext: "Early-stage fintech",
	})
	assert.Contains(t, withContext, "## COMPANY CONTEXT")
	assert.Contains(t, withContext, "Early-stage fintech")

	without := BuildScoringPrompt(ScoreRequest{JobTitle: "PM"})
	assert.NotContains(t, without, "COMPANY CONTEXT")
}
