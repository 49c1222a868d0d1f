package ai

import (
	"context"

	"hirescope/internal/types"
)

// ScoreRequest carries everything the scoring service needs to evaluate one
// candidate against one job.
type ScoreRequest struct {
	JobTitle         string
	JobDescription   string
	CandidateProfile string
	CompanyContext   string
}

// Scorer evaluates candidates. ScoreCandidate is total: on unrecoverable
// failure it returns a flagged fallback evaluation rather than an error, so
// one bad candidate never aborts a batch.
type Scorer interface {
	ScoreCandidate(ctx context.Context, req ScoreRequest) types.Evaluation
	Close() error
}

// TokenUsage holds token counts from a single scoring call.
type TokenUsage struct {
	PromptTokens     int64
	CompletionTokens int64
	ReasoningTokens  int64
	TotalTokens      int64
}
