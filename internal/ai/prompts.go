package ai

import (
	"fmt"
	"strings"
)

// scoringSystemPrompt frames the model as a recruiting expert producing
// structured JSON evaluations.
const scoringSystemPrompt = `You are an expert technical recruiter with 15+ years of experience evaluating candidates across engineering, product, and operations roles. You evaluate candidates fairly and rigorously against the specific requirements of a role, and you always respond with valid JSON matching the requested schema.`

const scoringPromptTemplate = `Evaluate this candidate for the following position.

## POSITION
%s

## JOB DESCRIPTION
%s
%s
## CANDIDATE
%s

## SCORING RUBRIC (total 100 points)
- Relevant skills and experience match: up to 40 points
- Demonstrated achievements and impact: up to 30 points
- Culture and team fit signals: up to 20 points
- Growth potential and trajectory: up to 10 points

Score the candidate 0-100 using the rubric. Be specific: cite evidence from
the candidate's materials for strengths and concerns. If application materials
are missing or unreadable, reflect that in data_quality and score accordingly.`

// BuildScoringPrompt renders the user prompt for one candidate evaluation.
// Company context is optional and inserted as its own section when present.
func BuildScoringPrompt(req ScoreRequest) string {
	contextSection := "\n"
	if strings.TrimSpace(req.CompanyContext) != "" {
		contextSection = fmt.Sprintf("\n## COMPANY CONTEXT\n%s\n\n", req.CompanyContext)
	}

	return fmt.Sprintf(scoringPromptTemplate,
		req.JobTitle,
		req.JobDescription,
		contextSection,
		req.CandidateProfile)
}
