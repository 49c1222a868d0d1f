package types

import (
	"encoding/json"
	"strings"
	"time"
)

// Job represents an open position fetched from the tracking system.
// Immutable once fetched; the analyzer caches derived descriptions by ID.
type Job struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	Status    string `json:"status"`
	Notes     string `json:"notes"`
	CreatedAt string `json:"created_at"`

	// Departments is a pointer so an absent key can be told apart from a
	// present-but-empty list; job discovery treats those two cases
	// differently (default vs. skip).
	Departments *[]Department `json:"departments"`

	Offices           []Office               `json:"offices"`
	KeyedCustomFields map[string]CustomField `json:"keyed_custom_fields"`
}

// Department is an organizational unit a job belongs to.
type Department struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// Office is a location a job is attached to.
type Office struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// MoneyValue is a custom field value carrying an amount and a currency unit.
type MoneyValue struct {
	Value json.Number `json:"value"`
	Unit  string      `json:"unit"`
}

// CustomField is a job custom field whose remote value is either a plain
// scalar or a money object. Exactly one of Text/Money is populated.
type CustomField struct {
	Text  string
	Money *MoneyValue
}

// UnmarshalJSON accepts both scalar values and {value, unit} money objects.
func (f *CustomField) UnmarshalJSON(data []byte) error {
	trimmed := strings.TrimSpace(string(data))
	if strings.HasPrefix(trimmed, "{") {
		var mv MoneyValue
		if err := json.Unmarshal(data, &mv); err == nil && mv.Value != "" {
			f.Money = &mv
			return nil
		}
		f.Text = trimmed
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		f.Text = s
		return nil
	}

	if trimmed == "null" {
		return nil
	}
	f.Text = trimmed
	return nil
}

// IsEmpty reports whether the field carries no renderable value.
func (f CustomField) IsEmpty() bool {
	return f.Money == nil && strings.TrimSpace(f.Text) == ""
}

// Application is one candidate's submission to one job.
type Application struct {
	ID           int64        `json:"id"`
	CandidateID  int64        `json:"candidate_id"`
	AppliedAt    string       `json:"applied_at"`
	Status       string       `json:"status"`
	CurrentStage Stage        `json:"current_stage"`
	Answers      []Answer     `json:"answers"`
	Attachments  []Attachment `json:"attachments"`
}

// Stage is the pipeline stage an application currently sits in.
type Stage struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// Answer is one question/response pair from an application form.
type Answer struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// Attachment references a downloadable document attached to an application.
// Type is free text from the source, matched case-insensitively against
// "resume" and "cover" during classification.
type Attachment struct {
	Filename string `json:"filename"`
	URL      string `json:"url"`
	Type     string `json:"type"`
}

// Candidate is a person record, potentially linked to multiple applications.
type Candidate struct {
	ID             int64          `json:"id"`
	FirstName      string         `json:"first_name"`
	LastName       string         `json:"last_name"`
	EmailAddresses []ContactValue `json:"email_addresses"`
	PhoneNumbers   []ContactValue `json:"phone_numbers"`
}

// ContactValue is a single typed contact entry (email, phone).
type ContactValue struct {
	Value string `json:"value"`
	Type  string `json:"type"`
}

// FullName joins the candidate's name parts.
func (c *Candidate) FullName() string {
	return strings.TrimSpace(c.FirstName + " " + c.LastName)
}

// PrimaryEmail returns the first email address, or "N/A" when none exists.
func (c *Candidate) PrimaryEmail() string {
	if len(c.EmailAddresses) == 0 {
		return "N/A"
	}
	return c.EmailAddresses[0].Value
}

// Evaluation is the structured scoring-service output for one candidate.
type Evaluation struct {
	Score               int      `json:"score"`
	Summary             string   `json:"summary"`
	KeyStrengths        []string `json:"key_strengths"`
	Concerns            []string `json:"concerns"`
	HireRecommendation  string   `json:"hire_recommendation"`
	NotableAchievements []string `json:"notable_achievements"`
	CultureFit          string   `json:"culture_fit"`
	DataQuality         string   `json:"data_quality"`
	Cost                float64  `json:"cost"`
	Failed              bool     `json:"error,omitempty"`
}

// EvaluationResult is an Evaluation merged with application metadata.
// This is the unit persisted, checkpointed, ranked, and reported.
type EvaluationResult struct {
	Evaluation

	CandidateID   int64  `json:"candidate_id"`
	ApplicationID int64  `json:"application_id"`
	Name          string `json:"name"`
	AppliedAt     string `json:"applied_at"`
	Status        string `json:"status"`
	CurrentStage  string `json:"current_stage"`
}

// JobSummary is a discovery listing entry for a job with applications.
type JobSummary struct {
	ID               int64  `json:"id"`
	Name             string `json:"name"`
	Status           string `json:"status"`
	Department       string `json:"department"`
	CreatedAt        string `json:"created_at"`
	ApplicationCount int    `json:"application_count"`
}

// AnalysisRun accumulates state for one invocation of the pipeline.
type AnalysisRun struct {
	RunID          string
	JobID          int64
	JobName        string
	CompanyContext string
	StartedAt      time.Time
	Results        []EvaluationResult
	TotalCost      float64
	Checkpoints    int
}

// ReportPaths lists the artifacts produced for one analysis run.
type ReportPaths struct {
	Markdown string `json:"markdown"`
	CSV      string `json:"csv"`
	JSON     string `json:"json"`
	Summary  string `json:"summary"`
	Folder   string `json:"output_folder"`
}

// RunSummary is returned to the caller when an analysis run completes.
type RunSummary struct {
	RunID           string            `json:"run_id"`
	JobName         string            `json:"job_name"`
	TotalCandidates int               `json:"total_candidates"`
	AnalysisMinutes float64           `json:"analysis_time_minutes"`
	TotalCost       float64           `json:"total_cost"`
	TopCandidate    *EvaluationResult `json:"top_candidate,omitempty"`
	ReportPaths     ReportPaths       `json:"report_paths"`
}
