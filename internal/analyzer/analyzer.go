// Package analyzer drives the candidate-analysis pipeline for one job:
// fetch job context, paginate applications, then per candidate fetch,
// extract, score, and merge, with periodic checkpoints and a final report.
package analyzer

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"hirescope/internal/ai"
	"hirescope/internal/config"
	"hirescope/internal/errors"
	"hirescope/internal/extract"
	"hirescope/internal/types"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

// DataSource is the slice of the tracking-system client the pipeline needs.
type DataSource interface {
	Job(ctx context.Context, jobID int64) (*types.Job, error)
	Applications(ctx context.Context, jobID int64, limit int) ([]types.Application, error)
	Candidate(ctx context.Context, candidateID int64) (*types.Candidate, error)
	DownloadAttachment(ctx context.Context, url string) ([]byte, error)
}

// Reporter turns a completed run into report artifacts on disk.
type Reporter interface {
	Generate(run *types.AnalysisRun, topN int, minutes float64) (*types.ReportPaths, error)
}

// Options control a single analysis run.
type Options struct {
	CompanyContext string
	Limit          int
	TopCandidates  int
	Checkpoints    bool
}

// CandidateAnalyzer orchestrates one analysis run at a time. Candidates are
// processed strictly sequentially; the result list and description cache are
// owned by the run, so no locking is involved.
type CandidateAnalyzer struct {
	source    DataSource
	scorer    ai.Scorer
	reporter  Reporter
	extractor *extract.Extractor
	logger    *errors.Logger

	descCache       map[int64]string
	checkpointEvery int
	outputDir       string

	now func() time.Time
}

// New creates an analyzer wired to a data source, scorer, and reporter.
func New(source DataSource, scorer ai.Scorer, reporter Reporter, cfg *config.Config, logger *errors.Logger) *CandidateAnalyzer {
	return &CandidateAnalyzer{
		source:          source,
		scorer:          scorer,
		reporter:        reporter,
		extractor:       extract.New(),
		logger:          logger,
		descCache:       make(map[int64]string),
		checkpointEvery: cfg.App.CheckpointEvery,
		outputDir:       cfg.Report.OutputDir,
		now:             time.Now,
	}
}

// AnalyzeJob runs the full pipeline for one job and returns the run summary.
// Individual candidate failures are logged and skipped; only job-level
// failures (job fetch, report writing) abort the run.
func (a *CandidateAnalyzer) AnalyzeJob(ctx context.Context, jobID int64, opts Options) (*types.RunSummary, error) {
	tracer := otel.Tracer("hirescope.analyzer")
	ctx, span := tracer.Start(ctx, "analyzer.analyze_job")
	defer span.End()
	span.SetAttributes(attribute.Int64("job.id", jobID))

	start := a.now()
	run := &types.AnalysisRun{
		RunID:          uuid.NewString(),
		JobID:          jobID,
		CompanyContext: opts.CompanyContext,
		StartedAt:      start,
	}

	job, err := a.source.Job(ctx, jobID)
	if err != nil {
		return nil, err
	}
	run.JobName = job.Name
	description := a.jobDescription(ctx, job)

	a.logger.Info("Analyzing job",
		"run_id", run.RunID,
		"job_id", jobID,
		"job_name", job.Name,
		"description_chars", len(description))

	applications, err := a.source.Applications(ctx, jobID, opts.Limit)
	if err != nil {
		return nil, err
	}
	a.logger.Info("Applications to analyze", "count", len(applications))

	for i, app := range applications {
		result, ok := a.processCandidate(ctx, job.Name, description, opts.CompanyContext, app)
		if !ok {
			continue
		}

		run.Results = append(run.Results, result)
		run.TotalCost += result.Cost

		a.logProgress(start, i, len(applications), result)

		if opts.Checkpoints && len(run.Results)%a.checkpointEvery == 0 {
			path, err := a.saveCheckpoint(job.Name, run.Results)
			if err != nil {
				a.logger.LogError(err, "Checkpoint write failed")
			} else {
				run.Checkpoints++
				a.logger.Info("Progress saved", "path", path)
			}
		}
	}

	minutes := a.now().Sub(start).Minutes()

	a.logger.Info("Generating analysis report", "results", len(run.Results))
	paths, err := a.reporter.Generate(run, opts.TopCandidates, minutes)
	if err != nil {
		return nil, err
	}

	span.SetAttributes(
		attribute.Int("run.candidates", len(run.Results)),
		attribute.Float64("run.total_cost", run.TotalCost),
	)

	return &types.RunSummary{
		RunID:           run.RunID,
		JobName:         job.Name,
		TotalCandidates: len(run.Results),
		AnalysisMinutes: minutes,
		TotalCost:       run.TotalCost,
		TopCandidate:    topResult(run.Results),
		ReportPaths:     *paths,
	}, nil
}

// processCandidate handles one application end to end. Any failure, panic
// included, is logged and reported as a skip so the batch keeps going.
func (a *CandidateAnalyzer) processCandidate(ctx context.Context, jobName, description, companyContext string, app types.Application) (result types.EvaluationResult, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			a.logger.Warn("Error processing candidate, skipping",
				"candidate_id", app.CandidateID,
				"application_id", app.ID,
				"panic", fmt.Sprint(r))
			ok = false
		}
	}()

	candidate, err := a.source.Candidate(ctx, app.CandidateID)
	if err != nil || candidate == nil {
		a.logger.Warn("Skipping application without candidate record",
			"candidate_id", app.CandidateID,
			"application_id", app.ID)
		return types.EvaluationResult{}, false
	}

	name := candidate.FullName()
	attachments, err := a.processAttachments(ctx, app)
	if err != nil {
		a.logger.Warn("Error processing candidate, skipping",
			"candidate_id", app.CandidateID,
			"application_id", app.ID,
			"error", err.Error())
		return types.EvaluationResult{}, false
	}
	profile := buildProfile(app, candidate, attachments)

	evaluation := a.scorer.ScoreCandidate(ctx, ai.ScoreRequest{
		JobTitle:         jobName,
		JobDescription:   description,
		CandidateProfile: profile,
		CompanyContext:   companyContext,
	})

	status := app.Status
	if status == "" {
		status = "active"
	}
	stage := app.CurrentStage.Name
	if stage == "" {
		stage = "Unknown"
	}

	return types.EvaluationResult{
		Evaluation:    evaluation,
		CandidateID:   candidate.ID,
		ApplicationID: app.ID,
		Name:          name,
		AppliedAt:     app.AppliedAt,
		Status:        status,
		CurrentStage:  stage,
	}, true
}

// attachmentTexts holds extracted text grouped by attachment role.
type attachmentTexts struct {
	resume      string
	coverLetter string
	other       []otherAttachment
}

type otherAttachment struct {
	Type     string
	Filename string
	Excerpt  string
}

// processAttachments downloads and extracts every attachment on an
// application. The first attachment whose declared type contains "resume"
// becomes the resume, the first containing "cover" the cover letter; the
// rest are kept as excerpts. A (nil, nil) download skips just that
// attachment; a download error fails the whole candidate so the caller can
// skip it.
func (a *CandidateAnalyzer) processAttachments(ctx context.Context, app types.Application) (attachmentTexts, error) {
	var texts attachmentTexts

	for _, attachment := range app.Attachments {
		content, err := a.source.DownloadAttachment(ctx, attachment.URL)
		if err != nil {
			return attachmentTexts{}, err
		}
		if content == nil {
			// nil means the source flattened a failed download; a zero-length
			// attachment still flows through extraction and surfaces its marker.
			continue
		}

		text := a.extractor.Extract(content, attachment.Filename)
		attachmentType := strings.ToLower(attachment.Type)

		switch {
		case strings.Contains(attachmentType, "resume") && texts.resume == "":
			texts.resume = text
		case strings.Contains(attachmentType, "cover") && texts.coverLetter == "":
			texts.coverLetter = text
		default:
			texts.other = append(texts.other, otherAttachment{
				Type:     attachment.Type,
				Filename: attachment.Filename,
				Excerpt:  excerpt(text, 1000),
			})
		}
	}

	if len(texts.other) > 0 {
		a.logger.Debug("Captured other attachments",
			"application_id", app.ID, "count", len(texts.other))
	}

	return texts, nil
}

func excerpt(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}

// buildProfile assembles the flattened text block sent to scoring.
func buildProfile(app types.Application, candidate *types.Candidate, attachments attachmentTexts) string {
	var answers []string
	for _, answer := range app.Answers {
		if answer.Answer != "" {
			answers = append(answers, answer.Question+": "+answer.Answer)
		}
	}

	answersBlock := "No responses provided"
	if len(answers) > 0 {
		answersBlock = strings.Join(answers, "\n")
	}

	resumeBlock := attachments.resume
	if resumeBlock == "" {
		resumeBlock = "[No resume available]"
	}
	coverBlock := attachments.coverLetter
	if coverBlock == "" {
		coverBlock = "[No cover letter]"
	}

	applied := datePart(app.AppliedAt)
	if applied == "" {
		applied = "N/A"
	}

	return fmt.Sprintf(`
CANDIDATE: %s
EMAIL: %s
APPLIED: %s

APPLICATION RESPONSES:
%s

RESUME:
%s

COVER LETTER:
%s
`, candidate.FullName(), candidate.PrimaryEmail(), applied, answersBlock, resumeBlock, coverBlock)
}

// logProgress reports percent complete and a rate-based ETA after each
// processed candidate.
func (a *CandidateAnalyzer) logProgress(start time.Time, index, total int, result types.EvaluationResult) {
	done := index + 1
	percent := float64(done) / float64(total) * 100

	etaMinutes := 0.0
	if elapsed := a.now().Sub(start).Seconds(); elapsed > 0 {
		rate := float64(done) / elapsed
		etaMinutes = float64(total-done) / rate / 60
	}

	a.logger.Info("Candidate processed",
		"name", result.Name,
		"score", result.Score,
		"progress", fmt.Sprintf("%d/%d", done, total),
		"percent", fmt.Sprintf("%.1f", percent),
		"eta_minutes", fmt.Sprintf("%.1f", etaMinutes))
}

// topResult returns the highest-scoring result, ties broken by processing
// order. Nil when the run produced nothing.
func topResult(results []types.EvaluationResult) *types.EvaluationResult {
	if len(results) == 0 {
		return nil
	}

	sorted := make([]types.EvaluationResult, len(results))
	copy(sorted, results)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Score > sorted[j].Score
	})

	top := sorted[0]
	return &top
}

// datePart truncates an ISO timestamp to its date portion.
func datePart(ts string) string {
	if len(ts) > 10 {
		return ts[:10]
	}
	return ts
}
