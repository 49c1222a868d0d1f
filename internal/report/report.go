// Package report turns a completed analysis run into its disk artifacts: a
// ranked markdown report, a top-K CSV, a full JSON dump, and a short text
// summary, all inside a per-run output folder.
package report

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"hirescope/internal/errors"
	"hirescope/internal/types"
)

const (
	markdownName = "Full_Report.md"
	csvName      = "Top_Candidates.csv"
	jsonName     = "full_results.json"
	summaryName  = "QUICK_SUMMARY.txt"

	gemDisplayCap   = 10
	summaryTopCount = 5
)

// Generator writes report artifacts for completed runs.
type Generator struct {
	outputDir         string
	hiddenGemMinScore int
	logger            *errors.Logger

	now func() time.Time
}

// NewGenerator creates a report generator writing under outputDir.
func NewGenerator(outputDir string, hiddenGemMinScore int, logger *errors.Logger) *Generator {
	return &Generator{
		outputDir:         outputDir,
		hiddenGemMinScore: hiddenGemMinScore,
		logger:            logger,
		now:               time.Now,
	}
}

// Generate writes all artifacts for a run and returns their paths.
func (g *Generator) Generate(run *types.AnalysisRun, topN int, minutes float64) (*types.ReportPaths, error) {
	timestamp := g.now().Format("20060102_150405")
	safeJobName := sanitizeJobName(run.JobName)

	folder := filepath.Join(g.outputDir, safeJobName+"_"+timestamp)
	if err := os.MkdirAll(folder, 0o755); err != nil {
		return nil, errors.NewIOError(errors.ErrCodeReportWriteFailed,
			"Failed to create report folder", err).WithContext("path", folder)
	}

	sorted := SortedByScore(run.Results)

	paths := &types.ReportPaths{
		Markdown: filepath.Join(folder, markdownName),
		CSV:      filepath.Join(folder, csvName),
		JSON:     filepath.Join(folder, jsonName),
		Summary:  filepath.Join(folder, summaryName),
		Folder:   folder,
	}

	if err := g.writeMarkdown(paths.Markdown, sorted, run, topN, minutes); err != nil {
		return nil, err
	}
	if err := g.writeCSV(paths.CSV, top(sorted, topN)); err != nil {
		return nil, err
	}
	if err := g.writeJSON(paths.JSON, run, minutes); err != nil {
		return nil, err
	}
	if err := g.writeQuickSummary(paths.Summary, top(sorted, summaryTopCount), run, minutes); err != nil {
		return nil, err
	}

	g.logger.Info("Reports saved", "folder", folder, "candidates", len(run.Results))
	return paths, nil
}

// SortedByScore returns a copy ranked by score descending; ties keep the
// original processing order.
func SortedByScore(results []types.EvaluationResult) []types.EvaluationResult {
	sorted := make([]types.EvaluationResult, len(results))
	copy(sorted, results)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Score > sorted[j].Score
	})
	return sorted
}

// ScoreBand is one row of the score distribution.
type ScoreBand struct {
	Label string
	Count int
}

// ScoreBuckets counts results into the six fixed score bands.
func ScoreBuckets(results []types.EvaluationResult) []ScoreBand {
	bands := []ScoreBand{
		{Label: "90-100"},
		{Label: "80-89"},
		{Label: "70-79"},
		{Label: "60-69"},
		{Label: "50-59"},
		{Label: "Below 50"},
	}

	for _, result := range results {
		switch {
		case result.Score >= 90:
			bands[0].Count++
		case result.Score >= 80:
			bands[1].Count++
		case result.Score >= 70:
			bands[2].Count++
		case result.Score >= 60:
			bands[3].Count++
		case result.Score >= 50:
			bands[4].Count++
		default:
			bands[5].Count++
		}
	}

	return bands
}

// HiddenGems filters for rejected candidates whose score reached the
// threshold. Input order is preserved, so a score-ranked input yields
// score-ranked gems.
func HiddenGems(results []types.EvaluationResult, minScore int) []types.EvaluationResult {
	var gems []types.EvaluationResult
	for _, result := range results {
		if result.Status == "rejected" && result.Score >= minScore {
			gems = append(gems, result)
		}
	}
	return gems
}

// GreenhouseLink builds the deep link into the tracking system, or a
// placeholder when either identifier is missing.
func GreenhouseLink(candidateID, applicationID int64) string {
	if candidateID != 0 && applicationID != 0 {
		return fmt.Sprintf("https://app8.greenhouse.io/people/%d/applications/%d", candidateID, applicationID)
	}
	return "No link available"
}

func (g *Generator) writeMarkdown(path string, sorted []types.EvaluationResult, run *types.AnalysisRun, topN int, minutes float64) error {
	var b strings.Builder

	fmt.Fprintf(&b, "# Candidate Analysis Report: %s\n\n", run.JobName)
	fmt.Fprintf(&b, "**Generated**: %s  \n", g.now().Format("January 2, 2006 at 3:04 PM"))
	fmt.Fprintf(&b, "**Total Candidates Analyzed**: %d  \n", len(sorted))
	fmt.Fprintf(&b, "**Analysis Time**: %.1f minutes  \n", minutes)
	fmt.Fprintf(&b, "**Total Cost**: $%.2f\n\n", run.TotalCost)
	b.WriteString("---\n\n## Score Distribution\n\n")

	for _, band := range ScoreBuckets(sorted) {
		if band.Count > 0 {
			fmt.Fprintf(&b, "- **%s**: %d candidates\n", band.Label, band.Count)
		}
	}

	fmt.Fprintf(&b, "\n---\n\n## Top %d Candidates\n\n", topN)

	for i, result := range top(sorted, topN) {
		link := GreenhouseLink(result.CandidateID, result.ApplicationID)

		fmt.Fprintf(&b, "### %d. %s - Score: %d/100\n\n", i+1, result.Name, result.Score)
		fmt.Fprintf(&b, "**[View in Greenhouse](%s)**  \n", link)
		fmt.Fprintf(&b, "**Applied**: %s | **Status**: %s | **Stage**: %s\n\n",
			datePart(result.AppliedAt), result.Status, result.CurrentStage)
		fmt.Fprintf(&b, "**Executive Summary**: %s\n\n", result.Summary)

		b.WriteString("**Key Strengths**:\n")
		for _, strength := range result.KeyStrengths {
			fmt.Fprintf(&b, "- %s\n", strength)
		}

		if len(result.NotableAchievements) > 0 {
			b.WriteString("\n**Notable Achievements**:\n")
			for _, achievement := range result.NotableAchievements {
				fmt.Fprintf(&b, "- %s\n", achievement)
			}
		}

		fmt.Fprintf(&b, "\n**Culture Fit**: %s\n", result.CultureFit)

		if len(result.Concerns) > 0 {
			b.WriteString("\n**Potential Concerns**:\n")
			for _, concern := range result.Concerns {
				fmt.Fprintf(&b, "- %s\n", concern)
			}
		}

		fmt.Fprintf(&b, "\n**Hiring Recommendation**: %s\n", result.HireRecommendation)
		fmt.Fprintf(&b, "\n**Data Quality**: %s\n", result.DataQuality)
		b.WriteString("\n---\n\n")
	}

	if gems := HiddenGems(sorted, g.hiddenGemMinScore); len(gems) > 0 {
		b.WriteString("## Hidden Gems (High-Scoring Rejected Candidates)\n\n")
		fmt.Fprintf(&b, "Found **%d** previously rejected candidates with scores >= %d:\n\n",
			len(gems), g.hiddenGemMinScore)

		for _, gem := range top(gems, gemDisplayCap) {
			fmt.Fprintf(&b, "- **[%s](%s)** (Score: %d) - %s\n",
				gem.Name, GreenhouseLink(gem.CandidateID, gem.ApplicationID),
				gem.Score, preview(gem.Summary, 100))
		}
		b.WriteString("\n")
	}

	b.WriteString(`---

## Evaluation Methodology

Candidates were scored on a 0-100 scale based on:

1. **Skills & Experience Match** (40 points max)
2. **Achievements & Impact** (30 points max)
3. **Culture & Industry Fit** (20 points max)
4. **Growth Potential** (10 points max)

---

*Report generated by HireScope - AI-powered candidate analysis for Greenhouse ATS*
`)

	return writeArtifact(path, []byte(b.String()))
}

func (g *Generator) writeCSV(path string, topCandidates []types.EvaluationResult) error {
	file, err := os.Create(path)
	if err != nil {
		return errors.NewIOError(errors.ErrCodeReportWriteFailed,
			"Failed to create CSV summary", err).WithContext("path", path)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	if err := writer.Write([]string{
		"Rank", "Name", "Score", "Status", "Applied Date",
		"Greenhouse Link", "Summary", "Recommendation",
	}); err != nil {
		return errors.NewIOError(errors.ErrCodeReportWriteFailed,
			"Failed to write CSV header", err).WithContext("path", path)
	}

	for i, result := range topCandidates {
		record := []string{
			strconv.Itoa(i + 1),
			result.Name,
			strconv.Itoa(result.Score),
			result.Status,
			datePart(result.AppliedAt),
			GreenhouseLink(result.CandidateID, result.ApplicationID),
			result.Summary,
			result.HireRecommendation,
		}
		if err := writer.Write(record); err != nil {
			return errors.NewIOError(errors.ErrCodeReportWriteFailed,
				"Failed to write CSV row", err).WithContext("path", path)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return errors.NewIOError(errors.ErrCodeReportWriteFailed,
			"Failed to flush CSV summary", err).WithContext("path", path)
	}
	return nil
}

func (g *Generator) writeJSON(path string, run *types.AnalysisRun, minutes float64) error {
	dump := map[string]any{
		"run_id":             run.RunID,
		"job_name":           run.JobName,
		"analysis_date":      g.now().Format(time.RFC3339),
		"total_candidates":   len(run.Results),
		"total_time_minutes": minutes,
		"total_cost_usd":     run.TotalCost,
		"results":            run.Results,
	}

	data, err := json.MarshalIndent(dump, "", "  ")
	if err != nil {
		return errors.NewIOError(errors.ErrCodeReportWriteFailed,
			"Failed to encode results", err).WithContext("path", path)
	}
	return writeArtifact(path, data)
}

func (g *Generator) writeQuickSummary(path string, topCandidates []types.EvaluationResult, run *types.AnalysisRun, minutes float64) error {
	var b strings.Builder

	b.WriteString("CANDIDATE ANALYSIS SUMMARY\n")
	b.WriteString(run.JobName + "\n")
	fmt.Fprintf(&b, "Generated: %s\n", g.now().Format("January 2, 2006 at 3:04 PM"))
	fmt.Fprintf(&b, "Analysis Time: %.1f minutes | Cost: $%.2f\n\n", minutes, run.TotalCost)
	fmt.Fprintf(&b, "TOP %d CANDIDATES:\n\n", summaryTopCount)

	for i, result := range topCandidates {
		fmt.Fprintf(&b, "%d. %s - Score: %d/100\n", i+1, result.Name, result.Score)
		fmt.Fprintf(&b, "   Status: %s\n", result.Status)
		fmt.Fprintf(&b, "   Summary: %s\n", result.Summary)
		fmt.Fprintf(&b, "   Recommendation: %s\n", result.HireRecommendation)
		fmt.Fprintf(&b, "   Greenhouse: %s\n\n", GreenhouseLink(result.CandidateID, result.ApplicationID))
	}

	return writeArtifact(path, []byte(b.String()))
}

func writeArtifact(path string, data []byte) error {
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errors.NewIOError(errors.ErrCodeReportWriteFailed,
			"Failed to write report artifact", err).WithContext("path", path)
	}
	return nil
}

func sanitizeJobName(name string) string {
	replacer := strings.NewReplacer(" ", "_", "/", "_")
	return replacer.Replace(name)
}

func top(results []types.EvaluationResult, n int) []types.EvaluationResult {
	if n > 0 && len(results) > n {
		return results[:n]
	}
	return results
}

func preview(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n]) + "..."
}

func datePart(ts string) string {
	if len(ts) > 10 {
		return ts[:10]
	}
	return ts
}
