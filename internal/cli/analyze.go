package cli

import (
	"fmt"
	"os"
	"strconv"

	"hirescope/internal/ai"
	"hirescope/internal/analyzer"
	"hirescope/internal/ats"
	"hirescope/internal/errors"
	"hirescope/internal/report"

	"github.com/spf13/cobra"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze [job-id]",
	Short: "Analyze all candidates for a job",
	Long: `Analyze every applicant for a Greenhouse job: download and extract
resumes and cover letters, score each candidate with AI against the job
description, and write ranked reports to the output directory.

The job ID comes from the jobs command.`,
	Args: cobra.ExactArgs(1),
	RunE: runAnalyze,
}

var analyzeFlags struct {
	companyContext string
	contextFile    string
	top            int
	limit          int
	checkpoints    bool
	output         string
}

func init() {
	analyzeCmd.Flags().StringVar(&analyzeFlags.companyContext, "context", "", "Company context for scoring (culture, values, stage)")
	analyzeCmd.Flags().StringVar(&analyzeFlags.contextFile, "context-file", "", "Read company context from a file")
	analyzeCmd.Flags().IntVar(&analyzeFlags.top, "top", 0, "Number of top candidates to highlight (default from config)")
	analyzeCmd.Flags().IntVar(&analyzeFlags.limit, "limit", 0, "Cap the number of applications analyzed (0 = all)")
	analyzeCmd.Flags().BoolVar(&analyzeFlags.checkpoints, "checkpoints", true, "Write progress checkpoints every few candidates")
	analyzeCmd.Flags().StringVarP(&analyzeFlags.output, "output", "o", "", "Output directory override")
	analyzeCmd.MarkFlagsMutuallyExclusive("context", "context-file")
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	cfg := getConfigFromContext(ctx)
	logger := getLoggerFromContext(ctx)

	jobID, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return errors.NewValidationError(errors.ErrCodeJobNotFound,
			fmt.Sprintf("Invalid job ID %q", args[0]), err)
	}

	companyContext := analyzeFlags.companyContext
	if analyzeFlags.contextFile != "" {
		content, err := os.ReadFile(analyzeFlags.contextFile)
		if err != nil {
			return errors.NewIOError(errors.ErrCodeFileNotReadable,
				"Failed to read context file", err).WithContext("path", analyzeFlags.contextFile)
		}
		companyContext = string(content)
	}

	if analyzeFlags.output != "" {
		cfg.Report.OutputDir = analyzeFlags.output
	}
	topCandidates := analyzeFlags.top
	if topCandidates <= 0 {
		topCandidates = cfg.Report.TopCandidates
	}

	scorer, err := ai.NewGeminiScorer(ctx, &cfg.AI, logger)
	if err != nil {
		return fmt.Errorf("failed to create scoring client: %w", err)
	}
	defer func() { _ = scorer.Close() }()

	source := ats.NewClient(&cfg.ATS, logger)
	reporter := report.NewGenerator(cfg.Report.OutputDir, cfg.Report.HiddenGemMinScore, logger)
	pipeline := analyzer.New(source, scorer, reporter, cfg, logger)

	summary, err := pipeline.AnalyzeJob(ctx, jobID, analyzer.Options{
		CompanyContext: companyContext,
		Limit:          analyzeFlags.limit,
		TopCandidates:  topCandidates,
		Checkpoints:    analyzeFlags.checkpoints,
	})
	if err != nil {
		return fmt.Errorf("analysis failed: %w", err)
	}

	fmt.Printf("\nAnalysis complete: %s\n", summary.JobName)
	fmt.Printf("  Candidates analyzed: %d\n", summary.TotalCandidates)
	fmt.Printf("  Analysis time:       %.1f minutes\n", summary.AnalysisMinutes)
	fmt.Printf("  Total cost:          $%.2f\n", summary.TotalCost)
	if summary.TopCandidate != nil {
		fmt.Printf("  Top candidate:       %s (%d/100)\n",
			summary.TopCandidate.Name, summary.TopCandidate.Score)
	}
	fmt.Printf("  Reports:             %s\n", summary.ReportPaths.Folder)
	return nil
}
