package cli

import (
	"fmt"
	"os"
	"text/tabwriter"

	"hirescope/internal/ats"

	"github.com/spf13/cobra"
)

var jobsCmd = &cobra.Command{
	Use:   "jobs",
	Short: "List jobs that have applications to analyze",
	Long: `List all Greenhouse jobs with at least one application, newest
first. Use a job's ID with the analyze command.`,
	Args: cobra.NoArgs,
	RunE: runJobs,
}

func runJobs(cmd *cobra.Command, args []string) error {
	cfg := getConfigFromContext(cmd.Context())
	logger := getLoggerFromContext(cmd.Context())

	client := ats.NewClient(&cfg.ATS, logger)
	summaries, err := client.JobsWithApplications(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to list jobs: %w", err)
	}

	if len(summaries) == 0 {
		fmt.Println("No jobs with applications found.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTITLE\tSTATUS\tDEPARTMENT\tCREATED\tAPPS")
	for _, job := range summaries {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%d\n",
			job.ID, job.Name, job.Status, job.Department, job.CreatedAt, job.ApplicationCount)
	}
	return w.Flush()
}
