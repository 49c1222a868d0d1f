package analyzer

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"hirescope/internal/errors"
	"hirescope/internal/types"
)

// checkpoint is the advisory snapshot written during a run. It is never read
// back by the pipeline; recovery is a manual re-run.
type checkpoint struct {
	JobName       string                   `json:"job_name"`
	ProgressCount int                      `json:"progress_count"`
	Timestamp     string                   `json:"timestamp"`
	Results       []types.EvaluationResult `json:"results"`
}

// saveCheckpoint persists the accumulated results to a timestamped snapshot
// in the output directory and returns its path.
func (a *CandidateAnalyzer) saveCheckpoint(jobName string, results []types.EvaluationResult) (string, error) {
	timestamp := a.now().Format("20060102_150405")
	filename := fmt.Sprintf("progress_%s_%d_%s.json",
		strings.ReplaceAll(jobName, " ", "_"), len(results), timestamp)
	path := filepath.Join(a.outputDir, filename)

	snapshot := checkpoint{
		JobName:       jobName,
		ProgressCount: len(results),
		Timestamp:     timestamp,
		Results:       results,
	}

	data, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return "", errors.NewIOError(errors.ErrCodeCheckpointFailed,
			"Failed to encode checkpoint", err).WithContext("path", path)
	}

	if err := os.MkdirAll(a.outputDir, 0o755); err != nil {
		return "", errors.NewIOError(errors.ErrCodeCheckpointFailed,
			"Failed to create output directory", err).WithContext("path", a.outputDir)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", errors.NewIOError(errors.ErrCodeCheckpointFailed,
			"Failed to write checkpoint", err).WithContext("path", path)
	}

	return path, nil
}
