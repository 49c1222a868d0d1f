// Package ats implements the client for the applicant-tracking data source
// (Greenhouse Harvest API v1): authenticated, paginated read access to jobs,
// applications, candidates, and raw attachment bytes.
package ats

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"time"

	"hirescope/internal/config"
	"hirescope/internal/errors"
	"hirescope/internal/types"

	"golang.org/x/time/rate"
)

// Client provides read access to the tracking system. A single instance
// holds the credential and client-side pacing state for one analysis run.
type Client struct {
	baseURL     string
	credentials string
	httpClient  *http.Client
	limiter     *rate.Limiter
	pageSize    int
	maxAttempts int
	rateWait    time.Duration
	logger      *errors.Logger

	// sleep is swapped out by tests to avoid real backoff waits.
	sleep func(ctx context.Context, d time.Duration) error
}

// NewClient creates a data source client from configuration.
func NewClient(cfg *config.ATSConfig, logger *errors.Logger) *Client {
	return &Client{
		baseURL:     cfg.BaseURL,
		credentials: base64.StdEncoding.EncodeToString([]byte(cfg.APIKey + ":")),
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		limiter:     rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), cfg.Burst),
		pageSize:    cfg.PageSize,
		maxAttempts: cfg.MaxAttempts,
		rateWait:    cfg.RateLimitWait,
		logger:      logger,
		sleep:       sleepContext,
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	select {
	case <-time.After(d):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// getJSON performs an authenticated GET and decodes the response body.
// Rate-limited responses are retried after a fixed wait, bounded by the
// configured attempt cap; permission and other HTTP failures are not retried.
func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	var lastErr error

	for attempt := 1; attempt <= c.maxAttempts; attempt++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return errors.NewRemoteError(errors.ErrCodeRemoteAPIFailed,
				"Request canceled while pacing", err).WithContext("resource", path)
		}

		retryAfterWait, err := c.doOnce(ctx, path, out)
		if err == nil {
			return nil
		}
		if !retryAfterWait {
			return err
		}

		lastErr = err
		c.logger.Warn("Data source rate limited, backing off",
			"resource", path,
			"wait_seconds", c.rateWait.Seconds(),
			"attempt", attempt,
			"max_attempts", c.maxAttempts)

		if attempt < c.maxAttempts {
			if serr := c.sleep(ctx, c.rateWait); serr != nil {
				return errors.NewRemoteError(errors.ErrCodeRemoteAPIFailed,
					"Request canceled during rate-limit backoff", serr).WithContext("resource", path)
			}
		}
	}

	return lastErr
}

// doOnce issues a single request. The bool return is true when the failure
// was a rate-limit response that the caller may retry after waiting.
func (c *Client) doOnce(ctx context.Context, path string, out any) (bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/"+path, nil)
	if err != nil {
		return false, errors.NewRemoteError(errors.ErrCodeRemoteAPIFailed,
			"Failed to build request", err).WithContext("resource", path)
	}
	req.Header.Set("Authorization", "Basic "+c.credentials)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return false, errors.NewRemoteError(errors.ErrCodeRemoteAPIFailed,
			"Request failed", err).WithContext("resource", path)
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()

	switch resp.StatusCode {
	case http.StatusOK:
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return false, errors.NewRemoteError(errors.ErrCodeRemoteAPIFailed,
				"Failed to decode response", err).WithContext("resource", path)
		}
		return false, nil
	case http.StatusTooManyRequests:
		return true, errors.NewRateLimitError(errors.ErrCodeRateLimited,
			"Rate limited by data source", nil).WithContext("resource", path)
	case http.StatusForbidden:
		return false, errors.NewPermissionError(errors.ErrCodePermissionDenied,
			fmt.Sprintf("Permission denied. Check API key permissions for: %s", path),
			nil).WithContext("resource", path)
	default:
		return false, errors.NewRemoteError(errors.ErrCodeRemoteAPIFailed,
			fmt.Sprintf("API error %d: %s", resp.StatusCode, resp.Status),
			nil).WithContext("resource", path)
	}
}

// Job fetches job details including all metadata.
func (c *Client) Job(ctx context.Context, jobID int64) (*types.Job, error) {
	var job types.Job
	if err := c.getJSON(ctx, fmt.Sprintf("jobs/%d", jobID), &job); err != nil {
		return nil, err
	}
	return &job, nil
}

// applicationsPage fetches one page of applications for a job.
func (c *Client) applicationsPage(ctx context.Context, jobID int64, page, perPage int) ([]types.Application, error) {
	var apps []types.Application
	path := fmt.Sprintf("applications?job_id=%d&per_page=%d&page=%d", jobID, perPage, page)
	if err := c.getJSON(ctx, path, &apps); err != nil {
		return nil, err
	}
	return apps, nil
}

// Applications fetches applications for a job across pages until an empty
// page, or until limit is reached (returning exactly the capped prefix).
// A failing page ends the scan with the applications gathered so far, so a
// long run still proceeds on partial data.
func (c *Client) Applications(ctx context.Context, jobID int64, limit int) ([]types.Application, error) {
	var applications []types.Application

	for page := 1; ; page++ {
		apps, err := c.applicationsPage(ctx, jobID, page, c.pageSize)
		if err != nil {
			c.logger.Warn("Error fetching applications page",
				"job_id", jobID, "page", page, "error", err.Error())
			break
		}
		if len(apps) == 0 {
			break
		}

		applications = append(applications, apps...)

		if limit > 0 && len(applications) >= limit {
			return applications[:limit], nil
		}
	}

	return applications, nil
}

// Candidate fetches candidate details. Any failure yields (nil, nil) so a
// single bad record cannot abort a batch.
func (c *Client) Candidate(ctx context.Context, candidateID int64) (*types.Candidate, error) {
	var candidate types.Candidate
	if err := c.getJSON(ctx, fmt.Sprintf("candidates/%d", candidateID), &candidate); err != nil {
		c.logger.Warn("Could not fetch candidate",
			"candidate_id", candidateID, "error", err.Error())
		return nil, nil
	}
	return &candidate, nil
}

// DownloadAttachment fetches raw attachment bytes from a pre-signed URL.
// The URL is not on the API host, so no credential or pacing is applied.
// Any failure yields (nil, nil).
func (c *Client) DownloadAttachment(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		c.logger.Warn("Attachment download failed", "url", url, "error", err.Error())
		return nil, nil
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn("Attachment download failed", "url", url, "error", err.Error())
		return nil, nil
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.logger.Warn("Attachment download failed",
			"url", url, "status", resp.StatusCode)
		return nil, nil
	}

	content, err := io.ReadAll(resp.Body)
	if err != nil {
		c.logger.Warn("Attachment download failed", "url", url, "error", err.Error())
		return nil, nil
	}

	return content, nil
}

// JobsWithApplications discovers all jobs that have at least one application,
// sorted by creation date descending. Each job is verified with a one-item
// applications probe; probe failures exclude the job rather than aborting
// the scan.
//
// Department handling is asymmetric on purpose: a job without a departments
// key defaults to "N/A", while a present-but-empty departments list skips
// the job entirely.
func (c *Client) JobsWithApplications(ctx context.Context) ([]types.JobSummary, error) {
	var summaries []types.JobSummary

	c.logger.Info("Fetching available jobs")

	for page := 1; ; page++ {
		var jobs []types.Job
		path := fmt.Sprintf("jobs?per_page=%d&page=%d", c.pageSize, page)
		if err := c.getJSON(ctx, path, &jobs); err != nil {
			c.logger.Warn("Error fetching jobs page", "page", page, "error", err.Error())
			break
		}
		if len(jobs) == 0 {
			break
		}

		for _, job := range jobs {
			apps, err := c.applicationsPage(ctx, job.ID, 1, 1)
			if err != nil || len(apps) == 0 {
				continue
			}

			department := "N/A"
			if job.Departments != nil {
				if len(*job.Departments) == 0 {
					continue
				}
				department = (*job.Departments)[0].Name
				if department == "" {
					department = "N/A"
				}
			}

			summaries = append(summaries, types.JobSummary{
				ID:               job.ID,
				Name:             job.Name,
				Status:           job.Status,
				Department:       department,
				CreatedAt:        datePart(job.CreatedAt),
				ApplicationCount: len(apps),
			})
		}
	}

	sort.SliceStable(summaries, func(i, j int) bool {
		return summaries[i].CreatedAt > summaries[j].CreatedAt
	})

	return summaries, nil
}

// datePart truncates an ISO timestamp to its date portion.
func datePart(ts string) string {
	if len(ts) > 10 {
		return ts[:10]
	}
	return ts
}
