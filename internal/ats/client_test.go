package ats

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"hirescope/internal/config"
	"hirescope/internal/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, baseURL string) *Client {
	t.Helper()
	c := NewClient(&config.ATSConfig{
		BaseURL:           baseURL,
		APIKey:            "test-key",
		PageSize:          2,
		Timeout:           5 * time.Second,
		RateLimitWait:     60 * time.Second,
		MaxAttempts:       3,
		RequestsPerSecond: 1000,
		Burst:             1000,
	}, errors.NewLogger(slog.LevelError))
	c.sleep = func(ctx context.Context, d time.Duration) error { return nil }
	return c
}

func writeJSON(t *testing.T, w http.ResponseWriter, v any) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func appPage(ids ...int64) []map[string]any {
	apps := make([]map[string]any, 0, len(ids))
	for _, id := range ids {
		apps = append(apps, map[string]any{"id": id, "candidate_id": id * 10})
	}
	return apps
}

func TestApplicationsPaginatesUntilEmptyPage(t *testing.T) {
	pages := map[string][]map[string]any{
		"1": appPage(1, 2),
		"2": appPage(3),
		"3": {},
	}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Basic dGVzdC1rZXk6", r.Header.Get("Authorization"))
		assert.Equal(t, "42", r.URL.Query().Get("job_id"))
		writeJSON(t, w, pages[r.URL.Query().Get("page")])
	}))
	defer server.Close()

	apps, err := newTestClient(t, server.URL).Applications(context.Background(), 42, 0)
	require.NoError(t, err)
	require.Len(t, apps, 3)
	assert.Equal(t, int64(1), apps[0].ID)
	assert.Equal(t, int64(3), apps[2].ID)
}

func TestApplicationsRespectsLimit(t *testing.T) {
	requests := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		page, _ := strconv.Atoi(r.URL.Query().Get("page"))
		writeJSON(t, w, appPage(int64(2*page-1), int64(2*page)))
	}))
	defer server.Close()

	apps, err := newTestClient(t, server.URL).Applications(context.Background(), 42, 3)
	require.NoError(t, err)
	require.Len(t, apps, 3)
	assert.Equal(t, int64(3), apps[2].ID)
	assert.Equal(t, 2, requests)
}

func TestApplicationsReturnsPartialOnPageError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("page") == "2" {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		writeJSON(t, w, appPage(1, 2))
	}))
	defer server.Close()

	apps, err := newTestClient(t, server.URL).Applications(context.Background(), 42, 0)
	require.NoError(t, err)
	assert.Len(t, apps, 2)
}

func TestGetJSONRetriesRateLimit(t *testing.T) {
	attempts := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts < 3 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		writeJSON(t, w, map[string]any{"id": 7, "name": "Backend Engineer"})
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	var waits []time.Duration
	client.sleep = func(ctx context.Context, d time.Duration) error {
		waits = append(waits, d)
		return nil
	}

	job, err := client.Job(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, "Backend Engineer", job.Name)
	assert.Equal(t, 3, attempts)
	assert.Equal(t, []time.Duration{60 * time.Second, 60 * time.Second}, waits)
}

func TestGetJSONRateLimitExhaustsAttempts(t *testing.T) {
	attempts := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	_, err := newTestClient(t, server.URL).Job(context.Background(), 7)
	require.Error(t, err)
	assert.Equal(t, 3, attempts)

	appErr, ok := err.(*errors.AppError)
	require.True(t, ok)
	assert.Equal(t, errors.ErrorTypeRateLimit, appErr.Type)
}

func TestGetJSONPermissionDenied(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer server.Close()

	_, err := newTestClient(t, server.URL).Job(context.Background(), 7)
	require.Error(t, err)

	appErr, ok := err.(*errors.AppError)
	require.True(t, ok)
	assert.Equal(t, errors.ErrorTypePermission, appErr.Type)
	assert.Contains(t, appErr.Message, "jobs/7")
}

func TestGetJSONServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	_, err := newTestClient(t, server.URL).Job(context.Background(), 7)
	require.Error(t, err)

	appErr, ok := err.(*errors.AppError)
	require.True(t, ok)
	assert.Equal(t, errors.ErrorTypeRemote, appErr.Type)
	assert.Contains(t, appErr.Message, "502")
}

func TestCandidateFailureYieldsNilNil(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	candidate, err := newTestClient(t, server.URL).Candidate(context.Background(), 99)
	assert.NoError(t, err)
	assert.Nil(t, candidate)
}

func TestDownloadAttachment(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.Header.Get("Authorization"))
		switch r.URL.Path {
		case "/resume.pdf":
			_, _ = w.Write([]byte("%PDF-1.4 data"))
		default:
			w.WriteHeader(http.StatusForbidden)
		}
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)

	content, err := client.DownloadAttachment(context.Background(), server.URL+"/resume.pdf")
	require.NoError(t, err)
	assert.Equal(t, []byte("%PDF-1.4 data"), content)

	content, err = client.DownloadAttachment(context.Background(), server.URL+"/expired.pdf")
	assert.NoError(t, err)
	assert.Nil(t, content)
}

func TestJobsWithApplications(t *testing.T) {
	jobsPages := map[string]string{
		"1": `[
			{"id": 1, "name": "Old Role", "status": "open", "created_at": "2023-01-15T10:00:00Z", "departments": [{"id": 5, "name": "Engineering"}]},
			{"id": 2, "name": "No Dept Key", "status": "open", "created_at": "2024-06-01T10:00:00Z"},
			{"id": 3, "name": "Empty Depts", "status": "open", "created_at": "2024-02-01T10:00:00Z", "departments": []},
			{"id": 4, "name": "No Applicants", "status": "open", "created_at": "2024-03-01T10:00:00Z", "departments": [{"id": 6, "name": "Sales"}]}
		]`,
		"2": `[]`,
	}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/jobs":
			fmt.Fprint(w, jobsPages[r.URL.Query().Get("page")])
		case "/applications":
			if r.URL.Query().Get("job_id") == "4" {
				fmt.Fprint(w, `[]`)
				return
			}
			fmt.Fprint(w, `[{"id": 100, "candidate_id": 200}]`)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	summaries, err := newTestClient(t, server.URL).JobsWithApplications(context.Background())
	require.NoError(t, err)
	require.Len(t, summaries, 2)

	// Newest first; empty departments list and zero-application jobs excluded.
	assert.Equal(t, int64(2), summaries[0].ID)
	assert.Equal(t, "N/A", summaries[0].Department)
	assert.Equal(t, "2024-06-01", summaries[0].CreatedAt)
	assert.Equal(t, int64(1), summaries[1].ID)
	assert.Equal(t, "Engineering", summaries[1].Department)
	assert.Equal(t, 1, summaries[1].ApplicationCount)
}
