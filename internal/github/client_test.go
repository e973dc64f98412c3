package github

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Nikonell/krakker-backend/internal/models"
)

func TestListIssues_Paginates(t *testing.T) {
	var requests atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		assert.Equal(t, "/repos/acme/widgets/issues", r.URL.Path)
		assert.Equal(t, "all", r.URL.Query().Get("state"))
		assert.Equal(t, "100", r.URL.Query().Get("per_page"))

		page, _ := strconv.Atoi(r.URL.Query().Get("page"))
		var batch []map[string]any
		switch page {
		case 1:
			for i := 1; i <= perPage; i++ {
				item := map[string]any{"number": i, "title": fmt.Sprintf("issue %d", i), "state": "open"}
				if i%10 == 0 {
					item["pull_request"] = map[string]any{"url": "https://example.invalid/pr"}
				}
				batch = append(batch, item)
			}
		case 2:
			batch = append(batch, map[string]any{"number": 101, "title": "last", "state": "closed", "body": nil})
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(batch)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "", time.Second)
	issues, err := c.ListIssues(context.Background(), "acme", "widgets")
	require.NoError(t, err)

	assert.Equal(t, int32(2), requests.Load())
	require.Len(t, issues, 91)
	assert.Equal(t, int64(1), issues[0].Number)
	assert.Equal(t, models.IssueStateOpen, issues[0].State)

	last := issues[len(issues)-1]
	assert.Equal(t, int64(101), last.Number)
	assert.Equal(t, models.IssueStateClosed, last.State)
	assert.Empty(t, last.Body)
}

func TestListIssues_SingleShortPage(t *testing.T) {
	var requests atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		w.Write([]byte(`[
			{"number": 42, "title": "Ship it", "body": "now", "state": "closed", "html_url": "https://github.com/acme/widgets/issues/42"},
			{"number": 7, "title": "Add blue widgets", "state": "open", "pull_request": null}
		]`))
	}))
	defer srv.Close()

	issues, err := NewClient(srv.URL, "", time.Second).ListIssues(context.Background(), "acme", "widgets")
	require.NoError(t, err)

	assert.Equal(t, int32(1), requests.Load())
	assert.Equal(t, []models.Issue{
		{Number: 42, Title: "Ship it", Body: "now", State: models.IssueStateClosed, URL: "https://github.com/acme/widgets/issues/42"},
		{Number: 7, Title: "Add blue widgets", State: models.IssueStateOpen},
	}, issues)
}

func TestListIssues_Headers(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer secret-token", r.Header.Get("Authorization"))
		assert.Equal(t, "application/vnd.github+json", r.Header.Get("Accept"))
		assert.Equal(t, apiVersion, r.Header.Get("X-GitHub-Api-Version"))
		assert.NotEmpty(t, r.Header.Get("User-Agent"))
		w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	issues, err := NewClient(srv.URL+"/", "secret-token", time.Second).ListIssues(context.Background(), "acme", "widgets")
	require.NoError(t, err)
	assert.Empty(t, issues)
}

func TestListIssues_NoTokenSendsNoAuthorization(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.Header.Get("Authorization"))
		w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL, "", time.Second).ListIssues(context.Background(), "acme", "widgets")
	require.NoError(t, err)
}

func TestListIssues_Errors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantErr func(t *testing.T, err error)
	}{
		{
			name:   "not found",
			status: http.StatusNotFound,
			body:   `{"message": "Not Found"}`,
			wantErr: func(t *testing.T, err error) {
				assert.ErrorIs(t, err, ErrNotFound)
			},
		},
		{
			name:   "rate limited",
			status: http.StatusForbidden,
			body:   `{"message": "API rate limit exceeded"}`,
			wantErr: func(t *testing.T, err error) {
				var apiErr *APIError
				require.True(t, errors.As(err, &apiErr))
				assert.Equal(t, http.StatusForbidden, apiErr.StatusCode)
				assert.Equal(t, "API rate limit exceeded", apiErr.Message)
			},
		},
		{
			name:   "server error with plain body",
			status: http.StatusBadGateway,
			body:   "bad gateway\n",
			wantErr: func(t *testing.T, err error) {
				var apiErr *APIError
				require.True(t, errors.As(err, &apiErr))
				assert.Equal(t, "bad gateway", apiErr.Message)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			issues, err := NewClient(srv.URL, "", time.Second).ListIssues(context.Background(), "acme", "widgets")
			require.Error(t, err)
			assert.Nil(t, issues)
			assert.Contains(t, err.Error(), "acme/widgets")
			tt.wantErr(t, err)
		})
	}
}

func TestListIssues_MalformedJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"not": "an array"}`))
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL, "", time.Second).ListIssues(context.Background(), "acme", "widgets")
	assert.ErrorContains(t, err, "unmarshal response")
}

func TestNewClient_Defaults(t *testing.T) {
	c := NewClient("", "", 0)
	assert.Equal(t, DefaultBaseURL, c.baseURL)
	assert.Equal(t, 30*time.Second, c.httpClient.Timeout)
}
