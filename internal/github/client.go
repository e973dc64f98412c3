package github

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/Nikonell/krakker-backend/internal/models"
)

const (
	// DefaultBaseURL is the GitHub REST API endpoint
	DefaultBaseURL = "https://api.github.com"

	apiVersion = "2022-11-28"
	userAgent  = "krakker-issue-sync"
	perPage    = 100
)

// ErrNotFound is returned when the repository does not exist or the token
// cannot see it.
var ErrNotFound = errors.New("repository not found")

// APIError is a non-2xx response other than 404. It covers auth failures,
// rate limits, and server errors, all of which are retried on the next pass.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("github API HTTP %d: %s", e.StatusCode, e.Message)
}

// Client lists repository issues through the GitHub REST API
type Client struct {
	token      string
	httpClient *http.Client
	baseURL    string
}

// NewClient creates a new GitHub API client. An empty token sends
// unauthenticated requests, which only see public repositories.
func NewClient(baseURL, token string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		token: token,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

// issue is the subset of the REST issue payload we read
type issue struct {
	Number      int64           `json:"number"`
	Title       string          `json:"title"`
	Body        *string         `json:"body"`
	State       string          `json:"state"`
	HTMLURL     string          `json:"html_url"`
	PullRequest json.RawMessage `json:"pull_request,omitempty"`
}

// ListIssues returns every open and closed issue of owner/repo (with
// pagination), in the order GitHub reports them. Pull requests are skipped.
func (c *Client) ListIssues(ctx context.Context, owner, repo string) ([]models.Issue, error) {
	allIssues := make([]models.Issue, 0)

	// Pagination loop
	for page := 1; ; page++ {
		var batch []issue
		if err := c.get(ctx, c.issuesURL(owner, repo, page), &batch); err != nil {
			return nil, fmt.Errorf("list issues %s/%s: %w", owner, repo, err)
		}

		for _, it := range batch {
			if len(it.PullRequest) > 0 && string(it.PullRequest) != "null" {
				continue
			}
			allIssues = append(allIssues, it.toModel())
		}

		// Check if more pages exist
		if len(batch) < perPage {
			break
		}
	}

	return allIssues, nil
}

func (c *Client) issuesURL(owner, repo string, page int) string {
	q := url.Values{}
	q.Set("state", "all")
	q.Set("per_page", strconv.Itoa(perPage))
	q.Set("page", strconv.Itoa(page))
	return fmt.Sprintf("%s/repos/%s/%s/issues?%s",
		c.baseURL, url.PathEscape(owner), url.PathEscape(repo), q.Encode())
}

// get executes a GET request and unmarshals the JSON response into result
func (c *Client) get(ctx context.Context, endpoint string, result any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Accept", "application/vnd.github+json")
	req.Header.Set("X-GitHub-Api-Version", apiVersion)
	req.Header.Set("User-Agent", userAgent)
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return ErrNotFound
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return &APIError{StatusCode: resp.StatusCode, Message: errorMessage(body)}
	}

	if err := json.Unmarshal(body, result); err != nil {
		return fmt.Errorf("unmarshal response: %w", err)
	}
	return nil
}

func (it issue) toModel() models.Issue {
	body := ""
	if it.Body != nil {
		body = *it.Body
	}
	return models.Issue{
		Number: it.Number,
		Title:  it.Title,
		Body:   body,
		State:  models.IssueState(it.State),
		URL:    it.HTMLURL,
	}
}

// errorMessage pulls the message field out of a GitHub error body, falling
// back to the raw body.
func errorMessage(body []byte) string {
	var payload struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &payload); err == nil && payload.Message != "" {
		return payload.Message
	}
	return strings.TrimSpace(string(body))
}
