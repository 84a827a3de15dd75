package github

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	gh "github.com/google/go-github/v60/github"
	"golang.org/x/oauth2"

	"github.com/justmike1/mentionbot/action"
)

// Tracker files issues through the GitHub REST API. Requests are built with
// go-github so the wire format matches the SDK, then sent by action.Client.
type Tracker struct {
	timeout time.Duration
	logger  *slog.Logger
}

// NewTracker creates a GitHub tracker whose user lookups are bounded by timeout.
func NewTracker(timeout time.Duration, logger *slog.Logger) *Tracker {
	return &Tracker{timeout: timeout, logger: logger.With("component", "github")}
}

// Name returns the display name used in relay messages.
func (t *Tracker) Name() string {
	return "GitHub"
}

// newAPI returns a go-github client for cfg's endpoint. An empty base URL
// means github.com; anything else is treated as GitHub Enterprise.
func newAPI(httpClient *http.Client, cfg action.Config) (*gh.Client, error) {
	api := gh.NewClient(httpClient)
	if cfg.BaseURL == "" {
		return api, nil
	}
	base := strings.TrimRight(cfg.BaseURL, "/") + "/"
	enterprise, err := api.WithEnterpriseURLs(base, base)
	if err != nil {
		return nil, fmt.Errorf("invalid GitHub base URL %s: %w", cfg.BaseURL, err)
	}
	return enterprise, nil
}

func splitRepo(project string) (owner, repo string, err error) {
	parts := strings.Split(strings.Trim(project, "/"), "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("GitHub project must be owner/repo, got %q", project)
	}
	return parts[0], parts[1], nil
}

// IssueRequest builds the create-issue call for the mentioned bot.
func (t *Tracker) IssueRequest(v action.View, botID string, cfg action.Config, assignee action.Assignee) (action.Request, error) {
	owner, repo, err := splitRepo(cfg.ProjectID)
	if err != nil {
		return action.Request{}, err
	}
	api, err := newAPI(nil, cfg)
	if err != nil {
		return action.Request{}, err
	}

	labels := action.IssueLabels(v, cfg.Labels)
	issue := &gh.IssueRequest{
		Title:  gh.String(action.IssueTitle(v, botID)),
		Body:   gh.String(v.Text),
		Labels: &labels,
	}
	if assignee.Username != "" {
		issue.Assignees = &[]string{assignee.Username}
	}

	req, err := api.NewRequest(http.MethodPost, fmt.Sprintf("repos/%s/%s/issues", owner, repo), issue)
	if err != nil {
		return action.Request{}, fmt.Errorf("build issue request: %w", err)
	}

	var body []byte
	if req.Body != nil {
		body, err = io.ReadAll(req.Body)
		if err != nil {
			return action.Request{}, fmt.Errorf("read issue request body: %w", err)
		}
	}

	header := make(map[string]string, len(req.Header)+1)
	for k := range req.Header {
		header[k] = req.Header.Get(k)
	}
	header["Authorization"] = "Bearer " + cfg.Token

	return action.Request{
		Method: req.Method,
		URL:    req.URL.String(),
		Header: header,
		Body:   body,
	}, nil
}

// IssueURL extracts html_url from a create-issue response, or "unknown".
func (t *Tracker) IssueURL(body []byte, _ action.Config) string {
	var issue gh.Issue
	if err := json.Unmarshal(body, &issue); err != nil {
		t.logger.Warn("could not parse issue response for URL", "error", err)
		return "unknown"
	}
	if u := issue.GetHTMLURL(); u != "" {
		return u
	}
	return "unknown"
}

// ResolveAssignee checks that username is a GitHub login. A 404 is
// action.ErrUserNotFound.
func (t *Tracker) ResolveAssignee(ctx context.Context, username string, cfg action.Config) (action.Assignee, error) {
	base := action.NewHTTPClient(cfg.TLSVerify, t.timeout)
	httpClient := oauth2.NewClient(
		context.WithValue(ctx, oauth2.HTTPClient, base),
		oauth2.StaticTokenSource(&oauth2.Token{AccessToken: cfg.Token}),
	)
	httpClient.Timeout = base.Timeout

	api, err := newAPI(httpClient, cfg)
	if err != nil {
		return action.Assignee{}, err
	}

	user, _, err := api.Users.Get(ctx, username)
	if err != nil {
		var errResp *gh.ErrorResponse
		if errors.As(err, &errResp) && errResp.Response != nil && errResp.Response.StatusCode == http.StatusNotFound {
			return action.Assignee{}, fmt.Errorf("%w: %s", action.ErrUserNotFound, username)
		}
		return action.Assignee{}, fmt.Errorf("failed to get user %s: %w", username, err)
	}
	return action.Assignee{ID: user.GetID(), Username: user.GetLogin()}, nil
}
