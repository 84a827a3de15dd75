package gitlab

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/oauth2"

	"github.com/justmike1/mentionbot/action"
)

// Tracker builds GitLab REST v4 requests and resolves GitLab users.
type Tracker struct {
	timeout time.Duration
	logger  *slog.Logger
}

// NewTracker creates a GitLab tracker whose user lookups are bounded by timeout.
func NewTracker(timeout time.Duration, logger *slog.Logger) *Tracker {
	return &Tracker{timeout: timeout, logger: logger.With("component", "gitlab")}
}

// Name returns the display name used in relay messages.
func (t *Tracker) Name() string {
	return "GitLab"
}

// createIssuePayload is the JSON body sent to the issues API.
type createIssuePayload struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Labels      []string `json:"labels"`
	AssigneeIDs []int64  `json:"assignee_ids,omitempty"`
}

// triggerPipelinePayload is the JSON body sent to the pipeline trigger API.
type triggerPipelinePayload struct {
	Token     string            `json:"token"`
	Ref       string            `json:"ref"`
	Variables map[string]string `json:"variables"`
}

// IssueRequest builds the create-issue call for the mentioned bot. The
// description is the message text verbatim.
func (t *Tracker) IssueRequest(v action.View, botID string, cfg action.Config, assignee action.Assignee) (action.Request, error) {
	payload := createIssuePayload{
		Title:       action.IssueTitle(v, botID),
		Description: v.Text,
		Labels:      action.IssueLabels(v, cfg.Labels),
	}
	if assignee.ID != 0 {
		payload.AssigneeIDs = []int64{assignee.ID}
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return action.Request{}, fmt.Errorf("marshal payload: %w", err)
	}

	return action.Request{
		Method: http.MethodPost,
		URL:    projectURL(cfg, "issues"),
		Header: map[string]string{
			"Content-Type":  "application/json",
			"Authorization": "Bearer " + cfg.Token,
		},
		Body: body,
	}, nil
}

// PipelineRequest builds the pipeline trigger call. Authentication is the
// trigger token in the body, so no Authorization header is sent.
func PipelineRequest(v action.View, botID string, cfg action.Config) (action.Request, error) {
	prefix := cfg.VariablePrefix
	payload := triggerPipelinePayload{
		Token: cfg.Token,
		Ref:   cfg.Ref,
		Variables: map[string]string{
			prefix + "MESSAGE":      v.Text,
			prefix + "CHANNEL_NAME": v.RoomName,
			prefix + "TOPIC":        v.RoomTopic,
			prefix + "BOT_NAME":     botID,
			prefix + "MESSAGE_ID":   v.ID,
			prefix + "SENDER":       v.SenderUsername,
		},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return action.Request{}, fmt.Errorf("marshal payload: %w", err)
	}

	return action.Request{
		Method: http.MethodPost,
		URL:    projectURL(cfg, "trigger/pipeline"),
		Header: map[string]string{"Content-Type": "application/json"},
		Body:   body,
	}, nil
}

func projectURL(cfg action.Config, path string) string {
	base := strings.TrimRight(cfg.BaseURL, "/")
	return fmt.Sprintf("%s/api/v4/projects/%s/%s", base, url.PathEscape(cfg.ProjectID), path)
}

// IssueURL extracts the issue link from a create-issue response. It never
// fails: unparseable bodies yield "unknown".
func (t *Tracker) IssueURL(body []byte, cfg action.Config) string {
	var issue struct {
		IID    int64  `json:"iid"`
		WebURL string `json:"web_url"`
	}
	if err := json.Unmarshal(body, &issue); err != nil {
		t.logger.Warn("could not parse issue response for URL", "error", err)
		return "unknown"
	}
	if issue.WebURL != "" {
		return issue.WebURL
	}
	// A web path can only be built from a namespaced project path; numeric
	// project ids have no web route.
	if issue.IID != 0 && strings.Contains(cfg.ProjectID, "/") {
		return fmt.Sprintf("%s/%s/-/issues/%d", strings.TrimRight(cfg.BaseURL, "/"), strings.Trim(cfg.ProjectID, "/"), issue.IID)
	}
	return "unknown"
}

// PipelineURL extracts the pipeline link from a trigger response, or "".
func PipelineURL(body []byte) string {
	var pipeline struct {
		WebURL string `json:"web_url"`
	}
	if err := json.Unmarshal(body, &pipeline); err != nil {
		return ""
	}
	return pipeline.WebURL
}

// user is a GitLab user as returned by the users API.
type user struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
}

// ResolveAssignee looks up username via GET /api/v4/users?username=. The
// first result wins; an empty result is action.ErrUserNotFound.
func (t *Tracker) ResolveAssignee(ctx context.Context, username string, cfg action.Config) (action.Assignee, error) {
	users, err := t.searchUsers(ctx, username, cfg)
	if err != nil {
		return action.Assignee{}, err
	}
	if len(users) == 0 {
		return action.Assignee{}, fmt.Errorf("%w: %s", action.ErrUserNotFound, username)
	}
	return action.Assignee{ID: users[0].ID, Username: users[0].Username}, nil
}

func (t *Tracker) searchUsers(ctx context.Context, username string, cfg action.Config) ([]user, error) {
	searchURL := fmt.Sprintf("%s/api/v4/users?username=%s",
		strings.TrimRight(cfg.BaseURL, "/"), url.QueryEscape(username))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, searchURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := t.httpClient(ctx, cfg).Do(req)
	if err != nil {
		return nil, fmt.Errorf("send request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("gitlab API error (HTTP %d): %s", resp.StatusCode, action.Truncate(string(respBody), 300))
	}

	var users []user
	if err := json.Unmarshal(respBody, &users); err != nil {
		return nil, fmt.Errorf("unmarshal response: %w", err)
	}
	return users, nil
}

// httpClient returns a bearer-token client on top of a transport that
// honours the action's TLS verification flag.
func (t *Tracker) httpClient(ctx context.Context, cfg action.Config) *http.Client {
	base := action.NewHTTPClient(cfg.TLSVerify, t.timeout)
	ctx = context.WithValue(ctx, oauth2.HTTPClient, base)
	client := oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{AccessToken: cfg.Token}))
	client.Timeout = base.Timeout
	return client
}
