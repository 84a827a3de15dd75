package config

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/justmike1/mentionbot/action"
)

// Provider answers setting lookups by id. The second result is false when
// the backend has no value for the key.
type Provider interface {
	Value(key string) (string, bool)
}

// Type describes how a setting's value is parsed.
type Type int

const (
	TypeString Type = iota
	TypeBool
	TypeSecret
)

// Setting declares one action setting.
type Setting struct {
	ID          string
	Env         string
	Type        Type
	Default     string
	Description string
}

// Setting ids.
const (
	IssueEnabled   = "gitlab_create_issue_enabled"
	IssueProjectID = "gitlab_project_id"
	IssueToken     = "gitlab_access_token"
	IssueURL       = "gitlab_url"
	IssueTLSVerify = "gitlab_tls_verify"
	IssueTracker   = "issue_tracker"
	IssueLabels    = "issue_labels"
	IssueAssignBot = "issue_assign_bot"

	PipelineEnabled   = "gitlab_pipeline_trigger_enabled"
	PipelineProjectID = "gitlab_pipeline_trigger_project_id"
	PipelineToken     = "gitlab_pipeline_trigger_token"
	PipelineRef       = "gitlab_pipeline_trigger_ref"
	PipelineURL       = "gitlab_pipeline_trigger_url"
	PipelineTLSVerify = "gitlab_pipeline_trigger_tls_verify"
	PipelinePrefix    = "gitlab_pipeline_variable_prefix"
	PipelineRelay     = "gitlab_pipeline_relay"

	EchoEnabled = "echo_reply_enabled"
)

// Settings is the declared schema of every action setting.
var Settings = []Setting{
	{IssueEnabled, "GITLAB_CREATE_ISSUE_ENABLED", TypeBool, "false", "Create an issue for each bot mention"},
	{IssueProjectID, "GITLAB_PROJECT_ID", TypeString, "", "Project id or path (owner/repo for GitHub)"},
	{IssueToken, "GITLAB_ACCESS_TOKEN", TypeSecret, "", "Access token with API scope"},
	{IssueURL, "GITLAB_URL", TypeString, "", "Tracker base URL, e.g. https://gitlab.example.com"},
	{IssueTLSVerify, "GITLAB_TLS_VERIFY", TypeBool, "true", "Verify the tracker's TLS certificate"},
	{IssueTracker, "ISSUE_TRACKER", TypeString, action.TrackerGitLab, "Issue backend: gitlab or github"},
	{IssueLabels, "ISSUE_LABELS", TypeString, "chat-bot,auto-generated", "Comma-separated base labels"},
	{IssueAssignBot, "ISSUE_ASSIGN_BOT", TypeBool, "true", "Assign the issue to the mentioned bot's tracker user"},

	{PipelineEnabled, "GITLAB_PIPELINE_TRIGGER", TypeBool, "false", "Trigger a pipeline for each bot mention"},
	{PipelineProjectID, "GITLAB_PIPELINE_TRIGGER_PROJECT_ID", TypeString, "", "Project id to trigger"},
	{PipelineToken, "GITLAB_PIPELINE_TRIGGER_TOKEN", TypeSecret, "", "Pipeline trigger token"},
	{PipelineRef, "GITLAB_PIPELINE_TRIGGER_REF", TypeString, "", "Branch or tag to run"},
	{PipelineURL, "GITLAB_PIPELINE_TRIGGER_URL", TypeString, "", "GitLab base URL"},
	{PipelineTLSVerify, "GITLAB_PIPELINE_TRIGGER_TLS_VERIFY", TypeBool, "true", "Verify GitLab's TLS certificate"},
	{PipelinePrefix, "GITLAB_PIPELINE_VARIABLE_PREFIX", TypeString, "CHAT_", "Prefix for pipeline variable names"},
	{PipelineRelay, "GITLAB_PIPELINE_RELAY", TypeBool, "false", "Post the pipeline URL back to the room"},

	{EchoEnabled, "ECHO_REPLY_ENABLED", TypeBool, "false", "Reply in the room when a bot is mentioned"},
}

var settingsByID = func() map[string]Setting {
	m := make(map[string]Setting, len(Settings))
	for _, s := range Settings {
		m[s.ID] = s
	}
	return m
}()

// Lookup returns the declared setting for id.
func Lookup(id string) (Setting, bool) {
	s, ok := settingsByID[id]
	return s, ok
}

// settingReader collects parse errors while reading one action's settings.
type settingReader struct {
	p    Provider
	errs []string
}

func (r *settingReader) str(id string) string {
	if v, ok := r.p.Value(id); ok {
		return strings.TrimSpace(v)
	}
	return settingsByID[id].Default
}

func (r *settingReader) boolean(id string) bool {
	raw := r.str(id)
	v, err := strconv.ParseBool(raw)
	if err != nil {
		r.errs = append(r.errs, fmt.Sprintf("%s=%q is not a boolean", id, raw))
		def, _ := strconv.ParseBool(settingsByID[id].Default)
		return def
	}
	return v
}

func (r *settingReader) err(kind action.Kind) error {
	if len(r.errs) == 0 {
		return nil
	}
	return fmt.Errorf("invalid %s settings: %s", kind, strings.Join(r.errs, "; "))
}

// Action reads the configuration of kind from p. It is called for every
// dispatch cycle so changes to the backing store apply without a restart.
func Action(p Provider, kind action.Kind) (action.Config, error) {
	r := &settingReader{p: p}
	cfg := action.Config{Kind: kind}

	switch kind {
	case action.KindCreateIssue:
		cfg.Enabled = r.boolean(IssueEnabled)
		cfg.Tracker = strings.ToLower(r.str(IssueTracker))
		cfg.BaseURL = r.str(IssueURL)
		cfg.ProjectID = r.str(IssueProjectID)
		cfg.Token = r.str(IssueToken)
		cfg.TLSVerify = r.boolean(IssueTLSVerify)
		cfg.Labels = splitList(r.str(IssueLabels))
		cfg.AssignBot = r.boolean(IssueAssignBot)
		if cfg.Tracker != action.TrackerGitLab && cfg.Tracker != action.TrackerGitHub {
			r.errs = append(r.errs, fmt.Sprintf("%s=%q must be gitlab or github", IssueTracker, cfg.Tracker))
		}
	case action.KindTriggerPipeline:
		cfg.Enabled = r.boolean(PipelineEnabled)
		cfg.BaseURL = r.str(PipelineURL)
		cfg.ProjectID = r.str(PipelineProjectID)
		cfg.Token = r.str(PipelineToken)
		cfg.Ref = r.str(PipelineRef)
		cfg.TLSVerify = r.boolean(PipelineTLSVerify)
		cfg.VariablePrefix = r.str(PipelinePrefix)
		cfg.Relay = r.boolean(PipelineRelay)
	case action.KindEchoReply:
		cfg.Enabled = r.boolean(EchoEnabled)
	default:
		return action.Config{}, fmt.Errorf("unknown action kind %q", kind)
	}

	if err := r.err(kind); err != nil {
		return action.Config{}, err
	}
	return cfg, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
