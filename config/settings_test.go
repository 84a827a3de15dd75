package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/justmike1/mentionbot/action"
)

func TestSettingsTable(t *testing.T) {
	seen := map[string]bool{}
	for _, s := range Settings {
		if seen[s.ID] {
			t.Errorf("duplicate setting %s", s.ID)
		}
		seen[s.ID] = true
		if s.Env == "" {
			t.Errorf("%s has no env name", s.ID)
		}
		if s.Type == TypeBool && s.Default != "true" && s.Default != "false" {
			t.Errorf("%s default %q is not a boolean", s.ID, s.Default)
		}
	}
}

func TestAction_Defaults(t *testing.T) {
	cfg, err := Action(MapProvider{}, action.KindCreateIssue)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Enabled {
		t.Error("issue creation should be off by default")
	}
	if !cfg.TLSVerify || !cfg.AssignBot || cfg.Tracker != action.TrackerGitLab {
		t.Errorf("unexpected defaults: %+v", cfg)
	}
	if strings.Join(cfg.Labels, ",") != "chat-bot,auto-generated" {
		t.Errorf("Labels = %v", cfg.Labels)
	}

	pipe, err := Action(MapProvider{}, action.KindTriggerPipeline)
	if err != nil {
		t.Fatal(err)
	}
	if pipe.Enabled || pipe.Relay || pipe.VariablePrefix != "CHAT_" || !pipe.TLSVerify {
		t.Errorf("unexpected pipeline defaults: %+v", pipe)
	}

	echo, err := Action(MapProvider{}, action.KindEchoReply)
	if err != nil || echo.Enabled {
		t.Errorf("echo defaults = %+v, %v", echo, err)
	}
}

func TestAction_Values(t *testing.T) {
	p := MapProvider{
		IssueEnabled:   "true",
		IssueProjectID: " 42 ",
		IssueToken:     "tok",
		IssueURL:       "https://gitlab.example.com",
		IssueTLSVerify: "false",
		IssueLabels:    "a, ,b",
		IssueTracker:   "GitHub",
	}
	cfg, err := Action(p, action.KindCreateIssue)
	if err != nil {
		t.Fatal(err)
	}
	if !cfg.Enabled || cfg.TLSVerify || cfg.ProjectID != "42" || cfg.Tracker != action.TrackerGitHub {
		t.Errorf("cfg = %+v", cfg)
	}
	if strings.Join(cfg.Labels, "|") != "a|b" {
		t.Errorf("Labels = %v", cfg.Labels)
	}
}

func TestAction_InvalidValues(t *testing.T) {
	if _, err := Action(MapProvider{IssueEnabled: "yes please"}, action.KindCreateIssue); err == nil {
		t.Error("expected error for unparseable boolean")
	}
	if _, err := Action(MapProvider{IssueTracker: "jira"}, action.KindCreateIssue); err == nil {
		t.Error("expected error for unknown tracker")
	}
	if _, err := Action(MapProvider{}, action.Kind("nope")); err == nil {
		t.Error("expected error for unknown kind")
	}
}

func TestEnvProvider(t *testing.T) {
	t.Setenv("GITLAB_URL", "https://env.example.com")
	t.Setenv("GITLAB_PIPELINE_TRIGGER", "true")
	t.Setenv("GITLAB_PROJECT_ID", "")

	p, err := NewEnvProvider("")
	if err != nil {
		t.Fatal(err)
	}
	if v, ok := p.Value(IssueURL); !ok || v != "https://env.example.com" {
		t.Errorf("Value(gitlab_url) = %q, %v", v, ok)
	}
	if v, ok := p.Value(PipelineEnabled); !ok || v != "true" {
		t.Errorf("legacy env name not honoured: %q, %v", v, ok)
	}
	if _, ok := p.Value(IssueProjectID); ok {
		t.Error("empty variable should count as unset")
	}
	if _, ok := p.Value("not_a_setting"); ok {
		t.Error("unknown id should report false")
	}
}

func TestEnvProvider_Dotenv(t *testing.T) {
	t.Setenv("GITLAB_URL", "https://process.example.com")
	t.Setenv("ECHO_REPLY_ENABLED", "")
	_ = os.Unsetenv("ECHO_REPLY_ENABLED")

	path := writeFile(t, ".env", "ECHO_REPLY_ENABLED=true\nGITLAB_URL=https://file.example.com\n")
	p, err := NewEnvProvider(path)
	if err != nil {
		t.Fatal(err)
	}
	if v, _ := p.Value(EchoEnabled); v != "true" {
		t.Errorf("dotenv value not loaded: %q", v)
	}
	if v, _ := p.Value(IssueURL); v != "https://process.example.com" {
		t.Errorf("process env should win over dotenv, got %q", v)
	}

	if _, err := NewEnvProvider(filepath.Join(t.TempDir(), "absent.env")); err != nil {
		t.Errorf("missing dotenv file should be ignored: %v", err)
	}
}

func TestStoreProvider(t *testing.T) {
	path := writeFile(t, "settings.yaml", `
gitlab_create_issue_enabled: true
gitlab_project_id: 42
gitlab_url: https://gitlab.example.com
issue_labels: [triage, bot]
`)
	p, err := NewStoreProvider(path, testLogger())
	if err != nil {
		t.Fatalf("NewStoreProvider: %v", err)
	}

	cfg, err := Action(p, action.KindCreateIssue)
	if err != nil {
		t.Fatal(err)
	}
	if !cfg.Enabled || cfg.ProjectID != "42" || cfg.BaseURL != "https://gitlab.example.com" {
		t.Errorf("cfg = %+v", cfg)
	}
	if strings.Join(cfg.Labels, ",") != "triage,bot" {
		t.Errorf("Labels = %v", cfg.Labels)
	}
	if _, ok := p.Value(IssueToken); ok {
		t.Error("absent key should report false")
	}

	if err := os.WriteFile(path, []byte("gitlab_create_issue_enabled: false\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	if err := p.Reload(); err != nil {
		t.Fatal(err)
	}
	cfg, _ = Action(p, action.KindCreateIssue)
	if cfg.Enabled {
		t.Error("reload should pick up the new value")
	}

	if err := os.WriteFile(path, []byte("gitlab_url: [unclosed"), 0o600); err != nil {
		t.Fatal(err)
	}
	if err := p.Reload(); err == nil {
		t.Error("expected reload error")
	}
	if v, ok := p.Value(IssueEnabled); !ok || v != "false" {
		t.Errorf("failed reload should keep previous values, got %q, %v", v, ok)
	}
}

func TestStoreProvider_MissingFile(t *testing.T) {
	if _, err := NewStoreProvider(filepath.Join(t.TempDir(), "nope.yaml"), testLogger()); err == nil {
		t.Error("expected error for missing settings file")
	}
}
