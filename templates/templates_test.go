package templates

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDefault_Render(t *testing.T) {
	s := Default()

	got, err := s.Render(EchoReply, Data{Text: "@ai_qwen hi", MessageID: "unknown"})
	if err != nil {
		t.Fatal(err)
	}
	if got != `🤖 Bot mentioned! Received message: "@ai_qwen hi" with ID: unknown` {
		t.Errorf("echo = %q", got)
	}

	got, err = s.Render(IssueCreated, Data{Tracker: "GitLab", URL: "https://g/1"})
	if err != nil {
		t.Fatal(err)
	}
	if got != "🎫 GitLab issue created: https://g/1" {
		t.Errorf("issue = %q", got)
	}

	if _, err := s.Render("nope", Data{}); err == nil {
		t.Error("expected error for unknown key")
	}
}

func TestDefault_NoHTMLEscaping(t *testing.T) {
	got, err := Default().Render(EchoReply, Data{Text: `<a href="x">&</a>`})
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(got, `<a href="x">&</a>`) {
		t.Errorf("text was escaped: %q", got)
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "templates.yaml")
	content := "issue_created: \"Filed {{.URL}} in #{{.ChannelName}}\"\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}

	s, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	got, _ := s.Render(IssueCreated, Data{URL: "u", ChannelName: "ops"})
	if got != "Filed u in #ops" {
		t.Errorf("override = %q", got)
	}
	if got, _ := s.Render(PipelineTriggered, Data{BotID: "ai_qwen", URL: "p"}); !strings.HasSuffix(got, "ai_qwen: p") {
		t.Errorf("built-in should remain: %q", got)
	}
}

func TestLoad_Errors(t *testing.T) {
	dir := t.TempDir()
	write := func(name, content string) string {
		p := filepath.Join(dir, name)
		if err := os.WriteFile(p, []byte(content), 0o600); err != nil {
			t.Fatal(err)
		}
		return p
	}

	tests := map[string]string{
		"unknown key":  write("unknown.yaml", "welcome: hi\n"),
		"bad template": write("bad.yaml", "echo_reply: \"{{.Text\"\n"),
		"bad field":    write("field.yaml", "echo_reply: \"{{.Nope}}\"\n"),
		"missing file": filepath.Join(dir, "absent.yaml"),
	}
	for name, path := range tests {
		t.Run(name, func(t *testing.T) {
			s, err := Load(path)
			if err == nil {
				if _, rerr := s.Render(EchoReply, Data{}); rerr == nil {
					t.Error("expected an error from Load or Render")
				}
			}
		})
	}
}

func TestLoad_EmptyPath(t *testing.T) {
	s, err := Load("")
	if err != nil || s == nil {
		t.Fatalf("Load(\"\") = %v, %v", s, err)
	}
}
