package cmd

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"testing"

	"github.com/justmike1/mentionbot/config"
)

func runDispatch(t *testing.T, args ...string) string {
	t.Helper()
	t.Setenv("MENTIONBOT_LOG__LEVEL", "error")
	t.Setenv("GITLAB_CREATE_ISSUE_ENABLED", "")
	t.Setenv("GITLAB_PIPELINE_TRIGGER", "")

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(io.Discard)
	rootCmd.SetArgs(append([]string{"dispatch", "--config", filepath.Join(t.TempDir(), "none.yaml")}, args...))
	if err := rootCmd.Execute(); err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	return out.String()
}

func TestDispatchCommand_EchoReply(t *testing.T) {
	t.Setenv("ECHO_REPLY_ENABLED", "true")

	out := runDispatch(t, "--text", "@ai_qwen ping", "--message-id", "42", "--room", "C9")

	if !strings.Contains(out, `[C9] 🤖 Bot mentioned! Received message: "@ai_qwen ping" with ID: 42`) {
		t.Errorf("reply not printed:\n%s", out)
	}
	if !strings.Contains(out, "ai_qwen mentioned") || !strings.Contains(out, "create_issue     skipped") {
		t.Errorf("summary missing:\n%s", out)
	}
}

func TestDispatchCommand_NoMention(t *testing.T) {
	t.Setenv("ECHO_REPLY_ENABLED", "true")

	out := runDispatch(t, "--text", "write to ai_qwen@example.com")
	if strings.TrimSpace(out) != "no bot mentioned" {
		t.Errorf("output = %q", out)
	}
}

func TestConsoleHost(t *testing.T) {
	var buf bytes.Buffer
	h := &consoleHost{out: &buf}
	if id, err := h.BotUserID(context.Background()); err != nil || id == "" {
		t.Errorf("BotUserID = %q, %v", id, err)
	}
	if err := h.PostMessage(context.Background(), "C1", "hi"); err != nil {
		t.Fatal(err)
	}
	if buf.String() != "[C1] hi\n" {
		t.Errorf("printed %q", buf.String())
	}
}

func TestNewLogger(t *testing.T) {
	for _, lc := range []config.LogConfig{
		{Level: "info", Format: "text"},
		{Level: "debug", Format: "json"},
		{Level: "warn", Format: ""},
	} {
		if _, err := newLogger(lc); err != nil {
			t.Errorf("newLogger(%+v): %v", lc, err)
		}
	}
	if _, err := newLogger(config.LogConfig{Level: "info", Format: "xml"}); err == nil {
		t.Error("expected error for unknown format")
	}
	if _, err := newLogger(config.LogConfig{Level: "loud"}); err == nil {
		t.Error("expected error for unknown level")
	}
}

func TestSettingsProvider_Store(t *testing.T) {
	cfg := config.Default()
	cfg.Settings.Backend = config.BackendStore
	cfg.Settings.File = filepath.Join(t.TempDir(), "absent.yaml")
	if _, _, err := settingsProvider(cfg, testLogger()); err == nil {
		t.Error("expected error for missing settings file")
	}
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
