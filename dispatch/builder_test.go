package dispatch

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/justmike1/mentionbot/action"
	"github.com/justmike1/mentionbot/gitlab"
	"github.com/justmike1/mentionbot/mention"
	"github.com/justmike1/mentionbot/templates"
)

func newBuilder() *Builder {
	return NewBuilder(map[string]IssueTracker{
		action.TrackerGitLab: gitlab.NewTracker(time.Second, testLogger()),
	}, templates.Default(), testLogger())
}

var qwen = mention.Mention{Raw: "AI_QWEN", BotID: "ai_qwen"}

func TestBuild_Disabled(t *testing.T) {
	for _, kind := range action.Kinds {
		if _, ok := newBuilder().Build(action.NewView(action.Message{}), qwen, action.Config{Kind: kind}, action.Assignee{}); ok {
			t.Errorf("%s: disabled config produced a plan", kind)
		}
	}
}

func TestBuild_Incomplete(t *testing.T) {
	cfg := action.Config{Kind: action.KindTriggerPipeline, Enabled: true, BaseURL: "https://g", ProjectID: "1", Token: "t"}
	if _, ok := newBuilder().Build(action.NewView(action.Message{}), qwen, cfg, action.Assignee{}); ok {
		t.Error("pipeline without ref should be skipped")
	}
}

func TestBuild_UnregisteredTracker(t *testing.T) {
	cfg := action.Config{Kind: action.KindCreateIssue, Enabled: true, Tracker: action.TrackerGitHub, ProjectID: "a/b", Token: "t"}
	if _, ok := newBuilder().Build(action.NewView(action.Message{}), qwen, cfg, action.Assignee{}); ok {
		t.Error("expected no plan without a GitHub tracker")
	}
}

func TestBuild_IssueUsesCanonicalBotID(t *testing.T) {
	cfg := action.Config{Kind: action.KindCreateIssue, Enabled: true, BaseURL: "https://g", ProjectID: "1", Token: "t"}
	v := action.NewView(action.Message{Text: "@AI_QWEN help", RoomName: "ops"})

	a, ok := newBuilder().Build(v, qwen, cfg, action.Assignee{})
	if !ok || a.Request == nil || a.Tracker == nil {
		t.Fatalf("plan = %+v, %v", a, ok)
	}
	if !bytes.Contains(a.Request.Body, []byte("Bot Message from ops: ai_qwen")) {
		t.Errorf("body = %s", a.Request.Body)
	}

	b, _ := newBuilder().Build(v, qwen, cfg, action.Assignee{})
	if !bytes.Equal(a.Request.Body, b.Request.Body) || a.Request.URL != b.Request.URL {
		t.Error("identical inputs produced different requests")
	}
}

func TestBuild_EchoReply(t *testing.T) {
	v := action.NewView(action.Message{ID: "abc", Text: "@ai_qwen ping"})
	p, ok := newBuilder().Build(v, qwen, action.Config{Kind: action.KindEchoReply, Enabled: true}, action.Assignee{})
	if !ok || p.Request != nil {
		t.Fatalf("plan = %+v, %v", p, ok)
	}
	if p.Reply != `🤖 Bot mentioned! Received message: "@ai_qwen ping" with ID: abc` {
		t.Errorf("Reply = %q", p.Reply)
	}
}

type failingRenderer struct{}

func (failingRenderer) Render(string, templates.Data) (string, error) {
	return "", errors.New("broken")
}

func TestRelay_RenderFailure(t *testing.T) {
	host := &fakeHost{}
	r := NewRelay(host, failingRenderer{}, testLogger())
	out := Outcome{Kind: action.KindCreateIssue, URL: "https://g/1", Tracker: "GitLab"}
	if r.Relay(context.Background(), out, action.NewView(action.Message{RoomID: "C1"}), "ai_qwen") {
		t.Error("Relay should report false when rendering fails")
	}
	if len(host.posts) != 0 {
		t.Errorf("posts = %v", host.posts)
	}
}

func TestRelay_NothingToSay(t *testing.T) {
	host := &fakeHost{}
	r := NewRelay(host, templates.Default(), testLogger())
	for _, out := range []Outcome{
		{Kind: action.KindCreateIssue},
		{Kind: action.KindCreateIssue, URL: "unknown"},
		{Kind: action.KindEchoReply},
	} {
		if r.Relay(context.Background(), out, action.NewView(action.Message{RoomID: "C1"}), "ai_qwen") {
			t.Errorf("unexpected relay for %+v", out)
		}
	}
}
