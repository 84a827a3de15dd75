package dispatch

import (
	"context"

	"github.com/justmike1/mentionbot/action"
	"github.com/justmike1/mentionbot/templates"
)

// Host is the chat platform the dispatcher serves.
type Host interface {
	// BotUserID returns the user id the bot posts as.
	BotUserID(ctx context.Context) (string, error)
	PostMessage(ctx context.Context, roomID, text string) error
}

// Sender performs outbound calls. action.Client implements it.
type Sender interface {
	Send(ctx context.Context, req action.Request, tlsVerify bool) action.Result
}

// IssueTracker builds create-issue calls for one tracker backend.
type IssueTracker interface {
	Name() string
	IssueRequest(v action.View, botID string, cfg action.Config, assignee action.Assignee) (action.Request, error)
	IssueURL(body []byte, cfg action.Config) string
	ResolveAssignee(ctx context.Context, username string, cfg action.Config) (action.Assignee, error)
}

// Renderer renders reply templates. templates.Set implements it.
type Renderer interface {
	Render(key string, d templates.Data) (string, error)
}
