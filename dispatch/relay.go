package dispatch

import (
	"context"
	"log/slog"

	"github.com/justmike1/mentionbot/action"
	"github.com/justmike1/mentionbot/templates"
)

// unknownURL is what issue URL extraction yields when the response had none.
const unknownURL = "unknown"

// Outcome is the result of one action in a dispatch cycle.
type Outcome struct {
	Kind    action.Kind
	Planned bool          // a plan was built and executed
	Result  action.Result // zero for reply-only actions
	Reply   string        // text to post for reply-only actions
	Tracker string        // display name of the issue backend
	URL     string        // artifact link extracted from the response
	Relayed bool
	Err     error
}

// Relay posts follow-up messages into the originating room.
type Relay struct {
	host      Host
	templates Renderer
	logger    *slog.Logger
}

// NewRelay creates a relay that posts through host.
func NewRelay(host Host, tmpl Renderer, logger *slog.Logger) *Relay {
	return &Relay{host: host, templates: tmpl, logger: logger.With("component", "relay")}
}

// Relay posts the message for out, if it has one. Failures are logged and
// never returned; it reports whether a message was posted.
func (r *Relay) Relay(ctx context.Context, out Outcome, v action.View, botID string) bool {
	if v.RoomID == "" {
		return false
	}

	text := out.Reply
	if text == "" {
		key, ok := relayTemplate(out)
		if !ok {
			return false
		}
		data := templateData(v, botID)
		data.Tracker = out.Tracker
		data.URL = out.URL
		rendered, err := r.templates.Render(key, data)
		if err != nil {
			r.logger.Error("failed to render relay message", "kind", out.Kind, "error", err)
			return false
		}
		text = rendered
	}

	if err := r.host.PostMessage(ctx, v.RoomID, text); err != nil {
		r.logger.Error("failed to post relay message", "kind", out.Kind, "room", v.RoomID, "error", err)
		return false
	}
	return true
}

func relayTemplate(out Outcome) (string, bool) {
	if out.URL == "" || out.URL == unknownURL {
		return "", false
	}
	switch out.Kind {
	case action.KindCreateIssue:
		return templates.IssueCreated, true
	case action.KindTriggerPipeline:
		return templates.PipelineTriggered, true
	}
	return "", false
}
