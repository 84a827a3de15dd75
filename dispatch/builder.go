package dispatch

import (
	"log/slog"
	"strings"

	"github.com/justmike1/mentionbot/action"
	"github.com/justmike1/mentionbot/gitlab"
	"github.com/justmike1/mentionbot/mention"
	"github.com/justmike1/mentionbot/templates"
)

// Plan is what one action will do: send Request, or post Reply.
type Plan struct {
	Kind    action.Kind
	Request *action.Request
	Reply   string
	Tracker IssueTracker
}

// Builder turns a message view and an action configuration into a Plan.
// It performs no I/O.
type Builder struct {
	trackers  map[string]IssueTracker
	templates Renderer
	logger    *slog.Logger
}

// NewBuilder creates a builder. trackers is keyed by action.TrackerGitLab /
// action.TrackerGitHub.
func NewBuilder(trackers map[string]IssueTracker, tmpl Renderer, logger *slog.Logger) *Builder {
	return &Builder{trackers: trackers, templates: tmpl, logger: logger.With("component", "builder")}
}

// Tracker returns the issue backend selected by cfg.
func (b *Builder) Tracker(cfg action.Config) (IssueTracker, bool) {
	name := cfg.Tracker
	if name == "" {
		name = action.TrackerGitLab
	}
	t, ok := b.trackers[name]
	return t, ok
}

// Build returns the plan for cfg, or false when the action is disabled or
// its configuration is incomplete.
func (b *Builder) Build(v action.View, m mention.Mention, cfg action.Config, assignee action.Assignee) (Plan, bool) {
	log := b.logger.With("kind", cfg.Kind)

	if !cfg.Enabled {
		log.Debug("action disabled")
		return Plan{}, false
	}
	if missing := cfg.Missing(); len(missing) > 0 {
		log.Warn("action configuration incomplete, skipping", "missing", strings.Join(missing, ", "))
		return Plan{}, false
	}

	plan := Plan{Kind: cfg.Kind}
	switch cfg.Kind {
	case action.KindCreateIssue:
		tracker, ok := b.Tracker(cfg)
		if !ok {
			log.Warn("no issue tracker configured", "tracker", cfg.Tracker)
			return Plan{}, false
		}
		req, err := tracker.IssueRequest(v, m.BotID, cfg, assignee)
		if err != nil {
			log.Warn("could not build issue request", "error", err)
			return Plan{}, false
		}
		plan.Request = &req
		plan.Tracker = tracker

	case action.KindTriggerPipeline:
		req, err := gitlab.PipelineRequest(v, m.BotID, cfg)
		if err != nil {
			log.Warn("could not build pipeline request", "error", err)
			return Plan{}, false
		}
		plan.Request = &req

	case action.KindEchoReply:
		reply, err := b.templates.Render(templates.EchoReply, templateData(v, m.BotID))
		if err != nil {
			log.Warn("could not render echo reply", "error", err)
			return Plan{}, false
		}
		plan.Reply = reply

	default:
		log.Warn("unknown action kind")
		return Plan{}, false
	}
	return plan, true
}

func templateData(v action.View, botID string) templates.Data {
	return templates.Data{
		Text:         v.Text,
		MessageID:    v.DisplayID(),
		ChannelName:  v.RoomName,
		ChannelTopic: v.RoomTopic,
		BotID:        botID,
	}
}
