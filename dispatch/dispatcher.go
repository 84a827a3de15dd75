package dispatch

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/justmike1/mentionbot/action"
	"github.com/justmike1/mentionbot/config"
	"github.com/justmike1/mentionbot/gitlab"
	"github.com/justmike1/mentionbot/mention"
)

// State is a dispatcher state. A cycle runs Idle, Matching, then either
// NoAction or Dispatching and Relaying, and ends back in Idle.
type State string

const (
	StateIdle        State = "idle"
	StateMatching    State = "matching"
	StateNoAction    State = "no_action"
	StateDispatching State = "dispatching"
	StateRelaying    State = "relaying"
)

// Report describes a finished cycle. State is the last state before the
// dispatcher returned to Idle.
type Report struct {
	Cycle    string
	State    State
	Mention  mention.Mention
	Outcomes []Outcome
}

// Options wires a Dispatcher.
type Options struct {
	Host     Host
	Matcher  *mention.Matcher
	Settings config.Provider
	Kinds    []action.Kind
	Builder  *Builder
	Sender   Sender
	Relay    *Relay
	Logger   *slog.Logger
}

// Dispatcher runs the configured actions for messages that mention a bot.
// Handle may be called concurrently; a Dispatcher holds no per-message state.
type Dispatcher struct {
	host     Host
	matcher  *mention.Matcher
	settings config.Provider
	kinds    []action.Kind
	builder  *Builder
	sender   Sender
	relay    *Relay
	logger   *slog.Logger
}

// New creates a Dispatcher. A nil Kinds runs every action kind in default order.
func New(opts Options) *Dispatcher {
	kinds := opts.Kinds
	if kinds == nil {
		kinds = action.Kinds
	}
	return &Dispatcher{
		host:     opts.Host,
		matcher:  opts.Matcher,
		settings: opts.Settings,
		kinds:    append([]action.Kind(nil), kinds...),
		builder:  opts.Builder,
		sender:   opts.Sender,
		relay:    opts.Relay,
		logger:   opts.Logger.With("component", "dispatcher"),
	}
}

// Handle runs one dispatch cycle for msg. Every failure is logged; none is
// returned to the caller.
func (d *Dispatcher) Handle(ctx context.Context, msg action.Message) Report {
	report := Report{Cycle: uuid.NewString(), State: StateMatching}
	log := d.logger.With("cycle", report.Cycle, "message_id", msg.ID, "room", msg.RoomID)

	self, err := d.host.BotUserID(ctx)
	if err != nil {
		log.Warn("could not determine bot identity, ignoring message", "error", err)
		report.State = StateNoAction
		return report
	}
	if msg.SenderID != "" && msg.SenderID == self {
		log.Debug("ignoring own message")
		report.State = StateNoAction
		return report
	}

	m := d.matcher.Match(msg.Text)
	if !m.Found() {
		report.State = StateNoAction
		return report
	}
	report.Mention = m
	report.State = StateDispatching
	log = log.With("bot", m.BotID)
	log.Info("bot mentioned", "sender", msg.SenderUsername)

	view := action.NewView(msg)
	outcomes := make([]Outcome, len(d.kinds))

	var g errgroup.Group
	for i, kind := range d.kinds {
		i, kind := i, kind
		g.Go(func() error {
			outcomes[i] = d.run(ctx, log, view, m, kind)
			return nil
		})
	}
	_ = g.Wait()

	report.State = StateRelaying
	for i := range outcomes {
		outcomes[i].Relayed = d.relay.Relay(ctx, outcomes[i], view, m.BotID)
	}
	report.Outcomes = outcomes
	return report
}

// run executes a single action. Its configuration is read fresh from the
// settings provider.
func (d *Dispatcher) run(ctx context.Context, log *slog.Logger, v action.View, m mention.Mention, kind action.Kind) Outcome {
	out := Outcome{Kind: kind}
	log = log.With("kind", kind)

	cfg, err := config.Action(d.settings, kind)
	if err != nil {
		log.Warn("invalid action configuration, skipping", "error", err)
		out.Err = err
		return out
	}

	var assignee action.Assignee
	if kind == action.KindCreateIssue && cfg.Enabled && cfg.AssignBot && len(cfg.Missing()) == 0 {
		assignee = d.resolveAssignee(ctx, log, m.BotID, cfg)
	}

	plan, ok := d.builder.Build(v, m, cfg, assignee)
	if !ok {
		return out
	}
	out.Planned = true

	if plan.Request == nil {
		out.Reply = plan.Reply
		return out
	}

	res := d.sender.Send(ctx, *plan.Request, cfg.TLSVerify)
	res.Kind = kind
	out.Result = res
	if !res.Success() {
		log.Error("action failed", "config", cfg, "status", res.StatusCode, "error", res.Err)
		out.Err = res.Err
		return out
	}
	log.Info("action succeeded", "status", res.StatusCode)

	switch kind {
	case action.KindCreateIssue:
		out.Tracker = plan.Tracker.Name()
		out.URL = plan.Tracker.IssueURL(res.Body, cfg)
	case action.KindTriggerPipeline:
		if cfg.Relay {
			out.URL = gitlab.PipelineURL(res.Body)
		}
	}
	return out
}

// resolveAssignee looks up the mentioned bot in the tracker. A failed lookup
// leaves the issue unassigned.
func (d *Dispatcher) resolveAssignee(ctx context.Context, log *slog.Logger, botID string, cfg action.Config) action.Assignee {
	tracker, ok := d.builder.Tracker(cfg)
	if !ok {
		return action.Assignee{}
	}
	a, err := tracker.ResolveAssignee(ctx, botID, cfg)
	if err != nil {
		log.Warn("could not resolve assignee, creating issue unassigned", "user", botID, "error", err)
		return action.Assignee{}
	}
	return a
}
