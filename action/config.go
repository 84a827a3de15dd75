package action

import (
	"fmt"
	"log/slog"
	"strings"
)

// Kind identifies a configured response to a mention.
type Kind string

const (
	KindCreateIssue     Kind = "create_issue"
	KindTriggerPipeline Kind = "trigger_pipeline"
	KindEchoReply       Kind = "echo_reply"
)

// Kinds lists every action kind in default execution order.
var Kinds = []Kind{KindCreateIssue, KindTriggerPipeline, KindEchoReply}

// ParseKind validates an action kind name.
func ParseKind(s string) (Kind, error) {
	k := Kind(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Kinds {
		if k == known {
			return k, nil
		}
	}
	return "", fmt.Errorf("unknown action kind %q", s)
}

// Issue tracker backends for KindCreateIssue.
const (
	TrackerGitLab = "gitlab"
	TrackerGitHub = "github"
)

// Config is the per-dispatch configuration of one action kind. It is read
// from the settings provider for every dispatch cycle and then discarded.
type Config struct {
	Kind    Kind
	Enabled bool

	Tracker   string // issue backend, TrackerGitLab or TrackerGitHub
	BaseURL   string
	ProjectID string // numeric id or path for GitLab, owner/repo for GitHub
	Token     string // access token for issues, trigger token for pipelines
	TLSVerify bool

	Labels    []string // base issue labels
	AssignBot bool     // resolve the mentioned bot as issue assignee

	Ref            string // pipeline ref
	VariablePrefix string // pipeline variable name prefix
	Relay          bool   // relay the pipeline URL back to the room
}

// Missing returns the names of required fields that are empty for this kind.
func (c Config) Missing() []string {
	var missing []string
	need := func(name, val string) {
		if strings.TrimSpace(val) == "" {
			missing = append(missing, name)
		}
	}

	switch c.Kind {
	case KindCreateIssue:
		need("project id", c.ProjectID)
		need("access token", c.Token)
		if c.Tracker != TrackerGitHub {
			need("base url", c.BaseURL)
		}
	case KindTriggerPipeline:
		need("project id", c.ProjectID)
		need("trigger token", c.Token)
		need("ref", c.Ref)
		need("base url", c.BaseURL)
	}
	return missing
}

// LogValue keeps the token out of logs.
func (c Config) LogValue() slog.Value {
	attrs := []slog.Attr{
		slog.String("kind", string(c.Kind)),
		slog.Bool("enabled", c.Enabled),
	}
	if c.Kind == KindEchoReply {
		return slog.GroupValue(attrs...)
	}
	attrs = append(attrs,
		slog.String("base_url", c.BaseURL),
		slog.String("project", c.ProjectID),
		slog.Bool("tls_verify", c.TLSVerify),
		slog.Bool("token_set", c.Token != ""),
	)
	if c.Kind == KindCreateIssue {
		attrs = append(attrs, slog.String("tracker", c.Tracker))
	} else {
		attrs = append(attrs, slog.String("ref", c.Ref))
	}
	return slog.GroupValue(attrs...)
}

// Assignee is a resolved tracker user. The zero value means unassigned.
type Assignee struct {
	ID       int64
	Username string
}

// IsZero reports whether no assignee was resolved.
func (a Assignee) IsZero() bool {
	return a.ID == 0 && a.Username == ""
}
