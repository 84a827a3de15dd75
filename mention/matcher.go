package mention

import (
	"regexp"
	"strings"
)

// DefaultBots are the bot identifiers matched when none are configured.
var DefaultBots = []string{"ai_deepseek", "ai_qwen"}

// Mention is a detected @-mention of a known bot. The zero value means no mention.
type Mention struct {
	Raw   string // identifier as typed in the message
	BotID string // configured spelling of the identifier
}

// Found reports whether a bot was mentioned.
func (m Mention) Found() bool {
	return m.BotID != ""
}

// Matcher detects @-mentions of a fixed set of bot identifiers.
// It is safe for concurrent use.
type Matcher struct {
	pattern   *regexp.Regexp
	names     []string
	canonical map[string]string
}

// NewMatcher builds a matcher for the given bot identifiers. Blank names are
// ignored; a matcher without names never matches.
func NewMatcher(names []string) *Matcher {
	m := &Matcher{canonical: make(map[string]string, len(names))}

	var quoted []string
	for _, n := range names {
		n = strings.TrimPrefix(strings.TrimSpace(n), "@")
		if n == "" {
			continue
		}
		key := strings.ToLower(n)
		if _, dup := m.canonical[key]; dup {
			continue
		}
		m.canonical[key] = n
		m.names = append(m.names, n)
		quoted = append(quoted, regexp.QuoteMeta(n))
	}
	if len(quoted) == 0 {
		return m
	}

	// The trailing class keeps email addresses like user@example.com from matching.
	m.pattern = regexp.MustCompile(`(?i)@(` + strings.Join(quoted, "|") + `)(?:\s|$|[^a-zA-Z0-9._-])`)
	return m
}

// Names returns the configured identifiers.
func (m *Matcher) Names() []string {
	return append([]string(nil), m.names...)
}

// Match returns the leftmost mention in text, or the zero Mention.
func (m *Matcher) Match(text string) Mention {
	if m.pattern == nil || text == "" || !strings.Contains(text, "@") {
		return Mention{}
	}

	match := m.pattern.FindStringSubmatch(text)
	if match == nil {
		return Mention{}
	}
	return Mention{
		Raw:   match[1],
		BotID: m.canonical[strings.ToLower(match[1])],
	}
}
