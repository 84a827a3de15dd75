package mention

import "testing"

func TestMatch(t *testing.T) {
	m := NewMatcher(DefaultBots)

	tests := []struct {
		name string
		text string
		want string
	}{
		{"empty", "", ""},
		{"no at sign", "please help with ai_deepseek", ""},
		{"email address", "contact user@example.com for access", ""},
		{"email with bot-like local part", "mail ai_deepseek@example.com", ""},
		{"mention mid sentence", "hey @ai_deepseek please help", "ai_deepseek"},
		{"mention at end", "ping @ai_qwen", "ai_qwen"},
		{"mention followed by punctuation", "@ai_qwen, are you there?", "ai_qwen"},
		{"mention followed by colon", "@ai_deepseek: status", "ai_deepseek"},
		{"longer identifier is not a mention", "@ai_deepseek_v2 hello", ""},
		{"dotted suffix is not a mention", "@ai_qwen.bot hello", ""},
		{"hyphen suffix is not a mention", "@ai_qwen-test hello", ""},
		{"case insensitive", "yo @AI_DeepSeek do it", "ai_deepseek"},
		{"newline boundary", "@ai_qwen\nnext line", "ai_qwen"},
		{"unknown bot", "@someone please help", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := m.Match(tt.text)
			if got.BotID != tt.want {
				t.Errorf("Match(%q).BotID = %q, want %q", tt.text, got.BotID, tt.want)
			}
			if got.Found() != (tt.want != "") {
				t.Errorf("Match(%q).Found() = %v", tt.text, got.Found())
			}
		})
	}
}

func TestMatch_KeepsTypedSpelling(t *testing.T) {
	m := NewMatcher(DefaultBots)
	got := m.Match("hi @AI_QWEN")
	if got.Raw != "AI_QWEN" {
		t.Errorf("Raw = %q, want %q", got.Raw, "AI_QWEN")
	}
	if got.BotID != "ai_qwen" {
		t.Errorf("BotID = %q, want %q", got.BotID, "ai_qwen")
	}
}

func TestMatch_LeftmostWins(t *testing.T) {
	m := NewMatcher(DefaultBots)
	got := m.Match("@ai_qwen and @ai_deepseek")
	if got.BotID != "ai_qwen" {
		t.Errorf("BotID = %q, want ai_qwen", got.BotID)
	}
}

func TestMatch_InjectedNames(t *testing.T) {
	m := NewMatcher([]string{"bot", " @assistant ", "", "c++"})

	if got := m.Match("hello @assistant"); got.BotID != "assistant" {
		t.Errorf("expected assistant, got %q", got.BotID)
	}
	if got := m.Match("ask @c++ now"); got.BotID != "c++" {
		t.Errorf("expected regex metacharacters to be quoted, got %q", got.BotID)
	}
	if got := m.Match("hello @ai_qwen"); got.Found() {
		t.Errorf("default bots should not match when names are injected, got %q", got.BotID)
	}
	// Prefix names must still respect the boundary rule.
	if got := m.Match("@bots unite"); got.Found() {
		t.Errorf("@bots should not match bot, got %q", got.BotID)
	}
}

func TestMatch_NoNames(t *testing.T) {
	m := NewMatcher(nil)
	if got := m.Match("@ai_qwen hi"); got.Found() {
		t.Errorf("matcher without names matched %q", got.BotID)
	}
	if len(m.Names()) != 0 {
		t.Errorf("expected no names, got %v", m.Names())
	}
}

func TestNames_DeduplicatesCaseInsensitively(t *testing.T) {
	m := NewMatcher([]string{"ai_qwen", "AI_QWEN", "ai_deepseek"})
	names := m.Names()
	if len(names) != 2 || names[0] != "ai_qwen" || names[1] != "ai_deepseek" {
		t.Errorf("Names() = %v", names)
	}
}
