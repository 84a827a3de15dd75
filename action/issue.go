package action

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

const maxLabelRunes = 64

// IssueTitle synthesises an issue title from the room and the mentioned bot.
func IssueTitle(v View, botID string) string {
	title := fmt.Sprintf("Bot Message from %s: %s", v.RoomName, botID)
	if v.HasTopic {
		title = fmt.Sprintf("[%s] %s", v.RoomTopic, title)
	}
	return title
}

// IssueLabels returns the base labels followed by labels derived from the
// room name and, when set, the room topic. Duplicates are dropped.
func IssueLabels(v View, base []string) []string {
	labels := make([]string, 0, len(base)+2)
	seen := make(map[string]bool, len(base)+2)
	add := func(l string) {
		if l == "" || seen[l] {
			return
		}
		seen[l] = true
		labels = append(labels, l)
	}

	for _, l := range base {
		add(cleanLabel(l))
	}
	add("channel::" + cleanLabel(v.RoomName))
	if v.HasTopic {
		add("topic::" + cleanLabel(v.RoomTopic))
	}
	return labels
}

// cleanLabel strips characters that trackers treat as label separators and
// caps the length.
func cleanLabel(s string) string {
	s = strings.Join(strings.Fields(strings.ReplaceAll(s, ",", " ")), " ")
	if utf8.RuneCountInString(s) > maxLabelRunes {
		s = string([]rune(s)[:maxLabelRunes])
		s = strings.TrimSpace(s)
	}
	return s
}
