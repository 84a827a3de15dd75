package templates

import (
	"bytes"
	"fmt"
	"os"
	"text/template"

	"gopkg.in/yaml.v3"
)

// Template keys.
const (
	EchoReply         = "echo_reply"
	IssueCreated      = "issue_created"
	PipelineTriggered = "pipeline_triggered"
)

var defaults = map[string]string{
	EchoReply:         `🤖 Bot mentioned! Received message: "{{.Text}}" with ID: {{.MessageID}}`,
	IssueCreated:      `🎫 {{.Tracker}} issue created: {{.URL}}`,
	PipelineTriggered: `🚀 Pipeline triggered for {{.BotID}}: {{.URL}}`,
}

// Data is the value every template is executed with.
type Data struct {
	Text         string
	MessageID    string
	ChannelName  string
	ChannelTopic string
	BotID        string
	Tracker      string
	URL          string
}

// Set holds the parsed reply templates.
type Set struct {
	tmpls map[string]*template.Template
}

// Default returns the built-in templates.
func Default() *Set {
	s, err := parse(defaults)
	if err != nil {
		panic(fmt.Sprintf("built-in templates: %v", err))
	}
	return s
}

// Load reads overrides from a YAML map of key to template text. Keys not in
// the file keep their built-in text; unknown keys are rejected. An empty
// path returns the built-ins.
func Load(path string) (*Set, error) {
	if path == "" {
		return Default(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read templates file %s: %w", path, err)
	}

	overrides := make(map[string]string)
	if err := yaml.Unmarshal(data, &overrides); err != nil {
		return nil, fmt.Errorf("failed to parse templates file: %w", err)
	}

	merged := make(map[string]string, len(defaults))
	for k, v := range defaults {
		merged[k] = v
	}
	for k, v := range overrides {
		if _, ok := defaults[k]; !ok {
			return nil, fmt.Errorf("unknown template %q in %s", k, path)
		}
		merged[k] = v
	}
	return parse(merged)
}

func parse(src map[string]string) (*Set, error) {
	s := &Set{tmpls: make(map[string]*template.Template, len(src))}
	for k, text := range src {
		t, err := template.New(k).Option("missingkey=error").Parse(text)
		if err != nil {
			return nil, fmt.Errorf("template %q: %w", k, err)
		}
		s.tmpls[k] = t
	}
	return s, nil
}

// Render executes the template for key.
func (s *Set) Render(key string, d Data) (string, error) {
	t, ok := s.tmpls[key]
	if !ok {
		return "", fmt.Errorf("template %q not found", key)
	}
	var buf bytes.Buffer
	if err := t.Execute(&buf, d); err != nil {
		return "", fmt.Errorf("render %s: %w", key, err)
	}
	return buf.String(), nil
}
