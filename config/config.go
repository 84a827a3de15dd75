package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/justmike1/mentionbot/action"
	"github.com/justmike1/mentionbot/mention"
)

const (
	defaultPort         = "8080"
	defaultSettingsFile = "settings.yaml"
	envPrefix           = "MENTIONBOT_"
)

// Slack connection modes.
const (
	ModeSocket = "socket"
	ModeEvents = "events"
)

// Settings backends.
const (
	BackendEnv   = "env"
	BackendStore = "store"
)

// Config is the service configuration.
type Config struct {
	Slack         SlackConfig    `koanf:"slack"`
	Server        ServerConfig   `koanf:"server"`
	Settings      SettingsConfig `koanf:"settings"`
	Bots          []string       `koanf:"bots"`
	Actions       []string       `koanf:"actions"`
	HTTP          HTTPConfig     `koanf:"http"`
	TemplatesFile string         `koanf:"templates_file"`
	Log           LogConfig      `koanf:"log"`
}

// SlackConfig holds Slack credentials and the connection mode.
type SlackConfig struct {
	BotToken      string `koanf:"bot_token"`
	AppToken      string `koanf:"app_token"`
	SigningSecret string `koanf:"signing_secret"`
	Mode          string `koanf:"mode"`
	Debug         bool   `koanf:"debug"`
}

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	Port         string `koanf:"port"`
	AllowedCIDRs string `koanf:"allowed_cidrs"`
}

// SettingsConfig selects where action settings are read from.
type SettingsConfig struct {
	Backend string `koanf:"backend"`
	File    string `koanf:"file"`
	Watch   bool   `koanf:"watch"`
	Dotenv  string `koanf:"dotenv"`
}

// HTTPConfig bounds outbound tracker calls.
type HTTPConfig struct {
	Timeout time.Duration `koanf:"timeout"`
}

// LogConfig selects the log level and format (text or json).
type LogConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

// Default returns the configuration used when nothing is set.
func Default() *Config {
	kinds := make([]string, len(action.Kinds))
	for i, k := range action.Kinds {
		kinds[i] = string(k)
	}
	return &Config{
		Slack:    SlackConfig{Mode: ModeSocket},
		Server:   ServerConfig{Port: defaultPort},
		Settings: SettingsConfig{Backend: BackendEnv, File: defaultSettingsFile},
		Bots:     append([]string(nil), mention.DefaultBots...),
		Actions:  kinds,
		HTTP:     HTTPConfig{Timeout: action.DefaultTimeout},
		Log:      LogConfig{Level: "info", Format: "text"},
	}
}

// Load reads configuration from the YAML file at path (if present), overlays
// MENTIONBOT_* environment variables, then the conventional SLACK_* and PORT
// variables. A double underscore separates nesting levels, e.g.
// MENTIONBOT_SETTINGS__BACKEND=store.
func Load(path string) (*Config, error) {
	k := koanf.New(".")
	cfg := Default()
	cfg.Bots, cfg.Actions = nil, nil

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
				return nil, fmt.Errorf("reading config %s: %w", path, err)
			}
		} else if !os.IsNotExist(err) {
			return nil, fmt.Errorf("accessing config %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(envPrefix, ".", func(s string) string {
		return strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(s, envPrefix)), "__", ".")
	}), nil); err != nil {
		return nil, fmt.Errorf("loading env overrides: %w", err)
	}

	// Lists are replaced, not merged element-wise into the defaults.
	defaults := Default()
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshalling config: %w", err)
	}
	if !k.Exists("bots") {
		cfg.Bots = defaults.Bots
	}
	if !k.Exists("actions") {
		cfg.Actions = defaults.Actions
	}

	overlayEnv(&cfg.Slack.BotToken, "SLACK_BOT_TOKEN")
	overlayEnv(&cfg.Slack.AppToken, "SLACK_APP_TOKEN")
	overlayEnv(&cfg.Slack.SigningSecret, "SLACK_SIGNING_SECRET")
	overlayEnv(&cfg.Server.Port, "PORT")
	overlayEnv(&cfg.Server.AllowedCIDRs, "UI_ALLOWED_CIDRS")
	if os.Getenv("SOCKET_MODE_DEBUG") == "1" {
		cfg.Slack.Debug = true
	}

	return cfg, nil
}

func overlayEnv(dst *string, name string) {
	if v := os.Getenv(name); v != "" {
		*dst = v
	}
}

// Validate checks the settings needed to connect to Slack and dispatch.
func (c *Config) Validate() error {
	if c.Slack.BotToken == "" {
		return fmt.Errorf("SLACK_BOT_TOKEN is required")
	}
	switch c.Slack.Mode {
	case ModeSocket:
		if c.Slack.AppToken == "" {
			return fmt.Errorf("SLACK_APP_TOKEN is required in socket mode")
		}
	case ModeEvents:
		if c.Slack.SigningSecret == "" {
			return fmt.Errorf("SLACK_SIGNING_SECRET is required in events mode")
		}
	default:
		return fmt.Errorf("invalid slack mode %q: must be socket or events", c.Slack.Mode)
	}
	return c.ValidateDispatch()
}

// ValidateDispatch checks only what a dispatch cycle needs, without Slack.
func (c *Config) ValidateDispatch() error {
	if c.Settings.Backend != BackendEnv && c.Settings.Backend != BackendStore {
		return fmt.Errorf("invalid settings backend %q: must be env or store", c.Settings.Backend)
	}
	if c.Settings.Backend == BackendStore && c.Settings.File == "" {
		return fmt.Errorf("settings.file is required for the store backend")
	}
	if _, err := c.ActionKinds(); err != nil {
		return err
	}
	if c.HTTP.Timeout < 0 {
		return fmt.Errorf("http.timeout must be non-negative")
	}
	return nil
}

// ActionKinds parses the configured action list, preserving order.
func (c *Config) ActionKinds() ([]action.Kind, error) {
	kinds := make([]action.Kind, 0, len(c.Actions))
	seen := make(map[action.Kind]bool, len(c.Actions))
	for _, a := range c.Actions {
		if strings.TrimSpace(a) == "" {
			continue
		}
		k, err := action.ParseKind(a)
		if err != nil {
			return nil, fmt.Errorf("invalid actions entry: %w", err)
		}
		if seen[k] {
			continue
		}
		seen[k] = true
		kinds = append(kinds, k)
	}
	return kinds, nil
}
