package cmd

import (
	"fmt"
	"log/slog"

	"github.com/justmike1/mentionbot/action"
	"github.com/justmike1/mentionbot/config"
	"github.com/justmike1/mentionbot/dispatch"
	"github.com/justmike1/mentionbot/github"
	"github.com/justmike1/mentionbot/gitlab"
	"github.com/justmike1/mentionbot/mention"
	"github.com/justmike1/mentionbot/templates"
)

// settingsProvider opens the configured settings backend. The returned
// close func stops any file watch.
func settingsProvider(cfg *config.Config, logger *slog.Logger) (config.Provider, func(), error) {
	switch cfg.Settings.Backend {
	case config.BackendStore:
		p, err := config.NewStoreProvider(cfg.Settings.File, logger)
		if err != nil {
			return nil, nil, err
		}
		if !cfg.Settings.Watch {
			return p, func() {}, nil
		}
		if err := p.Watch(); err != nil {
			return nil, nil, fmt.Errorf("watching %s: %w", cfg.Settings.File, err)
		}
		logger.Info("watching settings file", "path", cfg.Settings.File)
		return p, func() { _ = p.Close() }, nil
	default:
		p, err := config.NewEnvProvider(cfg.Settings.Dotenv)
		if err != nil {
			return nil, nil, err
		}
		return p, func() {}, nil
	}
}

func newDispatcher(cfg *config.Config, host dispatch.Host, logger *slog.Logger) (*dispatch.Dispatcher, func(), error) {
	kinds, err := cfg.ActionKinds()
	if err != nil {
		return nil, nil, err
	}
	tmpl, err := templates.Load(cfg.TemplatesFile)
	if err != nil {
		return nil, nil, err
	}
	settings, closeSettings, err := settingsProvider(cfg, logger)
	if err != nil {
		return nil, nil, err
	}

	trackers := map[string]dispatch.IssueTracker{
		action.TrackerGitLab: gitlab.NewTracker(cfg.HTTP.Timeout, logger),
		action.TrackerGitHub: github.NewTracker(cfg.HTTP.Timeout, logger),
	}

	matcher := mention.NewMatcher(cfg.Bots)
	d := dispatch.New(dispatch.Options{
		Host:     host,
		Matcher:  matcher,
		Settings: settings,
		Kinds:    kinds,
		Builder:  dispatch.NewBuilder(trackers, tmpl, logger),
		Sender:   action.NewClient(cfg.HTTP.Timeout),
		Relay:    dispatch.NewRelay(host, tmpl, logger),
		Logger:   logger,
	})
	logger.Info("dispatcher ready", "bots", matcher.Names(), "actions", cfg.Actions, "settings", cfg.Settings.Backend)
	return d, closeSettings, nil
}
