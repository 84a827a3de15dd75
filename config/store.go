package config

import (
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// StoreProvider serves settings from a YAML file keyed by setting id:
//
//	gitlab_create_issue_enabled: true
//	gitlab_url: https://gitlab.example.com
//	issue_labels: [chat-bot, triage]
//
// The file is read once on creation and again on Reload or, with Watch,
// whenever it changes on disk.
type StoreProvider struct {
	path   string
	file   *file.File
	k      atomic.Pointer[koanf.Koanf]
	logger *slog.Logger
}

// NewStoreProvider loads the settings file at path.
func NewStoreProvider(path string, logger *slog.Logger) (*StoreProvider, error) {
	p := &StoreProvider{
		path:   path,
		file:   file.Provider(path),
		logger: logger.With("component", "settings"),
	}
	if err := p.Reload(); err != nil {
		return nil, err
	}
	return p, nil
}

// Reload re-reads the settings file. On error the previous values stay live.
func (p *StoreProvider) Reload() error {
	k := koanf.New(".")
	if err := k.Load(p.file, yaml.Parser()); err != nil {
		return fmt.Errorf("reading settings %s: %w", p.path, err)
	}
	p.k.Store(k)
	return nil
}

// Watch reloads the file whenever it changes until Close is called.
func (p *StoreProvider) Watch() error {
	return p.file.Watch(func(_ interface{}, err error) {
		if err != nil {
			p.logger.Error("settings watch failed", "path", p.path, "error", err)
			return
		}
		if err := p.Reload(); err != nil {
			p.logger.Error("settings reload failed", "path", p.path, "error", err)
			return
		}
		p.logger.Info("settings reloaded", "path", p.path)
	})
}

// Close stops watching the file.
func (p *StoreProvider) Close() error {
	return p.file.Unwatch()
}

// Value returns the stored value for key. Lists are joined with commas and
// scalars are formatted as text.
func (p *StoreProvider) Value(key string) (string, bool) {
	k := p.k.Load()
	if k == nil || !k.Exists(key) {
		return "", false
	}
	switch v := k.Get(key).(type) {
	case nil:
		return "", false
	case string:
		return v, true
	case []interface{}:
		parts := make([]string, 0, len(v))
		for _, item := range v {
			parts = append(parts, fmt.Sprint(item))
		}
		return strings.Join(parts, ","), true
	default:
		return fmt.Sprint(v), true
	}
}
