package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
)

// EnvProvider reads settings from process environment variables, using the
// env name declared for each setting id.
type EnvProvider struct {
	lookup func(string) (string, bool)
}

// NewEnvProvider returns a provider over the process environment. When
// dotenv is non-empty the file is loaded first; variables already set in
// the environment take precedence over the file.
func NewEnvProvider(dotenv string) (*EnvProvider, error) {
	if dotenv != "" {
		if err := godotenv.Load(dotenv); err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("loading %s: %w", dotenv, err)
		}
	}
	return &EnvProvider{lookup: os.LookupEnv}, nil
}

// Value returns the environment value for the setting id. Unknown ids and
// unset or empty variables report false.
func (p *EnvProvider) Value(key string) (string, bool) {
	s, ok := Lookup(key)
	if !ok {
		return "", false
	}
	v, ok := p.lookup(s.Env)
	if !ok || v == "" {
		return "", false
	}
	return v, true
}

// MapProvider serves settings from a fixed map keyed by setting id.
type MapProvider map[string]string

// Value returns the value stored under key.
func (m MapProvider) Value(key string) (string, bool) {
	v, ok := m[key]
	return v, ok
}
