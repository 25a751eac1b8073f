// Package config loads runtime configuration from the environment and the
// repository manifest file.
package config

import (
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config holds the environment-driven settings. Values come from
// CONTRIB_*-prefixed variables, with an optional .env file loaded first.
type Config struct {
	// MirrorDir is where local repository mirrors live.
	MirrorDir string `split_words:"true" default:"mirrors"`
	// Backend selects the history implementation: the git executable, the
	// pure-Go reader, or the GitHub API.
	Backend string `split_words:"true" default:"cli" validate:"oneof=cli native github"`
	// GithubToken authenticates the github backend and the sync command
	// when cloning over HTTPS from private repositories.
	GithubToken string `split_words:"true" validate:"required_if=Backend github"`
	// ExtraBotNames adds literal contributor names to the bot exclusion
	// policy, comma separated.
	ExtraBotNames []string `split_words:"true"`
}

// Loader reads, defaults, and validates a Config.
type Loader struct {
	Prefix   string
	Validate *validator.Validate
}

// NewLoader creates a loader for the given environment prefix.
func NewLoader(prefix string) *Loader {
	return &Loader{Prefix: prefix, Validate: validator.New()}
}

// Load processes the environment into a Config. A missing .env file is not
// an error.
func (l *Loader) Load() (Config, error) {
	var cfg Config

	if fileExists(".env") {
		if err := godotenv.Overload(".env"); err != nil {
			return cfg, fmt.Errorf("dotenv: %w", err)
		}
	}
	if err := envconfig.Process(l.Prefix, &cfg); err != nil {
		return cfg, fmt.Errorf("env load: %w", err)
	}
	if err := l.Validate.Struct(cfg); err != nil {
		return cfg, fmt.Errorf("config validation: %w", err)
	}
	return cfg, nil
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
