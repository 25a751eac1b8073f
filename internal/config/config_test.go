package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoader_Defaults(t *testing.T) {
	cfg, err := NewLoader("contribtest").Load()
	require.NoError(t, err)

	assert.Equal(t, "mirrors", cfg.MirrorDir)
	assert.Equal(t, "cli", cfg.Backend)
	assert.Empty(t, cfg.ExtraBotNames)
}

func TestLoader_FromEnvironment(t *testing.T) {
	t.Setenv("CONTRIBTEST_MIRROR_DIR", "/var/lib/mirrors")
	t.Setenv("CONTRIBTEST_BACKEND", "native")
	t.Setenv("CONTRIBTEST_EXTRA_BOT_NAMES", "ci-runner,release-bot")

	cfg, err := NewLoader("contribtest").Load()
	require.NoError(t, err)

	assert.Equal(t, "/var/lib/mirrors", cfg.MirrorDir)
	assert.Equal(t, "native", cfg.Backend)
	assert.Equal(t, []string{"ci-runner", "release-bot"}, cfg.ExtraBotNames)
}

func TestLoader_RejectsUnknownBackend(t *testing.T) {
	t.Setenv("CONTRIBTEST_BACKEND", "subversion")

	_, err := NewLoader("contribtest").Load()
	assert.ErrorContains(t, err, "config validation")
}

func TestLoader_GithubBackendNeedsToken(t *testing.T) {
	t.Setenv("CONTRIBTEST_BACKEND", "github")

	_, err := NewLoader("contribtest").Load()
	assert.ErrorContains(t, err, "config validation")

	t.Setenv("CONTRIBTEST_GITHUB_TOKEN", "ghp_dummy")
	cfg, err := NewLoader("contribtest").Load()
	require.NoError(t, err)
	assert.Equal(t, "ghp_dummy", cfg.GithubToken)
}
