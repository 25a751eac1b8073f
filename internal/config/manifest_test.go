package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeManifest(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "repos.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadManifest(t *testing.T) {
	path := writeManifest(t, `
default_lower_bound: "9.0"
primary:
  name: server
  id: https://github.com/org/server.git
  branch: main
satellites:
  - name: mobile
    id: https://github.com/org/mobile.git
  - name: desktop
    id: https://github.com/org/desktop.git
    branch: trunk
`)

	manifest, err := LoadManifest(path)
	require.NoError(t, err)

	assert.Equal(t, "9.0", manifest.DefaultLowerBound)
	assert.Equal(t, "server", manifest.Primary.Name)

	satellites := manifest.SatelliteRefs()
	require.Len(t, satellites, 2)
	// Manifest order is processing order.
	assert.Equal(t, "mobile", satellites[0].Name)
	assert.Equal(t, "main", satellites[0].DefaultBranch) // default applied
	assert.Equal(t, "desktop", satellites[1].Name)
	assert.Equal(t, "trunk", satellites[1].DefaultBranch)

	all := manifest.AllRefs()
	require.Len(t, all, 3)
	assert.Equal(t, "server", all[0].Name)
}

func TestLoadManifest_Invalid(t *testing.T) {
	testCases := []struct {
		name    string
		content string
		wantErr string
	}{
		{
			name:    "missing primary id",
			content: "primary:\n  name: server\n",
			wantErr: "primary repository needs both name and id",
		},
		{
			name: "duplicate names",
			content: `
primary:
  name: server
  id: org/server
satellites:
  - name: server
    id: org/other
`,
			wantErr: "duplicate repository name",
		},
		{
			name:    "broken yaml",
			content: "primary: [",
			wantErr: "parse manifest",
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := LoadManifest(writeManifest(t, tc.content))
			assert.ErrorContains(t, err, tc.wantErr)
		})
	}
}

func TestLoadManifest_MissingFile(t *testing.T) {
	_, err := LoadManifest(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.ErrorContains(t, err, "read manifest")
}
