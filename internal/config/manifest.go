package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/naka-gawa/contrib-tally/internal/domain"
)

// RepositoryEntry is one repository in the manifest.
type RepositoryEntry struct {
	Name string `yaml:"name"`
	// ID is the canonical identifier: a clone URL for local mirrors, or
	// owner/name for the github backend.
	ID string `yaml:"id"`
	// Branch is the default branch satellite windows map onto. Defaults to
	// "main".
	Branch string `yaml:"branch"`
}

// Ref converts the entry into the immutable domain reference.
func (e RepositoryEntry) Ref() domain.RepositoryRef {
	branch := e.Branch
	if branch == "" {
		branch = "main"
	}
	return domain.RepositoryRef{
		Name:          e.Name,
		CanonicalID:   e.ID,
		DefaultBranch: branch,
	}
}

// Manifest describes the repositories under attribution: the primary
// project whose release boundaries define windows, and the ordered
// satellites whose activity is mapped into them.
type Manifest struct {
	// DefaultLowerBound is the documented lower boundary used when the CLI
	// is invoked with no version arguments. Empty means the beginning of
	// history.
	DefaultLowerBound string            `yaml:"default_lower_bound"`
	Primary           RepositoryEntry   `yaml:"primary"`
	Satellites        []RepositoryEntry `yaml:"satellites"`
}

// LoadManifest reads and validates the manifest at path. Satellite order is
// preserved; it determines processing order.
func LoadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse manifest %s: %w", path, err)
	}
	if err := m.validate(); err != nil {
		return nil, fmt.Errorf("manifest %s: %w", path, err)
	}
	return &m, nil
}

func (m *Manifest) validate() error {
	if m.Primary.Name == "" || m.Primary.ID == "" {
		return fmt.Errorf("primary repository needs both name and id")
	}
	names := map[string]bool{m.Primary.Name: true}
	for _, sat := range m.Satellites {
		if sat.Name == "" || sat.ID == "" {
			return fmt.Errorf("satellite repositories need both name and id")
		}
		if names[sat.Name] {
			return fmt.Errorf("duplicate repository name %q", sat.Name)
		}
		names[sat.Name] = true
	}
	return nil
}

// SatelliteRefs returns the satellites in manifest order.
func (m *Manifest) SatelliteRefs() []domain.RepositoryRef {
	refs := make([]domain.RepositoryRef, 0, len(m.Satellites))
	for _, sat := range m.Satellites {
		refs = append(refs, sat.Ref())
	}
	return refs
}

// AllRefs returns the primary followed by every satellite.
func (m *Manifest) AllRefs() []domain.RepositoryRef {
	return append([]domain.RepositoryRef{m.Primary.Ref()}, m.SatelliteRefs()...)
}
