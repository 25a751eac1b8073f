package gateway

import (
	"context"
	"errors"
	"fmt"
	"log"
	"path/filepath"

	gitlib "github.com/go-git/go-git/v5"

	"github.com/naka-gawa/contrib-tally/internal/domain"
)

// Mirror keeps local bare clones of the configured repositories current.
// Attribution runs never fetch; keeping mirrors fresh is this collaborator's
// whole job.
type Mirror struct {
	baseDir string
	logger  *log.Logger
}

// NewMirror creates a mirror manager rooted at baseDir.
func NewMirror(baseDir string, logger *log.Logger) *Mirror {
	return &Mirror{baseDir: baseDir, logger: logger}
}

// Path returns the on-disk location of repo's mirror.
func (m *Mirror) Path(repo domain.RepositoryRef) string {
	return filepath.Join(m.baseDir, repo.Name)
}

// Sync clones the mirror if it is missing, otherwise fetches all refs and
// tags from origin.
func (m *Mirror) Sync(ctx context.Context, repo domain.RepositoryRef) error {
	path := m.Path(repo)
	r, err := gitlib.PlainOpen(path)
	if errors.Is(err, gitlib.ErrRepositoryNotExists) {
		m.logger.Printf("Cloning %s from %s...", repo.Name, repo.CanonicalID)
		_, err = gitlib.PlainCloneContext(ctx, path, true, &gitlib.CloneOptions{
			URL:    repo.CanonicalID,
			Mirror: true,
		})
		if err != nil {
			return fmt.Errorf("clone %s: %w", repo.Name, err)
		}
		return nil
	}
	if err != nil {
		return fmt.Errorf("open mirror %s: %w", repo.Name, err)
	}
	m.logger.Printf("Fetching %s...", repo.Name)
	err = r.FetchContext(ctx, &gitlib.FetchOptions{
		RemoteName: "origin",
		Force:      true,
		Tags:       gitlib.AllTags,
	})
	if errors.Is(err, gitlib.NoErrAlreadyUpToDate) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("fetch %s: %w", repo.Name, err)
	}
	return nil
}
