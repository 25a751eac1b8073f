package gateway

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"path/filepath"
	"time"

	gitlib "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"

	"github.com/naka-gawa/contrib-tally/internal/domain"
)

// NativeOpener opens local mirrors with go-git, so no git executable is
// needed on the host.
type NativeOpener struct {
	mirrorDir string
	logger    *log.Logger
}

// NewNativeOpener creates an opener rooted at mirrorDir.
func NewNativeOpener(mirrorDir string, logger *log.Logger) *NativeOpener {
	return &NativeOpener{mirrorDir: mirrorDir, logger: logger}
}

func (o *NativeOpener) Open(ctx context.Context, repo domain.RepositoryRef) (History, error) {
	path := filepath.Join(o.mirrorDir, repo.Name)
	r, err := gitlib.PlainOpen(path)
	if err != nil {
		return nil, fmt.Errorf("open repository %s: %w", repo.Name, err)
	}
	return &nativeHistory{repo: r}, nil
}

// OpenPath opens an arbitrary local repository directly, bypassing the
// mirror layout. Used for repositories that already live on disk.
func OpenPath(path string) (History, error) {
	r, err := gitlib.PlainOpen(path)
	if err != nil {
		return nil, fmt.Errorf("open repository at %s: %w", path, err)
	}
	return &nativeHistory{repo: r}, nil
}

type nativeHistory struct {
	repo *gitlib.Repository
}

func (h *nativeHistory) resolve(rev string) (plumbing.Hash, error) {
	hash, err := h.repo.ResolveRevision(plumbing.Revision(rev))
	if err != nil {
		if errors.Is(err, plumbing.ErrReferenceNotFound) {
			return plumbing.ZeroHash, fmt.Errorf("%s: %w", rev, ErrRefNotFound)
		}
		return plumbing.ZeroHash, fmt.Errorf("resolve %s: %w", rev, err)
	}
	return *hash, nil
}

func (h *nativeHistory) LatestCommitTime(ctx context.Context, ref string) (time.Time, error) {
	hash, err := h.resolve(ref)
	if err != nil {
		return time.Time{}, err
	}
	commit, err := h.repo.CommitObject(hash)
	if err != nil {
		return time.Time{}, fmt.Errorf("read commit %s: %w", ref, err)
	}
	return commit.Committer.When.UTC(), nil
}

func (h *nativeHistory) RevBefore(ctx context.Context, branch string, t time.Time) (string, error) {
	hash, err := h.resolve(branch)
	if err != nil {
		return "", err
	}
	iter, err := h.repo.Log(&gitlib.LogOptions{From: hash, Order: gitlib.LogOrderCommitterTime})
	if err != nil {
		return "", fmt.Errorf("read log of %s: %w", branch, err)
	}
	defer iter.Close()
	for {
		commit, err := iter.Next()
		if err == io.EOF {
			return "", nil // beginning of history
		}
		if err != nil {
			return "", fmt.Errorf("iterate log of %s: %w", branch, err)
		}
		if !commit.Committer.When.After(t) {
			return commit.Hash.String(), nil
		}
	}
}

func (h *nativeHistory) ShortlogCounts(ctx context.Context, rng domain.Range) ([]AuthorCount, error) {
	counts := make(map[string]int)
	var seen []string
	err := h.rangeCommits(rng, func(c *object.Commit) error {
		name := c.Author.Name
		if _, ok := counts[name]; !ok {
			seen = append(seen, name)
		}
		counts[name]++
		return nil
	})
	if err != nil {
		return nil, err
	}
	return sortedAuthorCounts(counts, seen), nil
}

func (h *nativeHistory) CommitCount(ctx context.Context, rng domain.Range) (int, error) {
	count := 0
	err := h.rangeCommits(rng, func(*object.Commit) error {
		count++
		return nil
	})
	if err != nil {
		return 0, err
	}
	return count, nil
}

// rangeCommits walks exactly the commits reachable from rng.Upper but not
// from rng.Lower, i.e. git's lower..upper range.
func (h *nativeHistory) rangeCommits(rng domain.Range, fn func(*object.Commit) error) error {
	var excluded map[plumbing.Hash]bool
	if !rng.FromStart() {
		lower, err := h.resolve(rng.Lower)
		if err != nil {
			return err
		}
		excluded, err = h.reachable(lower)
		if err != nil {
			return err
		}
	}
	upper, err := h.resolve(rng.Upper)
	if err != nil {
		return err
	}
	commit, err := h.repo.CommitObject(upper)
	if err != nil {
		return fmt.Errorf("read commit %s: %w", rng.Upper, err)
	}
	if excluded != nil && excluded[commit.Hash] {
		return nil // upper is reachable from lower: empty range
	}
	iter := object.NewCommitPreorderIter(commit, excluded, nil)
	defer iter.Close()
	return iter.ForEach(fn)
}

func (h *nativeHistory) reachable(from plumbing.Hash) (map[plumbing.Hash]bool, error) {
	commit, err := h.repo.CommitObject(from)
	if err != nil {
		return nil, fmt.Errorf("read commit %s: %w", from, err)
	}
	seen := make(map[plumbing.Hash]bool)
	iter := object.NewCommitPreorderIter(commit, nil, nil)
	defer iter.Close()
	err = iter.ForEach(func(c *object.Commit) error {
		seen[c.Hash] = true
		return nil
	})
	if err != nil {
		return nil, err
	}
	return seen, nil
}
