// Package gateway provides access to version-control history,
// abstracting away whether it is read through the git executable,
// a pure-Go repository reader, or the GitHub API.
package gateway

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/naka-gawa/contrib-tally/internal/domain"
)

// ErrRefNotFound is returned when a named revision does not exist in a
// repository's history.
var ErrRefNotFound = errors.New("revision not found")

// AuthorCount is one shortlog line: the number of commits attributed to a
// single author display name within a range.
type AuthorCount struct {
	Count int
	Name  string
}

// History defines the per-repository query operations the attribution
// pipeline depends on. Implementations are synchronous; callers drive them
// strictly sequentially.
type History interface {
	// LatestCommitTime returns the commit time (not author time) of the
	// most recent commit reachable from ref. Unknown refs yield an error
	// wrapping ErrRefNotFound.
	LatestCommitTime(ctx context.Context, ref string) (time.Time, error)

	// RevBefore returns the latest commit on branch at or before t, or an
	// empty revision when the branch has no commit that old ("beginning of
	// history"). It is deterministic and monotone in t.
	RevBefore(ctx context.Context, branch string, t time.Time) (string, error)

	// ShortlogCounts returns per-author commit counts for exactly the
	// commits in rng.
	ShortlogCounts(ctx context.Context, rng domain.Range) ([]AuthorCount, error)

	// CommitCount returns the total number of commits in rng, counted
	// directly from the log.
	CommitCount(ctx context.Context, rng domain.Range) (int, error)
}

// Opener opens a History handle for one configured repository.
type Opener interface {
	Open(ctx context.Context, repo domain.RepositoryRef) (History, error)
}

// sortedAuthorCounts turns a name→count map into shortlog-shaped output:
// highest count first, first-seen order breaking ties.
func sortedAuthorCounts(counts map[string]int, seen []string) []AuthorCount {
	out := make([]AuthorCount, 0, len(seen))
	for _, name := range seen {
		out = append(out, AuthorCount{Count: counts[name], Name: name})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Count > out[j].Count
	})
	return out
}
