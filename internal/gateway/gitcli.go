package gateway

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"log"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/naka-gawa/contrib-tally/internal/domain"
)

// GitCLIOpener opens repositories as local mirrors under a base directory
// and queries them by shelling out to the git executable.
type GitCLIOpener struct {
	mirrorDir string
	logger    *log.Logger
}

// NewGitCLIOpener creates an opener rooted at mirrorDir.
func NewGitCLIOpener(mirrorDir string, logger *log.Logger) *GitCLIOpener {
	return &GitCLIOpener{mirrorDir: mirrorDir, logger: logger}
}

// Open verifies that the mirror for repo exists and returns a handle on it.
func (o *GitCLIOpener) Open(ctx context.Context, repo domain.RepositoryRef) (History, error) {
	path := filepath.Join(o.mirrorDir, repo.Name)
	g := &gitCLI{path: path, logger: o.logger}
	if _, err := g.run(ctx, false, "rev-parse", "--git-dir"); err != nil {
		return nil, fmt.Errorf("open repository %s: %w", repo.Name, err)
	}
	return g, nil
}

type gitCLI struct {
	path   string
	logger *log.Logger
}

// run executes git -C <path> args. When allowExit1 is set, a silent exit
// status of 1 is treated as success with whatever stdout was produced,
// matching git's "not found" convention for rev-parse -q and friends.
func (g *gitCLI) run(ctx context.Context, allowExit1 bool, args ...string) (string, error) {
	cmdArgs := append([]string{"-C", g.path}, args...)
	cmd := exec.CommandContext(ctx, "git", cmdArgs...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		if allowExit1 && errors.As(err, &exitErr) && exitErr.ExitCode() == 1 && stderr.Len() == 0 {
			// fall through: quiet exit 1 carries the answer on stdout
		} else {
			if stderr.Len() > 0 {
				return "", fmt.Errorf("git %s: %v: %s", args[0], err, strings.TrimSpace(stderr.String()))
			}
			return "", fmt.Errorf("git %s: %w", args[0], err)
		}
	}
	return stdout.String(), nil
}

func (g *gitCLI) LatestCommitTime(ctx context.Context, ref string) (time.Time, error) {
	out, err := g.run(ctx, true, "rev-parse", "-q", "--verify", ref+"^{commit}")
	if err != nil {
		return time.Time{}, err
	}
	hash := strings.TrimSpace(out)
	if hash == "" {
		return time.Time{}, fmt.Errorf("%s: %w", ref, ErrRefNotFound)
	}
	out, err = g.run(ctx, false, "log", "-1", "--format=%ct", hash, "--")
	if err != nil {
		return time.Time{}, err
	}
	seconds, err := strconv.ParseInt(strings.TrimSpace(out), 10, 64)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse commit time of %s: %w", ref, err)
	}
	return time.Unix(seconds, 0).UTC(), nil
}

func (g *gitCLI) RevBefore(ctx context.Context, branch string, t time.Time) (string, error) {
	out, err := g.run(ctx, false,
		"rev-list", "-1", "--before="+t.UTC().Format(time.RFC3339), branch)
	if err != nil {
		return "", err
	}
	// No output means no commit on the branch is old enough.
	return strings.TrimSpace(out), nil
}

func (g *gitCLI) ShortlogCounts(ctx context.Context, rng domain.Range) ([]AuthorCount, error) {
	g.logger.Printf("Running git shortlog for %s in %s...", rangeArg(rng), g.path)
	out, err := g.run(ctx, false, "shortlog", "-s", "-n", rangeArg(rng))
	if err != nil {
		return nil, err
	}
	return parseShortlog(out)
}

func (g *gitCLI) CommitCount(ctx context.Context, rng domain.Range) (int, error) {
	out, err := g.run(ctx, false, "rev-list", "--count", rangeArg(rng))
	if err != nil {
		return 0, err
	}
	count, err := strconv.Atoi(strings.TrimSpace(out))
	if err != nil {
		return 0, fmt.Errorf("parse rev-list count: %w", err)
	}
	return count, nil
}

// rangeArg renders rng in git's range notation. lower..upper is exactly the
// half-open set (lower, upper]; a missing lower bound covers all history.
func rangeArg(rng domain.Range) string {
	if rng.FromStart() {
		return rng.Upper
	}
	return rng.Lower + ".." + rng.Upper
}

// parseShortlog reads `git shortlog -s -n` output: one "<count>\t<name>"
// line per author, most commits first.
func parseShortlog(out string) ([]AuthorCount, error) {
	var counts []AuthorCount
	scanner := bufio.NewScanner(strings.NewReader(out))
	for scanner.Scan() {
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}
		countField, name, ok := strings.Cut(line, "\t")
		if !ok {
			return nil, fmt.Errorf("malformed shortlog line %q", line)
		}
		count, err := strconv.Atoi(strings.TrimSpace(countField))
		if err != nil {
			return nil, fmt.Errorf("malformed shortlog count in %q: %w", line, err)
		}
		counts = append(counts, AuthorCount{Count: count, Name: name})
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return counts, nil
}
