package gateway

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"testing"
	"time"

	gitlib "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/naka-gawa/contrib-tally/internal/domain"
)

var epoch = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func testLogger() *log.Logger {
	return log.New(io.Discard, "", 0)
}

// testRepo builds a linear three-author history with one tag:
//
//	c0 alice   epoch
//	c1 bob     epoch+1h   (tag: v1.0)
//	c2 alice   epoch+2h
//	c3 carol   epoch+3h
type testRepo struct {
	dir    string
	hashes []plumbing.Hash
}

func buildTestRepo(t *testing.T) *testRepo {
	t.Helper()
	dir := t.TempDir()
	repo, err := gitlib.PlainInit(dir, false)
	require.NoError(t, err)
	worktree, err := repo.Worktree()
	require.NoError(t, err)

	authors := []string{"alice", "bob", "alice", "carol"}
	var hashes []plumbing.Hash
	for i, author := range authors {
		path := filepath.Join(dir, "file.txt")
		require.NoError(t, os.WriteFile(path, []byte(fmt.Sprintf("revision %d\n", i)), 0o644))
		_, err = worktree.Add("file.txt")
		require.NoError(t, err)

		sig := &object.Signature{
			Name:  author,
			Email: author + "@example.com",
			When:  epoch.Add(time.Duration(i) * time.Hour),
		}
		hash, err := worktree.Commit(fmt.Sprintf("commit %d", i), &gitlib.CommitOptions{
			Author:    sig,
			Committer: sig,
		})
		require.NoError(t, err)
		hashes = append(hashes, hash)
	}

	_, err = repo.CreateTag("v1.0", hashes[1], nil)
	require.NoError(t, err)

	return &testRepo{dir: dir, hashes: hashes}
}

func openTestHistory(t *testing.T, repo *testRepo) History {
	t.Helper()
	hist, err := OpenPath(repo.dir)
	require.NoError(t, err)
	return hist
}

func TestNativeHistory_LatestCommitTime(t *testing.T) {
	repo := buildTestRepo(t)
	hist := openTestHistory(t, repo)
	ctx := context.Background()

	head, err := hist.LatestCommitTime(ctx, "HEAD")
	require.NoError(t, err)
	assert.True(t, head.Equal(epoch.Add(3*time.Hour)), "got %s", head)

	tagged, err := hist.LatestCommitTime(ctx, "v1.0")
	require.NoError(t, err)
	assert.True(t, tagged.Equal(epoch.Add(1*time.Hour)), "got %s", tagged)

	_, err = hist.LatestCommitTime(ctx, "v9.9")
	assert.ErrorIs(t, err, ErrRefNotFound)
}

func TestNativeHistory_RevBefore(t *testing.T) {
	repo := buildTestRepo(t)
	hist := openTestHistory(t, repo)
	ctx := context.Background()

	testCases := []struct {
		name     string
		at       time.Time
		expected string
	}{
		{"before first commit", epoch.Add(-time.Minute), ""},
		{"exactly at a commit is inclusive", epoch.Add(1 * time.Hour), repo.hashes[1].String()},
		{"between commits", epoch.Add(90 * time.Minute), repo.hashes[1].String()},
		{"after the tip", epoch.Add(24 * time.Hour), repo.hashes[3].String()},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			rev, err := hist.RevBefore(ctx, "master", tc.at)
			require.NoError(t, err)
			assert.Equal(t, tc.expected, rev)
		})
	}
}

func TestNativeHistory_ShortlogCounts(t *testing.T) {
	repo := buildTestRepo(t)
	hist := openTestHistory(t, repo)
	ctx := context.Background()

	// Whole history.
	counts, err := hist.ShortlogCounts(ctx, domain.Range{Upper: "master"})
	require.NoError(t, err)
	assert.Equal(t, []AuthorCount{
		{Count: 2, Name: "alice"},
		{Count: 1, Name: "carol"},
		{Count: 1, Name: "bob"},
	}, counts)

	// Half-open range (v1.0, HEAD]: bob's tagged commit is excluded.
	counts, err = hist.ShortlogCounts(ctx, domain.Range{Lower: "v1.0", Upper: "master"})
	require.NoError(t, err)
	assert.Equal(t, []AuthorCount{
		{Count: 1, Name: "carol"},
		{Count: 1, Name: "alice"},
	}, counts)
}

func TestNativeHistory_CommitCount(t *testing.T) {
	repo := buildTestRepo(t)
	hist := openTestHistory(t, repo)
	ctx := context.Background()

	whole, err := hist.CommitCount(ctx, domain.Range{Upper: "master"})
	require.NoError(t, err)
	assert.Equal(t, 4, whole)

	upperHalf, err := hist.CommitCount(ctx, domain.Range{Lower: "v1.0", Upper: "master"})
	require.NoError(t, err)
	assert.Equal(t, 2, upperHalf)

	// Degenerate range: upper equals lower.
	empty, err := hist.CommitCount(ctx, domain.Range{Lower: "v1.0", Upper: "v1.0"})
	require.NoError(t, err)
	assert.Equal(t, 0, empty)
}

func TestNativeOpener_MissingRepository(t *testing.T) {
	opener := NewNativeOpener(t.TempDir(), testLogger())
	_, err := opener.Open(context.Background(), domain.RepositoryRef{Name: "ghost"})
	assert.Error(t, err)
}
