package gateway

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/google/go-github/v62/github"
	"github.com/shurcooL/githubv4"
	"golang.org/x/oauth2"

	"github.com/gofri/go-github-ratelimit/github_ratelimit"

	"github.com/naka-gawa/contrib-tally/internal/domain"
)

// GitHubOpener queries repository history through the GitHub API instead of
// a local mirror, using the REST client for ref resolution and commit
// listing and the GraphQL client for commit counts.
//
// Revision ranges are realized as commit-date windows on the requested
// revision's ancestry, which matches the attribution rule's date semantics.
type GitHubOpener struct {
	restClient    *github.Client
	graphqlClient *githubv4.Client
	logger        *log.Logger
}

// NewGitHubOpener is a constructor that creates a new instance of GitHubOpener.
func NewGitHubOpener(token string, logger *log.Logger) (*GitHubOpener, error) {
	rateLimitWaiter, err := github_ratelimit.NewRateLimitWaiter(nil, github_ratelimit.WithSingleSleepLimit(1*time.Hour, nil))
	if err != nil {
		return nil, fmt.Errorf("failed to create rate limit waiter: %w", err)
	}
	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
	httpClient := &http.Client{
		Transport: &oauth2.Transport{
			Base:   rateLimitWaiter,
			Source: ts,
		},
	}
	return &GitHubOpener{
		restClient:    github.NewClient(httpClient),
		graphqlClient: githubv4.NewClient(httpClient),
		logger:        logger,
	}, nil
}

func (o *GitHubOpener) Open(ctx context.Context, repo domain.RepositoryRef) (History, error) {
	owner, name, ok := splitOwnerRepo(repo.CanonicalID)
	if !ok {
		return nil, fmt.Errorf("repository %s: canonical id %q is not owner/name", repo.Name, repo.CanonicalID)
	}
	return &githubHistory{
		owner:   owner,
		name:    name,
		rest:    o.restClient,
		graphql: o.graphqlClient,
		logger:  o.logger,
	}, nil
}

// splitOwnerRepo accepts "owner/name" as well as github.com clone URLs.
func splitOwnerRepo(id string) (owner, name string, ok bool) {
	id = strings.TrimSuffix(id, ".git")
	if i := strings.Index(id, "github.com/"); i >= 0 {
		id = id[i+len("github.com/"):]
	}
	owner, name, ok = strings.Cut(strings.Trim(id, "/"), "/")
	if !ok || owner == "" || name == "" || strings.Contains(name, "/") {
		return "", "", false
	}
	return owner, name, true
}

type githubHistory struct {
	owner   string
	name    string
	rest    *github.Client
	graphql *githubv4.Client
	logger  *log.Logger
}

// commitCountQuery asks for the size of the commit history below one
// revision, optionally bounded below by a committer date.
type commitCountQuery struct {
	Repository struct {
		Object struct {
			Commit struct {
				History struct {
					TotalCount githubv4.Int
				} `graphql:"history(since: $since)"`
			} `graphql:"... on Commit"`
		} `graphql:"object(expression: $expr)"`
	} `graphql:"repository(owner: $owner, name: $name)"`
}

func (h *githubHistory) LatestCommitTime(ctx context.Context, ref string) (time.Time, error) {
	commit, _, err := h.rest.Repositories.GetCommit(ctx, h.owner, h.name, ref, nil)
	if err != nil {
		var ghErr *github.ErrorResponse
		if errors.As(err, &ghErr) && ghErr.Response != nil &&
			(ghErr.Response.StatusCode == http.StatusNotFound || ghErr.Response.StatusCode == http.StatusUnprocessableEntity) {
			return time.Time{}, fmt.Errorf("%s: %w", ref, ErrRefNotFound)
		}
		return time.Time{}, fmt.Errorf("failed to fetch commit %s: %w", ref, err)
	}
	return commit.GetCommit().GetCommitter().GetDate().Time.UTC(), nil
}

func (h *githubHistory) RevBefore(ctx context.Context, branch string, t time.Time) (string, error) {
	opts := &github.CommitsListOptions{
		SHA:         branch,
		Until:       t.UTC(),
		ListOptions: github.ListOptions{PerPage: 1},
	}
	commits, _, err := h.rest.Repositories.ListCommits(ctx, h.owner, h.name, opts)
	if err != nil {
		return "", fmt.Errorf("failed to list commits of %s before %s: %w", branch, t.Format(time.RFC3339), err)
	}
	if len(commits) == 0 {
		return "", nil // beginning of history
	}
	return commits[0].GetSHA(), nil
}

func (h *githubHistory) ShortlogCounts(ctx context.Context, rng domain.Range) ([]AuthorCount, error) {
	h.logger.Printf("Fetching commit log of %s/%s using REST API...", h.owner, h.name)
	opts := &github.CommitsListOptions{
		SHA:         rng.Upper,
		ListOptions: github.ListOptions{PerPage: 100},
	}
	if !rng.FromStart() {
		lowerTime, err := h.LatestCommitTime(ctx, rng.Lower)
		if err != nil {
			return nil, err
		}
		// GitHub's since is inclusive; shift by a second to keep the
		// window half-open at the lower boundary.
		opts.Since = lowerTime.Add(time.Second)
	}
	counts := make(map[string]int)
	var seen []string
	for {
		commits, resp, err := h.rest.Repositories.ListCommits(ctx, h.owner, h.name, opts)
		if err != nil {
			return nil, fmt.Errorf("failed to list commits with REST API: %w", err)
		}
		for _, commit := range commits {
			name := commit.GetCommit().GetAuthor().GetName()
			if _, ok := counts[name]; !ok {
				seen = append(seen, name)
			}
			counts[name]++
		}
		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
		h.logger.Println("  Fetching next page of commits...")
	}
	return sortedAuthorCounts(counts, seen), nil
}

func (h *githubHistory) CommitCount(ctx context.Context, rng domain.Range) (int, error) {
	since := (*githubv4.GitTimestamp)(nil)
	if !rng.FromStart() {
		lowerTime, err := h.LatestCommitTime(ctx, rng.Lower)
		if err != nil {
			return 0, err
		}
		since = &githubv4.GitTimestamp{Time: lowerTime.Add(time.Second)}
	}
	variables := map[string]interface{}{
		"owner": githubv4.String(h.owner),
		"name":  githubv4.String(h.name),
		"expr":  githubv4.String(rng.Upper),
		"since": since,
	}
	var q commitCountQuery
	if err := h.graphql.Query(ctx, &q, variables); err != nil {
		return 0, fmt.Errorf("failed to execute GraphQL query for commit count: %w", err)
	}
	return int(q.Repository.Object.Commit.History.TotalCount), nil
}
