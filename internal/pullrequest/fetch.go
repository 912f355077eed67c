package pullrequest

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/bmatcuk/doublestar"
	"github.com/google/go-github/v66/github"
	"golang.org/x/oauth2"
	"golang.org/x/sync/errgroup"
)

const perPage = 100

// GitHubFetcher loads pull requests from the GitHub REST API.
type GitHubFetcher struct {
	client  *github.Client
	exclude []string
}

// NewGitHubFetcher creates a fetcher authenticated with token. Files whose
// names match any of the exclude globs are dropped from snapshots.
func NewGitHubFetcher(ctx context.Context, token string, exclude []string) *GitHubFetcher {
	var hc *http.Client
	if token != "" {
		hc = oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token}))
	}
	return &GitHubFetcher{client: github.NewClient(hc), exclude: exclude}
}

// WithBaseURL points the fetcher at a GitHub Enterprise or test server.
func (f *GitHubFetcher) WithBaseURL(baseURL string) (*GitHubFetcher, error) {
	c, err := f.client.WithEnterpriseURLs(baseURL, baseURL)
	if err != nil {
		return nil, fmt.Errorf("set base URL: %w", err)
	}
	return &GitHubFetcher{client: c, exclude: f.exclude}, nil
}

// Fetch retrieves metadata, changed files and issue comments concurrently
// and builds a Snapshot.
func (f *GitHubFetcher) Fetch(ctx context.Context, owner, repo string, number int) (*Snapshot, error) {
	var (
		pr       *github.PullRequest
		files    []*github.CommitFile
		comments []*github.IssueComment
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		pr, _, err = f.client.PullRequests.Get(gctx, owner, repo, number)
		if err != nil {
			return fmt.Errorf("get pull request: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		opts := &github.ListOptions{PerPage: perPage}
		for {
			page, resp, err := f.client.PullRequests.ListFiles(gctx, owner, repo, number, opts)
			if err != nil {
				return fmt.Errorf("list files: %w", err)
			}
			files = append(files, page...)
			if resp.NextPage == 0 {
				return nil
			}
			opts.Page = resp.NextPage
		}
	})
	g.Go(func() error {
		opts := &github.IssueListCommentsOptions{ListOptions: github.ListOptions{PerPage: perPage}}
		for {
			page, resp, err := f.client.Issues.ListComments(gctx, owner, repo, number, opts)
			if err != nil {
				return fmt.Errorf("list comments: %w", err)
			}
			comments = append(comments, page...)
			if resp.NextPage == 0 {
				return nil
			}
			opts.Page = resp.NextPage
		}
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var changes []FileChange
	for _, cf := range files {
		if f.excluded(cf.GetFilename()) {
			slog.Debug("excluding file", "filename", cf.GetFilename())
			continue
		}
		changes = append(changes, FileChange{
			Filename:  cf.GetFilename(),
			Status:    FileStatus(cf.GetStatus()),
			Additions: cf.GetAdditions(),
			Deletions: cf.GetDeletions(),
			Patch:     cf.GetPatch(),
		})
	}

	var notes []Comment
	for _, c := range comments {
		notes = append(notes, Comment{
			Author:    c.GetUser().GetLogin(),
			CreatedAt: c.GetCreatedAt().Time,
			Body:      c.GetBody(),
		})
	}

	return New(Meta{
		Number:      pr.GetNumber(),
		Title:       pr.GetTitle(),
		Author:      pr.GetUser().GetLogin(),
		Description: pr.GetBody(),
		URL:         pr.GetHTMLURL(),
	}, changes, notes)
}

func (f *GitHubFetcher) excluded(name string) bool {
	return Excluded(name, f.exclude)
}

// Excluded reports whether name matches any of the glob patterns.
func Excluded(name string, patterns []string) bool {
	for _, p := range patterns {
		if ok, _ := doublestar.Match(p, name); ok {
			return true
		}
	}
	return false
}
