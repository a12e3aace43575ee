package repo

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/google/go-github/v66/github"
)

// GitHubAccessor implements Accessor against the GitHub REST API.
type GitHubAccessor struct {
	client *github.Client
	owner  string
	repo   string
}

// NewGitHubAccessor creates an accessor for owner/repo authenticated with token.
func NewGitHubAccessor(token, owner, repo string) *GitHubAccessor {
	return &GitHubAccessor{
		client: github.NewClient(nil).WithAuthToken(token),
		owner:  owner,
		repo:   repo,
	}
}

// NewGitHubAccessorWithClient creates an accessor around an existing client.
// Used by tests and by callers that configure transport themselves.
func NewGitHubAccessorWithClient(client *github.Client, owner, repo string) *GitHubAccessor {
	return &GitHubAccessor{client: client, owner: owner, repo: repo}
}

// GetTree returns the flat recursive tree of the branch head commit.
func (a *GitHubAccessor) GetTree(ctx context.Context, branch string) ([]TreeEntry, error) {
	var entries []TreeEntry

	err := retryWithBackoff(func() error {
		br, _, err := a.client.Repositories.GetBranch(ctx, a.owner, a.repo, branch, 0)
		if err != nil {
			return classifyError("get branch", err)
		}

		tree, _, err := a.client.Git.GetTree(ctx, a.owner, a.repo, br.GetCommit().GetSHA(), true)
		if err != nil {
			return classifyError("get tree", err)
		}

		entries = entries[:0]
		for _, e := range tree.Entries {
			entries = append(entries, TreeEntry{
				Path: e.GetPath(),
				Type: e.GetType(),
			})
		}

		if tree.GetTruncated() {
			log.Printf("[GitHub] Tree listing for %s/%s@%s truncated by API", a.owner, a.repo, branch)
		}

		return nil
	})

	return entries, err
}

// GetFile fetches a single file via the contents API. The returned revision
// identifier is the blob SHA, which WriteFile requires for safe updates.
func (a *GitHubAccessor) GetFile(ctx context.Context, path, branch string) (*FileRecord, error) {
	fc, _, resp, err := a.client.Repositories.GetContents(ctx, a.owner, a.repo, path, &github.RepositoryContentGetOptions{
		Ref: branch,
	})
	if err != nil {
		if resp != nil && resp.StatusCode == 404 {
			return nil, ErrNotFound
		}
		return nil, classifyError("get file", err)
	}

	// A directory path returns directory content instead of a file.
	if fc == nil {
		return nil, ErrNotFound
	}

	content, err := fc.GetContent()
	if err != nil {
		return nil, fmt.Errorf("failed to decode content of %s: %w", path, err)
	}

	return &FileRecord{
		Path:       path,
		Content:    content,
		RevisionID: fc.GetSHA(),
	}, nil
}

// WriteFile creates or updates a file. A non-empty expectedRevision is passed
// as the blob SHA precondition; GitHub rejects the write with a conflict when
// the remote file no longer has that SHA.
func (a *GitHubAccessor) WriteFile(ctx context.Context, path, content, message, branch, expectedRevision string) error {
	opts := &github.RepositoryContentFileOptions{
		Message: github.String(message),
		Content: []byte(content),
		Branch:  github.String(branch),
	}

	var err error
	if expectedRevision != "" {
		opts.SHA = github.String(expectedRevision)
		_, _, err = a.client.Repositories.UpdateFile(ctx, a.owner, a.repo, path, opts)
	} else {
		_, _, err = a.client.Repositories.CreateFile(ctx, a.owner, a.repo, path, opts)
	}

	if err != nil {
		if isConflictError(err) {
			return &RevisionConflictError{Path: path, ExpectedRevision: expectedRevision}
		}
		return classifyError("write file", err)
	}

	return nil
}

// Search runs a code search scoped to the accessor's repository.
func (a *GitHubAccessor) Search(ctx context.Context, term string) ([]string, error) {
	query := fmt.Sprintf("%s repo:%s/%s", term, a.owner, a.repo)

	var paths []string
	err := retryWithBackoff(func() error {
		result, _, err := a.client.Search.Code(ctx, query, &github.SearchOptions{
			ListOptions: github.ListOptions{PerPage: 30},
		})
		if err != nil {
			return classifyError("search", err)
		}

		paths = paths[:0]
		for _, r := range result.CodeResults {
			paths = append(paths, r.GetPath())
		}
		return nil
	})

	return paths, err
}

// classifyError maps API failures into the accessor error taxonomy.
func classifyError(op string, err error) error {
	var er *github.ErrorResponse
	if errors.As(err, &er) && er.Response != nil {
		switch er.Response.StatusCode {
		case 404:
			return ErrNotFound
		case 409:
			return &RemoteError{Op: op, Err: err}
		}
	}
	return &RemoteError{Op: op, Err: err}
}

// isConflictError reports whether an API error is a blob SHA mismatch.
// GitHub returns 409 for stale SHAs and 422 when the SHA field itself is
// rejected (e.g. creating a file that already exists).
func isConflictError(err error) bool {
	var er *github.ErrorResponse
	if errors.As(err, &er) && er.Response != nil {
		if er.Response.StatusCode == 409 {
			return true
		}
		if er.Response.StatusCode == 422 && strings.Contains(strings.ToLower(er.Message), "sha") {
			return true
		}
	}
	return false
}
