package repo

import "context"

// FileRecord is a file fetched from the remote repository together with the
// revision identifier required to write it back safely.
type FileRecord struct {
	Path       string
	Content    string
	RevisionID string
}

// TreeEntry is one row of the flat repository tree listing.
type TreeEntry struct {
	Path string
	Type string // "blob" or "tree"
}

// Accessor is the interface for remote repository operations.
// This abstraction allows mocking the GitHub API in tests.
type Accessor interface {
	// GetTree returns the flat recursive tree listing for a branch.
	GetTree(ctx context.Context, branch string) ([]TreeEntry, error)

	// GetFile fetches a single file's content and revision identifier.
	// Returns ErrNotFound if the path does not exist or is a directory.
	GetFile(ctx context.Context, path, branch string) (*FileRecord, error)

	// WriteFile creates or updates a file. When expectedRevision is non-empty
	// the write only succeeds if the remote file still has that revision;
	// a mismatch returns a RevisionConflictError. An empty expectedRevision
	// creates a new file.
	WriteFile(ctx context.Context, path, content, message, branch, expectedRevision string) error

	// Search runs a full-text code search and returns matching file paths.
	Search(ctx context.Context, term string) ([]string, error)
}
