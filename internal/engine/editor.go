package engine

import (
	"context"
	"fmt"
	"strings"

	"github.com/stellarlink/repochat/internal/repo"
)

// Editor applies a single unique-string replacement against a specific file
// revision.
type Editor struct {
	accessor repo.Accessor
	branch   string
}

// NewEditor creates an editor writing to the given branch.
func NewEditor(accessor repo.Accessor, branch string) *Editor {
	return &Editor{accessor: accessor, branch: branch}
}

// Apply fetches the current content and revision of path fresh, verifies the
// old string occurs exactly once, performs one substitution and writes the
// result back with the just-fetched revision as an optimistic-concurrency
// precondition. A concurrent remote change fails the write with a
// RevisionConflictError instead of silently overwriting.
func (e *Editor) Apply(ctx context.Context, path, oldStr, newStr string) error {
	rec, err := e.accessor.GetFile(ctx, path, e.branch)
	if err != nil {
		return err
	}

	// Literal non-overlapping occurrence count.
	switch n := strings.Count(rec.Content, oldStr); {
	case n == 0:
		return &StringNotFoundError{Path: path}
	case n > 1:
		return &AmbiguousError{Path: path, Occurrences: n}
	}

	updated := strings.Replace(rec.Content, oldStr, newStr, 1)
	message := fmt.Sprintf("repochat: edit %s", path)

	return e.accessor.WriteFile(ctx, path, updated, message, e.branch, rec.RevisionID)
}
