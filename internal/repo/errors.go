package repo

import (
	"errors"
	"fmt"
)

// ErrNotFound reports that a path does not exist in the repository.
// Callers treat it as recoverable: skip the path and continue.
var ErrNotFound = errors.New("file not found")

// RevisionConflictError reports that a write was rejected because the remote
// content changed after the revision identifier was fetched.
type RevisionConflictError struct {
	Path             string
	ExpectedRevision string
}

func (e *RevisionConflictError) Error() string {
	return fmt.Sprintf("revision conflict on %s: expected revision %s no longer current", e.Path, e.ExpectedRevision)
}

// IsRevisionConflict reports whether err originated from a rejected
// optimistic-concurrency write.
func IsRevisionConflict(err error) bool {
	var target *RevisionConflictError
	return errors.As(err, &target)
}

// RemoteError wraps a transient remote failure (network, API availability).
// Fan-out callers isolate it per operation instead of aborting sibling work.
type RemoteError struct {
	Op  string
	Err error
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("remote %s failed: %v", e.Op, e.Err)
}

func (e *RemoteError) Unwrap() error {
	return e.Err
}
