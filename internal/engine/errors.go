package engine

import (
	"errors"
	"fmt"
)

// AmbiguousError reports that a replacement target occurs more than once in
// the file, violating the exactly-one-occurrence precondition.
type AmbiguousError struct {
	Path        string
	Occurrences int
}

func (e *AmbiguousError) Error() string {
	return fmt.Sprintf("old string occurs %d times in %s, must occur exactly once", e.Occurrences, e.Path)
}

// IsAmbiguous reports whether the error is an edit-ambiguity failure.
func IsAmbiguous(err error) bool {
	var target *AmbiguousError
	return errors.As(err, &target)
}

// StringNotFoundError reports that a replacement target does not occur in
// the file at all.
type StringNotFoundError struct {
	Path string
}

func (e *StringNotFoundError) Error() string {
	return fmt.Sprintf("old string not found in %s", e.Path)
}

// IsStringNotFound reports whether the error is a missing-target failure.
func IsStringNotFound(err error) bool {
	var target *StringNotFoundError
	return errors.As(err, &target)
}
