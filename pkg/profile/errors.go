package profile

import (
	"fmt"
	"strings"
)

// MalformedProfileError reports a document with a missing or mistyped key.
// Key is empty when the document could not be decoded at all.
type MalformedProfileError struct {
	Path string
	Key  string
	Err  error
}

func (e *MalformedProfileError) Error() string {
	if e.Key == "" {
		return fmt.Sprintf("malformed profile '%s': %v", e.Path, e.Err)
	}
	return fmt.Sprintf("malformed profile '%s': key '%s': %v", e.Path, e.Key, e.Err)
}

func (e *MalformedProfileError) Unwrap() error {
	return e.Err
}

type DuplicateProfileNameError struct {
	Name  string
	Paths []string
}

func (e *DuplicateProfileNameError) Error() string {
	return fmt.Sprintf("duplicate profile name '%s' in: %s", e.Name, strings.Join(e.Paths, ", "))
}
