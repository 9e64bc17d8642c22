package deb822

import (
	"errors"
	"fmt"
)

var (
	// ErrMissingField is wrapped by a ParseError when a mandatory field is absent
	ErrMissingField = errors.New("missing mandatory field")

	// ErrNoParagraphs means a document had content but no recognizable stanza
	ErrNoParagraphs = errors.New("no paragraphs found")
)

// ParseError reports a stanza that could not be turned into a typed record.
// Kind names the document shape ("release", "sources", "packages", "tasks")
// and Index is the zero-based stanza position within the document.
type ParseError struct {
	Kind  string
	Field string
	Index int
	Err   error
}

func (e *ParseError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s stanza %d: field %s: %v", e.Kind, e.Index, e.Field, e.Err)
	}
	return fmt.Sprintf("%s stanza %d: %v", e.Kind, e.Index, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

func missingField(kind string, index int, field string) *ParseError {
	return &ParseError{Kind: kind, Field: field, Index: index, Err: ErrMissingField}
}
