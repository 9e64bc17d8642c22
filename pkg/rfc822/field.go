package rfc822

import (
	"fmt"
	"strings"
)

// Header represents a single header section in an RFC822-style message
// Fields are stored in a slice to preserve the original ordering
type Header []Field

// Field represents a single field in an RFC822-style message
type Field struct {
	Name  string
	Value FieldValues
}

// String() is used to display values in the Go debugger
func (f Field) String() string {
	return fmt.Sprintf("%s: %s", f.Name, f.Value.String())
}

// FieldValues are stored as a slice of strings in order to permit flexible handling of multi-line fields.
// Simple fields are unfolded into one logical line, while Description keeps
// its first line (the synopsis) apart from the extended text.
type FieldValues []string

// Unfold returns the field value as a single logical line according to RFC822 unfolding rules
// CRLF immediately followed by LWSP-char is replaced with the LWSP-char (space).
func (f FieldValues) Unfold() string {
	return strings.Join(f, " ")
}

// First returns the first physical line of the value
func (f FieldValues) First() string {
	if len(f) == 0 {
		return ""
	}
	return f[0]
}

// Rest returns every line after the first one
func (f FieldValues) Rest() []string {
	if len(f) < 2 {
		return nil
	}
	return f[1:]
}

// String() is used to display values in the Go debugger
func (f FieldValues) String() string {
	return f.Unfold()
}
