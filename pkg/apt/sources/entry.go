package sources

import (
	"fmt"
	"io"
	"net/url"
	"sort"
	"strings"
)

// SourceType represents the type of APT source entry
type SourceType string

const (
	SourceTypeDeb     SourceType = "deb"     // Binary packages
	SourceTypeSrc     SourceType = "deb-src" // Source packages
	SourceTypeUnknown SourceType = "unknown"
)

// Entry represents a single APT source entry from sources.list
type Entry struct {
	// Entry type (deb or deb-src)
	Type SourceType

	// Repository URI
	URI string

	// Distribution/Suite (e.g., "stable", "jammy", "bookworm")
	Distribution string

	// Components (e.g., "main", "contrib", "non-free")
	Components []string

	// Options in square brackets (e.g., arch=amd64, trusted=yes)
	Options map[string]string

	// Enabled is false for entries that are commented out
	Enabled bool

	// Line number in the source file
	LineNumber int
}

// String renders the entry as a one-line-style sources.list line
func (e Entry) String() string {
	var b strings.Builder
	if !e.Enabled {
		b.WriteString("#")
	}
	b.WriteString(string(e.Type))

	if len(e.Options) > 0 {
		keys := make([]string, 0, len(e.Options))
		for k := range e.Options {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		opts := make([]string, 0, len(keys))
		for _, k := range keys {
			opts = append(opts, k+"="+e.Options[k])
		}
		b.WriteString(" [" + strings.Join(opts, " ") + "]")
	}

	b.WriteString(" " + e.URI + " " + e.Distribution)
	for _, comp := range e.Components {
		b.WriteString(" " + comp)
	}
	return b.String()
}

// WriteSourcesList writes one line per entry
func WriteSourcesList(w io.Writer, entries []Entry) error {
	for _, e := range entries {
		if _, err := fmt.Fprintln(w, e.String()); err != nil {
			return err
		}
	}
	return nil
}

// validateURI validates that the URI is well-formed
func validateURI(uri string) error {
	if uri == "" {
		return fmt.Errorf("URI cannot be empty")
	}

	// Root directory is valid for some contexts
	if uri == "/" {
		return nil
	}

	if _, err := url.Parse(uri); err != nil {
		return fmt.Errorf("malformed URI: %w", err)
	}

	return nil
}

// isSourceLine checks if a line looks like a source line (starts with deb or deb-src)
func isSourceLine(line string) bool {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return false
	}
	return parseSourceType(fields[0]) != SourceTypeUnknown
}
