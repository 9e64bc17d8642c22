package deb822

import (
	"io"
	"iter"
	"strings"

	"github.com/nicwaller/bigmess/pkg/rfc822"
)

// Source represents a single stanza of an APT Sources index
type Source struct {
	Package  string
	Version  string
	Binaries []string

	Maintainer string
	Uploaders  string
	Homepage   string
	VcsBrowser string
	Section    string
	Priority   string
	Format     string
	Directory  string

	header rfc822.Header
}

// ParseSources returns an iterator over the stanzas of a Sources index
func ParseSources(r io.Reader, opts ...ParseOption) iter.Seq2[*Source, error] {
	return func(yield func(*Source, error) bool) {
		index := 0
		for header, err := range ParseRecords(r, opts...) {
			if err != nil {
				yield(nil, err)
				return
			}

			src := &Source{header: header}
			if err := src.parseFields(index); err != nil {
				yield(nil, err)
				return
			}
			index++

			if !yield(src, nil) {
				return
			}
		}
	}
}

func (s *Source) parseFields(index int) error {
	s.Package = s.header.Get("Package")
	if s.Package == "" {
		return missingField("sources", index, "Package")
	}
	s.Version = s.header.Get("Version")
	if s.Version == "" {
		return missingField("sources", index, "Version")
	}

	s.Binaries = splitCommaList(s.header.Get("Binary"))
	s.Maintainer = s.header.Get("Maintainer")
	s.Uploaders = s.header.Get("Uploaders")
	s.Homepage = s.header.Get("Homepage")
	s.VcsBrowser = s.header.Get("Vcs-Browser")
	s.Section = s.header.Get("Section")
	s.Priority = s.header.Get("Priority")
	s.Format = s.header.Get("Format")
	s.Directory = s.header.Get("Directory")
	return nil
}

// splitCommaList splits "a, b,c" into its trimmed, non-empty members
func splitCommaList(value string) []string {
	names := []string{}
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			names = append(names, part)
		}
	}
	return names
}
