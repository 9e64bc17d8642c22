package deb822

import (
	"fmt"
	"io"
	"iter"
	"strconv"
	"strings"

	"github.com/nicwaller/bigmess/pkg/rfc822"
)

// Package represents a single package entry from an APT Packages file
type Package struct {
	// Mandatory fields
	Package string
	Version string

	Architecture string
	Source       string
	Maintainer   string
	Homepage     string
	Section      string
	Priority     string

	// Description keeps the synopsis as its first line
	Description rfc822.FieldValues

	Depends    string
	Recommends string
	Suggests   string

	Filename      string
	Size          int64
	InstalledSize int64

	header rfc822.Header
}

// ParsePackages parses an APT Packages file and returns an iterator over Package entries
func ParsePackages(r io.Reader, opts ...ParseOption) iter.Seq2[*Package, error] {
	return func(yield func(*Package, error) bool) {
		index := 0
		for header, err := range ParseRecords(r, opts...) {
			if err != nil {
				yield(nil, err)
				return
			}

			pkg := &Package{header: header}
			if err := pkg.parseFields(index); err != nil {
				yield(nil, err)
				return
			}
			index++

			if !yield(pkg, nil) {
				return // Stop iteration if yield returns false
			}
		}
	}
}

func (p *Package) parseFields(index int) error {
	p.Package = p.header.Get("Package")
	if p.Package == "" {
		return missingField("packages", index, "Package")
	}
	p.Version = p.header.Get("Version")
	if p.Version == "" {
		return missingField("packages", index, "Version")
	}

	p.Architecture = p.header.Get("Architecture")
	p.Source = p.header.Get("Source")
	p.Maintainer = p.header.Get("Maintainer")
	p.Homepage = p.header.Get("Homepage")
	p.Section = p.header.Get("Section")
	p.Priority = p.header.Get("Priority")
	p.Description = p.header.GetLines("Description")

	p.Depends = p.header.Get("Depends")
	p.Recommends = p.header.Get("Recommends")
	p.Suggests = p.header.Get("Suggests")

	p.Filename = p.header.Get("Filename")

	var err error
	if p.Size, err = parseSize(p.header.Get("Size")); err != nil {
		return &ParseError{Kind: "packages", Field: "Size", Index: index, Err: err}
	}
	if p.InstalledSize, err = parseSize(p.header.Get("Installed-Size")); err != nil {
		return &ParseError{Kind: "packages", Field: "Installed-Size", Index: index, Err: err}
	}

	return nil
}

func parseSize(value string) (int64, error) {
	if value == "" {
		return 0, nil
	}
	size, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid size %q: %w", value, err)
	}
	return size, nil
}

// SourceName returns the owning source package. Source defaults to the
// binary name and may carry a "(version)" suffix when the versions differ.
func (p *Package) SourceName() string {
	src := p.Source
	if i := strings.IndexByte(src, '('); i >= 0 {
		src = src[:i]
	}
	src = strings.TrimSpace(src)
	if src == "" {
		return p.Package
	}
	return src
}

// ShortDescription is the synopsis line of Description
func (p *Package) ShortDescription() string {
	return p.Description.First()
}

// LongDescription is the extended text of Description. Lines holding a
// single "." are paragraph separators and become empty lines.
func (p *Package) LongDescription() string {
	rest := p.Description.Rest()
	lines := make([]string, 0, len(rest))
	for _, line := range rest {
		if line == "." {
			line = ""
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}
