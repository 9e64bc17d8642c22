package deb822

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/nicwaller/bigmess/pkg/rfc822"
)

// HashEntry is one line of the SHA256 field
type HashEntry struct {
	Hash string
	Size int64
	Path string
}

// Release represents an APT Release file
type Release struct {
	// Mandatory fields
	Suite         string // Suite or Codename (at least one required)
	Codename      string
	Architectures []string
	Components    []string

	Origin      string
	Label       string
	Version     string
	Description string
	Date        time.Time
	SHA256      []HashEntry

	header rfc822.Header
}

// Name is the identifier releases are recorded under: the codename, or the
// suite when a repository does not publish one.
func (r *Release) Name() string {
	if r.Codename != "" {
		return r.Codename
	}
	return r.Suite
}

// ParseRelease parses an APT Release file from the given reader
func ParseRelease(r io.Reader, opts ...ParseOption) (*Release, error) {
	var header rfc822.Header
	found := false
	for rec, err := range ParseRecords(r, opts...) {
		if err != nil {
			return nil, fmt.Errorf("parsing release file: %w", err)
		}
		header = rec
		found = true
		break // Release files contain only one record
	}

	if !found {
		return nil, fmt.Errorf("parsing release file: %w", ErrNoParagraphs)
	}

	release := &Release{header: header}
	if err := release.parseFields(); err != nil {
		return nil, err
	}

	return release, nil
}

func (r *Release) parseFields() error {
	r.Suite = r.header.Get("Suite")
	r.Codename = r.header.Get("Codename")

	// At least one of Suite or Codename must be present
	if r.Suite == "" && r.Codename == "" {
		return missingField("release", 0, "Codename")
	}

	r.Architectures = strings.Fields(r.header.Get("Architectures"))
	if len(r.Architectures) == 0 {
		return missingField("release", 0, "Architectures")
	}

	r.Components = strings.Fields(r.header.Get("Components"))
	if len(r.Components) == 0 {
		return missingField("release", 0, "Components")
	}

	r.Origin = r.header.Get("Origin")
	r.Label = r.header.Get("Label")
	r.Version = r.header.Get("Version")
	r.Description = r.header.Get("Description")

	if dateField := r.header.Get("Date"); dateField != "" {
		date, err := parseRFC1123(dateField)
		if err != nil {
			return &ParseError{Kind: "release", Field: "Date", Err: err}
		}
		r.Date = date
	}

	if sha256Lines := r.header.GetLines("SHA256"); len(sha256Lines) > 0 {
		entries, err := parseHashEntries(sha256Lines)
		if err != nil {
			return &ParseError{Kind: "release", Field: "SHA256", Err: err}
		}
		r.SHA256 = entries
	}

	return nil
}

// parseHashEntries parses hash field lines into HashEntry structs
// Each line format: "hash size path"
func parseHashEntries(lines []string) ([]HashEntry, error) {
	var entries []HashEntry

	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		parts := strings.Fields(line)
		if len(parts) != 3 {
			return nil, fmt.Errorf("invalid hash entry format: %q (expected 3 fields)", line)
		}

		size, err := strconv.ParseInt(parts[1], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid size in hash entry %q: %w", line, err)
		}

		entries = append(entries, HashEntry{
			Hash: parts[0],
			Size: size,
			Path: parts[2],
		})
	}

	return entries, nil
}

var releaseDateLayouts = []string{
	time.RFC1123,
	time.RFC1123Z,
	"Mon, 2 Jan 2006 15:04:05 MST",
	"Mon, 2 Jan 2006 15:04:05 -0700",
	"02 Jan 2006 15:04:05 MST",
	"2 Jan 2006 15:04:05 MST",
	time.ANSIC,
}

// parseRFC1123 parses APT date format (RFC 1123 with variations)
func parseRFC1123(dateStr string) (time.Time, error) {
	for _, layout := range releaseDateLayouts {
		if t, err := time.Parse(layout, dateStr); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unable to parse date %q with any known APT date format", dateStr)
}
