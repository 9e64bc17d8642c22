package sources

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strings"
)

var optionsRegex = regexp.MustCompile(`^(\S+)\s+\[([^]]+)]\s*(.*)`)

// ParseSourcesList parses an entire sources.list file into a slice of entries.
// Commented-out source lines are kept as disabled entries; other comments
// are skipped.
func ParseSourcesList(r io.Reader) ([]Entry, error) {
	var entries []Entry
	scanner := bufio.NewScanner(r)
	lineNumber := 0

	for scanner.Scan() {
		lineNumber++
		line := strings.TrimSpace(scanner.Text())

		if line == "" {
			continue
		}

		disabled := strings.HasPrefix(line, "#")
		if disabled && !isSourceLine(strings.TrimLeft(line, "# \t")) {
			continue
		}

		entry, err := ParseSourceLine(line, lineNumber)
		if err != nil {
			if disabled {
				// prose that merely starts with "deb"
				continue
			}
			return nil, fmt.Errorf("line %d: %w", lineNumber, err)
		}

		entries = append(entries, *entry)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scanner error: %w", err)
	}

	return entries, nil
}

// ParseSourceLine parses a single line from sources.list. A leading "#"
// yields a disabled entry.
func ParseSourceLine(line string, lineNumber int) (*Entry, error) {
	line = strings.TrimSpace(line)

	enabled := true
	if strings.HasPrefix(line, "#") {
		enabled = false
		line = strings.TrimLeft(line, "# \t")
	}

	if line == "" {
		return nil, errors.New("empty line")
	}

	// Parse options in square brackets (they come after the source type)
	options := make(map[string]string)
	if match := optionsRegex.FindStringSubmatch(line); match != nil {
		line = match[1] + " " + match[3] // Reconstruct without options

		for _, opt := range strings.Fields(match[2]) {
			if parts := strings.SplitN(opt, "=", 2); len(parts) == 2 {
				options[parts[0]] = parts[1]
			} else {
				options[opt] = "true" // Options without values are treated as boolean true
			}
		}
	}

	fields := strings.Fields(line)
	if len(fields) < 3 {
		return nil, fmt.Errorf("invalid source line format: expected at least 3 fields (type, uri, distribution)")
	}

	sourceType := parseSourceType(fields[0])
	if sourceType == SourceTypeUnknown {
		return nil, fmt.Errorf("unknown source type: %s", fields[0])
	}

	uri := fields[1]
	if err := validateURI(uri); err != nil {
		return nil, fmt.Errorf("invalid URI: %w", err)
	}

	var components []string
	if len(fields) > 3 {
		components = fields[3:]
	}

	return &Entry{
		Type:         sourceType,
		URI:          uri,
		Distribution: fields[2],
		Components:   components,
		Options:      options,
		Enabled:      enabled,
		LineNumber:   lineNumber,
	}, nil
}

// parseSourceType converts string to SourceType
func parseSourceType(typeStr string) SourceType {
	switch strings.ToLower(typeStr) {
	case "deb":
		return SourceTypeDeb
	case "deb-src":
		return SourceTypeSrc
	default:
		return SourceTypeUnknown
	}
}
