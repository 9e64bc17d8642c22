package rfc822

import (
	"bufio"
	"fmt"
	"io"
	"regexp"
	"strings"
)

// MaxLineSize bounds a single physical line; long Description or Binary
// fields in real archives exceed bufio's 64KiB default.
const MaxLineSize = 2 * 1024 * 1024

// ASCII printable chars except space (0x20) and colon (0x3A)
var validFieldName = regexp.MustCompile(`^[!-9;-~]+$`)

// MalformedLineError describes a line that could not be interpreted as part
// of a header section.
type MalformedLineError struct {
	Line   int
	Text   string
	Reason string
}

func (e *MalformedLineError) Error() string {
	return fmt.Sprintf("line %d: %s: %q", e.Line, e.Reason, e.Text)
}

// Parser parses RFC822-style messages
type Parser struct {
	// OnMalformed switches the parser to lenient mode. Instead of failing,
	// every malformed line is reported here and skipped.
	OnMalformed func(err *MalformedLineError)
}

// NewParser creates a new RFC822-style message parser
func NewParser() *Parser {
	return &Parser{}
}

// ParseHeader parses a single RFC822 header section and returns it as a Header
func (p *Parser) ParseHeader(r io.Reader) (Header, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), MaxLineSize)

	var header Header
	var currentField string
	var currentValue strings.Builder
	lineNumber := 0

	// skipping is true while continuation lines belong to a rejected field
	skipping := false

	flushCurrentField := func() {
		if currentField != "" {
			value := strings.TrimSpace(currentValue.String())
			lines := strings.Split(value, "\n")
			header = append(header, Field{
				Name:  currentField,
				Value: lines,
			})
			currentField = ""
			currentValue.Reset()
		}
	}

	malformed := func(line, reason string) error {
		err := &MalformedLineError{Line: lineNumber, Text: line, Reason: reason}
		if p.OnMalformed == nil {
			return err
		}
		p.OnMalformed(err)
		return nil
	}

	for scanner.Scan() {
		lineNumber++
		line := scanner.Text()

		// Skip comment lines ('#' in the first column)
		// This is not technically part of RFC822; comment lines are introduced by deb822
		// But it's way easier to just implement here.
		// An indented '#' is ordinary continuation text.
		if strings.HasPrefix(line, "#") {
			continue
		}

		// Empty line indicates end of header section
		if strings.TrimSpace(line) == "" {
			break
		}

		// Continuation line (starts with space or tab)
		if line[0] == ' ' || line[0] == '\t' {
			if skipping {
				continue
			}
			if currentField == "" {
				if err := malformed(line, "continuation line without field"); err != nil {
					return nil, err
				}
				continue
			}
			currentValue.WriteString("\n")
			currentValue.WriteString(strings.TrimLeft(line, " \t"))
			continue
		}

		// New field line
		flushCurrentField()
		skipping = false

		parts := strings.SplitN(line, ":", 2)
		if len(parts) != 2 {
			if err := malformed(line, "invalid field line"); err != nil {
				return nil, err
			}
			skipping = true
			continue
		}

		fieldName := strings.TrimSpace(parts[0])
		if err := p.validateFieldName(fieldName); err != nil {
			if err := malformed(line, fmt.Sprintf("invalid field name %q: %v", fieldName, err)); err != nil {
				return nil, err
			}
			skipping = true
			continue
		}

		// The first occurrence wins in lenient mode
		if header.Has(fieldName) {
			if err := malformed(line, fmt.Sprintf("duplicate field %q in header", fieldName)); err != nil {
				return nil, err
			}
			skipping = true
			continue
		}

		currentField = fieldName
		currentValue.WriteString(strings.TrimLeft(parts[1], " \t"))
	}

	flushCurrentField()

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scanner error: %w", err)
	}

	return header, nil
}

// validateFieldName checks if a field name is valid according to RFC822 rules
func (p *Parser) validateFieldName(name string) error {
	if name == "" {
		return fmt.Errorf("field name cannot be empty")
	}

	if strings.HasPrefix(name, "#") || strings.HasPrefix(name, "-") {
		return fmt.Errorf("field name cannot start with '#' or '-'")
	}

	// Field names must use only US-ASCII characters, excluding control characters, spaces, and colons
	if !validFieldName.MatchString(name) {
		return fmt.Errorf("field name contains invalid characters (must be US-ASCII excluding control chars, spaces, and colons)")
	}

	return nil
}
