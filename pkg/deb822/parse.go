package deb822

import (
	"bufio"
	"fmt"
	"io"
	"iter"
	"strings"

	"github.com/nicwaller/bigmess/pkg/rfc822"
)

// MaxFieldSize bounds a single physical line of an index document
const MaxFieldSize = rfc822.MaxLineSize

type parseConfig struct {
	onMalformed func(error)
}

// ParseOption customizes ParseRecords
type ParseOption func(*parseConfig)

// WithMalformedHandler makes the parser lenient: malformed lines are handed to
// fn and skipped instead of aborting the document.
func WithMalformedHandler(fn func(error)) ParseOption {
	return func(c *parseConfig) {
		c.onMalformed = fn
	}
}

// ParseRecords returns an iterator over multiple records from a deb822-style document
// Each record is separated by blank lines, which is a deb822 extension to RFC 822
func ParseRecords(r io.Reader, opts ...ParseOption) iter.Seq2[rfc822.Header, error] {
	var cfg parseConfig
	for _, opt := range opts {
		opt(&cfg)
	}

	return func(yield func(rfc822.Header, error) bool) {
		scanner := bufio.NewScanner(r)
		scanner.Buffer(make([]byte, 0, 64*1024), MaxFieldSize)

		var lines []string
		lineNumber := 0
		stanzaStart := 0
		sawContent := false
		yielded := 0

		parser := rfc822.NewParser()
		if cfg.onMalformed != nil {
			parser.OnMalformed = func(err *rfc822.MalformedLineError) {
				shifted := *err
				shifted.Line += stanzaStart
				cfg.onMalformed(&shifted)
			}
		}

		flushRecord := func() bool {
			if len(lines) == 0 {
				return true
			}
			content := strings.Join(lines, "\n")
			lines = lines[:0]

			record, err := parser.ParseHeader(strings.NewReader(content))
			if err != nil {
				yield(nil, fmt.Errorf("parsing record at line %d: %w", stanzaStart+1, err))
				return false
			}
			if len(record) == 0 {
				return true
			}
			yielded++
			return yield(record, nil)
		}

		for scanner.Scan() {
			lineNumber++
			line := scanner.Text()

			// Empty line indicates end of record
			if strings.TrimSpace(line) == "" {
				if !flushRecord() {
					return
				}
				continue
			}

			if len(lines) == 0 {
				stanzaStart = lineNumber - 1
			}
			if !strings.HasPrefix(line, "#") {
				sawContent = true
			}
			lines = append(lines, line)
		}

		if err := scanner.Err(); err != nil {
			yield(nil, fmt.Errorf("scanner error: %w", err))
			return
		}

		// Flush any remaining record
		if !flushRecord() {
			return
		}

		if sawContent && yielded == 0 {
			yield(nil, ErrNoParagraphs)
		}
	}
}
