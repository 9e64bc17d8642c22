package sources

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/renameio"

	"github.com/nicwaller/bigmess/pkg/config"
)

// DataSuite is the architecture-independent suite shipped next to every release
const DataSuite = "data"

// Flavour selects the components of a snippet
type Flavour struct {
	Name       string
	Components []string
}

// Flavours are generated for every release and mirror
var Flavours = []Flavour{
	{Name: "full", Components: []string{"main", "contrib", "non-free"}},
	{Name: "libre", Components: []string{"main"}},
}

// Snippet is a sources.list fragment for one release, mirror and flavour
type Snippet struct {
	Release string
	Mirror  config.Mirror
	Flavour Flavour
	Entries []Entry
}

// Filename is <release>.<mirror>.<flavour>
func (s Snippet) Filename() string {
	return fmt.Sprintf("%s.%s.%s", s.Release, s.Mirror.Name, s.Flavour.Name)
}

// Snippets builds a snippet for every combination of release, mirror and
// flavour. The data suite gets no snippet of its own; it is listed in all
// others. Source lines are emitted disabled.
func Snippets(releases []string, mirrors []config.Mirror) []Snippet {
	var out []Snippet
	for _, release := range releases {
		if release == DataSuite {
			continue
		}
		for _, mirror := range mirrors {
			for _, flavour := range Flavours {
				s := Snippet{Release: release, Mirror: mirror, Flavour: flavour}
				for _, dist := range []string{DataSuite, release} {
					for _, typ := range []SourceType{SourceTypeDeb, SourceTypeSrc} {
						s.Entries = append(s.Entries, Entry{
							Type:         typ,
							URI:          mirror.URL,
							Distribution: dist,
							Components:   flavour.Components,
							Enabled:      typ == SourceTypeDeb,
						})
					}
				}
				out = append(out, s)
			}
		}
	}
	return out
}

// WriteFile atomically replaces dir/<filename> with the snippet. A file
// already listing the same entries is left untouched.
func (s Snippet) WriteFile(dir string) (string, error) {
	var buf bytes.Buffer
	if err := WriteSourcesList(&buf, s.Entries); err != nil {
		return "", err
	}
	target := filepath.Join(dir, s.Filename())
	if s.current(target) {
		return target, nil
	}
	if err := renameio.WriteFile(target, buf.Bytes(), 0644); err != nil {
		return "", fmt.Errorf("writing %s: %w", target, err)
	}
	return target, nil
}


// current reports whether path parses to exactly the snippet's entries
func (s Snippet) current(path string) bool {
	f, err := os.Open(path)
	if err != nil {
		return false
	}
	defer f.Close()

	existing, err := ParseSourcesList(f)
	if err != nil || len(existing) != len(s.Entries) {
		return false
	}
	for i, entry := range existing {
		if entry.String() != s.Entries[i].String() {
			return false
		}
	}
	return true
}
