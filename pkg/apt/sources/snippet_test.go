package sources

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nicwaller/bigmess/pkg/config"
)

func TestSnippets(t *testing.T) {
	mirrors := []config.Mirror{
		{Name: "us", URL: "http://us.example.org/debian"},
		{Name: "de", URL: "http://de.example.org/debian"},
	}
	snippets := Snippets([]string{"data", "bookworm", "trixie"}, mirrors)
	require.Len(t, snippets, 2*2*2)

	var names []string
	for _, s := range snippets {
		names = append(names, s.Filename())
	}
	assert.Equal(t, []string{
		"bookworm.us.full", "bookworm.us.libre",
		"bookworm.de.full", "bookworm.de.libre",
		"trixie.us.full", "trixie.us.libre",
		"trixie.de.full", "trixie.de.libre",
	}, names)
}

func TestSnippetWriteFile(t *testing.T) {
	dir := t.TempDir()
	snippets := Snippets([]string{"bookworm"}, []config.Mirror{{Name: "us", URL: "http://us.example.org/debian"}})
	require.Len(t, snippets, 2)

	tests := []struct {
		snippet Snippet
		want    string
	}{
		{
			snippet: snippets[0],
			want: `deb http://us.example.org/debian data main contrib non-free
#deb-src http://us.example.org/debian data main contrib non-free
deb http://us.example.org/debian bookworm main contrib non-free
#deb-src http://us.example.org/debian bookworm main contrib non-free
`,
		},
		{
			snippet: snippets[1],
			want: `deb http://us.example.org/debian data main
#deb-src http://us.example.org/debian data main
deb http://us.example.org/debian bookworm main
#deb-src http://us.example.org/debian bookworm main
`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.snippet.Filename(), func(t *testing.T) {
			path, err := tt.snippet.WriteFile(dir)
			require.NoError(t, err)
			assert.Equal(t, filepath.Join(dir, tt.snippet.Filename()), path)

			data, err := os.ReadFile(path)
			require.NoError(t, err)
			assert.Equal(t, tt.want, string(data))

			// the output reads back as the same entries
			entries, err := ParseSourcesList(strings.NewReader(string(data)))
			require.NoError(t, err)
			require.Len(t, entries, 4)
			assert.True(t, entries[0].Enabled)
			assert.False(t, entries[1].Enabled)
			assert.Equal(t, SourceTypeSrc, entries[1].Type)
			assert.Equal(t, "bookworm", entries[2].Distribution)
		})
	}
}

func TestSnippetWriteFileKeepsCurrentList(t *testing.T) {
	dir := t.TempDir()
	s := Snippets([]string{"bookworm"}, []config.Mirror{{Name: "us", URL: "http://us.example.org/debian"}})[1]
	target := filepath.Join(dir, s.Filename())

	// same entries, different layout
	same := "# generated\ndeb http://us.example.org/debian data main\n# deb-src http://us.example.org/debian data main\n\n" +
		"deb  http://us.example.org/debian bookworm main\n#deb-src http://us.example.org/debian bookworm main\n"
	require.NoError(t, os.WriteFile(target, []byte(same), 0644))
	_, err := s.WriteFile(dir)
	require.NoError(t, err)
	data, err := os.ReadFile(target)
	require.NoError(t, err)
	assert.Equal(t, same, string(data))

	// a stale list is rewritten
	stale := "deb http://old.example.org/debian bookworm main\n"
	require.NoError(t, os.WriteFile(target, []byte(stale), 0644))
	_, err = s.WriteFile(dir)
	require.NoError(t, err)
	data, err = os.ReadFile(target)
	require.NoError(t, err)
	assert.Contains(t, string(data), "deb http://us.example.org/debian bookworm main\n")
	assert.NotContains(t, string(data), "old.example.org")
}

func TestSnippetWriteFileMissingDir(t *testing.T) {
	s := Snippets([]string{"bookworm"}, []config.Mirror{{Name: "us", URL: "http://x"}})[0]
	_, err := s.WriteFile(filepath.Join(t.TempDir(), "missing"))
	assert.Error(t, err)
}
