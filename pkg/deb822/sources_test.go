package deb822

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleSources = `Package: afni
Binary: afni, afni-common,
 afni-dev
Version: 18.0.05+git24-gb25b21054~dfsg.1-1~nd100+1
Maintainer: NeuroDebian Team <team@neuro.debian.net>
Uploaders: Michael Hanke <mih@debian.org>, Yaroslav Halchenko <debian@onerussian.com>
Homepage: http://afni.nimh.nih.gov
Vcs-Browser: https://github.com/neurodebian/afni
Section: science
Priority: optional
Format: 3.0 (quilt)
Directory: pool/contrib/a/afni

Package: psychopy
Binary: psychopy
Version: 2020.2.10+dfsg-2
Maintainer: Debian Med <debian-med@lists.debian.org>
`

func TestParseSources(t *testing.T) {
	var sources []*Source
	for src, err := range ParseSources(strings.NewReader(sampleSources)) {
		require.NoError(t, err)
		sources = append(sources, src)
	}
	require.Len(t, sources, 2)

	afni := sources[0]
	assert.Equal(t, "afni", afni.Package)
	assert.Equal(t, "18.0.05+git24-gb25b21054~dfsg.1-1~nd100+1", afni.Version)
	assert.Equal(t, []string{"afni", "afni-common", "afni-dev"}, afni.Binaries)
	assert.Equal(t, "http://afni.nimh.nih.gov", afni.Homepage)
	assert.Equal(t, "https://github.com/neurodebian/afni", afni.VcsBrowser)
	assert.Equal(t, "NeuroDebian Team <team@neuro.debian.net>", afni.Maintainer)
	assert.Contains(t, afni.Uploaders, "Yaroslav Halchenko")
	assert.Equal(t, "3.0 (quilt)", afni.Format)
	assert.Equal(t, "pool/contrib/a/afni", afni.Directory)

	psychopy := sources[1]
	assert.Equal(t, []string{"psychopy"}, psychopy.Binaries)
	assert.Empty(t, psychopy.Homepage)
	assert.Equal(t, "Debian Med <debian-med@lists.debian.org>", psychopy.Maintainer)
}

func TestParseSourcesNoBinary(t *testing.T) {
	for src, err := range ParseSources(strings.NewReader("Package: lonely\nVersion: 1\n")) {
		require.NoError(t, err)
		assert.NotNil(t, src.Binaries)
		assert.Empty(t, src.Binaries)
	}
}

func TestParseSourcesMissingMandatory(t *testing.T) {
	tests := []struct {
		name  string
		input string
		field string
		index int
	}{
		{"missing version", "Package: foo\n", "Version", 0},
		{"missing package in second stanza", "Package: a\nVersion: 1\n\nVersion: 2\n", "Package", 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gotErr error
			for _, err := range ParseSources(strings.NewReader(tt.input)) {
				if err != nil {
					gotErr = err
				}
			}
			require.ErrorIs(t, gotErr, ErrMissingField)

			var perr *ParseError
			require.ErrorAs(t, gotErr, &perr)
			assert.Equal(t, "sources", perr.Kind)
			assert.Equal(t, tt.field, perr.Field)
			assert.Equal(t, tt.index, perr.Index)
		})
	}
}

func TestSplitCommaList(t *testing.T) {
	assert.Equal(t, []string{"a", "b", "c"}, splitCommaList("a, b,c"))
	assert.Equal(t, []string{"a"}, splitCommaList(" a ,, "))
	assert.Equal(t, []string{}, splitCommaList(""))
}
