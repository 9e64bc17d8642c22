package config

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleConfig = `[release files]
bookworm = http://neuro.debian.net/debian/dists/bookworm/Release
jammy = http://neuro.debian.net/debian/dists/jammy/Release

[release names]
data = Datasets (data)
bookworm = Debian GNU/Linux 12.0 (bookworm)
jammy = Ubuntu 22.04 LTS "Jammy Jellyfish" (jammy)

[release bases]
debian = http://deb.debian.org/debian
ubuntu = http://archive.ubuntu.com/ubuntu

[task files]
neuroimaging = http://blends.debian.org/med/tasks/imaging

[mirrors]
us-nh = http://neuro.debian.net/debian
de-m = http://apt.example.de/neurodebian

[metadata]
source extracts baseurl = http://neuro.debian.net/debian/extracts
source extracts filenames = upstream upstream.yml
`

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := load(nil, nil)
	require.NoError(t, err)

	assert.Equal(t, "1", cfg.Get("general", "verbose", ""))
	verbose, err := cfg.GetInt("general", "verbose", 0)
	require.NoError(t, err)
	assert.Equal(t, 1, verbose)
	assert.Equal(t, "fallback", cfg.Get("nosuch", "option", "fallback"))
	assert.Equal(t, "fallback", cfg.Get("general", "nosuch", "fallback"))
}

func TestLoadCascade(t *testing.T) {
	dir := t.TempDir()
	first := writeFile(t, dir, "first.cfg", "[general]\nverbose = 2\n\n[cache]\nbasedir = /first\n")
	second := writeFile(t, dir, "second.cfg", "[cache]\nBaseDir = /second\n")

	cfg, err := load([]string{first, filepath.Join(dir, "missing.cfg"), second}, nil)
	require.NoError(t, err)

	assert.Equal(t, "2", cfg.Get("general", "verbose", ""))
	assert.Equal(t, "/second", cfg.Get("cache", "basedir", ""), "later files win, keys are case-insensitive")
	assert.Equal(t, "/second", cfg.CacheDir())
}

func TestLoadEnvironment(t *testing.T) {
	environ := []string{
		"BIGMESS_VERBOSE=3",
		"BIGMESS_METADATA_SOURCE_EXTRACTS_BASEURL=http://env.example.org",
		"BIGMESS_SEC1_LONG_NAME=yes",
		"OTHER_VAR=ignored",
		"BIGMESS_=empty",
	}
	dir := t.TempDir()
	file := writeFile(t, dir, "bigmess.cfg", sampleConfig)

	cfg, err := load([]string{file}, environ)
	require.NoError(t, err)

	assert.Equal(t, "3", cfg.Get("general", "verbose", ""))
	assert.Equal(t, "http://env.example.org", cfg.Get("metadata", "source extracts baseurl", ""))
	assert.Equal(t, "yes", cfg.Get("sec1", "long name", ""))
	assert.False(t, cfg.HasSection("other"))
}

func TestEnvKey(t *testing.T) {
	tests := []struct {
		name    string
		section string
		key     string
	}{
		{"VERBOSE", "general", "verbose"},
		{"VERBOSE_OUTPUT", "verbose", "output"},
		{"SEC1_LONG_NAME", "sec1", "long name"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			section, key := envKey(tt.name)
			assert.Equal(t, tt.section, section)
			assert.Equal(t, tt.key, key)
		})
	}
}

func TestOptionsAndItems(t *testing.T) {
	dir := t.TempDir()
	cfg, err := load([]string{writeFile(t, dir, "bigmess.cfg", sampleConfig)}, nil)
	require.NoError(t, err)

	assert.Equal(t, []string{"data", "bookworm", "jammy"}, cfg.Options("release names"))
	assert.Nil(t, cfg.Options("nosuch"))

	items := cfg.Items("release bases")
	assert.Equal(t, []Item{
		{Key: "debian", Value: "http://deb.debian.org/debian"},
		{Key: "ubuntu", Value: "http://archive.ubuntu.com/ubuntu"},
	}, items)

	var buf bytes.Buffer
	_, err = cfg.WriteTo(&buf)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "[release bases]")
	assert.Contains(t, buf.String(), "http://deb.debian.org/debian")
}

func TestCacheDirXDG(t *testing.T) {
	t.Setenv("XDG_CACHE_HOME", "/var/cache/xdg")
	cfg, err := load(nil, nil)
	require.NoError(t, err)
	assert.Equal(t, "/var/cache/xdg/bigmess", cfg.CacheDir())

	t.Setenv("XDG_CACHE_HOME", "relative/is/ignored")
	assert.NotEqual(t, "relative/is/ignored/bigmess", cfg.CacheDir())
}

func TestDefaultFiles(t *testing.T) {
	t.Setenv("XDG_CONFIG_DIRS", "/etc/xdg:/opt/xdg")
	t.Setenv("XDG_CONFIG_HOME", "/home/test/.config")

	assert.Equal(t, []string{
		"/etc/bigmess/bigmess.cfg",
		"/etc/xdg/bigmess/config",
		"/opt/xdg/bigmess/config",
		"/home/test/.config/bigmess.cfg",
		"bigmess.cfg",
	}, DefaultFiles())
}
