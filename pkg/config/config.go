// Package config reads the INI configuration cascade: system, XDG and local
// files, explicit files, and finally BIGMESS_* environment variables.
package config

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/ini.v1"
)

// EnvPrefix marks environment variables that override configuration values
const EnvPrefix = "BIGMESS_"

// DefaultSection receives environment overrides that name no section
const DefaultSection = "general"

var defaults = []byte("[general]\nverbose = 1\n")

var loadOptions = ini.LoadOptions{
	Loose:                      true,
	InsensitiveKeys:            true,
	IgnoreInlineComment:        true,
	AllowPythonMultilineValues: true,
}

// Config is the merged configuration
type Config struct {
	file  *ini.File
	files []string
}

// Item is one option of a section
type Item struct {
	Key   string
	Value string
}

// Load reads the default cascade followed by files, then applies
// environment overrides. Missing files are ignored.
func Load(files ...string) (*Config, error) {
	return load(append(DefaultFiles(), files...), os.Environ())
}

func load(files []string, environ []string) (*Config, error) {
	sources := make([]interface{}, 0, len(files))
	for _, f := range files {
		sources = append(sources, f)
	}

	file, err := ini.LoadSources(loadOptions, defaults, sources...)
	if err != nil {
		return nil, fmt.Errorf("loading configuration: %w", err)
	}

	cfg := &Config{file: file, files: files}
	for _, kv := range environ {
		name, value, ok := strings.Cut(kv, "=")
		if !ok || !strings.HasPrefix(name, EnvPrefix) {
			continue
		}
		section, key := envKey(strings.TrimPrefix(name, EnvPrefix))
		if key == "" {
			continue
		}
		cfg.Set(section, key, value)
	}

	return cfg, nil
}

// DefaultFiles lists the cascade in the order it is read, later files win
func DefaultFiles() []string {
	files := []string{"/etc/bigmess/bigmess.cfg"}

	configDirs := os.Getenv("XDG_CONFIG_DIRS")
	if configDirs == "" {
		configDirs = "/etc/xdg"
	}
	for _, dir := range filepath.SplitList(configDirs) {
		if dir != "" {
			files = append(files, filepath.Join(dir, "bigmess", "config"))
		}
	}

	if home := xdgConfigHome(); home != "" {
		files = append(files, filepath.Join(home, "bigmess.cfg"))
	}

	return append(files, "bigmess.cfg")
}

func xdgConfigHome() string {
	if dir := os.Getenv("XDG_CONFIG_HOME"); filepath.IsAbs(dir) {
		return dir
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, ".config")
	}
	return ""
}

// envKey maps SEC_LONG_NAME to ("sec", "long name") and NAME to ("general", "name")
func envKey(name string) (section, key string) {
	name = strings.ToLower(name)
	section, rest, found := strings.Cut(name, "_")
	if !found {
		return DefaultSection, name
	}
	return section, strings.ReplaceAll(rest, "_", " ")
}

// Files returns the candidate files the configuration was read from
func (c *Config) Files() []string {
	return c.files
}

// HasSection reports whether section exists
func (c *Config) HasSection(section string) bool {
	_, err := c.file.GetSection(section)
	return err == nil
}

// Has reports whether section holds key
func (c *Config) Has(section, key string) bool {
	sec, err := c.file.GetSection(section)
	if err != nil {
		return false
	}
	return sec.HasKey(key)
}

// Get returns the value of key in section, or def when either is missing
func (c *Config) Get(section, key, def string) string {
	if !c.Has(section, key) {
		return def
	}
	return c.file.Section(section).Key(key).String()
}

// GetInt is Get for integer options
func (c *Config) GetInt(section, key string, def int) (int, error) {
	if !c.Has(section, key) {
		return def, nil
	}
	value := c.Get(section, key, "")
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return 0, fmt.Errorf("option %q in section [%s]: %w", key, section, err)
	}
	return n, nil
}

// Set stores value, creating the section when needed
func (c *Config) Set(section, key, value string) {
	c.file.Section(section).Key(key).SetValue(value)
}

// Sections lists section names in the order they were first seen
func (c *Config) Sections() []string {
	var names []string
	for _, name := range c.file.SectionStrings() {
		if name == ini.DefaultSection && len(c.file.Section(name).Keys()) == 0 {
			continue
		}
		names = append(names, name)
	}
	return names
}

// Options lists the keys of section in file order
func (c *Config) Options(section string) []string {
	sec, err := c.file.GetSection(section)
	if err != nil {
		return nil
	}
	return sec.KeyStrings()
}

// Items lists the key/value pairs of section in file order
func (c *Config) Items(section string) []Item {
	sec, err := c.file.GetSection(section)
	if err != nil {
		return nil
	}
	items := make([]Item, 0, len(sec.Keys()))
	for _, key := range sec.Keys() {
		items = append(items, Item{Key: key.Name(), Value: key.String()})
	}
	return items
}

// WriteTo writes the merged configuration in INI syntax
func (c *Config) WriteTo(w io.Writer) (int64, error) {
	return c.file.WriteTo(w)
}

// CacheDir is [cache] basedir, or bigmess under the XDG cache home
func (c *Config) CacheDir() string {
	if dir := c.Get("cache", "basedir", ""); dir != "" {
		return os.ExpandEnv(dir)
	}

	root := os.Getenv("XDG_CACHE_HOME")
	if !filepath.IsAbs(root) {
		if home, err := os.UserHomeDir(); err == nil {
			root = filepath.Join(home, ".cache")
		} else {
			root = ".cache"
		}
	}
	return filepath.Join(root, "bigmess")
}
