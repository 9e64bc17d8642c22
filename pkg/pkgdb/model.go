// Package pkgdb holds the package database: every source and binary
// package seen in the configured releases, plus the task descriptions.
package pkgdb

import "strings"

// Database is the aggregate persisted between runs
type Database struct {
	Sources  map[string]*SourcePackage `yaml:"sources"`
	Binaries map[string]*BinaryPackage `yaml:"binaries"`
	Tasks    map[string]string         `yaml:"tasks"`
}

// SourcePackage is one source package across all releases. The metadata
// fields always describe LatestVersion.
type SourcePackage struct {
	Name          string   `yaml:"name"`
	LatestVersion string   `yaml:"latest_version"`
	Homepage      string   `yaml:"homepage"`
	VcsBrowser    string   `yaml:"vcs_browser"`
	Maintainer    string   `yaml:"maintainer"`
	Uploaders     string   `yaml:"uploaders"`
	Binaries      []string `yaml:"binary"`
	Component     string   `yaml:"component"`

	Upstream      Upstream          `yaml:"upstream,omitempty"`
	InBaseRelease map[string]string `yaml:"in_base_release,omitempty"`
	HaveMeta      map[string]bool   `yaml:"havemeta,omitempty"`
}

// BinaryPackage is one binary package across all releases.
// InRelease maps release -> version -> architectures.
type BinaryPackage struct {
	Name             string                         `yaml:"name"`
	SourceName       string                         `yaml:"src_name"`
	LatestVersion    string                         `yaml:"latest_version"`
	InRelease        map[string]map[string][]string `yaml:"in_release"`
	ShortDescription string                         `yaml:"short_description,omitempty"`
	LongDescription  string                         `yaml:"long_description,omitempty"`
}

// New returns an empty database
func New() *Database {
	db := &Database{}
	db.init()
	return db
}

func (db *Database) init() {
	if db.Sources == nil {
		db.Sources = map[string]*SourcePackage{}
	}
	if db.Binaries == nil {
		db.Binaries = map[string]*BinaryPackage{}
	}
	if db.Tasks == nil {
		db.Tasks = map[string]string{}
	}
	for name, src := range db.Sources {
		if src == nil {
			delete(db.Sources, name)
			continue
		}
		if src.Name == "" {
			src.Name = name
		}
		if src.Binaries == nil {
			src.Binaries = []string{}
		}
	}
	for name, bin := range db.Binaries {
		if bin == nil {
			delete(db.Binaries, name)
			continue
		}
		if bin.Name == "" {
			bin.Name = name
		}
		if bin.InRelease == nil {
			bin.InRelease = map[string]map[string][]string{}
		}
	}
}

// Source returns the named source package, creating an empty one if needed
func (db *Database) Source(name string) *SourcePackage {
	src, ok := db.Sources[name]
	if !ok {
		src = &SourcePackage{Name: name, Binaries: []string{}}
		db.Sources[name] = src
	}
	return src
}

// NewBinary registers a binary package first seen in release at version
func (db *Database) NewBinary(name, srcName, release, version string) *BinaryPackage {
	bin := &BinaryPackage{
		Name:          name,
		SourceName:    srcName,
		LatestVersion: version,
		InRelease: map[string]map[string][]string{
			release: {version: []string{}},
		},
	}
	db.Binaries[name] = bin
	return bin
}

// SetHaveMeta flags that the sidecar filename exists for the source
func (s *SourcePackage) SetHaveMeta(filename string) {
	if s.HaveMeta == nil {
		s.HaveMeta = map[string]bool{}
	}
	s.HaveMeta[MetaKey(filename)] = true
}

// MetaKey turns a sidecar filename into an identifier-safe key
func MetaKey(filename string) string {
	return strings.NewReplacer(".", "_", "-", "_").Replace(filename)
}

// SetBaseRelease records the version of the source in a base release
func (s *SourcePackage) SetBaseRelease(codename, version string) {
	if s.InBaseRelease == nil {
		s.InBaseRelease = map[string]string{}
	}
	s.InBaseRelease[codename] = version
}

// AddArch appends arch to the architecture list of release and version,
// creating the entry when it does not exist yet
func (b *BinaryPackage) AddArch(release, version, arch string) {
	versions, ok := b.InRelease[release]
	if !ok {
		versions = map[string][]string{}
		b.InRelease[release] = versions
	}
	versions[version] = append(versions[version], arch)
}
