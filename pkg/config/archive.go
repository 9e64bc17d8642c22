package config

import (
	"net/url"
	"strings"
)

// Archive is the immutable view of the archive layout handed to the
// merger and the harvester.
type Archive struct {
	Releases []Release
	// Bases maps an origin ("debian", "ubuntu") to the mirror the
	// release rebases from
	Bases    map[string]string
	Tasks    []TaskFile
	Metadata Metadata
	Mirrors  []Mirror
}

// Release is one configured repository release
type Release struct {
	Label string
	URL   string
	// Name is the human-readable name, e.g. "Debian GNU/Linux 12.0 (bookworm)"
	Name string
}

// Origin is the lowercased first word of the release name
func (r Release) Origin() string {
	fields := strings.Fields(r.Name)
	if len(fields) == 0 {
		return ""
	}
	return strings.ToLower(fields[0])
}

// TaskFile is a task description file of one task
type TaskFile struct {
	ID  string
	URL string
}

// Mirror is one entry of [mirrors]
type Mirror struct {
	Name string
	URL  string
}

// Metadata locates the per-source sidecar documents
type Metadata struct {
	BaseURL   string
	Filenames []string
}

// Enabled reports whether sidecars are configured at all
func (m Metadata) Enabled() bool {
	return m.BaseURL != "" && len(m.Filenames) > 0
}

// SidecarURL is <baseurl>/<source>/<filename>
func (m Metadata) SidecarURL(source, filename string) string {
	return strings.TrimSuffix(m.BaseURL, "/") + "/" + source + "/" + filename
}

// BaseReleaseURL returns the Release URL of the base distribution of r:
// the base mirror followed by the two path segments preceding "Release"
// in the release URL. ok is false when no base is configured.
func (a Archive) BaseReleaseURL(r Release) (string, bool) {
	mirror, ok := a.Bases[r.Origin()]
	if !ok || mirror == "" {
		return "", false
	}

	loc, err := url.Parse(r.URL)
	if err != nil {
		return "", false
	}
	segments := strings.Split(strings.Trim(loc.Path, "/"), "/")
	if len(segments) < 3 {
		return "", false
	}
	dist := segments[len(segments)-3 : len(segments)-1]

	return strings.TrimSuffix(mirror, "/") + "/" + strings.Join(dist, "/") + "/Release", true
}

// Archive builds the archive snapshot from the release, base, task,
// mirror and metadata sections
func (c *Config) Archive() Archive {
	a := Archive{
		Bases: map[string]string{},
		Metadata: Metadata{
			BaseURL:   c.Get("metadata", "source extracts baseurl", ""),
			Filenames: strings.Fields(c.Get("metadata", "source extracts filenames", "")),
		},
	}

	for _, item := range c.Items("release files") {
		a.Releases = append(a.Releases, Release{
			Label: item.Key,
			URL:   item.Value,
			Name:  c.Get("release names", item.Key, ""),
		})
	}
	for _, item := range c.Items("release bases") {
		a.Bases[item.Key] = item.Value
	}
	for _, item := range c.Items("task files") {
		a.Tasks = append(a.Tasks, TaskFile{ID: item.Key, URL: item.Value})
	}
	for _, item := range c.Items("mirrors") {
		a.Mirrors = append(a.Mirrors, Mirror{Name: item.Key, URL: item.Value})
	}

	return a
}
