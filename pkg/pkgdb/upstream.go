package pkgdb

import (
	"math"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Upstream is the free-form metadata of a source package as found in its
// upstream sidecar, extended by task processing. Values are whatever the
// YAML decoder produced: strings, numbers, []any and map[string]any.
type Upstream map[string]any

const (
	tagsKey      = "Tags"
	referenceKey = "Reference"
)

// Reference is a publication citation
type Reference struct {
	Title   string
	Author  string
	Year    string
	Journal string
	URL     string
	DOI     string
}

func (r Reference) toMap() map[string]any {
	m := map[string]any{"Title": r.Title}
	for key, value := range map[string]string{
		"Author":  r.Author,
		"Year":    r.Year,
		"Journal": r.Journal,
		"URL":     r.URL,
		"DOI":     r.DOI,
	} {
		if value != "" {
			m[key] = value
		}
	}
	return m
}

// Normalize wraps a single Reference mapping into a one-element list
func (u Upstream) Normalize() {
	ref, ok := u[referenceKey]
	if !ok {
		return
	}
	if _, isList := ref.([]any); !isList {
		u[referenceKey] = []any{ref}
	}
}

// Has reports whether key is set
func (u Upstream) Has(key string) bool {
	_, ok := u[key]
	return ok
}

// Tags returns the string members of the Tags list
func (u Upstream) Tags() []string {
	var tags []string
	switch v := u[tagsKey].(type) {
	case []any:
		for _, item := range v {
			if s, ok := item.(string); ok {
				tags = append(tags, s)
			}
		}
	case string:
		for _, s := range strings.Split(v, ",") {
			if s = strings.TrimSpace(s); s != "" {
				tags = append(tags, s)
			}
		}
	}
	return tags
}

// AddTag appends tag to the Tags list without de-duplication
func (u Upstream) AddTag(tag string) {
	switch v := u[tagsKey].(type) {
	case []any:
		u[tagsKey] = append(v, tag)
	case nil:
		u[tagsKey] = []any{tag}
	default:
		u[tagsKey] = []any{v, tag}
	}
}

// References returns the mappings of the Reference list
func (u Upstream) References() []map[string]any {
	var refs []map[string]any
	switch v := u[referenceKey].(type) {
	case []any:
		for _, item := range v {
			if m, ok := item.(map[string]any); ok {
				refs = append(refs, m)
			}
		}
	case map[string]any:
		refs = append(refs, v)
	}
	return refs
}

// SetReference replaces the Reference list with ref
func (u Upstream) SetReference(ref Reference) {
	u[referenceKey] = []any{ref.toMap()}
}

// SetIfAbsent stores value under key unless key is already set
func (u Upstream) SetIfAbsent(key, value string) {
	if !u.Has(key) {
		u[key] = value
	}
}

// MarshalYAML keeps floats recognizable as floats. The encoder writes
// float64(1) as "1", which would decode as an int.
func (u Upstream) MarshalYAML() (any, error) {
	return floatsAsNodes(map[string]any(u)), nil
}

func floatsAsNodes(v any) any {
	switch v := v.(type) {
	case float64:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!float", Value: formatFloat(v)}
	case map[string]any:
		out := make(map[string]any, len(v))
		for key, item := range v {
			out[key] = floatsAsNodes(item)
		}
		return out
	case map[any]any:
		out := make(map[any]any, len(v))
		for key, item := range v {
			out[key] = floatsAsNodes(item)
		}
		return out
	case []any:
		out := make([]any, len(v))
		for i, item := range v {
			out[i] = floatsAsNodes(item)
		}
		return out
	default:
		return v
	}
}

func formatFloat(f float64) string {
	switch {
	case math.IsInf(f, 1):
		return ".inf"
	case math.IsInf(f, -1):
		return "-.inf"
	case math.IsNaN(f):
		return ".nan"
	}
	s := strconv.FormatFloat(f, 'g', -1, 64)
	if !strings.ContainsAny(s, ".e") {
		s += ".0"
	}
	return s
}
