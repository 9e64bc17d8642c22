package deb822

import (
	"io"
	"iter"
	"strings"

	"pault.ag/go/debian/dependency"

	"github.com/nicwaller/bigmess/pkg/rfc822"
)

// Task is one stanza of a task (meta-package) description file. A stanza
// either declares the task itself or lists the packages belonging to it.
type Task struct {
	Task string

	Depends    string
	Recommends string
	Suggests   string

	PublishedTitle   string
	PublishedAuthors string
	PublishedYear    string
	PublishedIn      string
	PublishedURL     string
	PublishedDOI     string

	Registration string
	Remark       string

	header rfc822.Header
}

// ParseTasks returns an iterator over the stanzas of a task file
func ParseTasks(r io.Reader, opts ...ParseOption) iter.Seq2[*Task, error] {
	return func(yield func(*Task, error) bool) {
		for header, err := range ParseRecords(r, opts...) {
			if err != nil {
				yield(nil, err)
				return
			}

			task := &Task{header: header}
			task.parseFields()

			if !yield(task, nil) {
				return
			}
		}
	}
}

func (t *Task) parseFields() {
	t.Task = t.header.Get("Task")
	t.Depends = t.header.Get("Depends")
	t.Recommends = t.header.Get("Recommends")
	t.Suggests = t.header.Get("Suggests")
	t.PublishedTitle = t.header.Get("Published-Title")
	t.PublishedAuthors = t.header.Get("Published-Authors")
	t.PublishedYear = t.header.Get("Published-Year")
	t.PublishedIn = t.header.Get("Published-In")
	t.PublishedURL = t.header.Get("Published-URL")
	t.PublishedDOI = t.header.Get("Published-DOI")
	t.Registration = t.header.Get("Registration")
	t.Remark = t.header.Get("Remark")
}

// IsDefinition reports whether the stanza declares the task instead of
// listing its packages
func (t *Task) IsDefinition() bool {
	return t.header.Has("Task")
}

// HasPublication reports whether the stanza cites a publication
func (t *Task) HasPublication() bool {
	return t.header.Has("Published-Title")
}

// HasField checks if a field exists in the underlying RFC822 header
func (t *Task) HasField(name string) bool {
	return t.header.Has(name)
}

// Packages returns the names listed by the first relation present, checked
// in the order Depends, Recommends, Suggests. ok is false when the stanza
// has none of them.
func (t *Task) Packages() (relation string, names []string, ok bool) {
	for _, field := range []string{"Depends", "Recommends", "Suggests"} {
		if t.header.Has(field) {
			return field, relationNames(t.header.Get(field)), true
		}
	}
	return "", nil, false
}

// relationNames extracts every package name of a relation list, including
// each alternative of "a | b". Lists that are not valid relations fall back
// to a plain comma split.
func relationNames(value string) []string {
	dep, err := dependency.Parse(value)
	if err != nil {
		return splitCommaList(value)
	}

	names := []string{}
	for _, possi := range dep.GetAllPossibilities() {
		if possi.Substvar || possi.Name == "" {
			continue
		}
		names = append(names, strings.TrimSpace(possi.Name))
	}
	return names
}
