package merge

import (
	"context"
	"net/url"
	"strings"

	"github.com/nicwaller/bigmess/pkg/apt"
	"github.com/nicwaller/bigmess/pkg/apttransport"
	"github.com/nicwaller/bigmess/pkg/config"
	"github.com/nicwaller/bigmess/pkg/deb822"
	"github.com/nicwaller/bigmess/pkg/pkgdb"
)

// DOIResolver prefixes a DOI to form a citation URL
const DOIResolver = "http://dx.doi.org/"

// MergeTasks folds every configured task file into the database. Task
// files are optional: one that cannot be fetched is skipped with a warning.
func (m *Merger) MergeTasks(ctx context.Context) error {
	for _, task := range m.archive.Tasks {
		if err := m.mergeTask(ctx, task); err != nil {
			return err
		}
	}
	return nil
}

func (m *Merger) mergeTask(ctx context.Context, task config.TaskFile) error {
	logger := m.logger.With().Str("task", task.ID).Str("uri", task.URL).Logger()

	loc, err := url.Parse(task.URL)
	if err != nil {
		logger.Warn().Err(err).Msg("invalid task file URL")
		return nil
	}

	rdr, err := apt.FetchIndex(ctx, m.transport, loc)
	if err != nil {
		if apttransport.IsFetchError(err) {
			logger.Warn().Err(err).Msg("skipping unavailable task file")
			return nil
		}
		return err
	}
	defer rdr.Close()

	lenient := deb822.WithMalformedHandler(func(err error) {
		logger.Warn().Err(err).Msg("skipping malformed line")
	})
	for stanza, err := range deb822.ParseTasks(rdr, lenient) {
		if err != nil {
			return err
		}

		if stanza.IsDefinition() {
			m.db.Tasks[task.ID] = stanza.Task
			continue
		}

		_, names, ok := stanza.Packages()
		if !ok {
			logger.Warn().Msg("ignoring unknown stanza in task file")
			continue
		}

		for _, name := range names {
			m.tagPackage(task.ID, name, stanza)
		}
	}

	return nil
}

func (m *Merger) tagPackage(taskID, name string, stanza *deb822.Task) {
	logger := m.logger.With().Str("task", taskID).Str("package", name).Logger()

	bin, ok := m.db.Binaries[name]
	if !ok {
		logger.Warn().Msg("ignoring package listed in task but not in repository")
		return
	}
	sp, ok := m.db.Sources[bin.SourceName]
	if !ok {
		logger.Warn().Str("source", bin.SourceName).Msg("ignoring package without source record")
		return
	}

	if sp.Upstream == nil {
		sp.Upstream = pkgdb.Upstream{}
	}
	upstream := sp.Upstream
	upstream.AddTag("task::" + taskID)

	if stanza.HasPublication() && !upstream.Has("Reference") {
		upstream.SetReference(publication(stanza))
	}
	if stanza.HasField("Registration") {
		upstream.SetIfAbsent("Registration", stanza.Registration)
	}
	if stanza.HasField("Remark") {
		upstream.SetIfAbsent("Remark", stanza.Remark)
	}
}

// publication builds the citation of a task stanza. The trailing period of
// the title is dropped and a DOI without URL gets a resolver URL.
func publication(stanza *deb822.Task) pkgdb.Reference {
	ref := pkgdb.Reference{
		Title:   strings.TrimSuffix(stanza.PublishedTitle, "."),
		Author:  stanza.PublishedAuthors,
		Year:    stanza.PublishedYear,
		Journal: stanza.PublishedIn,
		URL:     stanza.PublishedURL,
		DOI:     stanza.PublishedDOI,
	}
	if ref.DOI != "" && ref.URL == "" {
		ref.URL = DOIResolver + ref.DOI
	}
	return ref
}
