// Package merge folds archive metadata into the package database.
//
// Releases are processed in configuration order. Within a release every
// component contributes its Sources index first and its Packages indexes
// second. Base releases and task files are folded in afterwards. The
// order matters: when two releases carry the same version, the one
// processed later wins the tie.
package merge

import (
	"context"
	"fmt"
	"slices"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/nicwaller/bigmess/pkg/apt"
	"github.com/nicwaller/bigmess/pkg/apttransport"
	"github.com/nicwaller/bigmess/pkg/config"
	"github.com/nicwaller/bigmess/pkg/debian"
	"github.com/nicwaller/bigmess/pkg/deb822"
	"github.com/nicwaller/bigmess/pkg/pkgdb"
)

// Merger updates a package database in place
type Merger struct {
	transport apttransport.Transport
	archive   config.Archive
	db        *pkgdb.Database
	logger    zerolog.Logger
}

// New returns a merger reading through transport
func New(transport apttransport.Transport, archive config.Archive, db *pkgdb.Database) *Merger {
	return &Merger{
		transport: transport,
		archive:   archive,
		db:        db,
		logger:    log.Logger,
	}
}

// WithLogger replaces the global logger
func (m *Merger) WithLogger(logger zerolog.Logger) *Merger {
	m.logger = logger
	return m
}

// Database returns the database being merged into
func (m *Merger) Database() *pkgdb.Database {
	return m.db
}

// Run merges every configured release, then the base releases, then the
// task files. A parse error or an unavailable primary index aborts the run
// and leaves the database partially updated.
func (m *Merger) Run(ctx context.Context) error {
	for _, rel := range m.archive.Releases {
		if err := m.MergeRelease(ctx, rel); err != nil {
			return fmt.Errorf("release %s: %w", rel.Label, err)
		}
	}
	if err := m.MergeBaseReleases(ctx); err != nil {
		return err
	}
	return m.MergeTasks(ctx)
}

// MergeRelease folds the Sources and Packages indexes of every component
// of rel into the database
func (m *Merger) MergeRelease(ctx context.Context, rel config.Release) error {
	repo, err := apt.Open(m.transport, rel.URL)
	if err != nil {
		return err
	}
	repo.WithLogger(m.logger)

	release, err := repo.Update(ctx)
	if err != nil {
		return err
	}
	codename := release.Name()
	logger := m.logger.With().Str("release", codename).Logger()
	logger.Info().Str("uri", rel.URL).Msg("merging release")

	for _, comp := range release.Components {
		for src, err := range repo.Sources(ctx, comp) {
			if err != nil {
				return err
			}
			m.mergeSource(ctx, codename, comp, src)
		}

		for _, arch := range release.Architectures {
			for pkg, err := range repo.Packages(ctx, comp, arch) {
				if err != nil {
					return err
				}
				m.mergeBinary(logger, codename, comp, arch, pkg)
			}
		}
	}

	return nil
}

func (m *Merger) mergeSource(ctx context.Context, codename, comp string, src *deb822.Source) {
	sp := m.db.Source(src.Package)

	if debian.IsNewer(src.Version, sp.LatestVersion) {
		sp.LatestVersion = src.Version
		sp.Homepage = src.Homepage
		sp.VcsBrowser = src.VcsBrowser
		sp.Maintainer = src.Maintainer
		sp.Uploaders = src.Uploaders
	}

	// the binary list follows the paragraph processed last, whatever its version
	sp.Binaries = slices.Clone(src.Binaries)
	for _, name := range sp.Binaries {
		bin, ok := m.db.Binaries[name]
		if !ok {
			m.db.NewBinary(name, src.Package, codename, src.Version)
			continue
		}
		bin.InRelease[codename] = map[string][]string{src.Version: {}}
		if debian.IsNewer(src.Version, bin.LatestVersion) {
			bin.SourceName = src.Package
			bin.LatestVersion = src.Version
		}
	}

	m.mergeSidecars(ctx, sp)
	sp.Component = comp
}

func (m *Merger) mergeBinary(logger zerolog.Logger, codename, comp, arch string, pkg *deb822.Package) {
	bin, ok := m.db.Binaries[pkg.Package]
	if !ok {
		logger.Warn().
			Str("package", pkg.Package).
			Str("component", comp).
			Str("arch", arch).
			Msg("no corresponding source package for binary package")
		return
	}

	bin.AddArch(codename, pkg.Version, arch)

	if debian.IsAtLeast(pkg.Version, bin.LatestVersion) {
		bin.ShortDescription = pkg.ShortDescription()
		bin.LongDescription = pkg.LongDescription()
	}
}
