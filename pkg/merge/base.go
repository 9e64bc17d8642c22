package merge

import (
	"context"

	"github.com/nicwaller/bigmess/pkg/apt"
	"github.com/nicwaller/bigmess/pkg/apttransport"
	"github.com/nicwaller/bigmess/pkg/config"
)

// MergeBaseReleases records, for every known source package, the version
// found in the base distribution of each release. Base indexes are
// optional: a base that cannot be fetched is skipped with a warning.
func (m *Merger) MergeBaseReleases(ctx context.Context) error {
	for _, rel := range m.archive.Releases {
		if err := m.mergeBaseRelease(ctx, rel); err != nil {
			return err
		}
	}
	return nil
}

func (m *Merger) mergeBaseRelease(ctx context.Context, rel config.Release) error {
	if rel.Name == "" {
		return nil
	}
	baseURL, ok := m.archive.BaseReleaseURL(rel)
	if !ok {
		return nil
	}
	logger := m.logger.With().Str("release", rel.Label).Str("uri", baseURL).Logger()

	repo, err := apt.Open(m.transport, baseURL)
	if err != nil {
		logger.Warn().Err(err).Msg("invalid base release URL")
		return nil
	}
	repo.WithLogger(m.logger)

	release, err := repo.Update(ctx)
	if err != nil {
		if apttransport.IsFetchError(err) {
			logger.Warn().Err(err).Msg("skipping unavailable base release")
			return nil
		}
		return err
	}
	codename := release.Name()

	for _, comp := range release.Components {
		for src, err := range repo.Sources(ctx, comp) {
			if err != nil {
				if apttransport.IsFetchError(err) {
					logger.Warn().Err(err).Str("component", comp).Msg("skipping unavailable base sources")
					break
				}
				return err
			}

			sp, known := m.db.Sources[src.Package]
			if !known {
				continue
			}
			sp.SetBaseRelease(codename, src.Version)
		}
	}

	return nil
}
