package merge

import (
	"context"
	"fmt"
	"io"
	"net/url"

	"gopkg.in/yaml.v3"

	"github.com/nicwaller/bigmess/pkg/apttransport"
	"github.com/nicwaller/bigmess/pkg/pkgdb"
)

// UpstreamSidecar is the sidecar holding upstream metadata in YAML
const UpstreamSidecar = "upstream"

// mergeSidecars looks up every configured sidecar of the source and loads
// the upstream one. A sidecar that is missing or malformed leaves the
// previous upstream data in place.
func (m *Merger) mergeSidecars(ctx context.Context, sp *pkgdb.SourcePackage) {
	meta := m.archive.Metadata
	if !meta.Enabled() {
		return
	}

	for _, filename := range meta.Filenames {
		loc := meta.SidecarURL(sp.Name, filename)
		logger := m.logger.With().Str("package", sp.Name).Str("uri", loc).Logger()

		data, err := m.fetchSidecar(ctx, loc)
		if err != nil {
			if apttransport.IsNotFound(err) {
				logger.Debug().Msg("no sidecar")
			} else {
				logger.Warn().Err(err).Msg("cannot fetch sidecar")
			}
			continue
		}
		sp.SetHaveMeta(filename)

		if filename != UpstreamSidecar {
			continue
		}
		upstream, err := parseUpstream(data)
		if err != nil {
			logger.Warn().Err(err).Msg("malformed upstream YAML data")
			continue
		}
		logger.Debug().Msg("imported upstream metadata")
		sp.Upstream = upstream
	}
}

func (m *Merger) fetchSidecar(ctx context.Context, loc string) ([]byte, error) {
	uri, err := url.Parse(loc)
	if err != nil {
		return nil, err
	}
	resp, err := m.transport.Acquire(ctx, &apttransport.AcquireRequest{URI: uri})
	if err != nil {
		return nil, err
	}
	defer resp.Content.Close()
	return io.ReadAll(resp.Content)
}

// parseUpstream decodes a sidecar and wraps a lone Reference mapping into a list
func parseUpstream(data []byte) (pkgdb.Upstream, error) {
	var upstream pkgdb.Upstream
	if err := yaml.Unmarshal(data, &upstream); err != nil {
		return nil, err
	}
	if upstream == nil {
		return nil, fmt.Errorf("document is not a mapping")
	}
	upstream.Normalize()
	return upstream, nil
}
