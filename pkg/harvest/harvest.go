// Package harvest downloads every document the merger reads into the file
// cache. Downloads run concurrently; everything else is sequential.
package harvest

import (
	"context"
	"io"
	"net/url"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/nicwaller/bigmess/pkg/apt"
	"github.com/nicwaller/bigmess/pkg/apttransport"
	"github.com/nicwaller/bigmess/pkg/config"
)

// DefaultJobs is the number of parallel downloads when none is configured
const DefaultJobs = 4

// Summary counts the outcome of every download
type Summary struct {
	Fetched int64
	Missing int64
	Failed  int64
}

// Harvester walks the archive layout and acquires each document once
type Harvester struct {
	transport apttransport.Transport
	archive   config.Archive
	jobs      int
	logger    zerolog.Logger

	fetched atomic.Int64
	missing atomic.Int64
	failed  atomic.Int64

	mu      sync.Mutex
	sources map[string]struct{}
}

// New returns a harvester running at most jobs downloads at a time
func New(transport apttransport.Transport, archive config.Archive, jobs int) *Harvester {
	if jobs < 1 {
		jobs = DefaultJobs
	}
	return &Harvester{
		transport: transport,
		archive:   archive,
		jobs:      jobs,
		logger:    log.Logger,
		sources:   map[string]struct{}{},
	}
}

// WithLogger replaces the global logger
func (h *Harvester) WithLogger(logger zerolog.Logger) *Harvester {
	h.logger = logger
	return h
}

// Run downloads Release files first, then the indexes and task files they
// lead to, then the sidecars of every source package found. Only parse
// errors and local failures end the run early.
func (h *Harvester) Run(ctx context.Context) (Summary, error) {
	primary, base, err := h.openReleases(ctx)
	if err != nil {
		return h.summary(), err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(h.jobs)
	for _, repo := range primary {
		release := repo.Release()
		for _, comp := range release.Components {
			g.Go(func() error { return h.collectSources(gctx, repo, comp) })
			for _, arch := range release.Architectures {
				loc := repo.PackagesURL(comp, arch)
				g.Go(func() error { return h.download(gctx, loc.String(), repo.Verify) })
			}
		}
	}
	for _, repo := range base {
		for _, comp := range repo.Release().Components {
			loc := repo.SourcesURL(comp)
			g.Go(func() error { return h.download(gctx, loc.String(), repo.Verify) })
		}
	}
	for _, task := range h.archive.Tasks {
		g.Go(func() error { return h.download(gctx, task.URL, nil) })
	}
	if err := g.Wait(); err != nil {
		return h.summary(), err
	}

	if err := h.downloadSidecars(ctx); err != nil {
		return h.summary(), err
	}

	return h.summary(), nil
}

// SourceNames returns the source packages found so far in sorted order
func (h *Harvester) SourceNames() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	names := make([]string, 0, len(h.sources))
	for name := range h.sources {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (h *Harvester) summary() Summary {
	return Summary{
		Fetched: h.fetched.Load(),
		Missing: h.missing.Load(),
		Failed:  h.failed.Load(),
	}
}

// openReleases fetches the Release file of every configured release and of
// its base. Releases that cannot be fetched are left out.
func (h *Harvester) openReleases(ctx context.Context) (primary, base []*apt.Repository, err error) {
	type slot struct {
		repo   *apt.Repository
		isBase bool
	}
	var urls []string
	var kinds []bool
	for _, rel := range h.archive.Releases {
		urls = append(urls, rel.URL)
		kinds = append(kinds, false)
		if baseURL, ok := h.archive.BaseReleaseURL(rel); ok && rel.Name != "" {
			urls = append(urls, baseURL)
			kinds = append(kinds, true)
		}
	}

	slots := make([]slot, len(urls))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(h.jobs)
	for i, loc := range urls {
		g.Go(func() error {
			repo, err := h.openRelease(gctx, loc)
			if err != nil {
				return err
			}
			slots[i] = slot{repo: repo, isBase: kinds[i]}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	// keep configuration order
	for _, s := range slots {
		switch {
		case s.repo == nil:
		case s.isBase:
			base = append(base, s.repo)
		default:
			primary = append(primary, s.repo)
		}
	}
	return primary, base, nil
}

func (h *Harvester) openRelease(ctx context.Context, loc string) (*apt.Repository, error) {
	logger := h.logger.With().Str("uri", loc).Logger()

	repo, err := apt.Open(h.transport, loc)
	if err != nil {
		logger.Warn().Err(err).Msg("skipping release")
		return nil, nil
	}
	repo.WithLogger(h.logger)

	if _, err := repo.Update(ctx); err != nil {
		if h.recoverable(logger, err, "skipping unavailable release") {
			return nil, nil
		}
		return nil, err
	}
	h.fetched.Add(1)
	return repo, nil
}

// collectSources downloads a Sources index and remembers its package names
func (h *Harvester) collectSources(ctx context.Context, repo *apt.Repository, comp string) error {
	count := 0
	for src, err := range repo.Sources(ctx, comp) {
		if err != nil {
			logger := h.logger.With().Str("uri", repo.SourcesURL(comp).String()).Logger()
			if h.recoverable(logger, err, "skipping unavailable index") {
				return nil
			}
			return err
		}
		count++
		h.mu.Lock()
		h.sources[src.Package] = struct{}{}
		h.mu.Unlock()
	}
	h.fetched.Add(1)
	h.logger.Debug().
		Str("release", repo.Release().Name()).
		Str("component", comp).
		Int("packages", count).
		Msg("collected source packages")
	return nil
}

func (h *Harvester) downloadSidecars(ctx context.Context) error {
	meta := h.archive.Metadata
	if !meta.Enabled() {
		return nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(h.jobs)
	for _, name := range h.SourceNames() {
		for _, filename := range meta.Filenames {
			loc := meta.SidecarURL(name, filename)
			g.Go(func() error { return h.downloadSidecar(gctx, loc) })
		}
	}
	return g.Wait()
}

func (h *Harvester) downloadSidecar(ctx context.Context, loc string) error {
	_, _, err := h.acquire(ctx, loc)
	switch {
	case err == nil:
		h.fetched.Add(1)
		return nil
	case apttransport.IsNotFound(err):
		// most sources carry no sidecars
		h.missing.Add(1)
		h.logger.Debug().Str("uri", loc).Msg("no sidecar")
		return nil
	case apttransport.IsFetchError(err):
		h.failed.Add(1)
		h.logger.Warn().Err(err).Str("uri", loc).Msg("cannot fetch sidecar")
		return nil
	default:
		return err
	}
}

// download acquires loc and checks it with verify when given; fetch errors
// are logged and swallowed
func (h *Harvester) download(ctx context.Context, loc string, verify func(*url.URL, []byte) error) error {
	logger := h.logger.With().Str("uri", loc).Logger()
	uri, data, err := h.acquire(ctx, loc)
	if err == nil && verify != nil {
		err = verify(uri, data)
	}
	if err != nil {
		if h.recoverable(logger, err, "skipping unavailable document") {
			return nil
		}
		return err
	}
	h.fetched.Add(1)
	logger.Debug().Msg("fetched")
	return nil
}

func (h *Harvester) acquire(ctx context.Context, loc string) (*url.URL, []byte, error) {
	uri, err := url.Parse(loc)
	if err != nil {
		return nil, nil, &apttransport.AcquireError{URI: &url.URL{Opaque: loc}, Reason: "invalid URL", Err: err}
	}
	resp, err := h.transport.Acquire(ctx, &apttransport.AcquireRequest{URI: uri})
	if err != nil {
		return uri, nil, err
	}
	defer resp.Content.Close()
	data, err := io.ReadAll(resp.Content)
	if err != nil {
		return uri, nil, &apttransport.AcquireError{URI: uri, Reason: "read failed", Err: err}
	}
	return uri, data, nil
}

// recoverable logs and counts a fetch error. It reports false for errors
// that must end the run.
func (h *Harvester) recoverable(logger zerolog.Logger, err error, msg string) bool {
	if !apttransport.IsFetchError(err) {
		return false
	}
	if apttransport.IsNotFound(err) {
		h.missing.Add(1)
	} else {
		h.failed.Add(1)
	}
	logger.Warn().Err(err).Msg(msg)
	return true
}
