package apt

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"iter"
	"net/url"
	"path"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/ulikunitz/xz"

	"github.com/nicwaller/bigmess/pkg/apttransport"
	"github.com/nicwaller/bigmess/pkg/deb822"
)

// ErrChecksumMismatch means an index does not match its Release entry
var ErrChecksumMismatch = errors.New("checksum mismatch")

// https://www.debian.org/doc/manuals/debian-reference/ch02.en.html#_debian_archive_basics
type Repository struct {
	transport  apttransport.Transport
	releaseURL *url.URL
	distRoot   *url.URL
	logger     zerolog.Logger

	release *deb822.Release // nil until Update
}

// Open prepares a repository whose Release file lives at releaseURL. The
// directory holding the Release file is the distribution root all other
// indexes are resolved against.
func Open(transport apttransport.Transport, releaseURL string) (*Repository, error) {
	loc, err := url.Parse(releaseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid release URL %q: %w", releaseURL, err)
	}
	if loc.Scheme == "" {
		return nil, fmt.Errorf("invalid release URL %q: missing scheme", releaseURL)
	}

	distRoot := *loc
	distRoot.Path = path.Dir(loc.Path)
	distRoot.RawPath = ""

	return &Repository{
		transport:  transport,
		releaseURL: loc,
		distRoot:   &distRoot,
		logger:     log.Logger,
	}, nil
}

// WithLogger sets the logger malformed index lines are reported to
func (r *Repository) WithLogger(logger zerolog.Logger) *Repository {
	r.logger = logger
	return r
}

// Release returns the parsed Release file, nil before Update
func (r *Repository) Release() *deb822.Release {
	return r.release
}

// Update fetches and parses the Release file
func (r *Repository) Update(ctx context.Context) (*deb822.Release, error) {
	rdr, err := r.Fetch(ctx, r.releaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch Release file: %w", err)
	}
	defer rdr.Close()

	release, err := deb822.ParseRelease(rdr, r.lenient(r.releaseURL))
	if err != nil {
		return nil, fmt.Errorf("failed to parse Release file %s: %w", r.releaseURL, err)
	}
	r.release = release

	return r.release, nil
}

// SourcesURL locates the source index of a component
func (r *Repository) SourcesURL(component string) *url.URL {
	return r.distRoot.JoinPath(component, "source", "Sources.gz")
}

// PackagesURL locates the binary index of a component and architecture
func (r *Repository) PackagesURL(component, arch string) *url.URL {
	return r.distRoot.JoinPath(component, "binary-"+arch, "Packages.gz")
}

// Fetch acquires loc and transparently decompresses it based on the
// extension. Indexes the Release file lists are read in full and verified
// before decompression.
func (r *Repository) Fetch(ctx context.Context, loc *url.URL) (io.ReadCloser, error) {
	if _, listed := r.Checksum(loc); !listed {
		return FetchIndex(ctx, r.transport, loc)
	}
	acr, err := r.transport.Acquire(ctx, &apttransport.AcquireRequest{URI: loc})
	if err != nil {
		return nil, err
	}
	data, err := io.ReadAll(acr.Content)
	acr.Content.Close()
	if err != nil {
		return nil, &apttransport.AcquireError{URI: loc, Reason: "read failed", Err: err}
	}
	if err := r.Verify(loc, data); err != nil {
		return nil, err
	}
	return Decompress(loc, io.NopCloser(bytes.NewReader(data)))
}

// FetchIndex acquires loc through transport and decompresses ".gz" and
// ".xz" documents. The caller must close the returned reader.
func FetchIndex(ctx context.Context, transport apttransport.Transport, loc *url.URL) (io.ReadCloser, error) {
	if loc == nil {
		return nil, errors.New("invalid URL")
	}
	acr, err := transport.Acquire(ctx, &apttransport.AcquireRequest{
		URI: loc,
	})
	if err != nil {
		return nil, err
	}
	return Decompress(loc, acr.Content)
}

// Decompress wraps content in a decompressor chosen by the extension of
// loc. Closing the result closes content; content is closed on error too.
func Decompress(loc *url.URL, content io.ReadCloser) (io.ReadCloser, error) {
	switch path.Ext(loc.Path) {
	case ".gz":
		gz, err := gzip.NewReader(content)
		if err != nil {
			content.Close()
			return nil, fmt.Errorf("failed to read gzipped file %s: %w", loc, err)
		}
		return &decompressed{Reader: gz, closers: []io.Closer{gz, content}}, nil
	case ".xz":
		xzr, err := xz.NewReader(content)
		if err != nil {
			content.Close()
			return nil, fmt.Errorf("failed to read xz file %s: %w", loc, err)
		}
		return &decompressed{Reader: xzr, closers: []io.Closer{content}}, nil
	default:
		return content, nil
	}
}

// Checksum returns the SHA256 entry the Release file lists for loc
func (r *Repository) Checksum(loc *url.URL) (deb822.HashEntry, bool) {
	if r.release == nil || loc == nil {
		return deb822.HashEntry{}, false
	}
	rel, ok := strings.CutPrefix(loc.Path, r.distRoot.Path+"/")
	if !ok {
		return deb822.HashEntry{}, false
	}
	for _, entry := range r.release.SHA256 {
		if entry.Path == rel {
			return entry, true
		}
	}
	return deb822.HashEntry{}, false
}

// Verify checks the raw content of loc against its Release entry. Files
// the Release does not list pass.
func (r *Repository) Verify(loc *url.URL, data []byte) error {
	entry, ok := r.Checksum(loc)
	if !ok {
		return nil
	}
	if int64(len(data)) != entry.Size {
		return &apttransport.AcquireError{
			URI:    loc,
			Reason: fmt.Sprintf("size %d, Release lists %d", len(data), entry.Size),
			Err:    ErrChecksumMismatch,
		}
	}
	sum := sha256.Sum256(data)
	if got := hex.EncodeToString(sum[:]); !strings.EqualFold(got, entry.Hash) {
		return &apttransport.AcquireError{
			URI:    loc,
			Reason: "SHA256 " + got + ", Release lists " + entry.Hash,
			Err:    ErrChecksumMismatch,
		}
	}
	return nil
}

// Sources streams the stanzas of a component's source index
func (r *Repository) Sources(ctx context.Context, component string) iter.Seq2[*deb822.Source, error] {
	return func(yield func(*deb822.Source, error) bool) {
		loc := r.SourcesURL(component)
		rdr, err := r.Fetch(ctx, loc)
		if err != nil {
			yield(nil, fmt.Errorf("failed to fetch Sources file %s: %w", loc, err))
			return
		}
		defer rdr.Close()

		for src, err := range deb822.ParseSources(rdr, r.lenient(loc)) {
			if err != nil {
				yield(nil, fmt.Errorf("failed to parse Sources file %s: %w", loc, err))
				return
			}
			if !yield(src, nil) {
				return
			}
		}
	}
}

// Packages streams the stanzas of a component's binary index for one architecture
func (r *Repository) Packages(ctx context.Context, component, arch string) iter.Seq2[*deb822.Package, error] {
	return func(yield func(*deb822.Package, error) bool) {
		loc := r.PackagesURL(component, arch)
		rdr, err := r.Fetch(ctx, loc)
		if err != nil {
			yield(nil, fmt.Errorf("failed to fetch Packages file %s: %w", loc, err))
			return
		}
		defer rdr.Close()

		for pkg, err := range deb822.ParsePackages(rdr, r.lenient(loc)) {
			if err != nil {
				yield(nil, fmt.Errorf("failed to parse Packages file %s: %w", loc, err))
				return
			}
			if !yield(pkg, nil) {
				return
			}
		}
	}
}

func (r *Repository) lenient(loc *url.URL) deb822.ParseOption {
	return deb822.WithMalformedHandler(func(err error) {
		r.logger.Warn().Err(err).Str("uri", loc.String()).Msg("skipping malformed line")
	})
}

type decompressed struct {
	io.Reader
	closers []io.Closer
}

func (d *decompressed) Close() error {
	var errs []error
	for _, c := range d.closers {
		errs = append(errs, c.Close())
	}
	return errors.Join(errs...)
}
