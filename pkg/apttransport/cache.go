package apttransport

import (
	"context"
	"crypto/md5"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"sync"

	"github.com/google/renameio"
	"github.com/rs/zerolog/log"
)

var _ Transport = &CacheTransport{}

// CacheStats tracks cache performance metrics
type CacheStats struct {
	hits   int64
	misses int64
	mu     sync.RWMutex
}

func (cs *CacheStats) Hit() {
	cs.mu.Lock()
	cs.hits++
	cs.mu.Unlock()
}

func (cs *CacheStats) Miss() {
	cs.mu.Lock()
	cs.misses++
	cs.mu.Unlock()
}

func (cs *CacheStats) GetStats() (hits, misses int64) {
	cs.mu.RLock()
	defer cs.mu.RUnlock()
	return cs.hits, cs.misses
}

func (cs *CacheStats) GetHitRatio() float64 {
	hits, misses := cs.GetStats()
	total := hits + misses
	if total == 0 {
		return 0.0
	}
	return float64(hits) / float64(total)
}

// CacheConfig configures the caching behavior
type CacheConfig struct {
	// Dir specifies the cache directory. If empty, uses XDG_CACHE_HOME/bigmess/files
	Dir string

	// Refresh downloads every resource again even when a copy is cached
	Refresh bool

	// Offline serves only cached copies; a miss is reported as ErrNotFound
	Offline bool
}

// CacheTransport stores every acquired resource in a local directory, one
// file per URL, and serves later requests from there.
type CacheTransport struct {
	wrapped Transport
	config  CacheConfig
	stats   *CacheStats
}

// NewCacheTransport creates a new caching transport that wraps another transport.
// wrapped may be nil for an offline cache.
func NewCacheTransport(wrapped Transport, config CacheConfig) (*CacheTransport, error) {
	if config.Dir == "" {
		config.Dir = getDefaultCacheDir()
	}
	if wrapped == nil {
		config.Offline = true
	}

	if err := os.MkdirAll(config.Dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory %s: %w", config.Dir, err)
	}
	log.Debug().Str("cache_dir", config.Dir).Bool("offline", config.Offline).Msg("cache: initialized")

	return &CacheTransport{
		wrapped: wrapped,
		config:  config,
		stats:   &CacheStats{},
	}, nil
}

func (c *CacheTransport) Schemes() []string {
	if c.wrapped == nil {
		return nil
	}
	return c.wrapped.Schemes()
}

// Dir is the directory holding cached files
func (c *CacheTransport) Dir() string {
	return c.config.Dir
}

// Path returns the cache file for uri: the md5 of the URL followed by the
// extension of the URL path, so compressed indexes keep their suffix.
func (c *CacheTransport) Path(uri *url.URL) string {
	return filepath.Join(c.config.Dir, cacheKey(uri)+path.Ext(uri.Path))
}

// Has reports whether uri is present in the cache
func (c *CacheTransport) Has(uri *url.URL) bool {
	info, err := os.Stat(c.Path(uri))
	return err == nil && info.Mode().IsRegular()
}

func (c *CacheTransport) Acquire(ctx context.Context, req *AcquireRequest) (*AcquireResponse, error) {
	cachePath := c.Path(req.URI)

	if !c.config.Refresh || c.config.Offline {
		if cached, err := c.loadFromCache(cachePath, req); err == nil {
			c.stats.Hit()
			log.Debug().Str("uri", req.URI.String()).Str("path", cachePath).Msg("cache: HIT")
			return cached, nil
		}
	}

	c.stats.Miss()
	log.Debug().Str("uri", req.URI.String()).Str("path", cachePath).Msg("cache: MISS")

	if c.config.Offline {
		return nil, &AcquireError{
			URI:    req.URI,
			Reason: "not in cache",
			Err:    ErrNotFound,
		}
	}

	resp, err := c.wrapped.Acquire(ctx, req)
	if err != nil {
		return nil, err
	}

	if err := c.store(resp.Content, cachePath); err != nil {
		return nil, &AcquireError{
			URI:    req.URI,
			Reason: "failed to store in cache",
			Err:    err,
		}
	}
	log.Debug().Str("uri", req.URI.String()).Str("path", cachePath).Msg("cache: stored")

	return c.loadFromCache(cachePath, req)
}

// store copies content into cachePath atomically and closes content
func (c *CacheTransport) store(content io.ReadCloser, cachePath string) error {
	defer content.Close()

	t, err := renameio.TempFile(filepath.Dir(cachePath), cachePath)
	if err != nil {
		return err
	}
	defer t.Cleanup()

	if _, err := io.Copy(t, content); err != nil {
		return err
	}
	return t.CloseAtomicallyReplace()
}

func (c *CacheTransport) loadFromCache(cachePath string, req *AcquireRequest) (*AcquireResponse, error) {
	file, err := os.Open(cachePath)
	if err != nil {
		return nil, err
	}

	info, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, err
	}

	modTime := info.ModTime()
	return &AcquireResponse{
		URI:          req.URI,
		Content:      file,
		Size:         info.Size(),
		LastModified: &modTime,
	}, nil
}

// PurgeCache removes all files from the cache directory
func (c *CacheTransport) PurgeCache() error {
	entries, err := os.ReadDir(c.config.Dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			log.Debug().Str("cache_dir", c.config.Dir).Msg("cache: purge skipped, cache directory doesn't exist")
			return nil
		}
		return err
	}

	var purged int
	for _, entry := range entries {
		if !entry.Type().IsRegular() {
			continue
		}
		if err := os.Remove(filepath.Join(c.config.Dir, entry.Name())); err != nil {
			return err
		}
		purged++
	}

	log.Debug().Str("cache_dir", c.config.Dir).Int("files_removed", purged).Msg("cache: purged")
	return nil
}

// GetStats returns the cache statistics
func (c *CacheTransport) GetStats() *CacheStats {
	return c.stats
}

func cacheKey(uri *url.URL) string {
	return fmt.Sprintf("%x", md5.Sum([]byte(uri.String())))
}

func getDefaultCacheDir() string {
	if xdgCache := os.Getenv("XDG_CACHE_HOME"); xdgCache != "" {
		return filepath.Join(xdgCache, "bigmess", "files")
	}

	if homeDir, err := os.UserHomeDir(); err == nil {
		return filepath.Join(homeDir, ".cache", "bigmess", "files")
	}

	return filepath.Join(".", ".cache", "bigmess", "files")
}
