package apttransport

import (
	"context"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockTransport for testing
type mockTransport struct {
	responses map[string]string
	callCount map[string]int
}

func newMockTransport() *mockTransport {
	return &mockTransport{
		responses: make(map[string]string),
		callCount: make(map[string]int),
	}
}

func (m *mockTransport) Schemes() []string {
	return []string{"mock"}
}

func (m *mockTransport) Acquire(ctx context.Context, req *AcquireRequest) (*AcquireResponse, error) {
	key := req.URI.String()
	m.callCount[key]++

	if content, ok := m.responses[key]; ok {
		return &AcquireResponse{
			URI:     req.URI,
			Content: io.NopCloser(strings.NewReader(content)),
			Size:    int64(len(content)),
		}, nil
	}

	return nil, &AcquireError{
		URI:    req.URI,
		Reason: "mock response not found",
		Err:    ErrNotFound,
	}
}

func (m *mockTransport) setResponse(uri string, content string) {
	m.responses[uri] = content
}

func (m *mockTransport) getCallCount(uri string) int {
	return m.callCount[uri]
}

func readAll(t *testing.T, resp *AcquireResponse) string {
	t.Helper()
	defer resp.Content.Close()
	data, err := io.ReadAll(resp.Content)
	require.NoError(t, err)
	return string(data)
}

func mustParse(t *testing.T, raw string) *url.URL {
	t.Helper()
	u, err := url.Parse(raw)
	require.NoError(t, err)
	return u
}

func TestCacheTransport_Schemes(t *testing.T) {
	mock := newMockTransport()
	cache, err := NewCacheTransport(mock, CacheConfig{Dir: t.TempDir()})
	require.NoError(t, err)

	assert.Equal(t, mock.Schemes(), cache.Schemes())
}

func TestCacheTransport_HitAfterMiss(t *testing.T) {
	mock := newMockTransport()
	uri := "mock://archive/dists/bookworm/main/source/Sources.gz"
	mock.setResponse(uri, "sources content")

	cache, err := NewCacheTransport(mock, CacheConfig{Dir: t.TempDir()})
	require.NoError(t, err)

	ctx := context.Background()
	req := &AcquireRequest{URI: mustParse(t, uri)}

	resp, err := cache.Acquire(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, "sources content", readAll(t, resp))

	resp, err = cache.Acquire(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, "sources content", readAll(t, resp))

	assert.Equal(t, 1, mock.getCallCount(uri), "second request served from cache")
	hits, misses := cache.GetStats().GetStats()
	assert.Equal(t, int64(1), hits)
	assert.Equal(t, int64(1), misses)
	assert.Equal(t, 0.5, cache.GetStats().GetHitRatio())
}

func TestCacheTransport_PathKeepsExtension(t *testing.T) {
	dir := t.TempDir()
	cache, err := NewCacheTransport(newMockTransport(), CacheConfig{Dir: dir})
	require.NoError(t, err)

	gz := cache.Path(mustParse(t, "http://example.org/dists/sid/main/source/Sources.gz"))
	assert.Equal(t, dir, filepath.Dir(gz))
	assert.True(t, strings.HasSuffix(gz, ".gz"))
	assert.Len(t, filepath.Base(gz), 32+len(".gz"))

	plain := cache.Path(mustParse(t, "http://example.org/meta/afni/upstream"))
	assert.Len(t, filepath.Base(plain), 32)

	other := cache.Path(mustParse(t, "http://example.org/meta/fsl/upstream"))
	assert.NotEqual(t, plain, other)
}

func TestCacheTransport_Refresh(t *testing.T) {
	mock := newMockTransport()
	uri := "mock://archive/dists/bookworm/Release"
	mock.setResponse(uri, "old")
	dir := t.TempDir()
	ctx := context.Background()

	cache, err := NewCacheTransport(mock, CacheConfig{Dir: dir})
	require.NoError(t, err)
	resp, err := cache.Acquire(ctx, &AcquireRequest{URI: mustParse(t, uri)})
	require.NoError(t, err)
	assert.Equal(t, "old", readAll(t, resp))

	mock.setResponse(uri, "new")
	refreshing, err := NewCacheTransport(mock, CacheConfig{Dir: dir, Refresh: true})
	require.NoError(t, err)
	resp, err = refreshing.Acquire(ctx, &AcquireRequest{URI: mustParse(t, uri)})
	require.NoError(t, err)
	assert.Equal(t, "new", readAll(t, resp))
	assert.Equal(t, 2, mock.getCallCount(uri))
}

func TestCacheTransport_Offline(t *testing.T) {
	mock := newMockTransport()
	cached := "mock://archive/present"
	missing := "mock://archive/missing"
	mock.setResponse(cached, "here")
	mock.setResponse(missing, "never fetched")
	dir := t.TempDir()
	ctx := context.Background()

	online, err := NewCacheTransport(mock, CacheConfig{Dir: dir})
	require.NoError(t, err)
	resp, err := online.Acquire(ctx, &AcquireRequest{URI: mustParse(t, cached)})
	require.NoError(t, err)
	readAll(t, resp)

	offline, err := NewCacheTransport(nil, CacheConfig{Dir: dir})
	require.NoError(t, err)

	resp, err = offline.Acquire(ctx, &AcquireRequest{URI: mustParse(t, cached)})
	require.NoError(t, err)
	assert.Equal(t, "here", readAll(t, resp))

	_, err = offline.Acquire(ctx, &AcquireRequest{URI: mustParse(t, missing)})
	require.Error(t, err)
	assert.True(t, IsNotFound(err))
	assert.Equal(t, 0, mock.getCallCount(missing))

	assert.True(t, offline.Has(mustParse(t, cached)))
	assert.False(t, offline.Has(mustParse(t, missing)))
}

func TestCacheTransport_ErrorNotCached(t *testing.T) {
	mock := newMockTransport()
	uri := "mock://archive/absent"
	cache, err := NewCacheTransport(mock, CacheConfig{Dir: t.TempDir()})
	require.NoError(t, err)

	_, err = cache.Acquire(context.Background(), &AcquireRequest{URI: mustParse(t, uri)})
	require.Error(t, err)
	assert.True(t, IsNotFound(err))
	assert.False(t, cache.Has(mustParse(t, uri)))
}

func TestCacheTransport_PurgeCache(t *testing.T) {
	mock := newMockTransport()
	dir := t.TempDir()
	cache, err := NewCacheTransport(mock, CacheConfig{Dir: dir})
	require.NoError(t, err)

	for _, uri := range []string{"mock://a/Sources.gz", "mock://a/Packages.xz", "mock://a/Release"} {
		mock.setResponse(uri, uri)
		resp, err := cache.Acquire(context.Background(), &AcquireRequest{URI: mustParse(t, uri)})
		require.NoError(t, err)
		readAll(t, resp)
	}

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 3)

	require.NoError(t, cache.PurgeCache())

	entries, err = os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestGetDefaultCacheDir(t *testing.T) {
	t.Setenv("XDG_CACHE_HOME", "/tmp/xdg-cache")
	assert.Equal(t, filepath.Join("/tmp/xdg-cache", "bigmess", "files"), getDefaultCacheDir())
}

func TestIsFetchError(t *testing.T) {
	assert.True(t, IsFetchError(&AcquireError{URI: &url.URL{}, Reason: "x"}))
	assert.True(t, IsFetchError(&UnsupportedSchemeError{Scheme: "ftp"}))
	assert.False(t, IsFetchError(os.ErrClosed))
	assert.False(t, IsFetchError(nil))
}
