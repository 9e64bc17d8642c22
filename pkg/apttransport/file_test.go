package apttransport

import (
	"context"
	"net/url"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileTransport_Schemes(t *testing.T) {
	assert.Equal(t, []string{"file"}, NewFileTransport().Schemes())
}

func TestFileTransport_Acquire(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "Release")
	require.NoError(t, os.WriteFile(path, []byte("Codename: sid\n"), 0644))

	uri := &url.URL{Scheme: "file", Path: path}
	resp, err := NewFileTransport().Acquire(context.Background(), &AcquireRequest{URI: uri})
	require.NoError(t, err)

	assert.Equal(t, "Codename: sid\n", readAll(t, resp))
	assert.Equal(t, int64(14), resp.Size)
	assert.NotNil(t, resp.LastModified)
}

func TestFileTransport_Errors(t *testing.T) {
	dir := t.TempDir()
	tests := []struct {
		name     string
		path     string
		notFound bool
	}{
		{"missing file", filepath.Join(dir, "absent"), true},
		{"directory", dir, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			uri := &url.URL{Scheme: "file", Path: tt.path}
			_, err := NewFileTransport().Acquire(context.Background(), &AcquireRequest{URI: uri})
			require.Error(t, err)

			var acqErr *AcquireError
			require.ErrorAs(t, err, &acqErr)
			assert.Equal(t, tt.notFound, IsNotFound(err))
		})
	}
}

func TestFileTransport_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	uri := &url.URL{Scheme: "file", Path: "/etc/hostname"}
	_, err := NewFileTransport().Acquire(ctx, &AcquireRequest{URI: uri})
	assert.ErrorIs(t, err, context.Canceled)
}
