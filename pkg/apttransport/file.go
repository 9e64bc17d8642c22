package apttransport

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
)

var _ Transport = &FileTransport{}

type FileTransport struct{}

func NewFileTransport() *FileTransport {
	return &FileTransport{}
}

func (t *FileTransport) Schemes() []string {
	return []string{"file"}
}

func (t *FileTransport) Acquire(ctx context.Context, req *AcquireRequest) (*AcquireResponse, error) {
	path := req.URI.Path
	if req.URI.Host != "" {
		// Handle file://host/path format (though host should be empty for local files)
		path = filepath.Join(req.URI.Host, path)
	}

	if err := ctx.Err(); err != nil {
		return nil, &AcquireError{
			URI:    req.URI,
			Reason: "context cancelled",
			Err:    err,
		}
	}

	fileInfo, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, &AcquireError{
				URI:    req.URI,
				Reason: "file not found",
				Err:    ErrNotFound,
			}
		}
		return nil, &AcquireError{
			URI:    req.URI,
			Reason: "failed to stat file",
			Err:    err,
		}
	}

	if fileInfo.IsDir() {
		return nil, &AcquireError{
			URI:    req.URI,
			Reason: "path is a directory",
		}
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, &AcquireError{
			URI:    req.URI,
			Reason: "failed to open file",
			Err:    err,
		}
	}

	modTime := fileInfo.ModTime()
	return &AcquireResponse{
		URI:          req.URI,
		Content:      file,
		Size:         fileInfo.Size(),
		LastModified: &modTime,
	}, nil
}
