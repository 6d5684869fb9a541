package storage

import (
	"context"
	"errors"
	"io"
)

var (
	ErrFileNotFound = errors.New("file not found")
	ErrInvalidPath  = errors.New("invalid file path")
)

// FileStorage archives generated documents such as payslips and run registers.
type FileStorage interface {
	// Upload stores a file and returns the cleaned path/key
	Upload(ctx context.Context, file io.Reader, path string, contentType string) (string, error)

	// Download retrieves a file. Returns ErrFileNotFound when it does not exist
	Download(ctx context.Context, path string) (io.ReadCloser, error)

	Delete(ctx context.Context, path string) error

	// URL returns the public URL of a stored file
	URL(path string) string

	Exists(ctx context.Context, path string) (bool, error)
}
