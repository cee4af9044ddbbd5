// Package storage contains the file stores for uploaded literature.
// The local filesystem under the upload root is the store of record;
// an optional S3-compatible archive mirrors it (see archive.go).
package storage

import (
	"context"
	"errors"
	"io"

	"github.com/AIrWong777/my--literature-app/internal/model"
)

var (
	// ErrNotFound reports that no file exists at the requested location.
	ErrNotFound = errors.New("file not found")
	// ErrAccessDenied reports a permission failure, distinct from absence.
	ErrAccessDenied = errors.New("file access denied")
	// ErrInvalidGroup reports a group name the store refuses to touch.
	ErrInvalidGroup = errors.New("invalid group name")
	// ErrStorageUnavailable reports that the upload root or a group
	// directory cannot be written. It is the one structured fault the
	// store surfaces; everything else is a sentinel or wrapped error.
	ErrStorageUnavailable = errors.New("storage unavailable")
)

// Destination is a claimed, collision-free location under the upload
// root. The path exists as an empty claimed file from the moment it is
// returned, so no concurrent allocation can pick the same name.
type Destination struct {
	AbsPath string
	RelPath string
}

// FileStore stores uploaded files below a fixed upload root, one group
// subdirectory per research group.
type FileStore interface {
	// Allocate reserves a collision-free destination for name inside
	// the group directory, creating the directory if absent. Colliding
	// names get _1, _2, ... suffixes before the extension.
	Allocate(ctx context.Context, group, name string) (*Destination, error)

	// Save streams src to the destination path in chunks and rewinds
	// src to the start on every exit path, success or failure, so
	// callers may reuse the stream. Returns the number of bytes written.
	Save(ctx context.Context, destination string, src io.ReadSeeker) (int64, error)

	// Stat re-reads filesystem metadata for a stored file. Missing
	// files yield ErrNotFound, permission failures ErrAccessDenied.
	Stat(ctx context.Context, group, name string) (*model.FileStats, error)

	// Remove deletes a stored file. An already-absent file is success.
	Remove(ctx context.Context, group, name string) error

	// Open returns the file content as a streaming reader along with
	// its current filesystem metadata.
	Open(ctx context.Context, group, name string) (io.ReadCloser, *model.FileStats, error)

	// List returns the files currently stored for a group. A group
	// with no uploads yet yields an empty list.
	List(ctx context.Context, group string) ([]model.StoredFile, error)

	// Ready probes that the upload root is writable.
	Ready(ctx context.Context) error
}
