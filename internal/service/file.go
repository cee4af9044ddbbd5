package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"path"
	"strings"
	"time"

	"github.com/AIrWong777/my--literature-app/internal/filename"
	"github.com/AIrWong777/my--literature-app/internal/model"
	"github.com/AIrWong777/my--literature-app/internal/storage"
)

// allowedExtensionList is the fixed extension allow-list, in a stable
// order for user-facing messages.
var allowedExtensionList = []string{".pdf", ".doc", ".docx", ".txt", ".rtf", ".md"}

var allowedExtensions = map[string]struct{}{
	".pdf":  {},
	".doc":  {},
	".docx": {},
	".txt":  {},
	".rtf":  {},
	".md":   {},
}

var (
	ErrFilenameRequired    = errors.New("filename is required")
	ErrExtensionNotAllowed = fmt.Errorf("unsupported file type, allowed types: %s", strings.Join(allowedExtensionList, ", "))
	ErrFileTooLarge        = errors.New("file exceeds the maximum allowed size")
	ErrReaderNil           = errors.New("reader is nil")
)

// FileListResult is the service-level DTO for a group's stored files.
type FileListResult struct {
	Items []model.StoredFile `json:"data"`
	Total int                `json:"total"`
}

// FileService defines the use cases for handling uploaded literature files.
type FileService interface {
	// ValidateFilename checks that a filename is present and carries an
	// allowed extension. It returns the normalized form of the name;
	// the input is never mutated.
	ValidateFilename(name string) (string, error)

	// AllowedSize reports whether a byte count is within the configured
	// upload ceiling. The transport checks the declared size up front;
	// Upload re-checks the measured stream.
	AllowedSize(size int64) bool

	// Describe returns the metadata snapshot for an upload before it is
	// persisted. Size stays 0 until the write completes.
	Describe(name, contentType string) *model.FileInfo

	// Upload validates the name, rejects streams beyond the size
	// ceiling, allocates a collision-free destination in the group
	// directory, persists the stream, and mirrors it to the archive
	// when one is configured.
	Upload(ctx context.Context, group string, src io.ReadSeeker, name, contentType string) (*model.StoredFile, error)

	// List returns the files currently stored for a group.
	List(ctx context.Context, group string) (*FileListResult, error)

	// Stat re-reads filesystem metadata for a stored file.
	Stat(ctx context.Context, group, name string) (*model.FileStats, error)

	// Delete removes a stored file and its archive mirror. Deleting an
	// already-absent file succeeds.
	Delete(ctx context.Context, group, name string) error

	// Download opens a stored file for reading alongside its metadata.
	Download(ctx context.Context, group, name string) (io.ReadCloser, *model.FileInfo, error)
}

// fileService is a concrete implementation of FileService.
type fileService struct {
	store   storage.FileStore
	archive storage.Archiver
	maxSize int64
	logger  *slog.Logger
}

// NewFileService constructs a new FileService. archive may be nil when
// mirroring is disabled.
func NewFileService(store storage.FileStore, archive storage.Archiver, maxSize int64, logger *slog.Logger) FileService {
	if logger == nil {
		logger = slog.Default()
	}
	return &fileService{store: store, archive: archive, maxSize: maxSize, logger: logger}
}

func (s *fileService) ValidateFilename(name string) (string, error) {
	if name == "" {
		return "", ErrFilenameRequired
	}

	normalized := filename.Normalize(name)
	_, ext := filename.SplitExt(normalized)
	if _, ok := allowedExtensions[strings.ToLower(ext)]; !ok {
		return "", ErrExtensionNotAllowed
	}
	return normalized, nil
}

func (s *fileService) AllowedSize(size int64) bool {
	return size <= s.maxSize
}

func (s *fileService) Describe(name, contentType string) *model.FileInfo {
	normalized := filename.Normalize(name)
	_, ext := filename.SplitExt(normalized)

	return &model.FileInfo{
		Filename:    normalized,
		Extension:   strings.ToLower(ext),
		ContentType: contentTypeFor(normalized, contentType),
		Size:        0, // populated only after the physical write
	}
}

func (s *fileService) Upload(ctx context.Context, group string, src io.ReadSeeker, name, contentType string) (*model.StoredFile, error) {
	if src == nil {
		return nil, ErrReaderNil
	}
	normalized, err := s.ValidateFilename(name)
	if err != nil {
		return nil, err
	}

	// The ceiling applies to the measured stream, not a declared size.
	// Nothing is claimed on disk for an oversized stream.
	size, err := src.Seek(0, io.SeekEnd)
	if err != nil {
		return nil, fmt.Errorf("measure source: %w", err)
	}
	if _, err := src.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("rewind source: %w", err)
	}
	if !s.AllowedSize(size) {
		return nil, ErrFileTooLarge
	}

	dest, err := s.store.Allocate(ctx, group, normalized)
	if err != nil {
		return nil, fmt.Errorf("allocate destination: %w", err)
	}

	written, err := s.store.Save(ctx, dest.AbsPath, src)
	if err != nil {
		// Release the claimed destination so the name can be reused.
		if remErr := s.store.Remove(ctx, group, path.Base(dest.RelPath)); remErr != nil {
			s.logger.Error("release claimed destination failed", "path", dest.RelPath, "error", remErr)
		}
		return nil, fmt.Errorf("save file: %w", err)
	}

	info := s.Describe(normalized, contentType)
	stored := &model.StoredFile{
		Filename:    path.Base(dest.RelPath),
		Group:       group,
		Path:        dest.RelPath,
		Size:        written,
		ContentType: info.ContentType,
		UploadedAt:  time.Now().UTC(),
	}

	if s.archive != nil {
		// Save rewound the source, so the same stream feeds the mirror.
		if err := s.archive.Put(ctx, dest.RelPath, src, written, info.ContentType); err != nil {
			s.logger.Warn("archive mirror failed", "path", dest.RelPath, "error", err)
		}
	}

	return stored, nil
}

func (s *fileService) List(ctx context.Context, group string) (*FileListResult, error) {
	files, err := s.store.List(ctx, group)
	if err != nil {
		return nil, err
	}
	for i := range files {
		files[i].ContentType = contentTypeFor(files[i].Filename, "")
	}
	return &FileListResult{Items: files, Total: len(files)}, nil
}

func (s *fileService) Stat(ctx context.Context, group, name string) (*model.FileStats, error) {
	return s.store.Stat(ctx, group, name)
}

func (s *fileService) Delete(ctx context.Context, group, name string) error {
	if err := s.store.Remove(ctx, group, name); err != nil {
		return err
	}

	if s.archive != nil {
		key := path.Join(group, filename.Normalize(name))
		if err := s.archive.Delete(ctx, key); err != nil {
			s.logger.Warn("archive delete failed", "key", key, "error", err)
		}
	}
	return nil
}

func (s *fileService) Download(ctx context.Context, group, name string) (io.ReadCloser, *model.FileInfo, error) {
	rc, stats, err := s.store.Open(ctx, group, name)
	if err != nil {
		return nil, nil, err
	}

	info := s.Describe(name, "")
	info.Size = stats.Size
	return rc, info, nil
}

// contentTypeFor resolves the content type from the declared value,
// falling back to the extension table and finally octet-stream.
func contentTypeFor(name, declared string) string {
	if declared != "" {
		return declared
	}
	_, ext := filename.SplitExt(name)
	if ct := mime.TypeByExtension(strings.ToLower(ext)); ct != "" {
		return ct
	}
	return "application/octet-stream"
}
