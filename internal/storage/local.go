package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/AIrWong777/my--literature-app/internal/filename"
	"github.com/AIrWong777/my--literature-app/internal/model"
)

// DefaultRoot is the upload root used when none is configured.
const DefaultRoot = "uploads"

// localStore implements FileStore on the local filesystem. All
// operations are plain blocking filesystem calls; per-file state lives
// only on disk, so the store itself is safe for concurrent use.
type localStore struct {
	root   string
	logger *slog.Logger
}

// NewLocal creates the upload root if absent and returns a FileStore
// rooted there. Root creation happens here, at explicit initialization,
// not as an import side effect.
func NewLocal(root string, logger *slog.Logger) (FileStore, error) {
	if root == "" {
		root = DefaultRoot
	}
	if logger == nil {
		logger = slog.Default()
	}

	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create upload root: %w", err)
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve upload root: %w", err)
	}

	return &localStore{root: abs, logger: logger}, nil
}

// Allocate claims the first free candidate name atomically with
// O_CREATE|O_EXCL, advancing the _1, _2, ... suffix on collision. The
// claim removes the race between two uploads resolving the same name:
// whoever creates the file owns that name.
func (s *localStore) Allocate(ctx context.Context, group, name string) (*Destination, error) {
	if err := validGroup(group); err != nil {
		return nil, err
	}

	name = filename.Normalize(name)
	if name == "" || name == "." || name == ".." {
		name = filename.Placeholder
	}

	groupPath := filepath.Join(s.root, group)
	if err := os.MkdirAll(groupPath, 0o755); err != nil {
		s.logger.Error("create group directory failed", "group", group, "error", err)
		return nil, ErrStorageUnavailable
	}

	base, ext := filename.SplitExt(name)
	for n := 0; ; n++ {
		candidate := name
		if n > 0 {
			candidate = fmt.Sprintf("%s_%d%s", base, n, ext)
		}
		absPath := filepath.Join(groupPath, candidate)

		f, err := os.OpenFile(absPath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
		if err != nil {
			if errors.Is(err, fs.ErrExist) {
				continue
			}
			s.logger.Error("claim destination failed", "path", absPath, "error", err)
			return nil, ErrStorageUnavailable
		}
		f.Close()

		if n > 0 {
			s.logger.Info("filename taken, using suffixed name", "group", group, "filename", candidate)
		}
		return &Destination{
			AbsPath: absPath,
			RelPath: filepath.ToSlash(filepath.Join(group, candidate)),
		}, nil
	}
}

// Save streams src to destination in chunks, overwriting whatever is at
// that exact path (normally the empty file claimed by Allocate). The
// source is rewound on every exit path so callers may reuse it.
func (s *localStore) Save(ctx context.Context, destination string, src io.ReadSeeker) (written int64, err error) {
	defer func() {
		if _, seekErr := src.Seek(0, io.SeekStart); seekErr != nil && err == nil {
			err = fmt.Errorf("rewind source: %w", seekErr)
		}
	}()

	if err := os.MkdirAll(filepath.Dir(destination), 0o755); err != nil {
		s.logger.Error("create destination directory failed", "path", destination, "error", err)
		return 0, fmt.Errorf("create destination directory: %w", err)
	}

	dst, err := os.OpenFile(destination, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		s.logger.Error("open destination failed", "path", destination, "error", err)
		return 0, fmt.Errorf("open destination: %w", err)
	}

	written, err = io.Copy(dst, src)
	if cerr := dst.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		s.logger.Error("save file failed", "path", destination, "error", err)
		return written, fmt.Errorf("write destination: %w", err)
	}

	s.logger.Info("file saved", "path", destination, "bytes", written)
	return written, nil
}

// Stat re-reads filesystem metadata, distinguishing absence from a
// permission failure.
func (s *localStore) Stat(ctx context.Context, group, name string) (*model.FileStats, error) {
	if err := validGroup(group); err != nil {
		return nil, err
	}
	p, ok := s.filePath(group, name)
	if !ok {
		return nil, ErrNotFound
	}

	fi, err := os.Stat(p)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrNotFound
		}
		s.logger.Error("stat file failed", "path", p, "error", err)
		if errors.Is(err, fs.ErrPermission) {
			return nil, ErrAccessDenied
		}
		return nil, fmt.Errorf("stat file: %w", err)
	}

	return statsFor(fi), nil
}

// Remove deletes a stored file. Absence is success: deleting the same
// file twice is not an error.
func (s *localStore) Remove(ctx context.Context, group, name string) error {
	if err := validGroup(group); err != nil {
		return err
	}
	p, ok := s.filePath(group, name)
	if !ok {
		return nil
	}

	if err := os.Remove(p); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			s.logger.Warn("file already absent", "path", p)
			return nil
		}
		s.logger.Error("remove file failed", "path", p, "error", err)
		return fmt.Errorf("remove file: %w", err)
	}

	s.logger.Info("file removed", "path", p)
	return nil
}

// Open returns the file content as a reader alongside its metadata.
func (s *localStore) Open(ctx context.Context, group, name string) (io.ReadCloser, *model.FileStats, error) {
	if err := validGroup(group); err != nil {
		return nil, nil, err
	}
	p, ok := s.filePath(group, name)
	if !ok {
		return nil, nil, ErrNotFound
	}

	f, err := os.Open(p)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil, ErrNotFound
		}
		s.logger.Error("open file failed", "path", p, "error", err)
		if errors.Is(err, fs.ErrPermission) {
			return nil, nil, ErrAccessDenied
		}
		return nil, nil, fmt.Errorf("open file: %w", err)
	}

	fi, err := f.Stat()
	if err != nil {
		f.Close()
		s.logger.Error("stat open file failed", "path", p, "error", err)
		return nil, nil, fmt.Errorf("stat file: %w", err)
	}
	if fi.IsDir() {
		f.Close()
		return nil, nil, ErrNotFound
	}

	return f, statsFor(fi), nil
}

// List returns the files currently stored for a group. A group whose
// directory does not exist yet simply has no files.
func (s *localStore) List(ctx context.Context, group string) ([]model.StoredFile, error) {
	if err := validGroup(group); err != nil {
		return nil, err
	}

	dir := filepath.Join(s.root, group)
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return []model.StoredFile{}, nil
		}
		s.logger.Error("list group directory failed", "group", group, "error", err)
		return nil, fmt.Errorf("list group: %w", err)
	}

	files := make([]model.StoredFile, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		fi, err := e.Info()
		if err != nil {
			// entry vanished between readdir and stat
			continue
		}
		files = append(files, model.StoredFile{
			Filename:   e.Name(),
			Group:      group,
			Path:       filepath.ToSlash(filepath.Join(group, e.Name())),
			Size:       fi.Size(),
			UploadedAt: fi.ModTime(),
		})
	}
	return files, nil
}

// Ready verifies the upload root is writable by creating and removing a
// probe file.
func (s *localStore) Ready(ctx context.Context) error {
	f, err := os.CreateTemp(s.root, ".readiness-*")
	if err != nil {
		s.logger.Error("storage readiness probe failed", "root", s.root, "error", err)
		return ErrStorageUnavailable
	}
	name := f.Name()
	f.Close()
	_ = os.Remove(name)
	return nil
}

// filePath builds the on-disk path for a stored file. The name goes
// through the same normalization as at upload time, so lookups can
// never address anything outside the group directory.
func (s *localStore) filePath(group, name string) (string, bool) {
	name = filename.Normalize(name)
	if name == "" || name == "." || name == ".." {
		return "", false
	}
	return filepath.Join(s.root, group, name), true
}

func validGroup(group string) error {
	if group == "" || group == "." || group == ".." {
		return ErrInvalidGroup
	}
	if strings.ContainsAny(group, `/\`) || strings.ContainsRune(group, 0) {
		return ErrInvalidGroup
	}
	return nil
}

func statsFor(fi os.FileInfo) *model.FileStats {
	created, accessed := fileTimes(fi)
	return &model.FileStats{
		Size:       fi.Size(),
		CreatedAt:  created,
		ModifiedAt: fi.ModTime(),
		AccessedAt: accessed,
	}
}
