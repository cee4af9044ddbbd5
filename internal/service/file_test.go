package service

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AIrWong777/my--literature-app/internal/model"
	"github.com/AIrWong777/my--literature-app/internal/storage"
	storeMocks "github.com/AIrWong777/my--literature-app/internal/storage/mocks"
)

func newTestService(store storage.FileStore, archive storage.Archiver) FileService {
	return NewFileService(store, archive, 50<<20, nil)
}

func TestFileService_ValidateFilename(t *testing.T) {
	svc := newTestService(nil, nil)

	tests := []struct {
		name    string
		input   string
		want    string
		wantErr error
	}{
		{name: "happy path", input: "report.pdf", want: "report.pdf"},
		{name: "uppercase extension allowed", input: "REPORT.PDF", want: "REPORT.PDF"},
		{name: "mixed case extension allowed", input: "notes.Md", want: "notes.Md"},
		{name: "unsafe characters normalized", input: "re<port>.pdf", want: "re_port_.pdf"},
		{name: "empty filename", input: "", wantErr: ErrFilenameRequired},
		{name: "disallowed extension", input: "virus.exe", wantErr: ErrExtensionNotAllowed},
		{name: "double extension checks the last", input: "report.pdf.exe", wantErr: ErrExtensionNotAllowed},
		{name: "no extension", input: "README", wantErr: ErrExtensionNotAllowed},
		{name: "bare dotfile has no extension", input: ".pdf", wantErr: ErrExtensionNotAllowed},
		{name: "traversal attempt rejected by extension rule", input: "../../etc/passwd", wantErr: ErrExtensionNotAllowed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := svc.ValidateFilename(tt.input)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Empty(t, got)
			} else {
				assert.NoError(t, err)
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestFileService_ValidateFilename_AllowList(t *testing.T) {
	svc := newTestService(nil, nil)

	for _, ext := range []string{".pdf", ".doc", ".docx", ".txt", ".rtf", ".md"} {
		for _, variant := range []string{ext, strings.ToUpper(ext)} {
			_, err := svc.ValidateFilename("file" + variant)
			assert.NoError(t, err, "extension %q", variant)
		}
	}
}

func TestFileService_ValidateFilename_ErrorMessageNamesAllowedTypes(t *testing.T) {
	svc := newTestService(nil, nil)

	_, err := svc.ValidateFilename("photo.png")
	require.Error(t, err)
	for _, ext := range []string{".pdf", ".doc", ".docx", ".txt", ".rtf", ".md"} {
		assert.Contains(t, err.Error(), ext)
	}
}

func TestFileService_AllowedSize(t *testing.T) {
	svc := NewFileService(nil, nil, 100, nil)

	assert.True(t, svc.AllowedSize(0))
	assert.True(t, svc.AllowedSize(99))
	assert.True(t, svc.AllowedSize(100))
	assert.False(t, svc.AllowedSize(101))
}

func TestFileService_Describe(t *testing.T) {
	svc := newTestService(nil, nil)

	tests := []struct {
		name            string
		input           string
		contentType     string
		wantFilename    string
		wantExt         string
		wantContentType string
	}{
		{
			name:            "pdf resolved from extension table",
			input:           "report.pdf",
			wantFilename:    "report.pdf",
			wantExt:         ".pdf",
			wantContentType: "application/pdf",
		},
		{
			name:            "declared content type wins",
			input:           "report.pdf",
			contentType:     "application/x-custom",
			wantFilename:    "report.pdf",
			wantExt:         ".pdf",
			wantContentType: "application/x-custom",
		},
		{
			name:            "unknown extension falls back to octet-stream",
			input:           "data.zz9",
			wantFilename:    "data.zz9",
			wantExt:         ".zz9",
			wantContentType: "application/octet-stream",
		},
		{
			name:            "name is normalized and extension lowercased",
			input:           "my/REPORT.PDF",
			wantFilename:    "my_REPORT.PDF",
			wantExt:         ".pdf",
			wantContentType: "application/pdf",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			info := svc.Describe(tt.input, tt.contentType)

			require.NotNil(t, info)
			assert.Equal(t, tt.wantFilename, info.Filename)
			assert.Equal(t, tt.wantExt, info.Extension)
			assert.Equal(t, tt.wantContentType, info.ContentType)
			assert.Zero(t, info.Size)
		})
	}
}

func TestFileService_Upload(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name        string
		group       string
		uploadName  string
		contentType string
		withArchive bool
		setupMocks  func(mStore *storeMocks.MockFileStore, mArchive *storeMocks.MockArchiver) io.ReadSeeker
		wantErr     error
		wantErrMsg  string
		check       func(t *testing.T, stored *model.StoredFile)
	}{
		{
			name:       "happy path",
			group:      "lab",
			uploadName: "report.pdf",
			setupMocks: func(mStore *storeMocks.MockFileStore, mArchive *storeMocks.MockArchiver) io.ReadSeeker {
				r := strings.NewReader("hello world")
				mStore.On("Allocate", ctx, "lab", "report.pdf").
					Return(&storage.Destination{AbsPath: "/data/uploads/lab/report.pdf", RelPath: "lab/report.pdf"}, nil)
				mStore.On("Save", ctx, "/data/uploads/lab/report.pdf", r).Return(int64(11), nil)
				return r
			},
			check: func(t *testing.T, stored *model.StoredFile) {
				assert.Equal(t, "report.pdf", stored.Filename)
				assert.Equal(t, "lab", stored.Group)
				assert.Equal(t, "lab/report.pdf", stored.Path)
				assert.Equal(t, int64(11), stored.Size)
				assert.Equal(t, "application/pdf", stored.ContentType)
				assert.WithinDuration(t, time.Now().UTC(), stored.UploadedAt, time.Minute)
			},
		},
		{
			name:       "collision suffix flows into the result",
			group:      "lab",
			uploadName: "report.pdf",
			setupMocks: func(mStore *storeMocks.MockFileStore, mArchive *storeMocks.MockArchiver) io.ReadSeeker {
				r := strings.NewReader("hello")
				mStore.On("Allocate", ctx, "lab", "report.pdf").
					Return(&storage.Destination{AbsPath: "/data/uploads/lab/report_1.pdf", RelPath: "lab/report_1.pdf"}, nil)
				mStore.On("Save", ctx, "/data/uploads/lab/report_1.pdf", r).Return(int64(5), nil)
				return r
			},
			check: func(t *testing.T, stored *model.StoredFile) {
				assert.Equal(t, "report_1.pdf", stored.Filename)
				assert.Equal(t, "lab/report_1.pdf", stored.Path)
			},
		},
		{
			name:       "nil reader",
			group:      "lab",
			uploadName: "report.pdf",
			setupMocks: func(mStore *storeMocks.MockFileStore, mArchive *storeMocks.MockArchiver) io.ReadSeeker {
				return nil
			},
			wantErr: ErrReaderNil,
		},
		{
			name:       "validation failure skips the store",
			group:      "lab",
			uploadName: "virus.exe",
			setupMocks: func(mStore *storeMocks.MockFileStore, mArchive *storeMocks.MockArchiver) io.ReadSeeker {
				return strings.NewReader("x")
			},
			wantErr: ErrExtensionNotAllowed,
		},
		{
			name:       "invalid group from the store",
			group:      "a/b",
			uploadName: "report.pdf",
			setupMocks: func(mStore *storeMocks.MockFileStore, mArchive *storeMocks.MockArchiver) io.ReadSeeker {
				mStore.On("Allocate", ctx, "a/b", "report.pdf").Return(nil, storage.ErrInvalidGroup)
				return strings.NewReader("x")
			},
			wantErr: storage.ErrInvalidGroup,
		},
		{
			name:       "storage unavailable",
			group:      "lab",
			uploadName: "report.pdf",
			setupMocks: func(mStore *storeMocks.MockFileStore, mArchive *storeMocks.MockArchiver) io.ReadSeeker {
				mStore.On("Allocate", ctx, "lab", "report.pdf").Return(nil, storage.ErrStorageUnavailable)
				return strings.NewReader("x")
			},
			wantErr: storage.ErrStorageUnavailable,
		},
		{
			name:       "save failure releases the claimed destination",
			group:      "lab",
			uploadName: "report.pdf",
			setupMocks: func(mStore *storeMocks.MockFileStore, mArchive *storeMocks.MockArchiver) io.ReadSeeker {
				r := strings.NewReader("hello")
				mStore.On("Allocate", ctx, "lab", "report.pdf").
					Return(&storage.Destination{AbsPath: "/data/uploads/lab/report.pdf", RelPath: "lab/report.pdf"}, nil)
				mStore.On("Save", ctx, "/data/uploads/lab/report.pdf", r).Return(int64(0), errors.New("disk full"))
				mStore.On("Remove", ctx, "lab", "report.pdf").Return(nil)
				return r
			},
			wantErrMsg: "save file: disk full",
		},
		{
			name:       "save failure with failed release still reports the save error",
			group:      "lab",
			uploadName: "report.pdf",
			setupMocks: func(mStore *storeMocks.MockFileStore, mArchive *storeMocks.MockArchiver) io.ReadSeeker {
				r := strings.NewReader("hello")
				mStore.On("Allocate", ctx, "lab", "report.pdf").
					Return(&storage.Destination{AbsPath: "/data/uploads/lab/report.pdf", RelPath: "lab/report.pdf"}, nil)
				mStore.On("Save", ctx, "/data/uploads/lab/report.pdf", r).Return(int64(0), errors.New("disk full"))
				mStore.On("Remove", ctx, "lab", "report.pdf").Return(errors.New("remove failed"))
				return r
			},
			wantErrMsg: "save file: disk full",
		},
		{
			name:        "archive mirror receives the rewound stream",
			group:       "lab",
			uploadName:  "report.pdf",
			withArchive: true,
			setupMocks: func(mStore *storeMocks.MockFileStore, mArchive *storeMocks.MockArchiver) io.ReadSeeker {
				r := strings.NewReader("hello world")
				mStore.On("Allocate", ctx, "lab", "report.pdf").
					Return(&storage.Destination{AbsPath: "/data/uploads/lab/report.pdf", RelPath: "lab/report.pdf"}, nil)
				mStore.On("Save", ctx, "/data/uploads/lab/report.pdf", r).Return(int64(11), nil)
				mArchive.On("Put", ctx, "lab/report.pdf", r, int64(11), "application/pdf").Return(nil)
				return r
			},
			check: func(t *testing.T, stored *model.StoredFile) {
				assert.Equal(t, int64(11), stored.Size)
			},
		},
		{
			name:        "archive mirror failure does not fail the upload",
			group:       "lab",
			uploadName:  "report.pdf",
			withArchive: true,
			setupMocks: func(mStore *storeMocks.MockFileStore, mArchive *storeMocks.MockArchiver) io.ReadSeeker {
				r := strings.NewReader("hello")
				mStore.On("Allocate", ctx, "lab", "report.pdf").
					Return(&storage.Destination{AbsPath: "/data/uploads/lab/report.pdf", RelPath: "lab/report.pdf"}, nil)
				mStore.On("Save", ctx, "/data/uploads/lab/report.pdf", r).Return(int64(5), nil)
				mArchive.On("Put", ctx, "lab/report.pdf", r, int64(5), "application/pdf").
					Return(errors.New("bucket gone"))
				return r
			},
			check: func(t *testing.T, stored *model.StoredFile) {
				assert.Equal(t, "report.pdf", stored.Filename)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mStore := new(storeMocks.MockFileStore)
			mArchive := new(storeMocks.MockArchiver)

			var archive storage.Archiver
			if tt.withArchive {
				archive = mArchive
			}
			svc := newTestService(mStore, archive)

			src := tt.setupMocks(mStore, mArchive)

			stored, err := svc.Upload(ctx, tt.group, src, tt.uploadName, tt.contentType)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, stored)
			} else if tt.wantErrMsg != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErrMsg)
				assert.Nil(t, stored)
			} else {
				require.NoError(t, err)
				require.NotNil(t, stored)
				if tt.check != nil {
					tt.check(t, stored)
				}
			}

			mStore.AssertExpectations(t)
			mArchive.AssertExpectations(t)
		})
	}
}

func TestFileService_Upload_SizeCeiling(t *testing.T) {
	mStore := new(storeMocks.MockFileStore)
	svc := NewFileService(mStore, nil, 4, nil)

	src := strings.NewReader("hello") // 5 bytes against a 4-byte ceiling
	stored, err := svc.Upload(context.Background(), "lab", src, "report.pdf", "")

	assert.ErrorIs(t, err, ErrFileTooLarge)
	assert.Nil(t, stored)
	mStore.AssertNumberOfCalls(t, "Allocate", 0)

	// the stream was rewound before the rejection
	rest, err := io.ReadAll(src)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(rest))
}

func TestFileService_Upload_SizeCeilingBoundary(t *testing.T) {
	ctx := context.Background()
	mStore := new(storeMocks.MockFileStore)
	svc := NewFileService(mStore, nil, 5, nil)

	src := strings.NewReader("hello")
	mStore.On("Allocate", ctx, "lab", "report.pdf").
		Return(&storage.Destination{AbsPath: "/data/uploads/lab/report.pdf", RelPath: "lab/report.pdf"}, nil)
	mStore.On("Save", ctx, "/data/uploads/lab/report.pdf", src).Return(int64(5), nil)

	stored, err := svc.Upload(ctx, "lab", src, "report.pdf", "")
	require.NoError(t, err)
	assert.Equal(t, int64(5), stored.Size)
	mStore.AssertExpectations(t)
}

func TestFileService_List(t *testing.T) {
	ctx := context.Background()

	t.Run("happy path fills content types", func(t *testing.T) {
		mStore := new(storeMocks.MockFileStore)
		mStore.On("List", ctx, "lab").Return([]model.StoredFile{
			{Filename: "a.pdf", Group: "lab", Path: "lab/a.pdf", Size: 3},
			{Filename: "b.zz9", Group: "lab", Path: "lab/b.zz9", Size: 7},
		}, nil)

		svc := newTestService(mStore, nil)
		res, err := svc.List(ctx, "lab")

		require.NoError(t, err)
		assert.Equal(t, 2, res.Total)
		require.Len(t, res.Items, 2)
		assert.Equal(t, "application/pdf", res.Items[0].ContentType)
		assert.Equal(t, "application/octet-stream", res.Items[1].ContentType)
		mStore.AssertExpectations(t)
	})

	t.Run("store error passes through", func(t *testing.T) {
		mStore := new(storeMocks.MockFileStore)
		mStore.On("List", ctx, "a/b").Return(nil, storage.ErrInvalidGroup)

		svc := newTestService(mStore, nil)
		_, err := svc.List(ctx, "a/b")

		assert.ErrorIs(t, err, storage.ErrInvalidGroup)
		mStore.AssertExpectations(t)
	})
}

func TestFileService_Stat(t *testing.T) {
	ctx := context.Background()

	t.Run("happy path", func(t *testing.T) {
		mStore := new(storeMocks.MockFileStore)
		want := &model.FileStats{Size: 42}
		mStore.On("Stat", ctx, "lab", "report.pdf").Return(want, nil)

		svc := newTestService(mStore, nil)
		stats, err := svc.Stat(ctx, "lab", "report.pdf")

		require.NoError(t, err)
		assert.Equal(t, want, stats)
		mStore.AssertExpectations(t)
	})

	t.Run("missing file", func(t *testing.T) {
		mStore := new(storeMocks.MockFileStore)
		mStore.On("Stat", ctx, "lab", "nope.pdf").Return(nil, storage.ErrNotFound)

		svc := newTestService(mStore, nil)
		_, err := svc.Stat(ctx, "lab", "nope.pdf")

		assert.ErrorIs(t, err, storage.ErrNotFound)
		mStore.AssertExpectations(t)
	})
}

func TestFileService_Delete(t *testing.T) {
	ctx := context.Background()

	t.Run("happy path without archive", func(t *testing.T) {
		mStore := new(storeMocks.MockFileStore)
		mStore.On("Remove", ctx, "lab", "report.pdf").Return(nil)

		svc := newTestService(mStore, nil)
		assert.NoError(t, svc.Delete(ctx, "lab", "report.pdf"))
		mStore.AssertExpectations(t)
	})

	t.Run("archive mirror is cleaned up", func(t *testing.T) {
		mStore := new(storeMocks.MockFileStore)
		mArchive := new(storeMocks.MockArchiver)
		mStore.On("Remove", ctx, "lab", "report.pdf").Return(nil)
		mArchive.On("Delete", ctx, "lab/report.pdf").Return(nil)

		svc := newTestService(mStore, mArchive)
		assert.NoError(t, svc.Delete(ctx, "lab", "report.pdf"))
		mStore.AssertExpectations(t)
		mArchive.AssertExpectations(t)
	})

	t.Run("archive delete failure is ignored", func(t *testing.T) {
		mStore := new(storeMocks.MockFileStore)
		mArchive := new(storeMocks.MockArchiver)
		mStore.On("Remove", ctx, "lab", "report.pdf").Return(nil)
		mArchive.On("Delete", ctx, "lab/report.pdf").Return(errors.New("bucket gone"))

		svc := newTestService(mStore, mArchive)
		assert.NoError(t, svc.Delete(ctx, "lab", "report.pdf"))
		mStore.AssertExpectations(t)
		mArchive.AssertExpectations(t)
	})

	t.Run("store error skips the archive", func(t *testing.T) {
		mStore := new(storeMocks.MockFileStore)
		mArchive := new(storeMocks.MockArchiver)
		mStore.On("Remove", ctx, "lab", "report.pdf").Return(errors.New("remove failed"))

		svc := newTestService(mStore, mArchive)
		assert.Error(t, svc.Delete(ctx, "lab", "report.pdf"))
		mStore.AssertExpectations(t)
		mArchive.AssertExpectations(t)
	})

	t.Run("archive key uses the normalized name", func(t *testing.T) {
		mStore := new(storeMocks.MockFileStore)
		mArchive := new(storeMocks.MockArchiver)
		mStore.On("Remove", ctx, "lab", "re:port.pdf").Return(nil)
		mArchive.On("Delete", ctx, "lab/re_port.pdf").Return(nil)

		svc := newTestService(mStore, mArchive)
		assert.NoError(t, svc.Delete(ctx, "lab", "re:port.pdf"))
		mArchive.AssertExpectations(t)
	})
}

func TestFileService_Download(t *testing.T) {
	ctx := context.Background()

	t.Run("happy path", func(t *testing.T) {
		mStore := new(storeMocks.MockFileStore)
		rc := io.NopCloser(strings.NewReader("hello"))
		mStore.On("Open", ctx, "lab", "report.pdf").
			Return(rc, &model.FileStats{Size: 5}, nil)

		svc := newTestService(mStore, nil)
		got, info, err := svc.Download(ctx, "lab", "report.pdf")

		require.NoError(t, err)
		assert.Equal(t, rc, got)
		require.NotNil(t, info)
		assert.Equal(t, "report.pdf", info.Filename)
		assert.Equal(t, ".pdf", info.Extension)
		assert.Equal(t, "application/pdf", info.ContentType)
		assert.Equal(t, int64(5), info.Size)
		mStore.AssertExpectations(t)
	})

	t.Run("missing file", func(t *testing.T) {
		mStore := new(storeMocks.MockFileStore)
		mStore.On("Open", ctx, "lab", "nope.pdf").Return(nil, nil, storage.ErrNotFound)

		svc := newTestService(mStore, nil)
		_, _, err := svc.Download(ctx, "lab", "nope.pdf")

		assert.ErrorIs(t, err, storage.ErrNotFound)
		mStore.AssertExpectations(t)
	})
}
