package mocks

import (
	"context"
	"io"

	"github.com/stretchr/testify/mock"

	"github.com/AIrWong777/my--literature-app/internal/model"
	"github.com/AIrWong777/my--literature-app/internal/service"
)

type MockFileService struct {
	mock.Mock
}

func (m *MockFileService) ValidateFilename(name string) (string, error) {
	args := m.Called(name)
	return args.String(0), args.Error(1)
}

func (m *MockFileService) AllowedSize(size int64) bool {
	args := m.Called(size)
	return args.Bool(0)
}

func (m *MockFileService) Describe(name, contentType string) *model.FileInfo {
	args := m.Called(name, contentType)
	if args.Get(0) == nil {
		return nil
	}
	return args.Get(0).(*model.FileInfo)
}

func (m *MockFileService) Upload(ctx context.Context, group string, src io.ReadSeeker, name, contentType string) (*model.StoredFile, error) {
	args := m.Called(ctx, group, src, name, contentType)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.StoredFile), args.Error(1)
}

func (m *MockFileService) List(ctx context.Context, group string) (*service.FileListResult, error) {
	args := m.Called(ctx, group)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.FileListResult), args.Error(1)
}

func (m *MockFileService) Stat(ctx context.Context, group, name string) (*model.FileStats, error) {
	args := m.Called(ctx, group, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.FileStats), args.Error(1)
}

func (m *MockFileService) Delete(ctx context.Context, group, name string) error {
	args := m.Called(ctx, group, name)
	return args.Error(0)
}

func (m *MockFileService) Download(ctx context.Context, group, name string) (io.ReadCloser, *model.FileInfo, error) {
	args := m.Called(ctx, group, name)
	var rc io.ReadCloser
	if args.Get(0) != nil {
		rc = args.Get(0).(io.ReadCloser)
	}
	var info *model.FileInfo
	if args.Get(1) != nil {
		info = args.Get(1).(*model.FileInfo)
	}
	return rc, info, args.Error(2)
}
