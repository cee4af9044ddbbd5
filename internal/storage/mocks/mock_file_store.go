package mocks

import (
	"context"
	"io"

	"github.com/stretchr/testify/mock"

	"github.com/AIrWong777/my--literature-app/internal/model"
	"github.com/AIrWong777/my--literature-app/internal/storage"
)

type MockFileStore struct {
	mock.Mock
}

func (m *MockFileStore) Allocate(ctx context.Context, group, name string) (*storage.Destination, error) {
	args := m.Called(ctx, group, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*storage.Destination), args.Error(1)
}

func (m *MockFileStore) Save(ctx context.Context, destination string, src io.ReadSeeker) (int64, error) {
	args := m.Called(ctx, destination, src)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockFileStore) Stat(ctx context.Context, group, name string) (*model.FileStats, error) {
	args := m.Called(ctx, group, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.FileStats), args.Error(1)
}

func (m *MockFileStore) Remove(ctx context.Context, group, name string) error {
	args := m.Called(ctx, group, name)
	return args.Error(0)
}

func (m *MockFileStore) Open(ctx context.Context, group, name string) (io.ReadCloser, *model.FileStats, error) {
	args := m.Called(ctx, group, name)
	var rc io.ReadCloser
	if args.Get(0) != nil {
		rc = args.Get(0).(io.ReadCloser)
	}
	var stats *model.FileStats
	if args.Get(1) != nil {
		stats = args.Get(1).(*model.FileStats)
	}
	return rc, stats, args.Error(2)
}

func (m *MockFileStore) List(ctx context.Context, group string) ([]model.StoredFile, error) {
	args := m.Called(ctx, group)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.StoredFile), args.Error(1)
}

func (m *MockFileStore) Ready(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}
