package mocks

import (
	"context"
	"io"

	"lifevault/internal/storage"

	"github.com/stretchr/testify/mock"
)

type MockBackend struct {
	mock.Mock
}

func (m *MockBackend) Put(ctx context.Context, ownerID, recordID, originalName string, r io.Reader, opt storage.PutOptions) (storage.Object, error) {
	args := m.Called(ctx, ownerID, recordID, originalName, r, opt)
	if f, ok := args.Get(0).(func(context.Context, string, string, string, io.Reader, storage.PutOptions) storage.Object); ok {
		return f(ctx, ownerID, recordID, originalName, r, opt), args.Error(1)
	}
	return args.Get(0).(storage.Object), args.Error(1)
}

func (m *MockBackend) Delete(ctx context.Context, key string) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}

func (m *MockBackend) URL(key string) string {
	args := m.Called(key)
	return args.String(0)
}
