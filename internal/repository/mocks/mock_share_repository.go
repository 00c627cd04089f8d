package mocks

import (
	"context"
	"time"

	"lifevault/internal/model"

	"github.com/stretchr/testify/mock"
)

type MockShareRepository struct {
	mock.Mock
}

func (m *MockShareRepository) Create(ctx context.Context, link *model.ShareLink) (*model.ShareLink, error) {
	args := m.Called(ctx, link)
	if f, ok := args.Get(0).(func(context.Context, *model.ShareLink) *model.ShareLink); ok {
		return f(ctx, link), args.Error(1)
	}
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.ShareLink), args.Error(1)
}

func (m *MockShareRepository) FindByToken(ctx context.Context, token string) (*model.ShareLink, error) {
	args := m.Called(ctx, token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.ShareLink), args.Error(1)
}

func (m *MockShareRepository) FindByOwnerToken(ctx context.Context, ownerID, token string) (*model.ShareLink, error) {
	args := m.Called(ctx, ownerID, token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.ShareLink), args.Error(1)
}

func (m *MockShareRepository) Revoke(ctx context.Context, ownerID, token string, at time.Time) error {
	args := m.Called(ctx, ownerID, token, at)
	return args.Error(0)
}
