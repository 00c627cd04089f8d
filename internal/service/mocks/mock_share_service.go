package mocks

import (
	"context"
	"time"

	"lifevault/internal/model"
	"lifevault/internal/service"

	"github.com/stretchr/testify/mock"
)

type MockShareService struct {
	mock.Mock
}

func (m *MockShareService) Issue(ctx context.Context, ownerID string, ref service.CategoryRef, includeDocs bool, ttl time.Duration) (*model.ShareLink, error) {
	args := m.Called(ctx, ownerID, ref, includeDocs, ttl)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.ShareLink), args.Error(1)
}

func (m *MockShareService) Validate(ctx context.Context, token string) (*model.ShareLink, error) {
	args := m.Called(ctx, token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.ShareLink), args.Error(1)
}

func (m *MockShareService) Revoke(ctx context.Context, ownerID, token string) error {
	args := m.Called(ctx, ownerID, token)
	return args.Error(0)
}

func (m *MockShareService) Project(ctx context.Context, link *model.ShareLink) (*service.SharePayload, error) {
	args := m.Called(ctx, link)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.SharePayload), args.Error(1)
}
