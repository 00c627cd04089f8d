package mocks

import (
	"context"

	"lifevault/internal/model"
	"lifevault/internal/service"

	"github.com/stretchr/testify/mock"
)

type MockDocumentService struct {
	mock.Mock
}

func (m *MockDocumentService) List(ctx context.Context, ownerID, recordID string) ([]model.Document, error) {
	args := m.Called(ctx, ownerID, recordID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Document), args.Error(1)
}

func (m *MockDocumentService) Attach(ctx context.Context, ownerID, recordID string, uploads []service.Upload, displayNames []string) (*service.AttachResult, error) {
	args := m.Called(ctx, ownerID, recordID, uploads, displayNames)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.AttachResult), args.Error(1)
}

func (m *MockDocumentService) Detach(ctx context.Context, ownerID, recordID, candidateID string) error {
	args := m.Called(ctx, ownerID, recordID, candidateID)
	return args.Error(0)
}
