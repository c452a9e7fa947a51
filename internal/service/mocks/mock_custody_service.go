package mocks

import (
	"context"

	"digisewa/internal/model"
	"digisewa/internal/service"

	"github.com/stretchr/testify/mock"
)

type MockCustodyService struct {
	mock.Mock
}

func (m *MockCustodyService) Ingest(ctx context.Context, in service.IngestInput) (*service.IngestResult, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.IngestResult), args.Error(1)
}

func (m *MockCustodyService) Retrieve(ctx context.Context, documentID string, req model.Requester) (*service.Content, error) {
	args := m.Called(ctx, documentID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.Content), args.Error(1)
}

func (m *MockCustodyService) RetrieveByCode(ctx context.Context, code string) (*service.Content, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.Content), args.Error(1)
}

func (m *MockCustodyService) Get(ctx context.Context, documentID string, req model.Requester) (*model.Document, error) {
	args := m.Called(ctx, documentID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Document), args.Error(1)
}

func (m *MockCustodyService) ListByOwner(ctx context.Context, ownerID string, limit, offset int) (*service.DocumentListResult, error) {
	args := m.Called(ctx, ownerID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.DocumentListResult), args.Error(1)
}

func (m *MockCustodyService) SetStatus(ctx context.Context, documentID string, next model.Status, verifier model.Requester, remarks string) (*model.Document, error) {
	args := m.Called(ctx, documentID, next, verifier, remarks)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Document), args.Error(1)
}

func (m *MockCustodyService) GrantDepartmentAccess(ctx context.Context, documentID, departmentID, accessPolicy, grantedBy string) (*model.Document, error) {
	args := m.Called(ctx, documentID, departmentID, accessPolicy, grantedBy)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Document), args.Error(1)
}

func (m *MockCustodyService) VerifyAnchor(ctx context.Context, documentID string, req model.Requester) (bool, error) {
	args := m.Called(ctx, documentID, req)
	return args.Bool(0), args.Error(1)
}
