package mocks

import (
	"context"

	"digisewa/internal/ledger"

	"github.com/stretchr/testify/mock"
)

type MockAnchorer struct {
	mock.Mock
}

func (m *MockAnchorer) Anchor(ctx context.Context, documentID, contentDigest, department string) (ledger.Receipt, error) {
	args := m.Called(ctx, documentID, contentDigest, department)
	return args.Get(0).(ledger.Receipt), args.Error(1)
}

func (m *MockAnchorer) Verify(ctx context.Context, documentID, contentDigest string) (bool, error) {
	args := m.Called(ctx, documentID, contentDigest)
	return args.Bool(0), args.Error(1)
}
