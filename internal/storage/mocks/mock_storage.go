package mocks

import (
	"context"

	"digisewa/internal/storage"

	"github.com/stretchr/testify/mock"
)

type MockStorage struct {
	mock.Mock
}

func (m *MockStorage) Put(ctx context.Context, blob []byte, opt storage.PutOptions) (string, error) {
	args := m.Called(ctx, blob, opt)
	return args.String(0), args.Error(1)
}

func (m *MockStorage) Get(ctx context.Context, contentAddress string) ([]byte, error) {
	args := m.Called(ctx, contentAddress)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}
