package mocks

import (
	"context"

	"bluebanner/internal/model"
	"github.com/stretchr/testify/mock"
)

type MockVectorRepository struct {
	mock.Mock
}

func (m *MockVectorRepository) Upsert(ctx context.Context, embeddings []model.Embedding) error {
	args := m.Called(ctx, embeddings)
	return args.Error(0)
}

func (m *MockVectorRepository) Query(ctx context.Context, vector []float32, topK int) ([]model.Match, error) {
	args := m.Called(ctx, vector, topK)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Match), args.Error(1)
}

func (m *MockVectorRepository) DeleteBySource(ctx context.Context, source string, batchSize int) (int, error) {
	args := m.Called(ctx, source, batchSize)
	return args.Int(0), args.Error(1)
}

func (m *MockVectorRepository) Stats(ctx context.Context) (*model.IndexStats, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.IndexStats), args.Error(1)
}
