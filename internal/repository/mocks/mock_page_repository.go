package mocks

import (
	"context"

	"bluebanner/internal/model"
	"bluebanner/internal/repository"
	"github.com/stretchr/testify/mock"
)

type MockPageRepository struct {
	mock.Mock
}

func (m *MockPageRepository) Upsert(ctx context.Context, page *model.Page) (*model.Page, error) {
	args := m.Called(ctx, page)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Page), args.Error(1)
}

func (m *MockPageRepository) List(ctx context.Context, pq repository.PageQuery) (*repository.PageResult[model.Page], error) {
	args := m.Called(ctx, pq)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*repository.PageResult[model.Page]), args.Error(1)
}

func (m *MockPageRepository) CountBySource(ctx context.Context) (map[string]int, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]int), args.Error(1)
}

func (m *MockPageRepository) DeleteBySource(ctx context.Context, source string) (int, error) {
	args := m.Called(ctx, source)
	return args.Int(0), args.Error(1)
}
