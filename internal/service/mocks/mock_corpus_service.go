package mocks

import (
	"context"

	"bluebanner/internal/model"
	"bluebanner/internal/service"
	"github.com/stretchr/testify/mock"
)

type MockCorpusService struct {
	mock.Mock
}

func (m *MockCorpusService) Crawl(ctx context.Context, sourceName string) (*service.CrawlResult, error) {
	args := m.Called(ctx, sourceName)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.CrawlResult), args.Error(1)
}

func (m *MockCorpusService) Ingest(ctx context.Context, sourceName string) (*service.IngestResult, error) {
	args := m.Called(ctx, sourceName)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.IngestResult), args.Error(1)
}

func (m *MockCorpusService) Purge(ctx context.Context, sourceName string) (*service.PurgeResult, error) {
	args := m.Called(ctx, sourceName)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.PurgeResult), args.Error(1)
}

func (m *MockCorpusService) Sources(ctx context.Context) ([]service.SourceStatus, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]service.SourceStatus), args.Error(1)
}

func (m *MockCorpusService) Pages(ctx context.Context, source string, limit, offset int) (*service.PageListResult, error) {
	args := m.Called(ctx, source, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.PageListResult), args.Error(1)
}

func (m *MockCorpusService) Stats(ctx context.Context) (*model.IndexStats, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.IndexStats), args.Error(1)
}

func (m *MockCorpusService) Site(sourceName string) (model.Site, bool) {
	args := m.Called(sourceName)
	return args.Get(0).(model.Site), args.Bool(1)
}
