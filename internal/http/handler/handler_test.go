package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"bluebanner/internal/jobs"
	"bluebanner/internal/model"
	"bluebanner/internal/service"
	serviceMocks "bluebanner/internal/service/mocks"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestWelcome(t *testing.T) {
	app := fiber.New()
	app.Get("/", Welcome())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	resp, _ := app.Test(req)

	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var body map[string]string
	json.NewDecoder(resp.Body).Decode(&body)
	assert.Equal(t, "Welcome to the FRC AI Assistant API", body["message"])
}

func TestAsk(t *testing.T) {
	mockSvc := new(serviceMocks.MockAskService)
	app := fiber.New()
	app.Post("/ask", Ask(mockSvc))

	postJSON := func(payload string) *http.Response {
		req := httptest.NewRequest(http.MethodPost, "/ask", bytes.NewBufferString(payload))
		req.Header.Set("Content-Type", "application/json")
		resp, _ := app.Test(req)
		return resp
	}

	t.Run("success", func(t *testing.T) {
		mockSvc.On("Ask", mock.Anything, "What is a swerve drive?").
			Return("A swerve drive is a drivetrain where each wheel steers independently.", nil).Once()

		resp := postJSON(`{"question": "What is a swerve drive?"}`)

		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var body askResponse
		json.NewDecoder(resp.Body).Decode(&body)
		assert.Contains(t, body.Answer, "swerve drive")
		mockSvc.AssertExpectations(t)
	})

	t.Run("empty question", func(t *testing.T) {
		mockSvc.On("Ask", mock.Anything, "").
			Return("", service.ErrQuestionRequired).Once()

		resp := postJSON(`{"question": ""}`)

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

		var body errorPayload
		json.NewDecoder(resp.Body).Decode(&body)
		assert.Equal(t, "QUESTION_REQUIRED", body.Error.Code)
		mockSvc.AssertExpectations(t)
	})

	t.Run("invalid body", func(t *testing.T) {
		resp := postJSON(`not json`)

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

		var body errorPayload
		json.NewDecoder(resp.Body).Decode(&body)
		assert.Equal(t, "INVALID_BODY", body.Error.Code)
	})

	t.Run("service error", func(t *testing.T) {
		mockSvc.On("Ask", mock.Anything, "anything").
			Return("", errors.New("embed question: boom")).Once()

		resp := postJSON(`{"question": "anything"}`)

		assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
		mockSvc.AssertExpectations(t)
	})
}

func TestListSources(t *testing.T) {
	mockSvc := new(serviceMocks.MockCorpusService)
	app := fiber.New()
	app.Get("/sources", ListSources(mockSvc))

	t.Run("success", func(t *testing.T) {
		mockSvc.On("Sources", mock.Anything).Return([]service.SourceStatus{
			{Site: model.Site{Name: "wpilib"}, Pages: 12, Vectors: 340},
		}, nil).Once()

		req := httptest.NewRequest(http.MethodGet, "/sources", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var body struct {
			Data []service.SourceStatus `json:"data"`
		}
		json.NewDecoder(resp.Body).Decode(&body)
		require.Len(t, body.Data, 1)
		assert.Equal(t, "wpilib", body.Data[0].Name)
		assert.Equal(t, 340, body.Data[0].Vectors)
		mockSvc.AssertExpectations(t)
	})

	t.Run("service error", func(t *testing.T) {
		mockSvc.On("Sources", mock.Anything).Return(nil, errors.New("db error")).Once()

		req := httptest.NewRequest(http.MethodGet, "/sources", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
		mockSvc.AssertExpectations(t)
	})
}

func TestCrawlSource(t *testing.T) {
	t.Run("enqueues job", func(t *testing.T) {
		mockSvc := new(serviceMocks.MockCorpusService)
		mockSvc.On("Site", "wpilib").Return(model.Site{Name: "wpilib"}, true).Once()
		mockSvc.On("Crawl", mock.Anything, "wpilib").
			Return(&service.CrawlResult{Source: "wpilib"}, nil).Maybe()

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		runner := jobs.NewRunner(ctx, 1, 4)

		app := fiber.New()
		app.Post("/sources/:name/crawl", CrawlSource(mockSvc, runner))

		req := httptest.NewRequest(http.MethodPost, "/sources/wpilib/crawl", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusAccepted, resp.StatusCode)

		var job jobs.Job
		json.NewDecoder(resp.Body).Decode(&job)
		assert.NotEmpty(t, job.ID)
		assert.Equal(t, jobs.KindCrawl, job.Kind)
		assert.Equal(t, "wpilib", job.Source)
		mockSvc.AssertExpectations(t)
	})

	t.Run("unknown source", func(t *testing.T) {
		mockSvc := new(serviceMocks.MockCorpusService)
		mockSvc.On("Site", "nope").Return(model.Site{}, false).Once()

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		runner := jobs.NewRunner(ctx, 1, 4)

		app := fiber.New()
		app.Post("/sources/:name/crawl", CrawlSource(mockSvc, runner))

		req := httptest.NewRequest(http.MethodPost, "/sources/nope/crawl", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
		mockSvc.AssertExpectations(t)
	})

	t.Run("queue full", func(t *testing.T) {
		mockSvc := new(serviceMocks.MockCorpusService)
		mockSvc.On("Site", "wpilib").Return(model.Site{Name: "wpilib"}, true).Twice()

		// Canceled context stops the workers, so the one queue slot
		// stays occupied after the first submit.
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		runner := jobs.NewRunner(ctx, 1, 1)

		app := fiber.New()
		app.Post("/sources/:name/crawl", CrawlSource(mockSvc, runner))

		req := httptest.NewRequest(http.MethodPost, "/sources/wpilib/crawl", nil)
		resp, _ := app.Test(req)
		assert.Equal(t, http.StatusAccepted, resp.StatusCode)

		req = httptest.NewRequest(http.MethodPost, "/sources/wpilib/crawl", nil)
		resp, _ = app.Test(req)
		assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)

		var body errorPayload
		json.NewDecoder(resp.Body).Decode(&body)
		assert.Equal(t, "QUEUE_FULL", body.Error.Code)
		mockSvc.AssertExpectations(t)
	})
}

func TestIngestSource(t *testing.T) {
	t.Run("enqueues job", func(t *testing.T) {
		mockSvc := new(serviceMocks.MockCorpusService)
		mockSvc.On("Site", "rev").Return(model.Site{Name: "rev"}, true).Once()
		mockSvc.On("Ingest", mock.Anything, "rev").
			Return(&service.IngestResult{Source: "rev"}, nil).Maybe()

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		runner := jobs.NewRunner(ctx, 1, 4)

		app := fiber.New()
		app.Post("/sources/:name/ingest", IngestSource(mockSvc, runner))

		req := httptest.NewRequest(http.MethodPost, "/sources/rev/ingest", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusAccepted, resp.StatusCode)

		var job jobs.Job
		json.NewDecoder(resp.Body).Decode(&job)
		assert.Equal(t, jobs.KindIngest, job.Kind)
		assert.Equal(t, "rev", job.Source)
		mockSvc.AssertExpectations(t)
	})

	t.Run("unknown source", func(t *testing.T) {
		mockSvc := new(serviceMocks.MockCorpusService)
		mockSvc.On("Site", "nope").Return(model.Site{}, false).Once()

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		runner := jobs.NewRunner(ctx, 1, 4)

		app := fiber.New()
		app.Post("/sources/:name/ingest", IngestSource(mockSvc, runner))

		req := httptest.NewRequest(http.MethodPost, "/sources/nope/ingest", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
		mockSvc.AssertExpectations(t)
	})
}

func TestPurgeSource(t *testing.T) {
	mockSvc := new(serviceMocks.MockCorpusService)
	app := fiber.New()
	app.Delete("/sources/:name", PurgeSource(mockSvc))

	t.Run("success", func(t *testing.T) {
		mockSvc.On("Purge", mock.Anything, "ctre").Return(&service.PurgeResult{
			Source:  "ctre",
			Vectors: 120,
			Pages:   8,
			Objects: 8,
		}, nil).Once()

		req := httptest.NewRequest(http.MethodDelete, "/sources/ctre", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var body service.PurgeResult
		json.NewDecoder(resp.Body).Decode(&body)
		assert.Equal(t, 120, body.Vectors)
		assert.Equal(t, 8, body.Pages)
		mockSvc.AssertExpectations(t)
	})

	t.Run("unknown source", func(t *testing.T) {
		mockSvc.On("Purge", mock.Anything, "nope").
			Return(nil, service.ErrUnknownSource).Once()

		req := httptest.NewRequest(http.MethodDelete, "/sources/nope", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
		mockSvc.AssertExpectations(t)
	})
}

func TestListPages(t *testing.T) {
	mockSvc := new(serviceMocks.MockCorpusService)
	app := fiber.New()
	app.Get("/pages", ListPages(mockSvc))

	t.Run("success", func(t *testing.T) {
		mockSvc.On("Pages", mock.Anything, "wpilib", 5, 0).Return(&service.PageListResult{
			Items: []model.Page{{Source: "wpilib", URL: "https://docs.wpilib.org/"}},
			Total: 1,
		}, nil).Once()

		req := httptest.NewRequest(http.MethodGet, "/pages?source=wpilib&limit=5", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var body service.PageListResult
		json.NewDecoder(resp.Body).Decode(&body)
		assert.Len(t, body.Items, 1)
		assert.Equal(t, 1, body.Total)
		mockSvc.AssertExpectations(t)
	})

	t.Run("invalid limit", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/pages?limit=abc", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

		var body errorPayload
		json.NewDecoder(resp.Body).Decode(&body)
		assert.Equal(t, "INVALID_LIMIT", body.Error.Code)
	})

	t.Run("invalid offset", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/pages?offset=-x", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})
}

func TestCorpusStats(t *testing.T) {
	mockSvc := new(serviceMocks.MockCorpusService)
	app := fiber.New()
	app.Get("/corpus/stats", CorpusStats(mockSvc))

	mockSvc.On("Stats", mock.Anything).Return(&model.IndexStats{
		TotalVectors: 500,
		BySource:     map[string]int{"wpilib": 300, "rev": 200},
	}, nil).Once()

	req := httptest.NewRequest(http.MethodGet, "/corpus/stats", nil)
	resp, _ := app.Test(req)

	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var body model.IndexStats
	json.NewDecoder(resp.Body).Decode(&body)
	assert.Equal(t, 500, body.TotalVectors)
	assert.Equal(t, 300, body.BySource["wpilib"])
	mockSvc.AssertExpectations(t)
}

func TestJobs(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	runner := jobs.NewRunner(ctx, 1, 4)

	job, err := runner.Submit(jobs.KindCrawl, "wpilib", func(context.Context) error { return nil })
	require.NoError(t, err)

	app := fiber.New()
	app.Get("/jobs", ListJobs(runner))
	app.Get("/jobs/:id", GetJob(runner))

	t.Run("list", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/jobs", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var body struct {
			Data []jobs.Job `json:"data"`
		}
		json.NewDecoder(resp.Body).Decode(&body)
		require.Len(t, body.Data, 1)
		assert.Equal(t, job.ID, body.Data[0].ID)
	})

	t.Run("get", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/jobs/"+job.ID, nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var body jobs.Job
		json.NewDecoder(resp.Body).Decode(&body)
		assert.Equal(t, jobs.KindCrawl, body.Kind)
	})

	t.Run("not found", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/jobs/does-not-exist", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})
}

func TestHealthCheck(t *testing.T) {
	db, dbMock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	defer db.Close()

	app := fiber.New()
	app.Get("/health", HealthCheck(db))

	t.Run("healthy", func(t *testing.T) {
		dbMock.ExpectPing().WillReturnError(nil)

		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var body map[string]string
		json.NewDecoder(resp.Body).Decode(&body)
		assert.Equal(t, "healthy", body["status"])
	})

	t.Run("unhealthy", func(t *testing.T) {
		dbMock.ExpectPing().WillReturnError(errors.New("db error"))

		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)

		var body errorPayload
		json.NewDecoder(resp.Body).Decode(&body)
		assert.Equal(t, "SERVICE_UNAVAILABLE", body.Error.Code)
	})
}

func TestLivenessProbe(t *testing.T) {
	app := fiber.New()
	app.Get("/healthz", LivenessProbe())

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	resp, _ := app.Test(req)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
