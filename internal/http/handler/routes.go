package handler

import (
	"context"
	"database/sql"
	"errors"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"bluebanner/internal/jobs"
	"bluebanner/internal/service"
)

// askRequest is the body of POST /ask.
type askRequest struct {
	Question string `json:"question"`
}

// askResponse is the body of a successful POST /ask.
type askResponse struct {
	Answer string `json:"answer"`
}

// RegisterRoutes attaches HTTP routes to the provided Fiber app.
// Keep handlers minimal and free of business logic.
func RegisterRoutes(app *fiber.App, db *sql.DB, askSvc service.AskService, corpusSvc service.CorpusService, runner *jobs.Runner, reg *prometheus.Registry) {
	// Serve OpenAPI spec and Swagger UI
	app.Get("/openapi.yaml", func(c *fiber.Ctx) error {
		c.Type("yaml")
		return c.SendFile("openapi.yaml")
	})
	app.Get("/docs", func(c *fiber.Ctx) error {
		html := `<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="UTF-8" />
  <meta name="viewport" content="width=device-width, initial-scale=1" />
  <title>API Docs</title>
  <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@5/swagger-ui.css" />
</head>
<body>
  <div id="swagger-ui"></div>
  <script src="https://unpkg.com/swagger-ui-dist@5/swagger-ui-bundle.js"></script>
  <script>
    window.ui = SwaggerUIBundle({
      url: '/openapi.yaml',
      dom_id: '#swagger-ui',
      presets: [SwaggerUIBundle.presets.apis],
      layout: 'BaseLayout'
    });
  </script>
</body>
</html>`
		return c.Type("html").SendString(html)
	})

	app.Get("/", Welcome())
	app.Post("/ask", Ask(askSvc))

	app.Get("/sources", ListSources(corpusSvc))
	app.Post("/sources/:name/crawl", CrawlSource(corpusSvc, runner))
	app.Post("/sources/:name/ingest", IngestSource(corpusSvc, runner))
	app.Delete("/sources/:name", PurgeSource(corpusSvc))

	app.Get("/pages", ListPages(corpusSvc))
	app.Get("/corpus/stats", CorpusStats(corpusSvc))

	app.Get("/jobs", ListJobs(runner))
	app.Get("/jobs/:id", GetJob(runner))

	app.Get("/health", HealthCheck(db))
	app.Get("/healthz", LivenessProbe())

	if reg != nil {
		app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))
	}
}

// Welcome confirms the server is running.
func Welcome() fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"message": "Welcome to the FRC AI Assistant API"})
	}
}

// Ask answers a question from the ingested documentation.
func Ask(askSvc service.AskService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req askRequest
		if err := c.BodyParser(&req); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "request body must be JSON")
		}

		answer, err := askSvc.Ask(c.UserContext(), req.Question)
		if err != nil {
			if errors.Is(err, service.ErrQuestionRequired) {
				return writeError(c, fiber.StatusBadRequest, "QUESTION_REQUIRED", "question is required")
			}
			return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
		}
		return c.JSON(askResponse{Answer: answer})
	}
}

// ListSources lists configured sources with corpus counts.
func ListSources(corpusSvc service.CorpusService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		sources, err := corpusSvc.Sources(c.UserContext())
		if err != nil {
			return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
		}
		return c.JSON(fiber.Map{"data": sources})
	}
}

// CrawlSource enqueues a crawl job for a configured source.
func CrawlSource(corpusSvc service.CorpusService, runner *jobs.Runner) fiber.Handler {
	return func(c *fiber.Ctx) error {
		name := c.Params("name")
		if _, ok := corpusSvc.Site(name); !ok {
			return writeError(c, fiber.StatusNotFound, "NOT_FOUND", "source not found")
		}

		job, err := runner.Submit(jobs.KindCrawl, name, func(ctx context.Context) error {
			_, err := corpusSvc.Crawl(ctx, name)
			return err
		})
		if err != nil {
			if errors.Is(err, jobs.ErrQueueFull) {
				return writeError(c, fiber.StatusServiceUnavailable, "QUEUE_FULL", "job queue is full, retry later")
			}
			return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
		}
		return c.Status(fiber.StatusAccepted).JSON(job)
	}
}

// IngestSource enqueues an ingest job for a configured source.
func IngestSource(corpusSvc service.CorpusService, runner *jobs.Runner) fiber.Handler {
	return func(c *fiber.Ctx) error {
		name := c.Params("name")
		if _, ok := corpusSvc.Site(name); !ok {
			return writeError(c, fiber.StatusNotFound, "NOT_FOUND", "source not found")
		}

		job, err := runner.Submit(jobs.KindIngest, name, func(ctx context.Context) error {
			_, err := corpusSvc.Ingest(ctx, name)
			return err
		})
		if err != nil {
			if errors.Is(err, jobs.ErrQueueFull) {
				return writeError(c, fiber.StatusServiceUnavailable, "QUEUE_FULL", "job queue is full, retry later")
			}
			return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
		}
		return c.Status(fiber.StatusAccepted).JSON(job)
	}
}

// PurgeSource removes a source's vectors, pages, and stored objects.
func PurgeSource(corpusSvc service.CorpusService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		res, err := corpusSvc.Purge(c.UserContext(), c.Params("name"))
		if err != nil {
			if errors.Is(err, service.ErrUnknownSource) {
				return writeError(c, fiber.StatusNotFound, "NOT_FOUND", "source not found")
			}
			return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
		}
		return c.JSON(res)
	}
}

// ListPages lists stored page metadata with limit & offset.
func ListPages(corpusSvc service.CorpusService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		limitStr := c.Query("limit", "10")
		offsetStr := c.Query("offset", "0")
		limit, err := strconv.Atoi(limitStr)
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_LIMIT", "invalid limit")
		}
		offset, err := strconv.Atoi(offsetStr)
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_OFFSET", "invalid offset")
		}

		res, err := corpusSvc.Pages(c.UserContext(), c.Query("source"), limit, offset)
		if err != nil {
			return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
		}
		return c.JSON(res)
	}
}

// CorpusStats reports vector index totals.
func CorpusStats(corpusSvc service.CorpusService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		stats, err := corpusSvc.Stats(c.UserContext())
		if err != nil {
			return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
		}
		return c.JSON(stats)
	}
}

// ListJobs lists background jobs, newest first.
func ListJobs(runner *jobs.Runner) fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"data": runner.List()})
	}
}

// GetJob returns one background job by ID.
func GetJob(runner *jobs.Runner) fiber.Handler {
	return func(c *fiber.Ctx) error {
		job, ok := runner.Get(c.Params("id"))
		if !ok {
			return writeError(c, fiber.StatusNotFound, "NOT_FOUND", "job not found")
		}
		return c.JSON(job)
	}
}

// HealthCheck verifies DB connectivity.
func HealthCheck(db *sql.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
		defer cancel()
		if err := db.PingContext(ctx); err != nil {
			return writeError(c, fiber.StatusServiceUnavailable, "SERVICE_UNAVAILABLE", "dependency unavailable")
		}
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"status": "healthy"})
	}
}

// LivenessProbe is a simple liveness probe.
func LivenessProbe() fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	}
}
