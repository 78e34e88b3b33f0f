package main

import (
	"context"
	"log"
	"time"

	"github.com/gofiber/contrib/otelfiber"
	"github.com/gofiber/fiber/v2"
	_ "github.com/joho/godotenv/autoload"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"bluebanner/internal/ai"
	"bluebanner/internal/config"
	"bluebanner/internal/crawler"
	"bluebanner/internal/database"
	"bluebanner/internal/database/migration"
	handlers "bluebanner/internal/http/handler"
	"bluebanner/internal/http/middleware"
	"bluebanner/internal/jobs"
	"bluebanner/internal/otel"
	"bluebanner/internal/repository/postgres"
	"bluebanner/internal/service"
	"bluebanner/internal/storage"
)

func main() {
	// Load configuration from environment variables (.env auto-loaded if present)
	cfg := config.Load()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize tracing; degrades to a noop provider when the exporter is unavailable
	shutdownTracing, err := otel.Init(ctx, time.UTC)
	if err != nil {
		log.Fatalf("failed to initialize tracing: %v", err)
	}
	defer shutdownTracing(context.Background())

	// Initialize PostgreSQL connection (with pooling via database/sql)
	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}
	defer db.Close()

	if err := migration.EnsureMigrated(ctx, db, time.UTC, cfg.Database.Host); err != nil {
		log.Fatalf("failed to migrate database: %v", err)
	}

	// Initialize reusable S3-compatible object storage client (MinIO-supported)
	objStore, err := storage.NewMinIO(cfg.MinIO)
	if err != nil {
		log.Fatalf("failed to initialize object storage: %v", err)
	}

	llm, err := ai.NewOpenAI(cfg.OpenAI)
	if err != nil {
		log.Fatalf("failed to initialize OpenAI client: %v", err)
	}

	sites, err := config.LoadSites(cfg.Crawler.SitesFile)
	if err != nil {
		log.Fatalf("failed to load sites file: %v", err)
	}

	// Initialize repositories and services
	pageRepo := postgres.NewPagePostgres(db)
	vectorRepo := postgres.NewVectorPostgres(db)

	siteCrawler := crawler.New(cfg.Crawler)
	corpusSvc := service.NewCorpusService(sites, siteCrawler, objStore, pageRepo, vectorRepo, llm, cfg.Ingest)
	askSvc := service.NewAskService(llm, vectorRepo, cfg.TopK)

	// Background job runner for crawl and ingest work
	runner := jobs.NewRunner(ctx, cfg.Jobs.Workers, cfg.Jobs.QueueDepth)

	app := fiber.New(fiber.Config{
		ErrorHandler: handlers.ErrorHandler(),
	})

	// Register global middleware
	// RequestID middleware adds/propagates X-Request-ID and stores it in context
	app.Use(middleware.RequestID())
	// JSON Logger middleware for structured request logs
	app.Use(middleware.Logger())
	app.Use(otelfiber.Middleware())

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	promMW, err := middleware.NewPrometheusMiddleware(reg)
	if err != nil {
		log.Fatalf("failed to initialize metrics: %v", err)
	}
	app.Use(promMW.Handler())

	// Register HTTP routes with injected services
	handlers.RegisterRoutes(app, db, askSvc, corpusSvc, runner, reg)

	addr := ":" + cfg.Port

	if err := app.Listen(addr); err != nil {
		log.Fatalf("failed to start server: %v", err)
	}
}
