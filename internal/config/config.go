package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"

	"bluebanner/internal/model"
)

// DatabaseConfig holds PostgreSQL database connection settings.
type DatabaseConfig struct {
	Host               string
	Port               string
	User               string
	Password           string
	Name               string
	SSLMode            string
	MaxOpenConns       int
	MaxIdleConns       int
	ConnMaxLifetimeSec int
}

// MinIOConfig holds object storage settings for MinIO.
type MinIOConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

// OpenAIConfig holds the models and credentials for embedding and
// answer generation.
type OpenAIConfig struct {
	APIKey          string
	EmbedModel      string
	ChatModel       string
	EmbedDimensions int
}

// CrawlerConfig holds crawl politeness and sizing settings.
// RPS drives a token bucket shared by all requests of one crawl.
type CrawlerConfig struct {
	SitesFile      string
	RPS            float64
	MaxPages       int
	HTTPTimeoutSec int
	UserAgent      string
}

// IngestConfig holds chunking and batching settings for ingestion.
type IngestConfig struct {
	ChunkSize    int
	ChunkOverlap int
	UpsertBatch  int
	DeleteBatch  int
}

// JobsConfig sizes the background job queue and worker pool.
type JobsConfig struct {
	Workers    int
	QueueDepth int
}

// AppConfig is the centralized configuration struct for the application.
// It is populated from environment variables. Sensitive values are not hardcoded.
type AppConfig struct {
	AppHost  string
	Port     string
	TopK     int
	Database DatabaseConfig
	MinIO    MinIOConfig
	OpenAI   OpenAIConfig
	Crawler  CrawlerConfig
	Ingest   IngestConfig
	Jobs     JobsConfig
}

// Load reads configuration from environment variables.
// A .env file can be auto-loaded by importing: _ "github.com/joho/godotenv/autoload"
// This function does not require a .env file; real environment variables take precedence.
func Load() *AppConfig {
	return &AppConfig{
		AppHost: getEnv("APP_HOST", "localhost:8080"),
		Port:    getEnv("PORT", "8080"), // default only for non-sensitive value
		TopK:    getEnvInt("BLUEBANNER_TOP_K", 5),
		Database: DatabaseConfig{
			Host:               getEnv("DB_HOST", ""),
			Port:               getEnv("DB_PORT", "5432"),
			User:               getEnv("DB_USER", ""),
			Password:           getEnv("DB_PASSWORD", ""),
			Name:               getEnv("DB_NAME", ""),
			SSLMode:            getEnv("DB_SSLMODE", "disable"),
			MaxOpenConns:       getEnvInt("DB_MAX_OPEN_CONNS", 10),
			MaxIdleConns:       getEnvInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetimeSec: getEnvInt("DB_CONN_MAX_LIFETIME_SEC", 300),
		},
		MinIO: MinIOConfig{
			Endpoint:  getEnv("MINIO_ENDPOINT", ""),
			AccessKey: getEnv("MINIO_ACCESS_KEY", ""),
			SecretKey: getEnv("MINIO_SECRET_KEY", ""),
			Bucket:    getEnv("MINIO_BUCKET", ""),
			UseSSL:    getEnvBool("MINIO_USE_SSL", false),
		},
		OpenAI: OpenAIConfig{
			APIKey:          getEnv("OPENAI_API_KEY", ""),
			EmbedModel:      getEnv("BLUEBANNER_EMBED_MODEL", "text-embedding-3-small"),
			ChatModel:       getEnv("BLUEBANNER_CHAT_MODEL", "gpt-4o"),
			EmbedDimensions: getEnvInt("BLUEBANNER_EMBED_DIMENSIONS", 1536),
		},
		Crawler: CrawlerConfig{
			SitesFile:      getEnv("BLUEBANNER_SITES_FILE", "sites.yaml"),
			RPS:            getEnvFloat("BLUEBANNER_CRAWL_RPS", 1),
			MaxPages:       getEnvInt("BLUEBANNER_CRAWL_MAX_PAGES", 0),
			HTTPTimeoutSec: getEnvInt("BLUEBANNER_HTTP_TIMEOUT_SEC", 15),
			UserAgent:      getEnv("BLUEBANNER_USER_AGENT", "BlueBannerBot-Scraper/1.0"),
		},
		Ingest: IngestConfig{
			ChunkSize:    getEnvInt("BLUEBANNER_CHUNK_SIZE", 1000),
			ChunkOverlap: getEnvInt("BLUEBANNER_CHUNK_OVERLAP", 200),
			UpsertBatch:  getEnvInt("BLUEBANNER_UPSERT_BATCH", 100),
			DeleteBatch:  getEnvInt("BLUEBANNER_DELETE_BATCH", 1000),
		},
		Jobs: JobsConfig{
			Workers:    getEnvInt("BLUEBANNER_JOB_WORKERS", 2),
			QueueDepth: getEnvInt("BLUEBANNER_JOB_QUEUE_DEPTH", 16),
		},
	}
}

// sitesFile is the on-disk shape of the crawl source list.
type sitesFile struct {
	Sites []model.Site `yaml:"sites"`
}

// LoadSites reads the crawl source definitions from a YAML file.
// Sites with no content_type default to "text".
func LoadSites(path string) ([]model.Site, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read sites file: %w", err)
	}

	var parsed sitesFile
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		return nil, fmt.Errorf("parse sites file: %w", err)
	}

	for i := range parsed.Sites {
		s := &parsed.Sites[i]
		if s.Name == "" || s.BaseURL == "" || s.AllowedDomain == "" {
			return nil, fmt.Errorf("sites file entry %d: name, base_url, and allowed_domain are required", i)
		}
		if s.ContentType == "" {
			s.ContentType = model.ContentTypeText
		}
		if s.ContentType != model.ContentTypeText && s.ContentType != model.ContentTypeCode {
			return nil, fmt.Errorf("sites file entry %q: unknown content_type %q", s.Name, s.ContentType)
		}
	}

	return parsed.Sites, nil
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return def
}

func getEnvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		i, err := strconv.Atoi(v)
		if err == nil {
			return i
		}
	}
	return def
}

func getEnvFloat(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err == nil {
			return f
		}
	}
	return def
}
