package app

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/yungbote/conscious-backend/internal/data/db"
	"github.com/yungbote/conscious-backend/internal/observability"
	"github.com/yungbote/conscious-backend/internal/platform/envutil"
	"github.com/yungbote/conscious-backend/internal/platform/gcp"
	"github.com/yungbote/conscious-backend/internal/platform/neo4jdb"
	"github.com/yungbote/conscious-backend/internal/platform/openai"
	"github.com/yungbote/conscious-backend/internal/platform/redisx"
)

type Config struct {
	LogMode     string
	Port        string
	CORSOrigins []string

	Postgres  db.PostgresConfig
	GraphName string

	VectorDimension     int
	DuplicateDistance   float64
	SimilarDefaultLimit int

	ReviewDefaultFetch int
	ReviewMaxFetch     int
	TxMaxAttempts      int

	SRSDesiredRetention float64
	SRSMaxIntervalDays  int
	SRSEnableFuzz       bool
	// SRSWeights is a comma-separated FSRS weight list; empty keeps the
	// library defaults.
	SRSWeights string

	OpenAI         openai.Config
	Redis          redisx.Config
	EmbedCacheTTL  time.Duration
	Neo4j          neo4jdb.Config
	Archive        gcp.BucketConfig
	ArchiveWorkers int
	Otel           observability.OtelConfig
}

func LoadConfig() Config {
	creds := envutil.String("GOOGLE_APPLICATION_CREDENTIALS_JSON", "")
	if creds == "" {
		creds = envutil.String("GOOGLE_APPLICATION_CREDENTIALS", "")
	}
	dim := envutil.Int("VECTOR_DIMENSION", 1024)
	return Config{
		LogMode:     envutil.String("LOG_MODE", "development"),
		Port:        envutil.String("PORT", "8080"),
		CORSOrigins: splitList(envutil.String("CORS_ALLOWED_ORIGINS", "")),

		Postgres: db.PostgresConfig{
			Host:            envutil.String("POSTGRES_HOST", "localhost"),
			Port:            envutil.String("POSTGRES_PORT", "5432"),
			User:            envutil.String("POSTGRES_USER", "postgres"),
			Password:        envutil.String("POSTGRES_PASSWORD", ""),
			Name:            envutil.String("POSTGRES_NAME", "conscious"),
			SSLMode:         envutil.String("POSTGRES_SSLMODE", "disable"),
			MaxOpenConns:    envutil.Int("POSTGRES_MAX_OPEN_CONNS", 20),
			MaxIdleConns:    envutil.Int("POSTGRES_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: envutil.Seconds("POSTGRES_CONN_MAX_LIFETIME_SECONDS", 30*time.Minute),
		},
		GraphName: envutil.String("GRAPH_NAME", "conscious_graph"),

		VectorDimension:     dim,
		DuplicateDistance:   envutil.Float("DUPLICATE_DISTANCE_MAX", 0.05),
		SimilarDefaultLimit: envutil.Int("SIMILAR_DEFAULT_LIMIT", 5),

		ReviewDefaultFetch: envutil.Int("REVIEW_DEFAULT_FETCH", 1),
		ReviewMaxFetch:     envutil.Int("REVIEW_MAX_FETCH", 50),
		TxMaxAttempts:      envutil.Int("TX_MAX_ATTEMPTS", 3),

		SRSDesiredRetention: envutil.Float("SRS_DESIRED_RETENTION", 0.9),
		SRSMaxIntervalDays:  envutil.Int("SRS_MAX_INTERVAL_DAYS", 36500),
		SRSEnableFuzz:       envutil.Bool("SRS_ENABLE_FUZZ", true),
		SRSWeights:          envutil.String("SRS_WEIGHTS", ""),

		OpenAI: openai.Config{
			APIKey:     envutil.String("OPENAI_API_KEY", ""),
			BaseURL:    envutil.String("OPENAI_BASE_URL", ""),
			ChatModel:  envutil.String("OPENAI_MODEL", "gpt-4o-mini"),
			EmbedModel: envutil.String("OPENAI_EMBED_MODEL", "text-embedding-3-small"),
			Dimensions: dim,
			MaxRetries: envutil.Int("OPENAI_MAX_RETRIES", 3),
			Timeout:    envutil.Seconds("OPENAI_TIMEOUT_SECONDS", 60*time.Second),
		},
		Redis: redisx.Config{
			Addr:     envutil.String("REDIS_ADDR", ""),
			Password: envutil.String("REDIS_PASSWORD", ""),
			DB:       envutil.Int("REDIS_DB", 0),
		},
		EmbedCacheTTL: envutil.Seconds("EMBED_CACHE_TTL_SECONDS", 7*24*time.Hour),
		Neo4j: neo4jdb.Config{
			URI:      envutil.String("NEO4J_URI", ""),
			User:     envutil.String("NEO4J_USER", "neo4j"),
			Password: envutil.String("NEO4J_PASSWORD", ""),
			Database: envutil.String("NEO4J_DATABASE", ""),
			Timeout:  envutil.Seconds("NEO4J_TIMEOUT_SECONDS", 10*time.Second),
		},
		Archive: gcp.BucketConfig{
			Name:          envutil.String("ARCHIVE_GCS_BUCKET_NAME", ""),
			Mode:          envutil.String("OBJECT_STORAGE_MODE", ""),
			EmulatorHost:  envutil.String("STORAGE_EMULATOR_HOST", ""),
			PublicBaseURL: envutil.String("OBJECT_STORAGE_PUBLIC_BASE_URL", ""),
			Credentials:   creds,
			UploadTimeout: envutil.Seconds("ARCHIVE_UPLOAD_TIMEOUT_SECONDS", 30*time.Second),
		},
		ArchiveWorkers: envutil.Int("ARCHIVE_CONCURRENCY", 4),
		Otel: observability.OtelConfig{
			Enabled:     envutil.Bool("OTEL_ENABLED", false),
			ServiceName: envutil.String("OTEL_SERVICE_NAME", "conscious-backend"),
			Environment: envutil.String("OTEL_ENVIRONMENT", "development"),
			Version:     envutil.String("OTEL_SERVICE_VERSION", ""),
			Endpoint:    envutil.String("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
			Headers:     envutil.String("OTEL_EXPORTER_OTLP_HEADERS", ""),
			Insecure:    envutil.Bool("OTEL_EXPORTER_OTLP_INSECURE", false),
			SampleRatio: envutil.Float("OTEL_TRACES_SAMPLER_RATIO", 1),
		},
	}
}

// Validate reports every problem at once.
func (c Config) Validate() error {
	var errs []error
	if !db.ValidIdentifier(c.GraphName) {
		errs = append(errs, fmt.Errorf("GRAPH_NAME %q is not a valid identifier", c.GraphName))
	}
	if c.VectorDimension <= 0 {
		errs = append(errs, fmt.Errorf("VECTOR_DIMENSION must be positive, got %d", c.VectorDimension))
	}
	if c.DuplicateDistance < 0 || c.DuplicateDistance > 2 {
		errs = append(errs, fmt.Errorf("DUPLICATE_DISTANCE_MAX must be within [0, 2], got %v", c.DuplicateDistance))
	}
	if c.SimilarDefaultLimit <= 0 {
		errs = append(errs, fmt.Errorf("SIMILAR_DEFAULT_LIMIT must be positive, got %d", c.SimilarDefaultLimit))
	}
	if c.ReviewMaxFetch <= 0 || c.ReviewDefaultFetch <= 0 || c.ReviewDefaultFetch > c.ReviewMaxFetch {
		errs = append(errs, fmt.Errorf("REVIEW_DEFAULT_FETCH (%d) must be within [1, REVIEW_MAX_FETCH=%d]", c.ReviewDefaultFetch, c.ReviewMaxFetch))
	}
	if c.SRSDesiredRetention <= 0 || c.SRSDesiredRetention >= 1 {
		errs = append(errs, fmt.Errorf("SRS_DESIRED_RETENTION must be within (0, 1), got %v", c.SRSDesiredRetention))
	}
	if c.SRSMaxIntervalDays <= 0 {
		errs = append(errs, fmt.Errorf("SRS_MAX_INTERVAL_DAYS must be positive, got %d", c.SRSMaxIntervalDays))
	}
	if _, err := c.SRSWeightList(); err != nil {
		errs = append(errs, err)
	}
	if strings.TrimSpace(c.OpenAI.APIKey) == "" {
		errs = append(errs, errors.New("OPENAI_API_KEY is required"))
	}
	if _, err := gcp.ResolveStorageMode(c.Archive.Mode, c.Archive.EmulatorHost); err != nil && c.Archive.Name != "" {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// SRSWeightList parses SRSWeights. The count is checked by the scheduler.
func (c Config) SRSWeightList() ([]float64, error) {
	parts := splitList(c.SRSWeights)
	if len(parts) == 0 {
		return nil, nil
	}
	out := make([]float64, 0, len(parts))
	for i, p := range parts {
		v, err := strconv.ParseFloat(p, 64)
		if err != nil {
			return nil, fmt.Errorf("SRS_WEIGHTS[%d] %q is not a number", i, p)
		}
		out = append(out, v)
	}
	return out, nil
}

func splitList(raw string) []string {
	var out []string
	for _, p := range strings.Split(raw, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
