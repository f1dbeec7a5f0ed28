package app

import (
	"strings"
	"testing"
	"time"

	"github.com/yungbote/conscious-backend/internal/observability"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("VECTOR_DIMENSION", "")
	cfg := LoadConfig()
	if cfg.GraphName != "conscious_graph" || cfg.VectorDimension != 1024 || cfg.OpenAI.Dimensions != 1024 {
		t.Fatalf("cfg=%+v", cfg)
	}
	if cfg.DuplicateDistance != 0.05 || cfg.SimilarDefaultLimit != 5 || cfg.ReviewDefaultFetch != 1 || cfg.ReviewMaxFetch != 50 {
		t.Fatalf("limits=%+v", cfg)
	}
	if cfg.SRSDesiredRetention != 0.9 || cfg.SRSMaxIntervalDays != 36500 || !cfg.SRSEnableFuzz {
		t.Fatalf("srs=%+v", cfg)
	}
	if cfg.EmbedCacheTTL != 7*24*time.Hour {
		t.Fatalf("ttl=%v", cfg.EmbedCacheTTL)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
}

func TestLoadConfigOverrides(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("VECTOR_DIMENSION", "768")
	t.Setenv("GOOGLE_APPLICATION_CREDENTIALS", "/etc/creds.json")
	t.Setenv("GOOGLE_APPLICATION_CREDENTIALS_JSON", "")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.test, ,https://b.test")
	t.Setenv("SRS_ENABLE_FUZZ", "false")
	t.Setenv("SRS_WEIGHTS", "0.4, 1.2,3.1")
	t.Setenv("OTEL_EXPORTER_OTLP_HEADERS", "x-api-key=abc, x-team=core")
	cfg := LoadConfig()
	if cfg.VectorDimension != 768 || cfg.OpenAI.Dimensions != 768 {
		t.Fatalf("dimension=%d/%d", cfg.VectorDimension, cfg.OpenAI.Dimensions)
	}
	if cfg.Archive.Credentials != "/etc/creds.json" {
		t.Fatalf("credentials=%q", cfg.Archive.Credentials)
	}
	if len(cfg.CORSOrigins) != 2 || cfg.CORSOrigins[1] != "https://b.test" {
		t.Fatalf("origins=%v", cfg.CORSOrigins)
	}
	if cfg.SRSEnableFuzz {
		t.Fatalf("fuzz should be off")
	}
	weights, err := cfg.SRSWeightList()
	if err != nil || len(weights) != 3 || weights[1] != 1.2 {
		t.Fatalf("weights=%v err=%v", weights, err)
	}
	if cfg.Otel.Headers != "x-api-key=abc, x-team=core" {
		t.Fatalf("otel headers=%q", cfg.Otel.Headers)
	}
	if h := observability.ParseHeaders(cfg.Otel.Headers); len(h) != 2 || h["x-team"] != "core" {
		t.Fatalf("parsed headers=%v", h)
	}
}

func TestConfigValidate(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-test")
	cases := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"graph name", func(c *Config) { c.GraphName = "bad-name;" }, "GRAPH_NAME"},
		{"dimension", func(c *Config) { c.VectorDimension = 0 }, "VECTOR_DIMENSION"},
		{"distance", func(c *Config) { c.DuplicateDistance = 3 }, "DUPLICATE_DISTANCE_MAX"},
		{"fetch", func(c *Config) { c.ReviewDefaultFetch = 60 }, "REVIEW_DEFAULT_FETCH"},
		{"retention", func(c *Config) { c.SRSDesiredRetention = 1 }, "SRS_DESIRED_RETENTION"},
		{"weights", func(c *Config) { c.SRSWeights = "0.4,x" }, "SRS_WEIGHTS"},
		{"api key", func(c *Config) { c.OpenAI.APIKey = "" }, "OPENAI_API_KEY"},
		{"storage mode", func(c *Config) { c.Archive.Name = "b"; c.Archive.Mode = "s3" }, "OBJECT_STORAGE_MODE"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := LoadConfig()
			tc.mutate(&cfg)
			err := cfg.Validate()
			if err == nil || !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("err=%v want mention of %s", err, tc.want)
			}
		})
	}
}
