package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("DB_DRIVER", "")
	t.Setenv("WORKER_CONCURRENCY", "")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.Database.Driver != "postgres" || cfg.Qdrant.Collection != "resume_matcher_chunks" {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if cfg.Worker.PollInterval != 10*time.Second || cfg.Worker.RetryInitialDelay != 500*time.Millisecond {
		t.Fatalf("durations = %v/%v", cfg.Worker.PollInterval, cfg.Worker.RetryInitialDelay)
	}
	if cfg.Embedding.BatchSize != 100 || cfg.Embedding.CostPerMillion != 0.02 {
		t.Fatalf("embedding = %+v", cfg.Embedding)
	}
	if cfg.Matching.TopK != 3 || cfg.Qdrant.VectorSize != 768 {
		t.Fatalf("top-k/vector size = %d/%d", cfg.Matching.TopK, cfg.Qdrant.VectorSize)
	}
}

func TestLoadFileAndEnvironment(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	yaml := `database:
  driver: sqlite
  sqlite-path: /tmp/matcher.db
worker:
  concurrency: 5
  poll-interval: 30s
matching:
  top-k: 5
  section-weights:
    requirements: 1.5
`
	if err := os.WriteFile(path, []byte(yaml), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("DB_DRIVER", "")
	t.Setenv("WORKER_CONCURRENCY", "7")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.Database.Driver != "sqlite" || cfg.Database.SQLitePath != "/tmp/matcher.db" {
		t.Fatalf("database = %+v", cfg.Database)
	}
	if cfg.Worker.Concurrency != 7 {
		t.Fatalf("environment should win over the file, concurrency = %d", cfg.Worker.Concurrency)
	}
	if cfg.Worker.PollInterval != 30*time.Second || cfg.Matching.TopK != 5 {
		t.Fatalf("file values not applied: %v %d", cfg.Worker.PollInterval, cfg.Matching.TopK)
	}
	if cfg.Matching.SectionWeights["requirements"] != 1.5 {
		t.Fatalf("section weights = %v", cfg.Matching.SectionWeights)
	}
}

func TestLoadConfigFileFromEnvironment(t *testing.T) {
	path := filepath.Join(t.TempDir(), "matcher.yaml")
	if err := os.WriteFile(path, []byte("server:\n  port: \"8081\"\n"), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("CONFIG_FILE", path)
	t.Setenv("PORT", "")
	t.Setenv("DB_DRIVER", "")
	t.Setenv("WORKER_CONCURRENCY", "")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Server.Port != "8081" {
		t.Fatalf("port = %q, want 8081", cfg.Server.Port)
	}
}

func TestLoadRejectsInvalidConfig(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		want string
	}{
		{"driver", map[string]string{"DB_DRIVER": "mysql"}, "unsupported database driver"},
		{"concurrency", map[string]string{"DB_DRIVER": "", "WORKER_CONCURRENCY": "0"}, "worker concurrency"},
		{"batch size", map[string]string{"DB_DRIVER": "", "EMBEDDING_BATCH_SIZE": "0"}, "batch size"},
		{"vector size", map[string]string{"DB_DRIVER": "", "QDRANT_VECTOR_SIZE": "1536"}, "vector size must be 768"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load("")
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("expected %q error, got %v", tt.want, err)
			}
		})
	}
}

func TestGetDatabaseDSN(t *testing.T) {
	cfg := &Config{Database: DatabaseConfig{Host: "db", Port: "5433", User: "u", Password: "p", DBName: "matcher"}}

	want := "host=db port=5433 user=u password=p dbname=matcher sslmode=disable"
	if got := cfg.GetDatabaseDSN(); got != want {
		t.Fatalf("GetDatabaseDSN() = %q, want %q", got, want)
	}
}
