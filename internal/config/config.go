package config

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"alfredoptarigan/resume-matcher/internal/models"
)

type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Qdrant    QdrantConfig    `mapstructure:"qdrant"`
	Gemini    GeminiConfig    `mapstructure:"gemini"`
	Storage   StorageConfig   `mapstructure:"storage"`
	Worker    WorkerConfig    `mapstructure:"worker"`
	Chunking  ChunkingConfig  `mapstructure:"chunking"`
	Matching  MatchingConfig  `mapstructure:"matching"`
	Embedding EmbeddingConfig `mapstructure:"embedding"`
	Log       LogConfig       `mapstructure:"log"`
}

type ServerConfig struct {
	Port      string `mapstructure:"port"`
	Env       string `mapstructure:"env"`
	BodyLimit int    `mapstructure:"body-limit"`
}

type DatabaseConfig struct {
	Driver     string `mapstructure:"driver"`
	Host       string `mapstructure:"host"`
	Port       string `mapstructure:"port"`
	User       string `mapstructure:"user"`
	Password   string `mapstructure:"password"`
	DBName     string `mapstructure:"name"`
	SQLitePath string `mapstructure:"sqlite-path"`
}

type QdrantConfig struct {
	Enabled    bool   `mapstructure:"enabled"`
	URL        string `mapstructure:"url"`
	APIKey     string `mapstructure:"api-key"`
	Collection string `mapstructure:"collection"`
	VectorSize uint64 `mapstructure:"vector-size"`
}

type GeminiConfig struct {
	APIKey         string  `mapstructure:"api-key"`
	ChatModel      string  `mapstructure:"chat-model"`
	EmbeddingModel string  `mapstructure:"embedding-model"`
	Temperature    float32 `mapstructure:"temperature"`
}

type StorageConfig struct {
	UploadPath  string `mapstructure:"upload-path"`
	MaxFileSize int64  `mapstructure:"max-file-size"`
}

type WorkerConfig struct {
	Concurrency       int           `mapstructure:"concurrency"`
	PollInterval      time.Duration `mapstructure:"poll-interval"`
	RetryMaxAttempts  int           `mapstructure:"retry-max-attempts"`
	RetryInitialDelay time.Duration `mapstructure:"retry-initial-delay"`
	RetryMaxDelay     time.Duration `mapstructure:"retry-max-delay"`
}

// ChunkingConfig overrides the per-role chunk defaults when non-zero.
type ChunkingConfig struct {
	ResumeSize    int `mapstructure:"resume-size"`
	ResumeOverlap int `mapstructure:"resume-overlap"`
	JDSize        int `mapstructure:"jd-size"`
	JDOverlap     int `mapstructure:"jd-overlap"`
	MinSize       int `mapstructure:"min-size"`
}

type MatchingConfig struct {
	TopK           int                `mapstructure:"top-k"`
	OverallWeight  float64            `mapstructure:"overall-weight"`
	SectionWeight  float64            `mapstructure:"section-weight"`
	FloorThreshold float64            `mapstructure:"floor-threshold"`
	FloorScore     float64            `mapstructure:"floor-score"`
	SectionWeights map[string]float64 `mapstructure:"section-weights"`
}

type EmbeddingConfig struct {
	BatchSize      int     `mapstructure:"batch-size"`
	CostPerMillion float64 `mapstructure:"cost-per-million"`
}

type LogConfig struct {
	JSON  bool `mapstructure:"json"`
	Debug bool `mapstructure:"debug"`
}

// env names kept compatible with existing deployments
var envBindings = map[string]string{
	"server.port":                "PORT",
	"server.env":                 "ENV",
	"server.body-limit":          "BODY_LIMIT",
	"database.driver":            "DB_DRIVER",
	"database.host":              "DB_HOST",
	"database.port":              "DB_PORT",
	"database.user":              "DB_USER",
	"database.password":          "DB_PASSWORD",
	"database.name":              "DB_NAME",
	"database.sqlite-path":       "DB_SQLITE_PATH",
	"qdrant.enabled":             "QDRANT_ENABLED",
	"qdrant.url":                 "QDRANT_URL",
	"qdrant.api-key":             "QDRANT_API_KEY",
	"qdrant.collection":          "QDRANT_COLLECTION",
	"qdrant.vector-size":         "QDRANT_VECTOR_SIZE",
	"gemini.api-key":             "GEMINI_API_KEY",
	"gemini.chat-model":          "GEMINI_CHAT_MODEL",
	"gemini.embedding-model":     "GEMINI_EMBEDDING_MODEL",
	"gemini.temperature":         "LLM_TEMPERATURE",
	"storage.upload-path":        "UPLOAD_PATH",
	"storage.max-file-size":      "MAX_FILE_SIZE",
	"worker.concurrency":         "WORKER_CONCURRENCY",
	"worker.poll-interval":       "WORKER_POLL_INTERVAL",
	"worker.retry-max-attempts":  "RETRY_MAX_ATTEMPTS",
	"worker.retry-initial-delay": "RETRY_INITIAL_DELAY",
	"worker.retry-max-delay":     "RETRY_MAX_DELAY",
	"chunking.resume-size":       "CHUNK_RESUME_SIZE",
	"chunking.resume-overlap":    "CHUNK_RESUME_OVERLAP",
	"chunking.jd-size":           "CHUNK_JD_SIZE",
	"chunking.jd-overlap":        "CHUNK_JD_OVERLAP",
	"chunking.min-size":          "CHUNK_MIN_SIZE",
	"matching.top-k":             "MATCH_TOP_K",
	"matching.overall-weight":    "MATCH_OVERALL_WEIGHT",
	"matching.section-weight":    "MATCH_SECTION_WEIGHT",
	"matching.floor-threshold":   "MATCH_FLOOR_THRESHOLD",
	"matching.floor-score":       "MATCH_FLOOR_SCORE",
	"embedding.batch-size":       "EMBEDDING_BATCH_SIZE",
	"embedding.cost-per-million": "EMBEDDING_COST_PER_MILLION",
	"log.json":                   "LOG_JSON",
	"log.debug":                  "LOG_DEBUG",
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "3000")
	v.SetDefault("server.env", "development")
	v.SetDefault("server.body-limit", 12*1024*1024)

	v.SetDefault("database.driver", "postgres")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", "5432")
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.password", "postgres")
	v.SetDefault("database.name", "resume_matcher")
	v.SetDefault("database.sqlite-path", "./resume-matcher.db")

	v.SetDefault("qdrant.enabled", true)
	v.SetDefault("qdrant.url", "http://localhost:6333")
	v.SetDefault("qdrant.api-key", "")
	v.SetDefault("qdrant.collection", "resume_matcher_chunks")
	v.SetDefault("qdrant.vector-size", 768)

	v.SetDefault("gemini.api-key", "")
	v.SetDefault("gemini.chat-model", "gemini-2.5-flash")
	v.SetDefault("gemini.embedding-model", "text-embedding-004")
	v.SetDefault("gemini.temperature", 0.7)

	v.SetDefault("storage.upload-path", "./uploads")
	v.SetDefault("storage.max-file-size", 10485760)

	v.SetDefault("worker.concurrency", 3)
	v.SetDefault("worker.poll-interval", "10s")
	v.SetDefault("worker.retry-max-attempts", 3)
	v.SetDefault("worker.retry-initial-delay", "500ms")
	v.SetDefault("worker.retry-max-delay", "8s")

	v.SetDefault("chunking.resume-size", 0)
	v.SetDefault("chunking.resume-overlap", 0)
	v.SetDefault("chunking.jd-size", 0)
	v.SetDefault("chunking.jd-overlap", 0)
	v.SetDefault("chunking.min-size", 0)

	v.SetDefault("matching.top-k", 3)
	v.SetDefault("matching.overall-weight", 0.30)
	v.SetDefault("matching.section-weight", 0.55)
	v.SetDefault("matching.floor-threshold", 0.3)
	v.SetDefault("matching.floor-score", 35)

	v.SetDefault("embedding.batch-size", 100)
	v.SetDefault("embedding.cost-per-million", 0.02)

	v.SetDefault("log.json", false)
	v.SetDefault("log.debug", false)
}

// Load reads .env, environment variables and, when configFile (or
// CONFIG_FILE) is set, a YAML config file. Environment wins over the file.
func Load(configFile string) (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found. Using environment and defaults.")
	}

	v := viper.New()
	setDefaults(v)

	for key, env := range envBindings {
		if err := v.BindEnv(key, env); err != nil {
			return nil, fmt.Errorf("failed to bind %s: %w", env, err)
		}
	}
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if configFile == "" {
		if err := v.BindEnv("config-file", "CONFIG_FILE"); err == nil {
			configFile = v.GetString("config-file")
		}
	}
	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", configFile, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	switch c.Database.Driver {
	case "postgres", "sqlite":
	default:
		return fmt.Errorf("unsupported database driver %q", c.Database.Driver)
	}
	if c.Worker.Concurrency < 1 {
		return fmt.Errorf("worker concurrency must be at least 1, got %d", c.Worker.Concurrency)
	}
	if c.Qdrant.VectorSize != models.EmbeddingDimensions {
		return fmt.Errorf("qdrant vector size must be %d to match the chunks.embedding column, got %d",
			models.EmbeddingDimensions, c.Qdrant.VectorSize)
	}
	if c.Embedding.BatchSize < 1 {
		return fmt.Errorf("embedding batch size must be at least 1, got %d", c.Embedding.BatchSize)
	}
	return nil
}

func (c *Config) IsDevelopment() bool {
	return c.Server.Env == "development"
}

func (c *Config) GetDatabaseDSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		c.Database.Host,
		c.Database.Port,
		c.Database.User,
		c.Database.Password,
		c.Database.DBName,
	)
}
