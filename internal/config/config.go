package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig
	DB        DBConfig
	JWT       JWTConfig
	S3        S3Config
	Log       LogConfig
	Extractor ExtractorConfig
	Pipeline  PipelineConfig
	Queue     QueueConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port         string        `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	Environment  string        `mapstructure:"environment"`
}

// DBConfig holds PostgreSQL connection settings.
type DBConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Name     string `mapstructure:"name"`
	SSLMode  string `mapstructure:"sslmode"`
	MaxOpen  int    `mapstructure:"max_open"`
	MaxIdle  int    `mapstructure:"max_idle"`
}

// DSN returns the PostgreSQL connection string.
func (d *DBConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.Name, d.SSLMode,
	)
}

// JWTConfig holds API bearer token verification settings.
type JWTConfig struct {
	Secret string `mapstructure:"secret"`
	Issuer string `mapstructure:"issuer"`
}

// S3Config holds object storage settings. The bucket is used both for
// resolving s3:// document locations with explicit buckets disabled and for
// archiving per-claim output bundles.
type S3Config struct {
	Region        string `mapstructure:"region"`
	Bucket        string `mapstructure:"bucket"`
	Endpoint      string `mapstructure:"endpoint"`
	AccessKey     string `mapstructure:"access_key"`
	SecretKey     string `mapstructure:"secret_key"`
	PresignExpiry int64  `mapstructure:"presign_expiry"`
	ArchiveBundle bool   `mapstructure:"archive_bundle"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// ExtractorConfig holds settings for the external document-understanding
// service used for text extraction.
type ExtractorConfig struct {
	APIKey      string `mapstructure:"api_key"`
	Model       string `mapstructure:"model"`
	Endpoint    string `mapstructure:"endpoint"`
	MaxPages    int    `mapstructure:"max_pages"`
	TimeoutSecs int    `mapstructure:"timeout_secs"`
}

// PipelineConfig holds claim pipeline settings.
type PipelineConfig struct {
	HashAlgorithm    string `mapstructure:"hash_algorithm"`
	TotalToleranceMU int64  `mapstructure:"total_tolerance_mu"`
	TieBreakEnabled  bool   `mapstructure:"tiebreak_enabled"`
	DocConcurrency   int    `mapstructure:"doc_concurrency"`
	DocTimeoutSecs   int    `mapstructure:"doc_timeout_secs"`
}

// QueueConfig holds claim queue worker settings.
type QueueConfig struct {
	PollIntervalSecs int `mapstructure:"poll_interval_secs"`
	MaxRetries       int `mapstructure:"max_retries"`
	Concurrency      int `mapstructure:"concurrency"`
}

// Load reads configuration from environment variables with the OCRBILL_ prefix.
func Load() (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("OCRBILL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Server defaults
	v.SetDefault("server.port", ":8080")
	v.SetDefault("server.read_timeout", "15s")
	v.SetDefault("server.write_timeout", "15s")
	v.SetDefault("server.environment", "development")

	// DB defaults
	v.SetDefault("db.host", "localhost")
	v.SetDefault("db.port", 5432)
	v.SetDefault("db.user", "ocrbill")
	v.SetDefault("db.password", "ocrbill_secret")
	v.SetDefault("db.name", "ocrbill_db")
	v.SetDefault("db.sslmode", "disable")
	v.SetDefault("db.max_open", 25)
	v.SetDefault("db.max_idle", 10)

	// JWT defaults
	v.SetDefault("jwt.secret", "change-me-in-production")
	v.SetDefault("jwt.issuer", "ocrbill")

	// S3 defaults
	v.SetDefault("s3.region", "us-east-1")
	v.SetDefault("s3.bucket", "ocrbill-claims")
	v.SetDefault("s3.endpoint", "")
	v.SetDefault("s3.presign_expiry", 3600)
	v.SetDefault("s3.archive_bundle", false)

	// Log defaults
	v.SetDefault("log.level", "debug")
	v.SetDefault("log.format", "console")

	// Extractor defaults
	v.SetDefault("extractor.api_key", "")
	v.SetDefault("extractor.model", "gemini-2.0-flash")
	v.SetDefault("extractor.endpoint", "")
	v.SetDefault("extractor.max_pages", 100)
	v.SetDefault("extractor.timeout_secs", 120)

	// Pipeline defaults
	v.SetDefault("pipeline.hash_algorithm", "sha256")
	v.SetDefault("pipeline.total_tolerance_mu", 100)
	v.SetDefault("pipeline.tiebreak_enabled", true)
	v.SetDefault("pipeline.doc_concurrency", 4)
	v.SetDefault("pipeline.doc_timeout_secs", 120)

	// Queue defaults
	v.SetDefault("queue.poll_interval_secs", 10)
	v.SetDefault("queue.max_retries", 3)
	v.SetDefault("queue.concurrency", 2)

	// Bind environment variables explicitly for nested keys
	envBindings := map[string]string{
		"server.port":                "OCRBILL_SERVER_PORT",
		"server.read_timeout":        "OCRBILL_SERVER_READ_TIMEOUT",
		"server.write_timeout":       "OCRBILL_SERVER_WRITE_TIMEOUT",
		"server.environment":         "OCRBILL_SERVER_ENVIRONMENT",
		"db.host":                    "OCRBILL_DB_HOST",
		"db.port":                    "OCRBILL_DB_PORT",
		"db.user":                    "OCRBILL_DB_USER",
		"db.password":                "OCRBILL_DB_PASSWORD",
		"db.name":                    "OCRBILL_DB_NAME",
		"db.sslmode":                 "OCRBILL_DB_SSLMODE",
		"db.max_open":                "OCRBILL_DB_MAX_OPEN",
		"db.max_idle":                "OCRBILL_DB_MAX_IDLE",
		"jwt.secret":                 "OCRBILL_JWT_SECRET",
		"jwt.issuer":                 "OCRBILL_JWT_ISSUER",
		"s3.region":                  "OCRBILL_S3_REGION",
		"s3.bucket":                  "OCRBILL_S3_BUCKET",
		"s3.endpoint":                "OCRBILL_S3_ENDPOINT",
		"s3.access_key":              "OCRBILL_S3_ACCESS_KEY",
		"s3.secret_key":              "OCRBILL_S3_SECRET_KEY",
		"s3.presign_expiry":          "OCRBILL_S3_PRESIGN_EXPIRY",
		"s3.archive_bundle":          "OCRBILL_S3_ARCHIVE_BUNDLE",
		"log.level":                  "OCRBILL_LOG_LEVEL",
		"log.format":                 "OCRBILL_LOG_FORMAT",
		"extractor.api_key":          "OCRBILL_EXTRACTOR_API_KEY",
		"extractor.model":            "OCRBILL_EXTRACTOR_MODEL",
		"extractor.endpoint":         "OCRBILL_EXTRACTOR_ENDPOINT",
		"extractor.max_pages":        "OCRBILL_EXTRACTOR_MAX_PAGES",
		"extractor.timeout_secs":     "OCRBILL_EXTRACTOR_TIMEOUT_SECS",
		"pipeline.hash_algorithm":    "OCRBILL_PIPELINE_HASH_ALGORITHM",
		"pipeline.total_tolerance_mu": "OCRBILL_PIPELINE_TOTAL_TOLERANCE_MU",
		"pipeline.tiebreak_enabled":  "OCRBILL_PIPELINE_TIEBREAK_ENABLED",
		"pipeline.doc_concurrency":   "OCRBILL_PIPELINE_DOC_CONCURRENCY",
		"pipeline.doc_timeout_secs":  "OCRBILL_PIPELINE_DOC_TIMEOUT_SECS",
		"queue.poll_interval_secs":   "OCRBILL_QUEUE_POLL_INTERVAL_SECS",
		"queue.max_retries":          "OCRBILL_QUEUE_MAX_RETRIES",
		"queue.concurrency":          "OCRBILL_QUEUE_CONCURRENCY",
	}
	for key, env := range envBindings {
		_ = v.BindEnv(key, env)
	}

	cfg := &Config{}

	// Railway/Heroku/Render set a PORT env var. Use it if OCRBILL_SERVER_PORT is not explicitly set.
	serverPort := v.GetString("server.port")
	if port := os.Getenv("PORT"); port != "" && os.Getenv("OCRBILL_SERVER_PORT") == "" {
		serverPort = ":" + port
	}

	cfg.Server = ServerConfig{
		Port:         serverPort,
		ReadTimeout:  v.GetDuration("server.read_timeout"),
		WriteTimeout: v.GetDuration("server.write_timeout"),
		Environment:  v.GetString("server.environment"),
	}
	cfg.DB = DBConfig{
		Host:     v.GetString("db.host"),
		Port:     v.GetInt("db.port"),
		User:     v.GetString("db.user"),
		Password: v.GetString("db.password"),
		Name:     v.GetString("db.name"),
		SSLMode:  v.GetString("db.sslmode"),
		MaxOpen:  v.GetInt("db.max_open"),
		MaxIdle:  v.GetInt("db.max_idle"),
	}
	cfg.JWT = JWTConfig{
		Secret: v.GetString("jwt.secret"),
		Issuer: v.GetString("jwt.issuer"),
	}
	cfg.S3 = S3Config{
		Region:        v.GetString("s3.region"),
		Bucket:        v.GetString("s3.bucket"),
		Endpoint:      v.GetString("s3.endpoint"),
		AccessKey:     v.GetString("s3.access_key"),
		SecretKey:     v.GetString("s3.secret_key"),
		PresignExpiry: v.GetInt64("s3.presign_expiry"),
		ArchiveBundle: v.GetBool("s3.archive_bundle"),
	}
	cfg.Log = LogConfig{
		Level:  v.GetString("log.level"),
		Format: v.GetString("log.format"),
	}
	cfg.Extractor = ExtractorConfig{
		APIKey:      v.GetString("extractor.api_key"),
		Model:       v.GetString("extractor.model"),
		Endpoint:    v.GetString("extractor.endpoint"),
		MaxPages:    v.GetInt("extractor.max_pages"),
		TimeoutSecs: v.GetInt("extractor.timeout_secs"),
	}
	cfg.Pipeline = PipelineConfig{
		HashAlgorithm:    v.GetString("pipeline.hash_algorithm"),
		TotalToleranceMU: v.GetInt64("pipeline.total_tolerance_mu"),
		TieBreakEnabled:  v.GetBool("pipeline.tiebreak_enabled"),
		DocConcurrency:   v.GetInt("pipeline.doc_concurrency"),
		DocTimeoutSecs:   v.GetInt("pipeline.doc_timeout_secs"),
	}
	cfg.Queue = QueueConfig{
		PollIntervalSecs: v.GetInt("queue.poll_interval_secs"),
		MaxRetries:       v.GetInt("queue.max_retries"),
		Concurrency:      v.GetInt("queue.concurrency"),
	}

	return cfg, nil
}
