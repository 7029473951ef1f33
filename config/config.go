package config

import (
	"strings"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	Queue     QueueConfig
	Worker    WorkerConfig
	Storage   StorageConfig
	RateLimit RateLimitConfig
	Router    RouterConfig
	Templates TemplatesConfig
	JWT       JWTConfig
	App       AppConfig
}

type ServerConfig struct {
	Port         string
	MetricsPort  string
	Host         string
	ReadTimeout  int // seconds
	WriteTimeout int // seconds
	IdleTimeout  int // seconds
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

type RedisConfig struct {
	URL      string
	Username string
	Password string
}

// QueueConfig configures the two job lanes carried over Redis Streams.
type QueueConfig struct {
	PriorityStream  string
	BulkStream      string
	ConsumerGroup   string
	PublishTimeout  int // seconds
	BlockInterval   int // seconds, XREADGROUP block time
	ClaimMinIdle    int // seconds before a pending entry is reclaimed; must exceed the worker's job deadline or healthy renders get processed twice
	MaxStreamLength int // approximate cap per stream, 0 = unbounded
}

type WorkerConfig struct {
	Readers       int // goroutines pulling from the consumer group
	MaxConcurrent int // semaphore size for in-flight renders
}

type StorageConfig struct {
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
	UseSSL          bool
	DocumentsBucket string
	TemplatesBucket string
	PresignTTL      int // seconds
}

type RateLimitConfig struct {
	PerMinute int
	Burst     int
}

// RouterConfig controls the sync/async admission decision.
type RouterConfig struct {
	MaxSyncSizeBytes   int
	MaxSyncReportBytes int
	SyncTimeoutMS      int
}

type TemplatesConfig struct {
	LocalPath  string
	CacheSize  int
	TTLSeconds int
}

type JWTConfig struct {
	SecretKey string
}

type AppConfig struct {
	Environment string
	LogLevel    string
	CompilerBin string
	TempDir     string
}

// Load reads configuration from environment variables with defaults.
func Load() *Config {
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	viper.SetDefault("SERVER_PORT", "8080")
	viper.SetDefault("SERVER_METRICS_PORT", "9090")
	viper.SetDefault("SERVER_HOST", "0.0.0.0")
	viper.SetDefault("SERVER_READ_TIMEOUT", 15)
	viper.SetDefault("SERVER_WRITE_TIMEOUT", 30)
	viper.SetDefault("SERVER_IDLE_TIMEOUT", 60)

	viper.SetDefault("DB_HOST", "localhost")
	viper.SetDefault("DB_PORT", "5432")
	viper.SetDefault("DB_USER", "docgen")
	viper.SetDefault("DB_PASSWORD", "")
	viper.SetDefault("DB_NAME", "docgen")
	viper.SetDefault("DB_SSLMODE", "disable")

	viper.SetDefault("REDIS_URL", "localhost:6379")
	viper.SetDefault("REDIS_USERNAME", "")
	viper.SetDefault("REDIS_PASSWORD", "")

	viper.SetDefault("QUEUE_PRIORITY_STREAM", "docgen:jobs:priority")
	viper.SetDefault("QUEUE_BULK_STREAM", "docgen:jobs:bulk")
	viper.SetDefault("QUEUE_CONSUMER_GROUP", "doc-workers")
	viper.SetDefault("QUEUE_PUBLISH_TIMEOUT", 5)
	viper.SetDefault("QUEUE_BLOCK_INTERVAL", 5)
	viper.SetDefault("QUEUE_CLAIM_MIN_IDLE", 900)
	viper.SetDefault("QUEUE_MAX_STREAM_LENGTH", 100000)

	viper.SetDefault("WORKER_READERS", 4)
	viper.SetDefault("WORKER_MAX_CONCURRENT", 20)

	viper.SetDefault("STORAGE_ENDPOINT", "localhost:9000")
	viper.SetDefault("STORAGE_ACCESS_KEY_ID", "")
	viper.SetDefault("STORAGE_SECRET_ACCESS_KEY", "")
	viper.SetDefault("STORAGE_USE_SSL", false)
	viper.SetDefault("STORAGE_BUCKET_DOCUMENTS", "documents")
	viper.SetDefault("STORAGE_BUCKET_TEMPLATES", "templates")
	viper.SetDefault("STORAGE_PRESIGN_TTL", 3600)

	viper.SetDefault("RATE_LIMIT_PER_MINUTE", 100)
	viper.SetDefault("RATE_LIMIT_BURST", 20)

	viper.SetDefault("ROUTER_MAX_SYNC_SIZE_BYTES", 1048576)
	viper.SetDefault("ROUTER_MAX_SYNC_REPORT_BYTES", 100000)
	viper.SetDefault("ROUTER_SYNC_TIMEOUT_MS", 5000)

	viper.SetDefault("TEMPLATES_LOCAL_PATH", "templates")
	viper.SetDefault("TEMPLATES_CACHE_SIZE", 256)
	viper.SetDefault("TEMPLATES_TTL_SECONDS", 3600)

	viper.SetDefault("JWT_SECRET", "change-me-in-production")

	viper.SetDefault("APP_ENV", "development")
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("COMPILER_BIN", "typst")
	viper.SetDefault("TEMP_DIR", "temp")

	return &Config{
		Server: ServerConfig{
			Port:         viper.GetString("SERVER_PORT"),
			MetricsPort:  viper.GetString("SERVER_METRICS_PORT"),
			Host:         viper.GetString("SERVER_HOST"),
			ReadTimeout:  viper.GetInt("SERVER_READ_TIMEOUT"),
			WriteTimeout: viper.GetInt("SERVER_WRITE_TIMEOUT"),
			IdleTimeout:  viper.GetInt("SERVER_IDLE_TIMEOUT"),
		},
		Database: DatabaseConfig{
			Host:     viper.GetString("DB_HOST"),
			Port:     viper.GetString("DB_PORT"),
			User:     viper.GetString("DB_USER"),
			Password: viper.GetString("DB_PASSWORD"),
			DBName:   viper.GetString("DB_NAME"),
			SSLMode:  viper.GetString("DB_SSLMODE"),
		},
		Redis: RedisConfig{
			URL:      viper.GetString("REDIS_URL"),
			Username: viper.GetString("REDIS_USERNAME"),
			Password: viper.GetString("REDIS_PASSWORD"),
		},
		Queue: QueueConfig{
			PriorityStream:  viper.GetString("QUEUE_PRIORITY_STREAM"),
			BulkStream:      viper.GetString("QUEUE_BULK_STREAM"),
			ConsumerGroup:   viper.GetString("QUEUE_CONSUMER_GROUP"),
			PublishTimeout:  viper.GetInt("QUEUE_PUBLISH_TIMEOUT"),
			BlockInterval:   viper.GetInt("QUEUE_BLOCK_INTERVAL"),
			ClaimMinIdle:    viper.GetInt("QUEUE_CLAIM_MIN_IDLE"),
			MaxStreamLength: viper.GetInt("QUEUE_MAX_STREAM_LENGTH"),
		},
		Worker: WorkerConfig{
			Readers:       viper.GetInt("WORKER_READERS"),
			MaxConcurrent: viper.GetInt("WORKER_MAX_CONCURRENT"),
		},
		Storage: StorageConfig{
			Endpoint:        viper.GetString("STORAGE_ENDPOINT"),
			AccessKeyID:     viper.GetString("STORAGE_ACCESS_KEY_ID"),
			SecretAccessKey: viper.GetString("STORAGE_SECRET_ACCESS_KEY"),
			UseSSL:          viper.GetBool("STORAGE_USE_SSL"),
			DocumentsBucket: viper.GetString("STORAGE_BUCKET_DOCUMENTS"),
			TemplatesBucket: viper.GetString("STORAGE_BUCKET_TEMPLATES"),
			PresignTTL:      viper.GetInt("STORAGE_PRESIGN_TTL"),
		},
		RateLimit: RateLimitConfig{
			PerMinute: viper.GetInt("RATE_LIMIT_PER_MINUTE"),
			Burst:     viper.GetInt("RATE_LIMIT_BURST"),
		},
		Router: RouterConfig{
			MaxSyncSizeBytes:   viper.GetInt("ROUTER_MAX_SYNC_SIZE_BYTES"),
			MaxSyncReportBytes: viper.GetInt("ROUTER_MAX_SYNC_REPORT_BYTES"),
			SyncTimeoutMS:      viper.GetInt("ROUTER_SYNC_TIMEOUT_MS"),
		},
		Templates: TemplatesConfig{
			LocalPath:  viper.GetString("TEMPLATES_LOCAL_PATH"),
			CacheSize:  viper.GetInt("TEMPLATES_CACHE_SIZE"),
			TTLSeconds: viper.GetInt("TEMPLATES_TTL_SECONDS"),
		},
		JWT: JWTConfig{
			SecretKey: viper.GetString("JWT_SECRET"),
		},
		App: AppConfig{
			Environment: viper.GetString("APP_ENV"),
			LogLevel:    viper.GetString("LOG_LEVEL"),
			CompilerBin: viper.GetString("COMPILER_BIN"),
			TempDir:     viper.GetString("TEMP_DIR"),
		},
	}
}
