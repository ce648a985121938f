package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Storage  StorageConfig
	Forum    ForumConfig
	Engine   EngineConfig
	Pipeline PipelineConfig
	LLM      LLMConfig
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Port            string
	Host            string
	Environment     string
	AllowedOrigins  []string
	ShutdownTimeout int
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
	SSLMode  string
	MaxConns int
	MinConns int

	AutoMigrate bool
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

// StorageConfig holds object storage configuration
type StorageConfig struct {
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
	BucketName      string
	UseSSL          bool
}

// ForumConfig holds Forum API configuration
type ForumConfig struct {
	BaseURL    string
	CSRFToken  string
	SessionID  string
	Timeout    time.Duration
	MaxRetries int
}

// EngineConfig holds speech engine configuration
type EngineConfig struct {
	Binary           string
	DefaultModelSize string
	Device           string
	LanguageHint     string
	InitialPrompt    string
}

// PipelineConfig holds transcription pipeline configuration
type PipelineConfig struct {
	SegmentLengthSeconds float64
	MaxWorkers           int
	Parallel             bool
	PollInterval         time.Duration
	MaxConcurrentJobs    int
	JobMaxRetries        int
	PrivacyMode          string
	WorkDir              string
}

// LLMConfig holds chat completion configuration
type LLMConfig struct {
	APIKey  string
	BaseURL string
	Model   string
	Timeout time.Duration
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if exists (ignore error if file doesn't exist)
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: .env file not found, using environment variables or defaults")
	}

	config := &Config{
		Server: ServerConfig{
			Port:            getEnv("PORT", "8080"),
			Host:            getEnv("HOST", "0.0.0.0"),
			Environment:     getEnv("ENVIRONMENT", "development"),
			AllowedOrigins:  []string{getEnv("ALLOWED_ORIGINS", "http://localhost:3000")},
			ShutdownTimeout: getEnvAsInt("SHUTDOWN_TIMEOUT", 10),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", "postgres"),
			Name:     getEnv("DB_NAME", "forum_transcriber"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
			MaxConns: getEnvAsInt("DB_MAX_CONNS", 25),
			MinConns: getEnvAsInt("DB_MIN_CONNS", 5),

			AutoMigrate: getEnvAsBool("DB_AUTO_MIGRATE", false),
		},
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
		},
		Storage: StorageConfig{
			Endpoint:        getEnv("STORAGE_ENDPOINT", "localhost:9000"),
			AccessKeyID:     getEnv("STORAGE_ACCESS_KEY", "minioadmin"),
			SecretAccessKey: getEnv("STORAGE_SECRET_KEY", "minioadmin"),
			BucketName:      getEnv("STORAGE_BUCKET", "forum-transcriber"),
			UseSSL:          getEnvAsBool("STORAGE_USE_SSL", false),
		},
		Forum: ForumConfig{
			BaseURL:    getEnv("FORUM_BASE_URL", "https://forum.minerva.edu"),
			CSRFToken:  getEnv("FORUM_CSRF_TOKEN", ""),
			SessionID:  getEnv("FORUM_SESSION_ID", ""),
			Timeout:    getEnvAsDuration("FORUM_TIMEOUT", "30s"),
			MaxRetries: getEnvAsInt("FORUM_MAX_RETRIES", 3),
		},
		Engine: EngineConfig{
			Binary:           getEnv("ENGINE_BINARY", "whisper-recognize"),
			DefaultModelSize: getEnv("ENGINE_MODEL_SIZE", "medium"),
			Device:           getEnv("ACCEL_DEVICE", "cpu"),
			LanguageHint:     getEnv("ENGINE_LANGUAGE", "en"),
			InitialPrompt:    getEnv("ENGINE_PROMPT", "This is a university lecture."),
		},
		Pipeline: PipelineConfig{
			SegmentLengthSeconds: getEnvAsFloat("PIPELINE_SEGMENT_SECONDS", 1800),
			MaxWorkers:           getEnvAsInt("PIPELINE_MAX_WORKERS", 2),
			Parallel:             getEnvAsBool("PIPELINE_PARALLEL", true),
			PollInterval:         getEnvAsDuration("PIPELINE_POLL_INTERVAL", "5s"),
			MaxConcurrentJobs:    getEnvAsInt("PIPELINE_MAX_CONCURRENT_JOBS", 2),
			JobMaxRetries:        getEnvAsInt("PIPELINE_JOB_MAX_RETRIES", 3),
			PrivacyMode:          getEnv("PIPELINE_PRIVACY_MODE", "names"),
			WorkDir:              getEnv("PIPELINE_WORK_DIR", os.TempDir()),
		},
		LLM: LLMConfig{
			APIKey:  getEnv("LLM_API_KEY", ""),
			BaseURL: getEnv("LLM_BASE_URL", "https://api.openai.com/v1"),
			Model:   getEnv("LLM_MODEL", "gpt-4o-mini"),
			Timeout: getEnvAsDuration("LLM_TIMEOUT", "60s"),
		},
	}

	// Validate required fields
	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Pipeline.SegmentLengthSeconds <= 0 {
		return fmt.Errorf("PIPELINE_SEGMENT_SECONDS must be positive")
	}
	if c.Pipeline.MaxWorkers < 1 {
		return fmt.Errorf("PIPELINE_MAX_WORKERS must be at least 1")
	}
	switch c.Engine.DefaultModelSize {
	case "tiny", "base", "small", "medium", "large":
	default:
		return fmt.Errorf("ENGINE_MODEL_SIZE must be one of tiny, base, small, medium, large")
	}
	switch c.Pipeline.PrivacyMode {
	case "names", "ids":
	default:
		return fmt.Errorf("PIPELINE_PRIVACY_MODE must be \"names\" or \"ids\"")
	}
	return nil
}

// GetDatabaseDSN returns the database connection string
func (c *Config) GetDatabaseDSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Database.Host,
		c.Database.Port,
		c.Database.User,
		c.Database.Password,
		c.Database.Name,
		c.Database.SSLMode,
	)
}

// GetRedisAddr returns the Redis address
func (c *Config) GetRedisAddr() string {
	return fmt.Sprintf("%s:%s", c.Redis.Host, c.Redis.Port)
}

// Helper functions

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseFloat(valueStr, 64); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue string) time.Duration {
	valueStr := getEnv(key, defaultValue)
	duration, err := time.ParseDuration(valueStr)
	if err != nil {
		duration, _ = time.ParseDuration(defaultValue)
	}
	return duration
}
