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
	Server  ServerConfig
	DB      DBConfig
	S3      S3Config
	Log     LogConfig
	CORS    CORSConfig
	Extract ExtractConfig
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

// S3Config holds settings for the PDF archive bucket.
type S3Config struct {
	Region        string `mapstructure:"region"`
	Bucket        string `mapstructure:"bucket"`
	Endpoint      string `mapstructure:"endpoint"`
	AccessKey     string `mapstructure:"access_key"`
	SecretKey     string `mapstructure:"secret_key"`
	MaxFileSizeMB int64  `mapstructure:"max_file_size_mb"`
	PresignExpiry int64  `mapstructure:"presign_expiry"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// CORSConfig holds CORS settings.
type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// ExtractConfig holds extraction pipeline settings.
type ExtractConfig struct {
	// Concurrency bounds the batch worker pool; 0 means one worker per
	// CPU core (extraction is CPU-bound).
	Concurrency int `mapstructure:"concurrency"`
}

// Load reads configuration from environment variables with the
// GREENLEDGER_ prefix.
func Load() (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("GREENLEDGER")
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
	v.SetDefault("db.user", "greenledger")
	v.SetDefault("db.password", "greenledger_secret")
	v.SetDefault("db.name", "greenledger_db")
	v.SetDefault("db.sslmode", "disable")
	v.SetDefault("db.max_open", 25)
	v.SetDefault("db.max_idle", 10)

	// S3 defaults
	v.SetDefault("s3.region", "us-west-1")
	v.SetDefault("s3.bucket", "greenledger-invoices")
	v.SetDefault("s3.endpoint", "")
	v.SetDefault("s3.max_file_size_mb", 50)
	v.SetDefault("s3.presign_expiry", 3600)

	// Log defaults
	v.SetDefault("log.level", "debug")
	v.SetDefault("log.format", "console")

	// CORS defaults (localhost origins for development)
	v.SetDefault("cors.allowed_origins", "http://localhost:3000,http://127.0.0.1:3000")

	// Extraction defaults
	v.SetDefault("extract.concurrency", 0)

	// Bind environment variables explicitly for nested keys
	envBindings := map[string]string{
		"server.port":          "GREENLEDGER_SERVER_PORT",
		"server.read_timeout":  "GREENLEDGER_SERVER_READ_TIMEOUT",
		"server.write_timeout": "GREENLEDGER_SERVER_WRITE_TIMEOUT",
		"server.environment":   "GREENLEDGER_SERVER_ENVIRONMENT",
		"db.host":              "GREENLEDGER_DB_HOST",
		"db.port":              "GREENLEDGER_DB_PORT",
		"db.user":              "GREENLEDGER_DB_USER",
		"db.password":          "GREENLEDGER_DB_PASSWORD",
		"db.name":              "GREENLEDGER_DB_NAME",
		"db.sslmode":           "GREENLEDGER_DB_SSLMODE",
		"db.max_open":          "GREENLEDGER_DB_MAX_OPEN",
		"db.max_idle":          "GREENLEDGER_DB_MAX_IDLE",
		"s3.region":            "GREENLEDGER_S3_REGION",
		"s3.bucket":            "GREENLEDGER_S3_BUCKET",
		"s3.endpoint":          "GREENLEDGER_S3_ENDPOINT",
		"s3.access_key":        "GREENLEDGER_S3_ACCESS_KEY",
		"s3.secret_key":        "GREENLEDGER_S3_SECRET_KEY",
		"s3.max_file_size_mb":  "GREENLEDGER_S3_MAX_FILE_SIZE_MB",
		"s3.presign_expiry":    "GREENLEDGER_S3_PRESIGN_EXPIRY",
		"log.level":            "GREENLEDGER_LOG_LEVEL",
		"log.format":           "GREENLEDGER_LOG_FORMAT",
		"cors.allowed_origins": "GREENLEDGER_CORS_ALLOWED_ORIGINS",
		"extract.concurrency":  "GREENLEDGER_EXTRACT_CONCURRENCY",
	}
	for key, env := range envBindings {
		_ = v.BindEnv(key, env)
	}

	cfg := &Config{}

	// Railway/Heroku/Render set a PORT env var. Use it if
	// GREENLEDGER_SERVER_PORT is not explicitly set.
	serverPort := v.GetString("server.port")
	if port := os.Getenv("PORT"); port != "" && os.Getenv("GREENLEDGER_SERVER_PORT") == "" {
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
	cfg.S3 = S3Config{
		Region:        v.GetString("s3.region"),
		Bucket:        v.GetString("s3.bucket"),
		Endpoint:      v.GetString("s3.endpoint"),
		AccessKey:     v.GetString("s3.access_key"),
		SecretKey:     v.GetString("s3.secret_key"),
		MaxFileSizeMB: v.GetInt64("s3.max_file_size_mb"),
		PresignExpiry: v.GetInt64("s3.presign_expiry"),
	}
	cfg.Log = LogConfig{
		Level:  v.GetString("log.level"),
		Format: v.GetString("log.format"),
	}

	// Parse CORS allowed origins from comma-separated string
	var corsOrigins []string
	for _, o := range strings.Split(v.GetString("cors.allowed_origins"), ",") {
		o = strings.TrimSpace(o)
		if o != "" {
			corsOrigins = append(corsOrigins, o)
		}
	}
	cfg.CORS = CORSConfig{
		AllowedOrigins: corsOrigins,
	}

	cfg.Extract = ExtractConfig{
		Concurrency: v.GetInt("extract.concurrency"),
	}

	return cfg, nil
}
