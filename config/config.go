// Package config loads bqm's runtime configuration from environment
// variables, following the teacher's LoadEnvironment/LoadXConfig shape:
// one loader per concern, each with development/production defaults
// that environment variables then override.
package config

import (
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// DatabaseConfig holds the Postgres connection used by internal/jobqueue
// for River's durable job tables.
type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSL      string
}

// AppConfig bundles every loaded section for a single call site.
type AppConfig struct {
	ServerConfig   ServerConfig
	DatabaseConfig DatabaseConfig
	ImageIOConfig  ImageIOConfig
	MJPEGConfig    MJPEGConfig
	JobQueueConfig JobQueueConfig
}

// ServerConfig controls the control-plane HTTP listener.
type ServerConfig struct {
	Port     string
	LogLevel string
}

// ImageIOConfig controls RAW decoding and default tool behavior.
type ImageIOConfig struct {
	DcrawPath       string
	DemosaicTimeout int // seconds
	ScratchDir      string
}

// MJPEGConfig controls the default MJPEG stream server.
type MJPEGConfig struct {
	ListenAddr string
	MaxClients int
	Rate       int
}

// JobQueueConfig controls whether the durable River-backed queue is
// enabled, and at what concurrency its workers run.
type JobQueueConfig struct {
	Enabled     bool
	Concurrency int
}

// IsDevelopmentMode reports whether BQM_ENV=development.
func IsDevelopmentMode() bool {
	return strings.ToLower(os.Getenv("BQM_ENV")) == "development"
}

// LoadEnvironment loads .env.development in development mode, .env
// otherwise, tolerating a missing file. Call once from main's init.
func LoadEnvironment() {
	isDev := IsDevelopmentMode()

	envFile := ".env"
	if isDev {
		if _, err := os.Stat(".env.development"); err == nil {
			envFile = ".env.development"
		}
	}

	if err := godotenv.Load(envFile); err != nil {
		log.Printf("running without %s file, using environment variables", envFile)
	} else {
		log.Printf("environment variables loaded from %s", envFile)
	}

	if isDev {
		log.Println("running in development mode")
	}
}

// LoadAppConfig loads every config section.
func LoadAppConfig() AppConfig {
	return AppConfig{
		ServerConfig:   LoadServerConfig(),
		DatabaseConfig: LoadDBConfig(),
		ImageIOConfig:  LoadImageIOConfig(),
		MJPEGConfig:    LoadMJPEGConfig(),
		JobQueueConfig: LoadJobQueueConfig(),
	}
}

// LoadDBConfig loads the Postgres connection bqm's durable job queue
// uses, falling back to local-dev-friendly defaults.
func LoadDBConfig() DatabaseConfig {
	isDev := IsDevelopmentMode()

	cfg := DatabaseConfig{
		Host:     "db",
		Port:     "5432",
		User:     "postgres",
		Password: "postgres",
		DBName:   "bqm",
		SSL:      "disable",
	}
	if isDev {
		cfg.Host = "localhost"
	}

	if host := os.Getenv("DB_HOST"); host != "" {
		cfg.Host = host
	}
	if port := os.Getenv("DB_PORT"); port != "" {
		cfg.Port = port
	}
	if user := os.Getenv("DB_USER"); user != "" {
		cfg.User = user
	}
	if password := os.Getenv("DB_PASSWORD"); password != "" {
		cfg.Password = password
	}
	if dbname := os.Getenv("DB_NAME"); dbname != "" {
		cfg.DBName = dbname
	}
	if ssl := os.Getenv("DB_SSL"); ssl != "" {
		cfg.SSL = ssl
	}

	return cfg
}

// LoadServerConfig loads the control-plane listener configuration.
func LoadServerConfig() ServerConfig {
	cfg := ServerConfig{Port: "8080", LogLevel: "info"}
	if IsDevelopmentMode() {
		cfg.LogLevel = "debug"
	}

	if port := os.Getenv("SERVER_PORT"); port != "" {
		cfg.Port = port
	}
	if logLevel := os.Getenv("SERVER_LOG_LEVEL"); logLevel != "" {
		cfg.LogLevel = logLevel
	}

	return cfg
}

// LoadImageIOConfig loads the RAW decoder and scratch-space settings.
func LoadImageIOConfig() ImageIOConfig {
	cfg := ImageIOConfig{
		DcrawPath:       "dcraw",
		DemosaicTimeout: 30,
		ScratchDir:      "",
	}

	if path := os.Getenv("BQM_DCRAW_PATH"); path != "" {
		cfg.DcrawPath = path
	}
	if timeoutRaw := os.Getenv("BQM_DEMOSAIC_TIMEOUT_SECONDS"); timeoutRaw != "" {
		if timeout, err := strconv.Atoi(timeoutRaw); err == nil && timeout > 0 {
			cfg.DemosaicTimeout = timeout
		}
	}
	if scratch := os.Getenv("BQM_SCRATCH_DIR"); scratch != "" {
		cfg.ScratchDir = scratch
	}

	return cfg
}

// LoadMJPEGConfig loads the default MJPEG stream server settings.
func LoadMJPEGConfig() MJPEGConfig {
	cfg := MJPEGConfig{
		ListenAddr: ":8554",
		MaxClients: 10,
		Rate:       10,
	}

	if addr := os.Getenv("BQM_MJPEG_LISTEN_ADDR"); addr != "" {
		cfg.ListenAddr = addr
	}
	if maxClientsRaw := os.Getenv("BQM_MJPEG_MAX_CLIENTS"); maxClientsRaw != "" {
		if maxClients, err := strconv.Atoi(maxClientsRaw); err == nil && maxClients >= 0 {
			cfg.MaxClients = maxClients
		}
	}
	if rateRaw := os.Getenv("BQM_MJPEG_RATE"); rateRaw != "" {
		if rate, err := strconv.Atoi(rateRaw); err == nil && rate > 0 {
			cfg.Rate = rate
		}
	}

	return cfg
}

// LoadJobQueueConfig loads whether the durable River-backed queue runs
// alongside the in-process Worker Pool.
func LoadJobQueueConfig() JobQueueConfig {
	cfg := JobQueueConfig{Enabled: false, Concurrency: 4}

	if enabled := strings.ToLower(strings.TrimSpace(os.Getenv("BQM_JOBQUEUE_ENABLED"))); enabled == "true" {
		cfg.Enabled = true
	}
	if concurrencyRaw := os.Getenv("BQM_JOBQUEUE_CONCURRENCY"); concurrencyRaw != "" {
		if concurrency, err := strconv.Atoi(concurrencyRaw); err == nil && concurrency > 0 {
			cfg.Concurrency = concurrency
		}
	}

	return cfg
}
