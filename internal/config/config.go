// Package config provides application configuration through environment variables.
package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/allisson/go-env"
	"github.com/joho/godotenv"
)

// Config holds all application configuration.
type Config struct {
	// DataDir is the root directory for all vault state (database, encrypted
	// files, keystore, temporary artifacts).
	DataDir string
	// DatabaseFile is the metadata store file name, relative to DataDir unless absolute.
	DatabaseFile string
	// KeystoreDir is the secure storage directory, relative to DataDir unless absolute.
	KeystoreDir string

	// DBMaxOpenConnections is the maximum number of open connections to the database.
	DBMaxOpenConnections int
	// DBMaxIdleConnections is the maximum number of idle connections in the database pool.
	DBMaxIdleConnections int
	// DBConnMaxLifetime is the maximum amount of time a connection may be reused.
	DBConnMaxLifetime time.Duration
	// DBBusyTimeout is how long a connection waits on a locked database before failing.
	DBBusyTimeout time.Duration

	// LogLevel is the logging level (e.g., "debug", "info", "warn", "error").
	LogLevel string

	// DeviceClass selects cache budget presets ("low", "standard", "high").
	DeviceClass string
	// CacheMaxBytes overrides the device-class thumbnail cache byte budget when > 0.
	CacheMaxBytes int
	// CacheMaxItems overrides the device-class thumbnail cache item budget when > 0.
	CacheMaxItems int

	// DecryptOffloadThresholdBytes is the payload size at which decryption is
	// offloaded to the worker pool instead of running inline.
	DecryptOffloadThresholdBytes int
	// DecryptWorkers is the maximum number of concurrent offloaded decryptions.
	DecryptWorkers int

	// MigrationBatchSize is the number of rows copied per batched insert
	// during the legacy store migration.
	MigrationBatchSize int

	// ErasePasses is the number of overwrite passes performed by the secure eraser.
	ErasePasses int
	// EraseWriteBytesPerSec caps eraser write bandwidth (0 disables the limit).
	EraseWriteBytesPerSec int

	// MetricsEnabled indicates whether metrics collection is enabled.
	MetricsEnabled bool
	// MetricsNamespace is the namespace for the application metrics.
	MetricsNamespace string
	// MetricsHost is the bind address for the metrics server.
	MetricsHost string
	// MetricsPort is the port number for the metrics server.
	MetricsPort int
}

// Load loads configuration from environment variables and .env file.
func Load() *Config {
	// Try to load .env file recursively
	loadDotEnv()

	return &Config{
		// Storage layout
		DataDir:      env.GetString("DATA_DIR", "scanvault-data"),
		DatabaseFile: env.GetString("DATABASE_FILE", "vault.db"),
		KeystoreDir:  env.GetString("KEYSTORE_DIR", "keystore"),

		// Database configuration
		DBMaxOpenConnections: env.GetInt("DB_MAX_OPEN_CONNECTIONS", 4),
		DBMaxIdleConnections: env.GetInt("DB_MAX_IDLE_CONNECTIONS", 2),
		DBConnMaxLifetime:    env.GetDuration("DB_CONN_MAX_LIFETIME", 5, time.Minute),
		DBBusyTimeout:        env.GetDuration("DB_BUSY_TIMEOUT_MS", 5000, time.Millisecond),

		// Logging
		LogLevel: env.GetString("LOG_LEVEL", "info"),

		// Thumbnail cache
		DeviceClass:   env.GetString("DEVICE_CLASS", "standard"),
		CacheMaxBytes: env.GetInt("CACHE_MAX_BYTES", 0),
		CacheMaxItems: env.GetInt("CACHE_MAX_ITEMS", 0),

		// Decrypt offload pool
		DecryptOffloadThresholdBytes: env.GetInt("DECRYPT_OFFLOAD_THRESHOLD_BYTES", 262144),
		DecryptWorkers:               env.GetInt("DECRYPT_WORKERS", 4),

		// Legacy store migration
		MigrationBatchSize: env.GetInt("MIGRATION_BATCH_SIZE", 500),

		// Secure eraser
		ErasePasses:           env.GetInt("ERASE_PASSES", 3),
		EraseWriteBytesPerSec: env.GetInt("ERASE_WRITE_BYTES_PER_SEC", 0),

		// Metrics
		MetricsEnabled:   env.GetBool("METRICS_ENABLED", true),
		MetricsNamespace: env.GetString("METRICS_NAMESPACE", "scanvault"),
		MetricsHost:      env.GetString("METRICS_HOST", "127.0.0.1"),
		MetricsPort:      env.GetInt("METRICS_PORT", 8081),
	}
}

// GetGinMode returns the appropriate Gin mode based on log level.
func (c *Config) GetGinMode() string {
	switch c.LogLevel {
	case "debug":
		return "debug"
	case "info", "warn", "error":
		return "release"
	default:
		return "release"
	}
}

// DatabasePath returns the absolute-or-relative path of the metadata store file.
func (c *Config) DatabasePath() string {
	if filepath.IsAbs(c.DatabaseFile) {
		return c.DatabaseFile
	}
	return filepath.Join(c.DataDir, c.DatabaseFile)
}

// KeystorePath returns the path of the secure storage directory.
func (c *Config) KeystorePath() string {
	if filepath.IsAbs(c.KeystoreDir) {
		return c.KeystoreDir
	}
	return filepath.Join(c.DataDir, c.KeystoreDir)
}

// loadDotEnv searches for a .env file recursively from the current directory
// up to the root directory and loads it if found.
func loadDotEnv() {
	// Get current working directory
	cwd, err := os.Getwd()
	if err != nil {
		return
	}

	// Search for .env file recursively up the directory tree
	dir := cwd
	for {
		envPath := filepath.Join(dir, ".env")
		if _, err := os.Stat(envPath); err == nil {
			// .env file found, load it
			_ = godotenv.Load(envPath)
			return
		}

		// Move to parent directory
		parent := filepath.Dir(dir)
		if parent == dir {
			// Reached root directory
			break
		}
		dir = parent
	}
}
