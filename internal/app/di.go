// Package app provides dependency injection container for assembling application components.
package app

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/scanvault/scanvault/internal/cache"
	"github.com/scanvault/scanvault/internal/config"
	cryptoService "github.com/scanvault/scanvault/internal/crypto/service"
	"github.com/scanvault/scanvault/internal/database"
	documentUsecase "github.com/scanvault/scanvault/internal/document/usecase"
	"github.com/scanvault/scanvault/internal/erase"
	"github.com/scanvault/scanvault/internal/http"
	"github.com/scanvault/scanvault/internal/keyvault"
	"github.com/scanvault/scanvault/internal/metrics"
	"github.com/scanvault/scanvault/internal/migration"
	"github.com/scanvault/scanvault/internal/storage"
)

// Container holds all application dependencies and provides methods to access them.
// It follows the lazy initialization pattern - components are created on first access.
type Container struct {
	// Configuration
	config *config.Config

	// Infrastructure
	logger *slog.Logger
	db     *sql.DB

	// Managers
	txManager database.TxManager

	// Key management and cryptography
	secureStorage keyvault.SecureStorage
	keyVault      *keyvault.KeyVault
	decryptPool   *cryptoService.Pool
	codec         cryptoService.Codec
	indexer       cryptoService.Indexer
	migrator      *migration.Migrator

	// Storage and caching
	layout         *storage.Layout
	capability     *cache.Capability
	thumbnailCache *cache.ThumbnailCache
	eraser         *erase.Eraser

	// Repositories
	documentRepo      documentUsecase.DocumentRepository
	folderRepo        documentUsecase.FolderRepository
	tagRepo           documentUsecase.TagRepository
	signatureRepo     documentUsecase.SignatureRepository
	searchIndexRepo   documentUsecase.SearchIndexRepository
	searchHistoryRepo documentUsecase.SearchHistoryRepository
	metaRepo          documentUsecase.MetaRepository

	// Use Cases
	documentStore documentUsecase.DocumentStore

	// Metrics and servers
	metricsProvider *metrics.Provider
	businessMetrics metrics.BusinessMetrics
	metricsServer   *http.MetricsServer

	// Initialization flags and mutex for thread-safety
	mu                    sync.Mutex
	loggerInit            sync.Once
	dbInit                sync.Once
	txManagerInit         sync.Once
	secureStorageInit     sync.Once
	keyVaultInit          sync.Once
	decryptPoolInit       sync.Once
	codecInit             sync.Once
	indexerInit           sync.Once
	migratorInit          sync.Once
	layoutInit            sync.Once
	capabilityInit        sync.Once
	thumbnailCacheInit    sync.Once
	eraserInit            sync.Once
	documentRepoInit      sync.Once
	folderRepoInit        sync.Once
	tagRepoInit           sync.Once
	signatureRepoInit     sync.Once
	searchIndexRepoInit   sync.Once
	searchHistoryRepoInit sync.Once
	metaRepoInit          sync.Once
	documentStoreInit     sync.Once
	metricsProviderInit   sync.Once
	businessMetricsInit   sync.Once
	metricsServerInit     sync.Once
	initErrors            map[string]error
}

// NewContainer creates a new dependency injection container with the provided configuration.
func NewContainer(cfg *config.Config) *Container {
	return &Container{
		config:     cfg,
		initErrors: make(map[string]error),
	}
}

// Config returns the application configuration.
func (c *Container) Config() *config.Config {
	return c.config
}

// Logger returns the configured logger instance.
// It creates a new logger on first access based on the log level in configuration.
func (c *Container) Logger() *slog.Logger {
	c.loggerInit.Do(func() {
		c.logger = c.initLogger()
	})
	return c.logger
}

// DB returns the metadata store connection.
// On first access it converts a legacy plaintext store if one is present,
// then connects and applies schema migrations.
func (c *Container) DB() (*sql.DB, error) {
	var err error
	c.dbInit.Do(func() {
		c.db, err = c.initDB()
		if err != nil {
			c.initErrors["db"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["db"]; exists {
		return nil, storedErr
	}
	return c.db, nil
}

// TxManager returns the transaction manager.
// It requires a database connection to be initialized first.
func (c *Container) TxManager() (database.TxManager, error) {
	var err error
	c.txManagerInit.Do(func() {
		c.txManager, err = c.initTxManager()
		if err != nil {
			c.initErrors["txManager"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["txManager"]; exists {
		return nil, storedErr
	}
	return c.txManager, nil
}

// Shutdown performs cleanup of all initialized resources.
// It should be called when the application is shutting down.
func (c *Container) Shutdown(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	var shutdownErrors []error

	// Shutdown metrics server if initialized
	if c.metricsServer != nil {
		if err := c.metricsServer.Shutdown(ctx); err != nil {
			shutdownErrors = append(shutdownErrors, fmt.Errorf("metrics server shutdown: %w", err))
		}
	}

	// Shutdown metrics provider if initialized
	if c.metricsProvider != nil {
		if err := c.metricsProvider.Shutdown(ctx); err != nil {
			shutdownErrors = append(shutdownErrors, fmt.Errorf("metrics provider shutdown: %w", err))
		}
	}

	// Close database connection if initialized
	if c.db != nil {
		if err := c.db.Close(); err != nil {
			shutdownErrors = append(shutdownErrors, fmt.Errorf("database close: %w", err))
		}
	}

	// Return combined errors if any occurred
	if len(shutdownErrors) > 0 {
		return fmt.Errorf("shutdown errors: %v", shutdownErrors)
	}

	return nil
}

// initLogger creates and configures a structured logger based on the log level.
func (c *Container) initLogger() *slog.Logger {
	var logLevel slog.Level
	switch c.config.LogLevel {
	case "debug":
		logLevel = slog.LevelDebug
	case "info":
		logLevel = slog.LevelInfo
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	})

	return slog.New(handler)
}

// initDB creates and configures the metadata store connection. The legacy
// store conversion runs before the pooled connection opens so the pool only
// ever sees a sealed store.
func (c *Container) initDB() (*sql.DB, error) {
	storePath := c.config.DatabasePath()
	if err := os.MkdirAll(filepath.Dir(storePath), 0o700); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	migrator, err := c.Migrator()
	if err != nil {
		return nil, fmt.Errorf("failed to get migrator for database: %w", err)
	}
	if _, err := migrator.Run(context.Background()); err != nil {
		return nil, fmt.Errorf("failed to convert legacy store: %w", err)
	}

	db, err := database.Connect(database.Config{
		Path:               storePath,
		MaxOpenConnections: c.config.DBMaxOpenConnections,
		MaxIdleConnections: c.config.DBMaxIdleConnections,
		ConnMaxLifetime:    c.config.DBConnMaxLifetime,
		BusyTimeout:        c.config.DBBusyTimeout,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := database.MigrateUp(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to run database migrations: %w", err)
	}

	return db, nil
}

// initTxManager creates the transaction manager using the database connection.
func (c *Container) initTxManager() (database.TxManager, error) {
	db, err := c.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database for tx manager: %w", err)
	}
	return database.NewTxManager(db), nil
}
