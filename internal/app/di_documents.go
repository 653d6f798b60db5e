package app

import (
	"fmt"

	"github.com/scanvault/scanvault/internal/cache"
	documentRepository "github.com/scanvault/scanvault/internal/document/repository"
	documentUsecase "github.com/scanvault/scanvault/internal/document/usecase"
	"github.com/scanvault/scanvault/internal/erase"
	"github.com/scanvault/scanvault/internal/storage"
)

// Layout returns the vault's on-disk directory layout.
func (c *Container) Layout() *storage.Layout {
	c.layoutInit.Do(func() {
		c.layout = storage.NewLayout(c.config.DataDir)
	})
	return c.layout
}

// Capability returns the cache budgets for the configured device class.
func (c *Container) Capability() (*cache.Capability, error) {
	var err error
	c.capabilityInit.Do(func() {
		c.capability, err = c.initCapability()
		if err != nil {
			c.initErrors["capability"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["capability"]; exists {
		return nil, storedErr
	}
	return c.capability, nil
}

// ThumbnailCache returns the in-memory thumbnail cache.
func (c *Container) ThumbnailCache() (*cache.ThumbnailCache, error) {
	var err error
	c.thumbnailCacheInit.Do(func() {
		c.thumbnailCache, err = c.initThumbnailCache()
		if err != nil {
			c.initErrors["thumbnailCache"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["thumbnailCache"]; exists {
		return nil, storedErr
	}
	return c.thumbnailCache, nil
}

// Eraser returns the secure file eraser.
func (c *Container) Eraser() *erase.Eraser {
	c.eraserInit.Do(func() {
		c.eraser = c.initEraser()
	})
	return c.eraser
}

// DocumentRepository returns the document repository instance.
func (c *Container) DocumentRepository() (documentUsecase.DocumentRepository, error) {
	var err error
	c.documentRepoInit.Do(func() {
		c.documentRepo, err = c.initDocumentRepository()
		if err != nil {
			c.initErrors["documentRepo"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["documentRepo"]; exists {
		return nil, storedErr
	}
	return c.documentRepo, nil
}

// FolderRepository returns the folder repository instance.
func (c *Container) FolderRepository() (documentUsecase.FolderRepository, error) {
	var err error
	c.folderRepoInit.Do(func() {
		c.folderRepo, err = c.initFolderRepository()
		if err != nil {
			c.initErrors["folderRepo"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["folderRepo"]; exists {
		return nil, storedErr
	}
	return c.folderRepo, nil
}

// TagRepository returns the tag repository instance.
func (c *Container) TagRepository() (documentUsecase.TagRepository, error) {
	var err error
	c.tagRepoInit.Do(func() {
		c.tagRepo, err = c.initTagRepository()
		if err != nil {
			c.initErrors["tagRepo"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["tagRepo"]; exists {
		return nil, storedErr
	}
	return c.tagRepo, nil
}

// SignatureRepository returns the signature repository instance.
func (c *Container) SignatureRepository() (documentUsecase.SignatureRepository, error) {
	var err error
	c.signatureRepoInit.Do(func() {
		c.signatureRepo, err = c.initSignatureRepository()
		if err != nil {
			c.initErrors["signatureRepo"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["signatureRepo"]; exists {
		return nil, storedErr
	}
	return c.signatureRepo, nil
}

// SearchIndexRepository returns the encrypted search index repository instance.
func (c *Container) SearchIndexRepository() (documentUsecase.SearchIndexRepository, error) {
	var err error
	c.searchIndexRepoInit.Do(func() {
		c.searchIndexRepo, err = c.initSearchIndexRepository()
		if err != nil {
			c.initErrors["searchIndexRepo"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["searchIndexRepo"]; exists {
		return nil, storedErr
	}
	return c.searchIndexRepo, nil
}

// SearchHistoryRepository returns the search history repository instance.
func (c *Container) SearchHistoryRepository() (documentUsecase.SearchHistoryRepository, error) {
	var err error
	c.searchHistoryRepoInit.Do(func() {
		c.searchHistoryRepo, err = c.initSearchHistoryRepository()
		if err != nil {
			c.initErrors["searchHistoryRepo"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["searchHistoryRepo"]; exists {
		return nil, storedErr
	}
	return c.searchHistoryRepo, nil
}

// MetaRepository returns the store metadata repository instance.
func (c *Container) MetaRepository() (documentUsecase.MetaRepository, error) {
	var err error
	c.metaRepoInit.Do(func() {
		c.metaRepo, err = c.initMetaRepository()
		if err != nil {
			c.initErrors["metaRepo"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["metaRepo"]; exists {
		return nil, storedErr
	}
	return c.metaRepo, nil
}

// DocumentStore returns the document store use case.
func (c *Container) DocumentStore() (documentUsecase.DocumentStore, error) {
	var err error
	c.documentStoreInit.Do(func() {
		c.documentStore, err = c.initDocumentStore()
		if err != nil {
			c.initErrors["documentStore"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["documentStore"]; exists {
		return nil, storedErr
	}
	return c.documentStore, nil
}

// initCapability resolves cache budgets from the device class and overrides.
func (c *Container) initCapability() (*cache.Capability, error) {
	capability, err := cache.NewCapability(
		cache.DeviceClass(c.config.DeviceClass),
		int64(c.config.CacheMaxBytes),
		c.config.CacheMaxItems,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve device capability: %w", err)
	}
	return capability, nil
}

// initThumbnailCache creates the thumbnail cache sized by the device capability.
func (c *Container) initThumbnailCache() (*cache.ThumbnailCache, error) {
	capability, err := c.Capability()
	if err != nil {
		return nil, fmt.Errorf("failed to get capability for thumbnail cache: %w", err)
	}
	return capability.NewThumbnailCache(), nil
}

// initEraser creates the secure file eraser with the configured write limit.
func (c *Container) initEraser() *erase.Eraser {
	limiter := erase.NewLimiter(c.config.EraseWriteBytesPerSec)
	return erase.NewEraser(c.config.ErasePasses, limiter)
}

// initDocumentRepository creates the document repository instance.
func (c *Container) initDocumentRepository() (documentUsecase.DocumentRepository, error) {
	db, err := c.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database for document repository: %w", err)
	}
	return documentRepository.NewSQLiteDocumentRepository(db), nil
}

// initFolderRepository creates the folder repository instance.
func (c *Container) initFolderRepository() (documentUsecase.FolderRepository, error) {
	db, err := c.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database for folder repository: %w", err)
	}
	return documentRepository.NewSQLiteFolderRepository(db), nil
}

// initTagRepository creates the tag repository instance.
func (c *Container) initTagRepository() (documentUsecase.TagRepository, error) {
	db, err := c.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database for tag repository: %w", err)
	}
	return documentRepository.NewSQLiteTagRepository(db), nil
}

// initSignatureRepository creates the signature repository instance.
func (c *Container) initSignatureRepository() (documentUsecase.SignatureRepository, error) {
	db, err := c.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database for signature repository: %w", err)
	}
	return documentRepository.NewSQLiteSignatureRepository(db), nil
}

// initSearchIndexRepository creates the search index repository instance.
func (c *Container) initSearchIndexRepository() (documentUsecase.SearchIndexRepository, error) {
	db, err := c.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database for search index repository: %w", err)
	}
	return documentRepository.NewSQLiteSearchRepository(db), nil
}

// initSearchHistoryRepository creates the search history repository instance.
func (c *Container) initSearchHistoryRepository() (documentUsecase.SearchHistoryRepository, error) {
	db, err := c.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database for search history repository: %w", err)
	}
	return documentRepository.NewSQLiteSearchRepository(db), nil
}

// initMetaRepository creates the store metadata repository instance.
func (c *Container) initMetaRepository() (documentUsecase.MetaRepository, error) {
	db, err := c.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database for meta repository: %w", err)
	}
	return documentRepository.NewSQLiteMetaRepository(db), nil
}

// initDocumentStore creates the document store use case with all its dependencies.
func (c *Container) initDocumentStore() (documentUsecase.DocumentStore, error) {
	documents, err := c.DocumentRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get document repository for document store: %w", err)
	}

	folders, err := c.FolderRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get folder repository for document store: %w", err)
	}

	tags, err := c.TagRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get tag repository for document store: %w", err)
	}

	signatures, err := c.SignatureRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get signature repository for document store: %w", err)
	}

	searchIndex, err := c.SearchIndexRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get search index repository for document store: %w", err)
	}

	searchHistory, err := c.SearchHistoryRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get search history repository for document store: %w", err)
	}

	meta, err := c.MetaRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get meta repository for document store: %w", err)
	}

	keyVault, err := c.KeyVault()
	if err != nil {
		return nil, fmt.Errorf("failed to get key vault for document store: %w", err)
	}

	codec, err := c.Codec()
	if err != nil {
		return nil, fmt.Errorf("failed to get codec for document store: %w", err)
	}

	indexer, err := c.SearchIndexer()
	if err != nil {
		return nil, fmt.Errorf("failed to get search indexer for document store: %w", err)
	}

	thumbnails, err := c.ThumbnailCache()
	if err != nil {
		return nil, fmt.Errorf("failed to get thumbnail cache for document store: %w", err)
	}

	txManager, err := c.TxManager()
	if err != nil {
		return nil, fmt.Errorf("failed to get tx manager for document store: %w", err)
	}

	baseStore := documentUsecase.NewDocumentStore(
		documents,
		folders,
		tags,
		signatures,
		searchIndex,
		searchHistory,
		meta,
		keyVault,
		codec,
		indexer,
		c.Layout(),
		thumbnails,
		c.Eraser(),
		txManager,
		c.config.DatabasePath(),
		c.Logger(),
	)

	// Wrap with metrics if enabled
	if c.config.MetricsEnabled {
		businessMetrics, err := c.BusinessMetrics()
		if err != nil {
			return nil, fmt.Errorf("failed to get business metrics for document store: %w", err)
		}
		return documentUsecase.NewDocumentStoreWithMetrics(baseStore, businessMetrics), nil
	}

	return baseStore, nil
}
