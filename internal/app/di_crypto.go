package app

import (
	"fmt"

	cryptoService "github.com/scanvault/scanvault/internal/crypto/service"
	"github.com/scanvault/scanvault/internal/keyvault"
	"github.com/scanvault/scanvault/internal/migration"
)

// SecureStorage returns the file-backed secure storage for key material.
func (c *Container) SecureStorage() (keyvault.SecureStorage, error) {
	var err error
	c.secureStorageInit.Do(func() {
		c.secureStorage, err = c.initSecureStorage()
		if err != nil {
			c.initErrors["secureStorage"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["secureStorage"]; exists {
		return nil, storedErr
	}
	return c.secureStorage, nil
}

// KeyVault returns the key vault managing the master key, passcode, and user entries.
func (c *Container) KeyVault() (*keyvault.KeyVault, error) {
	var err error
	c.keyVaultInit.Do(func() {
		c.keyVault, err = c.initKeyVault()
		if err != nil {
			c.initErrors["keyVault"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["keyVault"]; exists {
		return nil, storedErr
	}
	return c.keyVault, nil
}

// DecryptPool returns the bounded worker pool for offloaded decryption.
func (c *Container) DecryptPool() *cryptoService.Pool {
	c.decryptPoolInit.Do(func() {
		c.decryptPool = c.initDecryptPool()
	})
	return c.decryptPool
}

// Codec returns the cipher codec that seals and unseals vault payloads.
func (c *Container) Codec() (cryptoService.Codec, error) {
	var err error
	c.codecInit.Do(func() {
		c.codec, err = c.initCodec()
		if err != nil {
			c.initErrors["codec"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["codec"]; exists {
		return nil, storedErr
	}
	return c.codec, nil
}

// SearchIndexer returns the indexer deriving search token MACs.
func (c *Container) SearchIndexer() (cryptoService.Indexer, error) {
	var err error
	c.indexerInit.Do(func() {
		c.indexer, err = c.initSearchIndexer()
		if err != nil {
			c.initErrors["searchIndexer"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["searchIndexer"]; exists {
		return nil, storedErr
	}
	return c.indexer, nil
}

// Migrator returns the legacy store migrator.
func (c *Container) Migrator() (*migration.Migrator, error) {
	var err error
	c.migratorInit.Do(func() {
		c.migrator, err = c.initMigrator()
		if err != nil {
			c.initErrors["migrator"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["migrator"]; exists {
		return nil, storedErr
	}
	return c.migrator, nil
}

// initSecureStorage creates the file-backed secure storage under the keystore directory.
func (c *Container) initSecureStorage() (keyvault.SecureStorage, error) {
	secureStorage, err := keyvault.NewFileStorage(c.config.KeystorePath())
	if err != nil {
		return nil, fmt.Errorf("failed to create secure storage: %w", err)
	}
	return secureStorage, nil
}

// initKeyVault creates the key vault over the secure storage.
func (c *Container) initKeyVault() (*keyvault.KeyVault, error) {
	secureStorage, err := c.SecureStorage()
	if err != nil {
		return nil, fmt.Errorf("failed to get secure storage for key vault: %w", err)
	}

	keyVault, err := keyvault.NewKeyVault(secureStorage)
	if err != nil {
		return nil, fmt.Errorf("failed to create key vault: %w", err)
	}
	return keyVault, nil
}

// initDecryptPool creates the decrypt worker pool.
func (c *Container) initDecryptPool() *cryptoService.Pool {
	return cryptoService.NewPool(c.config.DecryptWorkers)
}

// initCodec creates the cipher codec with the key vault as its key source.
func (c *Container) initCodec() (cryptoService.Codec, error) {
	keyVault, err := c.KeyVault()
	if err != nil {
		return nil, fmt.Errorf("failed to get key vault for codec: %w", err)
	}

	pool := c.DecryptPool()

	return cryptoService.NewCipherCodec(keyVault, pool, c.config.DecryptOffloadThresholdBytes), nil
}

// initSearchIndexer creates the search indexer with the key vault as its key source.
func (c *Container) initSearchIndexer() (cryptoService.Indexer, error) {
	keyVault, err := c.KeyVault()
	if err != nil {
		return nil, fmt.Errorf("failed to get key vault for search indexer: %w", err)
	}
	return cryptoService.NewSearchIndexer(keyVault), nil
}

// initMigrator creates the legacy store migrator over the configured store path.
func (c *Container) initMigrator() (*migration.Migrator, error) {
	codec, err := c.Codec()
	if err != nil {
		return nil, fmt.Errorf("failed to get codec for migrator: %w", err)
	}

	return migration.NewMigrator(
		c.config.DatabasePath(),
		codec,
		c.config.MigrationBatchSize,
		c.Logger(),
	), nil
}
