package domain

// Keys in the vault_meta table that record the state of the store itself.
const (
	// MetaKeyCipherVersion marks a store whose sensitive columns are
	// sealed. A document database without it is a legacy plaintext store
	// that still needs conversion.
	MetaKeyCipherVersion = "cipher_version"

	// CipherVersionSealed is the current MetaKeyCipherVersion value.
	CipherVersionSealed = "2"

	// MetaKeySearchIndexDirty flags an encrypted search index that no
	// longer matches the documents. Conversions set it; the next startup
	// rebuilds the index and clears it.
	MetaKeySearchIndexDirty = "search_index_dirty"

	// SearchIndexDirty is the value stored under MetaKeySearchIndexDirty.
	SearchIndexDirty = "1"
)
