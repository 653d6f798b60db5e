package service

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"fmt"
	"io"
	"strings"
	"unicode"

	"golang.org/x/crypto/hkdf"

	cryptoDomain "github.com/scanvault/scanvault/internal/crypto/domain"
)

// searchIndexInfo is the HKDF info string separating the search index key
// from every other use of the master key. Changing it orphans all existing
// index rows, so the value is versioned.
const searchIndexInfo = "scanvault-search-index-v1"

// minTokenLength drops one-character tokens, which match almost everything
// and bloat the index without narrowing a search.
const minTokenLength = 2

// SearchIndexer implements the Indexer interface with keyed token MACs.
//
// Document titles and OCR text are stored encrypted, so the database cannot
// search them. Instead each distinct token of the text is mapped to
// HMAC-SHA256(searchKey, token) and stored in the search index. A query goes
// through the same normalization and MAC computation, turning search into
// exact-match lookups on values that reveal nothing about the text.
//
// The same normalization must run on both the write and the search path;
// mixing them breaks lookups silently.
type SearchIndexer struct {
	keys KeySource
}

// NewSearchIndexer creates a SearchIndexer backed by the given key source.
func NewSearchIndexer(keys KeySource) *SearchIndexer {
	return &SearchIndexer{keys: keys}
}

// TokenMACs normalizes and tokenizes text, then returns one 32-byte MAC per
// distinct token. The order of the result is unspecified. An empty or
// token-free text returns an empty slice.
func (s *SearchIndexer) TokenMACs(ctx context.Context, text string) ([][]byte, error) {
	tokens := Tokenize(text)
	if len(tokens) == 0 {
		return nil, nil
	}

	masterKey, err := s.keys.MasterKey(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load master key: %w", err)
	}
	indexKey, err := deriveSearchKey(masterKey)
	if err != nil {
		return nil, err
	}
	defer cryptoDomain.Zero(indexKey)

	macs := make([][]byte, 0, len(tokens))
	for _, token := range tokens {
		mac := hmac.New(sha256.New, indexKey)
		mac.Write([]byte(token))
		macs = append(macs, mac.Sum(nil))
	}
	return macs, nil
}

// deriveSearchKey derives the 32-byte search index key from the master key
// via HKDF-SHA256. The key is derived per operation and never persisted.
func deriveSearchKey(masterKey []byte) ([]byte, error) {
	if len(masterKey) != cryptoDomain.KeySize {
		return nil, cryptoDomain.ErrInvalidKeySize
	}
	key := make([]byte, cryptoDomain.KeySize)
	r := hkdf.New(sha256.New, masterKey, nil, []byte(searchIndexInfo))
	if _, err := io.ReadFull(r, key); err != nil {
		return nil, fmt.Errorf("failed to derive search index key: %w", err)
	}
	return key, nil
}

// Tokenize splits text into distinct normalized tokens: lowercased runs of
// letters and digits, at least minTokenLength runes long. Order follows
// first appearance.
func Tokenize(text string) []string {
	fields := strings.FieldsFunc(text, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})

	seen := make(map[string]struct{}, len(fields))
	tokens := make([]string, 0, len(fields))
	for _, field := range fields {
		token := strings.ToLower(field)
		if len([]rune(token)) < minTokenLength {
			continue
		}
		if _, ok := seen[token]; ok {
			continue
		}
		seen[token] = struct{}{}
		tokens = append(tokens, token)
	}
	return tokens
}
