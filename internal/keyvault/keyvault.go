package keyvault

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"fmt"

	"github.com/allisson/go-pwdhash"
	validation "github.com/jellydator/validation"
	"golang.org/x/sync/singleflight"

	cryptoDomain "github.com/scanvault/scanvault/internal/crypto/domain"
	apperrors "github.com/scanvault/scanvault/internal/errors"
	appValidation "github.com/scanvault/scanvault/internal/validation"
)

const (
	masterKeyEntry = "master_key"
	passcodeEntry  = "passcode_hash"
	userPrefix     = "user."

	minPasscodeLength = 4
)

// KeyVault owns the installation's single master key and the small secrets
// around it.
//
// The master key is 32 random bytes, created lazily on first use, stored
// base64 encoded, and never rotated automatically: losing it makes every
// existing ciphertext permanently unreadable, so the only destructive
// operations are the explicit Delete ones.
//
// Concurrency:
//
//	Concurrent first callers of the master key share one in-flight
//	generation through a singleflight group, so exactly one key is ever
//	generated and written no matter how many goroutines race the first
//	access. All other operations rely on the storage's atomic writes.
type KeyVault struct {
	storage SecureStorage
	group   singleflight.Group
	hasher  *pwdhash.PasswordHasher
}

// NewKeyVault creates a KeyVault on top of the given storage.
func NewKeyVault(storage SecureStorage) (*KeyVault, error) {
	// Interactive policy: the passcode gates UI unlock, not server logins.
	hasher, err := pwdhash.New(pwdhash.WithPolicy(pwdhash.PolicyInteractive))
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to create passcode hasher")
	}
	return &KeyVault{
		storage: storage,
		hasher:  hasher,
	}, nil
}

// GetOrCreateMasterKey returns the master key, generating and persisting it
// on first use.
func (v *KeyVault) GetOrCreateMasterKey(ctx context.Context) ([]byte, error) {
	if key, err := v.loadMasterKey(); err == nil {
		return key, nil
	} else if !apperrors.Is(err, ErrEntryNotFound) {
		return nil, err
	}

	// Generation is not cancellable mid-flight: once a caller joins the
	// flight it gets whatever the flight produces, so an abandoning caller
	// can never strand a half-created key.
	value, err, _ := v.group.Do(masterKeyEntry, func() (any, error) {
		// A racing creator may have finished between the fast path and
		// joining the flight.
		if key, err := v.loadMasterKey(); err == nil {
			return key, nil
		} else if !apperrors.Is(err, ErrEntryNotFound) {
			return nil, err
		}
		return v.generateMasterKey()
	})
	if err != nil {
		return nil, err
	}
	return value.([]byte), nil
}

// MasterKey returns the master key, creating it on first use. It exists so
// KeyVault satisfies the key source expected by the cryptographic services.
func (v *KeyVault) MasterKey(ctx context.Context) ([]byte, error) {
	return v.GetOrCreateMasterKey(ctx)
}

// HasMasterKey reports whether a master key is stored, without creating one.
func (v *KeyVault) HasMasterKey() (bool, error) {
	_, err := v.storage.Get(masterKeyEntry)
	if apperrors.Is(err, ErrEntryNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (v *KeyVault) loadMasterKey() ([]byte, error) {
	encoded, err := v.storage.Get(masterKeyEntry)
	if err != nil {
		return nil, err
	}
	key, err := base64.StdEncoding.DecodeString(string(encoded))
	if err != nil {
		return nil, ErrMasterKeyMalformed
	}
	if len(key) != cryptoDomain.KeySize {
		return nil, ErrMasterKeyMalformed
	}
	return key, nil
}

func (v *KeyVault) generateMasterKey() ([]byte, error) {
	key := make([]byte, cryptoDomain.KeySize)
	if _, err := rand.Read(key); err != nil {
		return nil, apperrors.Wrap(err, "failed to generate master key")
	}
	encoded := []byte(base64.StdEncoding.EncodeToString(key))
	if err := v.storage.Set(masterKeyEntry, encoded); err != nil {
		return nil, fmt.Errorf("failed to store master key: %w", err)
	}
	return key, nil
}

// StoreUserData stores a user preference entry under its own namespace, so
// preference names can never collide with the key entries.
func (v *KeyVault) StoreUserData(name string, value []byte) error {
	if name == "" {
		return apperrors.Wrap(apperrors.ErrInvalidInput, "entry name is required")
	}
	return v.storage.Set(userPrefix+name, value)
}

// GetUserData returns a user preference entry, or ErrEntryNotFound.
func (v *KeyVault) GetUserData(name string) ([]byte, error) {
	if name == "" {
		return nil, apperrors.Wrap(apperrors.ErrInvalidInput, "entry name is required")
	}
	return v.storage.Get(userPrefix + name)
}

// DeleteUserData removes a user preference entry. Absent entries are a
// no-op.
func (v *KeyVault) DeleteUserData(name string) error {
	if name == "" {
		return apperrors.Wrap(apperrors.ErrInvalidInput, "entry name is required")
	}
	return v.storage.Delete(userPrefix + name)
}

// SetPasscode hashes and stores the unlock passcode, replacing any previous
// one. The passcode itself is never stored.
func (v *KeyVault) SetPasscode(passcode string) error {
	err := validation.Validate(
		passcode,
		appValidation.PasscodeStrength{MinLength: minPasscodeLength},
		appValidation.NoWhitespace,
	)
	if err := appValidation.WrapValidationError(err); err != nil {
		return err
	}
	hash, err := v.hasher.Hash([]byte(passcode))
	if err != nil {
		return apperrors.Wrap(err, "failed to hash passcode")
	}
	return v.storage.Set(passcodeEntry, []byte(hash))
}

// VerifyPasscode performs a constant-time check of passcode against the
// stored hash. It returns ErrPasscodeNotSet when none is configured.
func (v *KeyVault) VerifyPasscode(passcode string) (bool, error) {
	hash, err := v.storage.Get(passcodeEntry)
	if apperrors.Is(err, ErrEntryNotFound) {
		return false, ErrPasscodeNotSet
	}
	if err != nil {
		return false, err
	}
	ok, err := v.hasher.Verify([]byte(passcode), string(hash))
	if err != nil {
		return false, nil
	}
	return ok, nil
}

// HasPasscode reports whether a passcode is configured.
func (v *KeyVault) HasPasscode() (bool, error) {
	_, err := v.storage.Get(passcodeEntry)
	if apperrors.Is(err, ErrEntryNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// DeletePasscode removes the stored passcode hash.
func (v *KeyVault) DeletePasscode() error {
	return v.storage.Delete(passcodeEntry)
}

// Entries lists the names of all keystore entries.
func (v *KeyVault) Entries() ([]string, error) {
	return v.storage.Keys()
}

// DeleteEncryptionKey removes the master key. Every existing ciphertext
// becomes permanently unreadable; a later key access generates a fresh key
// that cannot read old data.
func (v *KeyVault) DeleteEncryptionKey() error {
	return v.storage.Delete(masterKeyEntry)
}

// DeleteAll wipes the whole keystore: master key, passcode hash, and all
// user preference entries.
func (v *KeyVault) DeleteAll() error {
	return v.storage.DeleteAll()
}
