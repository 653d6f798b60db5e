package keyvault

import (
	apperrors "github.com/scanvault/scanvault/internal/errors"
)

var (
	// ErrEntryNotFound is returned when a keystore entry does not exist.
	ErrEntryNotFound = apperrors.Wrap(apperrors.ErrNotFound, "keystore entry not found")

	// ErrMasterKeyMalformed is returned when the stored master key cannot be
	// decoded into 32 key bytes. The key is never regenerated in this case:
	// overwriting it would silently orphan every existing ciphertext.
	ErrMasterKeyMalformed = apperrors.Wrap(apperrors.ErrInvalidInput, "stored master key is malformed")

	// ErrPasscodeNotSet is returned when verifying a passcode before one has
	// been configured.
	ErrPasscodeNotSet = apperrors.Wrap(apperrors.ErrNotFound, "passcode is not set")
)
