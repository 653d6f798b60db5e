package domain

// Blob is the structural view of an encrypted payload: the IV, the CBC
// ciphertext, and, for the authenticated format, the trailing HMAC tag.
// Splitting is purely structural; no key material is involved. Keeping this
// phase separate from decryption lets the codec distinguish malformed
// payloads from cryptographic failures.
type Blob struct {
	IV         []byte
	Ciphertext []byte
	Tag        []byte // nil for legacy payloads
}

// Authenticated reports whether the blob carries an HMAC tag.
func (b Blob) Authenticated() bool {
	return len(b.Tag) == TagSize
}

// SplitAuthenticated parses data as the current wire format
// IV(16) || Ciphertext(N) || Tag(32). It returns false when data is too
// short to contain all three parts. The tag is not verified here.
func SplitAuthenticated(data []byte) (Blob, bool) {
	if len(data) < MinAuthenticatedSize {
		return Blob{}, false
	}
	return Blob{
		IV:         data[:IVSize],
		Ciphertext: data[IVSize : len(data)-TagSize],
		Tag:        data[len(data)-TagSize:],
	}, true
}

// SplitLegacy parses data as the legacy wire format IV(16) || Ciphertext(N).
// It returns false when the remainder is not a positive multiple of the
// block size, i.e. when data cannot be a CBC payload at all.
func SplitLegacy(data []byte) (Blob, bool) {
	rest := len(data) - IVSize
	if rest < BlockSize || rest%BlockSize != 0 {
		return Blob{}, false
	}
	return Blob{IV: data[:IVSize], Ciphertext: data[IVSize:]}, true
}

// LikelyEncrypted reports whether data is structurally consistent with one
// of the two wire formats: an IV followed by a block-aligned remainder.
// The authenticated format satisfies the same check because its tag is
// exactly two blocks long. This is a routing heuristic, not a security
// boundary: random data of the right shape passes.
func LikelyEncrypted(data []byte) bool {
	rest := len(data) - IVSize
	return rest >= BlockSize && rest%BlockSize == 0
}
