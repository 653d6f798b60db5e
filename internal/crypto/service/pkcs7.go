package service

import (
	cryptoDomain "github.com/scanvault/scanvault/internal/crypto/domain"
)

// pkcs7Pad pads data to a multiple of blockSize. A full block of padding is
// added when data is already aligned, so unpadding is always unambiguous.
func pkcs7Pad(data []byte, blockSize int) []byte {
	n := blockSize - len(data)%blockSize
	padded := make([]byte, len(data)+n)
	copy(padded, data)
	for i := len(data); i < len(padded); i++ {
		padded[i] = byte(n)
	}
	return padded
}

// pkcs7Unpad removes and validates PKCS#7 padding. Every padding byte must
// equal the padding length; anything else means the ciphertext did not
// decrypt to a payload this codec produced.
func pkcs7Unpad(data []byte, blockSize int) ([]byte, error) {
	if len(data) == 0 || len(data)%blockSize != 0 {
		return nil, cryptoDomain.ErrDecryptionFailed
	}
	n := int(data[len(data)-1])
	if n == 0 || n > blockSize {
		return nil, cryptoDomain.ErrDecryptionFailed
	}
	for _, b := range data[len(data)-n:] {
		if int(b) != n {
			return nil, cryptoDomain.ErrDecryptionFailed
		}
	}
	return data[:len(data)-n], nil
}
