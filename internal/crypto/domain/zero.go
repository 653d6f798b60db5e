package domain

// Zero overwrites a byte slice with zeros so derived key material does not
// linger in memory after use. Nil slices are a no-op.
func Zero(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
