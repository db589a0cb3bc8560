package common

import "crypto/rand"

// GenerateRandByteArray returns n bytes from crypto/rand. It panics if the
// system source fails, which only happens on a broken host.
func GenerateRandByteArray(n int) []byte {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		panic(err)
	}
	return b
}

// WipeByteArray zeroes b in place. Used for passwords and derived keys.
func WipeByteArray(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
