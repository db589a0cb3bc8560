// Package cryptox seals small JSON values at rest with a passphrase-derived
// AES-256-GCM key. The client uses it to keep persisted session tokens
// unreadable without the user's passphrase.
package cryptox

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/json"
	"errors"

	"golang.org/x/crypto/argon2"
)

// KeySize is the derived key length (AES-256).
const KeySize = 32

// SaltSize is the recommended salt length for DeriveKey.
const SaltSize = 16

var ErrCiphertextTooShort = errors.New("ciphertext too short")

// DeriveKey stretches a passphrase into an AES key with argon2id.
func DeriveKey(passphrase []byte, salt []byte) []byte {
	return argon2.IDKey(passphrase, salt, 1, 64*1024, 4, KeySize)
}

// Seal marshals v to JSON and encrypts it with AES-GCM. The random nonce is
// prepended to the returned ciphertext.
func Seal(v any, key []byte) ([]byte, error) {
	plaintext, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}

	aesgcm, err := newGCM(key)
	if err != nil {
		return nil, err
	}

	nonce := make([]byte, aesgcm.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return nil, err
	}

	return aesgcm.Seal(nonce, nonce, plaintext, nil), nil
}

// Open reverses Seal and unmarshals the plaintext JSON into v.
func Open(sealed []byte, key []byte, v any) error {
	aesgcm, err := newGCM(key)
	if err != nil {
		return err
	}

	ns := aesgcm.NonceSize()
	if len(sealed) < ns {
		return ErrCiphertextTooShort
	}

	plaintext, err := aesgcm.Open(nil, sealed[:ns], sealed[ns:], nil)
	if err != nil {
		return err
	}
	return json.Unmarshal(plaintext, v)
}

func newGCM(key []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}
