// Package cryptox implements the passphrase-based sealing used for stored
// secrets: PBKDF2-HMAC-SHA256 key derivation and AES-256-GCM authenticated
// encryption. A sealed payload is self-describing: the per-secret salt and
// the GCM nonce travel in front of the ciphertext, so opening it needs only
// the passphrase. The salt is not secret; the passphrase and plaintext are.
package cryptox

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/sha256"
	"errors"
	"fmt"

	"golang.org/x/crypto/pbkdf2"

	"github.com/dmitrijs2005/onetimesecret/internal/common"
)

const (
	// SaltSize is the length of the random per-secret KDF salt.
	SaltSize = 16
	// NonceSize is the standard AES-GCM nonce length.
	NonceSize = 12

	keySize       = 32
	kdfIterations = 100_000
)

// ErrDecryptFailed is returned when a sealed payload cannot be opened:
// wrong passphrase, truncated payload, or tampered ciphertext. The cases are
// deliberately indistinguishable to the caller.
var ErrDecryptFailed = errors.New("decrypt failed")

// DeriveKey stretches a passphrase and a per-secret salt into a 32-byte AES
// key using PBKDF2-HMAC-SHA256 with 100000 iterations. Callers own the
// returned buffer and should wipe it after use.
func DeriveKey(passphrase, salt []byte) []byte {
	return pbkdf2.Key(passphrase, salt, kdfIterations, keySize, sha256.New)
}

// Seal encrypts plaintext under a key derived from the passphrase and a
// fresh random salt.
//
// Layout of the result: salt | nonce | ciphertext. Each call draws a new salt
// and nonce, so sealing the same plaintext twice yields different payloads.
func Seal(plaintext, passphrase []byte) ([]byte, error) {

	salt := common.GenerateRandByteArray(SaltSize)

	key := DeriveKey(passphrase, salt)
	defer common.WipeByteArray(key)

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	aesgcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}

	nonce := common.GenerateRandByteArray(aesgcm.NonceSize())

	sealed := make([]byte, 0, SaltSize+len(nonce)+len(plaintext)+aesgcm.Overhead())
	sealed = append(sealed, salt...)
	sealed = append(sealed, nonce...)
	sealed = aesgcm.Seal(sealed, nonce, plaintext, nil)

	return sealed, nil
}

// Open recovers the salt and nonce from a sealed payload, re-derives the key
// from the supplied passphrase and decrypts the ciphertext. Any
// authentication or format failure is reported as ErrDecryptFailed.
func Open(sealed, passphrase []byte) ([]byte, error) {

	if len(sealed) < SaltSize+NonceSize {
		return nil, fmt.Errorf("%w: payload too short", ErrDecryptFailed)
	}

	salt := sealed[:SaltSize]
	nonce := sealed[SaltSize : SaltSize+NonceSize]
	ciphertext := sealed[SaltSize+NonceSize:]

	key := DeriveKey(passphrase, salt)
	defer common.WipeByteArray(key)

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	aesgcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}

	plaintext, err := aesgcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecryptFailed, err)
	}

	return plaintext, nil
}
