// Package common defines shared constants and sentinel errors used across
// client and server layers of the one-time secret service. Callers should use
// errors.Is to match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound         = errors.New("not found")
	ErrorDuplicateKey     = errors.New("duplicate key")
	ErrorStoreUnavailable = errors.New("store unavailable")

	// Service-level errors: the boundary taxonomy the transport layer maps
	// to status codes. Absent, expired and already-consumed records all
	// surface as ErrorSecretNotFound.
	ErrorSecretNotFound         = errors.New("secret not found")
	ErrorInvalidPassphrase      = errors.New("invalid passphrase")
	ErrorKeyGenerationExhausted = errors.New("key generation exhausted")
	ErrorInternal               = errors.New("internal error")
)
