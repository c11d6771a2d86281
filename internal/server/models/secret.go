// Package models defines persistence-facing data structures shared by the
// server repositories and services.
package models

import "time"

// Secret is a stored one-time secret.
//
// LookupKey is the opaque public identifier generated by the service, never
// derived from user input. Ciphertext is the sealed payload (salt|nonce|ct)
// produced by cryptox.Seal; plaintext never reaches this struct. A nil
// ExpiresAt means the record only dies on first successful retrieval.
type Secret struct {
	LookupKey  string
	Ciphertext []byte
	CreatedAt  time.Time
	ExpiresAt  *time.Time
}

// Expired reports whether the record is past its expiry at the given instant.
// Records without an expiry never expire.
func (s *Secret) Expired(now time.Time) bool {
	return s.ExpiresAt != nil && !now.Before(*s.ExpiresAt)
}
