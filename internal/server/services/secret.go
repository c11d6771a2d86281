// Package services implements the secret lifecycle: passphrase-based sealing,
// unique lookup-key generation and the at-most-once retrieval protocol on top
// of a secrets repository.
package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sethvargo/go-retry"

	"github.com/dmitrijs2005/onetimesecret/internal/common"
	"github.com/dmitrijs2005/onetimesecret/internal/cryptox"
	"github.com/dmitrijs2005/onetimesecret/internal/logging"
	"github.com/dmitrijs2005/onetimesecret/internal/server/config"
	"github.com/dmitrijs2005/onetimesecret/internal/server/models"
	"github.com/dmitrijs2005/onetimesecret/internal/server/repositories/secrets"
)

const (
	// shortTokenBytes is the entropy of a human-readable token
	// (16 hex characters on the wire).
	shortTokenBytes = 8
	// maxKeyAttempts bounds the collision-retry loop for short tokens.
	maxKeyAttempts = 5
)

// SecretService orchestrates key derivation, encryption, unique key
// generation and the single-use retrieval protocol on top of the store.
type SecretService struct {
	repo       secrets.Repository
	logger     logging.Logger
	locks      *keyLock
	keyFormat  string
	defaultTTL time.Duration
	now        func() time.Time
}

// NewSecretService constructs the service over the given repository.
func NewSecretService(repo secrets.Repository, cfg *config.Config, logger logging.Logger) *SecretService {
	return &SecretService{
		repo:       repo,
		logger:     logger.With("module", "secret_service"),
		locks:      newKeyLock(),
		keyFormat:  cfg.KeyFormat,
		defaultTTL: cfg.DefaultSecretTTL,
		now:        time.Now,
	}
}

// Generate seals the plaintext under the passphrase and stores it under a
// fresh unique lookup key, which it returns. A zero ttl falls back to the
// configured default; if that is also zero the record never expires on its
// own and dies only on first successful retrieval.
//
// Apart from randomness the call has a single side effect: one store write.
// A failed call writes nothing.
func (s *SecretService) Generate(ctx context.Context, plaintext, passphrase string, ttl time.Duration) (string, error) {

	sealed, err := cryptox.Seal([]byte(plaintext), []byte(passphrase))
	if err != nil {
		return "", fmt.Errorf("%w: %v", common.ErrorInternal, err)
	}

	if ttl == 0 {
		ttl = s.defaultTTL
	}
	var expiresAt *time.Time
	if ttl > 0 {
		t := s.now().Add(ttl)
		expiresAt = &t
	}

	secret := &models.Secret{
		Ciphertext: sealed,
		CreatedAt:  s.now(),
		ExpiresAt:  expiresAt,
	}

	if s.keyFormat == config.KeyFormatToken {
		return s.insertWithToken(ctx, secret)
	}
	return s.insertWithUUID(ctx, secret)
}

// insertWithUUID stores the record under a uuid4 key. Collision probability
// is negligible, so a duplicate from the store is treated as a hard error.
func (s *SecretService) insertWithUUID(ctx context.Context, secret *models.Secret) (string, error) {
	secret.LookupKey = uuid.NewString()
	if err := s.repo.Create(ctx, secret); err != nil {
		return "", err
	}
	return secret.LookupKey, nil
}

// insertWithToken draws short random hex tokens and relies on the store's
// conditional insert as the collision probe: the existence check and the
// write are one operation, so concurrent creations cannot overwrite each
// other. The retry budget turns a pathological run of collisions into
// ErrorKeyGenerationExhausted instead of looping forever.
func (s *SecretService) insertWithToken(ctx context.Context, secret *models.Secret) (string, error) {

	b := retry.WithMaxRetries(maxKeyAttempts-1, retry.NewConstant(time.Millisecond))

	err := retry.Do(ctx, b, func(ctx context.Context) error {
		token, err := common.MakeRandHexString(shortTokenBytes)
		if err != nil {
			return err
		}
		secret.LookupKey = token

		err = s.repo.Create(ctx, secret)
		if errors.Is(err, common.ErrorDuplicateKey) {
			return retry.RetryableError(err)
		}
		return err
	})
	if err != nil {
		if errors.Is(err, common.ErrorDuplicateKey) {
			s.logger.Warn(ctx, "lookup key generation exhausted", "attempts", maxKeyAttempts)
			return "", common.ErrorKeyGenerationExhausted
		}
		return "", err
	}

	return secret.LookupKey, nil
}

// Get runs the consume-once protocol: fetch the record, re-derive the key
// from the supplied passphrase, attempt decryption and, only on success,
// delete the record before returning the plaintext.
//
// The per-key lock makes fetch/decrypt/delete atomic with respect to
// concurrent calls for the same key: exactly one caller wins, the rest
// observe ErrorSecretNotFound. A wrong passphrase leaves the record intact so
// the legitimate owner can retry before expiry. Absent, expired and already
// consumed records are deliberately indistinguishable.
func (s *SecretService) Get(ctx context.Context, lookupKey, passphrase string) (string, error) {

	unlock := s.locks.Lock(lookupKey)
	defer unlock()

	secret, err := s.repo.Get(ctx, lookupKey)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return "", common.ErrorSecretNotFound
		}
		return "", err
	}

	plaintext, err := cryptox.Open(secret.Ciphertext, []byte(passphrase))
	if err != nil {
		if errors.Is(err, cryptox.ErrDecryptFailed) {
			return "", common.ErrorInvalidPassphrase
		}
		return "", fmt.Errorf("%w: %v", common.ErrorInternal, err)
	}

	// Decryption success is the commit point: the secret counts as consumed
	// even if the delete fails or the caller never receives the response.
	// A failed delete is logged, never surfaced: the record must not be
	// re-exposed by reporting an error after the plaintext left the store.
	if err := s.repo.Delete(ctx, lookupKey); err != nil {
		s.logger.Error(ctx, "failed to delete consumed secret", "lookup_key", lookupKey, "error", err.Error())
	}

	return string(plaintext), nil
}
