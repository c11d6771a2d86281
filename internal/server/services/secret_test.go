package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/onetimesecret/internal/common"
	"github.com/dmitrijs2005/onetimesecret/internal/logging"
	"github.com/dmitrijs2005/onetimesecret/internal/server/config"
	"github.com/dmitrijs2005/onetimesecret/internal/server/models"
	"github.com/dmitrijs2005/onetimesecret/internal/server/repositories/secrets"
)

// -------- test fakes --------

type fakeRepo struct {
	secrets.Repository

	createErr   error
	createCalls int
	created     []*models.Secret

	getErr    error
	getSecret *models.Secret

	deleteErr error
}

func (f *fakeRepo) Create(ctx context.Context, s *models.Secret) error {
	f.createCalls++
	if f.createErr != nil {
		return f.createErr
	}
	stored := *s
	f.created = append(f.created, &stored)
	return nil
}

func (f *fakeRepo) Get(ctx context.Context, lookupKey string) (*models.Secret, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	return f.getSecret, nil
}

func (f *fakeRepo) Delete(ctx context.Context, lookupKey string) error {
	return f.deleteErr
}

// dupThenOKRepo fails the first n creations with a duplicate-key error.
type dupThenOKRepo struct {
	secrets.Repository
	dups  int
	calls int
	last  *models.Secret
}

func (f *dupThenOKRepo) Create(ctx context.Context, s *models.Secret) error {
	f.calls++
	if f.calls <= f.dups {
		return common.ErrorDuplicateKey
	}
	stored := *s
	f.last = &stored
	return nil
}

// flakyDeleteRepo delegates to an in-memory store but fails every delete.
type flakyDeleteRepo struct {
	secrets.Repository
}

func (f *flakyDeleteRepo) Delete(ctx context.Context, lookupKey string) error {
	return fmt.Errorf("%w: delete response lost", common.ErrorStoreUnavailable)
}

// -------- helpers --------

func testLogger() logging.Logger {
	return logging.NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func newService(t *testing.T, repo secrets.Repository, mutate ...func(*config.Config)) *SecretService {
	t.Helper()
	cfg := &config.Config{}
	cfg.LoadDefaults()
	for _, m := range mutate {
		m(cfg)
	}
	return NewSecretService(repo, cfg, testLogger())
}

// -------- tests --------

func TestSecretService_RoundTrip(t *testing.T) {
	svc := newService(t, secrets.NewInMemoryRepository())
	ctx := context.Background()

	key, err := svc.Generate(ctx, "nuke codes", "swordfish", 0)
	require.NoError(t, err)
	require.NotEmpty(t, key)

	plaintext, err := svc.Get(ctx, key, "swordfish")
	require.NoError(t, err)
	assert.Equal(t, "nuke codes", plaintext)
}

func TestSecretService_WrongPassphraseThenCorrect(t *testing.T) {
	svc := newService(t, secrets.NewInMemoryRepository())
	ctx := context.Background()

	key, err := svc.Generate(ctx, "payload", "right", 0)
	require.NoError(t, err)

	_, err = svc.Get(ctx, key, "wrong")
	assert.ErrorIs(t, err, common.ErrorInvalidPassphrase)

	// the record survives a wrong guess
	plaintext, err := svc.Get(ctx, key, "right")
	require.NoError(t, err)
	assert.Equal(t, "payload", plaintext)
}

func TestSecretService_SingleUse(t *testing.T) {
	svc := newService(t, secrets.NewInMemoryRepository())
	ctx := context.Background()

	key, err := svc.Generate(ctx, "once", "pass", 0)
	require.NoError(t, err)

	_, err = svc.Get(ctx, key, "pass")
	require.NoError(t, err)

	_, err = svc.Get(ctx, key, "pass")
	assert.ErrorIs(t, err, common.ErrorSecretNotFound)
}

func TestSecretService_GetUnknownKey(t *testing.T) {
	svc := newService(t, secrets.NewInMemoryRepository())

	_, err := svc.Get(context.Background(), "no-such-key", "pass")
	assert.ErrorIs(t, err, common.ErrorSecretNotFound)
}

func TestSecretService_Expiry(t *testing.T) {
	svc := newService(t, secrets.NewInMemoryRepository())
	ctx := context.Background()

	key, err := svc.Generate(ctx, "short-lived", "pass", 100*time.Millisecond)
	require.NoError(t, err)

	time.Sleep(250 * time.Millisecond)

	_, err = svc.Get(ctx, key, "pass")
	assert.ErrorIs(t, err, common.ErrorSecretNotFound, "expired secret must read as not found even with the correct passphrase")
}

func TestSecretService_KeyUniqueness(t *testing.T) {
	repo := secrets.NewInMemoryRepository()
	svc := newService(t, repo)
	ctx := context.Background()

	// exercise the key generators directly: sealing 1000 payloads through a
	// 100k-iteration KDF would dominate the test for no extra coverage
	seen := make(map[string]struct{}, 1000)
	for i := 0; i < 1000; i++ {
		key, err := svc.insertWithUUID(ctx, &models.Secret{Ciphertext: []byte{1}, CreatedAt: time.Now()})
		require.NoError(t, err)
		if _, dup := seen[key]; dup {
			t.Fatalf("duplicate lookup key generated: %s", key)
		}
		seen[key] = struct{}{}
	}
	assert.Len(t, seen, 1000)
}

func TestSecretService_TokenFormat(t *testing.T) {
	repo := secrets.NewInMemoryRepository()
	svc := newService(t, repo, func(c *config.Config) { c.KeyFormat = config.KeyFormatToken })
	ctx := context.Background()

	key, err := svc.insertWithToken(ctx, &models.Secret{Ciphertext: []byte{1}, CreatedAt: time.Now()})
	require.NoError(t, err)
	assert.Len(t, key, shortTokenBytes*2, "token keys are hex-encoded")
}

func TestSecretService_TokenCollisionRetries(t *testing.T) {
	repo := &dupThenOKRepo{dups: 2}
	svc := newService(t, repo, func(c *config.Config) { c.KeyFormat = config.KeyFormatToken })

	key, err := svc.insertWithToken(context.Background(), &models.Secret{Ciphertext: []byte{1}})
	require.NoError(t, err)
	assert.NotEmpty(t, key)
	assert.Equal(t, 3, repo.calls, "two collisions then success")
	assert.Equal(t, key, repo.last.LookupKey)
}

func TestSecretService_KeyGenerationExhausted(t *testing.T) {
	repo := &fakeRepo{createErr: common.ErrorDuplicateKey}
	svc := newService(t, repo, func(c *config.Config) { c.KeyFormat = config.KeyFormatToken })

	_, err := svc.insertWithToken(context.Background(), &models.Secret{Ciphertext: []byte{1}})
	assert.ErrorIs(t, err, common.ErrorKeyGenerationExhausted)
	assert.Equal(t, maxKeyAttempts, repo.createCalls, "retry budget must be spent before giving up")
}

func TestSecretService_DefaultTTLApplied(t *testing.T) {
	repo := &fakeRepo{}
	svc := newService(t, repo, func(c *config.Config) { c.DefaultSecretTTL = time.Hour })

	before := time.Now()
	_, err := svc.Generate(context.Background(), "p", "k", 0)
	require.NoError(t, err)

	require.Len(t, repo.created, 1)
	rec := repo.created[0]
	require.NotNil(t, rec.ExpiresAt, "default TTL must set an expiry")
	assert.WithinDuration(t, before.Add(time.Hour), *rec.ExpiresAt, 5*time.Second)
}

func TestSecretService_NoTTLMeansNoExpiry(t *testing.T) {
	repo := &fakeRepo{}
	svc := newService(t, repo, func(c *config.Config) { c.DefaultSecretTTL = 0 })

	_, err := svc.Generate(context.Background(), "p", "k", 0)
	require.NoError(t, err)

	require.Len(t, repo.created, 1)
	assert.Nil(t, repo.created[0].ExpiresAt)
}

func TestSecretService_ExplicitTTLOverridesDefault(t *testing.T) {
	repo := &fakeRepo{}
	svc := newService(t, repo, func(c *config.Config) { c.DefaultSecretTTL = time.Hour })

	before := time.Now()
	_, err := svc.Generate(context.Background(), "p", "k", time.Minute)
	require.NoError(t, err)

	require.Len(t, repo.created, 1)
	rec := repo.created[0]
	require.NotNil(t, rec.ExpiresAt)
	assert.WithinDuration(t, before.Add(time.Minute), *rec.ExpiresAt, 5*time.Second)
}

func TestSecretService_StoreUnavailablePassthrough(t *testing.T) {
	repo := &fakeRepo{getErr: fmt.Errorf("%w: connection refused", common.ErrorStoreUnavailable)}
	svc := newService(t, repo)

	_, err := svc.Get(context.Background(), "k", "pass")
	assert.ErrorIs(t, err, common.ErrorStoreUnavailable)
	assert.False(t, errors.Is(err, common.ErrorSecretNotFound), "an outage must not masquerade as a missing secret")
}

func TestSecretService_DeleteFailureStillReturnsPlaintext(t *testing.T) {
	inner := secrets.NewInMemoryRepository()
	svc := newService(t, &flakyDeleteRepo{Repository: inner})
	ctx := context.Background()

	key, err := svc.Generate(ctx, "committed", "pass", 0)
	require.NoError(t, err)

	// decryption success is the commit point; a lost delete confirmation
	// must not surface to the caller who already holds the plaintext
	plaintext, err := svc.Get(ctx, key, "pass")
	require.NoError(t, err)
	assert.Equal(t, "committed", plaintext)
}

func TestSecretService_ConcurrentConsume(t *testing.T) {
	svc := newService(t, secrets.NewInMemoryRepository())
	ctx := context.Background()

	key, err := svc.Generate(ctx, "contested", "pass", 0)
	require.NoError(t, err)

	const n = 8
	var wg sync.WaitGroup
	results := make(chan error, n)

	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			plaintext, err := svc.Get(ctx, key, "pass")
			if err == nil && plaintext != "contested" {
				err = fmt.Errorf("unexpected plaintext %q", plaintext)
			}
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	var successes, notFound int
	for err := range results {
		switch {
		case err == nil:
			successes++
		case errors.Is(err, common.ErrorSecretNotFound):
			notFound++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}

	assert.Equal(t, 1, successes, "exactly one caller may consume the secret")
	assert.Equal(t, n-1, notFound)
}
