package redisstore

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/swapyard/swapyard-api/internal/domain/repository"
)

func newTestStore(t *testing.T) (*TokenStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return NewTokenStore(rdb, 24*time.Hour, time.Hour), mr
}

func TestIssueAndValidate(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	tok, err := store.Issue(ctx, "owner-1", repository.TokenVerify)
	require.NoError(t, err)
	require.NotEmpty(t, tok)

	ok, err := store.Validate(ctx, "owner-1", repository.TokenVerify, tok)
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = store.Validate(ctx, "owner-1", repository.TokenVerify, "wrong")
	require.NoError(t, err)
	require.False(t, ok)

	// validation does not consume
	ok, err = store.Validate(ctx, "owner-1", repository.TokenVerify, tok)
	require.NoError(t, err)
	require.True(t, ok)
}

func TestIssueSupersedesPrevious(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	first, err := store.Issue(ctx, "owner-1", repository.TokenVerify)
	require.NoError(t, err)
	second, err := store.Issue(ctx, "owner-1", repository.TokenVerify)
	require.NoError(t, err)

	ok, err := store.Validate(ctx, "owner-1", repository.TokenVerify, first)
	require.NoError(t, err)
	require.False(t, ok)

	ok, err = store.Validate(ctx, "owner-1", repository.TokenVerify, second)
	require.NoError(t, err)
	require.True(t, ok)
}

func TestConsume(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	tok, err := store.Issue(ctx, "owner-1", repository.TokenReset)
	require.NoError(t, err)

	require.NoError(t, store.Consume(ctx, "owner-1", repository.TokenReset))

	ok, err := store.Validate(ctx, "owner-1", repository.TokenReset, tok)
	require.NoError(t, err)
	require.False(t, ok)

	// consuming an absent token is not an error
	require.NoError(t, store.Consume(ctx, "owner-1", repository.TokenReset))
}

func TestKindsAreIndependent(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	verify, err := store.Issue(ctx, "owner-1", repository.TokenVerify)
	require.NoError(t, err)
	reset, err := store.Issue(ctx, "owner-1", repository.TokenReset)
	require.NoError(t, err)

	ok, err := store.Validate(ctx, "owner-1", repository.TokenReset, verify)
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, store.Consume(ctx, "owner-1", repository.TokenVerify))

	ok, err = store.Validate(ctx, "owner-1", repository.TokenReset, reset)
	require.NoError(t, err)
	require.True(t, ok)
}

func TestExpiryPerKind(t *testing.T) {
	store, mr := newTestStore(t)
	ctx := context.Background()

	tok, err := store.Issue(ctx, "owner-1", repository.TokenReset)
	require.NoError(t, err)
	require.Equal(t, time.Hour, mr.TTL("auth:reset:owner-1"))

	_, err = store.Issue(ctx, "owner-1", repository.TokenVerify)
	require.NoError(t, err)
	require.Equal(t, 24*time.Hour, mr.TTL("auth:verify:owner-1"))

	mr.FastForward(2 * time.Hour)

	ok, err := store.Validate(ctx, "owner-1", repository.TokenReset, tok)
	require.NoError(t, err)
	require.False(t, ok)
}
