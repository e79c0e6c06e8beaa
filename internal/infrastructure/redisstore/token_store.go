package redisstore

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"

	"github.com/swapyard/swapyard-api/internal/domain/repository"
	"github.com/swapyard/swapyard-api/pkg/helpers"
)

// TokenStore keeps ephemeral verification and reset tokens in Redis, one key
// per owner per kind. Values are bcrypt hashes of the plaintext token, and
// expiry is enforced by the key TTL, not by the application.
type TokenStore struct {
	rdb       *redis.Client
	verifyTTL time.Duration
	resetTTL  time.Duration
}

func NewTokenStore(rdb *redis.Client, verifyTTL, resetTTL time.Duration) *TokenStore {
	return &TokenStore{rdb: rdb, verifyTTL: verifyTTL, resetTTL: resetTTL}
}

func (s *TokenStore) key(ownerID string, kind repository.TokenKind) string {
	return "auth:" + string(kind) + ":" + ownerID
}

func (s *TokenStore) ttl(kind repository.TokenKind) time.Duration {
	if kind == repository.TokenReset {
		return s.resetTTL
	}
	return s.verifyTTL
}

// Issue generates a fresh token for the owner, storing only its hash. A SET
// on the per-owner key supersedes any live token of the same kind.
func (s *TokenStore) Issue(ctx context.Context, ownerID string, kind repository.TokenKind) (string, error) {
	plain, err := helpers.GenerateToken()
	if err != nil {
		return "", err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	if err := s.rdb.Set(ctx, s.key(ownerID, kind), hash, s.ttl(kind)).Err(); err != nil {
		return "", err
	}
	return plain, nil
}

// Validate compares the candidate against the stored hash without consuming
// the token. A missing or expired key is simply no match.
func (s *TokenStore) Validate(ctx context.Context, ownerID string, kind repository.TokenKind, candidate string) (bool, error) {
	hash, err := s.rdb.Get(ctx, s.key(ownerID, kind)).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return bcrypt.CompareHashAndPassword(hash, []byte(candidate)) == nil, nil
}

// Consume deletes the owner's token of the given kind.
func (s *TokenStore) Consume(ctx context.Context, ownerID string, kind repository.TokenKind) error {
	return s.rdb.Del(ctx, s.key(ownerID, kind)).Err()
}

var _ repository.TokenStore = (*TokenStore)(nil)
