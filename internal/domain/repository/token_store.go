package repository

import "context"

// TokenKind selects between the two ephemeral token variants.
type TokenKind string

const (
	TokenVerify TokenKind = "verify"
	TokenReset  TokenKind = "reset"
)

// TokenStore persists single-use ephemeral tokens, one per owner per kind.
// Issue supersedes any live token of the same kind for the owner and returns
// the plaintext; only a one-way hash is stored, and entries expire on their
// own after the kind's TTL. Validate never consumes; callers Consume after a
// successful one-shot use.
type TokenStore interface {
	Issue(ctx context.Context, ownerID string, kind TokenKind) (string, error)
	Validate(ctx context.Context, ownerID string, kind TokenKind, candidate string) (bool, error)
	Consume(ctx context.Context, ownerID string, kind TokenKind) error
}
