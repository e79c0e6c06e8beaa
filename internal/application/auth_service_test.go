package application

import (
	"context"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/swapyard/swapyard-api/config"
	"github.com/swapyard/swapyard-api/internal/domain/entity"
	"github.com/swapyard/swapyard-api/internal/domain/repository"
	"github.com/swapyard/swapyard-api/pkg/helpers"
)

// fakeUsers is an in-memory UserRepository.
type fakeUsers struct {
	seq   int
	users map[string]*entity.User
}

func newFakeUsers() *fakeUsers {
	return &fakeUsers{users: map[string]*entity.User{}}
}

func (f *fakeUsers) Create(_ context.Context, u *entity.User) error {
	for _, ex := range f.users {
		if ex.Email == u.Email {
			return repository.ErrEmailTaken
		}
	}
	f.seq++
	u.ID = "user-" + strconv.Itoa(f.seq)
	cp := *u
	f.users[u.ID] = &cp
	return nil
}

func (f *fakeUsers) GetByID(_ context.Context, id string) (*entity.User, error) {
	u, ok := f.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *u
	cp.RefreshTokens = append([]string(nil), u.RefreshTokens...)
	return &cp, nil
}

func (f *fakeUsers) GetByEmail(_ context.Context, email string) (*entity.User, error) {
	for _, u := range f.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f *fakeUsers) UpdateProfile(_ context.Context, id, name string) (*entity.User, error) {
	u, ok := f.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	u.Name = name
	cp := *u
	return &cp, nil
}

func (f *fakeUsers) UpdateAvatar(_ context.Context, id, url, objectID string) error {
	u, ok := f.users[id]
	if !ok {
		return repository.ErrNotFound
	}
	u.AvatarURL, u.AvatarID = url, objectID
	return nil
}

func (f *fakeUsers) UpdatePassword(_ context.Context, id, passwordHash string) error {
	u, ok := f.users[id]
	if !ok {
		return repository.ErrNotFound
	}
	u.Password = passwordHash
	return nil
}

func (f *fakeUsers) SetVerified(_ context.Context, id string) error {
	u, ok := f.users[id]
	if !ok {
		return repository.ErrNotFound
	}
	u.Verified = true
	return nil
}

func (f *fakeUsers) AppendRefreshToken(_ context.Context, id, token string) error {
	u, ok := f.users[id]
	if !ok {
		return repository.ErrNotFound
	}
	u.RefreshTokens = append(u.RefreshTokens, token)
	return nil
}

func (f *fakeUsers) RotateRefreshToken(_ context.Context, id, oldTok, newTok string) (bool, error) {
	u, ok := f.users[id]
	if !ok {
		return false, repository.ErrNotFound
	}
	for i, t := range u.RefreshTokens {
		if t == oldTok {
			u.RefreshTokens[i] = newTok
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeUsers) RemoveRefreshToken(_ context.Context, id, token string) (bool, error) {
	u, ok := f.users[id]
	if !ok {
		return false, repository.ErrNotFound
	}
	for i, t := range u.RefreshTokens {
		if t == token {
			u.RefreshTokens = append(u.RefreshTokens[:i], u.RefreshTokens[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeUsers) ClearRefreshTokens(_ context.Context, id string) error {
	u, ok := f.users[id]
	if !ok {
		return repository.ErrNotFound
	}
	u.RefreshTokens = nil
	return nil
}

var _ repository.UserRepository = (*fakeUsers)(nil)

// fakeTokens is an in-memory TokenStore keeping plaintext tokens per
// owner/kind.
type fakeTokens struct {
	seq    int
	tokens map[string]string
}

func newFakeTokens() *fakeTokens {
	return &fakeTokens{tokens: map[string]string{}}
}

func (f *fakeTokens) key(ownerID string, kind repository.TokenKind) string {
	return string(kind) + ":" + ownerID
}

func (f *fakeTokens) Issue(_ context.Context, ownerID string, kind repository.TokenKind) (string, error) {
	f.seq++
	tok := "tok-" + strconv.Itoa(f.seq)
	f.tokens[f.key(ownerID, kind)] = tok
	return tok, nil
}

func (f *fakeTokens) Validate(_ context.Context, ownerID string, kind repository.TokenKind, candidate string) (bool, error) {
	tok, ok := f.tokens[f.key(ownerID, kind)]
	return ok && tok == candidate, nil
}

func (f *fakeTokens) Consume(_ context.Context, ownerID string, kind repository.TokenKind) error {
	delete(f.tokens, f.key(ownerID, kind))
	return nil
}

var _ repository.TokenStore = (*fakeTokens)(nil)

func newTestService() (*AuthService, *fakeUsers, *fakeTokens) {
	users := newFakeUsers()
	tokens := newFakeTokens()
	svc := NewAuthService(
		users,
		tokens,
		helpers.NewJWTManager("test-secret", 15*time.Minute, 72*time.Hour),
		nil, "",
		nil,
		nil,
		&config.Config{
			VerifyEmailURL:   "http://localhost/verify",
			ResetPasswordURL: "http://localhost/reset",
		},
	)
	return svc, users, tokens
}

func TestSignUp_DuplicateEmail(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	u, link, err := svc.SignUp(ctx, "Alice", "alice@example.com", "password123")
	require.NoError(t, err)
	require.NotEmpty(t, u.ID)
	require.Contains(t, link, "id="+u.ID)
	require.Contains(t, link, "token=")

	_, _, err = svc.SignUp(ctx, "Alice Again", "alice@example.com", "password123")
	require.ErrorIs(t, err, ErrEmailTaken)
}

func TestSignIn(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	u, _, err := svc.SignUp(ctx, "Alice", "alice@example.com", "password123")
	require.NoError(t, err)

	_, _, err = svc.SignIn(ctx, "nobody@example.com", "password123")
	require.ErrorIs(t, err, ErrUserNotFound)

	_, _, err = svc.SignIn(ctx, "alice@example.com", "wrong")
	require.ErrorIs(t, err, ErrInvalidCredentials)

	got, pair, err := svc.SignIn(ctx, "alice@example.com", "password123")
	require.NoError(t, err)
	require.Equal(t, u.ID, got.ID)
	require.NotEmpty(t, pair.AccessToken)
	require.NotEmpty(t, pair.RefreshToken)
}

func TestRefresh_RotatesToken(t *testing.T) {
	svc, users, _ := newTestService()
	ctx := context.Background()

	u, _, err := svc.SignUp(ctx, "Alice", "alice@example.com", "password123")
	require.NoError(t, err)
	_, pair, err := svc.SignIn(ctx, "alice@example.com", "password123")
	require.NoError(t, err)

	next, err := svc.Refresh(ctx, pair.RefreshToken)
	require.NoError(t, err)
	require.NotEqual(t, pair.RefreshToken, next.RefreshToken)

	stored, err := users.GetByID(ctx, u.ID)
	require.NoError(t, err)
	require.Equal(t, []string{next.RefreshToken}, stored.RefreshTokens)
}

func TestRefresh_ReplayRevokesAllSessions(t *testing.T) {
	svc, users, _ := newTestService()
	ctx := context.Background()

	u, _, err := svc.SignUp(ctx, "Alice", "alice@example.com", "password123")
	require.NoError(t, err)

	// two independent sessions
	_, first, err := svc.SignIn(ctx, "alice@example.com", "password123")
	require.NoError(t, err)
	_, _, err = svc.SignIn(ctx, "alice@example.com", "password123")
	require.NoError(t, err)

	_, err = svc.Refresh(ctx, first.RefreshToken)
	require.NoError(t, err)

	// replaying the already-rotated token revokes everything
	_, err = svc.Refresh(ctx, first.RefreshToken)
	require.ErrorIs(t, err, ErrSessionCompromised)

	stored, err := users.GetByID(ctx, u.ID)
	require.NoError(t, err)
	require.Empty(t, stored.RefreshTokens)
}

func TestRefresh_GarbageToken(t *testing.T) {
	svc, _, _ := newTestService()

	_, err := svc.Refresh(context.Background(), "garbage")
	require.ErrorIs(t, err, ErrUnauthorized)
}

func TestSignOut(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	u, _, err := svc.SignUp(ctx, "Alice", "alice@example.com", "password123")
	require.NoError(t, err)
	_, pair, err := svc.SignIn(ctx, "alice@example.com", "password123")
	require.NoError(t, err)

	require.NoError(t, svc.SignOut(ctx, u.ID, pair.RefreshToken))

	// the session is gone, a second sign-out and a refresh both fail
	require.ErrorIs(t, svc.SignOut(ctx, u.ID, pair.RefreshToken), ErrUnauthorized)
	_, err = svc.Refresh(ctx, pair.RefreshToken)
	require.ErrorIs(t, err, ErrSessionCompromised)
}

func TestVerifyEmail_OneShot(t *testing.T) {
	svc, users, tokens := newTestService()
	ctx := context.Background()

	u, _, err := svc.SignUp(ctx, "Alice", "alice@example.com", "password123")
	require.NoError(t, err)
	tok := tokens.tokens[tokens.key(u.ID, repository.TokenVerify)]

	require.ErrorIs(t, svc.VerifyEmail(ctx, u.ID, "wrong"), ErrUnauthorized)

	require.NoError(t, svc.VerifyEmail(ctx, u.ID, tok))
	stored, err := users.GetByID(ctx, u.ID)
	require.NoError(t, err)
	require.True(t, stored.Verified)

	// consumed, the same token no longer works
	require.ErrorIs(t, svc.VerifyEmail(ctx, u.ID, tok), ErrUnauthorized)
}

func TestReissueVerification_Supersedes(t *testing.T) {
	svc, _, tokens := newTestService()
	ctx := context.Background()

	u, _, err := svc.SignUp(ctx, "Alice", "alice@example.com", "password123")
	require.NoError(t, err)
	first := tokens.tokens[tokens.key(u.ID, repository.TokenVerify)]

	_, err = svc.ReissueVerification(ctx, u.ID)
	require.NoError(t, err)

	require.ErrorIs(t, svc.VerifyEmail(ctx, u.ID, first), ErrUnauthorized)

	second := tokens.tokens[tokens.key(u.ID, repository.TokenVerify)]
	require.NoError(t, svc.VerifyEmail(ctx, u.ID, second))
}

func TestPasswordReset(t *testing.T) {
	svc, users, tokens := newTestService()
	ctx := context.Background()

	u, _, err := svc.SignUp(ctx, "Alice", "alice@example.com", "password123")
	require.NoError(t, err)
	_, _, err = svc.SignIn(ctx, "alice@example.com", "password123")
	require.NoError(t, err)

	_, err = svc.RequestPasswordReset(ctx, "nobody@example.com")
	require.ErrorIs(t, err, ErrUserNotFound)

	_, err = svc.RequestPasswordReset(ctx, "alice@example.com")
	require.NoError(t, err)
	tok := tokens.tokens[tokens.key(u.ID, repository.TokenReset)]

	ok, err := svc.CheckResetToken(ctx, u.ID, tok)
	require.NoError(t, err)
	require.True(t, ok)

	// the pre-flight check does not consume the token
	ok, err = svc.CheckResetToken(ctx, u.ID, tok)
	require.NoError(t, err)
	require.True(t, ok)

	// same password is rejected and nothing changes
	err = svc.CompleteReset(ctx, u.ID, tok, "password123")
	require.ErrorIs(t, err, ErrPasswordReused)
	_, _, err = svc.SignIn(ctx, "alice@example.com", "password123")
	require.NoError(t, err)

	require.NoError(t, svc.CompleteReset(ctx, u.ID, tok, "newpassword456"))

	// token consumed, sessions revoked, new password in effect
	require.ErrorIs(t, svc.CompleteReset(ctx, u.ID, tok, "whatever123"), ErrUnauthorized)
	stored, err := users.GetByID(ctx, u.ID)
	require.NoError(t, err)
	require.Empty(t, stored.RefreshTokens)

	_, _, err = svc.SignIn(ctx, "alice@example.com", "password123")
	require.ErrorIs(t, err, ErrInvalidCredentials)
	_, _, err = svc.SignIn(ctx, "alice@example.com", "newpassword456")
	require.NoError(t, err)
}
