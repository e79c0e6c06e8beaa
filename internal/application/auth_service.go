package application

import (
	"context"
	"errors"
	"io"
	"path/filepath"
	"strings"

	"cloud.google.com/go/storage"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/swapyard/swapyard-api/config"
	"github.com/swapyard/swapyard-api/internal/domain/entity"
	"github.com/swapyard/swapyard-api/internal/domain/repository"
	"github.com/swapyard/swapyard-api/pkg/helpers"
	"github.com/swapyard/swapyard-api/pkg/mailer"
)

var (
	ErrEmailTaken         = errors.New("user already exists")
	ErrUserNotFound       = errors.New("user not found")
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrUnauthorized covers invalid ephemeral tokens and refresh tokens that
	// fail signature or lookup checks.
	ErrUnauthorized = errors.New("unauthorized request")
	// ErrSessionCompromised is returned when a validly-signed refresh token is
	// presented after it was rotated out: the replay signal. Every session of
	// the user is revoked before this is returned.
	ErrSessionCompromised = errors.New("refresh token reuse detected")
	ErrPasswordReused     = errors.New("new password must be different from the old one")
)

// AuthService orchestrates sign-in/sign-out/refresh over the user's
// refresh-token set, plus the email-verification and password-reset flows.
type AuthService struct {
	Users     repository.UserRepository
	Tokens    repository.TokenStore
	JWT       *helpers.JWTManager
	GCS       *storage.Client
	GCSBucket string
	Pub       *helpers.RabbitPublisher
	Logger    *logrus.Logger
	Cfg       *config.Config
}

func NewAuthService(users repository.UserRepository, tokens repository.TokenStore, jwt *helpers.JWTManager,
	gcs *storage.Client, gcsBucket string, pub *helpers.RabbitPublisher, logger *logrus.Logger, cfg *config.Config) *AuthService {
	return &AuthService{
		Users:     users,
		Tokens:    tokens,
		JWT:       jwt,
		GCS:       gcs,
		GCSBucket: gcsBucket,
		Pub:       pub,
		Logger:    logger,
		Cfg:       cfg,
	}
}

// SignUp registers a new account and issues its verification token. The
// returned link embeds the plaintext token and is also delivered by email.
func (s *AuthService) SignUp(ctx context.Context, name, email, password string) (*entity.User, string, error) {
	hash, err := helpers.HashPassword(password)
	if err != nil {
		return nil, "", err
	}
	u := &entity.User{Name: name, Email: email, Password: hash}
	if err := s.Users.Create(ctx, u); err != nil {
		if errors.Is(err, repository.ErrEmailTaken) {
			return nil, "", ErrEmailTaken
		}
		return nil, "", err
	}

	link, err := s.issueVerification(ctx, u)
	if err != nil {
		return nil, "", err
	}
	return u, link, nil
}

func (s *AuthService) issueVerification(ctx context.Context, u *entity.User) (string, error) {
	token, err := s.Tokens.Issue(ctx, u.ID, repository.TokenVerify)
	if err != nil {
		return "", err
	}
	link := s.Cfg.VerifyEmailURL + "?id=" + u.ID + "&token=" + token
	s.enqueueMail(ctx, mailer.EmailJob{To: u.Email, Kind: mailer.KindVerifyEmail, Name: u.Name, Link: link})
	return link, nil
}

// enqueueMail is fire-and-forget: a failed publish is logged and the caller's
// response is unaffected.
func (s *AuthService) enqueueMail(ctx context.Context, job mailer.EmailJob) {
	if s.Pub == nil || s.Cfg == nil || !s.Cfg.MailSendEnabled {
		return
	}
	if err := s.Pub.PublishJSON(ctx, job); err != nil && s.Logger != nil {
		s.Logger.WithError(err).WithField("kind", job.Kind).Warn("failed to enqueue email job")
	}
}

// SignIn verifies credentials, mints a token pair and appends the refresh
// token to the user's active set. Unknown email and bad password stay
// distinguishable for the API contract.
func (s *AuthService) SignIn(ctx context.Context, email, password string) (*entity.User, helpers.TokenPair, error) {
	u, err := s.Users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, helpers.TokenPair{}, ErrUserNotFound
		}
		return nil, helpers.TokenPair{}, err
	}
	if !helpers.CompareHashAndPassword(u.Password, password) {
		return nil, helpers.TokenPair{}, ErrInvalidCredentials
	}
	pair, err := s.JWT.MintPair(u.ID)
	if err != nil {
		return nil, helpers.TokenPair{}, err
	}
	if err := s.Users.AppendRefreshToken(ctx, u.ID, pair.RefreshToken); err != nil {
		return nil, helpers.TokenPair{}, err
	}
	return u, pair, nil
}

// Refresh rotates a refresh token: the presented token is removed and a new
// pair is minted in one conditional update. A validly-signed token that is no
// longer in the active set means it was already used once; all of the user's
// sessions are revoked and ErrSessionCompromised is returned.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (helpers.TokenPair, error) {
	userID, err := s.JWT.Verify(refreshToken)
	if err != nil {
		return helpers.TokenPair{}, ErrUnauthorized
	}
	u, err := s.Users.GetByID(ctx, userID)
	if err != nil {
		return helpers.TokenPair{}, ErrUnauthorized
	}
	pair, err := s.JWT.MintPair(u.ID)
	if err != nil {
		return helpers.TokenPair{}, err
	}
	rotated, err := s.Users.RotateRefreshToken(ctx, u.ID, refreshToken, pair.RefreshToken)
	if err != nil {
		return helpers.TokenPair{}, err
	}
	if !rotated {
		if s.Logger != nil {
			s.Logger.WithField("user_id", u.ID).Warn("refresh token replay detected, revoking all sessions")
		}
		if err := s.Users.ClearRefreshTokens(ctx, u.ID); err != nil {
			return helpers.TokenPair{}, err
		}
		return helpers.TokenPair{}, ErrSessionCompromised
	}
	return pair, nil
}

// SignOut retires exactly the presented refresh token.
func (s *AuthService) SignOut(ctx context.Context, userID, refreshToken string) error {
	removed, err := s.Users.RemoveRefreshToken(ctx, userID, refreshToken)
	if err != nil {
		return err
	}
	if !removed {
		return ErrUnauthorized
	}
	return nil
}

// VerifyEmail validates a verification token, marks the account verified and
// consumes the token so it can only ever succeed once.
func (s *AuthService) VerifyEmail(ctx context.Context, ownerID, token string) error {
	ok, err := s.Tokens.Validate(ctx, ownerID, repository.TokenVerify, token)
	if err != nil {
		return err
	}
	if !ok {
		return ErrUnauthorized
	}
	if err := s.Users.SetVerified(ctx, ownerID); err != nil {
		return err
	}
	return s.Tokens.Consume(ctx, ownerID, repository.TokenVerify)
}

// ReissueVerification issues a fresh verification link for an authenticated
// user, superseding any earlier token.
func (s *AuthService) ReissueVerification(ctx context.Context, userID string) (string, error) {
	u, err := s.Users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return "", ErrUserNotFound
		}
		return "", err
	}
	return s.issueVerification(ctx, u)
}

// RequestPasswordReset issues a reset token for the account behind email and
// mails its link out-of-band.
func (s *AuthService) RequestPasswordReset(ctx context.Context, email string) (string, error) {
	u, err := s.Users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return "", ErrUserNotFound
		}
		return "", err
	}
	token, err := s.Tokens.Issue(ctx, u.ID, repository.TokenReset)
	if err != nil {
		return "", err
	}
	link := s.Cfg.ResetPasswordURL + "?id=" + u.ID + "&token=" + token
	s.enqueueMail(ctx, mailer.EmailJob{To: u.Email, Kind: mailer.KindResetPassword, Name: u.Name, Link: link})
	return link, nil
}

// CheckResetToken is the non-consuming pre-flight gate used before showing a
// reset form.
func (s *AuthService) CheckResetToken(ctx context.Context, ownerID, token string) (bool, error) {
	return s.Tokens.Validate(ctx, ownerID, repository.TokenReset, token)
}

// CompleteReset re-validates the reset token, rejects a password identical to
// the current one, stores the new hash and revokes every active session.
func (s *AuthService) CompleteReset(ctx context.Context, ownerID, token, newPassword string) error {
	ok, err := s.Tokens.Validate(ctx, ownerID, repository.TokenReset, token)
	if err != nil {
		return err
	}
	if !ok {
		return ErrUnauthorized
	}
	u, err := s.Users.GetByID(ctx, ownerID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrUserNotFound
		}
		return err
	}
	if helpers.CompareHashAndPassword(u.Password, newPassword) {
		return ErrPasswordReused
	}
	hash, err := helpers.HashPassword(newPassword)
	if err != nil {
		return err
	}
	if err := s.Users.UpdatePassword(ctx, u.ID, hash); err != nil {
		return err
	}
	if err := s.Tokens.Consume(ctx, u.ID, repository.TokenReset); err != nil {
		return err
	}
	// A reset invalidates every outstanding session.
	if err := s.Users.ClearRefreshTokens(ctx, u.ID); err != nil {
		return err
	}
	s.enqueueMail(ctx, mailer.EmailJob{To: u.Email, Kind: mailer.KindPasswordChanged, Name: u.Name})
	return nil
}

// GetProfile loads a user by id.
func (s *AuthService) GetProfile(ctx context.Context, userID string) (*entity.User, error) {
	u, err := s.Users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return u, nil
}

// UpdateProfile changes the display name.
func (s *AuthService) UpdateProfile(ctx context.Context, userID, name string) (*entity.User, error) {
	u, err := s.Users.UpdateProfile(ctx, userID, name)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return u, nil
}

// UpdateAvatar uploads the new image to GCS, deletes the replaced object and
// stores the new reference.
func (s *AuthService) UpdateAvatar(ctx context.Context, userID string, r io.Reader, filename, contentType string) (string, error) {
	if s.GCS == nil || s.GCSBucket == "" {
		return "", errors.New("storage not configured")
	}
	u, err := s.Users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return "", ErrUserNotFound
		}
		return "", err
	}
	ext := strings.ToLower(filepath.Ext(filename))
	objectPath := filepath.ToSlash(filepath.Join("avatars", userID, uuid.NewString()+ext))
	url, err := helpers.UploadObject(ctx, s.GCS, s.GCSBucket, objectPath, contentType, r)
	if err != nil {
		return "", err
	}
	if err := s.Users.UpdateAvatar(ctx, userID, url, objectPath); err != nil {
		return "", err
	}
	if u.AvatarID != "" {
		if err := helpers.DeleteObject(ctx, s.GCS, s.GCSBucket, u.AvatarID); err != nil && s.Logger != nil {
			s.Logger.WithError(err).WithField("object", u.AvatarID).Warn("failed to delete old avatar")
		}
	}
	return url, nil
}
