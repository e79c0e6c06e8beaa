package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/swapyard/swapyard-api/internal/domain/entity"
	"github.com/swapyard/swapyard-api/internal/domain/repository"
)

const uniqueViolation = "23505"

type UserRepository struct {
	pool *pgxpool.Pool
}

func NewUserRepository(pool *pgxpool.Pool) *UserRepository {
	return &UserRepository{pool: pool}
}

func (r *UserRepository) Create(ctx context.Context, u *entity.User) error {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO users (name, email, password_hash)
		VALUES ($1, $2, $3)
		RETURNING id, verified, created_at, updated_at
	`, u.Name, u.Email, u.Password)

	if err := row.Scan(&u.ID, &u.Verified, &u.CreatedAt, &u.UpdatedAt); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return repository.ErrEmailTaken
		}
		return err
	}
	return nil
}

const userColumns = `id, name, email, password_hash, verified, refresh_tokens, avatar_url, avatar_id, created_at, updated_at`

func (r *UserRepository) scanUser(row pgx.Row) (*entity.User, error) {
	u := &entity.User{}
	if err := row.Scan(&u.ID, &u.Name, &u.Email, &u.Password, &u.Verified,
		&u.RefreshTokens, &u.AvatarURL, &u.AvatarID, &u.CreatedAt, &u.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return u, nil
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (*entity.User, error) {
	return r.scanUser(r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*entity.User, error) {
	return r.scanUser(r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email))
}

func (r *UserRepository) UpdateProfile(ctx context.Context, id, name string) (*entity.User, error) {
	return r.scanUser(r.pool.QueryRow(ctx, `
		UPDATE users SET name = $1, updated_at = now()
		WHERE id = $2
		RETURNING `+userColumns, name, id))
}

func (r *UserRepository) UpdateAvatar(ctx context.Context, id, url, objectID string) error {
	return r.exec(ctx, `
		UPDATE users SET avatar_url = $1, avatar_id = $2, updated_at = now()
		WHERE id = $3
	`, url, objectID, id)
}

func (r *UserRepository) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	return r.exec(ctx, `
		UPDATE users SET password_hash = $1, updated_at = now()
		WHERE id = $2
	`, passwordHash, id)
}

func (r *UserRepository) SetVerified(ctx context.Context, id string) error {
	return r.exec(ctx, `
		UPDATE users SET verified = true, updated_at = now()
		WHERE id = $1
	`, id)
}

func (r *UserRepository) AppendRefreshToken(ctx context.Context, id, token string) error {
	return r.exec(ctx, `
		UPDATE users SET refresh_tokens = array_append(refresh_tokens, $1), updated_at = now()
		WHERE id = $2
	`, token, id)
}

// RotateRefreshToken swaps oldTok for newTok in a single conditional UPDATE.
// The WHERE guard makes this a compare-and-swap: zero rows affected means
// oldTok was already rotated out, which callers treat as a replay signal.
func (r *UserRepository) RotateRefreshToken(ctx context.Context, id, oldTok, newTok string) (bool, error) {
	res, err := r.pool.Exec(ctx, `
		UPDATE users
		SET refresh_tokens = array_append(array_remove(refresh_tokens, $1), $2), updated_at = now()
		WHERE id = $3 AND $1 = ANY(refresh_tokens)
	`, oldTok, newTok, id)
	if err != nil {
		return false, err
	}
	return res.RowsAffected() > 0, nil
}

func (r *UserRepository) RemoveRefreshToken(ctx context.Context, id, token string) (bool, error) {
	res, err := r.pool.Exec(ctx, `
		UPDATE users
		SET refresh_tokens = array_remove(refresh_tokens, $1), updated_at = now()
		WHERE id = $2 AND $1 = ANY(refresh_tokens)
	`, token, id)
	if err != nil {
		return false, err
	}
	return res.RowsAffected() > 0, nil
}

func (r *UserRepository) ClearRefreshTokens(ctx context.Context, id string) error {
	return r.exec(ctx, `
		UPDATE users SET refresh_tokens = '{}', updated_at = now()
		WHERE id = $1
	`, id)
}

func (r *UserRepository) exec(ctx context.Context, sql string, args ...any) error {
	res, err := r.pool.Exec(ctx, sql, args...)
	if err != nil {
		return err
	}
	if res.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

var _ repository.UserRepository = (*UserRepository)(nil)
