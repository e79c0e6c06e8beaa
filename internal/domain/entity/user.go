package entity

import "time"

// User is the aggregate root for the account domain. Password holds a bcrypt
// hash, never the plaintext. RefreshTokens is the insertion-ordered set of
// currently valid refresh tokens; a token removed from it can never be used
// again.
type User struct {
	ID            string
	Name          string
	Email         string
	Password      string
	Verified      bool
	RefreshTokens []string
	AvatarURL     string
	AvatarID      string // storage object path, used when replacing the avatar
	CreatedAt     time.Time
	UpdatedAt     time.Time
}
