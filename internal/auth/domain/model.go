// Package domain contains core types for the auth service.
package domain

import (
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
)

// TimestampFormat is the layout used when users are rendered as JSON.
const TimestampFormat = "2006-01-02T15:04:05"

// PasswordHasher produces self-describing password digests.
type PasswordHasher interface {
	Hash(secret string) (string, error)
}

// PasswordVerifier checks a secret against a stored digest.
type PasswordVerifier func(secret, digest string) bool

// User represents a system user account.
type User struct {
	ID           snowflake.ID `gorm:"primaryKey;autoIncrement:false"`
	Email        string       `gorm:"column:email;type:varchar(255);not null;uniqueIndex"`
	PasswordHash *string      `gorm:"column:password_hash;type:text"`
	FirstName    *string      `gorm:"column:first_name;type:varchar(255)"`
	LastName     *string      `gorm:"column:last_name;type:varchar(255)"`
	ResetToken   *string      `gorm:"column:reset_token;type:varchar(255);uniqueIndex"`
	CreatedAt    time.Time    `gorm:"not null"`
	UpdatedAt    time.Time    `gorm:"not null"`
}

// TableName sets the database table name.
func (User) TableName() string { return "users" }

// SetPassword stores a fresh digest of pwd. A nil pwd clears the digest,
// after which every password check fails.
func (u *User) SetPassword(pwd *string, hasher PasswordHasher) error {
	if pwd == nil {
		u.PasswordHash = nil
		return nil
	}
	digest, err := hasher.Hash(*pwd)
	if err != nil {
		return err
	}
	u.PasswordHash = &digest
	return nil
}

// IsValidPassword reports whether pwd matches the stored digest.
func (u *User) IsValidPassword(pwd string, verify PasswordVerifier) bool {
	if u == nil || u.PasswordHash == nil || verify == nil {
		return false
	}
	return verify(pwd, *u.PasswordHash)
}

// DisplayName is the name shown for the user, falling back to the email.
func (u *User) DisplayName() string {
	first := deref(u.FirstName)
	last := deref(u.LastName)
	switch {
	case first == "" && last == "":
		return u.Email
	case last == "":
		return first
	case first == "":
		return last
	default:
		return first + " " + last
	}
}

// UserView is the public JSON representation of a user.
// Password digests and reset tokens are never rendered.
type UserView struct {
	ID        string  `json:"id"`
	Email     string  `json:"email"`
	FirstName *string `json:"first_name"`
	LastName  *string `json:"last_name"`
	CreatedAt string  `json:"created_at"`
	UpdatedAt string  `json:"updated_at"`
}

func (u *User) View() UserView {
	return UserView{
		ID:        u.ID.String(),
		Email:     u.Email,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		CreatedAt: u.CreatedAt.UTC().Format(TimestampFormat),
		UpdatedAt: u.UpdatedAt.UTC().Format(TimestampFormat),
	}
}

// UserSession is a persisted session row. Only the token digest is stored.
type UserSession struct {
	ID               snowflake.ID `gorm:"primaryKey;autoIncrement:false"`
	UserID           string       `gorm:"column:user_id;type:varchar(64);not null;index"`
	SessionTokenHash string       `gorm:"column:session_token_hash;type:varchar(64);not null;uniqueIndex"`
	CreatedAt        time.Time    `gorm:"column:created_at;not null"`
}

// TableName sets the database table name.
func (UserSession) TableName() string { return "user_sessions" }

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return strings.TrimSpace(*s)
}
