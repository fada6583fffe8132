package session

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"strings"
	"time"
)

const (
	BackendMemory = "memory"
	BackendDB     = "db"
	BackendRedis  = "redis"

	tokenBytes = 32
)

var ErrInvalidUserID = errors.New("session: user id is required")

// Store maps opaque session tokens to user ids.
//
// Resolve and Destroy never fail loudly: a backend error is reported as a
// missing session.
type Store interface {
	Create(ctx context.Context, userID string) (string, error)
	Resolve(ctx context.Context, token string) (string, bool)
	Destroy(ctx context.Context, token string) bool
}

// NewToken returns 256 random bits encoded as unpadded base64url.
func NewToken() (string, error) {
	buf := make([]byte, tokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// HashToken is the digest persisted in place of the raw token.
func HashToken(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}

// Expired reports whether a session created at createdAt is past ttl at now.
// A non-positive ttl never expires; the exact boundary is still valid.
func Expired(createdAt, now time.Time, ttl time.Duration) bool {
	if ttl <= 0 {
		return false
	}
	return now.After(createdAt.Add(ttl))
}

func validUserID(userID string) bool {
	return strings.TrimSpace(userID) != ""
}
