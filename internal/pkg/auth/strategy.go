package auth

import (
	"time"

	"github.com/polkiloo/checkout/internal/domain/model"
)

// Claims is the identity carried by an auth token.
type Claims struct {
	UserID    int64
	Role      model.Role
	ExpiresAt time.Time
}

// IsAdmin reports whether the token grants administrative access.
func (c Claims) IsAdmin() bool {
	return c.Role == model.RoleAdmin
}

type Strategy interface {
	IssueToken(userID int64, role model.Role) (string, error)
	ParseToken(token string) (Claims, error)
	Name() string
}

type Options struct {
	TTL time.Duration
}
