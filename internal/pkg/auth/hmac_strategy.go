package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/polkiloo/checkout/internal/domain/model"
)

var ErrInvalidToken = errors.New("invalid auth token")

var encoding = base64.RawURLEncoding

// HMACStrategy signs "<user>.<role>.<expiry>" payloads with HMAC-SHA256.
type HMACStrategy struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewHMACStrategy builds HMACStrategy with provided secret and options.
func NewHMACStrategy(secret string, opts Options) *HMACStrategy {
	ttl := opts.TTL
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &HMACStrategy{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// IssueToken generates signed auth token for the user.
func (s *HMACStrategy) IssueToken(userID int64, role model.Role) (string, error) {
	if role == "" {
		role = model.RoleCustomer
	}
	payload := fmt.Sprintf("%d.%s.%d", userID, role, s.now().Add(s.ttl).Unix())
	encoded := encoding.EncodeToString([]byte(payload))
	return encoded + "." + s.sign(encoded), nil
}

// ParseToken validates the signature and expiry and returns the claims.
func (s *HMACStrategy) ParseToken(token string) (Claims, error) {
	encoded, sig, ok := strings.Cut(token, ".")
	if !ok || !hmac.Equal([]byte(s.sign(encoded)), []byte(sig)) {
		return Claims{}, ErrInvalidToken
	}

	raw, err := encoding.DecodeString(encoded)
	if err != nil {
		return Claims{}, ErrInvalidToken
	}
	parts := strings.Split(string(raw), ".")
	if len(parts) != 3 {
		return Claims{}, ErrInvalidToken
	}

	userID, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil {
		return Claims{}, ErrInvalidToken
	}
	role := model.Role(parts[1])
	if role != model.RoleCustomer && role != model.RoleAdmin {
		return Claims{}, ErrInvalidToken
	}
	expires, err := strconv.ParseInt(parts[2], 10, 64)
	if err != nil {
		return Claims{}, ErrInvalidToken
	}
	expiresAt := time.Unix(expires, 0)
	if !expiresAt.After(s.now()) {
		return Claims{}, ErrInvalidToken
	}

	return Claims{UserID: userID, Role: role, ExpiresAt: expiresAt}, nil
}

func (s *HMACStrategy) Name() string {
	return "hmac-sha256"
}

func (s *HMACStrategy) sign(payload string) string {
	mac := hmac.New(sha256.New, s.secret)
	mac.Write([]byte(payload))
	return encoding.EncodeToString(mac.Sum(nil))
}
