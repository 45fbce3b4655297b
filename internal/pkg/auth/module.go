package auth

import (
	"errors"

	"go.uber.org/fx"

	"github.com/polkiloo/checkout/internal/config"
)

var errEmptySecret = errors.New("token secret must not be empty")

// Module provides the password hasher and token strategy configured from *config.Config.
var Module = fx.Provide(newPasswordHasher, newTokenStrategy)

type authParams struct {
	fx.In

	Config *config.Config
}

func newPasswordHasher(p authParams) PasswordHasher {
	return NewBcryptHasher(p.Config.PasswordCost)
}

func newTokenStrategy(p authParams) (Strategy, error) {
	if p.Config.JWTSecret == "" {
		return nil, errEmptySecret
	}
	return NewHMACStrategy(p.Config.JWTSecret, Options{TTL: p.Config.TokenTTL}), nil
}
