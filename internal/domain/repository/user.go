package repository

import (
	"context"

	"github.com/polkiloo/checkout/internal/domain/model"
)

// UserRepository stores payer accounts. Create returns ErrAlreadyExists for a taken login.
type UserRepository interface {
	Create(ctx context.Context, user model.User) (*model.User, error)
	GetByID(ctx context.Context, id int64) (*model.User, error)
	GetByLogin(ctx context.Context, login string) (*model.User, error)
}
