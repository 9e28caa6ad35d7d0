package db

import (
	"context"
	"errors"

	"github.com/ArnavJain-cy/sih-app/internal/domain/user"
)

type SeedStore interface {
	FindByEmailOrUsername(ctx context.Context, email, username string) (user.User, error)
	Create(ctx context.Context, in user.NewUser) (user.User, error)
}

// EnsureSeedUser creates the configured demo account unless its username or
// email is already taken. An empty seed is a no-op.
func EnsureSeedUser(ctx context.Context, store SeedStore, seed user.NewUser) (created bool, err error) {
	if seed.Email == "" || seed.Username == "" || seed.Password == "" {
		return false, nil
	}

	_, err = store.FindByEmailOrUsername(ctx, seed.Email, seed.Username)
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, user.ErrNotFound) {
		return false, err
	}

	_, err = store.Create(ctx, seed)
	if errors.Is(err, user.ErrDuplicateKey) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
