package memory

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/ArnavJain-cy/sih-app/internal/domain/user"
	"github.com/ArnavJain-cy/sih-app/internal/security"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func newRepo() *UsersRepo {
	return NewUsersRepo(security.NewPasswordHasher(bcrypt.MinCost))
}

func TestCreate_HashesAndIndexes(t *testing.T) {
	ctx := context.Background()
	r := newRepo()

	u, err := r.Create(ctx, user.NewUser{Username: "alice", Email: "A@X.com", Password: "secret1"})
	require.NoError(t, err)

	assert.NotEmpty(t, u.ID)
	assert.Equal(t, "a@x.com", u.Email)
	assert.NotEqual(t, "secret1", u.PasswordHash)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte("secret1")))

	byEmail, err := r.FindByEmail(ctx, "a@x.com")
	require.NoError(t, err)
	assert.Equal(t, u.ID, byEmail.ID)

	byID, err := r.FindByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, u.Username, byID.Username)

	either, err := r.FindByEmailOrUsername(ctx, "nobody@x.com", "alice")
	require.NoError(t, err)
	assert.Equal(t, u.ID, either.ID)
}

func TestCreate_DuplicateKey(t *testing.T) {
	ctx := context.Background()
	r := newRepo()

	_, err := r.Create(ctx, user.NewUser{Username: "alice", Email: "a@x.com", Password: "secret1"})
	require.NoError(t, err)

	_, err = r.Create(ctx, user.NewUser{Username: "alice", Email: "other@x.com", Password: "secret1"})
	assert.ErrorIs(t, err, user.ErrDuplicateKey)

	_, err = r.Create(ctx, user.NewUser{Username: "bob", Email: "a@x.com", Password: "secret1"})
	assert.ErrorIs(t, err, user.ErrDuplicateKey)
}

func TestCreate_ConcurrentSignupsHaveOneWinner(t *testing.T) {
	ctx := context.Background()
	r := newRepo()

	const n = 8
	var wg sync.WaitGroup
	errs := make([]error, n)

	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = r.Create(ctx, user.NewUser{
				Username: fmt.Sprintf("user%d", i),
				Email:    "same@x.com",
				Password: "secret1",
			})
		}(i)
	}
	wg.Wait()

	wins := 0
	for _, err := range errs {
		if err == nil {
			wins++
			continue
		}
		assert.ErrorIs(t, err, user.ErrDuplicateKey)
	}
	assert.Equal(t, 1, wins)
}

func TestFind_NotFound(t *testing.T) {
	ctx := context.Background()
	r := newRepo()

	_, err := r.FindByID(ctx, "missing")
	assert.ErrorIs(t, err, user.ErrNotFound)

	_, err = r.FindByEmail(ctx, "missing@x.com")
	assert.ErrorIs(t, err, user.ErrNotFound)

	_, err = r.FindByEmailOrUsername(ctx, "missing@x.com", "missing")
	assert.ErrorIs(t, err, user.ErrNotFound)
}

func TestUpdate(t *testing.T) {
	ctx := context.Background()
	r := newRepo()

	u, err := r.Create(ctx, user.NewUser{Username: "alice", Email: "a@x.com", Password: "secret1"})
	require.NoError(t, err)

	login := time.Now().UTC().Truncate(time.Second)
	updated, err := r.Update(ctx, u.ID, user.Patch{
		LastLogin: &login,
		Profile:   &user.Profile{Bio: "hi"},
		Progress:  &user.Progress{Points: 5},
	})
	require.NoError(t, err)
	require.NotNil(t, updated.LastLogin)
	assert.True(t, updated.LastLogin.Equal(login))
	assert.Equal(t, "hi", updated.Profile.Bio)
	assert.Equal(t, 5, updated.Progress.Points)
	assert.Equal(t, u.PasswordHash, updated.PasswordHash)

	_, err = r.Update(ctx, "missing", user.Patch{})
	assert.ErrorIs(t, err, user.ErrNotFound)
}
