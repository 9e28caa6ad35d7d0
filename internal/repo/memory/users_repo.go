package memory

import (
	"context"
	"sync"
	"time"

	"github.com/ArnavJain-cy/sih-app/internal/domain/user"
	"github.com/google/uuid"
)

// UsersRepo keeps users in process memory. Username and email indexes are
// checked and written under one lock, so concurrent signups for the same key
// resolve to exactly one winner.
type UsersRepo struct {
	mu         sync.RWMutex
	items      map[string]user.User
	byUsername map[string]string
	byEmail    map[string]string

	hasher user.Hasher
	now    func() time.Time
}

func NewUsersRepo(hasher user.Hasher) *UsersRepo {
	return &UsersRepo{
		items:      make(map[string]user.User),
		byUsername: make(map[string]string),
		byEmail:    make(map[string]string),
		hasher:     hasher,
		now:        time.Now,
	}
}

func (r *UsersRepo) FindByEmailOrUsername(_ context.Context, email, username string) (user.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if id, ok := r.byEmail[user.NormalizeEmail(email)]; ok {
		return r.items[id], nil
	}
	if id, ok := r.byUsername[user.NormalizeUsername(username)]; ok {
		return r.items[id], nil
	}
	return user.User{}, user.ErrNotFound
}

func (r *UsersRepo) FindByEmail(_ context.Context, email string) (user.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byEmail[user.NormalizeEmail(email)]
	if !ok {
		return user.User{}, user.ErrNotFound
	}
	return r.items[id], nil
}

func (r *UsersRepo) FindByID(_ context.Context, id string) (user.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.items[id]
	if !ok {
		return user.User{}, user.ErrNotFound
	}
	return u, nil
}

func (r *UsersRepo) Create(_ context.Context, in user.NewUser) (user.User, error) {
	// hash outside the lock, bcrypt is slow
	u, err := user.NewRecord(in, r.hasher, r.now())
	if err != nil {
		return user.User{}, err
	}
	u.ID = uuid.NewString()

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, taken := r.byUsername[u.Username]; taken {
		return user.User{}, user.ErrDuplicateKey
	}
	if _, taken := r.byEmail[u.Email]; taken {
		return user.User{}, user.ErrDuplicateKey
	}

	r.items[u.ID] = u
	r.byUsername[u.Username] = u.ID
	r.byEmail[u.Email] = u.ID

	return u, nil
}

func (r *UsersRepo) Update(_ context.Context, id string, patch user.Patch) (user.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.items[id]
	if !ok {
		return user.User{}, user.ErrNotFound
	}

	u = u.Apply(patch)
	r.items[id] = u

	return u, nil
}

func (r *UsersRepo) Ping(context.Context) error {
	return nil
}
