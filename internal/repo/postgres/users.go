package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ArnavJain-cy/sih-app/internal/domain/user"
	"github.com/ArnavJain-cy/sih-app/internal/observability"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const userColumns = `id, username, email, password_hash, created_at, last_login, profile, progress`

type UsersRepo struct {
	pool   *pgxpool.Pool
	hasher user.Hasher
	prom   *observability.Prom
	now    func() time.Time
}

func NewUsersRepo(pool *pgxpool.Pool, hasher user.Hasher, prom *observability.Prom) *UsersRepo {
	return &UsersRepo{pool: pool, hasher: hasher, prom: prom, now: time.Now}
}

func (r *UsersRepo) observe(op string, fn func() error) error {
	if r.prom != nil {
		return r.prom.ObserveDB(op, fn)
	}
	return fn()
}

func IsUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError

	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return true
	}
	return false
}

func (r *UsersRepo) FindByEmailOrUsername(ctx context.Context, email, username string) (user.User, error) {
	return r.queryOne(ctx, "users.find_by_email_or_username",
		`SELECT `+userColumns+` FROM users WHERE email = $1 OR username = $2 LIMIT 1`,
		user.NormalizeEmail(email), user.NormalizeUsername(username),
	)
}

func (r *UsersRepo) FindByEmail(ctx context.Context, email string) (user.User, error) {
	return r.queryOne(ctx, "users.find_by_email",
		`SELECT `+userColumns+` FROM users WHERE email = $1`,
		user.NormalizeEmail(email),
	)
}

func (r *UsersRepo) FindByID(ctx context.Context, id string) (user.User, error) {
	return r.queryOne(ctx, "users.find_by_id",
		`SELECT `+userColumns+` FROM users WHERE id = $1`,
		id,
	)
}

func (r *UsersRepo) Create(ctx context.Context, in user.NewUser) (user.User, error) {
	u, err := user.NewRecord(in, r.hasher, r.now())
	if err != nil {
		return user.User{}, err
	}
	u.ID = uuid.NewString()

	err = r.observe("users.create", func() error {
		_, err := r.pool.Exec(ctx,
			`INSERT INTO users (`+userColumns+`)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
			u.ID, u.Username, u.Email, u.PasswordHash, u.CreatedAt, u.LastLogin, u.Profile, u.Progress,
		)
		return err
	})
	if err != nil {
		if IsUniqueViolation(err) {
			return user.User{}, user.ErrDuplicateKey
		}
		return user.User{}, fmt.Errorf("insert user: %w", err)
	}

	return u, nil
}

// Update writes only the non-nil parts of the patch. profile and progress are
// JSONB columns replaced as whole values.
func (r *UsersRepo) Update(ctx context.Context, id string, patch user.Patch) (user.User, error) {
	var profile *user.Profile
	if patch.Profile != nil {
		p := patch.Profile.Normalized()
		profile = &p
	}

	var progress *user.Progress
	if patch.Progress != nil {
		p := patch.Progress.Normalized()
		progress = &p
	}

	return r.queryOne(ctx, "users.update",
		`UPDATE users
		SET last_login = COALESCE($2, last_login),
		    profile = COALESCE($3, profile),
		    progress = COALESCE($4, progress)
		WHERE id = $1
		RETURNING `+userColumns,
		id, patch.LastLogin, profile, progress,
	)
}

func (r *UsersRepo) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}

func (r *UsersRepo) queryOne(ctx context.Context, op, sql string, args ...any) (user.User, error) {
	var u user.User

	err := r.observe(op, func() error {
		return r.pool.QueryRow(ctx, sql, args...).Scan(
			&u.ID,
			&u.Username,
			&u.Email,
			&u.PasswordHash,
			&u.CreatedAt,
			&u.LastLogin,
			&u.Profile,
			&u.Progress,
		)
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return user.User{}, user.ErrNotFound
		}
		return user.User{}, fmt.Errorf("%s: %w", op, err)
	}

	u.CreatedAt = u.CreatedAt.UTC()
	u.Profile = u.Profile.Normalized()
	u.Progress = u.Progress.Normalized()

	return u, nil
}
