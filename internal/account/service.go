package account

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/ArnavJain-cy/sih-app/internal/auth"
	"github.com/ArnavJain-cy/sih-app/internal/domain/user"
	"github.com/go-playground/validator/v10"
)

const (
	MsgSignupMissing       = "Username, email, and password are required"
	MsgPasswordTooShort    = "Password must be at least 6 characters long"
	MsgUsernameLength      = "Username must be between 3 and 30 characters"
	MsgUserExists          = "User with this email or username already exists"
	MsgLoginMissing        = "Email and password are required"
	MsgInvalidCredentials  = "Invalid email or password"
	MsgUserNotFound        = "User not found"
	MsgNegativePoints      = "Progress points must be non-negative"
	GuestUsername          = "Guest User"
	DefaultGuestEmail      = "guest@evolvia.com"
	guestIDPrefix          = "guest_"
	dummyPasswordForTiming = "timing-equalizer"
)

// UserStore is the credential store contract. Lookups return user.ErrNotFound
// when nothing matches; Create reports user.ErrDuplicateKey on a uniqueness
// violation and hashes the plaintext in NewUser before writing.
type UserStore interface {
	FindByEmailOrUsername(ctx context.Context, email, username string) (user.User, error)
	FindByEmail(ctx context.Context, email string) (user.User, error)
	FindByID(ctx context.Context, id string) (user.User, error)
	Create(ctx context.Context, in user.NewUser) (user.User, error)
	Update(ctx context.Context, id string, patch user.Patch) (user.User, error)
}

type TokenIssuer interface {
	Issue(id auth.Identity, ttl time.Duration) (string, error)
}

type PasswordHasher interface {
	Hash(plain string) (string, error)
	Verify(plain, hash string) bool
}

type Options struct {
	UserTTL    time.Duration
	GuestTTL   time.Duration
	GuestEmail string
}

type Service struct {
	users     UserStore
	tokens    TokenIssuer
	passwords PasswordHasher
	log       *slog.Logger
	opts      Options
	validate  *validator.Validate
	now       func() time.Time

	dummyOnce sync.Once
	dummyHash string
}

func NewService(users UserStore, tokens TokenIssuer, passwords PasswordHasher, log *slog.Logger, opts Options) *Service {
	if opts.UserTTL <= 0 {
		opts.UserTTL = auth.UserTokenTTL
	}
	if opts.GuestTTL <= 0 {
		opts.GuestTTL = auth.GuestTokenTTL
	}
	if opts.GuestEmail == "" {
		opts.GuestEmail = DefaultGuestEmail
	}
	if log == nil {
		log = slog.Default()
	}

	return &Service{
		users:     users,
		tokens:    tokens,
		passwords: passwords,
		log:       log,
		opts:      opts,
		validate:  validator.New(),
		now:       time.Now,
	}
}

type SignupInput struct {
	Username string
	Email    string
	Password string
}

type LoginInput struct {
	Email    string
	Password string
}

type AuthResult struct {
	User  user.User
	Token string
}

type GuestUser struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	IsGuest  bool   `json:"isGuest"`
}

type GuestResult struct {
	User  GuestUser
	Token string
}

type ProfileUpdate struct {
	Profile  *user.Profile
	Progress *user.Progress
}

// Signup checks, in order: presence of all fields, password length, username
// length, then uniqueness. The first failing check decides the error.
func (s *Service) Signup(ctx context.Context, in SignupInput) (AuthResult, error) {
	username := user.NormalizeUsername(in.Username)
	email := user.NormalizeEmail(in.Email)

	if username == "" || email == "" || in.Password == "" {
		return AuthResult{}, Validation(MsgSignupMissing)
	}

	if user.PasswordLength(in.Password) < user.MinPasswordLen {
		return AuthResult{}, Validation(MsgPasswordTooShort)
	}

	if err := s.validate.Var(username, "min=3,max=30"); err != nil {
		return AuthResult{}, Validation(MsgUsernameLength)
	}

	_, err := s.users.FindByEmailOrUsername(ctx, email, username)
	switch {
	case err == nil:
		return AuthResult{}, NewError(KindConflict, MsgUserExists, nil)
	case !errors.Is(err, user.ErrNotFound):
		return AuthResult{}, s.internal(ctx, "signup", "lookup", err)
	}

	created, err := s.users.Create(ctx, user.NewUser{
		Username: username,
		Email:    email,
		Password: in.Password,
	})
	if err != nil {
		// lost a race with a concurrent signup
		if errors.Is(err, user.ErrDuplicateKey) {
			return AuthResult{}, NewError(KindConflict, MsgUserExists, err)
		}
		return AuthResult{}, s.internal(ctx, "signup", "create", err)
	}

	token, err := s.tokens.Issue(identityOf(created), s.opts.UserTTL)
	if err != nil {
		return AuthResult{}, s.internal(ctx, "signup", "issue_token", err)
	}

	s.log.InfoContext(ctx, "user signed up", "user_id", created.ID)

	return AuthResult{User: created, Token: token}, nil
}

// Login answers every credential failure with the same message so callers
// cannot tell an unknown email from a wrong password.
func (s *Service) Login(ctx context.Context, in LoginInput) (AuthResult, error) {
	email := user.NormalizeEmail(in.Email)

	if email == "" || in.Password == "" {
		return AuthResult{}, Validation(MsgLoginMissing)
	}

	found, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			// spend the same bcrypt time as a real comparison
			s.passwords.Verify(in.Password, s.timingHash())
			return AuthResult{}, NewError(KindUnauthenticated, MsgInvalidCredentials, nil)
		}
		return AuthResult{}, s.internal(ctx, "login", "lookup", err)
	}

	if !s.passwords.Verify(in.Password, found.PasswordHash) {
		return AuthResult{}, NewError(KindUnauthenticated, MsgInvalidCredentials, nil)
	}

	now := s.now().UTC()
	updated, err := s.users.Update(ctx, found.ID, user.Patch{LastLogin: &now})
	if err != nil {
		return AuthResult{}, s.internal(ctx, "login", "touch_last_login", err)
	}

	token, err := s.tokens.Issue(identityOf(updated), s.opts.UserTTL)
	if err != nil {
		return AuthResult{}, s.internal(ctx, "login", "issue_token", err)
	}

	return AuthResult{User: updated, Token: token}, nil
}

// GuestLogin never touches the store.
func (s *Service) GuestLogin(ctx context.Context) (GuestResult, error) {
	g := GuestUser{
		ID:       guestIDPrefix + strconv.FormatInt(s.now().UnixMilli(), 10),
		Username: GuestUsername,
		Email:    s.opts.GuestEmail,
		IsGuest:  true,
	}

	token, err := s.tokens.Issue(auth.Identity{
		UserID:   g.ID,
		Username: g.Username,
		Email:    g.Email,
		IsGuest:  true,
	}, s.opts.GuestTTL)
	if err != nil {
		return GuestResult{}, s.internal(ctx, "guest_login", "issue_token", err)
	}

	return GuestResult{User: g, Token: token}, nil
}

func (s *Service) GetProfile(ctx context.Context, id auth.Identity) (user.User, error) {
	if isGuest(id) {
		return user.User{}, NewError(KindNotFound, MsgUserNotFound, nil)
	}

	u, err := s.users.FindByID(ctx, id.UserID)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return user.User{}, NewError(KindNotFound, MsgUserNotFound, err)
		}
		return user.User{}, s.internal(ctx, "get_profile", "lookup", err)
	}
	return u, nil
}

// UpdateProfile replaces each supplied sub-record as a whole.
func (s *Service) UpdateProfile(ctx context.Context, id auth.Identity, in ProfileUpdate) (user.User, error) {
	if isGuest(id) {
		return user.User{}, NewError(KindNotFound, MsgUserNotFound, nil)
	}

	if in.Progress != nil && in.Progress.Points < 0 {
		return user.User{}, Validation(MsgNegativePoints)
	}

	u, err := s.users.Update(ctx, id.UserID, user.Patch{
		Profile:  in.Profile,
		Progress: in.Progress,
	})
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return user.User{}, NewError(KindNotFound, MsgUserNotFound, err)
		}
		return user.User{}, s.internal(ctx, "update_profile", "update", err)
	}
	return u, nil
}

func (s *Service) internal(ctx context.Context, op, step string, err error) error {
	s.log.ErrorContext(ctx, "account operation failed", "op", op, "step", step, "err", err)

	switch op {
	case "signup", "login", "guest_login":
		return Internal("Internal server error during "+strings.ReplaceAll(op, "_", " "), err)
	default:
		return Internal("Internal server error", err)
	}
}

func (s *Service) timingHash() string {
	s.dummyOnce.Do(func() {
		h, err := s.passwords.Hash(dummyPasswordForTiming)
		if err == nil {
			s.dummyHash = h
		}
	})
	return s.dummyHash
}

func identityOf(u user.User) auth.Identity {
	return auth.Identity{UserID: u.ID, Username: u.Username, Email: u.Email}
}

func isGuest(id auth.Identity) bool {
	return id.IsGuest || strings.HasPrefix(id.UserID, guestIDPrefix)
}
