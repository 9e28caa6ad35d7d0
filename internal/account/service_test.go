package account

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/ArnavJain-cy/sih-app/internal/auth"
	"github.com/ArnavJain-cy/sih-app/internal/domain/user"
	"github.com/ArnavJain-cy/sih-app/internal/repo/memory"
	"github.com/ArnavJain-cy/sih-app/internal/security"
	"golang.org/x/crypto/bcrypt"
)

const testSecret = "test-secret"

var fixedNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func newTestService(t *testing.T, store UserStore) (*Service, *auth.Manager) {
	t.Helper()

	tokens := auth.NewManager(testSecret).WithClock(func() time.Time { return fixedNow })
	log := slog.New(slog.NewTextHandler(io.Discard, nil))

	svc := NewService(store, tokens, security.NewPasswordHasher(bcrypt.MinCost), log, Options{})
	svc.now = func() time.Time { return fixedNow }
	return svc, tokens
}

func newMemoryStore() *memory.UsersRepo {
	return memory.NewUsersRepo(security.NewPasswordHasher(bcrypt.MinCost))
}

func requireKind(t *testing.T, err error, want Kind, wantMsg string) {
	t.Helper()

	if err == nil {
		t.Fatalf("expected %s error, got nil", want)
	}
	if got := KindOf(err); got != want {
		t.Fatalf("kind = %s, want %s (err=%v)", got, want, err)
	}
	if wantMsg != "" {
		if got := MessageOf(err, ""); got != wantMsg {
			t.Fatalf("message = %q, want %q", got, wantMsg)
		}
	}
}

// errStore fails every call with err, or returns found for lookups when set.
type errStore struct {
	err       error
	found     *user.User
	createErr error
	updates   int
}

func (s *errStore) FindByEmailOrUsername(context.Context, string, string) (user.User, error) {
	if s.found != nil {
		return *s.found, nil
	}
	return user.User{}, s.err
}

func (s *errStore) FindByEmail(context.Context, string) (user.User, error) {
	if s.found != nil {
		return *s.found, nil
	}
	return user.User{}, s.err
}

func (s *errStore) FindByID(context.Context, string) (user.User, error) {
	return user.User{}, s.err
}

func (s *errStore) Create(context.Context, user.NewUser) (user.User, error) {
	if s.createErr != nil {
		return user.User{}, s.createErr
	}
	return user.User{}, s.err
}

func (s *errStore) Update(context.Context, string, user.Patch) (user.User, error) {
	s.updates++
	return user.User{}, s.err
}

func TestSignup_Success(t *testing.T) {
	svc, tokens := newTestService(t, newMemoryStore())

	res, err := svc.Signup(context.Background(), SignupInput{Username: " alice ", Email: "Alice@X.com", Password: "secret1"})
	if err != nil {
		t.Fatalf("Signup: %v", err)
	}

	if res.User.ID == "" || res.User.Username != "alice" || res.User.Email != "alice@x.com" {
		t.Fatalf("unexpected user: %+v", res.User)
	}
	if res.User.PasswordHash == "secret1" {
		t.Fatal("password stored in plaintext")
	}

	claims, err := tokens.Verify(res.Token)
	if err != nil {
		t.Fatalf("token should verify: %v", err)
	}
	if claims.UserID != res.User.ID || claims.IsGuest {
		t.Fatalf("unexpected claims: %+v", claims)
	}
	if got := claims.ExpiresAt.Sub(fixedNow); got != auth.UserTokenTTL {
		t.Fatalf("ttl = %v, want %v", got, auth.UserTokenTTL)
	}
}

func TestSignup_ValidationOrder(t *testing.T) {
	store := newMemoryStore()
	svc, _ := newTestService(t, store)
	ctx := context.Background()

	if _, err := svc.Signup(ctx, SignupInput{Username: "taken", Email: "taken@x.com", Password: "secret1"}); err != nil {
		t.Fatalf("seed signup: %v", err)
	}

	tests := []struct {
		name string
		in   SignupInput
		kind Kind
		msg  string
	}{
		{"missing username", SignupInput{Email: "a@x.com", Password: "secret1"}, KindValidation, MsgSignupMissing},
		{"blank username", SignupInput{Username: "   ", Email: "a@x.com", Password: "secret1"}, KindValidation, MsgSignupMissing},
		{"missing password", SignupInput{Username: "bob", Email: "a@x.com"}, KindValidation, MsgSignupMissing},
		// a short password wins over a duplicate account
		{"short password beats conflict", SignupInput{Username: "taken", Email: "taken@x.com", Password: "12345"}, KindValidation, MsgPasswordTooShort},
		{"username too short", SignupInput{Username: "ab", Email: "b@x.com", Password: "secret1"}, KindValidation, MsgUsernameLength},
		{"username too long", SignupInput{Username: strings.Repeat("a", 31), Email: "b@x.com", Password: "secret1"}, KindValidation, MsgUsernameLength},
		{"duplicate email", SignupInput{Username: "other", Email: "TAKEN@x.com", Password: "secret1"}, KindConflict, MsgUserExists},
		{"duplicate username", SignupInput{Username: "taken", Email: "new@x.com", Password: "secret1"}, KindConflict, MsgUserExists},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Signup(ctx, tt.in)
			requireKind(t, err, tt.kind, tt.msg)
		})
	}
}

func TestSignup_PasswordBoundary(t *testing.T) {
	svc, _ := newTestService(t, newMemoryStore())

	ctx := context.Background()

	// six runes, more than six bytes
	if _, err := svc.Signup(ctx, SignupInput{Username: "carol", Email: "c@x.com", Password: "pässwö"}); err != nil {
		t.Fatalf("six character password should pass: %v", err)
	}

	// five runes, six UTF-16 units
	if _, err := svc.Signup(ctx, SignupInput{Username: "carl", Email: "carl@x.com", Password: "abcd\U0001F600"}); err != nil {
		t.Fatalf("surrogate pair should count as two characters: %v", err)
	}

	_, err := svc.Signup(ctx, SignupInput{Username: "cora", Email: "cora@x.com", Password: "abc\U0001F600"})
	requireKind(t, err, KindValidation, MsgPasswordTooShort)
}

func TestSignup_LongPassword(t *testing.T) {
	svc, _ := newTestService(t, newMemoryStore())
	ctx := context.Background()
	long := strings.Repeat("a", 80)

	if _, err := svc.Signup(ctx, SignupInput{Username: "alice", Email: "a@x.com", Password: long}); err != nil {
		t.Fatalf("80 byte password should sign up: %v", err)
	}

	if _, err := svc.Login(ctx, LoginInput{Email: "a@x.com", Password: long}); err != nil {
		t.Fatalf("login with the same long password: %v", err)
	}
}

func TestSignup_CreateRaceMapsToConflict(t *testing.T) {
	store := &errStore{err: user.ErrNotFound, createErr: user.ErrDuplicateKey}
	svc, _ := newTestService(t, store)

	_, err := svc.Signup(context.Background(), SignupInput{Username: "dave", Email: "d@x.com", Password: "secret1"})
	requireKind(t, err, KindConflict, MsgUserExists)
}

func TestSignup_StoreFailureIsInternal(t *testing.T) {
	store := &errStore{err: errors.New("connection reset")}
	svc, _ := newTestService(t, store)

	_, err := svc.Signup(context.Background(), SignupInput{Username: "erin", Email: "e@x.com", Password: "secret1"})
	requireKind(t, err, KindInternal, "Internal server error during signup")
}

func TestLogin(t *testing.T) {
	store := newMemoryStore()
	svc, tokens := newTestService(t, store)
	ctx := context.Background()

	signed, err := svc.Signup(ctx, SignupInput{Username: "alice", Email: "alice@x.com", Password: "secret1"})
	if err != nil {
		t.Fatalf("Signup: %v", err)
	}
	if signed.User.LastLogin != nil {
		t.Fatal("lastLogin should be unset before first login")
	}

	t.Run("success updates last login", func(t *testing.T) {
		res, err := svc.Login(ctx, LoginInput{Email: " ALICE@x.com", Password: "secret1"})
		if err != nil {
			t.Fatalf("Login: %v", err)
		}
		if res.User.LastLogin == nil || !res.User.LastLogin.Equal(fixedNow) {
			t.Fatalf("lastLogin = %v, want %v", res.User.LastLogin, fixedNow)
		}
		claims, err := tokens.Verify(res.Token)
		if err != nil || claims.UserID != signed.User.ID {
			t.Fatalf("bad token: %v %+v", err, claims)
		}

		stored, err := store.FindByID(ctx, signed.User.ID)
		if err != nil || stored.LastLogin == nil {
			t.Fatalf("lastLogin not persisted: %v", err)
		}
	})

	t.Run("unknown email and wrong password look the same", func(t *testing.T) {
		_, errUnknown := svc.Login(ctx, LoginInput{Email: "nobody@x.com", Password: "secret1"})
		_, errWrong := svc.Login(ctx, LoginInput{Email: "alice@x.com", Password: "wrong-pass"})

		requireKind(t, errUnknown, KindUnauthenticated, MsgInvalidCredentials)
		requireKind(t, errWrong, KindUnauthenticated, MsgInvalidCredentials)
	})

	t.Run("missing fields", func(t *testing.T) {
		_, err := svc.Login(ctx, LoginInput{Email: "alice@x.com"})
		requireKind(t, err, KindValidation, MsgLoginMissing)
	})
}

func TestLogin_FailedPasswordDoesNotTouchStore(t *testing.T) {
	hasher := security.NewPasswordHasher(bcrypt.MinCost)
	hash, err := hasher.Hash("secret1")
	if err != nil {
		t.Fatal(err)
	}
	store := &errStore{found: &user.User{ID: "u1", Email: "a@x.com", PasswordHash: hash}}
	svc, _ := newTestService(t, store)

	_, err = svc.Login(context.Background(), LoginInput{Email: "a@x.com", Password: "nope-nope"})
	requireKind(t, err, KindUnauthenticated, MsgInvalidCredentials)

	if store.updates != 0 {
		t.Fatalf("store updated %d times on failed login", store.updates)
	}
}

func TestGuestLogin(t *testing.T) {
	store := &errStore{err: errors.New("store must not be called")}
	svc, tokens := newTestService(t, store)

	res, err := svc.GuestLogin(context.Background())
	if err != nil {
		t.Fatalf("GuestLogin: %v", err)
	}

	wantID := "guest_1772366400000"
	if res.User.ID != wantID {
		t.Fatalf("guest id = %q, want %q", res.User.ID, wantID)
	}
	if res.User.Username != GuestUsername || res.User.Email != DefaultGuestEmail || !res.User.IsGuest {
		t.Fatalf("unexpected guest: %+v", res.User)
	}

	claims, err := tokens.Verify(res.Token)
	if err != nil {
		t.Fatalf("guest token should verify: %v", err)
	}
	if !claims.IsGuest || claims.UserID != wantID {
		t.Fatalf("unexpected claims: %+v", claims)
	}
	if got := claims.ExpiresAt.Sub(fixedNow); got != auth.GuestTokenTTL {
		t.Fatalf("guest ttl = %v", got)
	}
}

func TestProfile_GetAndUpdate(t *testing.T) {
	store := newMemoryStore()
	svc, _ := newTestService(t, store)
	ctx := context.Background()

	signed, err := svc.Signup(ctx, SignupInput{Username: "alice", Email: "alice@x.com", Password: "secret1"})
	if err != nil {
		t.Fatal(err)
	}
	id := auth.Identity{UserID: signed.User.ID, Username: "alice", Email: "alice@x.com"}

	got, err := svc.GetProfile(ctx, id)
	if err != nil {
		t.Fatalf("GetProfile: %v", err)
	}
	if got.Progress.Points != 0 || len(got.Profile.Skills) != 0 {
		t.Fatalf("fresh user should have empty records: %+v", got)
	}

	_, err = svc.UpdateProfile(ctx, id, ProfileUpdate{
		Profile: &user.Profile{FirstName: "Alice", Skills: []string{"go", "sql"}},
	})
	if err != nil {
		t.Fatalf("UpdateProfile: %v", err)
	}

	// second update replaces the profile as a whole
	updated, err := svc.UpdateProfile(ctx, id, ProfileUpdate{
		Profile:  &user.Profile{Bio: "hi"},
		Progress: &user.Progress{Points: 40, Badges: []string{"starter"}},
	})
	if err != nil {
		t.Fatalf("UpdateProfile: %v", err)
	}
	if updated.Profile.FirstName != "" || len(updated.Profile.Skills) != 0 || updated.Profile.Bio != "hi" {
		t.Fatalf("profile should be replaced wholesale: %+v", updated.Profile)
	}
	if updated.Progress.Points != 40 {
		t.Fatalf("points = %d", updated.Progress.Points)
	}

	// omitting progress leaves it unchanged
	again, err := svc.UpdateProfile(ctx, id, ProfileUpdate{Profile: &user.Profile{Bio: "again"}})
	if err != nil {
		t.Fatal(err)
	}
	if again.Progress.Points != 40 || len(again.Progress.Badges) != 1 {
		t.Fatalf("progress should be untouched: %+v", again.Progress)
	}
}

func TestProfile_Errors(t *testing.T) {
	svc, _ := newTestService(t, newMemoryStore())
	ctx := context.Background()

	guest := auth.Identity{UserID: "guest_1", IsGuest: true}
	_, err := svc.GetProfile(ctx, guest)
	requireKind(t, err, KindNotFound, MsgUserNotFound)

	_, err = svc.UpdateProfile(ctx, guest, ProfileUpdate{Profile: &user.Profile{}})
	requireKind(t, err, KindNotFound, MsgUserNotFound)

	missing := auth.Identity{UserID: "does-not-exist"}
	_, err = svc.GetProfile(ctx, missing)
	requireKind(t, err, KindNotFound, MsgUserNotFound)

	_, err = svc.UpdateProfile(ctx, missing, ProfileUpdate{Progress: &user.Progress{Points: -1}})
	requireKind(t, err, KindValidation, MsgNegativePoints)
}

func TestProfile_StoreFailureIsInternal(t *testing.T) {
	svc, _ := newTestService(t, &errStore{err: errors.New("boom")})

	_, err := svc.GetProfile(context.Background(), auth.Identity{UserID: "u1"})
	requireKind(t, err, KindInternal, "Internal server error")
}
