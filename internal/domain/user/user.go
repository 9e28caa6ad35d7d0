package user

import (
	"errors"
	"strings"
	"time"
	"unicode/utf16"
)

const (
	MinUsernameLen = 3
	MaxUsernameLen = 30
	MinPasswordLen = 6
)

var (
	ErrNotFound     = errors.New("user not found")
	ErrDuplicateKey = errors.New("username or email already exists")
)

type User struct {
	ID           string     `json:"id"`
	Username     string     `json:"username"`
	Email        string     `json:"email"`
	PasswordHash string     `json:"-"` // never expose hash in JSON
	CreatedAt    time.Time  `json:"createdAt"`
	LastLogin    *time.Time `json:"lastLogin"`
	Profile      Profile    `json:"profile"`
	Progress     Progress   `json:"progress"`
}

type Profile struct {
	FirstName   string   `json:"firstName,omitempty"`
	LastName    string   `json:"lastName,omitempty"`
	Bio         string   `json:"bio,omitempty"`
	Skills      []string `json:"skills"`
	Interests   []string `json:"interests"`
	CareerGoals string   `json:"careerGoals,omitempty"`
}

type Progress struct {
	CompletedAssessments []string `json:"completedAssessments"`
	CurrentCourses       []string `json:"currentCourses"`
	CompletedCourses     []string `json:"completedCourses"`
	Badges               []string `json:"badges"`
	Points               int      `json:"points"`
}

// NewUser is the signup input handed to a store. Password is plaintext; stores
// turn it into a record through NewRecord.
type NewUser struct {
	Username string
	Email    string
	Password string
}

// Patch describes a partial update. Nil fields are left untouched; a non-nil
// Profile or Progress replaces the stored sub-record as a whole.
type Patch struct {
	LastLogin *time.Time
	Profile   *Profile
	Progress  *Progress
}

func (p Patch) Empty() bool {
	return p.LastLogin == nil && p.Profile == nil && p.Progress == nil
}

type Hasher interface {
	Hash(plain string) (string, error)
}

// NewRecord normalizes the identity fields and hashes the password. It is the
// only way a store builds a record, so nothing durable ever holds plaintext.
func NewRecord(in NewUser, hasher Hasher, now time.Time) (User, error) {
	hash, err := hasher.Hash(in.Password)
	if err != nil {
		return User{}, err
	}

	return User{
		Username:     NormalizeUsername(in.Username),
		Email:        NormalizeEmail(in.Email),
		PasswordHash: hash,
		CreatedAt:    now.UTC(),
		Profile:      Profile{}.Normalized(),
		Progress:     Progress{}.Normalized(),
	}, nil
}

// Apply returns a copy of u with the patch applied.
func (u User) Apply(p Patch) User {
	if p.LastLogin != nil {
		t := p.LastLogin.UTC()
		u.LastLogin = &t
	}
	if p.Profile != nil {
		u.Profile = p.Profile.Normalized()
	}
	if p.Progress != nil {
		u.Progress = p.Progress.Normalized()
	}
	return u
}

func NormalizeUsername(s string) string {
	return strings.TrimSpace(s)
}

func NormalizeEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// PasswordLength counts UTF-16 code units, so a character outside the BMP
// counts as two.
func PasswordLength(p string) int {
	return len(utf16.Encode([]rune(p)))
}

// Normalized returns the profile with its set-valued fields deduplicated and
// never nil, so they serialize as [] rather than null.
func (p Profile) Normalized() Profile {
	p.Skills = uniq(p.Skills)
	p.Interests = uniq(p.Interests)
	return p
}

func (p Progress) Normalized() Progress {
	p.CompletedAssessments = uniq(p.CompletedAssessments)
	p.CurrentCourses = uniq(p.CurrentCourses)
	p.CompletedCourses = uniq(p.CompletedCourses)
	p.Badges = uniq(p.Badges)
	return p
}

// uniq keeps first occurrences in order.
func uniq(in []string) []string {
	out := make([]string, 0, len(in))
	seen := make(map[string]struct{}, len(in))

	for _, s := range in {
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}
