package domain

import (
	"strings"
	"time"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// Length limits for user credentials.
const (
	UsernameMinLength = 3
	UsernameMaxLength = 50
	PasswordMinLength = 6
	// PasswordMaxLength is bcrypt's input limit in bytes.
	PasswordMaxLength = 72
)

var fieldValidator = validator.New()

// User represents a registered account. Todos are owned by exactly one user.
type User struct {
	ID       uuid.UUID `json:"id"`
	Username string    `json:"username"`
	Email    string    `json:"email"`
	// Password holds the plaintext only between request decoding and hashing.
	Password       string     `json:"-"`
	HashedPassword string     `json:"-"`
	FirstName      *string    `json:"firstName"`
	LastName       *string    `json:"lastName"`
	Avatar         *string    `json:"avatar"`
	IsActive       bool       `json:"isActive"`
	LastLoginAt    *time.Time `json:"lastLoginAt"`
	CreatedAt      time.Time  `json:"createdAt"`
	UpdatedAt      time.Time  `json:"updatedAt"`
}

// NewUser creates an active user with a fresh ID and timestamps.
// The plaintext password is kept on the struct and must be replaced with a
// hash (see SetPasswordHash) before the user is persisted.
func NewUser(username, email, password string) (*User, error) {
	now := time.Now().UTC()
	user := &User{
		ID:        uuid.New(),
		Username:  strings.TrimSpace(username),
		Email:     NormalizeEmail(email),
		Password:  password,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := user.Validate(); err != nil {
		return nil, err
	}

	return user, nil
}

// NormalizeEmail trims and lower-cases an email address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// SetPasswordHash stores a password hash and discards the plaintext.
func (u *User) SetPasswordHash(hash string) {
	u.HashedPassword = hash
	u.Password = ""
}

// Validate checks every user field and reports all failures at once.
func (u *User) Validate() error {
	verr := &ValidationError{}

	if u.ID == uuid.Nil {
		verr.Add("id", "cannot be empty")
	}

	validateUsername(verr, u.Username)
	validateEmail(verr, u.Email)

	if u.Password != "" {
		if err := ValidatePassword(u.Password); err != nil {
			verr.Add("password", passwordMessage(u.Password))
		}
	} else if u.HashedPassword == "" {
		verr.Add("password", "cannot be empty")
	}

	return verr.ErrOrNil()
}

// ValidateEmail checks a single email address.
func ValidateEmail(email string) error {
	verr := &ValidationError{}
	validateEmail(verr, email)
	return verr.ErrOrNil()
}

// ValidatePassword checks the length rules for a plaintext password.
func ValidatePassword(password string) error {
	n := len(password)
	if n < PasswordMinLength || n > PasswordMaxLength {
		return NewValidationError("password", passwordMessage(password), nil)
	}
	return nil
}

func passwordMessage(password string) string {
	if password == "" {
		return "cannot be empty"
	}
	if len(password) < PasswordMinLength {
		return "must be at least 6 characters long"
	}
	return "must be at most 72 characters long"
}

func validateUsername(verr *ValidationError, username string) {
	n := utf8.RuneCountInString(username)
	switch {
	case n == 0:
		verr.Add("username", "cannot be empty")
	case n < UsernameMinLength || n > UsernameMaxLength:
		verr.Add("username", "must be between 3 and 50 characters")
	case strings.Contains(username, "@"):
		// Logins accept a username or an email; "@" marks the latter.
		verr.Add("username", "cannot contain @")
	}
}

func validateEmail(verr *ValidationError, email string) {
	if email == "" {
		verr.Add("email", "cannot be empty")
		return
	}
	if err := fieldValidator.Var(email, "email"); err != nil {
		verr.Add("email", "must be a valid email address")
	}
}

// ProfilePatch describes a partial profile update. Optional fields may be
// cleared with null; Email can only be replaced.
type ProfilePatch struct {
	FirstName Optional[string]
	LastName  Optional[string]
	Avatar    Optional[string]
	Email     *string
}

// Empty reports whether the patch changes nothing.
func (p ProfilePatch) Empty() bool {
	return !p.FirstName.Set && !p.LastName.Set && !p.Avatar.Set && p.Email == nil
}

// ApplyProfile copies the fields present in p onto u and bumps UpdatedAt.
func (u *User) ApplyProfile(p ProfilePatch) {
	if p.FirstName.Set {
		u.FirstName = p.FirstName.Value
	}
	if p.LastName.Set {
		u.LastName = p.LastName.Value
	}
	if p.Avatar.Set {
		u.Avatar = p.Avatar.Value
	}
	if p.Email != nil {
		u.Email = NormalizeEmail(*p.Email)
	}
	u.UpdatedAt = time.Now().UTC()
}
