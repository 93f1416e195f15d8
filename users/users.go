package users

import (
	"errors"
	"strings"
	"time"
	"unicode"

	"golang.org/x/crypto/bcrypt"
)

// Role is the backend's three letter role code
type Role string

const (
	RoleAuthor    Role = "AUH"
	RoleModerator Role = "MOD"
	RoleAdmin     Role = "ADM"
	RoleCustomer  Role = "CUS" // default for new accounts
)

// Label returns the display name of the role.
func (r Role) Label() string {
	switch r {
	case RoleAuthor:
		return "Author"
	case RoleModerator:
		return "Moderator"
	case RoleAdmin:
		return "Administrator"
	case RoleCustomer:
		return "Customer"
	}
	return string(r)
}

// CanModerate reports whether the role may moderate other users' posts and comments.
func (r Role) CanModerate() bool {
	return r == RoleModerator || r == RoleAdmin
}

// Profile is the nested profile record of a user. Nullable backend fields are pointers.
type Profile struct {
	Photo           *string    `json:"photo,omitempty"`
	BackgroundImage *string    `json:"background_image,omitempty"`
	Bio             string     `json:"bio,omitempty"`
	DateOfBirth     *string    `json:"date_of_birth,omitempty"` // YYYY-MM-DD
	Location        *string    `json:"location,omitempty"`
	Signature       *string    `json:"signature,omitempty"`
	Website         *string    `json:"website,omitempty"`
	LinkedIn        *string    `json:"linkedin,omitempty"`
	Twitter         *string    `json:"twitter,omitempty"`
	ArticleCount    int        `json:"article_count,omitempty"`
	CommentCount    int        `json:"comment_count,omitempty"`
	UpdatedAt       *time.Time `json:"updated_at,omitempty"`
}

// Identity is the authenticated user as returned by GET /auth/user/
type Identity struct {
	Email        string     `json:"email"`
	FirstName    string     `json:"first_name"`
	LastName     string     `json:"last_name"`
	PhoneNumber  string     `json:"phone_number"`
	Role         Role       `json:"role"`
	Profile      *Profile   `json:"profile,omitempty"`
	DateJoined   *time.Time `json:"date_joined,omitempty"`
	LastActivity *time.Time `json:"last_activity,omitempty"`
}

func (i *Identity) FullName() string {
	return strings.TrimSpace(i.FirstName + " " + i.LastName)
}

// ProfileUpdate is the body of PATCH/PUT /auth/user/. Nil fields are left untouched by PATCH.
type ProfileUpdate struct {
	FirstName   *string        `json:"first_name,omitempty"`
	LastName    *string        `json:"last_name,omitempty"`
	Email       *string        `json:"email,omitempty"`
	PhoneNumber *string        `json:"phone_number,omitempty"`
	Profile     *ProfileFields `json:"profile,omitempty"`
}

// ProfileFields are the writable profile fields.
type ProfileFields struct {
	Bio         *string `json:"bio,omitempty"`
	DateOfBirth *string `json:"date_of_birth,omitempty"`
	Location    *string `json:"location,omitempty"`
	Signature   *string `json:"signature,omitempty"`
	Website     *string `json:"website,omitempty"`
	LinkedIn    *string `json:"linkedin,omitempty"`
	Twitter     *string `json:"twitter,omitempty"`
}

// Empty reports whether the update changes nothing.
func (u ProfileUpdate) Empty() bool {
	return u.FirstName == nil && u.LastName == nil && u.Email == nil && u.PhoneNumber == nil && u.Profile == nil
}

// Account is a stored user record, only used by the in-memory backend.
type Account struct {
	ID           string
	PasswordHash string
	Verified     bool
	Identity     Identity
}

// ValidatePasswordStrength mirrors the backend's password validators:
// - At least 8 characters long
// - Not entirely numeric
// - Not the email address
func ValidatePasswordStrength(password, email string) error {
	if len(password) < 8 {
		return errors.New("This password is too short. It must contain at least 8 characters.")
	}

	numeric := true
	for _, char := range password {
		if !unicode.IsDigit(char) {
			numeric = false
			break
		}
	}
	if numeric {
		return errors.New("This password is entirely numeric.")
	}

	if email != "" && strings.EqualFold(password, email) {
		return errors.New("The password is too similar to the email address.")
	}

	return nil
}

func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	return string(bytes), err
}

func CheckPasswordHash(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}
