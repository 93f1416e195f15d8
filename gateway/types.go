package gateway

import (
	"strings"
	"time"

	"github.com/jrsteele09/go-blog-auth/credential"
)

type LoginCredentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type RegistrationData struct {
	Email       string `json:"email"`
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	PhoneNumber string `json:"phone_number"`
	Password1   string `json:"password1"`
	Password2   string `json:"password2"`
}

type PasswordChange struct {
	NewPassword1 string `json:"new_password1"`
	NewPassword2 string `json:"new_password2"`
}

type PasswordResetConfirm struct {
	NewPassword1 string `json:"new_password1"`
	NewPassword2 string `json:"new_password2"`
	UID          string `json:"uid"`
	Token        string `json:"token"`
}

type emailRequest struct {
	Email string `json:"email"`
}

type googleLoginRequest struct {
	AccessToken string `json:"access_token"`
}

type githubLoginRequest struct {
	Code string `json:"code"`
}

type logoutRequest struct {
	Refresh string `json:"refresh,omitempty"`
}

type verifyEmailRequest struct {
	Key string `json:"key"`
}

// tokenResponse accepts the simplejwt ({access, refresh}), dj-rest-auth token ({key})
// and OAuth style ({access_token, refresh_token}) login payloads.
type tokenResponse struct {
	Access       string `json:"access"`
	Refresh      string `json:"refresh"`
	Key          string `json:"key"`
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

func (r tokenResponse) token(now time.Time) credential.Token {
	access := firstNonEmpty(r.Access, r.AccessToken, r.Key)
	refresh := firstNonEmpty(r.Refresh, r.RefreshToken)
	return credential.Token{Access: access, Refresh: refresh, SavedAt: now}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
