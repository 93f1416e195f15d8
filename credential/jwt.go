package credential

import (
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
)

// ExpiresAt reads the exp claim of a JWT access token without verifying it.
// Opaque tokens (dj-rest-auth "key") report false.
func ExpiresAt(access string) (time.Time, bool) {
	claims := jwtlib.RegisteredClaims{}
	if _, _, err := jwtlib.NewParser().ParseUnverified(access, &claims); err != nil {
		return time.Time{}, false
	}
	if claims.ExpiresAt == nil {
		return time.Time{}, false
	}
	return claims.ExpiresAt.Time, true
}

// Expired reports whether access is a JWT whose exp is not after now.
func Expired(access string, now time.Time) bool {
	exp, ok := ExpiresAt(access)
	return ok && !now.Before(exp)
}
