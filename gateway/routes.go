package gateway

import "net/url"

// Backend auth endpoint paths, relative to the API base URL.
// Trailing slashes follow the backend's URL patterns exactly.
const (
	// Credential exchange
	RouteLogin        = "/auth/login/"
	RouteRegistration = "/auth/registration/"
	RouteLogout       = "/auth/logout/"
	RouteLoginGoogle  = "/auth/login-google/"
	RouteLoginGithub  = "/auth/login-github/"

	// Current user
	RouteUser = "/auth/user/"

	// Password management
	RouteChangePassword       = "/auth/change-password"
	RouteResetPassword        = "/auth/reset-password/"
	RouteConfirmResetPassword = "/auth/confirm-reset-password/"

	// Email verification
	RouteConfirmEmail = "/account-confirm-email/{key}/"
	RouteResendEmail  = "/resend-email/"
)

// ConfirmEmailPath fills RouteConfirmEmail for key.
func ConfirmEmailPath(key string) string {
	return "/account-confirm-email/" + url.PathEscape(key) + "/"
}
