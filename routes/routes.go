// Package routes names the client-visible pages and decides which of them a
// visitor may see for the current auth status.
package routes

import (
	"net/url"
	"strings"
)

const (
	Home           = "/"
	Login          = "/login"
	Profile        = "/profile"
	ChangePassword = "/change-password"
	PostCreate     = "/posts/create"
	PostEdit       = "/posts/{id}/edit"
)

// Decision is the guard's verdict for a navigation.
type Decision struct {
	Wait     bool   // auth status not resolved yet, render nothing
	Redirect string // non-empty: navigate here instead
}

// Allowed reports whether the page may render as requested.
func (d Decision) Allowed() bool {
	return !d.Wait && d.Redirect == ""
}

// Guard decides whether path may render. resolved is false while the session is
// still initialising.
func Guard(path string, resolved, authenticated bool) Decision {
	if !resolved {
		return Decision{Wait: true}
	}

	path = Clean(path)
	switch {
	case !authenticated && Protected(path):
		return Decision{Redirect: Login}
	case authenticated && path == Login:
		return Decision{Redirect: Home}
	}
	return Decision{}
}

// Protected reports whether path requires a signed in user.
func Protected(path string) bool {
	path = Clean(path)
	switch path {
	case Profile, ChangePassword, PostCreate:
		return true
	}
	return matchPostEdit(path)
}

// Clean drops the query, fragment and trailing slashes of path.
func Clean(path string) string {
	if u, err := url.Parse(path); err == nil {
		path = u.Path
	} else if i := strings.IndexAny(path, "?#"); i >= 0 {
		path = path[:i]
	}
	path = strings.TrimRight(path, "/")
	if path == "" {
		return Home
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return path
}

// PostEditPath fills PostEdit for id.
func PostEditPath(id string) string {
	return "/posts/" + url.PathEscape(id) + "/edit"
}

func matchPostEdit(path string) bool {
	parts := strings.Split(strings.TrimPrefix(path, "/"), "/")
	return len(parts) == 3 && parts[0] == "posts" && parts[1] != "" && parts[2] == "edit"
}
