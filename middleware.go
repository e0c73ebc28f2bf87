package nodebird

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
)

type userContextKey struct{}

// ErrorHandlerFunc answers a request that failed with err
type ErrorHandlerFunc func(w http.ResponseWriter, r *http.Request, err error)

// Middleware attaches the logged in user to requests and guards routes on
// whether a user is logged in.
type Middleware struct {
	Sessions *Sessions
	Registry *Registry

	// Where anonymous visitors are sent by EnsureUser.  The login form is on the home page.
	LoginURL string

	// Where logged in visitors are sent by EnsureAnonymous
	HomeURL string

	// Called when the user cannot be loaded for reasons other than not existing
	OnError ErrorHandlerFunc
}

// EnsureReasonableDefaults fills in unset fields
func (a *Middleware) EnsureReasonableDefaults() {
	if a.LoginURL == "" {
		a.LoginURL = "/"
	}
	if a.HomeURL == "" {
		a.HomeURL = "/"
	}
	if a.OnError == nil {
		a.OnError = func(w http.ResponseWriter, r *http.Request, err error) {
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		}
	}
}

// UserFromContext returns the user ExtractUser attached, or nil
func UserFromContext(ctx context.Context) *User {
	u, _ := ctx.Value(userContextKey{}).(*User)
	return u
}

// WithUser returns a context carrying user
func WithUser(ctx context.Context, user *User) context.Context {
	return context.WithValue(ctx, userContextKey{}, user)
}

// CurrentUser returns the logged in user of the request, or nil
func CurrentUser(r *http.Request) *User {
	return UserFromContext(r.Context())
}

/**
 * Fetches the user id from the session, loads the user and makes it
 * available to handlers further down via CurrentUser.
 *
 * Note this does not perform any redirects if a valid user does not exist.
 * Use EnsureUser or EnsureAnonymous to guard routes.
 */
func (a *Middleware) ExtractUser(next http.Handler) http.Handler {
	a.EnsureReasonableDefaults()
	return http.HandlerFunc(
		func(w http.ResponseWriter, r *http.Request) {
			userID := a.Sessions.LoggedInUserID(r.Context())
			if userID == "" {
				next.ServeHTTP(w, r)
				return
			}
			user, err := a.Registry.Deserialize(r.Context(), userID)
			if errors.Is(err, ErrUserNotFound) {
				// stale session pointing at a user that is gone
				slog.Warn("session refers to unknown user", "userId", userID)
				next.ServeHTTP(w, r)
				return
			}
			if err != nil {
				a.OnError(w, r, err)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), user)))
		},
	)
}

// EnsureUser only lets requests of logged in users through
func (a *Middleware) EnsureUser(next http.Handler) http.Handler {
	a.EnsureReasonableDefaults()
	return http.HandlerFunc(
		func(w http.ResponseWriter, r *http.Request) {
			if CurrentUser(r) == nil {
				http.Redirect(w, r, a.LoginURL, http.StatusFound)
				return
			}
			next.ServeHTTP(w, r)
		},
	)
}

// EnsureAnonymous only lets requests of visitors who are not logged in through
func (a *Middleware) EnsureAnonymous(next http.Handler) http.Handler {
	a.EnsureReasonableDefaults()
	return http.HandlerFunc(
		func(w http.ResponseWriter, r *http.Request) {
			if CurrentUser(r) != nil {
				http.Redirect(w, r, a.HomeURL, http.StatusFound)
				return
			}
			next.ServeHTTP(w, r)
		},
	)
}
