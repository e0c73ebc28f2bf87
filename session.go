package nodebird

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/alexedwards/scs/v2"
)

const (
	// DefaultSessionLifetime is how long a session lives without a logout
	DefaultSessionLifetime = 24 * time.Hour

	DefaultSessionCookieName = "nodebird_session"

	flashPrefix = "flash:"
)

// SessionOptions configures NewSessionManager
type SessionOptions struct {
	Lifetime   time.Duration
	CookieName string

	// Secure marks the cookie secure-only.  Off unless served over https.
	Secure bool

	// Store defaults to scs's in-memory store
	Store scs.Store
}

// NewSessionManager creates an scs session manager with an HttpOnly cookie
func NewSessionManager(opts SessionOptions) *scs.SessionManager {
	m := scs.New()
	m.Lifetime = opts.Lifetime
	if m.Lifetime <= 0 {
		m.Lifetime = DefaultSessionLifetime
	}
	m.Cookie.Name = opts.CookieName
	if m.Cookie.Name == "" {
		m.Cookie.Name = DefaultSessionCookieName
	}
	m.Cookie.HttpOnly = true
	m.Cookie.Secure = opts.Secure
	m.Cookie.SameSite = http.SameSiteLaxMode
	m.Cookie.Path = "/"
	if opts.Store != nil {
		m.Store = opts.Store
	}
	return m
}

// Sessions owns the server side session state: which user is logged in and
// the one-shot flash messages.
type Sessions struct {
	Manager *scs.SessionManager

	// Name of the session variable where the logged in user id is stored
	UserParamName string
}

func NewSessions(m *scs.SessionManager) *Sessions {
	return &Sessions{Manager: m, UserParamName: "loggedInUserId"}
}

// LoadAndSave attaches the session to every request passing through it
func (s *Sessions) LoadAndSave(next http.Handler) http.Handler {
	return s.Manager.LoadAndSave(next)
}

// Login associates the session with user.  The session token is renewed so a
// token seen before login cannot be used afterwards.
func (s *Sessions) Login(ctx context.Context, user *User) error {
	if err := s.Manager.RenewToken(ctx); err != nil {
		return err
	}
	s.Manager.Put(ctx, s.UserParamName, user.ID)
	return nil
}

// Logout destroys the whole session record, not only the logged in user
func (s *Sessions) Logout(ctx context.Context) error {
	if err := s.Manager.Destroy(ctx); err != nil {
		slog.Warn("error destroying session", "err", err)
		return err
	}
	return nil
}

// LoggedInUserID returns "" for anonymous sessions
func (s *Sessions) LoggedInUserID(ctx context.Context) string {
	return s.Manager.GetString(ctx, s.UserParamName)
}

// Flash stores a message to be shown by the next page that asks for key
func (s *Sessions) Flash(ctx context.Context, key, message string) {
	s.Manager.Put(ctx, flashPrefix+key, message)
}

// TakeFlash reads and removes the flash message under key
func (s *Sessions) TakeFlash(ctx context.Context, key string) string {
	return s.Manager.PopString(ctx, flashPrefix+key)
}
