package oauth2

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	DefaultStateCookieName = "oauthstate"
	DefaultStateTTL        = 10 * time.Minute
)

var (
	ErrMissingState  = errors.New("oauth state cookie is missing")
	ErrStateMismatch = errors.New("oauth state does not match")
)

// StateSigner issues the random "state" parameter of an authorization
// request and remembers it in a cookie signed with Secret, so the callback
// can check that it answers a request this server started.
type StateSigner struct {
	Secret     []byte
	CookieName string
	TTL        time.Duration
	Secure     bool
}

func NewStateSigner(secret string) *StateSigner {
	return &StateSigner{Secret: []byte(secret)}
}

func (s *StateSigner) cookieName() string {
	if s.CookieName == "" {
		return DefaultStateCookieName
	}
	return s.CookieName
}

func (s *StateSigner) ttl() time.Duration {
	if s.TTL <= 0 {
		return DefaultStateTTL
	}
	return s.TTL
}

func generateState() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.URLEncoding.EncodeToString(b), nil
}

// Issue creates a new state for provider, sets the signed state cookie and
// returns the state to send to the provider.
func (s *StateSigner) Issue(w http.ResponseWriter, provider string) (string, error) {
	state, err := generateState()
	if err != nil {
		return "", fmt.Errorf("generating oauth state: %w", err)
	}

	now := time.Now()
	expiry := s.ttl()
	claims := jwt.MapClaims{
		"sub":   provider,
		"state": state,
		"iat":   now.Unix(),
		"exp":   now.Add(expiry).Unix(),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.Secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign oauth state: %w", err)
	}

	http.SetCookie(w, &http.Cookie{
		Name:     s.cookieName(),
		Value:    signed,
		Path:     "/",
		MaxAge:   int(expiry.Seconds()),
		HttpOnly: true,
		Secure:   s.Secure,
		SameSite: http.SameSiteLaxMode,
	})
	return state, nil
}

// Verify checks the state returned to the callback of provider against the
// signed state cookie.
func (s *StateSigner) Verify(r *http.Request, provider string) error {
	cookie, err := r.Cookie(s.cookieName())
	if err != nil || cookie.Value == "" {
		return ErrMissingState
	}

	token, err := jwt.Parse(cookie.Value, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.Secret, nil
	})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrStateMismatch, err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return ErrStateMismatch
	}
	if sub, _ := claims["sub"].(string); sub != provider {
		return ErrStateMismatch
	}
	state, _ := claims["state"].(string)
	if state == "" || state != r.FormValue("state") {
		return ErrStateMismatch
	}
	return nil
}

// Clear expires the state cookie
func (s *StateSigner) Clear(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     s.cookieName(),
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   s.Secure,
	})
}
