package nodebird

import (
	"context"
	"net/http"
	"sort"
	"sync"
)

// Strategy is a pluggable way of authenticating the visitor behind a request,
// eg checking a local password or completing an OAuth code exchange.
type Strategy interface {
	// Name is the key the strategy is registered under, eg "local" or "kakao"
	Name() string

	// Authenticate inspects the request and reports who (if anyone) it belongs to
	Authenticate(r *http.Request) AuthOutcome
}

// Initiator is implemented by strategies that first have to send the browser
// somewhere else, like the OAuth providers.
type Initiator interface {
	Begin(w http.ResponseWriter, r *http.Request)
}

// Finisher is implemented by strategies that leave per-attempt state in the
// browser (eg an OAuth state cookie).  Finish is called once the attempt is
// over, whatever its outcome.
type Finisher interface {
	Finish(w http.ResponseWriter)
}

// Registry holds the configured strategies and maps users to and from the
// compact value kept in the session (the user id).
type Registry struct {
	Users UserStore

	mu         sync.RWMutex
	strategies map[string]Strategy
}

func NewRegistry(users UserStore) *Registry {
	return &Registry{Users: users, strategies: make(map[string]Strategy)}
}

// Register adds or replaces a strategy under its Name
func (r *Registry) Register(s Strategy) *Registry {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.strategies[s.Name()] = s
	return r
}

func (r *Registry) Get(name string) (Strategy, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.strategies[name]
	return s, ok
}

// Names returns the registered strategy names in sorted order
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.strategies))
	for name := range r.strategies {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Authenticate runs the named strategy.  An unknown name is an internal error.
func (r *Registry) Authenticate(name string, req *http.Request) AuthOutcome {
	s, ok := r.Get(name)
	if !ok {
		return InternalError(&UnknownStrategyError{Name: name})
	}
	return s.Authenticate(req)
}

// Serialize returns what is kept in the session for a logged in user
func (r *Registry) Serialize(user *User) string {
	return user.ID
}

// Deserialize loads the user a session value refers to.  It returns
// ErrUserNotFound if the user no longer exists.
func (r *Registry) Deserialize(ctx context.Context, id string) (*User, error) {
	if id == "" {
		return nil, ErrUserNotFound
	}
	return r.Users.GetUserByID(ctx, id)
}

type UnknownStrategyError struct {
	Name string
}

func (e *UnknownStrategyError) Error() string {
	return "unknown authentication strategy: " + e.Name
}
