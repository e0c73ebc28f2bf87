package server

import (
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	nb "github.com/panyam/nodebird"
)

const (
	flashLoginError = "loginError"
	flashJoinError  = "joinError"
	flashPostError  = "postError"

	msgEmailTaken = "Email is already registered"
)

func (a *App) handleJoin(w http.ResponseWriter, r *http.Request) error {
	ctx := r.Context()
	creds := &nb.Credentials{
		Email:    r.FormValue("email"),
		Nick:     r.FormValue("nick"),
		Password: r.FormValue("password"),
	}
	_, err := a.join(ctx, creds)
	switch {
	case errors.Is(err, nb.ErrEmailTaken):
		a.sessions.Flash(ctx, flashJoinError, msgEmailTaken)
		http.Redirect(w, r, "/join", http.StatusFound)
		return nil
	case errors.Is(err, nb.ErrInvalidCredentials):
		a.sessions.Flash(ctx, flashJoinError, err.Error())
		http.Redirect(w, r, "/join", http.StatusFound)
		return nil
	case err != nil:
		return err
	}
	http.Redirect(w, r, "/", http.StatusFound)
	return nil
}

func (a *App) handleLogin(w http.ResponseWriter, r *http.Request) error {
	return a.finishLogin(w, r, a.registry.Authenticate(nb.ProviderLocal, r))
}

// finishLogin acts on the outcome of any strategy: a logged in session on
// success, a flash message on failure and the error page otherwise.
func (a *App) finishLogin(w http.ResponseWriter, r *http.Request, outcome nb.AuthOutcome) error {
	ctx := r.Context()
	switch outcome.Kind {
	case nb.OutcomeSuccess:
		if err := a.sessions.Login(ctx, outcome.User); err != nil {
			return err
		}
		a.logger.Info("logged in", "userId", outcome.User.ID, "provider", outcome.User.Provider)
	case nb.OutcomeFailure:
		a.sessions.Flash(ctx, flashLoginError, outcome.Reason)
	default:
		return outcome.Err
	}
	http.Redirect(w, r, "/", http.StatusFound)
	return nil
}

func (a *App) handleLogout(w http.ResponseWriter, r *http.Request) error {
	if err := a.sessions.Logout(r.Context()); err != nil {
		return err
	}
	http.Redirect(w, r, "/", http.StatusFound)
	return nil
}

// oauthStrategy finds the provider named in the path.  The local strategy
// and unknown names are not routes.
func (a *App) oauthStrategy(r *http.Request) (nb.Strategy, error) {
	name := mux.Vars(r)["provider"]
	s, ok := a.registry.Get(name)
	if !ok || name == nb.ProviderLocal {
		return nil, nb.NotFound()
	}
	return s, nil
}

func (a *App) handleOAuthBegin(w http.ResponseWriter, r *http.Request) error {
	s, err := a.oauthStrategy(r)
	if err != nil {
		return err
	}
	starter, ok := s.(nb.Initiator)
	if !ok {
		return nb.NotFound()
	}
	starter.Begin(w, r)
	return nil
}

func (a *App) handleOAuthCallback(w http.ResponseWriter, r *http.Request) error {
	s, err := a.oauthStrategy(r)
	if err != nil {
		return err
	}
	outcome := s.Authenticate(r)
	if f, ok := s.(nb.Finisher); ok {
		f.Finish(w)
	}
	return a.finishLogin(w, r, outcome)
}
