// Package server is the HTTP front door of nodebird: the route table, the
// middleware chain every request passes through, the page and form handlers,
// and the terminal error handler that answers every failed request.
package server

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	nb "github.com/panyam/nodebird"
	"github.com/panyam/nodebird/config"
	"github.com/panyam/nodebird/oauth2"
	"github.com/panyam/nodebird/uploads"
)

// TimelineLimit is how many posts the main and hashtag pages show
const TimelineLimit = 100

// Options are the collaborators of an App.  Config, Users, Posts and
// Sessions are required.
type Options struct {
	Config   *config.Config
	Users    nb.UserStore
	Posts    nb.PostStore
	Sessions *nb.Sessions
	Hasher   nb.Hasher

	// Uploads stores post images.  ImageHandler, if set, is mounted at /img/
	// to serve them.
	Uploads      uploads.Store
	ImageHandler http.Handler

	// Strategies are registered after the ones built from Config and replace
	// them by name.
	Strategies []nb.Strategy

	Logger *slog.Logger
}

// App holds everything needed to answer requests
type App struct {
	config   *config.Config
	users    nb.UserStore
	posts    nb.PostStore
	sessions *nb.Sessions
	registry *nb.Registry
	auth     *nb.Middleware
	join     nb.JoinFunc
	uploads  uploads.Store
	images   http.Handler
	views    *Views
	logger   *slog.Logger
}

func New(opts Options) (*App, error) {
	if opts.Config == nil || opts.Users == nil || opts.Posts == nil || opts.Sessions == nil {
		return nil, errors.New("server: Config, Users, Posts and Sessions are required")
	}
	hasher := opts.Hasher
	if hasher == nil {
		hasher = nb.BcryptHasher{Cost: opts.Config.BcryptCost}
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	views, err := LoadViews()
	if err != nil {
		return nil, err
	}

	a := &App{
		config:   opts.Config,
		users:    opts.Users,
		posts:    opts.Posts,
		sessions: opts.Sessions,
		join:     nb.NewJoinFunc(opts.Users, hasher),
		uploads:  opts.Uploads,
		images:   opts.ImageHandler,
		views:    views,
		logger:   logger,
	}

	a.registry = nb.NewRegistry(opts.Users)
	a.registry.Register(nb.NewLocalStrategy(opts.Users, hasher))
	for _, s := range a.oauthStrategies() {
		a.registry.Register(s)
	}
	for _, s := range opts.Strategies {
		a.registry.Register(s)
	}

	a.auth = &nb.Middleware{
		Sessions: a.sessions,
		Registry: a.registry,
		OnError:  a.HandleError,
	}
	// failures loading or saving the session end up on the error page too
	a.sessions.Manager.ErrorFunc = a.HandleError
	return a, nil
}

func (a *App) oauthStrategies() []nb.Strategy {
	cfg := a.config
	states := oauth2.NewStateSigner(cfg.CookieSecret)
	states.Secure = cfg.SecureCookie

	var out []nb.Strategy
	if c := cfg.Kakao; c.Enabled() {
		out = append(out, oauth2.NewKakaoOAuth2(c.ClientID, c.ClientSecret, c.CallbackURL, a.users, states))
	}
	if c := cfg.Google; c.Enabled() {
		out = append(out, oauth2.NewGoogleOAuth2(c.ClientID, c.ClientSecret, c.CallbackURL, a.users, states))
	}
	if c := cfg.Github; c.Enabled() {
		out = append(out, oauth2.NewGithubOAuth2(c.ClientID, c.ClientSecret, c.CallbackURL, a.users, states))
	}
	return out
}

// Registry returns the authentication strategies in use
func (a *App) Registry() *nb.Registry { return a.registry }

// Handler returns the route table wrapped in the middleware chain
func (a *App) Handler() http.Handler {
	r := mux.NewRouter()
	notFound := http.HandlerFunc(a.notFound)
	r.NotFoundHandler = notFound
	r.MethodNotAllowedHandler = notFound

	r.PathPrefix("/static/").Handler(staticHandler())
	if a.images != nil {
		r.PathPrefix("/img/").Handler(a.images)
	}

	anon, user := a.auth.EnsureAnonymous, a.auth.EnsureUser

	// pages
	r.Handle("/", a.handle(a.mainPage)).Methods(http.MethodGet)
	r.Handle("/join", anon(a.handle(a.joinPage))).Methods(http.MethodGet)
	r.Handle("/profile", user(a.handle(a.profilePage))).Methods(http.MethodGet)
	r.Handle("/hashtag", a.handle(a.hashtagPage)).Methods(http.MethodGet)

	// auth: logout is registered before the {provider} routes it would match
	r.Handle("/auth/join", anon(a.handle(a.handleJoin))).Methods(http.MethodPost)
	r.Handle("/auth/login", anon(a.handle(a.handleLogin))).Methods(http.MethodPost)
	r.Handle("/auth/logout", user(a.handle(a.handleLogout))).Methods(http.MethodGet)
	r.Handle("/auth/{provider}", a.handle(a.handleOAuthBegin)).Methods(http.MethodGet)
	r.Handle("/auth/{provider}/callback", a.handle(a.handleOAuthCallback)).Methods(http.MethodGet)

	// posts
	r.Handle("/post/img", user(a.handle(a.handleUploadImage))).Methods(http.MethodPost)
	r.Handle("/post", user(a.handle(a.handleCreatePost))).Methods(http.MethodPost)
	r.Handle("/post/{id}/delete", user(a.handle(a.handleDeletePost))).Methods(http.MethodPost)

	// follows
	r.Handle("/user/{id}/follow", user(a.handle(a.handleFollow))).Methods(http.MethodPost)
	r.Handle("/user/{id}/unfollow", user(a.handle(a.handleUnfollow))).Methods(http.MethodPost)

	var h http.Handler = a.auth.ExtractUser(r)
	h = a.sessions.LoadAndSave(h)
	if a.config.IsProduction() {
		h = PreventParamPollution(h)
		h = SecurityHeaders(h)
		h = ProxyHeaders(h)
	}
	h = RequestLogger(a.logger, a.config.IsProduction())(h)
	return a.Recoverer(h)
}

// appHandler is a handler whose errors go to the terminal error handler
type appHandler func(w http.ResponseWriter, r *http.Request) error

func (a *App) handle(h appHandler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := h(w, r); err != nil {
			a.HandleError(w, r, err)
		}
	})
}
