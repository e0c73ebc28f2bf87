package server_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	nb "github.com/panyam/nodebird"
	"github.com/panyam/nodebird/config"
	"github.com/panyam/nodebird/server"
	gormstore "github.com/panyam/nodebird/stores/gorm"
	"github.com/panyam/nodebird/uploads"
)

type testEnv struct {
	server *httptest.Server
	users  nb.UserStore
	posts  nb.PostStore
}

// newTestEnv starts the app over an in-memory database.  mutate can swap
// collaborators before the app is built.
func newTestEnv(t *testing.T, mutate func(*server.Options)) *testEnv {
	t.Helper()
	db, err := gormstore.OpenInMemory()
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})

	cfg := &config.Config{}
	cfg.LoadDefaults()
	cfg.BcryptCost = 4

	images, err := uploads.NewLocal(t.TempDir())
	require.NoError(t, err)

	opts := server.Options{
		Config:       cfg,
		Users:        gormstore.NewUserStore(db),
		Posts:        gormstore.NewPostStore(db),
		Sessions:     nb.NewSessions(nb.NewSessionManager(nb.SessionOptions{})),
		Hasher:       nb.BcryptHasher{Cost: 4},
		Uploads:      images,
		ImageHandler: images.Handler(),
		Logger:       slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	if mutate != nil {
		mutate(&opts)
	}

	app, err := server.New(opts)
	require.NoError(t, err)
	srv := httptest.NewServer(app.Handler())
	t.Cleanup(srv.Close)
	return &testEnv{server: srv, users: opts.Users, posts: opts.Posts}
}

// browser is a client with its own cookie jar that does not follow redirects
type browser struct {
	t      *testing.T
	base   string
	client *http.Client
}

func (e *testEnv) browser(t *testing.T) *browser {
	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	return &browser{
		t:    t,
		base: e.server.URL,
		client: &http.Client{
			Jar: jar,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
	}
}

type response struct {
	status   int
	location string
	header   http.Header
	body     string
}

func (b *browser) do(req *http.Request) response {
	b.t.Helper()
	resp, err := b.client.Do(req)
	require.NoError(b.t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(b.t, err)
	return response{
		status:   resp.StatusCode,
		location: resp.Header.Get("Location"),
		header:   resp.Header,
		body:     string(body),
	}
}

func (b *browser) get(path string) response {
	b.t.Helper()
	req, err := http.NewRequest(http.MethodGet, b.base+path, nil)
	require.NoError(b.t, err)
	return b.do(req)
}

func (b *browser) post(path string, form url.Values) response {
	b.t.Helper()
	req, err := http.NewRequest(http.MethodPost, b.base+path, strings.NewReader(form.Encode()))
	require.NoError(b.t, err)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return b.do(req)
}

func (b *browser) sessionCookie() string {
	u, _ := url.Parse(b.base)
	for _, c := range b.client.Jar.Cookies(u) {
		if c.Name == nb.DefaultSessionCookieName {
			return c.Value
		}
	}
	return ""
}

func joinForm(email, nick, password string) url.Values {
	return url.Values{"email": {email}, "nick": {nick}, "password": {password}}
}

func loginForm(email, password string) url.Values {
	return url.Values{"email": {email}, "password": {password}}
}

// signedIn joins and logs in a new user in a fresh browser
func (e *testEnv) signedIn(t *testing.T, email, nick string) (*browser, *nb.User) {
	t.Helper()
	b := e.browser(t)
	require.Equal(t, "/", b.post("/auth/join", joinForm(email, nick, "pw")).location)
	resp := b.post("/auth/login", loginForm(email, "pw"))
	require.Equal(t, http.StatusFound, resp.status)
	require.Equal(t, "/", resp.location)
	user, err := e.users.GetUserByEmail(context.Background(), email)
	require.NoError(t, err)
	return b, user
}

func TestJoin(t *testing.T) {
	env := newTestEnv(t, nil)
	b := env.browser(t)

	resp := b.post("/auth/join", joinForm("a@b.com", "A", "pw"))
	assert.Equal(t, http.StatusFound, resp.status)
	assert.Equal(t, "/", resp.location)

	user, err := env.users.GetUserByEmail(context.Background(), "a@b.com")
	require.NoError(t, err)
	assert.Equal(t, "A", user.Nick)
	assert.NotEqual(t, "pw", user.PasswordHash)

	// joining does not log in
	assert.Contains(t, b.get("/").body, `id="login-form"`)

	t.Run("duplicate email", func(t *testing.T) {
		resp := b.post("/auth/join", joinForm("a@b.com", "B", "other"))
		assert.Equal(t, "/join", resp.location)

		page := b.get("/join")
		assert.Contains(t, page.body, "Email is already registered")
		assert.NotContains(t, b.get("/join").body, "Email is already registered", "flash is shown once")

		again, err := env.users.GetUserByEmail(context.Background(), "a@b.com")
		require.NoError(t, err)
		assert.Equal(t, user.ID, again.ID)
		assert.Equal(t, "A", again.Nick)
	})

	t.Run("invalid form", func(t *testing.T) {
		resp := b.post("/auth/join", joinForm("not-an-email", "B", "pw"))
		assert.Equal(t, "/join", resp.location)
		assert.Contains(t, b.get("/join").body, "invalid email format")
	})
}

func TestLogin(t *testing.T) {
	env := newTestEnv(t, nil)
	b := env.browser(t)
	b.post("/auth/join", joinForm("a@b.com", "Alice", "pw"))

	t.Run("wrong password", func(t *testing.T) {
		before, err := env.users.GetUserByEmail(context.Background(), "a@b.com")
		require.NoError(t, err)

		resp := b.post("/auth/login", loginForm("a@b.com", "nope"))
		assert.Equal(t, http.StatusFound, resp.status)
		assert.Equal(t, "/", resp.location)

		// a failed login writes nothing to the user record
		after, err := env.users.GetUserByEmail(context.Background(), "a@b.com")
		require.NoError(t, err)
		assert.Equal(t, before.PasswordHash, after.PasswordHash)
		assert.True(t, before.UpdatedAt.Equal(after.UpdatedAt), "updated_at changed")

		page := b.get("/")
		assert.Contains(t, page.body, nb.ReasonPasswordMismatch)
		assert.Contains(t, page.body, `id="login-form"`)
		assert.NotContains(t, b.get("/").body, nb.ReasonPasswordMismatch)
	})

	t.Run("unknown email", func(t *testing.T) {
		b.post("/auth/login", loginForm("who@b.com", "pw"))
		assert.Contains(t, b.get("/").body, nb.ReasonNoSuchUser)
	})

	t.Run("success renews the session token", func(t *testing.T) {
		before := b.sessionCookie()
		require.NotEmpty(t, before)

		resp := b.post("/auth/login", loginForm("a@b.com", "pw"))
		assert.Equal(t, "/", resp.location)
		after := b.sessionCookie()
		assert.NotEmpty(t, after)
		assert.NotEqual(t, before, after)

		page := b.get("/")
		assert.Contains(t, page.body, "Hello, Alice")
		assert.NotContains(t, page.body, `id="login-form"`)
	})

	t.Run("anonymous-only routes redirect home", func(t *testing.T) {
		assert.Equal(t, "/", b.get("/join").location)
		assert.Equal(t, "/", b.post("/auth/login", loginForm("a@b.com", "pw")).location)
		assert.Equal(t, "/", b.post("/auth/join", joinForm("c@b.com", "C", "pw")).location)
		_, err := env.users.GetUserByEmail(context.Background(), "c@b.com")
		assert.ErrorIs(t, err, nb.ErrUserNotFound)
	})
}

func TestLogoutDestroysSession(t *testing.T) {
	env := newTestEnv(t, nil)
	b, _ := env.signedIn(t, "a@b.com", "A")
	token := b.sessionCookie()

	resp := b.get("/auth/logout")
	assert.Equal(t, http.StatusFound, resp.status)
	assert.Equal(t, "/", resp.location)
	assert.Contains(t, b.get("/").body, `id="login-form"`)
	assert.Equal(t, "/", b.get("/profile").location)

	// the old token no longer refers to a session
	stale := env.browser(t)
	req, err := http.NewRequest(http.MethodGet, env.server.URL+"/profile", nil)
	require.NoError(t, err)
	req.AddCookie(&http.Cookie{Name: nb.DefaultSessionCookieName, Value: token})
	assert.Equal(t, "/", stale.do(req).location)
}

func TestGuardsForAnonymousVisitors(t *testing.T) {
	env := newTestEnv(t, nil)
	b := env.browser(t)

	for _, path := range []string{"/auth/logout", "/profile"} {
		resp := b.get(path)
		assert.Equal(t, http.StatusFound, resp.status, path)
		assert.Equal(t, "/", resp.location, path)
	}
	resp := b.post("/post", url.Values{"content": {"hi"}})
	assert.Equal(t, "/", resp.location)
	resp = b.post("/user/someone/follow", nil)
	assert.Equal(t, "/", resp.location)

	// guards leave no flash behind
	assert.NotContains(t, b.get("/").body, "error-message")
}

func TestNotFound(t *testing.T) {
	env := newTestEnv(t, nil)
	b := env.browser(t)

	resp := b.get("/no/such/page")
	assert.Equal(t, http.StatusNotFound, resp.status)
	assert.Contains(t, resp.body, "Not Found")
	assert.Contains(t, resp.body, "error-detail")

	assert.Equal(t, http.StatusNotFound, b.get("/auth/twitter").status)
	assert.Equal(t, http.StatusNotFound, b.get("/auth/local").status)
	assert.Equal(t, http.StatusNotFound, b.post("/hashtag", nil).status)
}

// failingUsers is a user store whose email lookups fail
type failingUsers struct {
	nb.UserStore
}

func (f failingUsers) GetUserByEmail(ctx context.Context, email string) (*nb.User, error) {
	return nil, errors.New("database is down")
}

// panickingPosts is a post store that panics when listing
type panickingPosts struct {
	nb.PostStore
}

func (panickingPosts) ListPosts(ctx context.Context, limit int) ([]*nb.Post, error) {
	panic("boom")
}

func TestInfrastructureErrors(t *testing.T) {
	t.Run("development shows detail", func(t *testing.T) {
		env := newTestEnv(t, func(o *server.Options) {
			o.Users = failingUsers{o.Users}
		})
		b := env.browser(t)

		resp := b.post("/auth/join", joinForm("a@b.com", "A", "pw"))
		assert.Equal(t, http.StatusInternalServerError, resp.status)
		assert.Contains(t, resp.body, "database is down")
		assert.Contains(t, resp.body, "error-detail")

		// a store failure during login is not a login failure
		resp = b.post("/auth/login", loginForm("a@b.com", "pw"))
		assert.Equal(t, http.StatusInternalServerError, resp.status)
	})

	t.Run("production hides detail", func(t *testing.T) {
		env := newTestEnv(t, func(o *server.Options) {
			o.Config.Env = config.EnvProduction
			o.Users = failingUsers{o.Users}
		})
		resp := env.browser(t).post("/auth/join", joinForm("a@b.com", "A", "pw"))
		assert.Equal(t, http.StatusInternalServerError, resp.status)
		assert.Contains(t, resp.body, "database is down")
		assert.NotContains(t, resp.body, "error-detail")
	})

	t.Run("panics become 500", func(t *testing.T) {
		env := newTestEnv(t, func(o *server.Options) {
			o.Posts = panickingPosts{o.Posts}
		})
		resp := env.browser(t).get("/")
		assert.Equal(t, http.StatusInternalServerError, resp.status)
		assert.Contains(t, resp.body, "boom")
		assert.Contains(t, resp.body, "error-detail", "a panic is rendered like any other error")
		assert.Equal(t, "text/html; charset=utf-8", resp.header.Get("Content-Type"))
	})
}

func TestProductionMiddleware(t *testing.T) {
	env := newTestEnv(t, func(o *server.Options) {
		o.Config.Env = config.EnvProduction
	})
	b, user := env.signedIn(t, "a@b.com", "A")

	require.NoError(t, env.posts.CreatePost(context.Background(),
		&nb.Post{UserID: user.ID, Content: "about #go", Hashtags: []string{"go"}}))

	resp := b.get("/hashtag?hashtag=web&hashtag=go")
	assert.Equal(t, http.StatusOK, resp.status)
	assert.Contains(t, resp.body, "about #go", "the last value of a repeated parameter wins")
	assert.Equal(t, "SAMEORIGIN", resp.header.Get("X-Frame-Options"))
	assert.Equal(t, "nosniff", resp.header.Get("X-Content-Type-Options"))
	assert.NotEmpty(t, resp.header.Get("Content-Security-Policy"))
	assert.Equal(t, "no-referrer", resp.header.Get("Referrer-Policy"))
	assert.Equal(t, "0", resp.header.Get("X-XSS-Protection"))
	assert.Empty(t, resp.header.Get("Strict-Transport-Security"), "HSTS is only sent over https")

	req, err := http.NewRequest(http.MethodGet, env.server.URL+"/", nil)
	require.NoError(t, err)
	req.Header.Set("X-Forwarded-Proto", "https")
	resp = b.do(req)
	assert.Equal(t, http.StatusOK, resp.status)
	assert.Equal(t, "max-age=15552000; includeSubDomains", resp.header.Get("Strict-Transport-Security"))
}

func TestPosts(t *testing.T) {
	env := newTestEnv(t, nil)
	alice, aliceUser := env.signedIn(t, "a@b.com", "Alice")
	bob, _ := env.signedIn(t, "b@b.com", "Bob")
	ctx := context.Background()

	resp := alice.post("/post", url.Values{"content": {"hello #Go and #web"}})
	assert.Equal(t, "/", resp.location)

	page := bob.get("/")
	assert.Contains(t, page.body, "hello #Go and #web")
	assert.Contains(t, page.body, "/hashtag?hashtag=go")
	assert.Contains(t, page.body, "twit-follow", "bob can follow alice")

	assert.Contains(t, bob.get("/hashtag?hashtag=go").body, "hello #Go and #web")
	assert.NotContains(t, bob.get("/hashtag?hashtag=rust").body, "hello #Go and #web")
	assert.Equal(t, "/", bob.get("/hashtag").location)

	t.Run("validation failure flashes", func(t *testing.T) {
		resp := alice.post("/post", url.Values{"content": {strings.Repeat("x", nb.MaxPostLength+1)}})
		assert.Equal(t, "/", resp.location)
		assert.Contains(t, alice.get("/").body, "content must be at most 140 characters")

		resp = alice.post("/post", url.Values{
			"content": {"too long a link"},
			"url":     {"/img/" + strings.Repeat("a", nb.MaxImageURLLength)},
		})
		assert.Equal(t, "/", resp.location)
		assert.Contains(t, alice.get("/").body, "image url must be at most 200 characters")
	})

	posts, err := env.posts.ListPosts(ctx, 10)
	require.NoError(t, err)
	require.Len(t, posts, 1)
	post := posts[0]
	assert.Equal(t, aliceUser.ID, post.UserID)

	t.Run("only the author deletes", func(t *testing.T) {
		assert.Equal(t, http.StatusForbidden, bob.post("/post/"+post.ID+"/delete", nil).status)
		assert.Equal(t, http.StatusNotFound, alice.post("/post/nope/delete", nil).status)

		resp := alice.post("/post/"+post.ID+"/delete", nil)
		assert.Equal(t, "/", resp.location)
		_, err := env.posts.GetPost(ctx, post.ID)
		assert.ErrorIs(t, err, nb.ErrPostNotFound)
	})
}

func TestHashtagSearchIgnoresPunctuation(t *testing.T) {
	env := newTestEnv(t, nil)
	b, _ := env.signedIn(t, "a@b.com", "A")

	b.post("/post", url.Values{"content": {"learning #express, then #node."}})
	assert.Contains(t, b.get("/hashtag?hashtag=express").body, "learning #express, then #node.")
	assert.Contains(t, b.get("/hashtag?hashtag=node").body, "learning #express, then #node.")
}

var gif = []byte("GIF89a\x01\x00\x01\x00\x80\x00\x00\xff\xff\xff\x00\x00\x00!\xf9\x04\x01\x00\x00\x00\x00,\x00\x00\x00\x00\x01\x00\x01\x00\x00\x02\x02D\x01\x00;")

func uploadRequest(t *testing.T, base, filename string, data []byte) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile("img", filename)
	require.NoError(t, err)
	_, err = fw.Write(data)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req, err := http.NewRequest(http.MethodPost, base+"/post/img", &body)
	require.NoError(t, err)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func TestUploadImage(t *testing.T) {
	env := newTestEnv(t, nil)
	b, _ := env.signedIn(t, "a@b.com", "A")

	resp := b.do(uploadRequest(t, env.server.URL, "cat.gif", gif))
	require.Equal(t, http.StatusOK, resp.status)
	var out struct {
		URL string `json:"url"`
	}
	require.NoError(t, json.Unmarshal([]byte(resp.body), &out))
	assert.True(t, strings.HasPrefix(out.URL, "/img/"))

	served := b.get(out.URL)
	assert.Equal(t, http.StatusOK, served.status)
	assert.Equal(t, string(gif), served.body)

	resp = b.post("/post", url.Values{"content": {"with a picture"}, "url": {out.URL}})
	assert.Equal(t, "/", resp.location)
	assert.Contains(t, b.get("/").body, out.URL)

	notImage := b.do(uploadRequest(t, env.server.URL, "notes.png", []byte("plain text")))
	assert.Equal(t, http.StatusBadRequest, notImage.status)

	anon := env.browser(t)
	assert.Equal(t, "/", anon.do(uploadRequest(t, env.server.URL, "cat.gif", gif)).location)
}

func TestFollow(t *testing.T) {
	env := newTestEnv(t, nil)
	alice, aliceUser := env.signedIn(t, "a@b.com", "Alice")
	_, bobUser := env.signedIn(t, "b@b.com", "Bob")
	ctx := context.Background()

	resp := alice.post("/user/"+bobUser.ID+"/follow", nil)
	assert.Equal(t, http.StatusOK, resp.status)
	assert.Equal(t, "success", resp.body)

	followers, err := env.users.Followers(ctx, bobUser.ID)
	require.NoError(t, err)
	require.Len(t, followers, 1)
	assert.Equal(t, aliceUser.ID, followers[0].ID)

	profile := alice.get("/profile")
	assert.Equal(t, http.StatusOK, profile.status)
	assert.Contains(t, profile.body, "Bob")
	assert.Contains(t, profile.body, `class="count following-count">1<`)

	assert.Equal(t, http.StatusBadRequest, alice.post("/user/"+aliceUser.ID+"/follow", nil).status)
	assert.Equal(t, http.StatusNotFound, alice.post("/user/nobody/follow", nil).status)

	resp = alice.post("/user/"+bobUser.ID+"/unfollow", nil)
	assert.Equal(t, "success", resp.body)
	followings, err := env.users.Followings(ctx, aliceUser.ID)
	require.NoError(t, err)
	assert.Empty(t, followings)
}
