package oauth2

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"

	"golang.org/x/oauth2"

	nb "github.com/panyam/nodebird"
)

// Reasons reported when a provider login fails
const (
	ReasonDenied         = "login was cancelled"
	ReasonInvalidState   = "login request expired, please try again"
	ReasonMissingCode    = "provider did not return an authorization code"
	ReasonExchangeFailed = "could not complete login with the provider"
	ReasonNoProfile      = "could not read your profile from the provider"
)

// ProfileFunc turns a provider's user info response into a profile
type ProfileFunc func(userInfo map[string]any) (nb.OAuthProfile, error)

// BaseOAuth2 is an authorization code flow against one provider.  It is an
// nb.Strategy: Begin sends the browser to the provider and Authenticate
// handles the callback, finding or creating the local user.
type BaseOAuth2 struct {
	Provider     string
	ClientId     string
	ClientSecret string
	CallbackURL  string

	// UserInfoURL is fetched with the access token once the code is exchanged
	UserInfoURL  string
	ParseProfile ProfileFunc

	Users  nb.UserStore
	States *StateSigner

	// HTTPClient, if set, is used for the token exchange and user info calls
	HTTPClient *http.Client

	oauthConfig oauth2.Config
}

func NewBaseOAuth2(provider string, clientId string, clientSecret string, callbackUrl string, users nb.UserStore, states *StateSigner) *BaseOAuth2 {
	return &BaseOAuth2{
		Provider:     provider,
		ClientId:     clientId,
		ClientSecret: clientSecret,
		CallbackURL:  callbackUrl,
		Users:        users,
		States:       states,
		oauthConfig: oauth2.Config{
			ClientID:     clientId,
			ClientSecret: clientSecret,
			RedirectURL:  callbackUrl,
		},
	}
}

func (b *BaseOAuth2) Name() string { return b.Provider }

// Config exposes the underlying oauth2 config, eg to point it at another endpoint
func (b *BaseOAuth2) Config() *oauth2.Config { return &b.oauthConfig }

func (b *BaseOAuth2) SetHTTPClient(client *http.Client) {
	b.HTTPClient = client
}

func (b *BaseOAuth2) getHTTPClient() *http.Client {
	if b.HTTPClient != nil {
		return b.HTTPClient
	}
	return http.DefaultClient
}

// ExchangeContext carries the injected HTTP client into the oauth2 library
func (b *BaseOAuth2) ExchangeContext(ctx context.Context) context.Context {
	if b.HTTPClient != nil {
		return context.WithValue(ctx, oauth2.HTTPClient, b.HTTPClient)
	}
	return ctx
}

// configFor returns the oauth2 config for one request.  A relative
// CallbackURL, eg "/auth/kakao/callback", is resolved against the scheme and
// host the request came in on; providers only accept absolute redirect URIs.
func (b *BaseOAuth2) configFor(r *http.Request) *oauth2.Config {
	cfg := b.oauthConfig
	if cfg.RedirectURL == "" {
		return &cfg
	}
	callback, err := url.Parse(cfg.RedirectURL)
	if err != nil || callback.IsAbs() {
		return &cfg
	}
	scheme := "http"
	if r.TLS != nil || r.URL.Scheme == "https" {
		scheme = "https"
	}
	origin := &url.URL{Scheme: scheme, Host: r.Host}
	cfg.RedirectURL = origin.ResolveReference(callback).String()
	return &cfg
}

// Begin redirects the browser to the provider's consent page
func (b *BaseOAuth2) Begin(w http.ResponseWriter, r *http.Request) {
	state, err := b.States.Issue(w, b.Provider)
	if err != nil {
		slog.Error("could not issue oauth state", "provider", b.Provider, "err", err)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	http.Redirect(w, r, b.configFor(r).AuthCodeURL(state), http.StatusFound)
}

// Finish drops the state cookie of this attempt
func (b *BaseOAuth2) Finish(w http.ResponseWriter) {
	b.States.Clear(w)
}

// Authenticate handles the provider's redirect back to CallbackURL
func (b *BaseOAuth2) Authenticate(r *http.Request) nb.AuthOutcome {
	if providerErr := r.FormValue("error"); providerErr != "" {
		slog.Info("provider refused login", "provider", b.Provider, "error", providerErr,
			"description", r.FormValue("error_description"))
		return nb.Failure(ReasonDenied)
	}
	if err := b.States.Verify(r, b.Provider); err != nil {
		slog.Info("invalid oauth state", "provider", b.Provider, "err", err)
		return nb.Failure(ReasonInvalidState)
	}
	code := r.FormValue("code")
	if code == "" {
		return nb.Failure(ReasonMissingCode)
	}

	ctx := r.Context()
	token, err := b.configFor(r).Exchange(b.ExchangeContext(ctx), code)
	if err != nil {
		slog.Warn("invalid code exchange", "provider", b.Provider, "err", err)
		return nb.Failure(ReasonExchangeFailed)
	}

	userInfo, err := b.getUserData(ctx, token)
	if err != nil {
		slog.Warn("error fetching user info", "provider", b.Provider, "err", err)
		return nb.Failure(ReasonNoProfile)
	}
	profile, err := b.ParseProfile(userInfo)
	if err != nil {
		slog.Warn("unusable user info", "provider", b.Provider, "err", err)
		return nb.Failure(ReasonNoProfile)
	}
	profile.Provider = b.Provider
	return nb.EnsureOAuthUser(ctx, b.Users, profile)
}

func (b *BaseOAuth2) getUserData(ctx context.Context, token *oauth2.Token) (map[string]any, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, b.UserInfoURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token.AccessToken)
	req.Header.Set("Accept", "application/json")

	response, err := b.getHTTPClient().Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed getting user info: %w", err)
	}
	defer response.Body.Close()

	contents, err := io.ReadAll(response.Body)
	if err != nil {
		return nil, fmt.Errorf("failed read response: %w", err)
	}
	if response.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("user info returned %d: %s", response.StatusCode, contents)
	}

	var userInfo map[string]any
	if err := json.Unmarshal(contents, &userInfo); err != nil {
		return nil, fmt.Errorf("failed to parse user info: %w", err)
	}
	return userInfo, nil
}

// stringField reads a string or number (ids are often numeric) from userInfo
func stringField(userInfo map[string]any, key string) string {
	switch v := userInfo[key].(type) {
	case string:
		return v
	case float64:
		return fmt.Sprintf("%.0f", v)
	case json.Number:
		return v.String()
	}
	return ""
}

func objectField(userInfo map[string]any, key string) map[string]any {
	m, _ := userInfo[key].(map[string]any)
	return m
}
