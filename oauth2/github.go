package oauth2

import (
	"errors"
	"os"
	"strings"

	"golang.org/x/oauth2/github"

	nb "github.com/panyam/nodebird"
)

type GithubOAuth2 struct {
	*BaseOAuth2
}

func NewGithubOAuth2(clientId string, clientSecret string, callbackUrl string, users nb.UserStore, states *StateSigner) *GithubOAuth2 {
	if clientId == "" {
		clientId = strings.TrimSpace(os.Getenv("OAUTH2_GITHUB_CLIENT_ID"))
	}
	if clientSecret == "" {
		clientSecret = strings.TrimSpace(os.Getenv("OAUTH2_GITHUB_CLIENT_SECRET"))
	}
	if callbackUrl == "" {
		callbackUrl = strings.TrimSpace(os.Getenv("OAUTH2_GITHUB_CALLBACK_URL"))
	}

	out := GithubOAuth2{
		BaseOAuth2: NewBaseOAuth2(nb.ProviderGithub, clientId, clientSecret, callbackUrl, users, states),
	}
	out.oauthConfig.Endpoint = github.Endpoint
	out.oauthConfig.Scopes = []string{
		"read:user", "user:email",
	}
	out.UserInfoURL = "https://api.github.com/user"
	out.ParseProfile = parseGithubProfile
	return &out
}

func parseGithubProfile(userInfo map[string]any) (nb.OAuthProfile, error) {
	id := stringField(userInfo, "id")
	if id == "" {
		return nb.OAuthProfile{}, errors.New("github user info has no id")
	}
	nick := stringField(userInfo, "login")
	if name := stringField(userInfo, "name"); name != "" {
		nick = name
	}
	return nb.OAuthProfile{
		SnsID: id,
		Email: stringField(userInfo, "email"),
		Nick:  nick,
	}, nil
}
