package oauth2

import (
	"errors"
	"os"

	"golang.org/x/oauth2/google"

	nb "github.com/panyam/nodebird"
)

const GoogleUserInfoURL = "https://www.googleapis.com/oauth2/v2/userinfo"

type GoogleOAuth2 struct {
	*BaseOAuth2
}

func NewGoogleOAuth2(clientId string, clientSecret string, callbackUrl string, users nb.UserStore, states *StateSigner) *GoogleOAuth2 {
	if clientId == "" {
		clientId = os.Getenv("OAUTH2_GOOGLE_CLIENT_ID")
	}
	if clientSecret == "" {
		clientSecret = os.Getenv("OAUTH2_GOOGLE_CLIENT_SECRET")
	}
	if callbackUrl == "" {
		callbackUrl = os.Getenv("OAUTH2_GOOGLE_CALLBACK_URL")
	}

	out := GoogleOAuth2{
		BaseOAuth2: NewBaseOAuth2(nb.ProviderGoogle, clientId, clientSecret, callbackUrl, users, states),
	}
	out.oauthConfig.Endpoint = google.Endpoint
	out.oauthConfig.Scopes = []string{
		"https://www.googleapis.com/auth/userinfo.email",
		"https://www.googleapis.com/auth/userinfo.profile",
	}
	out.UserInfoURL = GoogleUserInfoURL
	out.ParseProfile = parseGoogleProfile
	return &out
}

func parseGoogleProfile(userInfo map[string]any) (nb.OAuthProfile, error) {
	id := stringField(userInfo, "id")
	if id == "" {
		return nb.OAuthProfile{}, errors.New("google user info has no id")
	}
	profile := nb.OAuthProfile{
		SnsID: id,
		Nick:  stringField(userInfo, "name"),
	}
	// unverified addresses could claim someone else's account
	if verified, _ := userInfo["verified_email"].(bool); verified {
		profile.Email = stringField(userInfo, "email")
	}
	return profile, nil
}
