package oauth2

import (
	"errors"
	"os"
	"strings"

	"golang.org/x/oauth2"

	nb "github.com/panyam/nodebird"
)

// KakaoEndpoint is Kakao Login's OAuth 2.0 endpoint
var KakaoEndpoint = oauth2.Endpoint{
	AuthURL:   "https://kauth.kakao.com/oauth/authorize",
	TokenURL:  "https://kauth.kakao.com/oauth/token",
	AuthStyle: oauth2.AuthStyleInParams,
}

const KakaoUserInfoURL = "https://kapi.kakao.com/v2/user/me"

type KakaoOAuth2 struct {
	*BaseOAuth2
}

// NewKakaoOAuth2 creates the Kakao strategy.  Empty arguments fall back to
// the KAKAO_ID, KAKAO_SECRET and KAKAO_CALLBACK_URL environment variables.
func NewKakaoOAuth2(clientId string, clientSecret string, callbackUrl string, users nb.UserStore, states *StateSigner) *KakaoOAuth2 {
	if clientId == "" {
		clientId = strings.TrimSpace(os.Getenv("KAKAO_ID"))
	}
	if clientSecret == "" {
		clientSecret = strings.TrimSpace(os.Getenv("KAKAO_SECRET"))
	}
	if callbackUrl == "" {
		callbackUrl = strings.TrimSpace(os.Getenv("KAKAO_CALLBACK_URL"))
	}

	out := KakaoOAuth2{
		BaseOAuth2: NewBaseOAuth2(nb.ProviderKakao, clientId, clientSecret, callbackUrl, users, states),
	}
	out.oauthConfig.Endpoint = KakaoEndpoint
	out.UserInfoURL = KakaoUserInfoURL
	out.ParseProfile = parseKakaoProfile
	return &out
}

// parseKakaoProfile reads a /v2/user/me response.  The email and nickname
// are only present when the user agreed to share them, and the email is only
// used once Kakao has verified it.
func parseKakaoProfile(userInfo map[string]any) (nb.OAuthProfile, error) {
	id := stringField(userInfo, "id")
	if id == "" {
		return nb.OAuthProfile{}, errors.New("kakao user info has no id")
	}
	profile := nb.OAuthProfile{SnsID: id}

	account := objectField(userInfo, "kakao_account")
	if account != nil {
		// unverified addresses could claim someone else's account
		if verified, _ := account["is_email_verified"].(bool); verified {
			profile.Email = stringField(account, "email")
		}
		if p := objectField(account, "profile"); p != nil {
			profile.Nick = stringField(p, "nickname")
		}
	}
	if profile.Nick == "" {
		if props := objectField(userInfo, "properties"); props != nil {
			profile.Nick = stringField(props, "nickname")
		}
	}
	return profile, nil
}
