package server

import (
	"net/http"
	"strings"

	"github.com/gorilla/handlers"
	"github.com/unrolled/secure"
)

var secureOptions = secure.Options{
	ContentSecurityPolicy:   "default-src 'self'; base-uri 'self'; font-src 'self' https: data:; form-action 'self'; frame-ancestors 'self'; img-src 'self' https: data:; object-src 'none'; script-src 'self'; style-src 'self' https: 'unsafe-inline'",
	CustomFrameOptionsValue: "SAMEORIGIN",
	ContentTypeNosniff:      true,
	BrowserXssFilter:        true,
	CustomBrowserXssValue:   "0",
	ReferrerPolicy:          "no-referrer",
	STSSeconds:              15552000,
	STSIncludeSubdomains:    true,
	SSLProxyHeaders:         map[string]string{"X-Forwarded-Proto": "https"},
}

// SecurityHeaders sets the usual hardening headers on every response
func SecurityHeaders(next http.Handler) http.Handler {
	return secure.New(secureOptions).Handler(next)
}

// PreventParamPollution keeps only the last value of a repeated query or
// urlencoded form parameter, so handlers never see ?a=1&a=2.
func PreventParamPollution(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if collapse(q) {
			r.URL.RawQuery = q.Encode()
		}
		if strings.HasPrefix(r.Header.Get("Content-Type"), "application/x-www-form-urlencoded") {
			if err := r.ParseForm(); err == nil {
				collapse(r.Form)
				collapse(r.PostForm)
			}
		}
		next.ServeHTTP(w, r)
	})
}

func collapse(values map[string][]string) bool {
	changed := false
	for k, vs := range values {
		if len(vs) > 1 {
			values[k] = vs[len(vs)-1:]
			changed = true
		}
	}
	return changed
}

// ProxyHeaders trusts the X-Forwarded-* headers of the reverse proxy in front
// of the server for the client address, scheme and host.
func ProxyHeaders(next http.Handler) http.Handler {
	return handlers.ProxyHeaders(next)
}
