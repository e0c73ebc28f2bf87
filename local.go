package nodebird

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// LocalStrategy authenticates with an email and password posted by the visitor
type LocalStrategy struct {
	// Validates credentials during login
	ValidateCredentials CredentialsValidator

	// Form field names
	EmailField    string
	PasswordField string
}

func NewLocalStrategy(users UserStore, hasher Hasher) *LocalStrategy {
	return &LocalStrategy{ValidateCredentials: NewCredentialsValidator(users, hasher)}
}

func (a *LocalStrategy) Name() string { return ProviderLocal }

// Authenticate handles login requests
func (a *LocalStrategy) Authenticate(r *http.Request) AuthOutcome {
	if a.ValidateCredentials == nil {
		return InternalError(fmt.Errorf("login not configured"))
	}

	email, password, err := a.parseLoginForm(r)
	if err != nil {
		return Failure(err.Error())
	}
	return a.ValidateCredentials(r.Context(), email, password)
}

func (a *LocalStrategy) parseLoginForm(r *http.Request) (email, password string, err error) {
	contentType := r.Header.Get("Content-Type")
	emailField := a.getEmailField()
	passwordField := a.getPasswordField()

	if strings.HasPrefix(contentType, "application/json") {
		var data map[string]any
		if err = json.NewDecoder(r.Body).Decode(&data); err != nil || data == nil {
			return "", "", fmt.Errorf("invalid post body")
		}
		if e, ok := data[emailField].(string); ok {
			email = e
		}
		if p, ok := data[passwordField].(string); ok {
			password = p
		}
	} else {
		if err = r.ParseForm(); err != nil {
			return "", "", fmt.Errorf("error parsing form")
		}
		email = r.FormValue(emailField)
		password = r.FormValue(passwordField)
	}

	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return "", "", errors.New(ReasonMissingCredential)
	}
	return email, password, nil
}

func (a *LocalStrategy) getEmailField() string {
	if a.EmailField != "" {
		return a.EmailField
	}
	return "email"
}

func (a *LocalStrategy) getPasswordField() string {
	if a.PasswordField != "" {
		return a.PasswordField
	}
	return "password"
}
