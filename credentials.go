package nodebird

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"
)

// Column limits of the users table
const (
	MaxEmailLength = 40
	MaxNickLength  = 15
)

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

// ErrInvalidCredentials wraps every validation failure of Credentials
var ErrInvalidCredentials = errors.New("invalid credentials")

// Credentials represents what a visitor submits on the join form.
// Login only uses Email and Password.
type Credentials struct {
	Email    string
	Nick     string
	Password string
}

// Normalize trims surrounding whitespace from the email and nick.
// Passwords are taken verbatim.
func (c *Credentials) Normalize() {
	c.Email = strings.TrimSpace(c.Email)
	c.Nick = strings.TrimSpace(c.Nick)
}

// Validate checks the join form.  The returned error wraps ErrInvalidCredentials
// and its message is meant to be shown to the visitor.
func (c *Credentials) Validate() error {
	if c.Email == "" || c.Nick == "" || c.Password == "" {
		return fmt.Errorf("%w: email, nick and password are required", ErrInvalidCredentials)
	}
	if len(c.Email) > MaxEmailLength || !emailRegex.MatchString(c.Email) {
		return fmt.Errorf("%w: invalid email format", ErrInvalidCredentials)
	}
	if utf8.RuneCountInString(c.Nick) > MaxNickLength {
		return fmt.Errorf("%w: nick must be at most %d characters", ErrInvalidCredentials, MaxNickLength)
	}
	return nil
}
