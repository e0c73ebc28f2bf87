package nodebird

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"golang.org/x/crypto/bcrypt"
)

// DefaultBcryptCost is the cost join uses unless configured otherwise
const DefaultBcryptCost = 12

// Hasher turns plaintext passwords into one-way salted hashes
type Hasher interface {
	Hash(plaintext string) (string, error)

	// Verify returns nil if plaintext matches hash
	Verify(plaintext, hash string) error
}

// BcryptHasher is a Hasher backed by bcrypt
type BcryptHasher struct {
	Cost int
}

func (h BcryptHasher) Hash(plaintext string) (string, error) {
	cost := h.Cost
	if cost == 0 {
		cost = DefaultBcryptCost
	}
	out, err := bcrypt.GenerateFromPassword([]byte(plaintext), cost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(out), nil
}

func (h BcryptHasher) Verify(plaintext, hash string) error {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plaintext))
}

// JoinFunc registers a new local user.
//
// Errors wrapping ErrInvalidCredentials or ErrEmailTaken are the visitor's to
// fix.  Anything else is an infrastructure failure.
type JoinFunc func(ctx context.Context, creds *Credentials) (*User, error)

// NewJoinFunc creates a JoinFunc from a store and a hasher
func NewJoinFunc(users UserStore, hasher Hasher) JoinFunc {
	return func(ctx context.Context, creds *Credentials) (*User, error) {
		creds.Normalize()
		if err := creds.Validate(); err != nil {
			return nil, err
		}

		// Check if the email is already registered
		existing, err := users.GetUserByEmail(ctx, creds.Email)
		if err == nil && existing != nil {
			return nil, ErrEmailTaken
		}
		if err != nil && !errors.Is(err, ErrUserNotFound) {
			return nil, err
		}

		passwordHash, err := hasher.Hash(creds.Password)
		if err != nil {
			return nil, err
		}

		user := &User{
			Email:        creds.Email,
			Nick:         creds.Nick,
			PasswordHash: passwordHash,
			Provider:     ProviderLocal,
		}
		// A concurrent join with the same email surfaces here as ErrEmailTaken
		if err := users.CreateUser(ctx, user); err != nil {
			return nil, err
		}

		slog.Info("created local user", "id", user.ID)
		return user, nil
	}
}

// Reasons reported by the local strategy
const (
	ReasonNoSuchUser        = "no such user"
	ReasonPasswordMismatch  = "password does not match"
	ReasonMissingCredential = "email and password are required"
)

// CredentialsValidator checks an email/password pair
type CredentialsValidator func(ctx context.Context, email, password string) AuthOutcome

// NewCredentialsValidator creates a CredentialsValidator from a store and a hasher
func NewCredentialsValidator(users UserStore, hasher Hasher) CredentialsValidator {
	return func(ctx context.Context, email, password string) AuthOutcome {
		if email == "" || password == "" {
			return Failure(ReasonMissingCredential)
		}

		user, err := users.GetUserByEmail(ctx, email)
		if errors.Is(err, ErrUserNotFound) {
			return Failure(ReasonNoSuchUser)
		}
		if err != nil {
			return InternalError(err)
		}

		// OAuth-only accounts have no password to compare against
		if !user.HasPassword() {
			return Failure(ReasonPasswordMismatch)
		}

		err = hasher.Verify(password, user.PasswordHash)
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return Failure(ReasonPasswordMismatch)
		}
		if err != nil {
			return InternalError(fmt.Errorf("verifying password: %w", err))
		}
		return Success(user)
	}
}

// OAuthProfile is what an OAuth provider tells us about the visitor
type OAuthProfile struct {
	Provider string
	SnsID    string
	Email    string
	Nick     string
}

// ReasonEmailInUse is reported when a provider's email belongs to another account
const ReasonEmailInUse = "email is already registered with a different login"

// EnsureOAuthUser finds the user a provider profile belongs to, creating one
// on the first login.
func EnsureOAuthUser(ctx context.Context, users UserStore, profile OAuthProfile) AuthOutcome {
	if profile.Provider == "" || profile.SnsID == "" {
		return Failure("provider did not identify the user")
	}

	user, err := users.GetUserByProvider(ctx, profile.Provider, profile.SnsID)
	if err == nil {
		return Success(user)
	}
	if !errors.Is(err, ErrUserNotFound) {
		return InternalError(err)
	}

	email := profile.Email
	if len(email) > MaxEmailLength {
		email = ""
	}
	if email != "" {
		if _, err := users.GetUserByEmail(ctx, email); err == nil {
			return Failure(ReasonEmailInUse)
		} else if !errors.Is(err, ErrUserNotFound) {
			return InternalError(err)
		}
	}

	user = &User{
		Email:    email,
		Nick:     truncateRunes(profile.Nick, MaxNickLength),
		Provider: profile.Provider,
		SnsID:    profile.SnsID,
	}
	if user.Nick == "" {
		user.Nick = truncateRunes(profile.Provider+" user", MaxNickLength)
	}
	if err := users.CreateUser(ctx, user); err != nil {
		if errors.Is(err, ErrEmailTaken) {
			return Failure(ReasonEmailInUse)
		}
		return InternalError(err)
	}
	slog.Info("created oauth user", "id", user.ID, "provider", profile.Provider)
	return Success(user)
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
