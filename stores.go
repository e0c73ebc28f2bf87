package nodebird

import (
	"context"
	"errors"
	"time"
)

// Providers a user can be created through
const (
	ProviderLocal  = "local"
	ProviderKakao  = "kakao"
	ProviderGoogle = "google"
	ProviderGithub = "github"
)

var (
	ErrUserNotFound = errors.New("user not found")
	ErrEmailTaken   = errors.New("email already registered")
	ErrPostNotFound = errors.New("post not found")
)

// User is a registered account.  Local accounts carry an email and a password
// hash, OAuth accounts carry the provider and the provider's id for the user
// (and an email only when the provider disclosed one).
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	Nick         string    `json:"nick"`
	PasswordHash string    `json:"-"`
	Provider     string    `json:"provider"`
	SnsID        string    `json:"sns_id,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// HasPassword is false for accounts created through an OAuth provider
func (u *User) HasPassword() bool {
	return u.PasswordHash != ""
}

// Post is a short message written by a user
type Post struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Content   string    `json:"content"`
	Img       string    `json:"img,omitempty"`
	Hashtags  []string  `json:"hashtags,omitempty"`
	CreatedAt time.Time `json:"created_at"`

	// Author is filled in by list queries
	Author *User `json:"author,omitempty"`
}

// UserStore persists users and the follow graph between them.
//
// Lookups return ErrUserNotFound when nothing matches.  CreateUser returns
// ErrEmailTaken when the email is already in use.  Any other error is an
// infrastructure failure.
type UserStore interface {
	// CreateUser saves a new user.  An empty ID is filled in by the store.
	CreateUser(ctx context.Context, user *User) error

	// GetUserByID retrieves a user by their ID
	GetUserByID(ctx context.Context, userID string) (*User, error)

	// GetUserByEmail retrieves a user by email
	GetUserByEmail(ctx context.Context, email string) (*User, error)

	// GetUserByProvider retrieves a user by the id an OAuth provider knows them by
	GetUserByProvider(ctx context.Context, provider, snsID string) (*User, error)

	// Follow records that followerID follows followingID.  Following twice is a no-op.
	Follow(ctx context.Context, followerID, followingID string) error

	// Unfollow removes a follow edge if present
	Unfollow(ctx context.Context, followerID, followingID string) error

	// Followings returns the users userID follows
	Followings(ctx context.Context, userID string) ([]*User, error)

	// Followers returns the users following userID
	Followers(ctx context.Context, userID string) ([]*User, error)
}

// PostStore persists posts and their hashtags
type PostStore interface {
	// CreatePost saves a post along with its hashtags.  An empty ID is filled in.
	CreatePost(ctx context.Context, post *Post) error

	// GetPost returns ErrPostNotFound if there is no such post
	GetPost(ctx context.Context, postID string) (*Post, error)

	// DeletePost removes a post and its hashtags
	DeletePost(ctx context.Context, postID string) error

	// ListPosts returns the latest posts, newest first, with Author set
	ListPosts(ctx context.Context, limit int) ([]*Post, error)

	// ListPostsByHashtag returns posts tagged with tag, newest first, with Author set
	ListPostsByHashtag(ctx context.Context, tag string, limit int) ([]*Post, error)
}
