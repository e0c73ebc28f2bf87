//go:build !wasm
// +build !wasm

package gae

import (
	"time"

	"cloud.google.com/go/datastore"

	nb "github.com/panyam/nodebird"
)

// Kind constants for Datastore entities
const (
	KindUser       = "User"
	KindEmail      = "Email"
	KindSnsAccount = "SnsAccount"
	KindPost       = "Post"
	KindFollow     = "Follow"
)

// UserEntity is the Datastore entity for users
type UserEntity struct {
	Key       *datastore.Key `datastore:"__key__"`
	Email     string         `datastore:"email"`
	Nick      string         `datastore:"nick,noindex"`
	Password  string         `datastore:"password,noindex"`
	Provider  string         `datastore:"provider"`
	SnsID     string         `datastore:"sns_id"`
	CreatedAt time.Time      `datastore:"created_at"`
	UpdatedAt time.Time      `datastore:"updated_at"`
}

func (e *UserEntity) ToUser() *nb.User {
	return &nb.User{
		ID:           e.Key.Name,
		Email:        e.Email,
		Nick:         e.Nick,
		PasswordHash: e.Password,
		Provider:     e.Provider,
		SnsID:        e.SnsID,
		CreatedAt:    e.CreatedAt,
		UpdatedAt:    e.UpdatedAt,
	}
}

func UserToEntity(u *nb.User, key *datastore.Key) *UserEntity {
	return &UserEntity{
		Key:       key,
		Email:     u.Email,
		Nick:      u.Nick,
		Password:  u.PasswordHash,
		Provider:  u.Provider,
		SnsID:     u.SnsID,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

// ReservationEntity maps a unique value (an email, a provider account) to the
// user holding it
type ReservationEntity struct {
	Key       *datastore.Key `datastore:"__key__"`
	UserID    string         `datastore:"user_id"`
	CreatedAt time.Time      `datastore:"created_at"`
}

// PostEntity is the Datastore entity for posts
type PostEntity struct {
	Key       *datastore.Key `datastore:"__key__"`
	UserID    string         `datastore:"user_id"`
	Content   string         `datastore:"content,noindex"`
	Img       string         `datastore:"img,noindex"`
	Hashtags  []string       `datastore:"hashtags"`
	CreatedAt time.Time      `datastore:"created_at"`
}

func (e *PostEntity) ToPost() *nb.Post {
	return &nb.Post{
		ID:        e.Key.Name,
		UserID:    e.UserID,
		Content:   e.Content,
		Img:       e.Img,
		Hashtags:  e.Hashtags,
		CreatedAt: e.CreatedAt,
	}
}

func PostToEntity(p *nb.Post, key *datastore.Key) *PostEntity {
	return &PostEntity{
		Key:       key,
		UserID:    p.UserID,
		Content:   p.Content,
		Img:       p.Img,
		Hashtags:  p.Hashtags,
		CreatedAt: p.CreatedAt,
	}
}

// FollowEntity is one edge of the follow graph
type FollowEntity struct {
	Key         *datastore.Key `datastore:"__key__"`
	FollowerID  string         `datastore:"follower_id"`
	FollowingID string         `datastore:"following_id"`
	CreatedAt   time.Time      `datastore:"created_at"`
}
