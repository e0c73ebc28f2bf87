//go:build !wasm
// +build !wasm

package gorm

import (
	"time"

	nb "github.com/panyam/nodebird"
)

// UserModel is the GORM model for users.  Email, Password and SnsID are
// nullable so that OAuth and local accounts can share the unique indexes.
type UserModel struct {
	ID        string    `gorm:"primaryKey;size:36"`
	Email     *string   `gorm:"size:40;uniqueIndex"`
	Nick      string    `gorm:"size:15;not null"`
	Password  *string   `gorm:"size:100"`
	Provider  string    `gorm:"size:10;not null;default:local;uniqueIndex:idx_users_provider_sns"`
	SnsID     *string   `gorm:"size:64;uniqueIndex:idx_users_provider_sns"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

func (UserModel) TableName() string {
	return "users"
}

func (m *UserModel) ToUser() *nb.User {
	return &nb.User{
		ID:           m.ID,
		Email:        deref(m.Email),
		Nick:         m.Nick,
		PasswordHash: deref(m.Password),
		Provider:     m.Provider,
		SnsID:        deref(m.SnsID),
		CreatedAt:    m.CreatedAt,
		UpdatedAt:    m.UpdatedAt,
	}
}

func UserToModel(u *nb.User) *UserModel {
	provider := u.Provider
	if provider == "" {
		provider = nb.ProviderLocal
	}
	return &UserModel{
		ID:        u.ID,
		Email:     nullable(u.Email),
		Nick:      u.Nick,
		Password:  nullable(u.PasswordHash),
		Provider:  provider,
		SnsID:     nullable(u.SnsID),
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

// PostModel is the GORM model for posts
type PostModel struct {
	ID        string    `gorm:"primaryKey;size:36"`
	UserID    string    `gorm:"size:36;not null;index"`
	Content   string    `gorm:"size:140;not null"`
	Img       string    `gorm:"size:200"`
	CreatedAt time.Time `gorm:"autoCreateTime;index"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

func (PostModel) TableName() string {
	return "posts"
}

func (m *PostModel) ToPost() *nb.Post {
	return &nb.Post{
		ID:        m.ID,
		UserID:    m.UserID,
		Content:   m.Content,
		Img:       m.Img,
		CreatedAt: m.CreatedAt,
	}
}

func PostToModel(p *nb.Post) *PostModel {
	return &PostModel{
		ID:        p.ID,
		UserID:    p.UserID,
		Content:   p.Content,
		Img:       p.Img,
		CreatedAt: p.CreatedAt,
	}
}

// PostHashtagModel tags a post with one hashtag
type PostHashtagModel struct {
	PostID string `gorm:"primaryKey;size:36"`
	Tag    string `gorm:"primaryKey;size:15;index"`
}

func (PostHashtagModel) TableName() string {
	return "post_hashtags"
}

// FollowModel is one edge of the follow graph
type FollowModel struct {
	FollowerID  string    `gorm:"primaryKey;size:36"`
	FollowingID string    `gorm:"primaryKey;size:36;index"`
	CreatedAt   time.Time `gorm:"autoCreateTime"`
}

func (FollowModel) TableName() string {
	return "follows"
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
