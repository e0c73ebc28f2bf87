//go:build !wasm
// +build !wasm

package gorm

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	nb "github.com/panyam/nodebird"
)

// AutoMigrate creates the nodebird tables and indexes that are missing.
// Existing tables are never dropped or rewritten.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&UserModel{},
		&PostModel{},
		&PostHashtagModel{},
		&FollowModel{},
	)
}

// isDuplicateKey reports unique constraint violations.  TranslateError covers
// the drivers that support it, the message check covers the rest.
func isDuplicateKey(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") || strings.Contains(msg, "duplicate key value")
}

// =============================================================================
// UserStore
// =============================================================================

// UserStore implements nb.UserStore using GORM
type UserStore struct {
	db *gorm.DB
}

func NewUserStore(db *gorm.DB) *UserStore {
	return &UserStore{db: db}
}

func (s *UserStore) CreateUser(ctx context.Context, user *nb.User) error {
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	model := UserToModel(user)
	if err := s.db.WithContext(ctx).Create(model).Error; err != nil {
		if isDuplicateKey(err) {
			return nb.ErrEmailTaken
		}
		return errors.Wrap(err, "creating user")
	}
	user.CreatedAt = model.CreatedAt
	user.UpdatedAt = model.UpdatedAt
	return nil
}

func (s *UserStore) GetUserByID(ctx context.Context, userID string) (*nb.User, error) {
	return s.first(ctx, "id = ?", userID)
}

func (s *UserStore) GetUserByEmail(ctx context.Context, email string) (*nb.User, error) {
	if email == "" {
		return nil, nb.ErrUserNotFound
	}
	return s.first(ctx, "email = ?", email)
}

func (s *UserStore) GetUserByProvider(ctx context.Context, provider, snsID string) (*nb.User, error) {
	return s.first(ctx, "provider = ? AND sns_id = ?", provider, snsID)
}

func (s *UserStore) first(ctx context.Context, query string, args ...any) (*nb.User, error) {
	var model UserModel
	if err := s.db.WithContext(ctx).Where(query, args...).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nb.ErrUserNotFound
		}
		return nil, errors.Wrap(err, "finding user")
	}
	return model.ToUser(), nil
}

func (s *UserStore) Follow(ctx context.Context, followerID, followingID string) error {
	edge := &FollowModel{FollowerID: followerID, FollowingID: followingID}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(edge).Error
	return errors.Wrap(err, "creating follow")
}

func (s *UserStore) Unfollow(ctx context.Context, followerID, followingID string) error {
	err := s.db.WithContext(ctx).
		Where("follower_id = ? AND following_id = ?", followerID, followingID).
		Delete(&FollowModel{}).Error
	return errors.Wrap(err, "deleting follow")
}

func (s *UserStore) Followings(ctx context.Context, userID string) ([]*nb.User, error) {
	sub := s.db.Model(&FollowModel{}).Select("following_id").Where("follower_id = ?", userID)
	return s.find(ctx, "id IN (?)", sub)
}

func (s *UserStore) Followers(ctx context.Context, userID string) ([]*nb.User, error) {
	sub := s.db.Model(&FollowModel{}).Select("follower_id").Where("following_id = ?", userID)
	return s.find(ctx, "id IN (?)", sub)
}

func (s *UserStore) find(ctx context.Context, query string, args ...any) ([]*nb.User, error) {
	var models []UserModel
	if err := s.db.WithContext(ctx).Where(query, args...).Order("nick").Find(&models).Error; err != nil {
		return nil, errors.Wrap(err, "listing users")
	}
	users := make([]*nb.User, len(models))
	for i := range models {
		users[i] = models[i].ToUser()
	}
	return users, nil
}

// =============================================================================
// PostStore
// =============================================================================

// PostStore implements nb.PostStore using GORM
type PostStore struct {
	db *gorm.DB
}

func NewPostStore(db *gorm.DB) *PostStore {
	return &PostStore{db: db}
}

func (s *PostStore) CreatePost(ctx context.Context, post *nb.Post) error {
	if post.ID == "" {
		post.ID = uuid.NewString()
	}
	model := PostToModel(post)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(model).Error; err != nil {
			return err
		}
		if len(post.Hashtags) == 0 {
			return nil
		}
		tags := make([]PostHashtagModel, len(post.Hashtags))
		for i, tag := range post.Hashtags {
			tags[i] = PostHashtagModel{PostID: post.ID, Tag: tag}
		}
		return tx.Create(&tags).Error
	})
	if err != nil {
		return errors.Wrap(err, "creating post")
	}
	post.CreatedAt = model.CreatedAt
	return nil
}

func (s *PostStore) GetPost(ctx context.Context, postID string) (*nb.Post, error) {
	var model PostModel
	if err := s.db.WithContext(ctx).First(&model, "id = ?", postID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nb.ErrPostNotFound
		}
		return nil, errors.Wrap(err, "finding post")
	}
	posts := []*nb.Post{model.ToPost()}
	if err := s.hydrate(ctx, posts); err != nil {
		return nil, err
	}
	return posts[0], nil
}

func (s *PostStore) DeletePost(ctx context.Context, postID string) error {
	var deleted int64
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("post_id = ?", postID).Delete(&PostHashtagModel{}).Error; err != nil {
			return err
		}
		res := tx.Where("id = ?", postID).Delete(&PostModel{})
		deleted = res.RowsAffected
		return res.Error
	})
	if err != nil {
		return errors.Wrap(err, "deleting post")
	}
	if deleted == 0 {
		return nb.ErrPostNotFound
	}
	return nil
}

func (s *PostStore) ListPosts(ctx context.Context, limit int) ([]*nb.Post, error) {
	return s.list(ctx, s.db.WithContext(ctx), limit)
}

func (s *PostStore) ListPostsByHashtag(ctx context.Context, tag string, limit int) ([]*nb.Post, error) {
	sub := s.db.Model(&PostHashtagModel{}).Select("post_id").Where("tag = ?", strings.ToLower(tag))
	return s.list(ctx, s.db.WithContext(ctx).Where("id IN (?)", sub), limit)
}

func (s *PostStore) list(ctx context.Context, q *gorm.DB, limit int) ([]*nb.Post, error) {
	var models []PostModel
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Order("created_at desc").Find(&models).Error; err != nil {
		return nil, errors.Wrap(err, "listing posts")
	}
	posts := make([]*nb.Post, len(models))
	for i := range models {
		posts[i] = models[i].ToPost()
	}
	if err := s.hydrate(ctx, posts); err != nil {
		return nil, err
	}
	return posts, nil
}

// hydrate fills in the authors and hashtags of posts with one query each
func (s *PostStore) hydrate(ctx context.Context, posts []*nb.Post) error {
	if len(posts) == 0 {
		return nil
	}
	postIDs := make([]string, 0, len(posts))
	userIDs := make([]string, 0, len(posts))
	for _, p := range posts {
		postIDs = append(postIDs, p.ID)
		userIDs = append(userIDs, p.UserID)
	}

	var tags []PostHashtagModel
	if err := s.db.WithContext(ctx).Where("post_id IN ?", postIDs).Order("tag").Find(&tags).Error; err != nil {
		return errors.Wrap(err, "loading hashtags")
	}
	byPost := map[string][]string{}
	for _, t := range tags {
		byPost[t.PostID] = append(byPost[t.PostID], t.Tag)
	}

	var authors []UserModel
	if err := s.db.WithContext(ctx).Where("id IN ?", userIDs).Find(&authors).Error; err != nil {
		return errors.Wrap(err, "loading authors")
	}
	byID := map[string]*nb.User{}
	for i := range authors {
		byID[authors[i].ID] = authors[i].ToUser()
	}

	for _, p := range posts {
		p.Hashtags = byPost[p.ID]
		p.Author = byID[p.UserID]
	}
	return nil
}
