//go:build !wasm
// +build !wasm

package gae

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"cloud.google.com/go/datastore"
	"github.com/google/uuid"
	"google.golang.org/api/iterator"

	nb "github.com/panyam/nodebird"
)

// ============================================================================
// UserStore
// ============================================================================

// UserStore implements nb.UserStore using Google Cloud Datastore
type UserStore struct {
	client    *datastore.Client
	namespace string
}

// NewUserStore creates a new Datastore-backed UserStore
func NewUserStore(client *datastore.Client, namespace string) *UserStore {
	return &UserStore{client: client, namespace: namespace}
}

func (s *UserStore) namespacedKey(kind, name string) *datastore.Key {
	key := datastore.NameKey(kind, name, nil)
	key.Namespace = s.namespace
	return key
}

func snsAccountName(provider, snsID string) string {
	return provider + ":" + snsID
}

func (s *UserStore) CreateUser(ctx context.Context, user *nb.User) error {
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	if user.Provider == "" {
		user.Provider = nb.ProviderLocal
	}
	now := time.Now()
	user.CreatedAt, user.UpdatedAt = now, now

	key := s.namespacedKey(KindUser, user.ID)
	_, err := s.client.RunInTransaction(ctx, func(tx *datastore.Transaction) error {
		var reservations []*datastore.Key
		if user.Email != "" {
			reservations = append(reservations, s.namespacedKey(KindEmail, strings.ToLower(user.Email)))
		}
		if user.SnsID != "" {
			reservations = append(reservations, s.namespacedKey(KindSnsAccount, snsAccountName(user.Provider, user.SnsID)))
		}
		for _, rk := range reservations {
			var existing ReservationEntity
			err := tx.Get(rk, &existing)
			if err == nil {
				return nb.ErrEmailTaken
			}
			if err != datastore.ErrNoSuchEntity {
				return err
			}
			if _, err := tx.Put(rk, &ReservationEntity{Key: rk, UserID: user.ID, CreatedAt: now}); err != nil {
				return err
			}
		}
		_, err := tx.Put(key, UserToEntity(user, key))
		return err
	})
	if err != nil && !errors.Is(err, nb.ErrEmailTaken) {
		return fmt.Errorf("creating user: %w", err)
	}
	return err
}

func (s *UserStore) GetUserByID(ctx context.Context, userID string) (*nb.User, error) {
	if userID == "" {
		return nil, nb.ErrUserNotFound
	}
	key := s.namespacedKey(KindUser, userID)
	var entity UserEntity
	if err := s.client.Get(ctx, key, &entity); err != nil {
		if err == datastore.ErrNoSuchEntity {
			return nil, nb.ErrUserNotFound
		}
		return nil, err
	}
	return entity.ToUser(), nil
}

func (s *UserStore) GetUserByEmail(ctx context.Context, email string) (*nb.User, error) {
	if email == "" {
		return nil, nb.ErrUserNotFound
	}
	return s.byReservation(ctx, s.namespacedKey(KindEmail, strings.ToLower(email)))
}

func (s *UserStore) GetUserByProvider(ctx context.Context, provider, snsID string) (*nb.User, error) {
	return s.byReservation(ctx, s.namespacedKey(KindSnsAccount, snsAccountName(provider, snsID)))
}

func (s *UserStore) byReservation(ctx context.Context, key *datastore.Key) (*nb.User, error) {
	var reservation ReservationEntity
	if err := s.client.Get(ctx, key, &reservation); err != nil {
		if err == datastore.ErrNoSuchEntity {
			return nil, nb.ErrUserNotFound
		}
		return nil, err
	}
	return s.GetUserByID(ctx, reservation.UserID)
}

func (s *UserStore) followKey(followerID, followingID string) *datastore.Key {
	return s.namespacedKey(KindFollow, followerID+":"+followingID)
}

func (s *UserStore) Follow(ctx context.Context, followerID, followingID string) error {
	key := s.followKey(followerID, followingID)
	_, err := s.client.Put(ctx, key, &FollowEntity{
		Key:         key,
		FollowerID:  followerID,
		FollowingID: followingID,
		CreatedAt:   time.Now(),
	})
	return err
}

func (s *UserStore) Unfollow(ctx context.Context, followerID, followingID string) error {
	return s.client.Delete(ctx, s.followKey(followerID, followingID))
}

func (s *UserStore) Followings(ctx context.Context, userID string) ([]*nb.User, error) {
	return s.followEdges(ctx, "follower_id", userID, func(f *FollowEntity) string { return f.FollowingID })
}

func (s *UserStore) Followers(ctx context.Context, userID string) ([]*nb.User, error) {
	return s.followEdges(ctx, "following_id", userID, func(f *FollowEntity) string { return f.FollowerID })
}

func (s *UserStore) followEdges(ctx context.Context, field, userID string, other func(*FollowEntity) string) ([]*nb.User, error) {
	query := datastore.NewQuery(KindFollow).
		FilterField(field, "=", userID)
	if s.namespace != "" {
		query = query.Namespace(s.namespace)
	}

	var users []*nb.User
	it := s.client.Run(ctx, query)
	for {
		var edge FollowEntity
		_, err := it.Next(&edge)
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, err
		}
		user, err := s.GetUserByID(ctx, other(&edge))
		if errors.Is(err, nb.ErrUserNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	return users, nil
}

// ============================================================================
// PostStore
// ============================================================================

// PostStore implements nb.PostStore using Google Cloud Datastore
type PostStore struct {
	client    *datastore.Client
	namespace string
	users     nb.UserStore
}

// NewPostStore creates a new Datastore-backed PostStore.  Authors of listed
// posts are loaded from users.
func NewPostStore(client *datastore.Client, namespace string, users nb.UserStore) *PostStore {
	return &PostStore{client: client, namespace: namespace, users: users}
}

func (s *PostStore) namespacedKey(name string) *datastore.Key {
	key := datastore.NameKey(KindPost, name, nil)
	key.Namespace = s.namespace
	return key
}

func (s *PostStore) CreatePost(ctx context.Context, post *nb.Post) error {
	if post.ID == "" {
		post.ID = uuid.NewString()
	}
	if post.CreatedAt.IsZero() {
		post.CreatedAt = time.Now()
	}
	key := s.namespacedKey(post.ID)
	_, err := s.client.Put(ctx, key, PostToEntity(post, key))
	return err
}

func (s *PostStore) GetPost(ctx context.Context, postID string) (*nb.Post, error) {
	var entity PostEntity
	if err := s.client.Get(ctx, s.namespacedKey(postID), &entity); err != nil {
		if err == datastore.ErrNoSuchEntity {
			return nil, nb.ErrPostNotFound
		}
		return nil, err
	}
	return entity.ToPost(), nil
}

func (s *PostStore) DeletePost(ctx context.Context, postID string) error {
	key := s.namespacedKey(postID)
	_, err := s.client.RunInTransaction(ctx, func(tx *datastore.Transaction) error {
		var entity PostEntity
		if err := tx.Get(key, &entity); err != nil {
			if err == datastore.ErrNoSuchEntity {
				return nb.ErrPostNotFound
			}
			return err
		}
		return tx.Delete(key)
	})
	return err
}

func (s *PostStore) ListPosts(ctx context.Context, limit int) ([]*nb.Post, error) {
	return s.list(ctx, datastore.NewQuery(KindPost), limit)
}

func (s *PostStore) ListPostsByHashtag(ctx context.Context, tag string, limit int) ([]*nb.Post, error) {
	query := datastore.NewQuery(KindPost).
		FilterField("hashtags", "=", strings.ToLower(tag))
	return s.list(ctx, query, limit)
}

func (s *PostStore) list(ctx context.Context, query *datastore.Query, limit int) ([]*nb.Post, error) {
	query = query.Order("-created_at")
	if s.namespace != "" {
		query = query.Namespace(s.namespace)
	}
	if limit > 0 {
		query = query.Limit(limit)
	}

	var posts []*nb.Post
	authors := map[string]*nb.User{}
	it := s.client.Run(ctx, query)
	for {
		var entity PostEntity
		_, err := it.Next(&entity)
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, err
		}
		post := entity.ToPost()
		author, ok := authors[post.UserID]
		if !ok {
			author, err = s.users.GetUserByID(ctx, post.UserID)
			if err != nil && !errors.Is(err, nb.ErrUserNotFound) {
				return nil, err
			}
			authors[post.UserID] = author
		}
		post.Author = author
		posts = append(posts, post)
	}
	return posts, nil
}
