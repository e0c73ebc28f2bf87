package redis_test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/alexedwards/scs/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	redisstore "github.com/panyam/nodebird/stores/redis"
)

var (
	_ scs.Store    = (*redisstore.SessionStore)(nil)
	_ scs.CtxStore = (*redisstore.SessionStore)(nil)
)

func newStore(t *testing.T) *redisstore.SessionStore {
	t.Helper()
	url := os.Getenv("REDIS_URL")
	if url == "" {
		t.Skip("REDIS_URL not set")
	}
	client, err := redisstore.OpenPool(context.Background(), url)
	require.NoError(t, err)
	t.Cleanup(func() { client.Close() })

	store := redisstore.NewSessionStore(client)
	store.Prefix = "test-session:" + uuid.NewString() + ":"
	return store
}

func TestSessionStore_CommitFindDelete(t *testing.T) {
	store := newStore(t)

	_, found, err := store.Find("tok")
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, store.Commit("tok", []byte("data"), time.Now().Add(time.Minute)))
	b, found, err := store.Find("tok")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, []byte("data"), b)

	require.NoError(t, store.Delete("tok"))
	_, found, err = store.Find("tok")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestSessionStore_ExpiredCommitDeletes(t *testing.T) {
	store := newStore(t)

	require.NoError(t, store.Commit("tok", []byte("data"), time.Now().Add(time.Minute)))
	require.NoError(t, store.Commit("tok", []byte("data"), time.Now().Add(-time.Second)))

	_, found, err := store.Find("tok")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestOpenPool_BadURL(t *testing.T) {
	_, err := redisstore.OpenPool(context.Background(), "not a url")
	assert.Error(t, err)
}
