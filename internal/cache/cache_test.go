package cache

import (
	"testing"
	"time"

	"github.com/stashbin/stashbin/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryCacheRoundTrip(t *testing.T) {
	cacher := NewMemoryCache(1024 * 1024)

	in := models.File{ID: 7, UserID: 3, OriginalName: "a.txt", Size: 42, ShareToken: "tok"}
	require.NoError(t, cacher.Set("files:7", &in, 0))

	var out models.File
	require.NoError(t, cacher.Get("files:7", &out))
	assert.Equal(t, in.ID, out.ID)
	assert.Equal(t, in.OriginalName, out.OriginalName)
	assert.Equal(t, in.ShareToken, out.ShareToken)
}

func TestMemoryCacheMiss(t *testing.T) {
	cacher := NewMemoryCache(1024 * 1024)

	var out models.File
	assert.Error(t, cacher.Get("files:404", &out))
}

func TestMemoryCacheDelete(t *testing.T) {
	cacher := NewMemoryCache(1024 * 1024)

	require.NoError(t, cacher.Set("users:1", &models.User{ID: 1, Username: "alice"}, 0))
	require.NoError(t, cacher.Set("users:2", &models.User{ID: 2, Username: "bobby"}, 0))
	require.NoError(t, cacher.Delete("users:1", "users:2"))

	var out models.User
	assert.Error(t, cacher.Get("users:1", &out))
	assert.Error(t, cacher.Get("users:2", &out))
}

func TestMemoryCacheExpiry(t *testing.T) {
	cacher := NewMemoryCache(1024 * 1024)

	require.NoError(t, cacher.Set("users:1", &models.User{ID: 1}, time.Second))

	var out models.User
	require.NoError(t, cacher.Get("users:1", &out))
	assert.Equal(t, int64(1), out.ID)
}
