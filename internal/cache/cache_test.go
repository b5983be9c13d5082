package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type payload struct {
	Name string `json:"name"`
}

func TestKeys(t *testing.T) {
	assert.Equal(t, "ben:refreshToken", RefreshTokenKey("ben"))
	assert.Equal(t, "ben:communities", CommunitiesKey("ben"))
	assert.Equal(t, "ben:posts", PostsKey("ben"))
	assert.Equal(t, "verification:abc", VerificationKey("abc"))
}

func TestMemory_SetGetDelete(t *testing.T) {
	c := NewMemory(0)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "k", time.Minute, payload{Name: "golang"}))

	var got payload
	ok, err := c.Get(ctx, "k", &got)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "golang", got.Name)

	require.NoError(t, c.Delete(ctx, "k"))
	ok, err = c.Get(ctx, "k", &got)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMemory_Expires(t *testing.T) {
	c := NewMemory(0)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "short", 20*time.Millisecond, "v"))
	time.Sleep(60 * time.Millisecond)

	var got string
	ok, err := c.Get(ctx, "short", &got)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMemory_ResetMovesKeyBetweenTTLs(t *testing.T) {
	c := NewMemory(0)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "k", time.Hour, "old"))
	require.NoError(t, c.Set(ctx, "k", time.Minute, "new"))

	var got string
	ok, err := c.Get(ctx, "k", &got)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "new", got)
}

func TestRedis_SetGetDelete(t *testing.T) {
	mr := miniredis.RunT(t)
	c := NewRedis(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, RefreshTokenKey("ben"), RefreshTokenTTL, "token"))
	assert.Equal(t, RefreshTokenTTL, mr.TTL("ben:refreshToken"))

	raw, err := mr.Get("ben:refreshToken")
	require.NoError(t, err)
	assert.Equal(t, `"token"`, raw)

	var got string
	ok, err := c.Get(ctx, RefreshTokenKey("ben"), &got)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "token", got)

	require.NoError(t, c.Delete(ctx, RefreshTokenKey("ben")))
	ok, err = c.Get(ctx, RefreshTokenKey("ben"), &got)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRedis_Expires(t *testing.T) {
	mr := miniredis.RunT(t)
	c := NewRedis(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, PostsKey("ben"), WarmTTL, payload{Name: "post"}))
	mr.FastForward(WarmTTL + time.Second)

	var got payload
	ok, err := c.Get(ctx, PostsKey("ben"), &got)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestDial_BadURL(t *testing.T) {
	_, err := Dial(context.Background(), "not a url", "")
	assert.Error(t, err)
}
