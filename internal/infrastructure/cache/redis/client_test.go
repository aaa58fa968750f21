package redis_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	rediscache "github.com/unifiedui/handoff-service/internal/infrastructure/cache/redis"
)

func setupMiniredis(t *testing.T, prefix string) (*miniredis.Miniredis, *rediscache.Client) {
	t.Helper()

	mr, err := miniredis.Run()
	require.NoError(t, err)

	client, err := rediscache.NewClient(rediscache.Config{
		Host:       mr.Host(),
		Port:       mr.Port(),
		DefaultTTL: time.Hour,
		KeyPrefix:  prefix,
	})
	require.NoError(t, err)

	t.Cleanup(func() {
		client.Close()
		mr.Close()
	})

	return mr, client
}

func TestNewClient_ConnectionRefused(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	host, port := mr.Host(), mr.Port()
	mr.Close()

	client, err := rediscache.NewClient(rediscache.Config{Host: host, Port: port})

	assert.Error(t, err)
	assert.Nil(t, client)
}

func TestClient_SetAndGet(t *testing.T) {
	_, client := setupMiniredis(t, "")
	ctx := context.Background()

	require.NoError(t, client.Set(ctx, "k", []byte("v"), time.Minute))

	got, err := client.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("v"), got)
}

func TestClient_GetMissingReturnsNil(t *testing.T) {
	_, client := setupMiniredis(t, "")

	got, err := client.Get(context.Background(), "missing")

	assert.NoError(t, err)
	assert.Nil(t, got)
}

func TestClient_DefaultTTLApplied(t *testing.T) {
	mr, client := setupMiniredis(t, "")

	require.NoError(t, client.Set(context.Background(), "k", []byte("v"), 0))

	assert.Equal(t, time.Hour, mr.TTL("k"))
}

func TestClient_GetDoesNotExtendTTL(t *testing.T) {
	mr, client := setupMiniredis(t, "")
	ctx := context.Background()
	require.NoError(t, client.Set(ctx, "k", []byte("v"), time.Minute))

	mr.FastForward(30 * time.Second)
	_, err := client.Get(ctx, "k")
	require.NoError(t, err)

	assert.Equal(t, 30*time.Second, mr.TTL("k"))

	mr.FastForward(31 * time.Second)
	got, err := client.Get(ctx, "k")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestClient_KeyPrefix(t *testing.T) {
	mr, client := setupMiniredis(t, "handoff:")
	ctx := context.Background()

	require.NoError(t, client.Set(ctx, "capability:bot:tok", []byte("x"), time.Minute))

	assert.True(t, mr.Exists("handoff:capability:bot:tok"))
	assert.False(t, mr.Exists("capability:bot:tok"))
}

func TestClient_Delete(t *testing.T) {
	_, client := setupMiniredis(t, "")
	ctx := context.Background()
	require.NoError(t, client.Set(ctx, "k", []byte("v"), time.Minute))

	deleted, err := client.Delete(ctx, "k")
	require.NoError(t, err)
	assert.True(t, deleted)

	deleted, err = client.Delete(ctx, "k")
	require.NoError(t, err)
	assert.False(t, deleted)
}

func TestClient_DeletePattern(t *testing.T) {
	mr, client := setupMiniredis(t, "p:")
	ctx := context.Background()
	for _, k := range []string{"capability:a:1", "capability:a:2", "capability:b:1"} {
		require.NoError(t, client.Set(ctx, k, []byte("v"), time.Minute))
	}

	n, err := client.DeletePattern(ctx, "capability:a:*")

	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
	assert.True(t, mr.Exists("p:capability:b:1"))
}

func TestClient_Ping(t *testing.T) {
	_, client := setupMiniredis(t, "")

	assert.NoError(t, client.Ping(context.Background()))
}

func TestNewEmbedded_RoundTrip(t *testing.T) {
	client, err := rediscache.NewEmbedded("dev:", time.Minute)
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, client.Ping(ctx))
	require.NoError(t, client.Set(ctx, "k", []byte("v"), 0))

	got, err := client.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("v"), got)

	require.NoError(t, client.Close())
}
