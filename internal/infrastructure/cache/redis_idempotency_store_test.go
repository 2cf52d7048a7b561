//go:build integration

package cache

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

func startRedis(t *testing.T) *redis.Client {
	t.Helper()
	ctx := t.Context()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForLog("Ready to accept connections"),
		},
		Started: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = testcontainers.TerminateContainer(container) })

	endpoint, err := container.Endpoint(ctx, "")
	require.NoError(t, err)
	return redis.NewClient(&redis.Options{Addr: endpoint})
}

func TestRedisIdempotencyStore(t *testing.T) {
	store := NewRedisIdempotencyStore(startRedis(t), "test:")
	defer store.Close()
	ctx := t.Context()

	processed, err := store.IsProcessed(ctx, "po-1:item-1")
	require.NoError(t, err)
	assert.False(t, processed)

	first, err := store.MarkProcessed(ctx, "po-1:item-1", time.Minute)
	require.NoError(t, err)
	assert.True(t, first)

	again, err := store.MarkProcessed(ctx, "po-1:item-1", time.Minute)
	require.NoError(t, err)
	assert.False(t, again)

	processed, err = store.IsProcessed(ctx, "po-1:item-1")
	require.NoError(t, err)
	assert.True(t, processed)
}

func TestRedisIdempotencyStore_ConcurrentMarkHasOneWinner(t *testing.T) {
	store := NewRedisIdempotencyStore(startRedis(t), "")
	defer store.Close()
	ctx := t.Context()

	var winners atomic.Int32
	var wg sync.WaitGroup
	for range 20 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if ok, err := store.MarkProcessed(ctx, "contended", time.Minute); err == nil && ok {
				winners.Add(1)
			}
		}()
	}
	wg.Wait()
	assert.EqualValues(t, 1, winners.Load())
}
