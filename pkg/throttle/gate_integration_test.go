//go:build integration

package throttle

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// setupRedis starts a Redis container and returns a client
func setupRedis(t *testing.T) (*redis.Client, func()) {
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "redis:7-alpine",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor:   wait.ForLog("Ready to accept connections"),
	}

	redisContainer, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		t.Fatalf("Failed to start Redis container: %v", err)
	}

	endpoint, err := redisContainer.Endpoint(ctx, "")
	if err != nil {
		t.Fatalf("Failed to get Redis endpoint: %v", err)
	}

	client := redis.NewClient(&redis.Options{Addr: endpoint})
	if err := client.Ping(ctx).Err(); err != nil {
		t.Fatalf("Failed to connect to Redis: %v", err)
	}

	cleanup := func() {
		client.Close()
		redisContainer.Terminate(ctx)
	}
	return client, cleanup
}

// Several instances share one Redis; only one may sync per interval.
func TestRedisGate_Integration_SharedAcrossInstances(t *testing.T) {
	client, cleanup := setupRedis(t)
	defer cleanup()

	gates := make([]*RedisGate, 5)
	for i := range gates {
		gates[i] = NewRedisGate(client, 2*time.Second, zerolog.Nop())
	}

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		allowed int
	)
	for _, g := range gates {
		wg.Add(1)
		go func(g *RedisGate) {
			defer wg.Done()
			ok, err := g.Allow(context.Background(), "orders")
			if err != nil {
				t.Errorf("Allow() error = %v", err)
				return
			}
			if ok {
				mu.Lock()
				allowed++
				mu.Unlock()
			}
		}(g)
	}
	wg.Wait()

	if allowed != 1 {
		t.Fatalf("allowed = %d, want 1", allowed)
	}

	time.Sleep(2500 * time.Millisecond)

	ok, err := gates[0].Allow(context.Background(), "orders")
	if err != nil {
		t.Fatalf("Allow() after expiry error = %v", err)
	}
	if !ok {
		t.Error("Allow() after interval = false, want true")
	}
}
