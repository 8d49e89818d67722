package paranoia

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/winworks/paranoia/internal/testutils"
)

func setupRedisTest(t *testing.T) (*redis.Client, *RedisCache[testutils.Post, int64]) {
	client := redis.NewClient(&redis.Options{
		Addr: "localhost:6379",
		DB:   1, // Use test database
	})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		t.Skip("Redis not available for testing:", err)
	}

	client.FlushDB(ctx)

	keyFunc := func(id int64) string {
		return fmt.Sprintf("post:%d", id)
	}

	cache := NewRedisCache[testutils.Post, int64](client, 5*time.Minute, keyFunc)

	return client, cache
}

func TestRedisCache_PutGet(t *testing.T) {
	client, cache := setupRedisTest(t)
	defer client.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	post := &testutils.Post{ID: 1, Title: "cached"}
	if err := cache.Put(ctx, 1, post); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	got, err := cache.Get(ctx, 1)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.ID != 1 || got.Title != "cached" {
		t.Errorf("unexpected record: %+v", got)
	}
	if got.DeletedAt != nil {
		t.Errorf("expected nil marker, got %v", got.DeletedAt)
	}
}

func TestRedisCache_MarkerSurvivesRoundTrip(t *testing.T) {
	client, cache := setupRedisTest(t)
	defer client.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	now := time.Now().UTC().Truncate(time.Second)
	post := &testutils.Post{ID: 2, Title: "gone", DeletedAt: &now}
	if err := cache.Put(ctx, 2, post); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	got, err := cache.Get(ctx, 2)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.DeletedAt == nil || !got.DeletedAt.Equal(now) {
		t.Errorf("expected marker %v, got %v", now, got.DeletedAt)
	}
}

func TestRedisCache_GetMissing(t *testing.T) {
	client, cache := setupRedisTest(t)
	defer client.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if _, err := cache.Get(ctx, 99); !errors.Is(err, ErrItemNotFound) {
		t.Errorf("expected ErrItemNotFound, got: %v", err)
	}
}

func TestRedisCache_Drop(t *testing.T) {
	client, cache := setupRedisTest(t)
	defer client.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	post := &testutils.Post{ID: 3, Title: "dropped"}
	if err := cache.Put(ctx, 3, post); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	if err := cache.Drop(ctx, 3); err != nil {
		t.Fatalf("Drop failed: %v", err)
	}
	if _, err := cache.Get(ctx, 3); !errors.Is(err, ErrItemNotFound) {
		t.Errorf("expected ErrItemNotFound after drop, got: %v", err)
	}

	// dropping an absent key is not an error
	if err := cache.Drop(ctx, 3); err != nil {
		t.Errorf("Drop on missing key failed: %v", err)
	}
}

func TestRedisCache_PutNil(t *testing.T) {
	client, cache := setupRedisTest(t)
	defer client.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if err := cache.Put(ctx, 4, nil); err == nil {
		t.Error("expected error for nil item")
	}
}
