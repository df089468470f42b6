package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

type coin struct {
	Symbol string
	Change float64
}

func TestMemory(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	m := NewMemory[[]coin]().WithClock(func() time.Time { return now })

	t.Run("miss on empty cache", func(t *testing.T) {
		if _, ok := m.Load(ctx, "mooners_10"); ok {
			t.Fatalf("Empty cache should miss")
		}
	})

	m.Store(ctx, "mooners_10", []coin{{"PEPEUSDT", 42}}, 3*time.Minute)

	t.Run("hit before ttl", func(t *testing.T) {
		now = now.Add(2*time.Minute + 59*time.Second)
		v, ok := m.Load(ctx, "mooners_10")
		if !ok || len(v) != 1 || v[0].Symbol != "PEPEUSDT" {
			t.Fatalf("Expecting a hit, got %v %v", v, ok)
		}
	})

	t.Run("miss at ttl", func(t *testing.T) {
		now = now.Add(time.Second)
		if _, ok := m.Load(ctx, "mooners_10"); ok {
			t.Fatalf("Entry should expire once ttl has passed")
		}
	})

	t.Run("Clear", func(t *testing.T) {
		m.Store(ctx, "a", nil, time.Hour)
		m.Clear(ctx)
		if _, ok := m.Load(ctx, "a"); ok {
			t.Fatalf("Cleared cache should miss")
		}
	})
}

func TestRedis(t *testing.T) {
	ctx := context.Background()
	server := miniredis.RunT(t)
	client, err := NewRedisClient(ctx, "redis://"+server.Addr())
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	defer client.Close()

	r := NewRedis[[]coin](client, "cryptobot:mooners")

	t.Run("round trip", func(t *testing.T) {
		r.Store(ctx, "mooners_10", []coin{{"WIFUSDT", 12.5}}, 3*time.Minute)
		v, ok := r.Load(ctx, "mooners_10")
		if !ok || len(v) != 1 || v[0].Change != 12.5 {
			t.Fatalf("Expecting a hit, got %v %v", v, ok)
		}
		if !server.Exists("cryptobot:mooners:mooners_10") {
			t.Fatalf("Key should be prefixed")
		}
	})

	t.Run("expires on the server", func(t *testing.T) {
		server.FastForward(3 * time.Minute)
		if _, ok := r.Load(ctx, "mooners_10"); ok {
			t.Fatalf("Entry should have expired")
		}
	})

	t.Run("corrupted entry is a miss", func(t *testing.T) {
		server.Set("cryptobot:mooners:bad", "{not json")
		if _, ok := r.Load(ctx, "bad"); ok {
			t.Fatalf("Corrupted entry should miss")
		}
	})

	t.Run("Clear only touches the prefix", func(t *testing.T) {
		r.Store(ctx, "mooners_5", nil, time.Minute)
		server.Set("other:key", "1")
		r.Clear(ctx)
		if server.Exists("cryptobot:mooners:mooners_5") {
			t.Fatalf("Prefixed key should be removed")
		}
		if !server.Exists("other:key") {
			t.Fatalf("Foreign key should survive")
		}
	})

	t.Run("shares a plain client", func(t *testing.T) {
		plain := redis.NewClient(&redis.Options{Addr: server.Addr()})
		defer plain.Close()
		other := NewRedis[[]coin](plain, "cryptobot:newcoins")
		other.Store(ctx, "new_coins", []coin{{"TONUSDT", 3}}, 5*time.Minute)
		if ttl := server.TTL("cryptobot:newcoins:new_coins"); ttl != 5*time.Minute {
			t.Fatalf("Expecting a 5m ttl, got %s", ttl)
		}
		if _, ok := r.Load(ctx, "new_coins"); ok {
			t.Fatalf("Prefixes should not collide")
		}
	})

	t.Run("unreachable server", func(t *testing.T) {
		if _, err := NewRedisClient(ctx, "redis://127.0.0.1:1"); err == nil {
			t.Fatalf("Expecting a ping error")
		}
		if _, err := NewRedisClient(ctx, "://bad"); err == nil {
			t.Fatalf("Expecting a parse error")
		}
	})
}

func TestCacheInterface(t *testing.T) {
	var _ Cache[int] = NewMemory[int]()
	var _ Cache[int] = (*Redis[int])(nil)
}
