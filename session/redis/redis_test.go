package redis

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/mohammad-safakhou/newsrag/config"
	"github.com/mohammad-safakhou/newsrag/models"
	"github.com/redis/go-redis/v9"
	"github.com/testcontainers/testcontainers-go"
	tcRedis "github.com/testcontainers/testcontainers-go/modules/redis"
	"github.com/testcontainers/testcontainers-go/wait"
)

func newMiniredisStore(t *testing.T) (*Store, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("failed to start miniredis: %v", err)
	}
	t.Cleanup(mr.Close)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewWithClient(client, time.Hour), mr
}

func TestAppendStoresJSONAtListHead(t *testing.T) {
	s, mr := newMiniredisStore(t)
	ctx := t.Context()
	if err := s.Append(ctx, "abc", models.Turn{User: "first", Bot: "1"}); err != nil {
		t.Fatalf("Append: %v", err)
	}
	if err := s.Append(ctx, "abc", models.Turn{User: "second", Bot: "2"}); err != nil {
		t.Fatalf("Append: %v", err)
	}

	items, err := mr.List("session:abc")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(items))
	}
	var head models.Turn
	if err := json.Unmarshal([]byte(items[0]), &head); err != nil {
		t.Fatalf("decode head: %v", err)
	}
	if head.User != "second" {
		t.Fatalf("newest turn must be at the head, got %+v", head)
	}
	if items[1] != `{"user":"first","bot":"1"}` {
		t.Fatalf("unexpected encoding %s", items[1])
	}
	if ttl := mr.TTL("session:abc"); ttl != time.Hour {
		t.Fatalf("expected ttl 1h, got %v", ttl)
	}
}

func TestReadReturnsOldestFirst(t *testing.T) {
	s, _ := newMiniredisStore(t)
	ctx := t.Context()
	for _, q := range []string{"a", "b", "c", "d"} {
		if err := s.Append(ctx, "s", models.Turn{User: q, Bot: q + "!"}); err != nil {
			t.Fatalf("Append: %v", err)
		}
	}
	got, err := s.Read(ctx, "s")
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	want := []string{"a", "b", "c", "d"}
	if len(got) != len(want) {
		t.Fatalf("expected %d turns, got %d", len(want), len(got))
	}
	for i, w := range want {
		if got[i].User != w {
			t.Fatalf("turn %d: expected %q, got %q", i, w, got[i].User)
		}
	}
}

func TestReadAbsentKeyIsEmpty(t *testing.T) {
	s, _ := newMiniredisStore(t)
	got, err := s.Read(t.Context(), "nobody")
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected empty, got %+v", got)
	}
}

func TestClearDeletesKey(t *testing.T) {
	s, mr := newMiniredisStore(t)
	ctx := t.Context()
	_ = s.Append(ctx, "s", models.Turn{User: "q", Bot: "a"})
	if err := s.Clear(ctx, "s"); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if mr.Exists("session:s") {
		t.Fatalf("key should be gone")
	}
	if err := s.Clear(ctx, "s"); err != nil {
		t.Fatalf("Clear on absent key: %v", err)
	}
}

func TestExpiryAfterTTL(t *testing.T) {
	s, mr := newMiniredisStore(t)
	ctx := t.Context()
	_ = s.Append(ctx, "s", models.Turn{User: "q", Bot: "a"})

	mr.FastForward(59 * time.Minute)
	_ = s.Append(ctx, "s", models.Turn{User: "q2", Bot: "a2"})
	mr.FastForward(59 * time.Minute)
	got, _ := s.Read(ctx, "s")
	if len(got) != 2 {
		t.Fatalf("append should refresh the ttl, got %+v", got)
	}

	mr.FastForward(2 * time.Minute)
	got, err := s.Read(ctx, "s")
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected expired session, got %+v", got)
	}
}

func TestReadFailsWhenServerDown(t *testing.T) {
	s, mr := newMiniredisStore(t)
	mr.Close()
	if _, err := s.Read(t.Context(), "s"); err == nil {
		t.Fatalf("expected error with server down")
	}
	if err := s.Append(t.Context(), "s", models.Turn{}); err == nil {
		t.Fatalf("expected error with server down")
	}
}

func TestClientOptions(t *testing.T) {
	opts, err := clientOptions(config.RedisConfig{URL: "redis://:secret@cache:6380/2"})
	if err != nil {
		t.Fatalf("clientOptions: %v", err)
	}
	if opts.Addr != "cache:6380" || opts.Password != "secret" || opts.DB != 2 {
		t.Fatalf("unexpected options %+v", opts)
	}

	opts, err = clientOptions(config.RedisConfig{Host: "localhost", Port: "6379", DB: 1, Timeout: 2 * time.Second})
	if err != nil {
		t.Fatalf("clientOptions: %v", err)
	}
	if opts.Addr != "localhost:6379" || opts.DB != 1 || opts.ReadTimeout != 2*time.Second {
		t.Fatalf("unexpected options %+v", opts)
	}

	if _, err := clientOptions(config.RedisConfig{URL: "http://nope"}); err == nil {
		t.Fatalf("expected invalid url error")
	}
}

func TestStoreAgainstRedisContainer(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	ctx := context.Background()
	redisC, err := tcRedis.RunContainer(ctx, testcontainers.WithWaitStrategy(wait.ForListeningPort("6379/tcp")))
	if err != nil {
		t.Fatalf("redis container: %v", err)
	}
	defer func() { _ = redisC.Terminate(ctx) }()

	uri, err := redisC.ConnectionString(ctx)
	if err != nil {
		t.Fatalf("redis uri: %v", err)
	}
	s, err := New(ctx, config.RedisConfig{URL: uri}, time.Hour)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer func() { _ = s.Close() }()

	if err := s.Append(ctx, "it", models.Turn{User: "hello", Bot: "hi"}); err != nil {
		t.Fatalf("Append: %v", err)
	}
	if err := s.Append(ctx, "it", models.Turn{User: "bye", Bot: "ciao"}); err != nil {
		t.Fatalf("Append: %v", err)
	}
	got, err := s.Read(ctx, "it")
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if len(got) != 2 || got[0].User != "hello" || got[1].User != "bye" {
		t.Fatalf("unexpected turns %+v", got)
	}
	ttl, err := s.client.TTL(ctx, key("it")).Result()
	if err != nil {
		t.Fatalf("TTL: %v", err)
	}
	if ttl <= 59*time.Minute || ttl > time.Hour {
		t.Fatalf("unexpected ttl %v", ttl)
	}
	if err := s.Clear(ctx, "it"); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	got, _ = s.Read(ctx, "it")
	if len(got) != 0 {
		t.Fatalf("expected empty after clear")
	}
}
