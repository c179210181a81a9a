package monitors

import (
	"context"
	"errors"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/glebarez/sqlite"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

func TestRunReportsRequiredFailures(t *testing.T) {
	checks := []Check{
		{Name: "ok", Ping: func(context.Context) error { return nil }},
		{Name: "cache", Optional: true, Ping: func(context.Context) error { return errors.New("refused") }},
	}

	results, healthy := Run(context.Background(), checks)
	if !healthy {
		t.Fatalf("optional failure must not mark the service unhealthy")
	}
	if results[1].Status != "down" || results[1].Error != "refused" {
		t.Fatalf("unexpected result %+v", results[1])
	}

	checks = append(checks, Check{Name: "db", Ping: func(context.Context) error { return errors.New("gone") }})
	if _, healthy := Run(context.Background(), checks); healthy {
		t.Fatalf("required failure must mark the service unhealthy")
	}
}

func TestDependencyChecks(t *testing.T) {
	conn, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	results, healthy := Run(context.Background(), []Check{DatabaseCheck(conn), RedisCheck(client)})
	if !healthy {
		t.Fatalf("expected healthy, got %+v", results)
	}

	mr.Close()
	results, healthy = Run(context.Background(), []Check{DatabaseCheck(conn), RedisCheck(client)})
	if !healthy {
		t.Fatalf("redis outage should be tolerated")
	}
	if results[1].Status != "down" {
		t.Fatalf("expected redis down, got %+v", results[1])
	}
}
