package services

import (
	"context"
	"fmt"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/monocle-dev/taskboard/internal/cache"
	"github.com/monocle-dev/taskboard/internal/models"
	"github.com/monocle-dev/taskboard/internal/types"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus/hooks/test"
)

func TestGetUserAnalyticsCountsVisibleTasks(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.createUser(t, "Alice", "alice@x.com")
	bob := f.createUser(t, "Bob", "bob@x.com")

	due := time.Now().Add(24 * time.Hour)
	inputs := []CreateTaskInput{
		{Title: "a", Priority: models.PriorityHigh, Status: models.StatusBacklog, DueDate: &due},
		{Title: "b", Priority: models.PriorityModerate, Status: models.StatusInProgress},
		{Title: "c", Priority: models.PriorityLow, Status: models.StatusDone, DueDate: &due},
		{Title: "d", Priority: models.PriorityLow},
	}
	for _, in := range inputs {
		if _, err := f.tasks.CreateTask(ctx, alice.ID, in); err != nil {
			t.Fatalf("create %s: %v", in.Title, err)
		}
	}
	if _, err := f.tasks.CreateTask(ctx, bob.ID, CreateTaskInput{Title: "bob's", Priority: models.PriorityHigh}); err != nil {
		t.Fatalf("create bob's: %v", err)
	}

	got, err := f.tasks.GetUserAnalytics(ctx, alice.ID)
	if err != nil {
		t.Fatalf("analytics: %v", err)
	}
	want := types.Analytics{
		BacklogCount:          1,
		TodoCount:             1,
		InProgressCount:       1,
		CompletedCount:        1,
		LowPriorityCount:      2,
		ModeratePriorityCount: 1,
		HighPriorityCount:     1,
		DueDateCount:          2,
	}
	if got != want {
		t.Fatalf("expected %+v, got %+v", want, got)
	}
}

func TestGetUserAnalyticsUsesAndInvalidatesCache(t *testing.T) {
	m, err := miniredis.Run()
	if err != nil {
		t.Fatalf("start miniredis: %v", err)
	}
	t.Cleanup(m.Close)
	client := redis.NewClient(&redis.Options{Addr: m.Addr()})
	t.Cleanup(func() { client.Close() })

	conn := newTestDB(t)
	logger, _ := test.NewNullLogger()
	svc := NewTaskService(conn, logger, nil, cache.NewAnalyticsCache(client, time.Minute))
	f := &fixture{db: conn, tasks: svc}
	ctx := context.Background()
	alice := f.createUser(t, "Alice", "alice@x.com")

	if _, err := svc.CreateTask(ctx, alice.ID, CreateTaskInput{Title: "a", Priority: models.PriorityHigh}); err != nil {
		t.Fatalf("create: %v", err)
	}

	first, err := svc.GetUserAnalytics(ctx, alice.ID)
	if err != nil {
		t.Fatalf("analytics: %v", err)
	}
	if first.HighPriorityCount != 1 {
		t.Fatalf("unexpected analytics %+v", first)
	}
	if !m.Exists(fmt.Sprintf("analytics:%d", alice.ID)) {
		t.Fatalf("expected analytics to be cached")
	}

	if _, err := svc.CreateTask(ctx, alice.ID, CreateTaskInput{Title: "b", Priority: models.PriorityHigh}); err != nil {
		t.Fatalf("create: %v", err)
	}
	if m.Exists(fmt.Sprintf("analytics:%d", alice.ID)) {
		t.Fatalf("expected cache entry to be dropped after a mutation")
	}

	second, err := svc.GetUserAnalytics(ctx, alice.ID)
	if err != nil {
		t.Fatalf("analytics: %v", err)
	}
	if second.HighPriorityCount != 2 {
		t.Fatalf("expected fresh counts, got %+v", second)
	}
}

func TestGetUserAnalyticsSurvivesCacheOutage(t *testing.T) {
	m, err := miniredis.Run()
	if err != nil {
		t.Fatalf("start miniredis: %v", err)
	}
	client := redis.NewClient(&redis.Options{Addr: m.Addr(), MaxRetries: -1})
	t.Cleanup(func() { client.Close() })
	m.Close()

	conn := newTestDB(t)
	logger, hook := test.NewNullLogger()
	svc := NewTaskService(conn, logger, nil, cache.NewAnalyticsCache(client, time.Minute))
	f := &fixture{db: conn, tasks: svc}
	alice := f.createUser(t, "Alice", "alice@x.com")

	if _, err := svc.GetUserAnalytics(context.Background(), alice.ID); err != nil {
		t.Fatalf("analytics should not fail on cache errors: %v", err)
	}
	if len(hook.AllEntries()) == 0 {
		t.Fatalf("expected cache failure to be logged")
	}
}
