package cache

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/bytedance/sonic"
	"github.com/monocle-dev/taskboard/internal/types"
	"github.com/redis/go-redis/v9"
)

const analyticsKeyPrefix = "analytics"

type cachedAnalytics struct {
	Version   int             `json:"version"`
	CachedAt  time.Time       `json:"cachedAt"`
	Analytics types.Analytics `json:"analytics"`
}

const analyticsVersion = 1

// AnalyticsCache keeps per-user analytics in Redis until one of the user's
// visible tasks changes.
type AnalyticsCache struct {
	client *redis.Client
	ttl    time.Duration
	now    func() time.Time
}

func NewAnalyticsCache(client *redis.Client, ttl time.Duration) *AnalyticsCache {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &AnalyticsCache{client: client, ttl: ttl, now: time.Now}
}

func (c *AnalyticsCache) key(userID uint) string {
	return analyticsKeyPrefix + ":" + strconv.FormatUint(uint64(userID), 10)
}

// Get reports a miss for absent entries and for entries written by another
// payload version.
func (c *AnalyticsCache) Get(ctx context.Context, userID uint) (types.Analytics, bool, error) {
	raw, err := c.client.Get(ctx, c.key(userID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return types.Analytics{}, false, nil
	}
	if err != nil {
		return types.Analytics{}, false, err
	}

	var entry cachedAnalytics
	if err := sonic.Unmarshal(raw, &entry); err != nil {
		return types.Analytics{}, false, err
	}
	if entry.Version != analyticsVersion {
		return types.Analytics{}, false, nil
	}
	return entry.Analytics, true, nil
}

func (c *AnalyticsCache) Set(ctx context.Context, userID uint, analytics types.Analytics) error {
	payload, err := sonic.Marshal(cachedAnalytics{
		Version:   analyticsVersion,
		CachedAt:  c.now().UTC(),
		Analytics: analytics,
	})
	if err != nil {
		return err
	}
	return c.client.Set(ctx, c.key(userID), payload, c.ttl).Err()
}

func (c *AnalyticsCache) Invalidate(ctx context.Context, userIDs ...uint) error {
	if len(userIDs) == 0 {
		return nil
	}
	keys := make([]string, 0, len(userIDs))
	for _, id := range userIDs {
		keys = append(keys, c.key(id))
	}
	return c.client.Del(ctx, keys...).Err()
}
