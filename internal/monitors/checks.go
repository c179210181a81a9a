package monitors

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

const defaultTimeout = 2 * time.Second

// Check pings one backing dependency. Optional checks report a failure
// without marking the service unhealthy.
type Check struct {
	Name     string
	Optional bool
	Ping     func(ctx context.Context) error
}

type Result struct {
	Name   string `json:"name"`
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

func DatabaseCheck(conn *gorm.DB) Check {
	return Check{
		Name: "database",
		Ping: func(ctx context.Context) error {
			sqlDB, err := conn.DB()
			if err != nil {
				return fmt.Errorf("failed to get database handle: %w", err)
			}
			if err := sqlDB.PingContext(ctx); err != nil {
				return fmt.Errorf("failed to ping database: %w", err)
			}
			return nil
		},
	}
}

func RedisCheck(client *redis.Client) Check {
	return Check{
		Name:     "redis",
		Optional: true,
		Ping: func(ctx context.Context) error {
			if err := client.Ping(ctx).Err(); err != nil {
				return fmt.Errorf("failed to ping redis: %w", err)
			}
			return nil
		},
	}
}

// Run runs every check with its own timeout and reports whether all
// required checks passed.
func Run(ctx context.Context, checks []Check) ([]Result, bool) {
	results := make([]Result, 0, len(checks))
	healthy := true

	for _, check := range checks {
		checkCtx, cancel := context.WithTimeout(ctx, defaultTimeout)
		err := check.Ping(checkCtx)
		cancel()

		result := Result{Name: check.Name, Status: "up"}
		if err != nil {
			result.Status = "down"
			result.Error = err.Error()
			if !check.Optional {
				healthy = false
			}
		}
		results = append(results, result)
	}

	return results, healthy
}
