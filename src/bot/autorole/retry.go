package autorole

import (
	"context"
	"time"

	"github.com/stake-plus/guildpanel/src/logging"
)

const maxBackoff = 30 * time.Second

// withRetry runs fn until it succeeds, fails with something other than a rate
// limit, or attempts run out. The delay doubles after each rate limit.
func withRetry(ctx context.Context, attempts int, delay time.Duration, fn func() error) error {
	if attempts <= 0 {
		attempts = 1
	}
	var err error
	for i := 0; i < attempts; i++ {
		err = fn()
		if err == nil || !logging.IsRateLimit(err) || i == attempts-1 {
			return err
		}

		t := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			t.Stop()
			return ctx.Err()
		case <-t.C:
		}
		if delay < maxBackoff {
			delay *= 2
		}
	}
	return err
}
