package ledger

import (
	"context"
	"time"

	"github.com/sethvargo/go-retry"
)

// Retry runs fn until it succeeds, fails with a non-retryable error, or has
// been retried maxRetries times. Only errors for which IsRetryable holds are
// retried, with jittered exponential backoff.
func Retry(ctx context.Context, maxRetries uint64, fn func(ctx context.Context) error) error {
	backoff := retry.NewExponential(25 * time.Millisecond)
	backoff = retry.WithJitter(10*time.Millisecond, backoff)
	backoff = retry.WithCappedDuration(time.Second, backoff)
	backoff = retry.WithMaxRetries(maxRetries, backoff)

	return retry.Do(ctx, backoff, func(ctx context.Context) error {
		err := fn(ctx)
		if err != nil && IsRetryable(err) {
			return retry.RetryableError(err)
		}
		return err
	})
}
