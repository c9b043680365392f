package ledger

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// withRetry runs op with bounded exponential backoff: three retries after the
// first attempt, then the last error surfaces. Permission failures and
// context cancellation are permanent and never retried.
func withRetry(ctx context.Context, op func() error) error {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 100 * time.Millisecond
	b.MaxInterval = 2 * time.Second

	return backoff.Retry(func() error {
		err := op()
		if errors.Is(err, ErrPermissionDenied) {
			return backoff.Permanent(err)
		}
		return err
	}, backoff.WithMaxRetries(backoff.WithContext(b, ctx), 3))
}
