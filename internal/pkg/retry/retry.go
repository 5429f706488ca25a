// Package retry provides the linear retry policy used for startup work such
// as connecting to the database and registering the webhook.
package retry

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// Linear is a backoff.BackOff whose n-th delay is n*Step (5s, 10s, 15s, ...).
type Linear struct {
	Step    time.Duration
	attempt int64
}

// NextBackOff returns the delay before the next attempt.
func (l *Linear) NextBackOff() time.Duration {
	l.attempt++
	return time.Duration(l.attempt) * l.Step
}

// Reset restarts the sequence.
func (l *Linear) Reset() {
	l.attempt = 0
}

// Do runs op until it succeeds, maxRetries retries are exhausted or ctx is
// done. notify is called before every wait and may be nil.
func Do(ctx context.Context, step time.Duration, maxRetries int, op func() error, notify func(err error, wait time.Duration)) error {
	if maxRetries < 0 {
		maxRetries = 0
	}
	policy := backoff.WithContext(
		backoff.WithMaxRetries(&Linear{Step: step}, uint64(maxRetries)),
		ctx,
	)
	if notify == nil {
		return backoff.Retry(op, policy)
	}
	return backoff.RetryNotify(op, policy, notify)
}
