package steamgifts

import (
	"context"
	"time"

	retry "github.com/avast/retry-go/v4"
)

// RetryPolicy bounds transient-failure retries: a fixed number of attempts
// with a fixed delay plus random jitter between them.
type RetryPolicy struct {
	Attempts uint
	Delay    time.Duration
	Jitter   time.Duration
}

// Do runs op until it succeeds, the attempt cap is reached, or ctx is
// cancelled. The last error is returned on exhaustion.
func (p RetryPolicy) Do(ctx context.Context, op func() error) error {
	attempts := p.Attempts
	if attempts == 0 {
		attempts = 1
	}
	opts := []retry.Option{
		retry.Context(ctx),
		retry.Attempts(attempts),
		retry.Delay(p.Delay),
		retry.DelayType(retry.FixedDelay),
		retry.LastErrorOnly(true),
	}
	if p.Jitter > 0 {
		opts = append(opts,
			retry.MaxJitter(p.Jitter),
			retry.DelayType(retry.CombineDelay(retry.FixedDelay, retry.RandomDelay)),
		)
	}
	return retry.Do(op, opts...)
}
