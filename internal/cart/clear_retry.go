package cart

import (
	"context"
	"time"

	"github.com/sethvargo/go-retry"
	"go.uber.org/multierr"

	pkgerrors "github.com/lmdelacruz/evride-storefront/pkg/errors"
	"github.com/lmdelacruz/evride-storefront/pkg/logger"
	"github.com/lmdelacruz/evride-storefront/pkg/metrics"
)

// Clearer is the slice of Client the retry wrapper needs.
type Clearer interface {
	Clear(ctx context.Context) error
}

// RetryPolicy tunes the post-order clear loop. Zero values fall back to the
// storefront defaults: three attempts, one second apart.
type RetryPolicy struct {
	Attempts int
	Backoff  time.Duration
}

func (p RetryPolicy) withDefaults() RetryPolicy {
	if p.Attempts < 1 {
		p.Attempts = 3
	}
	if p.Backoff <= 0 {
		p.Backoff = time.Second
	}
	return p
}

// ClearWithRetry empties the cart after an order is placed, absorbing
// transient failures. It resolves to a boolean and never returns an error:
// the order already exists upstream, so a failed cleanup must not unwind
// the confirmation the user is about to see. Exhausted attempts are logged
// with every error encountered along the way.
func ClearWithRetry(ctx context.Context, svc Clearer, policy RetryPolicy, logg *logger.Logger, m *metrics.UpstreamMetrics) bool {
	policy = policy.withDefaults()

	var attempts int
	var failures error

	backoff := retry.WithMaxRetries(uint64(policy.Attempts-1), retry.NewConstant(policy.Backoff))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		attempts++
		if err := svc.Clear(ctx); err != nil {
			failures = multierr.Append(failures, err)
			m.IncClearRetry("failure")
			return retry.RetryableError(err)
		}
		m.IncClearRetry("success")
		return nil
	})

	if err != nil {
		if logg != nil {
			lctx := logg.WithFields(ctx, map[string]any{
				"attempts":    attempts,
				"error_chain": pkgerrors.Dump(failures).Chain,
			})
			logg.Error(lctx, "cart.clear_exhausted", failures)
		}
		return false
	}
	return true
}
