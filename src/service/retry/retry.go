package retry

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/BelphegorPrime/binance-trade-bot/src/config"
	"github.com/BelphegorPrime/binance-trade-bot/src/service/interfaces"
	"go.uber.org/zap"
)

// ErrRetriesExhausted is returned once every attempt failed. It wraps the last failure.
var ErrRetriesExhausted = errors.New("retries exhausted")

// Executor runs a fallible operation at most Attempts times.
//
// The warm-up delay is slept once before the first attempt and Delay between attempts.
// Only the first failure of a run is logged at error level, later ones at debug.
// Failures for which IsPermanent returns true end the run immediately.
type Executor struct {
	Attempts    int
	Warmup      time.Duration
	Delay       time.Duration
	IsPermanent func(err error) bool
	Log         interfaces.ILogger
	Statsd      interfaces.IStatsClient
}

func New(cfg config.Orders, log interfaces.ILogger, statsd interfaces.IStatsClient) *Executor {
	return &Executor{
		Attempts: cfg.Attempts,
		Warmup:   cfg.Warmup,
		Delay:    cfg.RetryDelay,
		Log:      log,
		Statsd:   statsd,
	}
}

// IsPermanent is the default classification: rejections and cancellation are not retried.
func IsPermanent(err error) bool {
	return errors.Is(err, interfaces.ErrRejected) ||
		errors.Is(err, context.Canceled) ||
		errors.Is(err, context.DeadlineExceeded)
}

// Permanent applies the executor's classification, falling back to IsPermanent.
func (e *Executor) Permanent(err error) bool {
	if e.IsPermanent != nil {
		return e.IsPermanent(err)
	}
	return IsPermanent(err)
}

// Do runs op until it succeeds, fails permanently or the attempt budget is spent.
func (e *Executor) Do(ctx context.Context, name string, op func(ctx context.Context) error) error {
	attempts := e.Attempts
	if attempts < 1 {
		attempts = 1
	}
	if err := Sleep(ctx, e.Warmup); err != nil {
		return err
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		err := op(ctx)
		if err == nil {
			if attempt > 1 {
				e.Log.Info("operation succeeded after retries",
					zap.String("operation", name),
					zap.Int("attempt", attempt),
				)
			}
			return nil
		}
		lastErr = err
		if e.Permanent(err) {
			e.Log.Error("operation failed permanently",
				zap.String("operation", name),
				zap.Int("attempt", attempt),
				zap.Error(err),
			)
			return err
		}
		if attempt == 1 {
			e.Log.Error("operation failed, retrying",
				zap.String("operation", name),
				zap.Int("attempts", attempts),
				zap.Error(err),
			)
		} else {
			e.Log.Debug("operation failed again",
				zap.String("operation", name),
				zap.Int("attempt", attempt),
				zap.Error(err),
			)
		}
		if attempt < attempts {
			if err := Sleep(ctx, e.Delay); err != nil {
				return err
			}
		}
	}

	if e.Statsd != nil {
		e.Statsd.Inc("retry.exhausted")
	}
	return fmt.Errorf("%s: %w after %d attempts: %w", name, ErrRetriesExhausted, attempts, lastErr)
}

// Run is Do for operations producing a value.
func Run[T any](ctx context.Context, e *Executor, name string, op func(ctx context.Context) (T, error)) (T, error) {
	var result T
	err := e.Do(ctx, name, func(ctx context.Context) error {
		v, err := op(ctx)
		if err != nil {
			return err
		}
		result = v
		return nil
	})
	return result, err
}

// Sleep pauses for d or until ctx is done.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
