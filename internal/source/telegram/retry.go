package telegram

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/gotd/td/tgerr"
	"go.uber.org/zap"
)

// RetryPolicy bounds how hard a single API call is retried.
type RetryPolicy struct {
	// Retries is the number of attempts after the first one.
	Retries int
	// Timeout bounds each attempt.
	Timeout time.Duration
	// MaxFloodWait is the longest FLOOD_WAIT honored before giving up.
	MaxFloodWait time.Duration
	// InitialInterval seeds the exponential backoff between attempts.
	InitialInterval time.Duration
}

// DefaultRetryPolicy returns the policy used when none is configured.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		Retries:         5,
		Timeout:         30 * time.Second,
		MaxFloodWait:    5 * time.Minute,
		InitialInterval: time.Second,
	}
}

// permanentCodes are RPC error classes that never succeed on retry.
var permanentCodes = map[int]struct{}{
	400: {},
	401: {},
	403: {},
	406: {},
}

func isPermanent(err error) bool {
	if errors.Is(err, context.Canceled) {
		return true
	}
	rpcErr, ok := tgerr.As(err)
	if !ok {
		return false
	}
	_, permanent := permanentCodes[rpcErr.Code]
	return permanent
}

// retry runs fn until it succeeds, fails permanently or the attempts run
// out. FLOOD_WAIT errors sleep for the server-requested duration first.
func retry(ctx context.Context, policy RetryPolicy, method string, log *zap.Logger, fn func(ctx context.Context) error) error {
	b := backoff.NewExponentialBackOff()
	if policy.InitialInterval > 0 {
		b.InitialInterval = policy.InitialInterval
	}
	b.MaxElapsedTime = 0

	op := func() error {
		callCtx := ctx
		if policy.Timeout > 0 {
			var cancel context.CancelFunc
			callCtx, cancel = context.WithTimeout(ctx, policy.Timeout)
			defer cancel()
		}

		err := fn(callCtx)
		if err == nil {
			return nil
		}

		if wait, ok := tgerr.AsFloodWait(err); ok {
			if policy.MaxFloodWait > 0 && wait > policy.MaxFloodWait {
				return backoff.Permanent(fmt.Errorf("%s: flood wait %s exceeds limit: %w", method, wait, err))
			}
			log.Warn("flood wait", zap.String("method", method), zap.Duration("wait", wait))
			timer := time.NewTimer(wait)
			defer timer.Stop()
			select {
			case <-timer.C:
			case <-ctx.Done():
				return backoff.Permanent(ctx.Err())
			}
			return err
		}

		if isPermanent(err) || ctx.Err() != nil {
			return backoff.Permanent(err)
		}
		return err
	}

	notify := func(err error, next time.Duration) {
		log.Debug("retrying telegram call",
			zap.String("method", method),
			zap.Duration("next", next),
			zap.Error(err),
		)
	}

	retries := policy.Retries
	if retries < 0 {
		retries = 0
	}
	policyBackoff := backoff.WithContext(backoff.WithMaxRetries(b, uint64(retries)), ctx)
	return backoff.RetryNotify(op, policyBackoff, notify)
}
