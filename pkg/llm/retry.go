package llm

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/openai/openai-go"
)

const (
	defaultInitialBackoff = 200 * time.Millisecond
	defaultMaxBackoff     = 3 * time.Second
	defaultBackoffFactor  = 2.0
)

// retryableStatus lists upstream statuses that usually clear on their own.
var retryableStatus = map[int]bool{
	http.StatusRequestTimeout:      true,
	http.StatusTooManyRequests:     true,
	http.StatusInternalServerError: true,
	http.StatusBadGateway:          true,
	http.StatusServiceUnavailable:  true,
	http.StatusGatewayTimeout:      true,
}

type RetryConfig struct {
	MaxRetries     int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
	Multiplier     float64
	// OnRetry, if set, is called before each backoff sleep.
	OnRetry func(attempt int, wait time.Duration, err error)
}

// RetryHandler retries vision calls with capped exponential backoff.
type RetryHandler struct {
	cfg RetryConfig
}

func NewRetryHandler(cfg RetryConfig) *RetryHandler {
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	if cfg.InitialBackoff <= 0 {
		cfg.InitialBackoff = defaultInitialBackoff
	}
	if cfg.MaxBackoff <= 0 {
		cfg.MaxBackoff = defaultMaxBackoff
	}
	if cfg.Multiplier <= 1 {
		cfg.Multiplier = defaultBackoffFactor
	}
	return &RetryHandler{cfg: cfg}
}

// Do calls fn at most MaxRetries+1 times. It stops early on success, on a
// non-retryable error or when ctx ends during a backoff.
func (r *RetryHandler) Do(ctx context.Context, fn func() error) error {
	wait := r.cfg.InitialBackoff
	for retry := 1; ; retry++ {
		err := fn()
		if err == nil || retry > r.cfg.MaxRetries || !IsRetryable(err) {
			return err
		}
		if r.cfg.OnRetry != nil {
			r.cfg.OnRetry(retry, wait, err)
		}
		if err := sleepCtx(ctx, wait); err != nil {
			return err
		}
		wait = r.next(wait)
	}
}

func (r *RetryHandler) next(wait time.Duration) time.Duration {
	grown := time.Duration(float64(wait) * r.cfg.Multiplier)
	if grown > r.cfg.MaxBackoff {
		return r.cfg.MaxBackoff
	}
	return grown
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// IsRetryable reports whether err is throttling, a server-side failure or a
// network fault. Context cancellation is never retried.
func IsRetryable(err error) bool {
	switch {
	case err == nil:
		return false
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return false
	}

	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		return retryableStatus[apiErr.StatusCode]
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
