package httpclient

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/imroc/req/v3"

	"github.com/tbckr/asnlook/internal/ratelimit"
)

const (
	maxRetries = 3

	// Dataset mirrors throttle with 429 or answer 503 while a dump is being
	// regenerated. Both usually carry Retry-After.
	retryAfterDefault = 5 * time.Second
	retryAfterMax     = time.Minute

	connRetryWait = time.Second
)

// AttachRateLimit makes every request wait on limiter and retries throttled
// responses and transient connection errors. Each retry is logged at DEBUG
// when logger is non-nil.
func AttachRateLimit(client *req.Client, limiter *ratelimit.Limiter, logger *slog.Logger) {
	client.OnBeforeRequest(func(_ *req.Client, r *req.Request) error {
		return limiter.Wait(r.Context())
	})

	client.SetCommonRetryCount(maxRetries)
	client.AddCommonRetryCondition(func(resp *req.Response, _ error) bool {
		return isThrottled(resp)
	})
	client.AddCommonRetryCondition(func(_ *req.Response, err error) bool {
		return isTransient(err)
	})
	client.SetCommonRetryInterval(func(resp *req.Response, _ int) time.Duration {
		if resp == nil || resp.Response == nil {
			return connRetryWait
		}
		return parseRetryAfter(resp.Header.Get("Retry-After"))
	})

	if logger == nil {
		return
	}
	client.SetCommonRetryHook(func(resp *req.Response, err error) {
		attrs := []any{"reason", retryReason(resp, err)}
		if resp != nil && resp.Request != nil {
			attrs = append(attrs, "url", resp.Request.RawURL, "attempt", resp.Request.RetryAttempt)
		}
		logger.Debug("retrying request", attrs...)
	})
}

func isThrottled(resp *req.Response) bool {
	if resp == nil || resp.Response == nil {
		return false
	}
	return resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode == http.StatusServiceUnavailable
}

func isTransient(err error) bool {
	return err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded)
}

// retryReason is the HTTP status for a throttled response, or the transport
// error text otherwise.
func retryReason(resp *req.Response, err error) string {
	if isThrottled(resp) {
		return resp.Status
	}
	if err != nil {
		return err.Error()
	}
	return "unknown"
}

// parseRetryAfter accepts delay-seconds or an HTTP-date and clamps the result
// to retryAfterMax. Absent or garbled values yield retryAfterDefault.
func parseRetryAfter(header string) time.Duration {
	if header == "" {
		return retryAfterDefault
	}
	if secs, err := strconv.Atoi(header); err == nil {
		return min(max(time.Duration(secs)*time.Second, 0), retryAfterMax)
	}
	if t, err := http.ParseTime(header); err == nil {
		return min(max(time.Until(t), 0), retryAfterMax)
	}
	return retryAfterDefault
}
