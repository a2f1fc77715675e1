// internal/common/http/client.go
package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"caregiver-matching/internal/common/logger"
	"caregiver-matching/internal/common/metrics"

	"github.com/go-resty/resty/v2"
)

// RetryPolicy bounds retries of transient (429 / 5xx / network) failures.
type RetryPolicy struct {
	MaxAttempts   int
	BaseBackoff   time.Duration
	MaxBackoff    time.Duration
	MaxRetryAfter time.Duration
}

// Backoff returns min(base * 2^(attempt-1), max) for a 1-based attempt.
func (p RetryPolicy) Backoff(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	d := p.BaseBackoff
	for i := 1; i < attempt && d < p.MaxBackoff; i++ {
		d *= 2
	}
	if d > p.MaxBackoff {
		return p.MaxBackoff
	}
	return d
}

// Response is the subset of an HTTP response callers need.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
	Attempts   int
}

// IsSuccess reports a 2xx status.
func (r *Response) IsSuccess() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

type Client struct {
	rc     *resty.Client
	policy RetryPolicy
	logger logger.Logger
}

func NewClient(baseURL string, timeout time.Duration, policy RetryPolicy, log logger.Logger) *Client {
	if policy.MaxAttempts < 1 {
		policy.MaxAttempts = 1
	}
	if policy.MaxRetryAfter == 0 {
		policy.MaxRetryAfter = 30 * time.Second
	}

	c := &Client{policy: policy, logger: log}
	c.rc = resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json").
		SetRetryCount(policy.MaxAttempts - 1).
		SetRetryWaitTime(policy.BaseBackoff).
		SetRetryMaxWaitTime(max(policy.MaxBackoff, policy.MaxRetryAfter)).
		SetRetryAfter(c.retryAfter).
		AddRetryCondition(c.shouldRetry)

	return c
}

// PostJSON posts body as JSON. Transient failures are retried per the policy; the final
// response is returned whatever its status, so callers decide how to treat non-2xx.
func (c *Client) PostJSON(ctx context.Context, path string, body interface{}, headers map[string]string) (*Response, error) {
	resp, err := c.rc.R().
		SetContext(ctx).
		SetHeaders(headers).
		SetBody(body).
		Post(path)
	if err != nil {
		return nil, fmt.Errorf("post %s: %w", path, err)
	}

	return &Response{
		StatusCode: resp.StatusCode(),
		Header:     resp.Header(),
		Body:       resp.Body(),
		Attempts:   resp.Request.Attempt,
	}, nil
}

// Get issues a GET bounded by ctx.
func (c *Client) Get(ctx context.Context, path string) (*Response, error) {
	resp, err := c.rc.R().
		SetContext(ctx).
		Get(path)
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", path, err)
	}
	return &Response{
		StatusCode: resp.StatusCode(),
		Header:     resp.Header(),
		Body:       resp.Body(),
		Attempts:   resp.Request.Attempt,
	}, nil
}

func (c *Client) shouldRetry(resp *resty.Response, err error) bool {
	attempt := 0
	if resp != nil && resp.Request != nil {
		attempt = resp.Request.Attempt
	}

	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			metrics.RankerAttempts.WithLabelValues("canceled").Inc()
			return false
		}
		metrics.RankerAttempts.WithLabelValues("network_error").Inc()
		c.logger.Warn("request failed, retrying", map[string]interface{}{
			"attempt": attempt,
			"error":   logger.Mask(err.Error()),
		})
		return true
	}

	status := resp.StatusCode()
	switch {
	case status == http.StatusTooManyRequests || status >= http.StatusInternalServerError:
		metrics.RankerAttempts.WithLabelValues("retryable_status").Inc()
		c.logger.Warn("transient status, retrying", map[string]interface{}{
			"attempt": attempt,
			"status":  status,
		})
		return true
	case status >= 200 && status < 300:
		metrics.RankerAttempts.WithLabelValues("success").Inc()
	default:
		metrics.RankerAttempts.WithLabelValues("client_error").Inc()
	}
	return false
}

// retryAfter honors a Retry-After header (seconds or HTTP date) and otherwise uses the
// capped exponential backoff for the attempt that just failed.
func (c *Client) retryAfter(_ *resty.Client, resp *resty.Response) (time.Duration, error) {
	attempt := 1
	if resp != nil && resp.Request != nil {
		attempt = resp.Request.Attempt
	}
	if resp != nil {
		if d, ok := parseRetryAfter(resp.Header().Get("Retry-After"), time.Now()); ok && d > 0 {
			if d > c.policy.MaxRetryAfter {
				d = c.policy.MaxRetryAfter
			}
			return d, nil
		}
	}
	return c.policy.Backoff(attempt), nil
}

func parseRetryAfter(value string, now time.Time) (time.Duration, bool) {
	if value == "" {
		return 0, false
	}
	if secs, err := strconv.Atoi(value); err == nil {
		if secs < 0 {
			return 0, false
		}
		return time.Duration(secs) * time.Second, true
	}
	if at, err := http.ParseTime(value); err == nil {
		return at.Sub(now), true
	}
	return 0, false
}
