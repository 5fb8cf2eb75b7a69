// Package httpclient builds the *http.Client used for upstream JSON services.
package httpclient

import (
	"net/http"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/time/rate"
)

// Options configures an upstream client.
type Options struct {
	Timeout        time.Duration
	RateLimit      rate.Limit
	RateLimitBurst int
}

const (
	defaultTimeout        = 5 * time.Second
	defaultRateLimit      = 50
	defaultRateLimitBurst = 100
)

// New returns a client with a hard timeout, trace propagation and a
// client-side rate limit.
func New(opts Options) *http.Client {
	if opts.Timeout <= 0 {
		opts.Timeout = defaultTimeout
	}
	if opts.RateLimit <= 0 {
		opts.RateLimit = defaultRateLimit
	}
	if opts.RateLimitBurst <= 0 {
		opts.RateLimitBurst = defaultRateLimitBurst
	}

	transport := &http.Transport{
		MaxIdleConns:          100,
		MaxIdleConnsPerHost:   20,
		IdleConnTimeout:       90 * time.Second,
		ResponseHeaderTimeout: opts.Timeout,
		TLSHandshakeTimeout:   5 * time.Second,
	}
	return &http.Client{
		Timeout: opts.Timeout,
		Transport: &limitedTransport{
			next:    otelhttp.NewTransport(transport),
			limiter: rate.NewLimiter(opts.RateLimit, opts.RateLimitBurst),
		},
	}
}

type limitedTransport struct {
	next    http.RoundTripper
	limiter *rate.Limiter
}

func (t *limitedTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if err := t.limiter.Wait(req.Context()); err != nil {
		return nil, err
	}
	return t.next.RoundTrip(req)
}
