package rotation

import (
	"net"
	"net/http"
	"time"

	"github.com/rk/wallify/config"
	"golang.org/x/time/rate"
)

// UserAgentTransport wraps an http.RoundTripper and adds a User-Agent header.
type UserAgentTransport struct {
	http.RoundTripper
	UserAgent string
}

// RoundTrip executes a single HTTP transaction, adding the User-Agent header.
func (t *UserAgentTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	clonedReq := req.Clone(req.Context())
	clonedReq.Header.Set("User-Agent", t.UserAgent)
	return t.RoundTripper.RoundTrip(clonedReq)
}

// RateLimitedTransport waits on a token bucket before each request so a
// burst of triggers cannot exhaust provider quotas.
type RateLimitedTransport struct {
	http.RoundTripper
	Limiter *rate.Limiter
}

// RoundTrip blocks until the limiter admits the request or its context ends.
func (t *RateLimitedTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if err := t.Limiter.Wait(req.Context()); err != nil {
		return nil, err
	}
	return t.RoundTripper.RoundTrip(req)
}

func baseTransport() *http.Transport {
	return &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   DialTimeout,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		TLSHandshakeTimeout:   DialTimeout,
		ResponseHeaderTimeout: DownloadTimeout,
		IdleConnTimeout:       90 * time.Second,
		MaxIdleConnsPerHost:   4,
	}
}

// NewProviderClient returns the client used for provider search APIs:
// Wallify user agent, one request per second with a burst of three.
func NewProviderClient() *http.Client {
	return &http.Client{
		Timeout: ProviderTimeout,
		Transport: &UserAgentTransport{
			RoundTripper: &RateLimitedTransport{
				RoundTripper: baseTransport(),
				Limiter:      rate.NewLimiter(rate.Every(time.Second), 3),
			},
			UserAgent: config.UserAgent,
		},
	}
}

// NewDownloadClient returns the client used to fetch image payloads.
func NewDownloadClient() *http.Client {
	return &http.Client{
		Timeout: DownloadTimeout,
		Transport: &UserAgentTransport{
			RoundTripper: baseTransport(),
			UserAgent:    config.UserAgent,
		},
	}
}
