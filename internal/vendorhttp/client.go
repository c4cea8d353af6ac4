// Package vendorhttp builds the HTTP clients used to talk to the contact-center APIs.
package vendorhttp

import (
	"net/http"
	"net/http/cookiejar"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const defaultTimeout = 30 * time.Second

type options struct {
	timeout       time.Duration
	noRedirects   bool
	cookies       bool
	baseTransport http.RoundTripper
}

// Option customizes a vendor HTTP client.
type Option func(*options)

// WithTimeout overrides the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.timeout = d
		}
	}
}

// WithoutRedirects makes the client return redirect responses instead of following them.
func WithoutRedirects() Option {
	return func(o *options) { o.noRedirects = true }
}

// WithCookieJar keeps session cookies between requests.
func WithCookieJar() Option {
	return func(o *options) { o.cookies = true }
}

// WithTransport replaces the base round tripper wrapped by the tracing transport.
func WithTransport(rt http.RoundTripper) Option {
	return func(o *options) { o.baseTransport = rt }
}

// NewClient returns an http.Client whose requests are traced with otelhttp.
func NewClient(opts ...Option) *http.Client {
	o := options{timeout: defaultTimeout, baseTransport: http.DefaultTransport}
	for _, opt := range opts {
		opt(&o)
	}

	client := &http.Client{
		Timeout:   o.timeout,
		Transport: otelhttp.NewTransport(o.baseTransport),
	}
	if o.noRedirects {
		client.CheckRedirect = func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		}
	}
	if o.cookies {
		// cookiejar.New only fails on a non-nil PublicSuffixList error.
		jar, _ := cookiejar.New(nil)
		client.Jar = jar
	}
	return client
}
