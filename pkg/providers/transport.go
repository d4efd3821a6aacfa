package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"
)

// DefaultRequestTimeout bounds every outbound request. Large generations can
// take minutes, so it is deliberately long.
const DefaultRequestTimeout = 600 * time.Second

// RetryObserver is notified before every rate-limit retry.
type RetryObserver func(provider string, attempt int, delay time.Duration)

// HTTPTransport is the shared HTTP client used by HTTP-backed adapters.
// It provides connection pooling, the request timeout, and the rate-limit
// retry loop.
//
// After construction it is only read, so one transport can serve concurrent
// Complete calls without locking.
type HTTPTransport struct {
	// name is the owning provider, used in logs
	name string

	// client is the HTTP client with connection pooling
	client *http.Client

	// policy is the rate-limit backoff policy
	policy RetryPolicy

	// sleep waits between retries
	sleep SleepFunc

	// jitter randomizes retry delays
	jitter JitterFunc

	// observer is notified of retries (may be nil)
	observer RetryObserver
}

// TransportOption configures an HTTPTransport.
type TransportOption func(*HTTPTransport)

// WithHTTPClient replaces the pooled client, e.g. with an httptest client.
func WithHTTPClient(client *http.Client) TransportOption {
	return func(t *HTTPTransport) {
		t.client = client
	}
}

// WithRetryPolicy overrides the default rate-limit backoff policy.
func WithRetryPolicy(policy RetryPolicy) TransportOption {
	return func(t *HTTPTransport) {
		t.policy = policy
	}
}

// WithSleep overrides how the transport waits between retries.
func WithSleep(sleep SleepFunc) TransportOption {
	return func(t *HTTPTransport) {
		t.sleep = sleep
	}
}

// WithJitter overrides the jitter source.
func WithJitter(jitter JitterFunc) TransportOption {
	return func(t *HTTPTransport) {
		t.jitter = jitter
	}
}

// WithRetryObserver registers a hook called before each retry.
func WithRetryObserver(observer RetryObserver) TransportOption {
	return func(t *HTTPTransport) {
		t.observer = observer
	}
}

// NewHTTPTransport creates a transport with connection pooling and a 600s
// request timeout.
func NewHTTPTransport(name string, opts ...TransportOption) *HTTPTransport {
	transport := &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 10,
		IdleConnTimeout:     90 * time.Second,
		// Enable HTTP/2
		ForceAttemptHTTP2: true,
	}

	t := &HTTPTransport{
		name: name,
		client: &http.Client{
			Transport: transport,
			Timeout:   DefaultRequestTimeout,
		},
		policy: DefaultRetryPolicy(),
		sleep:  SleepContext,
		jitter: RandomJitter,
	}

	for _, opt := range opts {
		opt(t)
	}

	return t
}

// Client returns the underlying HTTP client.
func (t *HTTPTransport) Client() *http.Client {
	return t.client
}

// CloseIdleConnections releases pooled connections.
func (t *HTTPTransport) CloseIdleConnections() {
	t.client.CloseIdleConnections()
}

// Post sends payload as JSON to endpoint and returns the decoded JSON body.
//
// A transport failure is returned immediately as KindRequestFailed. A 429
// response is retried with exponential backoff plus jitter until the retry
// ceiling is exceeded, at which point KindRateLimitExceeded is returned. Any
// other response is handed to HandleResponse.
func (t *HTTPTransport) Post(ctx context.Context, endpoint string, payload json.RawMessage, headers map[string]string) (json.RawMessage, error) {
	backoff := t.policy.NewBackoff(t.jitter)

	for {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
		if err != nil {
			return nil, RequestFailedWithCause(err, "failed to create request: %v", stripURL(err))
		}

		req.Header.Set("Content-Type", "application/json")
		for key, value := range headers {
			req.Header.Set(key, value)
		}

		slog.Debug("sending request to provider",
			"provider", t.name,
			"url", RedactURL(endpoint),
			"attempt", backoff.Attempt()+1,
		)

		resp, err := t.client.Do(req)
		if err != nil {
			return nil, RequestFailedWithCause(err, "%v", stripURL(err))
		}

		if resp.StatusCode != http.StatusTooManyRequests {
			return HandleResponse(resp)
		}

		// Drain so the connection can be reused for the retry
		_, _ = io.Copy(io.Discard, resp.Body)
		resp.Body.Close()

		delay, ok := backoff.Next()
		if !ok {
			return nil, RateLimitExceeded("max retries exceeded")
		}

		slog.Warn("rate limit hit, retrying",
			"provider", t.name,
			"retry", backoff.Attempt(),
			"max_retries", t.policy.MaxRetries,
			"delay", delay,
		)

		if t.observer != nil {
			t.observer(t.name, backoff.Attempt(), delay)
		}

		if err := t.sleep(ctx, delay); err != nil {
			return nil, RequestFailedWithCause(err, "cancelled while waiting to retry: %v", err)
		}
	}
}

// stripURL drops the request URL from net/http errors. Some backends carry the
// API key in the query string, and *url.Error prints the full URL.
func stripURL(err error) error {
	var uerr *url.Error
	if errors.As(err, &uerr) {
		return uerr.Err
	}
	return err
}

// RedactURL returns endpoint with query parameter values masked.
func RedactURL(endpoint string) string {
	u, err := url.Parse(endpoint)
	if err != nil {
		return "<invalid url>"
	}
	if u.RawQuery == "" {
		return u.String()
	}
	q := u.Query()
	for key := range q {
		q.Set(key, "REDACTED")
	}
	u.RawQuery = q.Encode()
	return u.String()
}
