package providers

import (
	"fmt"
	"net/url"
)

// ParseHost validates a configured base host. It must be an absolute http(s) URL.
func ParseHost(host string) (*url.URL, error) {
	u, err := url.Parse(host)
	if err != nil {
		return nil, fmt.Errorf("invalid base URL %q: %w", host, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("invalid base URL %q: scheme must be http or https", host)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("invalid base URL %q: missing host", host)
	}
	return u, nil
}

// JoinEndpoint resolves path against host and attaches query.
// path is relative, so a host with a path prefix keeps it only when the
// prefix ends with a slash.
//
// Failures are KindRequestFailed errors and are never retried.
func JoinEndpoint(host, path string, query url.Values) (string, error) {
	base, err := ParseHost(host)
	if err != nil {
		return "", RequestFailedWithCause(err, "%v", err)
	}

	ref := &url.URL{Path: path}
	if len(query) > 0 {
		ref.RawQuery = query.Encode()
	}

	endpoint := base.ResolveReference(ref)
	if endpoint.Host == "" {
		return "", RequestFailed("failed to construct endpoint URL from %q and %q", host, path)
	}
	return endpoint.String(), nil
}
