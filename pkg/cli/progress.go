package cli

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"mercator-hq/relay/pkg/providers"
)

// RetryReporter prints a status line each time a backend rate-limits a
// request and the transport backs off.
type RetryReporter struct {
	mu      sync.Mutex
	writer  io.Writer
	retries int
}

// NewRetryReporter creates a reporter that writes to w.
// If w is nil, it defaults to os.Stderr.
func NewRetryReporter(w io.Writer) *RetryReporter {
	if w == nil {
		w = os.Stderr
	}
	return &RetryReporter{writer: w}
}

// Observe implements providers.RetryObserver.
func (r *RetryReporter) Observe(provider string, attempt int, delay time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.retries++
	fmt.Fprintf(r.writer, "%s: rate limited, retrying in %s (attempt %d)\n",
		provider, delay.Round(100*time.Millisecond), attempt)
}

// Retries returns the number of retries observed.
func (r *RetryReporter) Retries() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.retries
}

// ChainRetryObservers returns an observer calling each non-nil observer in
// order, or nil when there are none.
func ChainRetryObservers(observers ...providers.RetryObserver) providers.RetryObserver {
	var active []providers.RetryObserver
	for _, o := range observers {
		if o != nil {
			active = append(active, o)
		}
	}

	switch len(active) {
	case 0:
		return nil
	case 1:
		return active[0]
	}

	return func(provider string, attempt int, delay time.Duration) {
		for _, o := range active {
			o(provider, attempt, delay)
		}
	}
}
