package health

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"mercator-hq/relay/pkg/providers"
)

// Check statuses.
const (
	StatusOK           = "ok"
	StatusUnconfigured = "unconfigured"
	StatusUnhealthy    = "unhealthy"
	StatusTimeout      = "timeout"
)

// Overall report statuses.
const (
	StatusReady    = "ready"
	StatusDegraded = "degraded"
)

// CheckFunc performs one check. It returns nil if the component is healthy,
// or an error describing the problem.
type CheckFunc func(ctx context.Context) error

// CheckResult represents the result of a single check.
type CheckResult struct {
	// Status is one of ok, unconfigured, unhealthy, timeout
	Status string `json:"status"`

	// Message explains a non-ok status
	Message string `json:"message,omitempty"`

	// Duration is how long the check took
	Duration time.Duration `json:"duration_ns"`
}

// Report aggregates every check.
type Report struct {
	// Status is ready when every check is ok, degraded otherwise
	Status string `json:"status"`

	Checks map[string]CheckResult `json:"checks"`

	Timestamp time.Time `json:"timestamp"`
}

// Healthy reports whether every check passed.
func (r Report) Healthy() bool {
	return r.Status == StatusReady
}

// Names returns the checked names in sorted order.
func (r Report) Names() []string {
	names := make([]string, 0, len(r.Checks))
	for name := range r.Checks {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Checker runs named checks concurrently, each under its own timeout.
type Checker struct {
	mu     sync.RWMutex
	checks map[string]CheckFunc

	// Timeout for individual checks
	checkTimeout time.Duration
}

// ErrCheckTimeout is reported when a check outlives its timeout.
var ErrCheckTimeout = errors.New("health check timeout")

// New creates a checker with the given per-check timeout.
// If timeout is 0, defaults to 30 seconds per check.
func New(checkTimeout time.Duration) *Checker {
	if checkTimeout == 0 {
		checkTimeout = 30 * time.Second
	}

	return &Checker{
		checks:       make(map[string]CheckFunc),
		checkTimeout: checkTimeout,
	}
}

// RegisterCheck registers check under name, replacing any previous one.
func (c *Checker) RegisterCheck(name string, check CheckFunc) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.checks[name] = check
}

// ListChecks returns the registered names, sorted.
func (c *Checker) ListChecks() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	names := make([]string, 0, len(c.checks))
	for name := range c.checks {
		names = append(names, name)
	}
	sort.Strings(names)

	return names
}

// CheckCount returns the number of registered checks.
func (c *Checker) CheckCount() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return len(c.checks)
}

// Run executes every registered check concurrently and aggregates the
// results. With no checks registered the report is ready.
func (c *Checker) Run(ctx context.Context) Report {
	c.mu.RLock()
	checks := make(map[string]CheckFunc, len(c.checks))
	for name, check := range c.checks {
		checks[name] = check
	}
	c.mu.RUnlock()

	results := make(map[string]CheckResult, len(checks))
	var resultMu sync.Mutex
	var wg sync.WaitGroup

	for name, check := range checks {
		wg.Add(1)
		go func(name string, check CheckFunc) {
			defer wg.Done()

			result := c.runCheck(ctx, check)

			resultMu.Lock()
			results[name] = result
			resultMu.Unlock()
		}(name, check)
	}

	wg.Wait()

	status := StatusReady
	for _, result := range results {
		if result.Status != StatusOK {
			status = StatusDegraded
		}
	}

	return Report{
		Status:    status,
		Checks:    results,
		Timestamp: time.Now(),
	}
}

// runCheck executes a single check with timeout.
func (c *Checker) runCheck(ctx context.Context, check CheckFunc) CheckResult {
	checkCtx, cancel := context.WithTimeout(ctx, c.checkTimeout)
	defer cancel()

	start := time.Now()

	// Buffered: a check that outlives its timeout must still be able to send
	errChan := make(chan error, 1)
	go func() {
		errChan <- check(checkCtx)
	}()

	select {
	case err := <-errChan:
		return classify(err, time.Since(start))

	case <-checkCtx.Done():
		return CheckResult{
			Status:   StatusTimeout,
			Message:  ErrCheckTimeout.Error(),
			Duration: time.Since(start),
		}
	}
}

func classify(err error, d time.Duration) CheckResult {
	if err == nil {
		return CheckResult{Status: StatusOK, Duration: d}
	}

	status := StatusUnhealthy
	var cfgErr *providers.ConfigError
	if errors.As(err, &cfgErr) {
		status = StatusUnconfigured
	} else if errors.Is(err, context.DeadlineExceeded) {
		status = StatusTimeout
	}

	return CheckResult{Status: status, Message: err.Error(), Duration: d}
}
