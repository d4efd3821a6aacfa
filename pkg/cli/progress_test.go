package cli

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"mercator-hq/relay/pkg/providers"
)

func TestRetryReporter(t *testing.T) {
	buf := &bytes.Buffer{}
	reporter := NewRetryReporter(buf)

	reporter.Observe("google", 1, 1234*time.Millisecond)
	reporter.Observe("google", 2, 2*time.Second)

	output := buf.String()
	if !strings.Contains(output, "google: rate limited, retrying in 1.2s (attempt 1)") {
		t.Errorf("unexpected first line in %q", output)
	}
	if !strings.Contains(output, "(attempt 2)") {
		t.Errorf("expected second attempt in %q", output)
	}
	if reporter.Retries() != 2 {
		t.Errorf("Retries() = %d, want 2", reporter.Retries())
	}
}

func TestChainRetryObservers(t *testing.T) {
	var calls []string
	first := func(provider string, attempt int, delay time.Duration) {
		calls = append(calls, "first:"+provider)
	}
	second := func(provider string, attempt int, delay time.Duration) {
		calls = append(calls, "second:"+provider)
	}

	chained := ChainRetryObservers(first, nil, second)
	chained("groq", 1, time.Second)

	if len(calls) != 2 || calls[0] != "first:groq" || calls[1] != "second:groq" {
		t.Errorf("calls = %v, want [first:groq second:groq]", calls)
	}
}

func TestChainRetryObserversEmpty(t *testing.T) {
	if ChainRetryObservers() != nil {
		t.Error("expected nil observer for no inputs")
	}
	if ChainRetryObservers(nil, nil) != nil {
		t.Error("expected nil observer when all inputs are nil")
	}

	var only providers.RetryObserver = func(string, int, time.Duration) {}
	if ChainRetryObservers(only) == nil {
		t.Error("expected the single observer back")
	}
}
