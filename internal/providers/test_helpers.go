package providers

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"mercator-hq/relay/pkg/providers"
)

// TestStore returns an in-memory config store holding the given key/value pairs.
func TestStore(kv ...string) providers.MapConfig {
	store := providers.MapConfig{}
	for i := 0; i+1 < len(kv); i += 2 {
		store[kv[i]] = kv[i+1]
	}
	return store
}

// SleepRecorder is a SleepFunc that records requested delays instead of waiting.
type SleepRecorder struct {
	mu     sync.Mutex
	delays []time.Duration
}

// Sleep implements providers.SleepFunc.
func (s *SleepRecorder) Sleep(ctx context.Context, d time.Duration) error {
	s.mu.Lock()
	s.delays = append(s.delays, d)
	s.mu.Unlock()
	return ctx.Err()
}

// Delays returns the recorded delays.
func (s *SleepRecorder) Delays() []time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()

	return append([]time.Duration(nil), s.delays...)
}

// NoJitter is a JitterFunc that always returns zero.
func NoJitter(time.Duration) time.Duration {
	return 0
}

// FastTransport returns transport options that route requests to the mock
// server and skip real waiting between retries.
func FastTransport(ms *MockServer, sleep *SleepRecorder) []providers.TransportOption {
	opts := []providers.TransportOption{
		providers.WithHTTPClient(ms.Client()),
		providers.WithJitter(NoJitter),
	}
	if sleep != nil {
		opts = append(opts, providers.WithSleep(sleep.Sleep))
	}
	return opts
}

// TestConversation returns a one-turn user conversation.
func TestConversation(text string) []providers.Message {
	return []providers.Message{providers.NewUserMessage(text)}
}

// TestWeatherTool returns a simple function tool definition.
func TestWeatherTool() providers.Tool {
	return providers.Tool{
		Name:        "get_weather",
		Description: "Get the weather for a city",
		Parameters: map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"city": map[string]interface{}{"type": "string"},
			},
			"required": []interface{}{"city"},
		},
	}
}

// AssertNoError fails the test if err is not nil.
func AssertNoError(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

// AssertError fails the test if err is nil.
func AssertError(t *testing.T, err error) {
	t.Helper()
	if err == nil {
		t.Fatal("expected error, got nil")
	}
}

// AssertErrorKind fails the test unless err is a ProviderError of kind.
func AssertErrorKind(t *testing.T, err error, kind providers.ErrorKind) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected %s error, got nil", kind)
	}
	var pe *providers.ProviderError
	if !errors.As(err, &pe) {
		t.Fatalf("expected *providers.ProviderError, got %T: %v", err, err)
	}
	if pe.Kind != kind {
		t.Fatalf("expected kind %s, got %s: %v", kind, pe.Kind, err)
	}
}

// AssertEqual fails the test if got != expected.
func AssertEqual(t *testing.T, got, expected interface{}) {
	t.Helper()
	if got != expected {
		t.Fatalf("expected %v, got %v", expected, got)
	}
}

// AssertContains fails the test if haystack doesn't contain needle.
func AssertContains(t *testing.T, haystack, needle string) {
	t.Helper()
	if !strings.Contains(haystack, needle) {
		t.Fatalf("expected %q to contain %q", haystack, needle)
	}
}

// WithTimeout runs a function with a timeout context.
func WithTimeout(t *testing.T, timeout time.Duration, fn func(ctx context.Context)) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	done := make(chan struct{})
	go func() {
		fn(ctx)
		close(done)
	}()

	select {
	case <-done:
		// Success
	case <-ctx.Done():
		t.Fatalf("test timeout after %s", timeout)
	}
}
