package health

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	testhelpers "mercator-hq/relay/internal/providers"
	"mercator-hq/relay/pkg/providerfactory"
	"mercator-hq/relay/pkg/providers"
)

// TestNew tests the creation of a new checker.
func TestNew(t *testing.T) {
	tests := []struct {
		name            string
		timeout         time.Duration
		expectedTimeout time.Duration
	}{
		{
			name:            "default timeout",
			timeout:         0,
			expectedTimeout: 30 * time.Second,
		},
		{
			name:            "custom timeout",
			timeout:         10 * time.Second,
			expectedTimeout: 10 * time.Second,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			checker := New(tt.timeout)

			if checker.checkTimeout != tt.expectedTimeout {
				t.Errorf("expected timeout %v, got %v", tt.expectedTimeout, checker.checkTimeout)
			}
			if checker.CheckCount() != 0 {
				t.Errorf("expected 0 checks, got %d", checker.CheckCount())
			}
		})
	}
}

func TestRun_NoChecks(t *testing.T) {
	report := New(time.Second).Run(context.Background())

	if !report.Healthy() {
		t.Errorf("expected ready with no checks, got %s", report.Status)
	}
	if len(report.Checks) != 0 {
		t.Errorf("expected no results, got %d", len(report.Checks))
	}
}

func TestRun_Classification(t *testing.T) {
	checker := New(50 * time.Millisecond)

	checker.RegisterCheck("ok", func(ctx context.Context) error { return nil })
	checker.RegisterCheck("config", func(ctx context.Context) error {
		return &providers.ConfigError{Provider: "google", Field: "GOOGLE_API_KEY", Message: "required"}
	})
	checker.RegisterCheck("broken", func(ctx context.Context) error {
		return providers.RequestFailed("connection refused")
	})
	checker.RegisterCheck("slow", func(ctx context.Context) error {
		time.Sleep(time.Second)
		return nil
	})

	report := checker.Run(context.Background())

	if report.Healthy() {
		t.Error("expected a degraded report")
	}
	if report.Status != StatusDegraded {
		t.Errorf("expected degraded, got %s", report.Status)
	}

	expected := map[string]string{
		"ok":     StatusOK,
		"config": StatusUnconfigured,
		"broken": StatusUnhealthy,
		"slow":   StatusTimeout,
	}
	for name, status := range expected {
		if got := report.Checks[name].Status; got != status {
			t.Errorf("%s: expected %s, got %s (%s)", name, status, got, report.Checks[name].Message)
		}
	}
	if report.Checks["ok"].Message != "" {
		t.Errorf("expected no message for ok, got %q", report.Checks["ok"].Message)
	}

	names := report.Names()
	if len(names) != 4 || names[0] != "broken" || names[3] != "slow" {
		t.Errorf("expected sorted names, got %v", names)
	}
}

func TestRegisterCheck_Replaces(t *testing.T) {
	checker := New(time.Second)
	checker.RegisterCheck("x", func(ctx context.Context) error { return errors.New("old") })
	checker.RegisterCheck("x", func(ctx context.Context) error { return nil })

	if checker.CheckCount() != 1 {
		t.Fatalf("expected 1 check, got %d", checker.CheckCount())
	}
	if report := checker.Run(context.Background()); !report.Healthy() {
		t.Errorf("expected the replacement check to run, got %+v", report.Checks)
	}
}

func TestRegisterProviders_AllBackends(t *testing.T) {
	checker := New(time.Second)
	RegisterProviders(checker, nil, providers.MapConfig{}, false)

	if got, want := checker.ListChecks(), len(providerfactory.Names()); len(got) != want {
		t.Fatalf("expected %d checks, got %v", want, got)
	}

	report := checker.Run(context.Background())
	expected := map[string]string{
		"google":    StatusUnconfigured,
		"anthropic": StatusUnconfigured,
		"openai":    StatusUnconfigured,
		"ollama":    StatusOK,
		"python":    StatusOK,
	}
	for name, status := range expected {
		if got := report.Checks[name].Status; got != status {
			t.Errorf("%s: expected %s, got %s (%s)", name, status, got, report.Checks[name].Message)
		}
	}
}

func TestProviderCheck_Unknown(t *testing.T) {
	err := ProviderCheck("bedrock", providers.MapConfig{}, false)(context.Background())

	var unknown *providerfactory.UnknownProviderError
	if !errors.As(err, &unknown) {
		t.Fatalf("expected UnknownProviderError, got %v", err)
	}
}

func TestProviderCheck_Live(t *testing.T) {
	mock := testhelpers.NewMockServer()
	defer mock.Close()

	path := "/v1beta/models/gemini-2.0-flash:generateContent"
	store := testhelpers.TestStore("GOOGLE_API_KEY", "g-key", "GOOGLE_HOST", mock.URL())
	transport := providerfactory.WithTransportOptions(testhelpers.FastTransport(mock, nil)...)

	t.Run("accepted", func(t *testing.T) {
		mock.SetResponse(path, testhelpers.MockResponse{
			StatusCode: http.StatusOK,
			Body:       testhelpers.MockGeminiResponse("ok", "gemini-2.0-flash-001"),
		})

		if err := ProviderCheck("google", store, true, transport)(context.Background()); err != nil {
			t.Fatalf("expected live check to pass, got %v", err)
		}

		req, ok := mock.LastRequest()
		if !ok {
			t.Fatal("expected a probe request")
		}
		testhelpers.AssertContains(t, string(req.Body), ProbePrompt)
		testhelpers.AssertContains(t, string(req.Body), `"maxOutputTokens":1`)
	})

	t.Run("rejected", func(t *testing.T) {
		mock.SetResponse(path, testhelpers.MockAuthError())

		checker := New(time.Second)
		checker.RegisterCheck("google", ProviderCheck("google", store, true, transport))
		report := checker.Run(context.Background())

		if got := report.Checks["google"].Status; got != StatusUnhealthy {
			t.Errorf("expected unhealthy, got %s (%s)", got, report.Checks["google"].Message)
		}
	})
}

func TestProviderCheck_OfflineSendsNothing(t *testing.T) {
	mock := testhelpers.NewMockServer()
	defer mock.Close()

	store := testhelpers.TestStore("GOOGLE_API_KEY", "g-key", "GOOGLE_HOST", mock.URL())
	if err := ProviderCheck("google", store, false)(context.Background()); err != nil {
		t.Fatalf("expected offline check to pass, got %v", err)
	}
	if mock.GetRequestCount() != 0 {
		t.Errorf("expected no requests, got %d", mock.GetRequestCount())
	}
}
