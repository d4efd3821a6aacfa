package google

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"testing"
	"time"

	testhelpers "mercator-hq/relay/internal/providers"
	"mercator-hq/relay/pkg/providers"
)

const generatePath = "/v1beta/models/gemini-2.0-flash:generateContent"

func newTestProvider(t *testing.T, mock *testhelpers.MockServer, sleep *testhelpers.SleepRecorder) *Provider {
	t.Helper()

	store := testhelpers.TestStore(APIKeyKey, "secret-key", HostKey, mock.URL())
	provider, err := FromConfig(store, providers.NewModelConfig("gemini-2.0-flash"),
		WithTransportOptions(testhelpers.FastTransport(mock, sleep)...))
	if err != nil {
		t.Fatalf("failed to create provider: %v", err)
	}
	return provider
}

func TestGoogleProvider_Complete(t *testing.T) {
	mock := testhelpers.NewMockServer()
	defer mock.Close()

	mock.SetResponse(generatePath, testhelpers.MockResponse{
		StatusCode: 200,
		Body:       testhelpers.MockGeminiResponse("Hello from Gemini", "gemini-2.0-flash-001"),
	})

	provider := newTestProvider(t, mock, nil)

	msg, usage, err := provider.Complete(context.Background(), "be brief", testhelpers.TestConversation("Hello"), nil)
	testhelpers.AssertNoError(t, err)

	if msg.Content != "Hello from Gemini" {
		t.Errorf("expected content %q, got %q", "Hello from Gemini", msg.Content)
	}
	if usage.Model != "gemini-2.0-flash-001" {
		t.Errorf("expected served model gemini-2.0-flash-001, got %s", usage.Model)
	}
	want := providers.Usage{InputTokens: 12, OutputTokens: 8, TotalTokens: 20}
	if usage.Usage != want {
		t.Errorf("expected usage %+v, got %+v", want, usage.Usage)
	}

	req, ok := mock.LastRequest()
	if !ok {
		t.Fatal("expected a request")
	}
	if req.Query != "key=secret-key" {
		t.Errorf("expected api key in query, got %q", req.Query)
	}
	if !strings.Contains(string(req.Body), `"systemInstruction"`) {
		t.Errorf("expected systemInstruction in body: %s", req.Body)
	}
}

func TestGoogleProvider_PrefixedModelName(t *testing.T) {
	mock := testhelpers.NewMockServer()
	defer mock.Close()

	mock.SetResponse(generatePath, testhelpers.MockResponse{
		StatusCode: 200,
		Body:       testhelpers.MockGeminiResponse("ok", "gemini-2.0-flash-001"),
	})

	store := testhelpers.TestStore(APIKeyKey, "secret-key", HostKey, mock.URL())
	provider, err := FromConfig(store, providers.NewModelConfig("models/gemini-2.0-flash"),
		WithTransportOptions(testhelpers.FastTransport(mock, nil)...))
	testhelpers.AssertNoError(t, err)

	_, _, err = provider.Complete(context.Background(), "", testhelpers.TestConversation("Hello"), nil)
	testhelpers.AssertNoError(t, err)

	req, ok := mock.LastRequest()
	if !ok {
		t.Fatal("expected a request")
	}
	testhelpers.AssertEqual(t, req.Path, generatePath)
}

func TestGoogleProvider_ModelVersion(t *testing.T) {
	tests := []struct {
		name    string
		version interface{}
		want    string
	}{
		{"absent", nil, "gemini-2.0-flash"},
		{"string", "gemini-2.0-flash-exp", "gemini-2.0-flash-exp"},
		{"not a string", 42, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := testhelpers.NewMockServer()
			defer mock.Close()

			body := testhelpers.MockGeminiResponse("hi", "")
			if tt.version != nil {
				body["modelVersion"] = tt.version
			}
			mock.SetResponse(generatePath, testhelpers.MockResponse{StatusCode: 200, Body: body})

			provider := newTestProvider(t, mock, nil)
			_, usage, err := provider.Complete(context.Background(), "", testhelpers.TestConversation("hi"), nil)
			testhelpers.AssertNoError(t, err)

			if usage.Model != tt.want {
				t.Errorf("expected model %q, got %q", tt.want, usage.Model)
			}
		})
	}
}

func TestGoogleProvider_RetriesThenSucceeds(t *testing.T) {
	mock := testhelpers.NewMockServer()
	defer mock.Close()

	ok := testhelpers.MockResponse{StatusCode: 200, Body: testhelpers.MockGeminiResponse("finally", "")}
	mock.SetSequence(generatePath, testhelpers.MockRateLimitSequence(5, ok)...)

	sleep := &testhelpers.SleepRecorder{}
	provider := newTestProvider(t, mock, sleep)

	msg, _, err := provider.Complete(context.Background(), "", testhelpers.TestConversation("hi"), nil)
	testhelpers.AssertNoError(t, err)

	if msg.Content != "finally" {
		t.Errorf("expected content finally, got %q", msg.Content)
	}
	if got := mock.GetRequestCount(); got != 6 {
		t.Errorf("expected 6 requests, got %d", got)
	}

	for i, d := range sleep.Delays() {
		floor := time.Duration(1<<uint(i+1)) * time.Second
		if d < floor {
			t.Errorf("retry %d: expected delay >= %s, got %s", i+1, floor, d)
		}
	}
}

func TestGoogleProvider_RateLimitBecomesOther(t *testing.T) {
	mock := testhelpers.NewMockServer()
	defer mock.Close()

	mock.SetResponse(generatePath, testhelpers.MockRateLimitError(1))

	sleep := &testhelpers.SleepRecorder{}
	provider := newTestProvider(t, mock, sleep)

	_, _, err := provider.Complete(context.Background(), "", testhelpers.TestConversation("hi"), nil)
	testhelpers.AssertErrorKind(t, err, providers.KindOther)

	if err.Error() != ErrMsgRateLimited {
		t.Errorf("unexpected message: %v", err)
	}
	if got := mock.GetRequestCount(); got != 6 {
		t.Errorf("expected 6 requests, got %d", got)
	}
	if got := len(sleep.Delays()); got != 5 {
		t.Errorf("expected 5 sleeps, got %d", got)
	}
}

func TestGoogleProvider_TransportErrorNotRetried(t *testing.T) {
	mock := testhelpers.NewMockServer()
	url := mock.URL()
	mock.Close()

	store := testhelpers.TestStore(APIKeyKey, "secret-key", HostKey, url)
	provider, err := FromConfig(store, providers.NewModelConfig("gemini-2.0-flash"))
	testhelpers.AssertNoError(t, err)

	_, _, err = provider.Complete(context.Background(), "", testhelpers.TestConversation("hi"), nil)
	testhelpers.AssertErrorKind(t, err, providers.KindRequestFailed)

	if strings.Contains(err.Error(), "secret-key") {
		t.Errorf("error leaks the api key: %v", err)
	}
}

func TestGoogleProvider_StatusMapping(t *testing.T) {
	tests := []struct {
		name     string
		response testhelpers.MockResponse
		kind     providers.ErrorKind
		contains string
	}{
		{"forbidden", testhelpers.MockErrorResponse(http.StatusForbidden, "API key not valid"), providers.KindOther, "API key not valid"},
		{"not found", testhelpers.MockErrorResponse(http.StatusNotFound, "model not found"), providers.KindRequestFailed, "model not found"},
		{"server error", testhelpers.MockServerError(), providers.KindRequestFailed, "server error"},
		{"invalid json", testhelpers.MockResponse{StatusCode: 200, Body: "not json"}, providers.KindRequestFailed, "parse"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := testhelpers.NewMockServer()
			defer mock.Close()

			mock.SetResponse(generatePath, tt.response)
			provider := newTestProvider(t, mock, nil)

			_, _, err := provider.Complete(context.Background(), "", testhelpers.TestConversation("hi"), nil)
			testhelpers.AssertErrorKind(t, err, tt.kind)
			testhelpers.AssertContains(t, err.Error(), tt.contains)
		})
	}
}

func TestGoogleProvider_MalformedUsageFails(t *testing.T) {
	mock := testhelpers.NewMockServer()
	defer mock.Close()

	body := testhelpers.MockGeminiResponse("hi", "")
	body["usageMetadata"] = "lots"
	mock.SetResponse(generatePath, testhelpers.MockResponse{StatusCode: 200, Body: body})

	provider := newTestProvider(t, mock, nil)

	_, _, err := provider.Complete(context.Background(), "", testhelpers.TestConversation("hi"), nil)
	testhelpers.AssertErrorKind(t, err, providers.KindUsageError)
}

func TestGoogleProvider_CancelledDuringBackoff(t *testing.T) {
	mock := testhelpers.NewMockServer()
	defer mock.Close()

	mock.SetResponse(generatePath, testhelpers.MockRateLimitError(1))

	store := testhelpers.TestStore(APIKeyKey, "k", HostKey, mock.URL())
	provider, err := FromConfig(store, providers.NewModelConfig("gemini-2.0-flash"),
		WithTransportOptions(providers.WithHTTPClient(mock.Client())))
	testhelpers.AssertNoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, _, err = provider.Complete(ctx, "", testhelpers.TestConversation("hi"), nil)
	testhelpers.AssertErrorKind(t, err, providers.KindRequestFailed)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected context deadline in chain, got %v", err)
	}
}

func TestFromConfig(t *testing.T) {
	t.Run("missing api key", func(t *testing.T) {
		_, err := FromConfig(testhelpers.TestStore(), providers.NewModelConfig(DefaultModel))
		var cfgErr *providers.ConfigError
		if !errors.As(err, &cfgErr) {
			t.Fatalf("expected ConfigError, got %v", err)
		}
		if cfgErr.Field != APIKeyKey {
			t.Errorf("expected field %s, got %s", APIKeyKey, cfgErr.Field)
		}
	})

	t.Run("default host", func(t *testing.T) {
		p, err := FromConfig(testhelpers.TestStore(APIKeyKey, "k"), providers.NewModelConfig(DefaultModel))
		testhelpers.AssertNoError(t, err)
		if p.host != DefaultHost {
			t.Errorf("expected default host, got %s", p.host)
		}
	})

	t.Run("malformed host", func(t *testing.T) {
		_, err := FromConfig(testhelpers.TestStore(APIKeyKey, "k", HostKey, "not a url"), providers.NewModelConfig(DefaultModel))
		var cfgErr *providers.ConfigError
		if !errors.As(err, &cfgErr) {
			t.Fatalf("expected ConfigError, got %v", err)
		}
	})

	t.Run("model config round trip", func(t *testing.T) {
		model := providers.ModelConfig{ModelName: "gemini-1.5-pro", Temperature: 0.3, MaxTokens: 10}
		p, err := FromConfig(testhelpers.TestStore(APIKeyKey, "k"), model)
		testhelpers.AssertNoError(t, err)
		if p.GetModelConfig() != model {
			t.Errorf("expected %+v, got %+v", model, p.GetModelConfig())
		}
	})
}

func TestMetadata(t *testing.T) {
	meta := Metadata()
	if meta.Name != "google" {
		t.Errorf("expected name google, got %s", meta.Name)
	}
	if meta.DefaultModel != DefaultModel {
		t.Errorf("expected default model %s, got %s", DefaultModel, meta.DefaultModel)
	}
	if keys := meta.SecretKeys(); len(keys) != 1 || keys[0] != APIKeyKey {
		t.Errorf("expected secret key %s, got %v", APIKeyKey, keys)
	}
}
