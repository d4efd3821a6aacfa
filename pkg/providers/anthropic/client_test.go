package anthropic

import (
	"context"
	"errors"
	"testing"

	"github.com/tidwall/gjson"

	testhelpers "mercator-hq/relay/internal/providers"
	"mercator-hq/relay/pkg/providers"
)

func newTestProvider(t *testing.T, mock *testhelpers.MockServer, sleep *testhelpers.SleepRecorder) *Provider {
	t.Helper()

	store := testhelpers.TestStore(APIKeyKey, "test-key", HostKey, mock.URL())
	provider, err := FromConfig(store, providers.NewModelConfig("claude-3-opus-20240229"),
		WithTransportOptions(testhelpers.FastTransport(mock, sleep)...))
	if err != nil {
		t.Fatalf("failed to create provider: %v", err)
	}
	return provider
}

func TestAnthropicProvider_Complete(t *testing.T) {
	mock := testhelpers.NewMockServer()
	defer mock.Close()

	mock.SetResponse("/v1/messages", testhelpers.MockResponse{
		StatusCode: 200,
		Body:       testhelpers.MockAnthropicResponse("Hello, world!", "claude-3-opus-20240229"),
	})

	provider := newTestProvider(t, mock, nil)

	msg, usage, err := provider.Complete(context.Background(), "be kind", testhelpers.TestConversation("Hello"), nil)
	if err != nil {
		t.Fatalf("Complete failed: %v", err)
	}

	if usage.Model != "claude-3-opus-20240229" {
		t.Errorf("expected model claude-3-opus-20240229, got %s", usage.Model)
	}
	if msg.Content != "Hello, world!" {
		t.Errorf("expected content %q, got %q", "Hello, world!", msg.Content)
	}
	if usage.Usage.TotalTokens != 30 {
		t.Errorf("expected total tokens 30, got %d", usage.Usage.TotalTokens)
	}

	req, _ := mock.LastRequest()
	if got := req.Header.Get("x-api-key"); got != "test-key" {
		t.Errorf("expected x-api-key header, got %q", got)
	}
	if got := req.Header.Get("anthropic-version"); got != DefaultAnthropicVersion {
		t.Errorf("expected anthropic-version %s, got %q", DefaultAnthropicVersion, got)
	}
	if got := gjson.GetBytes(req.Body, "system").String(); got != "be kind" {
		t.Errorf("expected top-level system prompt, got %q", got)
	}
	if got := gjson.GetBytes(req.Body, "max_tokens").Int(); got != DefaultMaxTokens {
		t.Errorf("expected default max_tokens, got %d", got)
	}
}

func TestAnthropicProvider_RateLimitPropagates(t *testing.T) {
	mock := testhelpers.NewMockServer()
	defer mock.Close()

	mock.SetResponse("/v1/messages", testhelpers.MockRateLimitError(1))

	provider := newTestProvider(t, mock, &testhelpers.SleepRecorder{})

	_, _, err := provider.Complete(context.Background(), "", testhelpers.TestConversation("Hello"), nil)
	if !errors.Is(err, providers.ErrRateLimitExceeded) {
		t.Fatalf("expected rate limit error, got %v", err)
	}
}

func TestAnthropicProvider_AuthError(t *testing.T) {
	mock := testhelpers.NewMockServer()
	defer mock.Close()

	mock.SetResponse("/v1/messages", testhelpers.MockAuthError())

	provider := newTestProvider(t, mock, nil)

	_, _, err := provider.Complete(context.Background(), "", testhelpers.TestConversation("Hello"), nil)
	testhelpers.AssertErrorKind(t, err, providers.KindOther)
}

func TestAnthropicProvider_ValidationError(t *testing.T) {
	mock := testhelpers.NewMockServer()
	defer mock.Close()

	provider := newTestProvider(t, mock, nil)

	messages := []providers.Message{providers.NewAssistantMessage("I speak first")}
	_, _, err := provider.Complete(context.Background(), "", messages, nil)
	testhelpers.AssertErrorKind(t, err, providers.KindRequestFailed)

	if mock.GetRequestCount() != 0 {
		t.Errorf("expected no request to be sent, got %d", mock.GetRequestCount())
	}
}

func TestFromConfig_MissingKey(t *testing.T) {
	_, err := FromConfig(testhelpers.TestStore(), providers.NewModelConfig(DefaultModel))
	var cfgErr *providers.ConfigError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("expected ConfigError, got %v", err)
	}
}

func TestFormat_CreateRequest_ToolTurns(t *testing.T) {
	messages := []providers.Message{
		providers.NewUserMessage("weather?"),
		{
			Role: providers.RoleAssistant,
			ToolCalls: []providers.ToolCall{
				{ID: "tu_1", Function: providers.FunctionCall{Name: "get_weather", Arguments: `{"city":"Paris"}`}},
				{ID: "tu_2", Function: providers.FunctionCall{Name: "get_weather", Arguments: ""}},
			},
		},
		providers.NewToolResult("tu_1", "get_weather", "sunny"),
		providers.NewToolResult("tu_2", "get_weather", "rainy"),
	}

	body, err := (Format{}).CreateRequest(providers.NewModelConfig("claude"), "", messages, []providers.Tool{{Name: "get_weather"}})
	if err != nil {
		t.Fatalf("CreateRequest failed: %v", err)
	}

	if got := gjson.GetBytes(body, "messages.#").Int(); got != 3 {
		t.Fatalf("expected tool results merged into 3 messages, got %d: %s", got, body)
	}
	if got := gjson.GetBytes(body, "messages.1.content.0.input.city").String(); got != "Paris" {
		t.Errorf("expected tool_use input, got %q", got)
	}
	if got := gjson.GetBytes(body, "messages.1.content.1.input").Raw; got != "{}" {
		t.Errorf("expected empty input object, got %s", got)
	}
	if got := gjson.GetBytes(body, "messages.2.content.#").Int(); got != 2 {
		t.Errorf("expected 2 tool_result blocks, got %d", got)
	}
	if got := gjson.GetBytes(body, "messages.2.content.1.tool_use_id").String(); got != "tu_2" {
		t.Errorf("expected tool_use_id tu_2, got %q", got)
	}
	if got := gjson.GetBytes(body, "tools.0.input_schema.type").String(); got != "object" {
		t.Errorf("expected default input schema, got %q", got)
	}
}

func TestFormat_ResponseToMessage(t *testing.T) {
	resp := `{"content":[{"type":"text","text":"Let me check."},{"type":"tool_use","id":"tu_1","name":"get_weather","input":{"city":"Paris"}}]}`

	msg, err := (Format{}).ResponseToMessage([]byte(resp))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if msg.Content != "Let me check." {
		t.Errorf("unexpected content %q", msg.Content)
	}
	if len(msg.ToolCalls) != 1 || msg.ToolCalls[0].ID != "tu_1" {
		t.Fatalf("unexpected tool calls %+v", msg.ToolCalls)
	}
	if msg.ToolCalls[0].Function.Arguments != `{"city":"Paris"}` {
		t.Errorf("unexpected arguments %s", msg.ToolCalls[0].Function.Arguments)
	}
}

func TestFormat_GetUsage(t *testing.T) {
	usage, err := (Format{}).GetUsage([]byte(`{"usage":{"input_tokens":4,"output_tokens":6}}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if usage != (providers.Usage{InputTokens: 4, OutputTokens: 6, TotalTokens: 10}) {
		t.Errorf("unexpected usage %+v", usage)
	}

	for _, resp := range []string{`{}`, `{"usage":1}`, `{"usage":{"input_tokens":"4","output_tokens":6}}`} {
		if _, err := (Format{}).GetUsage([]byte(resp)); !providers.IsKind(err, providers.KindUsageError) {
			t.Errorf("%s: expected usage error, got %v", resp, err)
		}
	}
}
