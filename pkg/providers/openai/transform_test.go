package openai

import (
	"testing"

	"github.com/tidwall/gjson"

	"mercator-hq/relay/pkg/providers"
)

func TestFormat_CreateRequest(t *testing.T) {
	model := providers.ModelConfig{ModelName: "gpt-4o", Temperature: 0.5, MaxTokens: 64}
	messages := []providers.Message{
		providers.NewUserMessage("weather in Paris?"),
		{
			Role: providers.RoleAssistant,
			ToolCalls: []providers.ToolCall{{
				ID:       "call_1",
				Type:     providers.ToolTypeFunction,
				Function: providers.FunctionCall{Name: "get_weather", Arguments: `{"city":"Paris"}`},
			}},
		},
		providers.NewToolResult("call_1", "get_weather", "sunny"),
	}
	tools := []providers.Tool{{Name: "get_weather", Description: "weather"}}

	body, err := (Format{}).CreateRequest(model, "be terse", messages, tools)
	if err != nil {
		t.Fatalf("CreateRequest failed: %v", err)
	}

	checks := map[string]string{
		"model":                                 "gpt-4o",
		"messages.0.role":                       "system",
		"messages.0.content":                    "be terse",
		"messages.1.role":                       "user",
		"messages.2.tool_calls.0.function.name": "get_weather",
		"messages.3.tool_call_id":               "call_1",
		"tools.0.type":                          "function",
		"tools.0.function.name":                 "get_weather",
	}
	for path, want := range checks {
		if got := gjson.GetBytes(body, path).String(); got != want {
			t.Errorf("%s: expected %q, got %q", path, want, got)
		}
	}
	if got := gjson.GetBytes(body, "max_tokens").Int(); got != 64 {
		t.Errorf("expected max_tokens 64, got %d", got)
	}
}

func TestFormat_CreateRequest_NoSystem(t *testing.T) {
	body, err := (Format{}).CreateRequest(providers.NewModelConfig("gpt-4o"), "", []providers.Message{providers.NewUserMessage("hi")}, nil)
	if err != nil {
		t.Fatalf("CreateRequest failed: %v", err)
	}
	if got := gjson.GetBytes(body, "messages.#").Int(); got != 1 {
		t.Errorf("expected 1 message, got %d", got)
	}
	if gjson.GetBytes(body, "tools").Exists() {
		t.Error("expected tools to be omitted")
	}
}

func TestFormat_ResponseToMessage(t *testing.T) {
	tests := []struct {
		name      string
		response  string
		content   string
		toolCalls int
		wantErr   bool
	}{
		{
			name:     "text",
			response: `{"created":1700000000,"choices":[{"message":{"role":"assistant","content":"hello"}}]}`,
			content:  "hello",
		},
		{
			name:      "tool call with empty arguments",
			response:  `{"choices":[{"message":{"role":"assistant","content":null,"tool_calls":[{"id":"c1","type":"function","function":{"name":"f","arguments":""}}]}}]}`,
			toolCalls: 1,
		},
		{
			name:     "tool call without name",
			response: `{"choices":[{"message":{"tool_calls":[{"id":"c1","function":{"arguments":"{}"}}]}}]}`,
			wantErr:  true,
		},
		{
			name:     "error body",
			response: `{"error":{"message":"boom"}}`,
			wantErr:  true,
		},
		{
			name:     "no choices",
			response: `{"choices":[]}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg, err := (Format{}).ResponseToMessage([]byte(tt.response))
			if tt.wantErr {
				if !providers.IsKind(err, providers.KindRequestFailed) {
					t.Fatalf("expected request failed error, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if msg.Content != tt.content {
				t.Errorf("expected content %q, got %q", tt.content, msg.Content)
			}
			if len(msg.ToolCalls) != tt.toolCalls {
				t.Errorf("expected %d tool calls, got %d", tt.toolCalls, len(msg.ToolCalls))
			}
			for _, tc := range msg.ToolCalls {
				if tc.Function.Arguments != "{}" {
					t.Errorf("expected empty arguments to become {}, got %q", tc.Function.Arguments)
				}
			}
		})
	}
}

func TestFormat_GetUsage(t *testing.T) {
	tests := []struct {
		name     string
		response string
		want     providers.Usage
		wantErr  bool
	}{
		{
			name:     "full",
			response: `{"usage":{"prompt_tokens":3,"completion_tokens":4,"total_tokens":7}}`,
			want:     providers.Usage{InputTokens: 3, OutputTokens: 4, TotalTokens: 7},
		},
		{
			name:     "total derived",
			response: `{"usage":{"prompt_tokens":3,"completion_tokens":4}}`,
			want:     providers.Usage{InputTokens: 3, OutputTokens: 4, TotalTokens: 7},
		},
		{name: "missing", response: `{}`, wantErr: true},
		{name: "not an object", response: `{"usage":"lots"}`, wantErr: true},
		{name: "non-numeric", response: `{"usage":{"prompt_tokens":"3"}}`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := (Format{}).GetUsage([]byte(tt.response))
			if tt.wantErr {
				if !providers.IsKind(err, providers.KindUsageError) {
					t.Fatalf("expected usage error, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("expected %+v, got %+v", tt.want, got)
			}
		})
	}
}
