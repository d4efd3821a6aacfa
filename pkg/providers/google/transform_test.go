package google

import (
	"strings"
	"testing"

	"github.com/tidwall/gjson"

	"mercator-hq/relay/pkg/providers"
)

func TestFormat_CreateRequest(t *testing.T) {
	model := providers.ModelConfig{ModelName: "gemini-2.0-flash", Temperature: 0.2, MaxTokens: 256}
	messages := []providers.Message{
		providers.NewUserMessage("weather in Paris?"),
		{
			Role:    providers.RoleAssistant,
			Content: "checking",
			ToolCalls: []providers.ToolCall{{
				ID:       "call_1",
				Type:     providers.ToolTypeFunction,
				Function: providers.FunctionCall{Name: "get_weather", Arguments: `{"city":"Paris"}`},
			}},
		},
		providers.NewToolResult("call_1", "get_weather", "sunny"),
	}
	tools := []providers.Tool{{
		Name:        "get_weather",
		Description: "weather",
		Parameters: map[string]interface{}{
			"$schema":              "http://json-schema.org/draft-07/schema#",
			"type":                 "object",
			"additionalProperties": false,
			"properties": map[string]interface{}{
				"city": map[string]interface{}{"type": "string"},
			},
		},
	}}

	body, err := (Format{}).CreateRequest(model, "be terse", messages, tools)
	if err != nil {
		t.Fatalf("CreateRequest failed: %v", err)
	}

	checks := map[string]string{
		"systemInstruction.parts.0.text":                       "be terse",
		"contents.0.role":                                      "user",
		"contents.0.parts.0.text":                              "weather in Paris?",
		"contents.1.role":                                      "model",
		"contents.1.parts.0.text":                              "checking",
		"contents.1.parts.1.functionCall.name":                 "get_weather",
		"contents.1.parts.1.functionCall.args.city":            "Paris",
		"contents.2.parts.0.functionResponse.name":             "get_weather",
		"contents.2.parts.0.functionResponse.response.content": "sunny",
		"tools.0.functionDeclarations.0.name":                  "get_weather",
	}
	for path, want := range checks {
		if got := gjson.GetBytes(body, path).String(); got != want {
			t.Errorf("%s: expected %q, got %q", path, want, got)
		}
	}

	params := gjson.GetBytes(body, "tools.0.functionDeclarations.0.parameters")
	if params.Get(`\$schema`).Exists() || params.Get("additionalProperties").Exists() {
		t.Errorf("expected unsupported schema keys to be stripped: %s", params.Raw)
	}
	if got := gjson.GetBytes(body, "generationConfig.maxOutputTokens").Int(); got != 256 {
		t.Errorf("expected maxOutputTokens 256, got %d", got)
	}
}

func TestFormat_CreateRequest_Minimal(t *testing.T) {
	body, err := (Format{}).CreateRequest(providers.NewModelConfig("gemini-2.0-flash"), "",
		[]providers.Message{providers.NewUserMessage("hi")}, nil)
	if err != nil {
		t.Fatalf("CreateRequest failed: %v", err)
	}
	for _, field := range []string{"systemInstruction", "tools", "generationConfig"} {
		if gjson.GetBytes(body, field).Exists() {
			t.Errorf("expected %s to be omitted: %s", field, body)
		}
	}
}

func TestFormat_CreateRequest_BadToolArguments(t *testing.T) {
	messages := []providers.Message{{
		Role: providers.RoleAssistant,
		ToolCalls: []providers.ToolCall{{
			ID:       "call_1",
			Function: providers.FunctionCall{Name: "f", Arguments: "{not json"},
		}},
	}}

	_, err := (Format{}).CreateRequest(providers.NewModelConfig("gemini-2.0-flash"), "", messages, nil)
	if !providers.IsKind(err, providers.KindRequestFailed) {
		t.Fatalf("expected request failed error, got %v", err)
	}
}

func TestFormat_ResponseToMessage(t *testing.T) {
	t.Run("text parts are joined", func(t *testing.T) {
		resp := `{"candidates":[{"content":{"role":"model","parts":[{"text":"Hello, "},{"text":"world"}]}}]}`
		msg, err := (Format{}).ResponseToMessage([]byte(resp))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if msg.Content != "Hello, world" {
			t.Errorf("expected joined text, got %q", msg.Content)
		}
	})

	t.Run("function call", func(t *testing.T) {
		resp := `{"candidates":[{"content":{"parts":[{"functionCall":{"name":"get_weather","args":{"city":"Paris"}}}]}}]}`
		msg, err := (Format{}).ResponseToMessage([]byte(resp))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(msg.ToolCalls) != 1 {
			t.Fatalf("expected 1 tool call, got %d", len(msg.ToolCalls))
		}
		call := msg.ToolCalls[0]
		if !strings.HasPrefix(call.ID, "call_") {
			t.Errorf("expected generated call id, got %q", call.ID)
		}
		if gjson.Get(call.Function.Arguments, "city").String() != "Paris" {
			t.Errorf("unexpected arguments %s", call.Function.Arguments)
		}
	})

	t.Run("no candidates", func(t *testing.T) {
		msg, err := (Format{}).ResponseToMessage([]byte(`{}`))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if msg.Role != providers.RoleAssistant || msg.Content != "" {
			t.Errorf("expected empty assistant message, got %+v", msg)
		}
	})

	t.Run("nameless function call", func(t *testing.T) {
		resp := `{"candidates":[{"content":{"parts":[{"functionCall":{"args":{}}}]}}]}`
		_, err := (Format{}).ResponseToMessage([]byte(resp))
		if !providers.IsKind(err, providers.KindRequestFailed) {
			t.Fatalf("expected request failed error, got %v", err)
		}
	})
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
			response: `{"usageMetadata":{"promptTokenCount":5,"candidatesTokenCount":7,"totalTokenCount":12}}`,
			want:     providers.Usage{InputTokens: 5, OutputTokens: 7, TotalTokens: 12},
		},
		{
			name:     "missing",
			response: `{}`,
		},
		{
			name:     "total derived",
			response: `{"usageMetadata":{"promptTokenCount":5,"candidatesTokenCount":7}}`,
			want:     providers.Usage{InputTokens: 5, OutputTokens: 7, TotalTokens: 12},
		},
		{name: "not an object", response: `{"usageMetadata":[]}`, wantErr: true},
		{name: "string count", response: `{"usageMetadata":{"promptTokenCount":"5"}}`, wantErr: true},
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
