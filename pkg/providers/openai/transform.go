package openai

import (
	"encoding/json"
	"time"

	"github.com/tidwall/gjson"

	"mercator-hq/relay/pkg/providers"
)

// OpenAI chat completion request types

// OpenAIRequest represents an OpenAI chat completion request.
type OpenAIRequest struct {
	Model       string          `json:"model"`
	Messages    []OpenAIMessage `json:"messages"`
	Temperature float64         `json:"temperature,omitempty"`
	MaxTokens   int             `json:"max_tokens,omitempty"`
	Tools       []OpenAITool    `json:"tools,omitempty"`
}

// OpenAIMessage represents a message in OpenAI format.
type OpenAIMessage struct {
	Role       string           `json:"role"`
	Content    string           `json:"content"`
	Name       string           `json:"name,omitempty"`
	ToolCallID string           `json:"tool_call_id,omitempty"`
	ToolCalls  []OpenAIToolCall `json:"tool_calls,omitempty"`
}

// OpenAIToolCall represents a tool call in OpenAI format.
type OpenAIToolCall struct {
	ID       string             `json:"id"`
	Type     string             `json:"type"`
	Function OpenAIFunctionCall `json:"function"`
}

// OpenAIFunctionCall represents a function call in OpenAI format.
type OpenAIFunctionCall struct {
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

// OpenAITool represents a tool definition in OpenAI format.
type OpenAITool struct {
	Type     string                   `json:"type"`
	Function OpenAIFunctionDefinition `json:"function"`
}

// OpenAIFunctionDefinition represents a function definition in OpenAI format.
type OpenAIFunctionDefinition struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description,omitempty"`
	Parameters  map[string]interface{} `json:"parameters,omitempty"`
}

// Format translates between the canonical model and the OpenAI chat
// completions wire format. It is shared by every OpenAI-compatible backend and
// by the script-executed provider.
type Format struct{}

var _ providers.Formatter = Format{}

// CreateRequest builds a chat completion request. The system prompt becomes the
// leading system message.
func (Format) CreateRequest(model providers.ModelConfig, system string, messages []providers.Message, tools []providers.Tool) (json.RawMessage, error) {
	req := OpenAIRequest{
		Model:       model.ModelName,
		Messages:    make([]OpenAIMessage, 0, len(messages)+1),
		Temperature: model.Temperature,
		MaxTokens:   model.MaxTokens,
	}

	if system != "" {
		req.Messages = append(req.Messages, OpenAIMessage{Role: providers.RoleSystem, Content: system})
	}

	for _, msg := range messages {
		om := OpenAIMessage{
			Role:    msg.Role,
			Content: msg.Content,
		}
		switch msg.Role {
		case providers.RoleTool:
			om.ToolCallID = msg.ToolCallID
		case providers.RoleAssistant:
			for _, tc := range msg.ToolCalls {
				om.ToolCalls = append(om.ToolCalls, OpenAIToolCall{
					ID:   tc.ID,
					Type: providers.ToolTypeFunction,
					Function: OpenAIFunctionCall{
						Name:      tc.Function.Name,
						Arguments: tc.Function.Arguments,
					},
				})
			}
		default:
			om.Name = msg.Name
		}
		req.Messages = append(req.Messages, om)
	}

	if len(tools) > 0 {
		req.Tools = make([]OpenAITool, len(tools))
		for i, tool := range tools {
			req.Tools[i] = OpenAITool{
				Type: providers.ToolTypeFunction,
				Function: OpenAIFunctionDefinition{
					Name:        tool.Name,
					Description: tool.Description,
					Parameters:  tool.Parameters,
				},
			}
		}
	}

	body, err := json.Marshal(req)
	if err != nil {
		return nil, providers.RequestFailedWithCause(err, "failed to marshal OpenAI request: %v", err)
	}
	return body, nil
}

// ResponseToMessage extracts the first choice's message.
func (Format) ResponseToMessage(response json.RawMessage) (providers.Message, error) {
	if errMsg := gjson.GetBytes(response, "error.message"); errMsg.Exists() {
		return providers.Message{}, providers.RequestFailed("backend returned an error: %s", errMsg.String())
	}

	msg := providers.Message{
		Role:    providers.RoleAssistant,
		Created: time.Now().Unix(),
	}
	if created := gjson.GetBytes(response, "created"); created.Type == gjson.Number {
		msg.Created = created.Int()
	}

	original := gjson.GetBytes(response, "choices.0.message")
	if !original.Exists() {
		return msg, nil
	}

	msg.Content = original.Get("content").String()

	for _, tc := range original.Get("tool_calls").Array() {
		call := providers.ToolCall{
			ID:   tc.Get("id").String(),
			Type: providers.ToolTypeFunction,
			Function: providers.FunctionCall{
				Name:      tc.Get("function.name").String(),
				Arguments: tc.Get("function.arguments").String(),
			},
		}
		if call.Function.Name == "" {
			return providers.Message{}, providers.RequestFailed("tool call %q has no function name", call.ID)
		}
		if call.Function.Arguments == "" {
			call.Function.Arguments = "{}"
		}
		msg.ToolCalls = append(msg.ToolCalls, call)
	}

	return msg, nil
}

// GetUsage reads the "usage" object. A response without one is a usage error.
func (Format) GetUsage(response json.RawMessage) (providers.Usage, error) {
	usage := gjson.GetBytes(response, "usage")
	if !usage.Exists() {
		return providers.Usage{}, providers.UsageError("no usage data in response")
	}
	if !usage.IsObject() {
		return providers.Usage{}, providers.UsageError("usage is not an object: %s", usage.Raw)
	}

	input, err := tokenCount(usage, "prompt_tokens")
	if err != nil {
		return providers.Usage{}, err
	}
	output, err := tokenCount(usage, "completion_tokens")
	if err != nil {
		return providers.Usage{}, err
	}
	total, err := tokenCount(usage, "total_tokens")
	if err != nil {
		return providers.Usage{}, err
	}
	if total == 0 {
		total = input + output
	}

	return providers.Usage{InputTokens: input, OutputTokens: output, TotalTokens: total}, nil
}

func tokenCount(usage gjson.Result, field string) (int, error) {
	v := usage.Get(field)
	switch v.Type {
	case gjson.Null:
		return 0, nil
	case gjson.Number:
		return int(v.Int()), nil
	default:
		return 0, providers.UsageError("%s is not a number: %s", field, v.Raw)
	}
}
