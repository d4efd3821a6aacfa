package providers

import "time"

// ModelConfig identifies the model an adapter talks to.
// It is fixed when the adapter is built; switching models means building a new adapter.
type ModelConfig struct {
	// ModelName is the backend model identifier (e.g., "gemini-2.0-flash")
	ModelName string `json:"model_name" yaml:"model_name"`

	// Temperature controls randomness. Zero leaves the backend default.
	Temperature float64 `json:"temperature,omitempty" yaml:"temperature,omitempty"`

	// MaxTokens caps the generated tokens. Zero leaves the backend default.
	MaxTokens int `json:"max_tokens,omitempty" yaml:"max_tokens,omitempty"`
}

// NewModelConfig returns a ModelConfig for the named model with backend defaults.
func NewModelConfig(name string) ModelConfig {
	return ModelConfig{ModelName: name}
}

// Message represents a single conversation turn.
// It is provider-agnostic and is translated to the wire format by a Formatter.
type Message struct {
	// Role identifies the message sender (user, assistant, tool)
	Role string `json:"role"`

	// Content is the message text content
	Content string `json:"content"`

	// Name is the tool name for tool results, or an optional sender name
	Name string `json:"name,omitempty"`

	// ToolCalls contains tool calls made by the assistant (for assistant role)
	ToolCalls []ToolCall `json:"tool_calls,omitempty"`

	// ToolCallID is used when role is "tool" to reference which tool call this responds to
	ToolCallID string `json:"tool_call_id,omitempty"`

	// Created is the Unix timestamp when the message was produced
	Created int64 `json:"created"`
}

// NewUserMessage returns a user turn with the given text.
func NewUserMessage(text string) Message {
	return Message{Role: RoleUser, Content: text, Created: time.Now().Unix()}
}

// NewAssistantMessage returns an assistant turn with the given text.
func NewAssistantMessage(text string) Message {
	return Message{Role: RoleAssistant, Content: text, Created: time.Now().Unix()}
}

// NewToolResult returns a tool turn answering the call with the given ID.
func NewToolResult(callID, name, result string) Message {
	return Message{
		Role:       RoleTool,
		Content:    result,
		Name:       name,
		ToolCallID: callID,
		Created:    time.Now().Unix(),
	}
}

// ToolCall represents a function/tool call request from the model.
type ToolCall struct {
	// ID is a unique identifier for this tool call
	ID string `json:"id"`

	// Type is the type of tool call (currently always "function")
	Type string `json:"type"`

	// Function contains the function name and arguments
	Function FunctionCall `json:"function"`
}

// FunctionCall represents a specific function invocation.
type FunctionCall struct {
	// Name is the function name to call
	Name string `json:"name"`

	// Arguments is a JSON string containing the function arguments
	Arguments string `json:"arguments"`
}

// Tool describes a function the model may call.
type Tool struct {
	// Name is the function name
	Name string `json:"name"`

	// Description explains what the function does
	Description string `json:"description,omitempty"`

	// Parameters is a JSON Schema object describing the function parameters
	Parameters map[string]interface{} `json:"parameters,omitempty"`
}

// Usage tracks token consumption for a completion.
// The zero value means the backend did not report usage.
type Usage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
	TotalTokens  int `json:"total_tokens"`
}

// ProviderUsage pairs token usage with the model that actually served the request.
type ProviderUsage struct {
	// Model is the model identifier reported by the backend
	Model string `json:"model"`

	// Usage is the token accounting for the completion
	Usage Usage `json:"usage"`
}

// NewProviderUsage builds a ProviderUsage.
func NewProviderUsage(model string, usage Usage) ProviderUsage {
	return ProviderUsage{Model: model, Usage: usage}
}

// Message role constants
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleTool      = "tool"
)

// Tool type constants
const (
	ToolTypeFunction = "function"
)
