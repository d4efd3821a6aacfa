package anthropic

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"mercator-hq/relay/pkg/providers"
)

// DefaultMaxTokens is sent when the model config leaves MaxTokens unset.
// The Messages API requires max_tokens on every request.
const DefaultMaxTokens = 4096

// Anthropic API request types

// AnthropicRequest represents an Anthropic messages request.
type AnthropicRequest struct {
	Model       string             `json:"model"`
	Messages    []AnthropicMessage `json:"messages"`
	System      string             `json:"system,omitempty"`
	MaxTokens   int                `json:"max_tokens"`
	Temperature float64            `json:"temperature,omitempty"`
	Tools       []AnthropicTool    `json:"tools,omitempty"`
}

// AnthropicMessage represents a message in Anthropic format.
type AnthropicMessage struct {
	Role    string         `json:"role"`
	Content []ContentBlock `json:"content"`
}

// ContentBlock represents a content block in Anthropic format.
type ContentBlock struct {
	Type string `json:"type"` // "text" or "tool_use" or "tool_result"
	Text string `json:"text,omitempty"`

	// For tool_use blocks
	ID    string          `json:"id,omitempty"`
	Name  string          `json:"name,omitempty"`
	Input json.RawMessage `json:"input,omitempty"`

	// For tool_result blocks
	ToolUseID string `json:"tool_use_id,omitempty"`
	Content   string `json:"content,omitempty"`
}

// AnthropicTool represents a tool definition in Anthropic format.
type AnthropicTool struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description,omitempty"`
	InputSchema map[string]interface{} `json:"input_schema"`
}

// Format translates between the canonical model and the Anthropic Messages
// wire format.
type Format struct{}

var _ providers.Formatter = Format{}

// CreateRequest builds a Messages API request. The system prompt is sent as the
// top-level system field, and consecutive turns of the same role are merged
// because the API requires user and assistant turns to alternate.
func (Format) CreateRequest(model providers.ModelConfig, system string, messages []providers.Message, tools []providers.Tool) (json.RawMessage, error) {
	req := AnthropicRequest{
		Model:       model.ModelName,
		Messages:    make([]AnthropicMessage, 0, len(messages)),
		System:      system,
		MaxTokens:   model.MaxTokens,
		Temperature: model.Temperature,
	}

	// Set default max_tokens if not provided (required by Anthropic)
	if req.MaxTokens == 0 {
		req.MaxTokens = DefaultMaxTokens
	}

	for _, msg := range messages {
		role, blocks, err := toBlocks(msg)
		if err != nil {
			return nil, err
		}
		if len(blocks) == 0 {
			continue
		}

		if n := len(req.Messages); n > 0 && req.Messages[n-1].Role == role {
			req.Messages[n-1].Content = append(req.Messages[n-1].Content, blocks...)
			continue
		}
		req.Messages = append(req.Messages, AnthropicMessage{Role: role, Content: blocks})
	}

	if err := validateMessageSequence(req.Messages); err != nil {
		return nil, err
	}

	if len(tools) > 0 {
		req.Tools = make([]AnthropicTool, len(tools))
		for i, tool := range tools {
			schema := tool.Parameters
			if schema == nil {
				schema = map[string]interface{}{"type": "object", "properties": map[string]interface{}{}}
			}
			req.Tools[i] = AnthropicTool{
				Name:        tool.Name,
				Description: tool.Description,
				InputSchema: schema,
			}
		}
	}

	body, err := json.Marshal(req)
	if err != nil {
		return nil, providers.RequestFailedWithCause(err, "failed to marshal Anthropic request: %v", err)
	}
	return body, nil
}

// toBlocks converts one canonical message into the role and content blocks it
// contributes. Tool results are sent as user turns.
func toBlocks(msg providers.Message) (string, []ContentBlock, error) {
	switch msg.Role {
	case providers.RoleTool:
		return providers.RoleUser, []ContentBlock{{
			Type:      "tool_result",
			ToolUseID: msg.ToolCallID,
			Content:   msg.Content,
		}}, nil

	case providers.RoleAssistant:
		var blocks []ContentBlock
		if msg.Content != "" {
			blocks = append(blocks, ContentBlock{Type: "text", Text: msg.Content})
		}
		for _, tc := range msg.ToolCalls {
			input := json.RawMessage("{}")
			if args := strings.TrimSpace(tc.Function.Arguments); args != "" {
				if !gjson.Valid(args) {
					return "", nil, providers.RequestFailed("tool call %q has invalid arguments", tc.ID)
				}
				input = json.RawMessage(args)
			}
			blocks = append(blocks, ContentBlock{
				Type:  "tool_use",
				ID:    tc.ID,
				Name:  tc.Function.Name,
				Input: input,
			})
		}
		return providers.RoleAssistant, blocks, nil

	default:
		if msg.Content == "" {
			return providers.RoleUser, nil, nil
		}
		return providers.RoleUser, []ContentBlock{{Type: "text", Text: msg.Content}}, nil
	}
}

// validateMessageSequence checks that the conversation starts with a user turn.
func validateMessageSequence(messages []AnthropicMessage) error {
	if len(messages) == 0 {
		return nil
	}

	if messages[0].Role != providers.RoleUser {
		return providers.RequestFailed("first message must be from user, got %s", messages[0].Role)
	}

	return nil
}

// ResponseToMessage joins the text blocks and collects tool_use blocks.
func (Format) ResponseToMessage(response json.RawMessage) (providers.Message, error) {
	if errMsg := gjson.GetBytes(response, "error.message"); errMsg.Exists() {
		return providers.Message{}, providers.RequestFailed("backend returned an error: %s", errMsg.String())
	}

	msg := providers.Message{
		Role:    providers.RoleAssistant,
		Created: time.Now().Unix(),
	}

	var text strings.Builder
	for _, block := range gjson.GetBytes(response, "content").Array() {
		switch block.Get("type").String() {
		case "text":
			text.WriteString(block.Get("text").String())

		case "tool_use":
			name := block.Get("name").String()
			if name == "" {
				return providers.Message{}, providers.RequestFailed("tool_use block has no name: %s", block.Raw)
			}
			args := "{}"
			if input := block.Get("input"); input.IsObject() {
				args = input.Raw
			}
			msg.ToolCalls = append(msg.ToolCalls, providers.ToolCall{
				ID:   block.Get("id").String(),
				Type: providers.ToolTypeFunction,
				Function: providers.FunctionCall{
					Name:      name,
					Arguments: args,
				},
			})
		}
	}
	msg.Content = text.String()

	return msg, nil
}

// GetUsage reads usage.input_tokens and usage.output_tokens.
func (Format) GetUsage(response json.RawMessage) (providers.Usage, error) {
	usage := gjson.GetBytes(response, "usage")
	if !usage.Exists() {
		return providers.Usage{}, providers.UsageError("no usage data in response")
	}
	if !usage.IsObject() {
		return providers.Usage{}, providers.UsageError("usage is not an object: %s", usage.Raw)
	}

	input := usage.Get("input_tokens")
	output := usage.Get("output_tokens")
	if input.Type != gjson.Number || output.Type != gjson.Number {
		return providers.Usage{}, providers.UsageError("usage token counts are not numbers: %s", usage.Raw)
	}

	in, out := int(input.Int()), int(output.Int())
	return providers.Usage{InputTokens: in, OutputTokens: out, TotalTokens: in + out}, nil
}
