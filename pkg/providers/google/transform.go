package google

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/tidwall/gjson"

	"mercator-hq/relay/pkg/providers"
)

// Gemini generateContent request types

// GeminiRequest represents a generateContent request.
type GeminiRequest struct {
	Contents          []GeminiContent   `json:"contents"`
	SystemInstruction *GeminiContent    `json:"systemInstruction,omitempty"`
	Tools             []GeminiTool      `json:"tools,omitempty"`
	GenerationConfig  *GenerationConfig `json:"generationConfig,omitempty"`
}

// GeminiContent is one turn. Role is "user" or "model"; the system
// instruction has no role.
type GeminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []GeminiPart `json:"parts"`
}

// GeminiPart holds exactly one of text, a function call or a function response.
type GeminiPart struct {
	Text             string                  `json:"text,omitempty"`
	FunctionCall     *GeminiFunctionCall     `json:"functionCall,omitempty"`
	FunctionResponse *GeminiFunctionResponse `json:"functionResponse,omitempty"`
}

// GeminiFunctionCall is a model-issued call.
type GeminiFunctionCall struct {
	Name string                 `json:"name"`
	Args map[string]interface{} `json:"args"`
}

// GeminiFunctionResponse carries a tool result back to the model.
type GeminiFunctionResponse struct {
	Name     string                 `json:"name"`
	Response map[string]interface{} `json:"response"`
}

// GeminiTool groups function declarations.
type GeminiTool struct {
	FunctionDeclarations []FunctionDeclaration `json:"functionDeclarations"`
}

// FunctionDeclaration describes one callable function.
type FunctionDeclaration struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description,omitempty"`
	Parameters  map[string]interface{} `json:"parameters,omitempty"`
}

// GenerationConfig holds sampling parameters.
type GenerationConfig struct {
	Temperature     *float64 `json:"temperature,omitempty"`
	MaxOutputTokens int      `json:"maxOutputTokens,omitempty"`
}

// Gemini rejects these JSON schema keywords in function parameters.
var unsupportedSchemaKeys = []string{"$schema", "additionalProperties"}

// Format translates between the canonical model and the Gemini
// generateContent wire format.
type Format struct{}

var _ providers.Formatter = Format{}

// CreateRequest builds a generateContent request body.
func (Format) CreateRequest(model providers.ModelConfig, system string, messages []providers.Message, tools []providers.Tool) (json.RawMessage, error) {
	req := GeminiRequest{
		Contents: make([]GeminiContent, 0, len(messages)),
	}

	if system != "" {
		req.SystemInstruction = &GeminiContent{Parts: []GeminiPart{{Text: system}}}
	}

	for _, msg := range messages {
		content, err := toContent(msg)
		if err != nil {
			return nil, err
		}
		if len(content.Parts) == 0 {
			continue
		}
		req.Contents = append(req.Contents, content)
	}

	if len(tools) > 0 {
		decls := make([]FunctionDeclaration, len(tools))
		for i, tool := range tools {
			decls[i] = FunctionDeclaration{
				Name:        tool.Name,
				Description: tool.Description,
				Parameters:  cleanSchema(tool.Parameters),
			}
		}
		req.Tools = []GeminiTool{{FunctionDeclarations: decls}}
	}

	if model.Temperature != 0 || model.MaxTokens != 0 {
		cfg := &GenerationConfig{MaxOutputTokens: model.MaxTokens}
		if model.Temperature != 0 {
			t := model.Temperature
			cfg.Temperature = &t
		}
		req.GenerationConfig = cfg
	}

	body, err := json.Marshal(req)
	if err != nil {
		return nil, providers.RequestFailedWithCause(err, "failed to marshal Gemini request: %v", err)
	}
	return body, nil
}

func toContent(msg providers.Message) (GeminiContent, error) {
	switch msg.Role {
	case providers.RoleTool:
		return GeminiContent{
			Role: "user",
			Parts: []GeminiPart{{
				FunctionResponse: &GeminiFunctionResponse{
					Name:     msg.Name,
					Response: map[string]interface{}{"content": msg.Content},
				},
			}},
		}, nil

	case providers.RoleAssistant:
		content := GeminiContent{Role: "model"}
		if msg.Content != "" {
			content.Parts = append(content.Parts, GeminiPart{Text: msg.Content})
		}
		for _, tc := range msg.ToolCalls {
			args := map[string]interface{}{}
			if strings.TrimSpace(tc.Function.Arguments) != "" {
				if err := json.Unmarshal([]byte(tc.Function.Arguments), &args); err != nil {
					return GeminiContent{}, providers.RequestFailedWithCause(err,
						"tool call %q has invalid arguments: %v", tc.ID, err)
				}
			}
			content.Parts = append(content.Parts, GeminiPart{
				FunctionCall: &GeminiFunctionCall{Name: tc.Function.Name, Args: args},
			})
		}
		return content, nil

	default:
		if msg.Content == "" {
			return GeminiContent{Role: "user"}, nil
		}
		return GeminiContent{Role: "user", Parts: []GeminiPart{{Text: msg.Content}}}, nil
	}
}

// cleanSchema returns a copy of schema without keywords Gemini rejects.
// A schema with no properties is dropped entirely.
func cleanSchema(schema map[string]interface{}) map[string]interface{} {
	if len(schema) == 0 {
		return nil
	}
	if props, ok := schema["properties"].(map[string]interface{}); ok && len(props) == 0 {
		return nil
	}
	cleaned, _ := stripKeys(schema).(map[string]interface{})
	return cleaned
}

func stripKeys(v interface{}) interface{} {
	switch val := v.(type) {
	case map[string]interface{}:
		out := make(map[string]interface{}, len(val))
		for k, child := range val {
			if isUnsupportedKey(k) {
				continue
			}
			out[k] = stripKeys(child)
		}
		return out
	case []interface{}:
		out := make([]interface{}, len(val))
		for i, child := range val {
			out[i] = stripKeys(child)
		}
		return out
	default:
		return v
	}
}

func isUnsupportedKey(k string) bool {
	for _, u := range unsupportedSchemaKeys {
		if k == u {
			return true
		}
	}
	return false
}

// ResponseToMessage reads the first candidate. A response without candidates
// yields an empty assistant message.
func (Format) ResponseToMessage(response json.RawMessage) (providers.Message, error) {
	msg := providers.Message{
		Role:    providers.RoleAssistant,
		Created: time.Now().Unix(),
	}

	var text strings.Builder
	for _, part := range gjson.GetBytes(response, "candidates.0.content.parts").Array() {
		if t := part.Get("text"); t.Exists() {
			text.WriteString(t.String())
			continue
		}

		call := part.Get("functionCall")
		if !call.Exists() {
			continue
		}
		name := call.Get("name").String()
		if name == "" {
			return providers.Message{}, providers.RequestFailed("function call has no name: %s", call.Raw)
		}
		args := "{}"
		if a := call.Get("args"); a.IsObject() {
			args = a.Raw
		}
		msg.ToolCalls = append(msg.ToolCalls, providers.ToolCall{
			ID:   "call_" + uuid.NewString(),
			Type: providers.ToolTypeFunction,
			Function: providers.FunctionCall{
				Name:      name,
				Arguments: args,
			},
		})
	}
	msg.Content = text.String()

	return msg, nil
}

// GetUsage reads usageMetadata. A response without it reports zero usage; a
// malformed one is a usage error.
func (Format) GetUsage(response json.RawMessage) (providers.Usage, error) {
	meta := gjson.GetBytes(response, "usageMetadata")
	if !meta.Exists() {
		return providers.Usage{}, nil
	}
	if !meta.IsObject() {
		return providers.Usage{}, providers.UsageError("usageMetadata is not an object: %s", meta.Raw)
	}

	input, err := tokenCount(meta, "promptTokenCount")
	if err != nil {
		return providers.Usage{}, err
	}
	output, err := tokenCount(meta, "candidatesTokenCount")
	if err != nil {
		return providers.Usage{}, err
	}
	total, err := tokenCount(meta, "totalTokenCount")
	if err != nil {
		return providers.Usage{}, err
	}
	if total == 0 {
		total = input + output
	}

	return providers.Usage{InputTokens: input, OutputTokens: output, TotalTokens: total}, nil
}

func tokenCount(meta gjson.Result, field string) (int, error) {
	v := meta.Get(field)
	switch v.Type {
	case gjson.Null:
		return 0, nil
	case gjson.Number:
		return int(v.Int()), nil
	default:
		return 0, providers.UsageError("%s is not a number: %s", field, v.Raw)
	}
}
