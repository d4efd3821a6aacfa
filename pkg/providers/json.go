package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/tidwall/gjson"
)

// UnknownModel is reported when a response does not name the serving model.
const UnknownModel = "unknown"

// ModelFromResponse returns the "model" field of a wire response, or UnknownModel.
func ModelFromResponse(response json.RawMessage) string {
	if m := gjson.GetBytes(response, "model"); m.Type == gjson.String {
		return m.Str
	}
	return UnknownModel
}

var escapeReplacer = strings.NewReplacer(
	`\\n`, "\n",
	`\\t`, "\t",
	`\\r`, "\r",
	`\\"`, `"`,
	`\n`, "\n",
	`\t`, "\t",
	`\"`, `"`,
)

// UnescapeJSONValues undoes double escaping in every string value of a JSON
// document. Some backends return text whose newlines and quotes arrive as
// literal backslash sequences.
//
// The input is returned unchanged if it cannot be decoded.
func UnescapeJSONValues(raw json.RawMessage) json.RawMessage {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	var v interface{}
	if err := dec.Decode(&v); err != nil {
		return raw
	}

	out, err := json.Marshal(unescapeValue(v))
	if err != nil {
		return raw
	}
	return out
}

func unescapeValue(v interface{}) interface{} {
	switch val := v.(type) {
	case string:
		return escapeReplacer.Replace(val)
	case []interface{}:
		for i := range val {
			val[i] = unescapeValue(val[i])
		}
		return val
	case map[string]interface{}:
		for k := range val {
			val[k] = unescapeValue(val[k])
		}
		return val
	default:
		return v
	}
}

// EmitDebugTrace logs one completion round trip at debug level.
// Payloads are logged by size only; they may contain user data.
func EmitDebugTrace(provider string, model ModelConfig, payload, response json.RawMessage, usage Usage) {
	if !slog.Default().Enabled(context.Background(), slog.LevelDebug) {
		return
	}
	slog.Debug("provider completion",
		"trace_id", uuid.NewString(),
		"provider", provider,
		"model_config", model.ModelName,
		"request_bytes", len(payload),
		"response_bytes", len(response),
		"input_tokens", usage.InputTokens,
		"output_tokens", usage.OutputTokens,
		"total_tokens", usage.TotalTokens,
	)
}
