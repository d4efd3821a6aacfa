package providers

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/tidwall/gjson"
)

// maxErrorBody caps how much of an error body is copied into error messages.
const maxErrorBody = 512

// HandleResponse maps an HTTP response to either its JSON body or a typed error.
// It always closes the response body.
//
// Status mapping:
//   - 2xx: the body, which must be valid JSON
//   - 401, 403: KindOther (authentication)
//   - 400, 404: KindRequestFailed with the backend's error message
//   - 429: KindRateLimitExceeded
//   - 5xx and anything else: KindRequestFailed
func HandleResponse(resp *http.Response) (json.RawMessage, error) {
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, RequestFailedWithCause(err, "failed to read response body: %v", err)
	}

	status := resp.StatusCode
	switch {
	case status >= 200 && status < 300:
		if !gjson.ValidBytes(body) {
			return nil, RequestFailed("failed to parse response body as JSON: %s", truncate(string(body)))
		}
		return json.RawMessage(body), nil

	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return nil, OtherError("authentication failed (status %d): %s", status, errorMessage(body))

	case status == http.StatusBadRequest || status == http.StatusNotFound:
		return nil, RequestFailed("bad request (status %d): %s", status, errorMessage(body))

	case status == http.StatusTooManyRequests:
		return nil, RateLimitExceeded("%s", errorMessage(body))

	case status >= 500:
		return nil, RequestFailed("server error (status %d): %s", status, errorMessage(body))

	default:
		return nil, RequestFailed("unexpected status %d: %s", status, errorMessage(body))
	}
}

// errorMessage pulls the backend's error text out of a JSON error body.
// Gemini, OpenAI and Anthropic all nest it under error.message.
func errorMessage(body []byte) string {
	if gjson.ValidBytes(body) {
		if msg := gjson.GetBytes(body, "error.message"); msg.Exists() && msg.String() != "" {
			return msg.String()
		}
		if msg := gjson.GetBytes(body, "error"); msg.Type == gjson.String {
			return msg.Str
		}
	}
	return truncate(strings.TrimSpace(string(body)))
}

func truncate(s string) string {
	if len(s) <= maxErrorBody {
		return s
	}
	return s[:maxErrorBody] + "..."
}
