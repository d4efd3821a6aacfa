// Package anthropic implements the Anthropic provider adapter.
//
// This package provides an implementation of the providers.Provider interface
// for Anthropic's Messages API. It supports:
//
//   - Messages API (Claude 3.x models)
//   - Tool calling through tool_use and tool_result blocks
//   - Token usage tracking
//
// # Basic Usage
//
//	store := providers.MapConfig{"ANTHROPIC_API_KEY": os.Getenv("ANTHROPIC_API_KEY")}
//
//	provider, err := anthropic.FromConfig(store, providers.NewModelConfig("claude-3-5-sonnet-latest"))
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	msg, usage, err := provider.Complete(ctx, "You are terse.",
//	    []providers.Message{providers.NewUserMessage("Hello!")}, nil)
//
// # Request Transformation
//
// The Messages API differs from the chat completions format:
//
//   - The system prompt is a top-level field, not a message
//   - max_tokens is required; 4096 is sent when the model config leaves it unset
//   - Tool results are user turns holding tool_result blocks
//   - Consecutive turns of the same role are merged into one message
//
// # Error Handling
//
// Statuses map to providers.ErrorKind values as for every HTTP adapter. A 429
// is retried with exponential backoff and the rate-limit error is returned
// unchanged once the retry ceiling is exceeded.
package anthropic
