package providers

import (
	"context"
	"encoding/json"
)

// Provider is the contract every backend adapter implements.
// It provides a unified abstraction over cloud HTTP APIs and script-executed
// backends.
//
// Complete is safe to call concurrently on the same instance: adapters keep
// no per-call mutable state, and their transport handle is only read after
// construction.
//
// Example usage:
//
//	provider, err := providerfactory.Create("google", providers.NewModelConfig("gemini-2.0-flash"), store)
//	if err != nil {
//	    return err
//	}
//
//	msg, usage, err := provider.Complete(ctx, "be terse",
//	    []providers.Message{providers.NewUserMessage("hi")}, nil)
//	if err != nil {
//	    return err
//	}
//	fmt.Println(msg.Content, usage.Model)
type Provider interface {
	// Metadata returns the backend's static descriptor.
	// Every adapter package also exposes it as a package-level Metadata function
	// so it can be read without building an instance.
	Metadata() ProviderMetadata

	// GetModelConfig returns the model configuration the adapter was built with.
	GetModelConfig() ModelConfig

	// Complete sends the system prompt, conversation and tools to the backend and
	// returns the reply together with the served model and token usage.
	//
	// Errors are *ProviderError values; use KindOf or errors.Is with the
	// Err* sentinels to branch on them.
	Complete(ctx context.Context, system string, messages []Message, tools []Tool) (Message, ProviderUsage, error)
}

// Formatter translates between the canonical model and one backend wire format.
// Implementations are pure functions of their inputs.
type Formatter interface {
	// CreateRequest builds the wire request body.
	CreateRequest(model ModelConfig, system string, messages []Message, tools []Tool) (json.RawMessage, error)

	// ResponseToMessage extracts the reply message from a wire response.
	ResponseToMessage(response json.RawMessage) (Message, error)

	// GetUsage extracts token usage from a wire response.
	// It fails with a KindUsageError error when usage is missing or malformed.
	GetUsage(response json.RawMessage) (Usage, error)
}
