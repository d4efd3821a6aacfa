// Package providers implements a uniform completion interface over LLM backends.
//
// # Overview
//
// Every backend adapter implements Provider: a static descriptor, the model
// configuration it was built with, and Complete. Complete takes a system
// prompt, a canonical conversation and tool definitions, and returns the
// reply, the model that served it and token usage.
//
// # Architecture
//
// The package is organized into several layers:
//
//  1. Canonical model - Message, Tool, Usage, ModelConfig and ProviderMetadata
//  2. Error taxonomy - ProviderError tagged with an ErrorKind, plus ConfigError
//  3. Formatter - translates the canonical model to and from one wire format
//  4. Transports - HTTPTransport (pooling, timeout, rate-limit retry) and Runner
//     (child processes)
//  5. Adapters - subpackages google, openai, anthropic and python
//
// Adapters are constructed by package providerfactory from a ConfigStore.
//
// # Basic Usage
//
//	store := providers.MapConfig{"GOOGLE_API_KEY": os.Getenv("GOOGLE_API_KEY")}
//
//	provider, err := providerfactory.Create("google", providers.NewModelConfig("gemini-2.0-flash"), store)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	msg, usage, err := provider.Complete(ctx, "You are terse.",
//	    []providers.Message{providers.NewUserMessage("Hello!")}, nil)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(msg.Content, usage.Model, usage.Usage.TotalTokens)
//
// # Error Handling
//
// Complete returns *ProviderError values. Branch on the kind:
//
//	switch {
//	case errors.Is(err, providers.ErrRateLimitExceeded):
//	    // the backend kept throttling after the local retry budget
//	case errors.Is(err, providers.ErrUsage):
//	    // usage could not be derived from the response
//	case errors.Is(err, providers.ErrRequestFailed):
//	    // transport, parsing or process failure
//	}
//
// # Retries
//
// HTTPTransport retries only HTTP 429 responses: up to DefaultMaxRetries
// times, waiting 2^n seconds plus up to one second of jitter before retry n.
// Every other failure is returned immediately. Waits end early when the
// context is cancelled.
//
// # Thread Safety
//
// Adapters keep no per-call mutable state. A single instance may serve
// concurrent Complete calls.
package providers
