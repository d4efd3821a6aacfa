// Package openai implements the adapter for OpenAI-compatible chat completion
// APIs.
//
// One Provider type serves every backend that speaks the chat completions
// format. Backends differ only in their descriptor (Backend): default host,
// completions path, API key name and known models. The package ships
// descriptors for OpenAI, Groq, OpenRouter and Ollama.
//
// # Basic Usage
//
//	store := providers.MapConfig{"OPENAI_API_KEY": os.Getenv("OPENAI_API_KEY")}
//
//	provider, err := openai.FromConfig(store, providers.NewModelConfig("gpt-4o"))
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	msg, usage, err := provider.Complete(ctx, "You are terse.",
//	    []providers.Message{providers.NewUserMessage("Hello!")}, nil)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(msg.Content, usage.Usage.TotalTokens)
//
// Other backends are built from their descriptor:
//
//	provider, err := openai.NewProvider(openai.Groq, store, providers.NewModelConfig("llama-3.3-70b-versatile"))
//
// # Request Transformation
//
// Format translates the canonical conversation:
//
//   - The system prompt becomes a leading system message
//   - Assistant tool calls are sent as tool_calls
//   - Tool results carry tool_call_id
//   - Tools are sent as function definitions
//
// # Response Transformation
//
//   - The first choice's message becomes the reply
//   - Tool calls without arguments get "{}"
//   - Usage comes from prompt_tokens and completion_tokens; a response
//     without usage fails with a usage error
//   - The served model is the response's "model" field, or the configured
//     model when the backend omits it
//
// # Error Handling
//
// HTTP statuses map to providers.ErrorKind values (see providers.HandleResponse).
// A 429 is retried with exponential backoff; once the retry ceiling is
// exceeded the rate-limit error is returned unchanged.
package openai
