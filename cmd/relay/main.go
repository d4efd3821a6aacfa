// Relay sends a prompt to any supported LLM backend through one uniform
// completion interface.
//
// Usage:
//
//	# List the compiled-in backends and the configuration they read
//	relay providers
//
//	# Run one completion
//	relay complete --provider google --prompt "Say hello"
//
//	# Use a configuration file and print Prometheus metrics afterwards
//	relay complete --config relay.yaml --provider anthropic --prompt "hi" --metrics
//
//	# Show version information
//	relay version
package main

import "os"

func main() {
	os.Exit(Execute())
}
