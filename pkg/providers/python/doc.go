// Package python implements a provider that delegates completions to an
// external script.
//
// Each Complete call serializes the conversation as an OpenAI chat completion
// request and runs
//
//	{interpreter} {script} --prompt <request JSON> [--api-key <GOOGLE_API_KEY>]
//
// The interpreter and script come from PYTHON_PROVIDER_CMD. The script must
// exit 0 and print exactly one JSON value, read as an OpenAI chat completion
// response. A non-zero exit fails the call with the script's stderr.
//
// Before the first run the adapter makes sure the virtual environment exists,
// creating it and installing its packages when it does not. Concurrent
// bootstraps of the same directory run once.
package python
