// Package google implements the Gemini provider adapter.
//
// Requests go to the generateContent endpoint of the configured model with the
// API key in the query string, so URLs are redacted before they are logged and
// stripped from transport errors.
//
// Rate-limited requests (HTTP 429) are retried up to five times with
// exponential backoff plus up to one second of jitter. When the budget is
// exhausted Complete returns a KindOther error telling the caller to try again
// later.
package google
