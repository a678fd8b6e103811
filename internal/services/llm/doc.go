// Package llm provides an OpenAI-compatible chat client for subtitle
// translation.
//
// # Translation Logic
//
// Translate fills the configured prompt template: {{Target Language}} becomes
// the English display name of the target, {{Text to Translate}} the batch
// joined with a "%%" separator line. The reply is split on the same separator
// and must contain exactly one segment per input text.
//
// # Endpoints
//
// Chat completions are sent to <base_url>/chat/completions. Newer OpenAI
// models on api.openai.com use the Responses API at <base_url>/responses.
//
// # Retry Behaviour
//
// The client retries on HTTP 408/429/5xx errors and network timeouts with
// exponential backoff (base 1s, max 10s, up to 3 attempts by default),
// honouring Retry-After. Context cancellation aborts retries immediately.
// A cardinality mismatch is never retried.
package llm
