// Package services defines shared utilities consumed by the processing
// pipeline and its external integrations.
//
// Key responsibilities:
//   - Context helpers that stamp subtitle track IDs, source languages, and
//     correlation identifiers for logging.
//   - Structured error markers plus the Wrap helper that separate fatal
//     failures (malformed input, unloaded models, cardinality mismatches) from
//     recoverable ones.
//
// Subpackages wrap the translation backends and the punctuation model runtime.
package services
