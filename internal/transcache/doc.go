// Package transcache memoizes subtitle translations.
//
// Entries are keyed by engine, target language, and source text. Cache.Translate
// looks up a batch, sends every miss to the translator in a single call, and
// persists the results before returning. A translator that returns the wrong
// number of results fails the batch and nothing is written.
//
// Three backends are provided: SQLite (default, WAL mode with embedded
// migrations), a JSON file guarded by a cross-process file lock, and an
// in-memory map for tests and one-shot runs.
package transcache
