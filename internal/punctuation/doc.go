// Package punctuation restores case and punctuation on unpunctuated ASR tokens.
//
// A SentencePiece-style Tokenizer encodes words into model ids. Restorer
// slides a token-budgeted window over the words, runs each window through a
// Model and attributes the per-word predictions back to the original tokens
// via AlignWords. Results are produced as a progressive Stream of snapshots.
package punctuation
