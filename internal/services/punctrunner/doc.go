// Package punctrunner executes an external punctuation inference runtime.
//
// The runtime binary receives one JSON request on stdin and answers with the
// model logits on stdout. Runtime, model weights and vocabulary all come from
// configuration; nothing is bundled.
package punctrunner
