// Package subtitles turns ASR timedtext payloads into display cues.
//
// The pipeline stages live here as pure functions: Tokens flattens events into
// timed tokens, Defragment merges the overlapping fragments ASR engines emit,
// Segment re-chunks tokens into bounded sentence cues with per-language rules,
// and HasMissingPunctuation decides whether a track needs restoration first.
// WriteSRT and WriteWebVTT export finished cues.
package subtitles
