// Package pipeline turns one captured caption response into the live cue list.
//
// Ingest supersedes whatever track the store held, then routes the response:
//
//   - ASR with missing punctuation in a restorable language is restored
//     window by window; every snapshot is segmented and published, and the
//     scheduler runs as soon as the fresh cues cover the playback cursor. A
//     restoration failure falls back to segmenting the raw tokens.
//   - ASR that already carries punctuation is defragmented (or segmented,
//     depending on the configured strategy).
//   - Manual tracks use the normalized tokens directly. An official
//     translation in the target language is attached when the source lists
//     one, and translation runs from the start cursor.
//
// All store writes go through the track id returned by Begin, so a superseded
// ingest stops without touching the newer track.
package pipeline
