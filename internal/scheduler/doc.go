// Package scheduler decides which cues to translate for a playback cursor and
// writes the results back into the cue store.
//
// Two selection modes exist: a time window (every untranslated cue ending at
// or after the cursor and starting within the horizon) and a bounded count
// (the next N untranslated cues). Only one pass runs at a time; a trigger that
// arrives while a pass is in flight is dropped, and the next cursor update
// picks up whatever is still untranslated.
package scheduler
