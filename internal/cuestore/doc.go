// Package cuestore holds the live subtitle track: its language, raw caption
// payload, ordered cue list, optional official translation, and the playback
// time cursor.
//
// Every track gets an id and a context when it begins. Writers pass the id
// back; a writer holding a superseded id, or whose context was cancelled by
// Reset, is rejected so abandoned work can never resume into a newer track.
// Time cursor listeners run synchronously in subscription order, outside the
// store lock.
package cuestore
