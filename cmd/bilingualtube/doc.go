// Command bilingualtube processes captured YouTube timedtext responses into
// bilingual subtitle cues.
//
// The CLI stands in for the browser host: it loads a captured JSON3 response,
// runs the ingestion pipeline (defragmentation, optional punctuation
// restoration, segmentation), drives the translation scheduler from a
// playback position, and renders the resulting cues as a table, JSON, SRT, or
// WebVTT. Supporting commands inspect the translation cache, translate ad hoc
// text, check the punctuation model assets, and manage the configuration
// file.
package main
