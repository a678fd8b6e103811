// Package language normalizes caption language codes and names languages.
//
// Caption tracks arrive with loosely formatted codes ("zh-TW", "en-US", "iw").
// Normalize folds them into the forms the pipeline compares against, with the
// two Chinese scripts kept distinct. DisplayName supplies English names for
// translation prompts and CLI output.
package language
