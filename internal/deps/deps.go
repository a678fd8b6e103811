// Package deps reports whether the external assets bilingualtube relies on
// are present.
package deps

import (
	"fmt"
	"os"
	"os/exec"
	"strings"

	"bilingualtube/internal/config"
)

// Kind distinguishes executables from data files.
type Kind string

const (
	KindBinary Kind = "binary"
	KindFile   Kind = "file"
)

// Requirement defines an external dependency.
type Requirement struct {
	Name        string
	Kind        Kind
	Command     string
	Description string
	Optional    bool
}

// Status reports the availability of a dependency.
type Status struct {
	Name        string `json:"name"`
	Kind        Kind   `json:"kind"`
	Command     string `json:"command"`
	Description string `json:"description"`
	Optional    bool   `json:"optional"`
	Available   bool   `json:"available"`
	Detail      string `json:"detail,omitempty"`
}

// Requirements lists the punctuation runtime and its model assets. They are
// optional unless restoration is enabled.
func Requirements(cfg *config.Config) []Requirement {
	optional := !cfg.Punctuation.Enabled
	return []Requirement{
		{Name: "Punctuation runtime", Kind: KindBinary, Command: cfg.Punctuation.Runtime, Description: "Runs the punctuation model", Optional: optional},
		{Name: "Punctuation model", Kind: KindFile, Command: cfg.Punctuation.Model, Description: "Case and punctuation weights", Optional: optional},
		{Name: "Punctuation vocabulary", Kind: KindFile, Command: cfg.Punctuation.Vocab, Description: "SentencePiece vocabulary", Optional: optional},
	}
}

// Check evaluates every requirement from cfg.
func Check(cfg *config.Config) []Status {
	return CheckBinaries(Requirements(cfg))
}

// CheckBinaries evaluates the provided requirements and reports availability.
// File requirements are checked with a stat instead of a PATH lookup.
func CheckBinaries(requirements []Requirement) []Status {
	results := make([]Status, 0, len(requirements))
	for _, req := range requirements {
		cmd := strings.TrimSpace(req.Command)
		kind := req.Kind
		if kind == "" {
			kind = KindBinary
		}
		status := Status{
			Name:        req.Name,
			Kind:        kind,
			Command:     cmd,
			Description: strings.TrimSpace(req.Description),
			Optional:    req.Optional,
		}
		switch {
		case cmd == "":
			status.Detail = "not configured"
		case kind == KindFile:
			if info, err := os.Stat(cmd); err != nil {
				status.Detail = fmt.Sprintf("file %q not found", cmd)
			} else if info.IsDir() {
				status.Detail = fmt.Sprintf("%q is a directory", cmd)
			} else {
				status.Available = true
			}
		default:
			if _, err := exec.LookPath(cmd); err != nil {
				status.Detail = fmt.Sprintf("binary %q not found", cmd)
			} else {
				status.Available = true
			}
		}
		results = append(results, status)
	}
	return results
}

// Missing returns the required statuses that are unavailable.
func Missing(statuses []Status) []Status {
	var missing []Status
	for _, status := range statuses {
		if !status.Available && !status.Optional {
			missing = append(missing, status)
		}
	}
	return missing
}
