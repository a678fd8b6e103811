package punctrunner

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"strings"
	"time"

	"bilingualtube/internal/config"
	"bilingualtube/internal/logging"
	"bilingualtube/internal/punctuation"
	"bilingualtube/internal/services"
)

// CommandRunner executes name with args, feeding stdin and returning stdout.
type CommandRunner func(ctx context.Context, stdin []byte, name string, args ...string) ([]byte, error)

// Runner implements punctuation.Model over an external runtime binary.
type Runner struct {
	runtime       string
	model         string
	vocab         string
	timeout       time.Duration
	commandRunner CommandRunner
	logger        *slog.Logger
}

type request struct {
	InputIDs  []int32 `json:"input_ids"`
	ValidIDs  []int32 `json:"valid_ids"`
	LabelLens []int32 `json:"label_lens"`
}

type response struct {
	CaseLogits  []float32 `json:"case_logits"`
	PunctLogits []float32 `json:"punct_logits"`
	Error       string    `json:"error,omitempty"`
}

// New builds a runner from the punctuation settings.
func New(cfg config.Punctuation, logger *slog.Logger) *Runner {
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Runner{
		runtime: cfg.Runtime,
		model:   cfg.Model,
		vocab:   cfg.Vocab,
		timeout: timeout,
		logger:  logging.NewComponentLogger(logger, "punctrunner"),
	}
}

// WithCommandRunner sets a custom command runner (for testing).
func (r *Runner) WithCommandRunner(runner CommandRunner) {
	r.commandRunner = runner
}

// Args returns the runtime arguments.
func (r *Runner) Args() []string {
	return []string{"--model", r.model, "--vocab", r.vocab}
}

// Run sends one window to the runtime.
func (r *Runner) Run(ctx context.Context, in punctuation.Input) (punctuation.Output, error) {
	payload, err := json.Marshal(request{
		InputIDs:  in.InputIDs,
		ValidIDs:  in.ValidIDs,
		LabelLens: []int32{in.LabelLen},
	})
	if err != nil {
		return punctuation.Output{}, services.Wrap(services.ErrExternalTool, "punctrunner", "encode request", "", err)
	}

	runCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	started := time.Now()
	stdout, err := r.run(runCtx, payload)
	if err != nil {
		if ctx.Err() != nil {
			return punctuation.Output{}, ctx.Err()
		}
		return punctuation.Output{}, services.Wrap(services.ErrExternalTool, "punctrunner", "run", r.runtime, err)
	}

	var resp response
	if err := json.Unmarshal(stdout, &resp); err != nil {
		return punctuation.Output{}, services.Wrap(services.ErrExternalTool, "punctrunner", "decode response", summarize(stdout), err)
	}
	if resp.Error != "" {
		return punctuation.Output{}, services.Wrap(services.ErrExternalTool, "punctrunner", "run", resp.Error, nil)
	}
	r.logger.Debug("runtime window complete",
		logging.Int("label_len", int(in.LabelLen)),
		logging.Int("predictions", len(resp.CaseLogits)/4),
		logging.Duration("elapsed", time.Since(started)),
	)
	return punctuation.Output{CaseLogits: resp.CaseLogits, PunctLogits: resp.PunctLogits}, nil
}

func (r *Runner) run(ctx context.Context, stdin []byte) ([]byte, error) {
	if r.commandRunner != nil {
		return r.commandRunner(ctx, stdin, r.runtime, r.Args()...)
	}
	cmd := exec.CommandContext(ctx, r.runtime, r.Args()...) //nolint:gosec
	cmd.Stdin = bytes.NewReader(stdin)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("%w: %s", err, strings.TrimSpace(stderr.String()))
	}
	return stdout.Bytes(), nil
}

// Open loads the vocabulary and returns a restorer backed by the runtime.
func Open(cfg config.Punctuation, logger *slog.Logger) (*punctuation.Restorer, error) {
	for label, path := range map[string]string{"model": cfg.Model, "vocab": cfg.Vocab} {
		if strings.TrimSpace(path) == "" {
			return nil, services.Wrap(services.ErrModelNotLoaded, "punctrunner", "open", label+" path not configured", nil)
		}
		if _, err := os.Stat(path); err != nil {
			return nil, services.Wrap(services.ErrModelNotLoaded, "punctrunner", "open", label+" asset unavailable", err)
		}
	}
	if _, err := exec.LookPath(cfg.Runtime); err != nil {
		return nil, services.Wrap(services.ErrModelNotLoaded, "punctrunner", "open", "runtime binary not found", err)
	}
	tok, err := punctuation.LoadTokenizer(cfg.Vocab)
	if err != nil {
		return nil, err
	}
	return punctuation.NewRestorer(tok, New(cfg, logger),
		punctuation.WithLogger(logger),
		punctuation.WithWindow(cfg.WindowTokens, cfg.OverlapTokens),
	), nil
}

func summarize(data []byte) string {
	const limit = 120
	text := strings.TrimSpace(string(data))
	if len(text) > limit {
		return text[:limit] + "..."
	}
	return text
}
