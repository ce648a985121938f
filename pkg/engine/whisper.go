package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"go.uber.org/zap"
)

// WhisperConfig configures the CLI-backed whisper engine.
type WhisperConfig struct {
	// Binary is the helper executable that runs the model and prints a
	// JSON result on stdout. Defaults to "whisper-recognize".
	Binary    string
	ModelSize string
	Device    string // cpu|cuda
	// ComputeType selects the inference precision, e.g. "float16" on
	// CUDA or "int8" on CPU. Empty lets the helper decide.
	ComputeType string
}

// WhisperEngine shells out to a whisper helper process for each
// recognition call. The helper holds the loaded model for the lifetime
// of the call; model reuse across calls is handled by Cache.
type WhisperEngine struct {
	cfg    WhisperConfig
	logger *zap.Logger
}

// NewWhisperEngine creates a CLI-backed engine for the given model size.
func NewWhisperEngine(cfg WhisperConfig, logger *zap.Logger) (*WhisperEngine, error) {
	if !IsValidModelSize(cfg.ModelSize) {
		return nil, fmt.Errorf("invalid model size: %q", cfg.ModelSize)
	}
	if cfg.Binary == "" {
		cfg.Binary = "whisper-recognize"
	}
	if cfg.Device == "" {
		cfg.Device = "cpu"
	}
	return &WhisperEngine{cfg: cfg, logger: logger}, nil
}

func (e *WhisperEngine) ModelSize() string { return e.cfg.ModelSize }
func (e *WhisperEngine) Device() string    { return e.cfg.Device }

// Recognize runs the helper over the audio file and parses its JSON output.
func (e *WhisperEngine) Recognize(ctx context.Context, audioPath string, opts Options) (*Result, error) {
	if _, err := os.Stat(audioPath); err != nil {
		return nil, fmt.Errorf("audio file not accessible: %w", err)
	}

	args := []string{
		"--audio", audioPath,
		"--model", e.cfg.ModelSize,
		"--device", e.cfg.Device,
		"--output-format", "json",
	}
	if e.cfg.ComputeType != "" {
		args = append(args, "--compute-type", e.cfg.ComputeType)
	}
	if opts.Language != "" {
		args = append(args, "--language", opts.Language)
	}
	if opts.Prompt != "" {
		args = append(args, "--initial-prompt", opts.Prompt)
	}
	if opts.WordTimestamps {
		args = append(args, "--word-timestamps")
	}

	cmd := exec.CommandContext(ctx, e.cfg.Binary, args...)
	cmd.Env = os.Environ()
	out, err := cmd.Output()
	if err != nil {
		if ee, ok := err.(*exec.ExitError); ok {
			return nil, fmt.Errorf("whisper helper failed: %s", strings.TrimSpace(string(ee.Stderr)))
		}
		return nil, fmt.Errorf("run whisper helper: %w", err)
	}

	var result Result
	if err := json.Unmarshal(out, &result); err != nil {
		return nil, fmt.Errorf("parse whisper output: %w", err)
	}
	for i := range result.Segments {
		result.Segments[i].Text = strings.TrimSpace(result.Segments[i].Text)
	}

	if e.logger != nil {
		e.logger.Debug("recognition completed",
			zap.String("model", e.cfg.ModelSize),
			zap.String("device", e.cfg.Device),
			zap.Int("segments", len(result.Segments)))
	}
	return &result, nil
}
