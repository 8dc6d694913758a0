package asr

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"vietscribe/internal/audio"
	"vietscribe/internal/config"
	"vietscribe/internal/logging"
	"vietscribe/internal/services"
)

// WhisperX invocation constants.
const (
	uvxCommand     = "uvx"
	cudaIndexURL   = "https://download.pytorch.org/whl/cu128"
	pypiIndexURL   = "https://pypi.org/simple"
	batchSize      = "4"
	temperature    = "0.0"
	cpuComputeType = "float32"
)

// WhisperXEngine runs the WhisperX speech model locally through uvx.
type WhisperXEngine struct {
	cfg           config.Engine
	workDir       string
	logger        *slog.Logger
	commandRunner func(ctx context.Context, name string, args ...string) error
}

// NewWhisperXEngine creates a local WhisperX engine. Chunk WAV files and
// model output are staged under workDir.
func NewWhisperXEngine(cfg config.Engine, workDir string, logger *slog.Logger) *WhisperXEngine {
	return &WhisperXEngine{
		cfg:     cfg,
		workDir: workDir,
		logger:  logging.NewComponentLogger(logger, "whisperx"),
	}
}

// WithCommandRunner sets a custom command runner (for testing).
func (e *WhisperXEngine) WithCommandRunner(runner func(ctx context.Context, name string, args ...string) error) {
	e.commandRunner = runner
}

// Name identifies the engine.
func (e *WhisperXEngine) Name() string {
	return "whisperx/" + e.cfg.Model
}

// Transcribe writes the chunk to a WAV file, runs WhisperX on it, and joins
// the recognized segments with spaces.
func (e *WhisperXEngine) Transcribe(ctx context.Context, chunk *audio.Waveform) (string, error) {
	stageDir, err := os.MkdirTemp(e.workDir, "chunk-")
	if err != nil {
		return "", services.Wrap(services.ErrConfiguration, "transcribing", "stage", "create work directory", err)
	}
	defer os.RemoveAll(stageDir)

	wavPath := filepath.Join(stageDir, "chunk.wav")
	if err := audio.WriteWAVFile(wavPath, chunk); err != nil {
		return "", services.Wrap(services.ErrConfiguration, "transcribing", "stage", "write chunk wav", err)
	}

	args := e.buildArgs(wavPath, stageDir)
	if err := e.run(ctx, uvxCommand, args...); err != nil {
		return "", services.Wrap(services.ErrExternalTool, "transcribing", "whisperx", "", err)
	}

	jsonPath := filepath.Join(stageDir, "chunk.json")
	text, err := loadSegmentText(jsonPath)
	if err != nil {
		return "", services.Wrap(services.ErrExternalTool, "transcribing", "whisperx", "read model output", err)
	}
	return text, nil
}

// buildArgs constructs the uvx command line for one chunk.
func (e *WhisperXEngine) buildArgs(source, outputDir string) []string {
	args := make([]string, 0, 24)

	if e.cfg.CUDAEnabled {
		args = append(args,
			"--index-url", cudaIndexURL,
			"--extra-index-url", pypiIndexURL,
		)
	} else {
		args = append(args, "--index-url", pypiIndexURL)
	}

	args = append(args,
		"whisperx",
		source,
		"--model", e.cfg.Model,
		"--batch_size", batchSize,
		"--temperature", temperature,
		"--output_dir", outputDir,
		"--output_format", "json",
	)

	if e.cfg.Language != "" {
		args = append(args, "--language", e.cfg.Language)
	}

	if e.cfg.CUDAEnabled {
		args = append(args, "--device", "cuda")
	} else {
		args = append(args, "--device", "cpu", "--compute_type", cpuComputeType)
	}

	return args
}

func (e *WhisperXEngine) run(ctx context.Context, name string, args ...string) error {
	if e.commandRunner != nil {
		return e.commandRunner(ctx, name, args...)
	}
	cmd := exec.CommandContext(ctx, name, args...) //nolint:gosec

	// Torch 2.6 changed torch.load default to weights_only=true, which breaks
	// WhisperX checkpoint loading. Force the legacy behavior.
	if os.Getenv("TORCH_FORCE_NO_WEIGHTS_ONLY_LOAD") == "" {
		cmd.Env = append(os.Environ(), "TORCH_FORCE_NO_WEIGHTS_ONLY_LOAD=1")
	}

	if output, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("%s: %w: %s", name, err, strings.TrimSpace(string(output)))
	}
	return nil
}

// segment is one recognized span from WhisperX JSON output.
type segment struct {
	Text  string  `json:"text"`
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

type whisperXPayload struct {
	Segments []segment `json:"segments"`
}

func loadSegmentText(jsonPath string) (string, error) {
	data, err := os.ReadFile(jsonPath)
	if err != nil {
		return "", err
	}
	var payload whisperXPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return "", fmt.Errorf("parse whisperx json: %w", err)
	}
	parts := make([]string, 0, len(payload.Segments))
	for _, seg := range payload.Segments {
		if text := strings.TrimSpace(seg.Text); text != "" {
			parts = append(parts, text)
		}
	}
	return strings.Join(parts, " "), nil
}
