package asr

import (
	"context"
	"fmt"
	"log/slog"

	"vietscribe/internal/audio"
	"vietscribe/internal/config"
)

// Engine transcribes a single audio chunk to Vietnamese text.
type Engine interface {
	// Name identifies the engine for logs and status reporting.
	Name() string
	// Transcribe converts one chunk of audio into raw text.
	Transcribe(ctx context.Context, chunk *audio.Waveform) (string, error)
}

// NewEngine constructs the engine selected by configuration.
func NewEngine(cfg *config.Config, logger *slog.Logger) (Engine, error) {
	switch cfg.Engine.Kind {
	case "whisperx":
		return NewWhisperXEngine(cfg.Engine, cfg.Paths.WorkDir, logger), nil
	case "api":
		return NewAPIEngine(cfg.Engine, logger), nil
	default:
		return nil, fmt.Errorf("engine: unsupported kind %q", cfg.Engine.Kind)
	}
}
