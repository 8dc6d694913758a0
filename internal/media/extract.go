package media

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"

	"vietscribe/internal/audio"
)

// Extractor decodes the audio track of a media file into an in-memory
// waveform using ffmpeg.
type Extractor struct {
	ffmpegBinary  string
	sampleRate    int
	commandOutput func(ctx context.Context, name string, args ...string) ([]byte, error)
}

// NewExtractor creates an Extractor targeting the given sample rate.
func NewExtractor(ffmpegBinary string, sampleRate int) *Extractor {
	if ffmpegBinary == "" {
		ffmpegBinary = "ffmpeg"
	}
	if sampleRate <= 0 {
		sampleRate = 16000
	}
	return &Extractor{ffmpegBinary: ffmpegBinary, sampleRate: sampleRate}
}

// WithCommandOutput sets a custom command runner (for testing).
func (e *Extractor) WithCommandOutput(runner func(ctx context.Context, name string, args ...string) ([]byte, error)) {
	e.commandOutput = runner
}

// SampleRate returns the target sample rate for extracted audio.
func (e *Extractor) SampleRate() int {
	return e.sampleRate
}

// ExtractWaveform decodes the source's audio as mono float samples at the
// extractor's sample rate. Video, subtitle, and data streams are dropped;
// multi-channel audio is downmixed.
func (e *Extractor) ExtractWaveform(ctx context.Context, source string) (*audio.Waveform, error) {
	source = strings.TrimSpace(source)
	if source == "" {
		return nil, errors.New("extract: empty source path")
	}

	args := e.buildArgs(source)
	output, err := e.run(ctx, e.ffmpegBinary, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrCorruptMedia, err)
	}

	samples := audio.DecodeF32LE(output)
	if len(samples) == 0 {
		return nil, fmt.Errorf("%w: decoded no samples", ErrNoAudioStream)
	}
	return audio.NewWaveform(samples, e.sampleRate)
}

func (e *Extractor) buildArgs(source string) []string {
	return []string{
		"-hide_banner",
		"-loglevel", "error",
		"-i", source,
		"-vn",
		"-sn",
		"-dn",
		"-ac", "1",
		"-ar", strconv.Itoa(e.sampleRate),
		"-f", "f32le",
		"-",
	}
}

func (e *Extractor) run(ctx context.Context, name string, args ...string) ([]byte, error) {
	if e.commandOutput != nil {
		return e.commandOutput(ctx, name, args...)
	}
	cmd := exec.CommandContext(ctx, name, args...) //nolint:gosec
	output, err := cmd.Output()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return nil, fmt.Errorf("%s: %w: %s", name, err, strings.TrimSpace(string(exitErr.Stderr)))
		}
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return output, nil
}
