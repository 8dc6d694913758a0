package media

import (
	"fmt"
	"path/filepath"
	"strings"

	"vietscribe/internal/config"
)

// ValidateUpload checks an upload's declared name and size against configured
// limits before any processing starts.
func ValidateUpload(cfg *config.Config, filename string, sizeBytes int64) error {
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(filename)), ".")
	if ext == "" {
		return fmt.Errorf("%w: file has no extension", ErrUnsupportedFormat)
	}
	if !cfg.AcceptsExtension(ext) {
		return fmt.Errorf("%w: .%s (allowed: %s)", ErrUnsupportedFormat, ext, strings.Join(cfg.Limits.Extensions, ", "))
	}
	if sizeBytes > cfg.MaxUploadBytes() {
		return fmt.Errorf("%w: %d bytes exceeds %d MB limit", ErrFileTooLarge, sizeBytes, cfg.Limits.MaxUploadMB)
	}
	return nil
}

// ValidateProbe checks container metadata against configured limits. An
// unknown duration is allowed through; the chunker copes with any length and
// rejecting on missing metadata would refuse valid files.
func ValidateProbe(cfg *config.Config, result ProbeResult) error {
	if result.AudioStreamCount() == 0 {
		return fmt.Errorf("%w: container has no audio streams", ErrNoAudioStream)
	}
	duration := result.DurationSeconds()
	if duration > float64(cfg.Limits.MaxDurationSeconds) {
		return fmt.Errorf("%w: %.1fs exceeds %ds limit", ErrDurationExceeded, duration, cfg.Limits.MaxDurationSeconds)
	}
	return nil
}
