package config

import (
	"errors"
	"fmt"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateLimits(); err != nil {
		return err
	}
	if err := c.validateAudio(); err != nil {
		return err
	}
	if err := c.validateEngine(); err != nil {
		return err
	}
	if err := c.validateNotifications(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateLimits() error {
	if err := ensurePositiveMap(map[string]int{
		"limits.max_upload_mb":        c.Limits.MaxUploadMB,
		"limits.max_duration_seconds": c.Limits.MaxDurationSeconds,
	}); err != nil {
		return err
	}
	if len(c.Limits.Extensions) == 0 {
		return errors.New("limits.extensions must include at least one extension")
	}
	return nil
}

func (c *Config) validateAudio() error {
	if err := ensurePositiveMap(map[string]int{
		"audio.sample_rate":   c.Audio.SampleRate,
		"audio.chunk_seconds": c.Audio.ChunkSeconds,
	}); err != nil {
		return err
	}
	if c.Audio.NormalizeDBFS >= 0 {
		return errors.New("audio.normalize_dbfs must be negative (decibels below full scale)")
	}
	return nil
}

func (c *Config) validateEngine() error {
	switch c.Engine.Kind {
	case "whisperx":
	case "api":
		if c.Engine.APIKey == "" {
			return errors.New("engine.api_key must be set when engine.kind is \"api\" (or set OPENAI_API_KEY)")
		}
		if c.Engine.BaseURL == "" {
			return errors.New("engine.base_url must be set when engine.kind is \"api\"")
		}
	default:
		return fmt.Errorf("engine.kind: unsupported value %q (expected \"whisperx\" or \"api\")", c.Engine.Kind)
	}
	if c.Engine.TimeoutSeconds <= 0 {
		return errors.New("engine.timeout_seconds must be positive")
	}
	return nil
}

func (c *Config) validateNotifications() error {
	if c.Notifications.RequestTimeout <= 0 {
		return errors.New("notifications.request_timeout must be positive")
	}
	return nil
}

func ensurePositiveMap(values map[string]int) error {
	for key, value := range values {
		if value <= 0 {
			return fmt.Errorf("%s must be positive", key)
		}
	}
	return nil
}
