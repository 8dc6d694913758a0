package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"vietscribe/internal/config"
)

func TestLoadDefaultConfigExpandsPaths(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)
	t.Setenv("VIETSCRIBE_API_KEY", "")
	t.Setenv("OPENAI_API_KEY", "")

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if resolved == "" {
		t.Fatal("expected resolved path")
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}

	wantData := filepath.Join(tempHome, ".local", "share", "vietscribe", "transcripts")
	if cfg.Paths.DataDir != wantData {
		t.Fatalf("unexpected data dir: got %q want %q", cfg.Paths.DataDir, wantData)
	}
	if cfg.Paths.Bind != "127.0.0.1:8571" {
		t.Fatalf("unexpected bind: %q", cfg.Paths.Bind)
	}
	if cfg.Limits.MaxUploadMB != 100 {
		t.Fatalf("unexpected upload limit: %d", cfg.Limits.MaxUploadMB)
	}
	if cfg.Limits.MaxDurationSeconds != 600 {
		t.Fatalf("unexpected duration limit: %d", cfg.Limits.MaxDurationSeconds)
	}
	if cfg.Audio.SampleRate != 16000 {
		t.Fatalf("unexpected sample rate: %d", cfg.Audio.SampleRate)
	}
	if cfg.Audio.ChunkSeconds != 30 {
		t.Fatalf("unexpected chunk seconds: %d", cfg.Audio.ChunkSeconds)
	}
	if cfg.Audio.NormalizeDBFS != -20.0 {
		t.Fatalf("unexpected normalize target: %v", cfg.Audio.NormalizeDBFS)
	}
	if cfg.Engine.Kind != "whisperx" {
		t.Fatalf("unexpected engine kind: %q", cfg.Engine.Kind)
	}
	if cfg.Engine.Language != "vi" {
		t.Fatalf("unexpected engine language: %q", cfg.Engine.Language)
	}
	if cfg.Engine.CUDAEnabled {
		t.Fatal("expected CUDA disabled by default")
	}
	if !cfg.AcceptsExtension(".MP4") {
		t.Fatal("expected mp4 to be accepted regardless of case and dot")
	}
	if cfg.AcceptsExtension("flac") {
		t.Fatal("expected flac to be rejected by default")
	}
	if cfg.MaxUploadBytes() != 100*1024*1024 {
		t.Fatalf("unexpected upload byte cap: %d", cfg.MaxUploadBytes())
	}

	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories failed: %v", err)
	}
	for _, dir := range []string{cfg.Paths.DataDir, cfg.Paths.WorkDir, cfg.Paths.LogDir} {
		info, err := os.Stat(dir)
		if err != nil {
			t.Fatalf("expected directory %q to exist: %v", dir, err)
		}
		if !info.IsDir() {
			t.Fatalf("expected %q to be directory", dir)
		}
	}
}

func TestLoadCustomPath(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "vietscribe.toml")

	type payload struct {
		Limits struct {
			MaxUploadMB int      `toml:"max_upload_mb"`
			Extensions  []string `toml:"extensions"`
		} `toml:"limits"`
		Engine struct {
			Kind    string `toml:"kind"`
			APIKey  string `toml:"api_key"`
			BaseURL string `toml:"base_url"`
		} `toml:"engine"`
	}
	custom := payload{}
	custom.Limits.MaxUploadMB = 250
	custom.Limits.Extensions = []string{".MP4", "mkv", "mkv", ""}
	custom.Engine.Kind = "api"
	custom.Engine.APIKey = "abc123"
	custom.Engine.BaseURL = "https://example.com/v1/"
	data, err := toml.Marshal(custom)
	if err != nil {
		t.Fatalf("marshal custom config: %v", err)
	}
	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		t.Fatalf("write custom config: %v", err)
	}

	cfg, resolved, exists, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists {
		t.Fatal("expected exists to be true")
	}
	if resolved != configPath {
		t.Fatalf("unexpected resolved path: got %q want %q", resolved, configPath)
	}
	if cfg.Limits.MaxUploadMB != 250 {
		t.Fatalf("expected upload limit override, got %d", cfg.Limits.MaxUploadMB)
	}
	if len(cfg.Limits.Extensions) != 2 {
		t.Fatalf("expected deduplicated extensions, got %v", cfg.Limits.Extensions)
	}
	if cfg.Limits.Extensions[0] != "mp4" {
		t.Fatalf("expected lowercase dotless extension, got %v", cfg.Limits.Extensions)
	}
	if cfg.Engine.BaseURL != "https://example.com/v1" {
		t.Fatalf("expected trimmed base url, got %q", cfg.Engine.BaseURL)
	}
}

func TestEnvVarSuppliesEngineAPIKey(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "vietscribe.toml")
	contents := "[engine]\nkind = \"api\"\n"
	if err := os.WriteFile(configPath, []byte(contents), 0o644); err != nil {
		t.Fatalf("write custom config: %v", err)
	}

	t.Setenv("VIETSCRIBE_API_KEY", "env-key")

	cfg, _, _, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Engine.APIKey != "env-key" {
		t.Fatalf("expected engine key from env, got %q", cfg.Engine.APIKey)
	}
}

func TestCreateSample(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sample.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample failed: %v", err)
	}

	contents, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read sample: %v", err)
	}
	if !strings.Contains(string(contents), "chunk_seconds") {
		t.Fatalf("sample config missing audio section: %s", contents)
	}

	var cfg config.Config
	if err := toml.Unmarshal(contents, &cfg); err != nil {
		t.Fatalf("unmarshal sample: %v", err)
	}
	if cfg.Audio.ChunkSeconds != 30 {
		t.Fatalf("expected sample chunk seconds 30, got %d", cfg.Audio.ChunkSeconds)
	}
}

func TestValidateDetectsInvalidValues(t *testing.T) {
	cfg := config.Default()
	cfg.Limits.MaxUploadMB = -1
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for non-positive upload limit")
	}

	cfg = config.Default()
	cfg.Audio.NormalizeDBFS = 3
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for non-negative normalize target")
	}

	cfg = config.Default()
	cfg.Engine.Kind = "wav2vec"
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for unsupported engine kind")
	}

	cfg = config.Default()
	cfg.Engine.Kind = "api"
	cfg.Engine.APIKey = ""
	cfg.Engine.BaseURL = "https://api.openai.com/v1"
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error when api engine has no key")
	}

	cfg = config.Default()
	cfg.Limits.Extensions = nil
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error when no extensions are allowed")
	}
}
