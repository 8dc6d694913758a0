package main

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"vietscribe/internal/config"
	"vietscribe/internal/transcripts"
)

type cliTestEnv struct {
	cfg        *config.Config
	store      *transcripts.Store
	configPath string
	baseDir    string
}

func setupCLITestEnv(t *testing.T) *cliTestEnv {
	t.Helper()

	base := t.TempDir()
	t.Setenv("HOME", base)

	cfgVal := config.Default()
	cfgVal.Paths.DataDir = filepath.Join(base, "transcripts")
	cfgVal.Paths.WorkDir = filepath.Join(base, "work")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Paths.Bind = "127.0.0.1:0"
	cfg := &cfgVal

	configPath := filepath.Join(base, "config.toml")
	writeTestConfig(t, configPath, cfg)

	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("ensure directories: %v", err)
	}

	store, err := transcripts.Open(cfg)
	if err != nil {
		t.Fatalf("transcripts.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})

	return &cliTestEnv{
		cfg:        cfg,
		store:      store,
		configPath: configPath,
		baseDir:    base,
	}
}

func writeTestConfig(t *testing.T, path string, cfg *config.Config) {
	t.Helper()
	content := fmt.Sprintf(`[paths]
data_dir = %q
work_dir = %q
log_dir = %q
bind = %q

[logging]
format = "console"
level = "error"
`,
		cfg.Paths.DataDir,
		cfg.Paths.WorkDir,
		cfg.Paths.LogDir,
		cfg.Paths.Bind,
	)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

func runCLI(t *testing.T, args []string, configPath string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	if configPath != "" {
		args = append([]string{"--config", configPath}, args...)
	}
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func requireContains(t *testing.T, haystack, needle string) {
	t.Helper()
	if !strings.Contains(haystack, needle) {
		t.Fatalf("expected output to contain %q, got:\n%s", needle, haystack)
	}
}

func TestCLITranscriptsCommands(t *testing.T) {
	env := setupCLITestEnv(t)
	ctx := context.Background()

	if _, err := env.store.Create(ctx, "tok-alpha", "alpha.mp4", "", "whisperx/large-v3", "vi"); err != nil {
		t.Fatalf("create alpha: %v", err)
	}
	failed, err := env.store.Create(ctx, "tok-beta", "beta.mkv", "", "whisperx/large-v3", "vi")
	if err != nil {
		t.Fatalf("create beta: %v", err)
	}
	failed.Status = transcripts.StatusFailed
	failed.ErrorMessage = "ffmpeg exited with status 1"
	if err := env.store.Update(ctx, failed); err != nil {
		t.Fatalf("update beta: %v", err)
	}

	out, _, err := runCLI(t, []string{"transcripts", "list"}, env.configPath)
	if err != nil {
		t.Fatalf("transcripts list: %v", err)
	}
	requireContains(t, out, "alpha.mp4")
	requireContains(t, out, "beta.mkv")

	out, _, err = runCLI(t, []string{"transcripts", "list", "--status", "failed"}, env.configPath)
	if err != nil {
		t.Fatalf("transcripts list --status failed: %v", err)
	}
	requireContains(t, out, "beta.mkv")
	if strings.Contains(out, "alpha.mp4") {
		t.Fatalf("expected pending item filtered out, got:\n%s", out)
	}

	out, _, err = runCLI(t, []string{"transcripts", "show", "tok-beta"}, env.configPath)
	if err != nil {
		t.Fatalf("transcripts show: %v", err)
	}
	requireContains(t, out, "ffmpeg exited")

	out, _, err = runCLI(t, []string{"transcripts", "clear", "--failed"}, env.configPath)
	if err != nil {
		t.Fatalf("transcripts clear --failed: %v", err)
	}
	requireContains(t, out, "Removed 1 transcript(s)")

	out, _, err = runCLI(t, []string{"transcripts", "remove", "tok-alpha"}, env.configPath)
	if err != nil {
		t.Fatalf("transcripts remove: %v", err)
	}
	requireContains(t, out, "Removed tok-alpha")

	if _, _, err := runCLI(t, []string{"transcripts", "remove", "tok-alpha"}, env.configPath); err == nil {
		t.Fatal("expected error removing missing transcript")
	}

	out, _, err = runCLI(t, []string{"transcripts", "list"}, env.configPath)
	if err != nil {
		t.Fatalf("transcripts list after clear: %v", err)
	}
	requireContains(t, out, "No transcripts")
}

func TestCLIStatusCommand(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"status"}, env.configPath)
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	requireContains(t, out, "whisperx/large-v3")
	requireContains(t, out, "Data directory")
	requireContains(t, out, "Transcripts")
}

func TestCLITestNotifyWithoutTopic(t *testing.T) {
	env := setupCLITestEnv(t)

	if _, _, err := runCLI(t, []string{"test-notify"}, env.configPath); err == nil {
		t.Fatal("expected error when ntfy_topic is unset")
	}
}
