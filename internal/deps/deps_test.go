package deps

import (
	"os"
	"path/filepath"
	"testing"
)

func TestCheckBinariesReportsMissingAndFound(t *testing.T) {
	binDir := t.TempDir()
	stub := filepath.Join(binDir, "present-tool")
	if err := os.WriteFile(stub, []byte("#!/bin/sh\nexit 0\n"), 0o755); err != nil {
		t.Fatalf("write stub: %v", err)
	}
	t.Setenv("PATH", binDir)

	results := CheckBinaries([]Requirement{
		{Name: "Present", Command: "present-tool", Description: "a tool that exists"},
		{Name: "Absent", Command: "absent-tool"},
		{Name: "Unset", Command: "  ", Optional: true},
	})

	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}
	if !results[0].Available {
		t.Fatalf("expected present-tool to be available: %+v", results[0])
	}
	if results[1].Available {
		t.Fatalf("expected absent-tool to be missing: %+v", results[1])
	}
	if results[1].Detail == "" {
		t.Fatal("expected detail for missing binary")
	}
	if results[2].Available || results[2].Detail != "command not configured" {
		t.Fatalf("expected unconfigured detail: %+v", results[2])
	}
	if !results[2].Optional {
		t.Fatal("optional flag should carry through")
	}
}
