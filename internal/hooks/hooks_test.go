package hooks

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestSpawnDetached_DeliversStdin(t *testing.T) {
	tmpDir := t.TempDir()
	scriptPath := filepath.Join(tmpDir, "worker.sh")
	outputFile := filepath.Join(tmpDir, "stdin.txt")

	script := "#!/bin/sh\ncat > " + outputFile + "\n"
	if err := os.WriteFile(scriptPath, []byte(script), 0755); err != nil {
		t.Fatalf("write script: %v", err)
	}

	s := New(scriptPath)
	if err := s.SpawnDetached(nil, []byte(`{"session_id":"abc"}`)); err != nil {
		t.Fatalf("SpawnDetached: %v", err)
	}

	var data []byte
	var err error
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		data, err = os.ReadFile(outputFile)
		if err == nil {
			break
		}
		time.Sleep(50 * time.Millisecond)
	}
	if err != nil {
		t.Fatalf("worker never wrote stdin: %v", err)
	}
	if string(data) != `{"session_id":"abc"}` {
		t.Errorf("stdin = %q, want the JSON payload", string(data))
	}
}

func TestSpawnDetached_ReturnsWithoutWaitingForChild(t *testing.T) {
	tmpDir := t.TempDir()
	scriptPath := filepath.Join(tmpDir, "worker.sh")

	script := "#!/bin/sh\nsleep 2\n"
	if err := os.WriteFile(scriptPath, []byte(script), 0755); err != nil {
		t.Fatalf("write script: %v", err)
	}

	s := New(scriptPath)
	start := time.Now()
	if err := s.SpawnDetached(nil, nil); err != nil {
		t.Fatalf("SpawnDetached: %v", err)
	}
	if elapsed := time.Since(start); elapsed > 500*time.Millisecond {
		t.Errorf("SpawnDetached blocked for %v, want near-instant return", elapsed)
	}
}

func TestSpawnDetached_PassesArgs(t *testing.T) {
	tmpDir := t.TempDir()
	scriptPath := filepath.Join(tmpDir, "worker.sh")
	outputFile := filepath.Join(tmpDir, "args.txt")

	script := "#!/bin/sh\necho \"$1 $2\" > " + outputFile + "\n"
	if err := os.WriteFile(scriptPath, []byte(script), 0755); err != nil {
		t.Fatalf("write script: %v", err)
	}

	s := New(scriptPath)
	if err := s.SpawnDetached([]string{"summarize-worker", "extra"}, nil); err != nil {
		t.Fatalf("SpawnDetached: %v", err)
	}

	var data []byte
	var err error
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		data, err = os.ReadFile(outputFile)
		if err == nil {
			break
		}
		time.Sleep(50 * time.Millisecond)
	}
	if err != nil {
		t.Fatalf("worker never ran: %v", err)
	}
	if string(data) != "summarize-worker extra\n" {
		t.Errorf("args = %q, want %q", string(data), "summarize-worker extra\n")
	}
}

func TestSpawnDetached_MissingExecutable(t *testing.T) {
	s := New(filepath.Join(t.TempDir(), "does-not-exist"))
	if err := s.SpawnDetached(nil, nil); err == nil {
		t.Error("expected error spawning a nonexistent executable")
	}
}
