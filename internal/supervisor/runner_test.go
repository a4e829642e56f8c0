package supervisor

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func newTestRunner(t *testing.T, dir string, command string, args ...string) *ExecRunner {
	t.Helper()
	runner, err := NewExecRunner(RunnerConfig{
		Command: command,
		Args:    args,
		WorkDir: dir,
		LogPath: "app.log",
	})
	if err != nil {
		t.Fatalf("NewExecRunner() error = %v", err)
	}
	return runner
}

func TestExecRunner_ExitCodes(t *testing.T) {
	tests := []struct {
		name     string
		script   string
		wantCode int
	}{
		{"clean", "exit 0", 0},
		{"generic failure", "exit 1", 1},
		{"custom code", "exit 42", 42},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			runner := newTestRunner(t, dir, "/bin/sh", "-c", tt.script)

			res := runner.Run(context.Background())

			if res.LaunchErr != nil {
				t.Fatalf("Run() launch error = %v", res.LaunchErr)
			}
			if res.ExitCode != tt.wantCode {
				t.Errorf("ExitCode = %d, want %d", res.ExitCode, tt.wantCode)
			}
			if got := res.Clean(); got != (tt.wantCode == 0) {
				t.Errorf("Clean() = %v for exit %d", got, tt.wantCode)
			}
			if res.RunID == "" {
				t.Error("RunID is empty")
			}
			if res.PID <= 0 {
				t.Errorf("PID = %d, want > 0", res.PID)
			}
			if res.ObservedAt.Before(res.StartedAt) {
				t.Errorf("ObservedAt %v before StartedAt %v", res.ObservedAt, res.StartedAt)
			}
		})
	}
}

func TestExecRunner_LaunchFailure(t *testing.T) {
	dir := t.TempDir()
	runner := newTestRunner(t, dir, filepath.Join(dir, "does-not-exist"))

	res := runner.Run(context.Background())

	if res.LaunchErr == nil {
		t.Fatal("Run() LaunchErr = nil, want error for missing executable")
	}
	if res.ExitCode != LaunchFailureExitCode {
		t.Errorf("ExitCode = %d, want %d", res.ExitCode, LaunchFailureExitCode)
	}
	if res.Clean() {
		t.Error("Clean() = true for a launch failure")
	}
}

func TestExecRunner_LogAppendsAcrossRuns(t *testing.T) {
	dir := t.TempDir()
	runner := newTestRunner(t, dir, "/bin/sh", "-c", `echo "out $RUN_MARKER"; echo "err $RUN_MARKER" >&2`)

	for _, marker := range []string{"first", "second"} {
		runner.cfg.Env = []string{"RUN_MARKER=" + marker}
		res := runner.Run(context.Background())
		if res.LaunchErr != nil || res.ExitCode != 0 {
			t.Fatalf("run %q: exit=%d err=%v", marker, res.ExitCode, res.LaunchErr)
		}
	}

	data, err := os.ReadFile(filepath.Join(dir, "app.log"))
	if err != nil {
		t.Fatalf("reading log: %v", err)
	}
	got := string(data)

	// Both runs' stdout and stderr land in the same file, in run order.
	for _, want := range []string{"out first", "err first", "out second", "err second"} {
		if !strings.Contains(got, want) {
			t.Errorf("log missing %q, got:\n%s", want, got)
		}
	}
	if strings.Index(got, "out first") > strings.Index(got, "out second") {
		t.Error("second run's output precedes the first run's output")
	}
}

func TestExecRunner_LogNotTruncated(t *testing.T) {
	dir := t.TempDir()
	logPath := filepath.Join(dir, "app.log")
	if err := os.WriteFile(logPath, []byte("pre-existing line\n"), 0o640); err != nil {
		t.Fatalf("seeding log: %v", err)
	}

	runner := newTestRunner(t, dir, "/bin/sh", "-c", "echo fresh")
	if res := runner.Run(context.Background()); res.ExitCode != 0 {
		t.Fatalf("run failed: %+v", res)
	}

	data, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("reading log: %v", err)
	}
	if !strings.HasPrefix(string(data), "pre-existing line\n") {
		t.Errorf("pre-existing log content was lost, got:\n%s", string(data))
	}
	if !strings.Contains(string(data), "fresh") {
		t.Errorf("new output missing, got:\n%s", string(data))
	}
}

func TestExecRunner_WorkingDirectory(t *testing.T) {
	dir := t.TempDir()
	runner := newTestRunner(t, dir, "/bin/sh", "-c", "pwd > where.txt")

	if res := runner.Run(context.Background()); res.ExitCode != 0 {
		t.Fatalf("run failed: %+v", res)
	}

	data, err := os.ReadFile(filepath.Join(dir, "where.txt"))
	if err != nil {
		t.Fatalf("child did not write in its working directory: %v", err)
	}
	got := strings.TrimSpace(string(data))
	want, _ := filepath.EvalSymlinks(dir)
	if gotResolved, err := filepath.EvalSymlinks(got); err == nil {
		got = gotResolved
	}
	if got != want {
		t.Errorf("child pwd = %q, want %q", got, want)
	}
}

func TestExecRunner_ContextCancelKillsChild(t *testing.T) {
	dir := t.TempDir()
	runner := newTestRunner(t, dir, "/bin/sh", "-c", "sleep 30")

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan Result, 1)
	go func() { done <- runner.Run(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case res := <-done:
		if res.ExitCode == 0 {
			t.Errorf("ExitCode = 0 for a killed child")
		}
	case <-time.After(5 * time.Second):
		t.Fatal("child was not killed after context cancellation")
	}
}

func TestExecRunner_ResolvesCommandInWorkDir(t *testing.T) {
	dir := t.TempDir()
	script := filepath.Join(dir, "main")
	if err := os.WriteFile(script, []byte("#!/bin/sh\nexit 0\n"), 0o755); err != nil {
		t.Fatalf("writing script: %v", err)
	}

	runner := newTestRunner(t, dir, "main")
	res := runner.Run(context.Background())

	if res.LaunchErr != nil {
		t.Fatalf("launch error = %v, bare command should resolve against the working directory", res.LaunchErr)
	}
	if res.ExitCode != 0 {
		t.Errorf("ExitCode = %d, want 0", res.ExitCode)
	}
}

func TestNewExecRunner_Validation(t *testing.T) {
	if _, err := NewExecRunner(RunnerConfig{}); err == nil {
		t.Error("NewExecRunner() with empty command should fail")
	}
}

func TestResult_Uptime(t *testing.T) {
	start := time.Now().Add(-3 * time.Second)
	res := Result{StartedAt: start, ObservedAt: start.Add(3 * time.Second)}
	if got := res.Uptime(); got != 3*time.Second {
		t.Errorf("Uptime() = %v, want 3s", got)
	}
}
