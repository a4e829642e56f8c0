package supervisor

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// LaunchFailureExitCode is the synthetic exit code recorded when the child
// could not be started at all. Any nonzero code drives the crash branch, so
// a launch failure restarts the child instead of killing the loop.
const LaunchFailureExitCode = -1

// childLogPermissions is the file mode for the child's combined output sink.
const childLogPermissions = 0640

// Result describes one terminated child run.
type Result struct {
	// RunID uniquely identifies this launch attempt.
	RunID string

	// PID is the child's process ID, or 0 if it never started.
	PID int

	// ExitCode is the child's exit status. Signal deaths surface as -1 and
	// are treated the same as any other nonzero code.
	ExitCode int

	// StartedAt is when the launch was attempted.
	StartedAt time.Time

	// ObservedAt is when the termination was observed.
	ObservedAt time.Time

	// LaunchErr is non-nil when the child could not be started. ExitCode is
	// LaunchFailureExitCode in that case.
	LaunchErr error
}

// Clean reports whether this run counts as an intentional stop.
// The decision is solely exit code zero; everything else is a crash.
func (r Result) Clean() bool {
	return r.LaunchErr == nil && r.ExitCode == 0
}

// Uptime returns how long the child ran before terminating.
func (r Result) Uptime() time.Duration {
	return r.ObservedAt.Sub(r.StartedAt)
}

// Runner launches the supervised child and blocks until it exits.
type Runner interface {
	Run(ctx context.Context) Result
}

// RunnerConfig holds configuration for the exec-based child runner.
type RunnerConfig struct {
	// Command is the executable to run. A bare name is resolved against
	// WorkDir first, then PATH.
	Command string

	// Args are command-line arguments passed to the child.
	Args []string

	// WorkDir is the child's working directory. When empty, the directory
	// containing the supervisor binary is used.
	WorkDir string

	// LogPath is the append-mode sink for the child's combined stdout and
	// stderr. Relative paths are resolved against WorkDir. The file is
	// never truncated, so output accumulates across restarts.
	LogPath string

	// Env are additional KEY=VALUE pairs appended to the supervisor's own
	// environment. The child always inherits the supervisor's environment.
	Env []string
}

// ExecRunner runs the configured command as a child process with its
// combined output appended to the log sink.
//
// No timeout is imposed on the child: Run blocks until the process exits or
// the context is cancelled (which kills the child).
type ExecRunner struct {
	cfg    RunnerConfig
	logger Logger
}

// NewExecRunner creates a runner for the given configuration.
//
// It resolves the working directory (defaulting to the supervisor's own
// directory), the log sink path and the command path eagerly so that
// misconfiguration is reported before the loop starts.
//
// Returns:
//   - *ExecRunner: Configured runner
//   - error: If the command is empty or the working directory cannot be resolved
func NewExecRunner(cfg RunnerConfig) (*ExecRunner, error) {
	if cfg.Command == "" {
		return nil, fmt.Errorf("runner: command is required")
	}

	if cfg.WorkDir == "" {
		dir, err := selfDir()
		if err != nil {
			return nil, fmt.Errorf("runner: resolving supervisor directory: %w", err)
		}
		cfg.WorkDir = dir
	}

	if cfg.LogPath == "" {
		cfg.LogPath = "app.log"
	}
	if !filepath.IsAbs(cfg.LogPath) {
		cfg.LogPath = filepath.Join(cfg.WorkDir, cfg.LogPath)
	}

	// A bare command name like "main" refers to the binary sitting next to
	// the supervisor, not to something on PATH.
	if !strings.ContainsRune(cfg.Command, os.PathSeparator) {
		local := filepath.Join(cfg.WorkDir, cfg.Command)
		if _, err := os.Stat(local); err == nil {
			cfg.Command = local
		}
	}

	return &ExecRunner{
		cfg:    cfg,
		logger: noopLogger{},
	}, nil
}

// SetLogger sets the logger for the runner.
func (r *ExecRunner) SetLogger(logger Logger) {
	r.logger = logger
}

// LogPath returns the resolved path of the child's combined output sink.
func (r *ExecRunner) LogPath() string {
	return r.cfg.LogPath
}

// Run launches the child and blocks until it terminates.
//
// The child runs with the supervisor's environment (plus any configured
// extras) in the configured working directory, with stdout and stderr
// appended to the log sink. Launch failures are reported as a Result with
// LaunchErr set rather than aborting the caller.
func (r *ExecRunner) Run(ctx context.Context) Result {
	res := Result{
		RunID:     uuid.NewString(),
		StartedAt: time.Now().UTC(),
	}

	sink, err := os.OpenFile(r.cfg.LogPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, childLogPermissions)
	if err != nil {
		return r.launchFailure(res, fmt.Errorf("opening child log sink: %w", err))
	}
	defer sink.Close() //nolint:errcheck // Sink is append-only; nothing to do on close error

	// CommandContext so that supervisor termination kills the child rather
	// than orphaning it.
	cmd := exec.CommandContext(ctx, r.cfg.Command, r.cfg.Args...)
	cmd.Dir = r.cfg.WorkDir
	cmd.Stdout = sink
	cmd.Stderr = sink
	cmd.Env = os.Environ()
	if len(r.cfg.Env) > 0 {
		cmd.Env = append(cmd.Env, r.cfg.Env...)
	}

	if err := cmd.Start(); err != nil {
		return r.launchFailure(res, fmt.Errorf("starting %s: %w", r.cfg.Command, err))
	}

	res.PID = cmd.Process.Pid
	r.logger.Info("child started",
		"run_id", res.RunID,
		"pid", res.PID,
		"command", r.cfg.Command,
	)

	// Blocks with no timeout; the child runs as long as it wants.
	waitErr := cmd.Wait()
	res.ObservedAt = time.Now().UTC()
	res.ExitCode = cmd.ProcessState.ExitCode()

	if waitErr != nil {
		r.logger.Debug("child wait returned error",
			"run_id", res.RunID,
			"error", waitErr,
		)
	}

	return res
}

// launchFailure fills in the synthetic crash result for a child that never ran.
func (r *ExecRunner) launchFailure(res Result, err error) Result {
	res.ExitCode = LaunchFailureExitCode
	res.LaunchErr = err
	res.ObservedAt = time.Now().UTC()
	r.logger.Error("child failed to launch",
		"run_id", res.RunID,
		"error", err,
	)
	return res
}

// selfDir returns the directory containing the supervisor binary.
func selfDir() (string, error) {
	exe, err := os.Executable()
	if err != nil {
		return "", err
	}
	return filepath.Dir(exe), nil
}
