package supervisor

import (
	"context"
	"sync"
	"time"
)

// DefaultRestartDelay is the fixed wait between a crash and the next launch
// attempt. There is deliberately no backoff and no restart cap: any nonzero
// exit restarts the child after this delay, forever.
const DefaultRestartDelay = 5 * time.Second

// notifyTimeout bounds a single notification delivery so a hung network call
// cannot delay the restart decision.
const notifyTimeout = 10 * time.Second

// Logger defines the logging interface for the supervisor.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// noopLogger is a logger that does nothing.
type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Notifier delivers termination notices to the operator channel.
//
// Delivery is best-effort from the loop's perspective: returned errors are
// logged and discarded, and never affect the restart/stop decision.
type Notifier interface {
	// ChildStopped is invoked for a clean (exit code 0) termination.
	ChildStopped(ctx context.Context, res Result) error

	// ChildCrashed is invoked for any other termination, including launch
	// failures. restartCount already includes this crash.
	ChildCrashed(ctx context.Context, res Result, restartCount int, restartDelay time.Duration) error
}

// Config holds configuration for the supervisor loop.
type Config struct {
	// Name is a human-readable identifier for logging.
	Name string

	// RestartDelay is the fixed wait after a crash before relaunching.
	// Defaults to DefaultRestartDelay.
	RestartDelay time.Duration

	// OnChildExit is called after each termination has been classified and
	// notified, with the restart count as of that termination. Used to wire
	// observational sinks (history, status bus, metrics). May be nil.
	OnChildExit func(res Result, restartCount int)

	// OnRestart is called before each relaunch attempt. May be nil.
	OnRestart func(attempt int)
}

// Supervisor drives the run -> classify -> notify -> (stop | delay-restart)
// cycle for a single child process.
//
// The loop itself is strictly sequential; the mutex only guards the snapshot
// read by Stats from other goroutines (the status API).
type Supervisor struct {
	cfg      Config
	runner   Runner
	notifier Notifier
	logger   Logger

	mu           sync.RWMutex
	restartCount int
	childRunning bool
	lastResult   *Result
	startedAt    time.Time
}

// New creates a supervisor for the given runner and notifier.
func New(cfg Config, runner Runner, notifier Notifier) *Supervisor {
	if cfg.Name == "" {
		cfg.Name = "appsentry"
	}
	if cfg.RestartDelay == 0 {
		cfg.RestartDelay = DefaultRestartDelay
	}

	return &Supervisor{
		cfg:      cfg,
		runner:   runner,
		notifier: notifier,
		logger:   noopLogger{},
	}
}

// SetLogger sets the logger for the supervisor.
func (s *Supervisor) SetLogger(logger Logger) {
	s.logger = logger
}

// Run executes the supervision loop until the child exits cleanly or the
// context is cancelled.
//
// Per iteration: launch the child and block until it terminates; classify
// the exit solely on exit code zero; send exactly one notification; on a
// clean exit return nil; on a crash increment the restart count, wait the
// fixed delay and relaunch. The restart count never resets and has no upper
// bound.
//
// A termination caused by context cancellation (the run context kills the
// child) is not classified and not notified; Run returns ctx.Err().
func (s *Supervisor) Run(ctx context.Context) error {
	s.mu.Lock()
	s.startedAt = time.Now().UTC()
	s.mu.Unlock()

	for {
		s.mu.RLock()
		restarts := s.restartCount
		s.mu.RUnlock()

		s.logger.Info("starting child",
			"name", s.cfg.Name,
			"restarts", restarts,
		)

		s.setChildRunning(true)
		res := s.runner.Run(ctx)
		s.setChildRunning(false)
		s.recordResult(res)

		// Supervisor shutdown kills the child through the run context;
		// that death is not a crash and produces no notification.
		if ctx.Err() != nil {
			s.logger.Info("supervisor stopping, child terminated",
				"name", s.cfg.Name,
			)
			return ctx.Err()
		}

		if res.Clean() {
			s.logger.Info("child stopped normally",
				"name", s.cfg.Name,
				"run_id", res.RunID,
				"exit_code", res.ExitCode,
				"observed_at", res.ObservedAt,
			)
			s.notify(ctx, func(nctx context.Context) error {
				return s.notifier.ChildStopped(nctx, res)
			})
			s.observeExit(res, restarts)
			return nil
		}

		s.mu.Lock()
		s.restartCount++
		count := s.restartCount
		s.mu.Unlock()

		s.logger.Warn("child crashed",
			"name", s.cfg.Name,
			"run_id", res.RunID,
			"exit_code", res.ExitCode,
			"restarts", count,
			"launch_error", res.LaunchErr,
			"observed_at", res.ObservedAt,
		)

		s.notify(ctx, func(nctx context.Context) error {
			return s.notifier.ChildCrashed(nctx, res, count, s.cfg.RestartDelay)
		})
		s.observeExit(res, count)

		if s.cfg.OnRestart != nil {
			s.cfg.OnRestart(count)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(s.cfg.RestartDelay):
		}
	}
}

// notify delivers a single notification, bounded by notifyTimeout.
// Failures are logged and swallowed: observability may degrade, the
// restart/stop decision never does.
func (s *Supervisor) notify(ctx context.Context, send func(context.Context) error) {
	nctx, cancel := context.WithTimeout(ctx, notifyTimeout)
	defer cancel()

	if err := send(nctx); err != nil {
		s.logger.Warn("notification delivery failed",
			"name", s.cfg.Name,
			"error", err,
		)
	}
}

// observeExit feeds the termination to the optional exit callback.
// Observers are observational only; panics must not kill the loop.
func (s *Supervisor) observeExit(res Result, restartCount int) {
	if s.cfg.OnChildExit == nil {
		return
	}

	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("exit observer panic recovered",
				"name", s.cfg.Name,
				"panic", r,
			)
		}
	}()

	s.cfg.OnChildExit(res, restartCount)
}

func (s *Supervisor) setChildRunning(running bool) {
	s.mu.Lock()
	s.childRunning = running
	s.mu.Unlock()
}

func (s *Supervisor) recordResult(res Result) {
	s.mu.Lock()
	s.lastResult = &res
	s.mu.Unlock()
}

// RestartCount returns the number of crash-triggered restarts so far.
func (s *Supervisor) RestartCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.restartCount
}

// Stats is a point-in-time snapshot of the supervisor's state.
type Stats struct {
	Name           string     `json:"name"`
	ChildRunning   bool       `json:"child_running"`
	RestartCount   int        `json:"restart_count"`
	StartedAt      time.Time  `json:"started_at"`
	LastRunID      string     `json:"last_run_id,omitempty"`
	LastExitCode   *int       `json:"last_exit_code,omitempty"`
	LastObservedAt *time.Time `json:"last_observed_at,omitempty"`
}

// Stats returns current statistics for the supervisor.
func (s *Supervisor) Stats() Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := Stats{
		Name:         s.cfg.Name,
		ChildRunning: s.childRunning,
		RestartCount: s.restartCount,
		StartedAt:    s.startedAt,
	}

	if s.lastResult != nil {
		stats.LastRunID = s.lastResult.RunID
		code := s.lastResult.ExitCode
		stats.LastExitCode = &code
		observed := s.lastResult.ObservedAt
		stats.LastObservedAt = &observed
	}

	return stats
}
