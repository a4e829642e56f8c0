// Package supervisor implements the appsentry control loop: launch one child
// process, wait for it to terminate, classify the exit, notify, and either
// stop or restart after a fixed delay.
//
// Classification is exit code zero versus everything else. Signal deaths and
// launch failures are uniformly "crash" - the loop fails safe into the
// restart branch rather than dying silently. There is no backoff, no restart
// cap and no counter reset; a crashing child is relaunched every
// RestartDelay until it exits cleanly or the supervisor is terminated.
//
// Notification delivery is best-effort: a Notifier error degrades
// observability, never availability of the restart behavior.
//
// Shutdown semantics: the child is started through the run context, so
// terminating the supervisor (SIGINT/SIGTERM in main) kills the child
// rather than orphaning it. That final termination is not classified and
// not notified.
//
// Example usage:
//
//	runner, _ := supervisor.NewExecRunner(supervisor.RunnerConfig{
//	    Command: "main",
//	    LogPath: "app.log",
//	})
//	sup := supervisor.New(supervisor.Config{Name: "app"}, runner, notifier)
//	err := sup.Run(ctx) // blocks until clean exit or cancellation
package supervisor
