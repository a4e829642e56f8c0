package notify

import (
	"fmt"
	"html"
	"strings"
	"time"
)

// lineBreak is the entity Telegram renders as a newline in HTML parse mode.
const lineBreak = "&#10;"

// timestampLayout is the human-readable form used in notification text.
const timestampLayout = "2006-01-02 15:04:05 MST"

// CleanExitMessage formats the notification for a child that exited with
// code zero. Supervision ends after a clean exit, and the message says so.
func CleanExitMessage(child string, observedAt time.Time, uptime time.Duration) string {
	var b strings.Builder
	fmt.Fprintf(&b, "<b>%s stopped</b>%s", html.EscapeString(child), lineBreak)
	fmt.Fprintf(&b, "Exited cleanly with code 0 at %s after %s.%s",
		observedAt.Format(timestampLayout), formatDuration(uptime), lineBreak)
	b.WriteString("Supervision has ended; the process will not be restarted.")
	return b.String()
}

// CrashMessage formats the notification for a crashed child. restartCount is
// the lifetime restart total including the restart this crash triggers, and
// restartDelay is how long the supervisor waits before relaunching.
func CrashMessage(child string, observedAt time.Time, exitCode int, launchErr error, restartCount int, restartDelay time.Duration) string {
	var b strings.Builder
	fmt.Fprintf(&b, "<b>%s crashed</b>%s", html.EscapeString(child), lineBreak)

	ts := observedAt.Format(timestampLayout)
	if launchErr != nil {
		fmt.Fprintf(&b, "Failed to launch at %s: %s%s", ts, html.EscapeString(launchErr.Error()), lineBreak)
	} else {
		fmt.Fprintf(&b, "Exited with code <b>%d</b> at %s.%s", exitCode, ts, lineBreak)
	}

	fmt.Fprintf(&b, "Restart <b>#%d</b> in %s.", restartCount, formatDuration(restartDelay))
	return b.String()
}

func formatDuration(d time.Duration) string {
	if d < time.Second {
		return d.Round(time.Millisecond).String()
	}
	return d.Round(time.Second).String()
}
