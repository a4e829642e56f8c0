package notify

import (
	"errors"
	"strings"
	"testing"
	"time"
)

var testObservedAt = time.Date(2026, 8, 15, 10, 30, 0, 0, time.UTC)

func TestCleanExitMessage(t *testing.T) {
	msg := CleanExitMessage("main", testObservedAt, 90*time.Second)

	for _, want := range []string{
		"<b>main stopped</b>",
		"code 0",
		"2026-08-15 10:30:00 UTC",
		"1m30s",
		"will not be restarted",
	} {
		if !strings.Contains(msg, want) {
			t.Errorf("message missing %q:\n%s", want, msg)
		}
	}
	if !strings.Contains(msg, "&#10;") {
		t.Errorf("message has no line breaks:\n%s", msg)
	}
	if strings.Contains(msg, "\n") {
		t.Errorf("message contains a raw newline, want &#10; entities:\n%s", msg)
	}
}

func TestCrashMessage(t *testing.T) {
	msg := CrashMessage("main", testObservedAt, 137, nil, 3, 5*time.Second)

	for _, want := range []string{
		"<b>main crashed</b>",
		"<b>137</b>",
		"2026-08-15 10:30:00 UTC",
		"<b>#3</b>",
		"5s",
		"&#10;",
	} {
		if !strings.Contains(msg, want) {
			t.Errorf("message missing %q:\n%s", want, msg)
		}
	}
}

func TestCrashMessage_LaunchFailure(t *testing.T) {
	launchErr := errors.New("fork/exec ./main: no such file or directory")
	msg := CrashMessage("main", testObservedAt, -1, launchErr, 1, 5*time.Second)

	if !strings.Contains(msg, "Failed to launch") {
		t.Errorf("launch failure not reported:\n%s", msg)
	}
	if !strings.Contains(msg, "no such file or directory") {
		t.Errorf("launch error detail missing:\n%s", msg)
	}
	if strings.Contains(msg, "Exited with code") {
		t.Errorf("launch failure should not report an exit code:\n%s", msg)
	}
}

func TestCrashMessage_EscapesChildName(t *testing.T) {
	msg := CrashMessage("worker <prod>", testObservedAt, 1, nil, 1, 5*time.Second)

	if strings.Contains(msg, "<prod>") {
		t.Errorf("child name was not HTML-escaped:\n%s", msg)
	}
	if !strings.Contains(msg, "&lt;prod&gt;") {
		t.Errorf("escaped child name missing:\n%s", msg)
	}
}
