package notify

import "errors"

// Sentinel errors for notification delivery.
//
// Callers treat delivery as best-effort, so these exist mainly for logging
// and for tests to distinguish failure modes.
var (
	// ErrMissingCredentials indicates the bot token or chat ID is empty.
	ErrMissingCredentials = errors.New("notify: bot token and chat id are required")

	// ErrRejected indicates the Telegram API answered with a non-2xx status.
	ErrRejected = errors.New("notify: telegram rejected the message")
)
