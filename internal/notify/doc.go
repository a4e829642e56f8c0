// Package notify delivers child lifecycle notifications to Telegram.
//
// The package speaks the Bot API's sendMessage method directly: one
// form-encoded HTTPS POST per notification, HTML parse mode, bounded by a
// fixed timeout. It knows nothing about supervision; the caller decides when
// a message is warranted and what to do when delivery fails (typically:
// log and move on).
//
// Message builders live alongside the transport so the exact wording and
// markup of each notification stays in one place.
package notify
