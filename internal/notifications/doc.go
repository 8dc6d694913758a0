// Package notifications sends optional push notifications through ntfy for
// server lifecycle and transcription outcomes. Without a configured topic
// every call is a no-op.
package notifications
