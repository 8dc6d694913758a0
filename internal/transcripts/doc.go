// Package transcripts persists transcription requests and their results in a
// SQLite database: lifecycle status, chunk progress, raw and postprocessed
// text, and failure details.
package transcripts
