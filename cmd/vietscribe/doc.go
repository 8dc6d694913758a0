// Command vietscribe runs the Vietnamese speech-to-text service: a web server
// with upload page and JSON API, plus CLI commands for one-shot transcription,
// transcript management, status checks, and configuration.
package main
