// Package pipeline orchestrates the transcription flow for a single request:
// media validation, audio extraction, loudness normalization, chunked speech
// recognition, and transcript postprocessing, with lifecycle state persisted
// after every stage.
package pipeline
