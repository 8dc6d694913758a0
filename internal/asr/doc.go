// Package asr performs speech recognition. An Engine converts one audio
// chunk to text; the Transcriber splits a full recording into fixed windows
// and runs the engine over them sequentially.
//
// Two engines exist: a local WhisperX model invoked through uvx, and an
// OpenAI-compatible HTTP transcription endpoint.
package asr
