// Package media wraps the external ffmpeg and ffprobe tools: container
// inspection, upload validation against configured limits, and decoding a
// file's audio track into an in-memory waveform.
package media
