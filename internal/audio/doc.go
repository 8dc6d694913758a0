// Package audio provides in-memory waveform operations: loudness
// normalization, fixed-window chunking, and PCM WAV encoding for handing
// samples to speech models.
package audio
