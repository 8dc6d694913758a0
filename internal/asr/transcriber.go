package asr

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"vietscribe/internal/audio"
	"vietscribe/internal/logging"
)

// Result holds the raw transcript of a full recording.
type Result struct {
	Text       string
	ChunkCount int
	Elapsed    time.Duration
}

// Transcriber drives an Engine over a full recording: it splits the waveform
// into fixed windows and transcribes them one at a time, in playback order.
type Transcriber struct {
	engine       Engine
	chunkSeconds int
	chunkTimeout time.Duration
	logger       *slog.Logger
	onChunk      func(done, total int)
}

// NewTranscriber creates a Transcriber. chunkTimeout bounds each individual
// chunk; zero means no per-chunk deadline.
func NewTranscriber(engine Engine, chunkSeconds int, chunkTimeout time.Duration, logger *slog.Logger) *Transcriber {
	return &Transcriber{
		engine:       engine,
		chunkSeconds: chunkSeconds,
		chunkTimeout: chunkTimeout,
		logger:       logging.NewComponentLogger(logger, "transcriber"),
	}
}

// OnChunk registers a progress callback invoked after each chunk completes.
func (t *Transcriber) OnChunk(fn func(done, total int)) {
	t.onChunk = fn
}

// Transcribe runs the engine over every chunk sequentially. The first chunk
// failure aborts the whole transcription; there are no retries. Chunk texts
// are joined with single spaces, empty chunks are skipped.
func (t *Transcriber) Transcribe(ctx context.Context, waveform *audio.Waveform) (Result, error) {
	start := time.Now()
	chunks := waveform.Split(t.chunkSeconds)

	t.logger.Info("transcription started",
		logging.String("engine", t.engine.Name()),
		logging.Int(logging.FieldChunkCount, len(chunks)),
		logging.Float64("audio_seconds", waveform.Seconds()))

	parts := make([]string, 0, len(chunks))
	for i, chunk := range chunks {
		text, err := t.transcribeChunk(ctx, chunk)
		if err != nil {
			t.logger.Error("chunk failed",
				logging.Int(logging.FieldChunk, i+1),
				logging.Int(logging.FieldChunkCount, len(chunks)),
				logging.Error(err))
			return Result{}, err
		}
		if text = strings.TrimSpace(text); text != "" {
			parts = append(parts, text)
		}
		t.logger.Debug("chunk complete",
			logging.Int(logging.FieldChunk, i+1),
			logging.Int(logging.FieldChunkCount, len(chunks)))
		if t.onChunk != nil {
			t.onChunk(i+1, len(chunks))
		}
	}

	result := Result{
		Text:       strings.Join(parts, " "),
		ChunkCount: len(chunks),
		Elapsed:    time.Since(start),
	}
	t.logger.Info("transcription finished",
		logging.Int(logging.FieldChunkCount, result.ChunkCount),
		logging.Duration("elapsed", result.Elapsed))
	return result, nil
}

func (t *Transcriber) transcribeChunk(ctx context.Context, chunk *audio.Waveform) (string, error) {
	if t.chunkTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t.chunkTimeout)
		defer cancel()
	}
	return t.engine.Transcribe(ctx, chunk)
}
