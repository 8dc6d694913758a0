package pipeline

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"vietscribe/internal/asr"
	"vietscribe/internal/audio"
	"vietscribe/internal/config"
	"vietscribe/internal/logging"
	"vietscribe/internal/media"
	"vietscribe/internal/notifications"
	"vietscribe/internal/postprocess"
	"vietscribe/internal/services"
	"vietscribe/internal/transcripts"
)

// Pipeline runs transcription requests end to end: probe, audio extraction,
// loudness normalization, chunked transcription, and text postprocessing.
// Processing is serialized; a second request waits until the current one
// finishes.
type Pipeline struct {
	cfg       *config.Config
	store     *transcripts.Store
	notifier  notifications.Service
	logger    *slog.Logger
	engine    asr.Engine
	uploadDir string

	extract func(ctx context.Context, source string) (*audio.Waveform, error)
	probe   func(ctx context.Context, binary, path string) (media.ProbeResult, error)

	mu sync.Mutex
}

// New builds a Pipeline with the engine selected by configuration.
func New(cfg *config.Config, store *transcripts.Store, notifier notifications.Service, logger *slog.Logger) (*Pipeline, error) {
	engine, err := asr.NewEngine(cfg, logger)
	if err != nil {
		return nil, err
	}

	uploadDir := filepath.Join(cfg.Paths.WorkDir, "uploads")
	if err := os.MkdirAll(uploadDir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload directory: %w", err)
	}

	extractor := media.NewExtractor(cfg.FFmpegBinary(), cfg.Audio.SampleRate)
	if notifier == nil {
		notifier = notifications.NewService(cfg)
	}

	return &Pipeline{
		cfg:       cfg,
		store:     store,
		notifier:  notifier,
		logger:    logging.NewComponentLogger(logger, "pipeline"),
		engine:    engine,
		uploadDir: uploadDir,
		extract:   extractor.ExtractWaveform,
		probe:     media.Probe,
	}, nil
}

// WithEngine replaces the transcription engine (for testing).
func (p *Pipeline) WithEngine(engine asr.Engine) {
	p.engine = engine
}

// WithExtract replaces the audio extraction function (for testing).
func (p *Pipeline) WithExtract(fn func(ctx context.Context, source string) (*audio.Waveform, error)) {
	p.extract = fn
}

// WithProbe replaces the media probe function (for testing).
func (p *Pipeline) WithProbe(fn func(ctx context.Context, binary, path string) (media.ProbeResult, error)) {
	p.probe = fn
}

// SubmitUpload validates an uploaded file, copies it into the work directory,
// and records a pending transcript. The caller owns starting Process.
func (p *Pipeline) SubmitUpload(ctx context.Context, filename string, reader io.Reader, declaredSize int64) (*transcripts.Transcript, error) {
	filename = filepath.Base(strings.TrimSpace(filename))
	if err := media.ValidateUpload(p.cfg, filename, declaredSize); err != nil {
		return nil, services.Wrap(services.ErrValidation, "upload", filename, "", err)
	}

	token := uuid.New().String()
	dest := filepath.Join(p.uploadDir, token+strings.ToLower(filepath.Ext(filename)))

	written, err := p.saveUpload(dest, reader)
	if err != nil {
		return nil, err
	}
	if written > p.cfg.MaxUploadBytes() {
		_ = os.Remove(dest)
		return nil, services.Wrap(services.ErrValidation, "upload", filename,
			fmt.Sprintf("body exceeds %d MB limit", p.cfg.Limits.MaxUploadMB), nil)
	}

	transcript, err := p.store.Create(ctx, token, filename, dest, p.engineLabel(), p.cfg.Engine.Language)
	if err != nil {
		_ = os.Remove(dest)
		return nil, err
	}

	p.logger.Info("upload accepted",
		logging.String(logging.FieldToken, token),
		logging.String("filename", filename),
		logging.Int64("bytes", written))
	return transcript, nil
}

// SubmitFile records a pending transcript for a file already on disk. The
// source file is left in place after processing.
func (p *Pipeline) SubmitFile(ctx context.Context, path string) (*transcripts.Transcript, error) {
	expanded, err := config.ExpandPath(path)
	if err != nil {
		return nil, err
	}

	info, err := os.Stat(expanded)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, services.Wrap(services.ErrNotFound, "submit", expanded, "file does not exist", nil)
		}
		return nil, fmt.Errorf("stat source: %w", err)
	}
	if info.IsDir() {
		return nil, services.Wrap(services.ErrValidation, "submit", expanded, "path is a directory", nil)
	}

	filename := filepath.Base(expanded)
	if err := media.ValidateUpload(p.cfg, filename, info.Size()); err != nil {
		return nil, services.Wrap(services.ErrValidation, "submit", filename, "", err)
	}

	token := uuid.New().String()
	return p.store.Create(ctx, token, filename, expanded, p.engineLabel(), p.cfg.Engine.Language)
}

// Process runs the full transcription flow for a pending transcript. Only one
// transcript is processed at a time; concurrent callers block.
func (p *Pipeline) Process(ctx context.Context, token string) (*transcripts.Transcript, error) {
	transcript, err := p.store.GetByToken(ctx, token)
	if err != nil {
		return nil, err
	}
	if transcript == nil {
		return nil, services.Wrap(services.ErrNotFound, "process", token, "unknown transcript", nil)
	}
	if transcript.Status != transcripts.StatusPending {
		return nil, services.Wrap(services.ErrValidation, "process", token,
			fmt.Sprintf("transcript is %s, not pending", transcript.Status), nil)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	ctx = services.WithToken(ctx, token)
	start := time.Now()

	waveform, err := p.runExtraction(ctx, transcript)
	if err != nil {
		return p.fail(ctx, transcript, "extraction", err)
	}

	result, err := p.runTranscription(ctx, transcript, waveform)
	if err != nil {
		return p.fail(ctx, transcript, "transcription", err)
	}

	if err := p.runPostprocess(ctx, transcript, result); err != nil {
		return p.fail(ctx, transcript, "postprocess", err)
	}

	now := time.Now().UTC()
	transcript.Status = transcripts.StatusCompleted
	transcript.CompletedAt = &now
	if err := p.store.Update(ctx, transcript); err != nil {
		return nil, err
	}
	p.cleanupSource(transcript)

	elapsed := time.Since(start)
	p.logger.Info("transcription completed",
		logging.String(logging.FieldToken, token),
		logging.String("filename", transcript.Filename),
		logging.Int(logging.FieldChunkCount, transcript.ChunkCount),
		logging.Duration("elapsed", elapsed))
	if err := p.notifier.NotifyTranscriptionCompleted(ctx, transcript.Filename, transcript.ChunkCount, elapsed); err != nil {
		p.logger.Warn("completion notification failed", logging.Error(err))
	}
	return transcript, nil
}

func (p *Pipeline) runExtraction(ctx context.Context, transcript *transcripts.Transcript) (*audio.Waveform, error) {
	ctx = services.WithStage(ctx, "extracting")
	if err := p.advance(ctx, transcript, transcripts.StatusExtracting); err != nil {
		return nil, err
	}

	probeResult, err := p.probe(ctx, p.cfg.FFprobeBinary(), transcript.SourcePath)
	if err != nil {
		return nil, err
	}
	if err := media.ValidateProbe(p.cfg, probeResult); err != nil {
		return nil, err
	}

	waveform, err := p.extract(ctx, transcript.SourcePath)
	if err != nil {
		return nil, err
	}
	waveform.NormalizeRMS(p.cfg.Audio.NormalizeDBFS)

	transcript.DurationSeconds = waveform.Seconds()
	if math.IsNaN(transcript.DurationSeconds) {
		transcript.DurationSeconds = 0
	}
	return waveform, nil
}

func (p *Pipeline) runTranscription(ctx context.Context, transcript *transcripts.Transcript, waveform *audio.Waveform) (asr.Result, error) {
	ctx = services.WithStage(ctx, "transcribing")
	transcript.ChunkCount = len(waveform.Split(p.cfg.Audio.ChunkSeconds))
	transcript.ChunksDone = 0
	if err := p.advance(ctx, transcript, transcripts.StatusTranscribing); err != nil {
		return asr.Result{}, err
	}

	chunkTimeout := time.Duration(p.cfg.Engine.TimeoutSeconds) * time.Second
	transcriber := asr.NewTranscriber(p.engine, p.cfg.Audio.ChunkSeconds, chunkTimeout, p.logger)
	transcriber.OnChunk(func(done, total int) {
		transcript.ChunksDone = done
		if err := p.store.Update(ctx, transcript); err != nil {
			p.logger.Warn("progress update failed",
				logging.String(logging.FieldToken, transcript.Token),
				logging.Error(err))
		}
	})

	return transcriber.Transcribe(ctx, waveform)
}

func (p *Pipeline) runPostprocess(ctx context.Context, transcript *transcripts.Transcript, result asr.Result) error {
	ctx = services.WithStage(ctx, "postprocessing")
	transcript.RawText = result.Text
	if err := p.advance(ctx, transcript, transcripts.StatusPostprocessing); err != nil {
		return err
	}
	transcript.FinalText = postprocess.Process(result.Text, postprocess.DefaultOptions())
	return nil
}

func (p *Pipeline) advance(ctx context.Context, transcript *transcripts.Transcript, status transcripts.Status) error {
	transcript.Status = status
	if err := p.store.Update(ctx, transcript); err != nil {
		return fmt.Errorf("advance to %s: %w", status, err)
	}
	p.logger.Debug("stage started",
		logging.String(logging.FieldToken, transcript.Token),
		logging.String(logging.FieldStage, string(status)))
	return nil
}

func (p *Pipeline) fail(ctx context.Context, transcript *transcripts.Transcript, stage string, cause error) (*transcripts.Transcript, error) {
	transcript.Status = transcripts.StatusFailed
	transcript.ErrorMessage = cause.Error()
	if err := p.store.Update(ctx, transcript); err != nil {
		p.logger.Error("failure update failed",
			logging.String(logging.FieldToken, transcript.Token),
			logging.Error(err))
	}
	p.cleanupSource(transcript)

	p.logger.Error("transcription failed",
		logging.String(logging.FieldToken, transcript.Token),
		logging.String(logging.FieldStage, stage),
		logging.Error(cause))
	if err := p.notifier.NotifyError(ctx, cause, transcript.Filename); err != nil {
		p.logger.Warn("error notification failed", logging.Error(err))
	}
	return transcript, fmt.Errorf("%s: %w", stage, cause)
}

// cleanupSource removes uploaded copies once processing ends. Files submitted
// by path live outside the upload directory and are left alone.
func (p *Pipeline) cleanupSource(transcript *transcripts.Transcript) {
	if transcript.SourcePath == "" {
		return
	}
	if !strings.HasPrefix(transcript.SourcePath, p.uploadDir+string(filepath.Separator)) {
		return
	}
	if err := os.Remove(transcript.SourcePath); err != nil && !os.IsNotExist(err) {
		p.logger.Warn("upload cleanup failed",
			logging.String("path", transcript.SourcePath),
			logging.Error(err))
	}
}

func (p *Pipeline) saveUpload(dest string, reader io.Reader) (int64, error) {
	file, err := os.OpenFile(dest, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return 0, fmt.Errorf("create upload file: %w", err)
	}

	written, err := io.Copy(file, reader)
	if closeErr := file.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		_ = os.Remove(dest)
		return 0, fmt.Errorf("save upload: %w", err)
	}
	return written, nil
}

func (p *Pipeline) engineLabel() string {
	return p.cfg.Engine.Kind + "/" + p.cfg.Engine.Model
}
