package asr

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strings"

	"vietscribe/internal/audio"
	"vietscribe/internal/config"
	"vietscribe/internal/logging"
	"vietscribe/internal/services"
)

// APIEngine sends audio chunks to an OpenAI-compatible transcription endpoint.
type APIEngine struct {
	cfg        config.Engine
	logger     *slog.Logger
	httpClient *http.Client
}

// NewAPIEngine creates a remote transcription engine.
func NewAPIEngine(cfg config.Engine, logger *slog.Logger) *APIEngine {
	return &APIEngine{
		cfg:        cfg,
		logger:     logging.NewComponentLogger(logger, "asr-api"),
		httpClient: &http.Client{},
	}
}

// WithHTTPClient sets a custom HTTP client (for testing).
func (e *APIEngine) WithHTTPClient(client *http.Client) {
	if client != nil {
		e.httpClient = client
	}
}

// Name identifies the engine.
func (e *APIEngine) Name() string {
	return "api/" + e.cfg.Model
}

type transcriptionResponse struct {
	Text string `json:"text"`
}

// Transcribe uploads the chunk as a WAV attachment to the audio
// transcriptions endpoint and returns the recognized text.
func (e *APIEngine) Transcribe(ctx context.Context, chunk *audio.Waveform) (string, error) {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	if err := writer.WriteField("model", e.cfg.Model); err != nil {
		return "", fmt.Errorf("api transcribe: %w", err)
	}
	if e.cfg.Language != "" {
		if err := writer.WriteField("language", e.cfg.Language); err != nil {
			return "", fmt.Errorf("api transcribe: %w", err)
		}
	}
	part, err := writer.CreateFormFile("file", "chunk.wav")
	if err != nil {
		return "", fmt.Errorf("api transcribe: %w", err)
	}
	if err := audio.EncodeWAV(part, chunk); err != nil {
		return "", fmt.Errorf("api transcribe: encode wav: %w", err)
	}
	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("api transcribe: %w", err)
	}

	url := e.cfg.BaseURL + "/audio/transcriptions"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, &body)
	if err != nil {
		return "", fmt.Errorf("api transcribe: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+e.cfg.APIKey)
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return "", services.Wrap(services.ErrExternalTool, "transcribing", "api", "request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", services.Wrap(services.ErrExternalTool, "transcribing", "api",
			fmt.Sprintf("http %d: %s", resp.StatusCode, strings.TrimSpace(string(detail))), nil)
	}

	var payload transcriptionResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", services.Wrap(services.ErrExternalTool, "transcribing", "api", "decode response", err)
	}
	return payload.Text, nil
}
