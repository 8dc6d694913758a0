package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"strings"

	"vietscribe/internal/logging"
	"vietscribe/internal/services"
	"vietscribe/internal/textutil"
	"vietscribe/internal/transcripts"
)

// multipart form fields and headers beyond the file payload stay small, so a
// single megabyte of slack over the configured cap is plenty.
const uploadBodySlack = 1 << 20

func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleIndex)
	mux.HandleFunc("/api/transcriptions", s.handleTranscriptions)
	mux.HandleFunc("/api/transcriptions/", s.handleTranscriptionItem)
	mux.HandleFunc("/api/status", s.handleStatus)
	return mux
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(indexPage)
}

func (s *Server) handleTranscriptions(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		s.handleUpload(w, r)
	case http.MethodGet:
		s.handleList(w, r)
	default:
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes()+uploadBodySlack)

	file, header, err := r.FormFile("file")
	if err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			s.writeError(w, http.StatusRequestEntityTooLarge,
				fmt.Sprintf("upload exceeds %d MB limit", s.cfg.Limits.MaxUploadMB))
			return
		}
		s.writeError(w, http.StatusBadRequest, "multipart field \"file\" is required")
		return
	}
	defer file.Close()

	transcript, err := s.pipeline.SubmitUpload(r.Context(), header.Filename, file, header.Size)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}

	s.processAsync(transcript.Token)
	s.writeJSON(w, http.StatusAccepted, transcriptResponse{Transcript: newTranscriptView(transcript)})
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	var statuses []transcripts.Status
	for _, value := range r.URL.Query()["status"] {
		trimmed := strings.TrimSpace(value)
		if trimmed == "" {
			continue
		}
		status := transcripts.Status(trimmed)
		if !transcripts.ValidStatus(status) {
			s.writeError(w, http.StatusBadRequest, fmt.Sprintf("unknown status %q", trimmed))
			return
		}
		statuses = append(statuses, status)
	}

	items, err := s.store.List(r.Context(), statuses...)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}

	views := make([]transcriptView, 0, len(items))
	for _, item := range items {
		views = append(views, newTranscriptView(item))
	}
	s.writeJSON(w, http.StatusOK, listResponse{Transcripts: views})
}

func (s *Server) handleTranscriptionItem(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/api/transcriptions/")
	token, action, _ := strings.Cut(rest, "/")
	if token == "" || strings.Contains(action, "/") {
		http.NotFound(w, r)
		return
	}

	switch {
	case action == "" && r.Method == http.MethodGet:
		s.handleGet(w, r, token)
	case action == "" && r.Method == http.MethodDelete:
		s.handleRemove(w, r, token)
	case action == "download" && r.Method == http.MethodGet:
		s.handleDownload(w, r, token)
	case action == "" || action == "download":
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	default:
		http.NotFound(w, r)
	}
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request, token string) {
	transcript, err := s.loadTranscript(w, r, token)
	if transcript == nil || err != nil {
		return
	}
	s.writeJSON(w, http.StatusOK, transcriptResponse{Transcript: newTranscriptView(transcript)})
}

func (s *Server) handleRemove(w http.ResponseWriter, r *http.Request, token string) {
	transcript, err := s.loadTranscript(w, r, token)
	if transcript == nil || err != nil {
		return
	}
	if transcript.Status.Processing() {
		s.writeError(w, http.StatusConflict, "transcript is still processing")
		return
	}
	if _, err := s.store.Remove(r.Context(), token); err != nil {
		s.writeServiceError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"removed": token})
}

func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request, token string) {
	transcript, err := s.loadTranscript(w, r, token)
	if transcript == nil || err != nil {
		return
	}
	if transcript.Status != transcripts.StatusCompleted {
		s.writeError(w, http.StatusConflict,
			fmt.Sprintf("transcript is %s, not completed", transcript.Status))
		return
	}

	format := strings.ToLower(strings.TrimSpace(r.URL.Query().Get("format")))
	switch format {
	case "", "text":
		s.serveTextDownload(w, transcript)
	case "json":
		s.writeJSON(w, http.StatusOK, transcriptResponse{Transcript: newTranscriptView(transcript)})
	default:
		s.writeError(w, http.StatusBadRequest, fmt.Sprintf("unknown format %q", format))
	}
}

func (s *Server) serveTextDownload(w http.ResponseWriter, transcript *transcripts.Transcript) {
	base := strings.TrimSuffix(transcript.Filename, filepath.Ext(transcript.Filename))
	name := textutil.SanitizeFileName(base)
	if name == "" {
		name = transcript.Token
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name+".txt"))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(transcript.FinalText + "\n"))
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	summary, err := s.store.Summarize(r.Context())
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, newStatusResponse(s.cfg, summary))
}

// loadTranscript fetches by token and writes the error response itself when
// the transcript cannot be returned. A nil transcript with nil error means a
// response has already been written.
func (s *Server) loadTranscript(w http.ResponseWriter, r *http.Request, token string) (*transcripts.Transcript, error) {
	transcript, err := s.store.GetByToken(r.Context(), token)
	if err != nil {
		s.writeServiceError(w, err)
		return nil, err
	}
	if transcript == nil {
		s.writeError(w, http.StatusNotFound, fmt.Sprintf("unknown transcript %q", token))
		return nil, nil
	}
	return transcript, nil
}

func (s *Server) writeServiceError(w http.ResponseWriter, err error) {
	s.writeError(w, services.HTTPStatus(err), err.Error())
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Error("failed to encode response", logging.Error(err))
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, map[string]string{"error": message})
}
