package server

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"vietscribe/internal/audio"
	"vietscribe/internal/config"
	"vietscribe/internal/logging"
	"vietscribe/internal/media"
	"vietscribe/internal/pipeline"
	"vietscribe/internal/testsupport"
	"vietscribe/internal/transcripts"
)

type staticEngine struct {
	text string
}

func (e staticEngine) Name() string { return "static" }

func (e staticEngine) Transcribe(context.Context, *audio.Waveform) (string, error) {
	return e.text, nil
}

type fixture struct {
	cfg    *config.Config
	store  *transcripts.Store
	server *Server
	http   *httptest.Server
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	cfg := testsupport.NewConfig(t)
	cfg.Audio.ChunkSeconds = 1
	store := testsupport.MustOpenStore(t, cfg)

	p, err := pipeline.New(cfg, store, nil, logging.NewNop())
	if err != nil {
		t.Fatalf("pipeline.New: %v", err)
	}
	p.WithEngine(staticEngine{text: "xin chào các bạn"})
	p.WithProbe(func(context.Context, string, string) (media.ProbeResult, error) {
		return media.ProbeResult{
			Streams: []media.Stream{{CodecType: "audio"}},
			Format:  media.Format{Duration: "2"},
		}, nil
	})
	p.WithExtract(func(context.Context, string) (*audio.Waveform, error) {
		samples := make([]float32, cfg.Audio.SampleRate*2)
		for i := range samples {
			samples[i] = 0.1
		}
		return audio.NewWaveform(samples, cfg.Audio.SampleRate)
	})

	srv, err := New(cfg, store, p, nil, logging.NewNop())
	if err != nil {
		t.Fatalf("server.New: %v", err)
	}

	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return &fixture{cfg: cfg, store: store, server: srv, http: ts}
}

func uploadRequest(t *testing.T, url, filename string, payload []byte) *http.Response {
	t.Helper()

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		t.Fatalf("CreateFormFile: %v", err)
	}
	if _, err := part.Write(payload); err != nil {
		t.Fatalf("write part: %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}

	resp, err := http.Post(url+"/api/transcriptions", writer.FormDataContentType(), &body)
	if err != nil {
		t.Fatalf("POST upload: %v", err)
	}
	return resp
}

func decodeTranscript(t *testing.T, resp *http.Response) transcriptView {
	t.Helper()
	defer resp.Body.Close()

	var payload transcriptResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		t.Fatalf("decode transcript: %v", err)
	}
	return payload.Transcript
}

func waitForTerminal(t *testing.T, f *fixture, token string) *transcripts.Transcript {
	t.Helper()

	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		transcript, err := f.store.GetByToken(context.Background(), token)
		if err != nil {
			t.Fatalf("GetByToken: %v", err)
		}
		if transcript != nil && transcript.Status.Terminal() {
			return transcript
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Fatal("transcript never reached a terminal state")
	return nil
}

func TestUploadProcessAndDownload(t *testing.T) {
	f := newFixture(t)

	resp := uploadRequest(t, f.http.URL, "lecture.mp4", []byte("container bytes"))
	if resp.StatusCode != http.StatusAccepted {
		t.Fatalf("expected 202, got %d", resp.StatusCode)
	}
	accepted := decodeTranscript(t, resp)
	if accepted.Token == "" || accepted.Status != string(transcripts.StatusPending) {
		t.Fatalf("unexpected accepted payload: %+v", accepted)
	}

	final := waitForTerminal(t, f, accepted.Token)
	if final.Status != transcripts.StatusCompleted {
		t.Fatalf("expected completed, got %s (%s)", final.Status, final.ErrorMessage)
	}

	getResp, err := http.Get(f.http.URL + "/api/transcriptions/" + accepted.Token)
	if err != nil {
		t.Fatalf("GET transcript: %v", err)
	}
	view := decodeTranscript(t, getResp)
	if view.Text != "Xin chào các bạn xin chào các bạn." {
		t.Errorf("unexpected transcript text: %q", view.Text)
	}
	if view.ChunksDone != view.ChunkCount || view.ChunkCount != 2 {
		t.Errorf("unexpected chunk progress: %d/%d", view.ChunksDone, view.ChunkCount)
	}

	dlResp, err := http.Get(f.http.URL + "/api/transcriptions/" + accepted.Token + "/download")
	if err != nil {
		t.Fatalf("GET download: %v", err)
	}
	defer dlResp.Body.Close()
	if dlResp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 download, got %d", dlResp.StatusCode)
	}
	if got := dlResp.Header.Get("Content-Disposition"); !strings.Contains(got, `"lecture.txt"`) {
		t.Errorf("unexpected disposition: %q", got)
	}
	var text bytes.Buffer
	if _, err := text.ReadFrom(dlResp.Body); err != nil {
		t.Fatalf("read download: %v", err)
	}
	if strings.TrimSpace(text.String()) != "Xin chào các bạn xin chào các bạn." {
		t.Errorf("unexpected download body: %q", text.String())
	}
}

func TestUploadRejectsUnsupportedExtension(t *testing.T) {
	f := newFixture(t)

	resp := uploadRequest(t, f.http.URL, "notes.txt", []byte("plain text"))
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

func TestUploadRequiresFileField(t *testing.T) {
	f := newFixture(t)

	resp, err := http.Post(f.http.URL+"/api/transcriptions", "multipart/form-data; boundary=x", strings.NewReader("--x--\r\n"))
	if err != nil {
		t.Fatalf("POST: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

func TestListFiltersByStatus(t *testing.T) {
	f := newFixture(t)

	testsupport.NewTranscript(t, f.store, "tok-pending", "a.mp4")
	done := testsupport.NewTranscript(t, f.store, "tok-done", "b.mp4")
	done.Status = transcripts.StatusCompleted
	if err := f.store.Update(context.Background(), done); err != nil {
		t.Fatalf("Update: %v", err)
	}

	resp, err := http.Get(f.http.URL + "/api/transcriptions?status=completed")
	if err != nil {
		t.Fatalf("GET list: %v", err)
	}
	defer resp.Body.Close()

	var payload listResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if len(payload.Transcripts) != 1 || payload.Transcripts[0].Token != "tok-done" {
		t.Fatalf("unexpected filtered list: %+v", payload.Transcripts)
	}

	bad, err := http.Get(f.http.URL + "/api/transcriptions?status=bogus")
	if err != nil {
		t.Fatalf("GET list: %v", err)
	}
	defer bad.Body.Close()
	if bad.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown status, got %d", bad.StatusCode)
	}
}

func TestItemNotFound(t *testing.T) {
	f := newFixture(t)

	resp, err := http.Get(f.http.URL + "/api/transcriptions/no-such-token")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
}

func TestDownloadBeforeCompletionConflicts(t *testing.T) {
	f := newFixture(t)
	testsupport.NewTranscript(t, f.store, "tok-1", "pending.mp4")

	resp, err := http.Get(f.http.URL + "/api/transcriptions/tok-1/download")
	if err != nil {
		t.Fatalf("GET download: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("expected 409, got %d", resp.StatusCode)
	}
}

func TestRemoveTranscript(t *testing.T) {
	f := newFixture(t)

	busy := testsupport.NewTranscript(t, f.store, "tok-busy", "busy.mp4")
	busy.Status = transcripts.StatusTranscribing
	if err := f.store.Update(context.Background(), busy); err != nil {
		t.Fatalf("Update: %v", err)
	}

	req, err := http.NewRequest(http.MethodDelete, f.http.URL+"/api/transcriptions/tok-busy", nil)
	if err != nil {
		t.Fatalf("NewRequest: %v", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("DELETE: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("expected 409 for in-flight transcript, got %d", resp.StatusCode)
	}

	testsupport.NewTranscript(t, f.store, "tok-gone", "gone.mp4")
	req, err = http.NewRequest(http.MethodDelete, f.http.URL+"/api/transcriptions/tok-gone", nil)
	if err != nil {
		t.Fatalf("NewRequest: %v", err)
	}
	resp, err = http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("DELETE: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	stored, err := f.store.GetByToken(context.Background(), "tok-gone")
	if err != nil {
		t.Fatalf("GetByToken: %v", err)
	}
	if stored != nil {
		t.Fatal("expected transcript removed")
	}
}

func TestStatusEndpoint(t *testing.T) {
	f := newFixture(t)
	testsupport.NewTranscript(t, f.store, "tok-1", "a.mp4")

	resp, err := http.Get(f.http.URL + "/api/status")
	if err != nil {
		t.Fatalf("GET status: %v", err)
	}
	defer resp.Body.Close()

	var payload statusResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		t.Fatalf("decode status: %v", err)
	}
	if payload.Engine != "whisperx/large-v3" {
		t.Errorf("unexpected engine: %q", payload.Engine)
	}
	if payload.Summary.Total != 1 || payload.Summary.Pending != 1 {
		t.Errorf("unexpected summary: %+v", payload.Summary)
	}
	if len(payload.Dependencies) == 0 {
		t.Error("expected dependency statuses")
	}
}

func TestIndexPage(t *testing.T) {
	f := newFixture(t)

	resp, err := http.Get(f.http.URL + "/")
	if err != nil {
		t.Fatalf("GET index: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if got := resp.Header.Get("Content-Type"); !strings.HasPrefix(got, "text/html") {
		t.Errorf("unexpected content type: %q", got)
	}

	var body bytes.Buffer
	if _, err := body.ReadFrom(resp.Body); err != nil {
		t.Fatalf("read body: %v", err)
	}
	if !strings.Contains(body.String(), "upload-form") {
		t.Error("expected upload form markup")
	}
}

func TestMethodNotAllowed(t *testing.T) {
	f := newFixture(t)

	req, err := http.NewRequest(http.MethodPut, f.http.URL+"/api/transcriptions", nil)
	if err != nil {
		t.Fatalf("NewRequest: %v", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("PUT: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", resp.StatusCode)
	}
}

func TestServerStartStop(t *testing.T) {
	f := newFixture(t)

	if err := f.server.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer f.server.Stop()

	if f.server.Addr() == "" {
		t.Fatal("expected bound address after Start")
	}

	resp, err := http.Get("http://" + f.server.Addr() + "/api/status")
	if err != nil {
		t.Fatalf("GET over listener: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	second, err := New(f.cfg, f.store, mustPipeline(t, f), nil, logging.NewNop())
	if err != nil {
		t.Fatalf("server.New: %v", err)
	}
	if err := second.Start(context.Background()); err == nil {
		second.Stop()
		t.Fatal("expected second instance to fail the lock")
	}
}

func mustPipeline(t *testing.T, f *fixture) *pipeline.Pipeline {
	t.Helper()
	p, err := pipeline.New(f.cfg, f.store, nil, logging.NewNop())
	if err != nil {
		t.Fatalf("pipeline.New: %v", err)
	}
	return p
}
