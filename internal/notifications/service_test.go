package notifications

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"vietscribe/internal/testsupport"
)

type recordedRequest struct {
	title    string
	tags     string
	priority string
	body     string
}

func newRecordingServer(t *testing.T, requests *[]recordedRequest) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(r.Body)
		if err != nil {
			t.Errorf("read body: %v", err)
		}
		*requests = append(*requests, recordedRequest{
			title:    r.Header.Get("Title"),
			tags:     r.Header.Get("Tags"),
			priority: r.Header.Get("Priority"),
			body:     string(body),
		})
		w.WriteHeader(http.StatusOK)
	}))
}

func TestNewServiceWithoutTopicIsNoop(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Notifications.NtfyTopic = ""

	service := NewService(cfg)
	if _, ok := service.(noopService); !ok {
		t.Fatalf("expected noop service, got %T", service)
	}
	if err := service.NotifyServerStarted(context.Background(), "127.0.0.1:8571"); err != nil {
		t.Fatalf("noop notify: %v", err)
	}
}

func TestNotifyTranscriptionCompleted(t *testing.T) {
	var requests []recordedRequest
	server := newRecordingServer(t, &requests)
	defer server.Close()

	cfg := testsupport.NewConfig(t)
	cfg.Notifications.NtfyTopic = server.URL
	cfg.Notifications.Completed = true

	service := NewService(cfg)
	err := service.NotifyTranscriptionCompleted(context.Background(), "lecture.mp4", 4, 95*time.Second)
	if err != nil {
		t.Fatalf("notify completed: %v", err)
	}

	if len(requests) != 1 {
		t.Fatalf("expected 1 request, got %d", len(requests))
	}
	got := requests[0]
	if got.title != "Vietscribe - Transcript Ready" {
		t.Errorf("unexpected title: %q", got.title)
	}
	if !strings.Contains(got.body, "lecture.mp4") || !strings.Contains(got.body, "4 chunks") {
		t.Errorf("unexpected message: %q", got.body)
	}
	if got.priority != "high" {
		t.Errorf("unexpected priority: %q", got.priority)
	}
}

func TestNotifyCompletedRespectsToggle(t *testing.T) {
	var requests []recordedRequest
	server := newRecordingServer(t, &requests)
	defer server.Close()

	cfg := testsupport.NewConfig(t)
	cfg.Notifications.NtfyTopic = server.URL
	cfg.Notifications.Completed = false

	service := NewService(cfg)
	if err := service.NotifyTranscriptionCompleted(context.Background(), "lecture.mp4", 2, time.Minute); err != nil {
		t.Fatalf("notify completed: %v", err)
	}
	if len(requests) != 0 {
		t.Fatalf("expected suppressed notification, got %d requests", len(requests))
	}
}

func TestNotifyError(t *testing.T) {
	var requests []recordedRequest
	server := newRecordingServer(t, &requests)
	defer server.Close()

	cfg := testsupport.NewConfig(t)
	cfg.Notifications.NtfyTopic = server.URL
	cfg.Notifications.Errors = true

	service := NewService(cfg)
	err := service.NotifyError(context.Background(), errors.New("ffmpeg exited with status 1"), "lecture.mp4")
	if err != nil {
		t.Fatalf("notify error: %v", err)
	}

	if len(requests) != 1 {
		t.Fatalf("expected 1 request, got %d", len(requests))
	}
	got := requests[0]
	if !strings.Contains(got.body, "lecture.mp4") || !strings.Contains(got.body, "ffmpeg exited") {
		t.Errorf("unexpected message: %q", got.body)
	}
	if !strings.Contains(got.tags, "error") {
		t.Errorf("unexpected tags: %q", got.tags)
	}
}

func TestSendReportsServerFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "topic rejected", http.StatusForbidden)
	}))
	defer server.Close()

	cfg := testsupport.NewConfig(t)
	cfg.Notifications.NtfyTopic = server.URL

	service := NewService(cfg)
	err := service.TestNotification(context.Background())
	if err == nil {
		t.Fatal("expected error from rejected notification")
	}
	if !strings.Contains(err.Error(), "403") {
		t.Errorf("expected status in error, got %v", err)
	}
}
