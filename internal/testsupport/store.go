package testsupport

import (
	"context"
	"testing"

	"vietscribe/internal/config"
	"vietscribe/internal/transcripts"
)

// MustOpenStore opens a transcripts.Store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *transcripts.Store {
	t.Helper()

	store, err := transcripts.Open(cfg)
	if err != nil {
		t.Fatalf("transcripts.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

// NewTranscript creates a pending transcript for tests using the provided store.
func NewTranscript(t testing.TB, store *transcripts.Store, token, filename string) *transcripts.Transcript {
	t.Helper()

	transcript, err := store.Create(context.Background(), token, filename, "", "whisperx/large-v3", "vi")
	if err != nil {
		t.Fatalf("store.Create: %v", err)
	}
	return transcript
}
