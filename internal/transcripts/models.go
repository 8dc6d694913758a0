package transcripts

import "time"

// Status represents the lifecycle of a transcription request.
type Status string

const (
	StatusPending        Status = "pending"
	StatusExtracting     Status = "extracting"
	StatusTranscribing   Status = "transcribing"
	StatusPostprocessing Status = "postprocessing"
	StatusCompleted      Status = "completed"
	StatusFailed         Status = "failed"
)

var allStatuses = []Status{
	StatusPending,
	StatusExtracting,
	StatusTranscribing,
	StatusPostprocessing,
	StatusCompleted,
	StatusFailed,
}

var statusSet = func() map[Status]struct{} {
	set := make(map[Status]struct{}, len(allStatuses))
	for _, status := range allStatuses {
		set[status] = struct{}{}
	}
	return set
}()

// ValidStatus reports whether the value is a known lifecycle status.
func ValidStatus(status Status) bool {
	_, ok := statusSet[status]
	return ok
}

// Processing reports whether the status describes in-flight work.
func (s Status) Processing() bool {
	switch s {
	case StatusExtracting, StatusTranscribing, StatusPostprocessing:
		return true
	default:
		return false
	}
}

// Terminal reports whether the status is an end state.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// Transcript represents a transcription request persisted in SQLite.
type Transcript struct {
	ID              int64
	Token           string
	Filename        string
	SourcePath      string
	Status          Status
	Engine          string
	Language        string
	DurationSeconds float64
	ChunkCount      int
	ChunksDone      int
	RawText         string
	FinalText       string
	ErrorMessage    string
	CreatedAt       time.Time
	UpdatedAt       time.Time
	CompletedAt     *time.Time
}

// Summary aggregates request counts per key lifecycle states.
type Summary struct {
	Total      int
	Pending    int
	Processing int
	Completed  int
	Failed     int
}
