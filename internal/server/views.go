package server

import (
	"time"

	"vietscribe/internal/config"
	"vietscribe/internal/preflight"
	"vietscribe/internal/transcripts"
)

type transcriptView struct {
	Token           string     `json:"token"`
	Filename        string     `json:"filename"`
	Status          string     `json:"status"`
	Engine          string     `json:"engine,omitempty"`
	Language        string     `json:"language,omitempty"`
	DurationSeconds float64    `json:"duration_seconds,omitempty"`
	ChunkCount      int        `json:"chunk_count"`
	ChunksDone      int        `json:"chunks_done"`
	Text            string     `json:"text,omitempty"`
	Error           string     `json:"error,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
	CompletedAt     *time.Time `json:"completed_at,omitempty"`
}

func newTranscriptView(t *transcripts.Transcript) transcriptView {
	view := transcriptView{
		Token:           t.Token,
		Filename:        t.Filename,
		Status:          string(t.Status),
		Engine:          t.Engine,
		Language:        t.Language,
		DurationSeconds: t.DurationSeconds,
		ChunkCount:      t.ChunkCount,
		ChunksDone:      t.ChunksDone,
		Error:           t.ErrorMessage,
		CreatedAt:       t.CreatedAt,
		UpdatedAt:       t.UpdatedAt,
		CompletedAt:     t.CompletedAt,
	}
	if t.Status == transcripts.StatusCompleted {
		view.Text = t.FinalText
	}
	return view
}

type transcriptResponse struct {
	Transcript transcriptView `json:"transcript"`
}

type listResponse struct {
	Transcripts []transcriptView `json:"transcripts"`
}

type dependencyView struct {
	Name      string `json:"name"`
	Command   string `json:"command"`
	Available bool   `json:"available"`
	Detail    string `json:"detail,omitempty"`
}

type summaryView struct {
	Total      int `json:"total"`
	Pending    int `json:"pending"`
	Processing int `json:"processing"`
	Completed  int `json:"completed"`
	Failed     int `json:"failed"`
}

type statusResponse struct {
	Engine       string           `json:"engine"`
	Language     string           `json:"language"`
	Summary      summaryView      `json:"summary"`
	Dependencies []dependencyView `json:"dependencies"`
}

func newStatusResponse(cfg *config.Config, summary transcripts.Summary) statusResponse {
	statuses := preflight.CheckSystemDeps(cfg)
	deps := make([]dependencyView, 0, len(statuses))
	for _, status := range statuses {
		deps = append(deps, dependencyView{
			Name:      status.Name,
			Command:   status.Command,
			Available: status.Available,
			Detail:    status.Detail,
		})
	}
	return statusResponse{
		Engine:   cfg.Engine.Kind + "/" + cfg.Engine.Model,
		Language: cfg.Engine.Language,
		Summary: summaryView{
			Total:      summary.Total,
			Pending:    summary.Pending,
			Processing: summary.Processing,
			Completed:  summary.Completed,
			Failed:     summary.Failed,
		},
		Dependencies: deps,
	}
}
