package transcripts

import (
	"database/sql"
	"errors"
	"time"
)

const transcriptColumns = "id, token, filename, source_path, status, engine, language, duration_seconds, chunk_count, chunks_done, raw_text, final_text, error_message, created_at, updated_at, completed_at"

func scanTranscript(scanner interface{ Scan(dest ...any) error }) (*Transcript, error) {
	var (
		id           int64
		token        string
		filename     string
		sourcePath   sql.NullString
		statusStr    string
		engine       sql.NullString
		language     sql.NullString
		duration     sql.NullFloat64
		chunkCount   sql.NullInt64
		chunksDone   sql.NullInt64
		rawText      sql.NullString
		finalText    sql.NullString
		errorMessage sql.NullString
		createdRaw   sql.NullString
		updatedRaw   sql.NullString
		completedRaw sql.NullString
	)

	if err := scanner.Scan(
		&id,
		&token,
		&filename,
		&sourcePath,
		&statusStr,
		&engine,
		&language,
		&duration,
		&chunkCount,
		&chunksDone,
		&rawText,
		&finalText,
		&errorMessage,
		&createdRaw,
		&updatedRaw,
		&completedRaw,
	); err != nil {
		return nil, err
	}

	transcript := &Transcript{
		ID:              id,
		Token:           token,
		Filename:        filename,
		SourcePath:      sourcePath.String,
		Status:          Status(statusStr),
		Engine:          engine.String,
		Language:        language.String,
		DurationSeconds: duration.Float64,
		ChunkCount:      int(chunkCount.Int64),
		ChunksDone:      int(chunksDone.Int64),
		RawText:         rawText.String,
		FinalText:       finalText.String,
		ErrorMessage:    errorMessage.String,
	}

	if created, err := parseTimeString(createdRaw.String); err == nil {
		transcript.CreatedAt = created
	}
	if updated, err := parseTimeString(updatedRaw.String); err == nil {
		transcript.UpdatedAt = updated
	}
	if completedRaw.Valid {
		if completed, err := parseTimeString(completedRaw.String); err == nil {
			transcript.CompletedAt = &completed
		}
	}
	return transcript, nil
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func nullableTime(value *time.Time) any {
	if value == nil {
		return nil
	}
	return value.UTC().Format(time.RFC3339Nano)
}

func parseTimeString(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, errors.New("empty")
	}
	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02 15:04:05", value)
}

func makePlaceholders(count int) string {
	if count <= 0 {
		return ""
	}
	placeholders := make([]byte, 0, count*2)
	for i := 0; i < count; i++ {
		if i > 0 {
			placeholders = append(placeholders, ',')
		}
		placeholders = append(placeholders, '?')
	}
	return string(placeholders)
}
