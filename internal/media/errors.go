package media

import "errors"

var (
	// ErrUnsupportedFormat indicates the upload's file extension is not allowed.
	ErrUnsupportedFormat = errors.New("unsupported media format")
	// ErrFileTooLarge indicates the upload exceeds the configured size cap.
	ErrFileTooLarge = errors.New("file too large")
	// ErrDurationExceeded indicates the media runs longer than the configured cap.
	ErrDurationExceeded = errors.New("media duration exceeds limit")
	// ErrNoAudioStream indicates the container carries no audio to transcribe.
	ErrNoAudioStream = errors.New("no audio stream")
	// ErrCorruptMedia indicates ffprobe or ffmpeg could not read the container.
	ErrCorruptMedia = errors.New("unreadable media")
)
