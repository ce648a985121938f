package entities

import "errors"

// Domain errors
var (
	// Pipeline errors
	ErrInvalidDuration      = errors.New("audio duration must not be negative")
	ErrInvalidConfiguration = errors.New("invalid job configuration")
	ErrEmptyTranscript      = errors.New("transcription produced no segments")

	// Job errors
	ErrJobNotFound     = errors.New("job not found")
	ErrJobNotCompleted = errors.New("job not completed")

	// Transcript errors
	ErrTranscriptNotFound = errors.New("transcript not found")

	// Attribution errors
	ErrMalformedVoiceWindow = errors.New("voice window end precedes start")

	// Generic errors
	ErrInvalidRequest = errors.New("invalid request")
)
