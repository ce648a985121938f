// Package engine abstracts the speech recognition backend used by the
// transcription pipeline and manages model loading and selection.
package engine

import "context"

// Model sizes accepted by the recognition backend.
const (
	ModelTiny   = "tiny"
	ModelBase   = "base"
	ModelSmall  = "small"
	ModelMedium = "medium"
	ModelLarge  = "large"
)

var modelSizes = map[string]bool{
	ModelTiny:   true,
	ModelBase:   true,
	ModelSmall:  true,
	ModelMedium: true,
	ModelLarge:  true,
}

// IsValidModelSize reports whether size names a supported model.
func IsValidModelSize(size string) bool {
	return modelSizes[size]
}

// Options controls a single recognition call.
type Options struct {
	Language       string
	Prompt         string
	WordTimestamps bool
}

// Word is a single recognized word with timing relative to the input audio.
type Word struct {
	Text  string  `json:"word"`
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

// Segment is a recognized span of speech relative to the input audio.
type Segment struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
	Words []Word  `json:"words,omitempty"`
}

// Result is the outcome of one recognition call.
type Result struct {
	Language string    `json:"language"`
	Duration float64   `json:"duration"`
	Segments []Segment `json:"segments"`
}

// Engine performs speech recognition on an audio file.
type Engine interface {
	Recognize(ctx context.Context, audioPath string, opts Options) (*Result, error)
	ModelSize() string
	Device() string
}
