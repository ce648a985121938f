package entities

import (
	"time"

	"github.com/google/uuid"
)

// WordToken represents a single word with global (offset-corrected) timing
type WordToken struct {
	Text  string  `json:"text"`
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

// Segment represents one utterance-level unit returned by the speech engine.
// Times are global: sub-range local timestamps are shifted by the sub-range
// start offset before a Segment is considered final.
type Segment struct {
	Start float64     `json:"start"`
	End   float64     `json:"end"`
	Text  string      `json:"text"`
	Words []WordToken `json:"words,omitempty"`
}

// Duration returns the segment length in seconds
func (s Segment) Duration() float64 {
	return s.End - s.Start
}

// Transcript is the canonical transcription artifact: all segments of one
// recording ordered by start time. Written once per job, never mutated after
// creation.
type Transcript struct {
	ID                    uuid.UUID `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	JobID                 uuid.UUID `json:"job_id" gorm:"type:uuid;not null;index"`
	ClassID               string    `json:"class_id" gorm:"type:varchar(64);index"`
	Segments              []Segment `json:"segments" gorm:"type:jsonb;serializer:json"`
	ModelSize             string    `json:"model_size" gorm:"type:varchar(20)"`
	Device                string    `json:"device" gorm:"type:varchar(20)"`
	ProcessingTimeSeconds float64   `json:"processing_time_seconds"`
	CreatedAt             time.Time `json:"created_at" gorm:"autoCreateTime"`
}

// TableName specifies the table name for GORM
func (Transcript) TableName() string {
	return "transcripts"
}

// NewTranscript creates a new transcript for a job
func NewTranscript(jobID uuid.UUID, classID string) *Transcript {
	return &Transcript{
		ID:        uuid.New(),
		JobID:     jobID,
		ClassID:   classID,
		CreatedAt: time.Now(),
	}
}

// TotalDuration returns the end time of the last segment, or zero when the
// transcript is empty
func (t *Transcript) TotalDuration() float64 {
	if len(t.Segments) == 0 {
		return 0
	}
	return t.Segments[len(t.Segments)-1].End
}
