package job

import (
	"time"

	"github.com/google/uuid"
)

// ProgressResponse is the live progress snapshot attached to a running job
type ProgressResponse struct {
	Stage             string  `json:"stage"`
	Fraction          float64 `json:"fraction"`
	CompletedSegments int     `json:"completed_segments"`
	TotalSegments     int     `json:"total_segments"`
	UpdatedAt         string  `json:"updated_at,omitempty"`
}

// JobResponse represents a transcription job in API responses
type JobResponse struct {
	ID           uuid.UUID  `json:"id"`
	ClassID      string     `json:"class_id"`
	Status       string     `json:"status"`
	ModelSize    string     `json:"model_size"`
	PrivacyMode  string     `json:"privacy_mode"`
	TranscriptID *uuid.UUID `json:"transcript_id,omitempty"`
	RetryCount   int        `json:"retry_count"`
	LastError    *string    `json:"last_error,omitempty"`

	DurationSeconds float64 `json:"duration_seconds,omitempty"`
	SubrangeCount   int     `json:"subrange_count,omitempty"`
	FailedSubranges int     `json:"failed_subranges,omitempty"`
	TurnCount       int     `json:"turn_count,omitempty"`

	Progress *ProgressResponse `json:"progress,omitempty"`

	CreatedAt   time.Time  `json:"created_at"`
	StartedAt   *time.Time `json:"started_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// CreateJobResponse wraps the job created by POST /jobs
type CreateJobResponse struct {
	Job JobResponse `json:"job"`
}

// ListJobsResponse wraps a job listing
type ListJobsResponse struct {
	Jobs []JobResponse `json:"jobs"`
}

// TurnResponse is one attributed speaker turn
type TurnResponse struct {
	Speaker string  `json:"speaker"`
	Start   float64 `json:"start"`
	End     float64 `json:"end"`
	Text    string  `json:"text"`
}

// SegmentResponse is one raw transcript segment
type SegmentResponse struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
}

// TranscriptResponse represents a completed transcript with its turns
type TranscriptResponse struct {
	ID                    uuid.UUID         `json:"id"`
	JobID                 uuid.UUID         `json:"job_id"`
	ClassID               string            `json:"class_id"`
	ModelSize             string            `json:"model_size"`
	Device                string            `json:"device"`
	ProcessingTimeSeconds float64           `json:"processing_time_seconds"`
	Turns                 []TurnResponse    `json:"turns"`
	Segments              []SegmentResponse `json:"segments,omitempty"`
	CreatedAt             time.Time         `json:"created_at"`
}

// ChatResponse is the answer to a transcript question
type ChatResponse struct {
	JobID  uuid.UUID `json:"job_id"`
	Answer string    `json:"answer"`
}
