package entities

import (
	"database/sql/driver"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// JobStatus represents the status of a transcription job
type JobStatus string

const (
	JobStatusPending      JobStatus = "pending"      // Waiting to be claimed by a worker
	JobStatusTranscribing JobStatus = "transcribing" // Pipeline running
	JobStatusAttributing  JobStatus = "attributing"  // Transcript done, speaker attribution running
	JobStatusCompleted    JobStatus = "completed"    // All processing done
	JobStatusFailed       JobStatus = "failed"       // Processing failed
	JobStatusRetrying     JobStatus = "retrying"     // Retrying after failure
)

// JobConfig are the caller-selectable knobs of one transcription run.
// Validated before any work starts.
type JobConfig struct {
	ModelSize             string `json:"model_size"`
	SegmentLengthSeconds  int    `json:"segment_length_seconds"`
	MaxWorkers            int    `json:"max_workers"`
	Parallel              bool   `json:"parallel"`
	WordLevelTimestamps   bool   `json:"word_level_timestamps"`
	PrivacyMode           string `json:"privacy_mode"`
	TargetQuality         string `json:"target_quality,omitempty"`
	LanguageHint          string `json:"language_hint,omitempty"`
}

// Scan implements sql.Scanner interface for GORM
func (c *JobConfig) Scan(value interface{}) error {
	bytes, ok := value.([]byte)
	if !ok {
		return nil
	}
	return json.Unmarshal(bytes, c)
}

// Value implements driver.Valuer interface for GORM
func (c JobConfig) Value() (driver.Value, error) {
	return json.Marshal(c)
}

// JobMetadata stores run statistics and session context for a job
type JobMetadata struct {
	DurationSeconds     float64 `json:"duration_seconds,omitempty"`
	SubrangeCount       int     `json:"subrange_count,omitempty"`
	FailedSubranges     int     `json:"failed_subranges,omitempty"`
	SkippedVoiceWindows int     `json:"skipped_voice_windows,omitempty"`
	TurnCount           int     `json:"turn_count,omitempty"`
	ProcessingTimeMs    int64   `json:"processing_time_ms,omitempty"`
}

// Scan implements sql.Scanner interface for GORM
func (m *JobMetadata) Scan(value interface{}) error {
	bytes, ok := value.([]byte)
	if !ok {
		return nil
	}
	return json.Unmarshal(bytes, m)
}

// Value implements driver.Valuer interface for GORM
func (m JobMetadata) Value() (driver.Value, error) {
	return json.Marshal(m)
}

// TranscriptionJob represents one end-to-end processing run for a recording
type TranscriptionJob struct {
	ID           uuid.UUID `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	ClassID      string    `json:"class_id" gorm:"type:varchar(64);not null;index"`
	RecordingURL string    `json:"recording_url" gorm:"type:text;not null"`
	Status       JobStatus `json:"status" gorm:"type:varchar(30);not null;index;default:'pending'"`
	Config       JobConfig `json:"config" gorm:"type:jsonb"`

	TranscriptID *uuid.UUID `json:"transcript_id,omitempty" gorm:"type:uuid;index"`

	// Session data fetched from Forum, kept with the job so reports can
	// be regenerated without another API round trip.
	Session *ClassSession `json:"session,omitempty" gorm:"type:jsonb;serializer:json"`

	// Processing details
	StartedAt   *time.Time `json:"started_at,omitempty" gorm:"type:timestamp"`
	CompletedAt *time.Time `json:"completed_at,omitempty" gorm:"type:timestamp"`
	RetryCount  int        `json:"retry_count" gorm:"type:integer;default:0"`
	MaxRetries  int        `json:"max_retries" gorm:"type:integer;default:3"`
	LastError   *string    `json:"last_error,omitempty" gorm:"type:text"`

	Metadata JobMetadata `json:"metadata,omitempty" gorm:"type:jsonb"`

	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

// TableName specifies the table name for GORM
func (TranscriptionJob) TableName() string {
	return "transcription_jobs"
}

// NewTranscriptionJob creates a new pending job
func NewTranscriptionJob(classID, recordingURL string, cfg JobConfig) *TranscriptionJob {
	return &TranscriptionJob{
		ID:           uuid.New(),
		ClassID:      classID,
		RecordingURL: recordingURL,
		Status:       JobStatusPending,
		Config:       cfg,
		RetryCount:   0,
		MaxRetries:   3,
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	}
}

// IsRetryable checks if job can be retried
func (j *TranscriptionJob) IsRetryable() bool {
	return j.RetryCount < j.MaxRetries && j.Status == JobStatusFailed
}

// MarkAsTranscribing marks the job as claimed and running
func (j *TranscriptionJob) MarkAsTranscribing() {
	j.Status = JobStatusTranscribing
	now := time.Now()
	j.StartedAt = &now
	j.UpdatedAt = now
}

// MarkAsAttributing marks the transcript as ready and attribution in progress
func (j *TranscriptionJob) MarkAsAttributing(transcriptID uuid.UUID) {
	j.Status = JobStatusAttributing
	j.TranscriptID = &transcriptID
	j.UpdatedAt = time.Now()
}

// MarkAsCompleted marks job as completed successfully
func (j *TranscriptionJob) MarkAsCompleted() {
	j.Status = JobStatusCompleted
	now := time.Now()
	j.CompletedAt = &now
	j.UpdatedAt = now
}

// MarkAsFailed marks job as failed with error message
func (j *TranscriptionJob) MarkAsFailed(errMsg string) {
	j.Status = JobStatusFailed
	j.LastError = &errMsg
	j.UpdatedAt = time.Now()
}

// IncrementRetry increments retry count and marks for retry
func (j *TranscriptionJob) IncrementRetry(errMsg string) {
	j.RetryCount++
	j.Status = JobStatusRetrying
	j.LastError = &errMsg
	j.UpdatedAt = time.Now()
}
