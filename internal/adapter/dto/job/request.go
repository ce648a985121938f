package job

// CreateJobRequest represents the request to enqueue a transcription job
type CreateJobRequest struct {
	ClassID              string `json:"class_id" validate:"required,min=1,max=64"`
	RecordingURL         string `json:"recording_url" validate:"required,min=1"`
	ModelSize            string `json:"model_size,omitempty" validate:"omitempty,model_size"`
	TargetQuality        string `json:"target_quality,omitempty" validate:"omitempty,target_quality"`
	SegmentLengthSeconds int    `json:"segment_length_seconds,omitempty" validate:"omitempty,min=60,max=7200"`
	MaxWorkers           int    `json:"max_workers,omitempty" validate:"omitempty,min=1,max=16"`
	Parallel             *bool  `json:"parallel,omitempty"`
	WordLevelTimestamps  bool   `json:"word_level_timestamps,omitempty"`
	PrivacyMode          string `json:"privacy_mode,omitempty" validate:"omitempty,privacy_mode"`
	LanguageHint         string `json:"language_hint,omitempty" validate:"omitempty,max=8"`
}

// ListJobsRequest represents query parameters for listing jobs
type ListJobsRequest struct {
	ClassID string `query:"class_id" validate:"omitempty,min=1,max=64"`
	Status  string `query:"status" validate:"omitempty,oneof=pending transcribing attributing completed failed retrying"`
}

// ChatMessage is one prior exchange in a transcript conversation
type ChatMessage struct {
	Role    string `json:"role" validate:"required,oneof=user assistant"`
	Content string `json:"content" validate:"required,min=1"`
}

// ChatRequest represents a question about a completed transcript
type ChatRequest struct {
	Question string        `json:"question" validate:"required,min=1,max=4000"`
	History  []ChatMessage `json:"history,omitempty" validate:"omitempty,max=50,dive"`
}
