package repositories

import (
	"context"

	"github.com/google/uuid"

	"github.com/karlis-benefelds/forum-transcriber/internal/domain/entities"
)

// JobRepository defines persistence operations for transcription jobs
type JobRepository interface {
	Create(ctx context.Context, job *entities.TranscriptionJob) error
	FindByID(ctx context.Context, id uuid.UUID) (*entities.TranscriptionJob, error)
	FindByStatus(ctx context.Context, status entities.JobStatus) ([]entities.TranscriptionJob, error)
	FindByClassID(ctx context.Context, classID string) ([]entities.TranscriptionJob, error)
	Update(ctx context.Context, job *entities.TranscriptionJob) error
	ClaimPending(ctx context.Context, id uuid.UUID) (bool, error)
}

// TranscriptRepository defines persistence operations for transcripts and
// their attributed turns
type TranscriptRepository interface {
	Create(ctx context.Context, transcript *entities.Transcript) error
	FindByID(ctx context.Context, id uuid.UUID) (*entities.Transcript, error)
	FindByJobID(ctx context.Context, jobID uuid.UUID) (*entities.Transcript, error)
	CreateTurns(ctx context.Context, turns []entities.SpeakerTurn) error
	FindTurns(ctx context.Context, transcriptID uuid.UUID) ([]entities.SpeakerTurn, error)
}
