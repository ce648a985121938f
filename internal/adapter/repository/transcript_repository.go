package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/karlis-benefelds/forum-transcriber/internal/domain/entities"
)

// TranscriptRepository handles transcript and speaker turn data operations
type TranscriptRepository struct {
	db *gorm.DB
}

// NewTranscriptRepository creates a new transcript repository
func NewTranscriptRepository(db *gorm.DB) *TranscriptRepository {
	return &TranscriptRepository{db: db}
}

// Create persists a transcript with its segments
func (r *TranscriptRepository) Create(ctx context.Context, transcript *entities.Transcript) error {
	if transcript == nil {
		return errors.New("transcript cannot be nil")
	}
	return r.db.WithContext(ctx).Create(transcript).Error
}

// FindByID retrieves a transcript by ID
func (r *TranscriptRepository) FindByID(ctx context.Context, id uuid.UUID) (*entities.Transcript, error) {
	var transcript entities.Transcript
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&transcript).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &transcript, nil
}

// FindByJobID retrieves the transcript produced by a job
func (r *TranscriptRepository) FindByJobID(ctx context.Context, jobID uuid.UUID) (*entities.Transcript, error) {
	var transcript entities.Transcript
	if err := r.db.WithContext(ctx).Where("job_id = ?", jobID).First(&transcript).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &transcript, nil
}

// CreateTurns persists the attributed speaker turns for a transcript
func (r *TranscriptRepository) CreateTurns(ctx context.Context, turns []entities.SpeakerTurn) error {
	if len(turns) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).CreateInBatches(turns, 200).Error
}

// FindTurns retrieves the speaker turns of a transcript in timeline order
func (r *TranscriptRepository) FindTurns(ctx context.Context, transcriptID uuid.UUID) ([]entities.SpeakerTurn, error) {
	var turns []entities.SpeakerTurn
	if err := r.db.WithContext(ctx).
		Where("transcript_id = ?", transcriptID).
		Order("start ASC").
		Find(&turns).Error; err != nil {
		return nil, err
	}
	return turns, nil
}
