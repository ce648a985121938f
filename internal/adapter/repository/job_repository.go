package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/karlis-benefelds/forum-transcriber/internal/domain/entities"
)

// JobRepository handles transcription job data operations
type JobRepository struct {
	db *gorm.DB
}

// NewJobRepository creates a new job repository
func NewJobRepository(db *gorm.DB) *JobRepository {
	return &JobRepository{db: db}
}

// Create persists a new transcription job
func (r *JobRepository) Create(ctx context.Context, job *entities.TranscriptionJob) error {
	if job == nil {
		return errors.New("job cannot be nil")
	}
	return r.db.WithContext(ctx).Create(job).Error
}

// FindByID retrieves a job by ID
func (r *JobRepository) FindByID(ctx context.Context, id uuid.UUID) (*entities.TranscriptionJob, error) {
	var job entities.TranscriptionJob
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&job).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &job, nil
}

// FindByStatus retrieves jobs in a given status, oldest first
func (r *JobRepository) FindByStatus(ctx context.Context, status entities.JobStatus) ([]entities.TranscriptionJob, error) {
	var jobs []entities.TranscriptionJob
	if err := r.db.WithContext(ctx).
		Where("status = ?", status).
		Order("created_at ASC").
		Find(&jobs).Error; err != nil {
		return nil, err
	}
	return jobs, nil
}

// FindByClassID retrieves jobs for a class, newest first
func (r *JobRepository) FindByClassID(ctx context.Context, classID string) ([]entities.TranscriptionJob, error) {
	var jobs []entities.TranscriptionJob
	if err := r.db.WithContext(ctx).
		Where("class_id = ?", classID).
		Order("created_at DESC").
		Find(&jobs).Error; err != nil {
		return nil, err
	}
	return jobs, nil
}

// Update saves the full job state
func (r *JobRepository) Update(ctx context.Context, job *entities.TranscriptionJob) error {
	if job == nil {
		return errors.New("job cannot be nil")
	}
	return r.db.WithContext(ctx).Save(job).Error
}

// ClaimPending atomically claims a pending or retrying job by moving it
// to transcribing. Only one worker succeeds when several see the same
// job; the losers get false back.
func (r *JobRepository) ClaimPending(ctx context.Context, id uuid.UUID) (bool, error) {
	now := time.Now()
	result := r.db.WithContext(ctx).
		Model(&entities.TranscriptionJob{}).
		Where("id = ? AND status IN ?", id, []entities.JobStatus{
			entities.JobStatusPending,
			entities.JobStatusRetrying,
		}).
		Updates(map[string]interface{}{
			"status":     entities.JobStatusTranscribing,
			"started_at": now,
			"updated_at": now,
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}
