package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

const progressTTL = 24 * time.Hour

// JobProgress is the live progress snapshot published while a job runs
type JobProgress struct {
	Stage             string  `json:"stage"`
	Fraction          float64 `json:"fraction"`
	CompletedSegments int     `json:"completed_segments"`
	TotalSegments     int     `json:"total_segments"`
	UpdatedAt         string  `json:"updated_at"`
}

// ProgressCache publishes job progress snapshots to a Store
type ProgressCache struct {
	store Store
}

// NewProgressCache creates a progress cache on the given store
func NewProgressCache(store Store) *ProgressCache {
	return &ProgressCache{store: store}
}

func progressKey(jobID uuid.UUID) string {
	return fmt.Sprintf("job:progress:%s", jobID)
}

// Publish stores the current progress snapshot for a job
func (pc *ProgressCache) Publish(ctx context.Context, jobID uuid.UUID, progress JobProgress) error {
	progress.UpdatedAt = time.Now().UTC().Format(time.RFC3339)

	data, err := json.Marshal(progress)
	if err != nil {
		return fmt.Errorf("failed to marshal progress: %w", err)
	}
	return pc.store.Set(ctx, progressKey(jobID), string(data), progressTTL)
}

// Fetch returns the latest progress snapshot for a job, if any
func (pc *ProgressCache) Fetch(ctx context.Context, jobID uuid.UUID) (*JobProgress, bool, error) {
	raw, ok, err := pc.store.Get(ctx, progressKey(jobID))
	if err != nil || !ok {
		return nil, false, err
	}

	var progress JobProgress
	if err := json.Unmarshal([]byte(raw), &progress); err != nil {
		return nil, false, fmt.Errorf("failed to unmarshal progress: %w", err)
	}
	return &progress, true, nil
}

// Clear removes the progress snapshot for a finished job
func (pc *ProgressCache) Clear(ctx context.Context, jobID uuid.UUID) error {
	return pc.store.Delete(ctx, progressKey(jobID))
}
