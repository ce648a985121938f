// Package transcription implements the segmented transcription
// pipeline: planning bounded sub-ranges, transcribing each against the
// speech engine, and merging results into a canonical transcript.
package transcription

import (
	"fmt"
	"math"

	"github.com/karlis-benefelds/forum-transcriber/internal/domain/entities"
)

// Subrange is one planned slice of the recording, scheduled for
// independent transcription.
type Subrange struct {
	Index    int
	Start    float64
	Duration float64
}

// End returns the exclusive end offset of the sub-range.
func (s Subrange) End() float64 {
	return s.Start + s.Duration
}

// PlanSegments splits a total duration into contiguous sub-ranges of at
// most maxSegmentSeconds each. The final entry may be shorter. A zero
// duration yields an empty plan.
//
// Pure and deterministic: same inputs always give the same plan.
func PlanSegments(totalDurationSeconds, maxSegmentSeconds float64) ([]Subrange, error) {
	if totalDurationSeconds < 0 {
		return nil, fmt.Errorf("%w: got %v seconds", entities.ErrInvalidDuration, totalDurationSeconds)
	}
	if maxSegmentSeconds <= 0 {
		return nil, fmt.Errorf("%w: segment length must be positive, got %v", entities.ErrInvalidConfiguration, maxSegmentSeconds)
	}
	if totalDurationSeconds == 0 {
		return nil, nil
	}

	// Index arithmetic instead of accumulating the start offset keeps
	// the entry count exact under floating point.
	count := int(math.Ceil(totalDurationSeconds / maxSegmentSeconds))
	plan := make([]Subrange, 0, count)
	for i := 0; i < count; i++ {
		start := float64(i) * maxSegmentSeconds
		duration := maxSegmentSeconds
		if start+duration > totalDurationSeconds {
			duration = totalDurationSeconds - start
		}
		plan = append(plan, Subrange{
			Index:    i,
			Start:    start,
			Duration: duration,
		})
	}
	return plan, nil
}
