package transcription

import (
	"errors"
	"math"
	"testing"

	"github.com/karlis-benefelds/forum-transcriber/internal/domain/entities"
)

func TestPlanSegmentsCoversDuration(t *testing.T) {
	cases := []struct {
		name      string
		total     float64
		maxLen    float64
		wantCount int
	}{
		{"one hour in half-hour segments", 3600, 1800, 2},
		{"uneven tail", 4000, 1800, 3},
		{"single short segment", 120, 1800, 1},
		{"exact multiple", 5400, 1800, 3},
		{"fractional duration", 100.5, 30, 4},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			plan, err := PlanSegments(c.total, c.maxLen)
			if err != nil {
				t.Fatalf("PlanSegments failed: %v", err)
			}
			if len(plan) != c.wantCount {
				t.Fatalf("expected %d entries, got %d", c.wantCount, len(plan))
			}

			var sum float64
			for i, sr := range plan {
				if sr.Index != i {
					t.Errorf("entry %d has index %d", i, sr.Index)
				}
				if sr.Duration <= 0 || sr.Duration > c.maxLen {
					t.Errorf("entry %d duration %v out of (0, %v]", i, sr.Duration, c.maxLen)
				}
				if i > 0 && math.Abs(sr.Start-plan[i-1].End()) > 1e-9 {
					t.Errorf("gap between entry %d end %v and entry %d start %v",
						i-1, plan[i-1].End(), i, sr.Start)
				}
				sum += sr.Duration
			}
			if math.Abs(sum-c.total) > 1e-6 {
				t.Errorf("durations sum to %v, want %v", sum, c.total)
			}
		})
	}
}

func TestPlanSegmentsZeroDuration(t *testing.T) {
	plan, err := PlanSegments(0, 1800)
	if err != nil {
		t.Fatalf("zero duration should not error: %v", err)
	}
	if len(plan) != 0 {
		t.Errorf("expected empty plan, got %d entries", len(plan))
	}
}

func TestPlanSegmentsNegativeDuration(t *testing.T) {
	_, err := PlanSegments(-1, 1800)
	if !errors.Is(err, entities.ErrInvalidDuration) {
		t.Errorf("expected ErrInvalidDuration, got %v", err)
	}
}

func TestPlanSegmentsInvalidSegmentLength(t *testing.T) {
	for _, maxLen := range []float64{0, -30} {
		_, err := PlanSegments(3600, maxLen)
		if !errors.Is(err, entities.ErrInvalidConfiguration) {
			t.Errorf("maxLen=%v: expected ErrInvalidConfiguration, got %v", maxLen, err)
		}
	}
}

func TestPlanSegmentsDeterministic(t *testing.T) {
	first, err := PlanSegments(7321.5, 600)
	if err != nil {
		t.Fatalf("PlanSegments failed: %v", err)
	}
	second, _ := PlanSegments(7321.5, 600)
	if len(first) != len(second) {
		t.Fatalf("plan lengths differ: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i] != second[i] {
			t.Errorf("entry %d differs: %+v vs %+v", i, first[i], second[i])
		}
	}
}
