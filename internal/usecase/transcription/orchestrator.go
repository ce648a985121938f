package transcription

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/karlis-benefelds/forum-transcriber/internal/domain/entities"
	"github.com/karlis-benefelds/forum-transcriber/pkg/engine"
)

// RunStats reports what happened during one orchestrator run.
type RunStats struct {
	SubrangeCount   int
	FailedSubranges int
}

// ProgressFunc receives completion updates while a run is in flight.
// May be nil.
type ProgressFunc func(completedSubranges, totalSubranges int)

// Orchestrator drives the segmented transcription of a full recording:
// plan the sub-ranges, transcribe each one (sequentially or on a
// bounded worker pool), then merge into a single ordered transcript.
type Orchestrator struct {
	cache       *engine.Cache
	transcriber *Transcriber
	logger      *zap.Logger
}

// NewOrchestrator creates an orchestrator on the given engine cache and
// sub-range transcriber.
func NewOrchestrator(cache *engine.Cache, transcriber *Transcriber, logger *zap.Logger) *Orchestrator {
	return &Orchestrator{
		cache:       cache,
		transcriber: transcriber,
		logger:      logger,
	}
}

// subrangeResult is the message a worker sends back to the aggregator.
// All mutable run state lives with the aggregator, not the workers.
type subrangeResult struct {
	subrange Subrange
	segments []entities.Segment
	err      error
}

// ValidateConfig checks a job configuration before any work starts.
func ValidateConfig(cfg entities.JobConfig) error {
	if !engine.IsValidModelSize(cfg.ModelSize) {
		return fmt.Errorf("%w: unknown model size %q", entities.ErrInvalidConfiguration, cfg.ModelSize)
	}
	if cfg.SegmentLengthSeconds <= 0 {
		return fmt.Errorf("%w: segment length must be positive, got %d", entities.ErrInvalidConfiguration, cfg.SegmentLengthSeconds)
	}
	if cfg.MaxWorkers < 1 {
		return fmt.Errorf("%w: max workers must be at least 1, got %d", entities.ErrInvalidConfiguration, cfg.MaxWorkers)
	}
	if cfg.PrivacyMode != "" && !entities.PrivacyMode(cfg.PrivacyMode).Valid() {
		return fmt.Errorf("%w: unknown privacy mode %q", entities.ErrInvalidConfiguration, cfg.PrivacyMode)
	}
	return nil
}

// Run transcribes the whole track per the job configuration and merges
// the per-sub-range results into one transcript ordered by start time.
//
// A sub-range failure contributes zero segments and never aborts its
// siblings. Run fails with ErrEmptyTranscript when the merged result
// has no segments at all, including the zero-duration case.
func (o *Orchestrator) Run(ctx context.Context, track AudioTrack, cfg entities.JobConfig, progress ProgressFunc) (*entities.Transcript, RunStats, error) {
	var stats RunStats

	if err := ValidateConfig(cfg); err != nil {
		return nil, stats, err
	}

	plan, err := PlanSegments(track.DurationSeconds, float64(cfg.SegmentLengthSeconds))
	if err != nil {
		return nil, stats, err
	}
	stats.SubrangeCount = len(plan)
	if len(plan) == 0 {
		return nil, stats, fmt.Errorf("%w: recording has zero duration", entities.ErrEmptyTranscript)
	}

	start := time.Now()
	runParallel := cfg.Parallel && len(plan) > 1 && cfg.MaxWorkers > 1

	if o.logger != nil {
		o.logger.Info("🎙️ Transcription run starting",
			zap.Int("subranges", len(plan)),
			zap.String("model", cfg.ModelSize),
			zap.Bool("parallel", runParallel),
			zap.Int("max_workers", cfg.MaxWorkers))
	}

	var results []subrangeResult
	if runParallel {
		results, err = o.runParallel(ctx, track, plan, cfg, progress)
	} else {
		results, err = o.runSequential(ctx, track, plan, cfg, progress)
	}
	if err != nil {
		return nil, stats, err
	}

	// Merge: concatenate in completion order, then stable sort by
	// start time so ties keep completion order.
	var segments []entities.Segment
	for _, r := range results {
		if r.err != nil {
			stats.FailedSubranges++
			continue
		}
		segments = append(segments, r.segments...)
	}
	sort.SliceStable(segments, func(i, j int) bool {
		return segments[i].Start < segments[j].Start
	})

	if len(segments) == 0 {
		return nil, stats, fmt.Errorf("%w: all %d sub-ranges produced nothing", entities.ErrEmptyTranscript, len(plan))
	}

	eng, err := o.cache.Get(ctx, cfg.ModelSize)
	if err != nil {
		return nil, stats, err
	}

	transcript := &entities.Transcript{
		Segments:              segments,
		ModelSize:             cfg.ModelSize,
		Device:                eng.Device(),
		ProcessingTimeSeconds: time.Since(start).Seconds(),
	}

	if o.logger != nil {
		o.logger.Info("✅ Transcription run completed",
			zap.Int("segments", len(segments)),
			zap.Int("failed_subranges", stats.FailedSubranges),
			zap.Float64("processing_seconds", transcript.ProcessingTimeSeconds))
	}
	return transcript, stats, nil
}

func (o *Orchestrator) runSequential(ctx context.Context, track AudioTrack, plan []Subrange, cfg entities.JobConfig, progress ProgressFunc) ([]subrangeResult, error) {
	eng, err := o.cache.Get(ctx, cfg.ModelSize)
	if err != nil {
		return nil, err
	}

	results := make([]subrangeResult, 0, len(plan))
	for i, sr := range plan {
		segments, err := o.transcriber.Transcribe(ctx, track, sr, eng, cfg)
		results = append(results, subrangeResult{subrange: sr, segments: segments, err: err})
		if progress != nil {
			progress(i+1, len(plan))
		}
	}
	return results, nil
}

func (o *Orchestrator) runParallel(ctx context.Context, track AudioTrack, plan []Subrange, cfg entities.JobConfig, progress ProgressFunc) ([]subrangeResult, error) {
	jobs := make(chan Subrange)
	resultCh := make(chan subrangeResult)

	workers := cfg.MaxWorkers
	if workers > len(plan) {
		workers = len(plan)
	}

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			// Each worker resolves its engine through the cache, so
			// the model for this size loads at most once.
			eng, err := o.cache.Get(ctx, cfg.ModelSize)
			for sr := range jobs {
				if err != nil {
					resultCh <- subrangeResult{subrange: sr, err: err}
					continue
				}
				segments, terr := o.transcriber.Transcribe(ctx, track, sr, eng, cfg)
				resultCh <- subrangeResult{subrange: sr, segments: segments, err: terr}
			}
		}()
	}

	go func() {
		defer close(jobs)
		for _, sr := range plan {
			select {
			case jobs <- sr:
			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		wg.Wait()
		close(resultCh)
	}()

	// Single aggregator owns all mutable run state.
	results := make([]subrangeResult, 0, len(plan))
	for r := range resultCh {
		results = append(results, r)
		if progress != nil {
			progress(len(results), len(plan))
		}
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return results, nil
}
