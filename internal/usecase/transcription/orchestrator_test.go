package transcription

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/karlis-benefelds/forum-transcriber/internal/domain/entities"
	"github.com/karlis-benefelds/forum-transcriber/pkg/engine"
)

// rangeKeyedEngine returns results keyed by the sub-range start encoded
// in the extracted buffer path.
type rangeKeyedEngine struct {
	resultsByPath map[string]*engine.Result
}

func (f *rangeKeyedEngine) Recognize(ctx context.Context, audioPath string, opts engine.Options) (*engine.Result, error) {
	if r, ok := f.resultsByPath[filepath.Base(audioPath)]; ok {
		return r, nil
	}
	return &engine.Result{}, nil
}
func (f *rangeKeyedEngine) ModelSize() string { return "base" }
func (f *rangeKeyedEngine) Device() string    { return "cpu" }

func rangeKey(startSec float64) string {
	return fmt.Sprintf("sr_%.0f.wav", startSec)
}

func keyedExtractor(t *testing.T, dir string) RangeExtractor {
	return func(ctx context.Context, inputPath string, startSec, durationSec float64, workDir string) (string, error) {
		path := filepath.Join(dir, rangeKey(startSec))
		if err := os.WriteFile(path, []byte("wav"), 0o644); err != nil {
			t.Fatalf("write stub buffer: %v", err)
		}
		return path, nil
	}
}

func newTestOrchestrator(t *testing.T, eng engine.Engine) *Orchestrator {
	dir := t.TempDir()
	cache := engine.NewCache(func(ctx context.Context, size string) (engine.Engine, error) {
		return eng, nil
	}, nil)
	tr := NewTranscriber(dir, "", "", nil).WithRangeExtractor(keyedExtractor(t, dir))
	return NewOrchestrator(cache, tr, nil)
}

func baseConfig() entities.JobConfig {
	return entities.JobConfig{
		ModelSize:            "base",
		SegmentLengthSeconds: 1800,
		MaxWorkers:           2,
		Parallel:             true,
	}
}

func TestRunTwoSubrangeScenario(t *testing.T) {
	// 1-hour audio split into two 1800s sub-ranges on two workers.
	eng := &rangeKeyedEngine{resultsByPath: map[string]*engine.Result{
		rangeKey(0): {Segments: []engine.Segment{
			{Start: 10, End: 12, Text: "first half one"},
			{Start: 100, End: 105, Text: "first half two"},
		}},
		rangeKey(1800): {Segments: []engine.Segment{
			{Start: 5, End: 8, Text: "second half one"},
		}},
	}}
	o := newTestOrchestrator(t, eng)

	track := AudioTrack{Path: "lecture.wav", DurationSeconds: 3600}
	transcript, stats, err := o.Run(context.Background(), track, baseConfig(), nil)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if stats.SubrangeCount != 2 {
		t.Errorf("subrange count = %d, want 2", stats.SubrangeCount)
	}
	if len(transcript.Segments) != 3 {
		t.Fatalf("expected 3 segments, got %d", len(transcript.Segments))
	}

	// Segments before 1800s all came from sub-range 0, after from 1.
	for _, seg := range transcript.Segments {
		if seg.Start < 1800 && seg.Text == "second half one" {
			t.Errorf("second-half segment leaked below 1800s: %+v", seg)
		}
		if seg.Start >= 1800 && seg.Text != "second half one" {
			t.Errorf("first-half segment leaked above 1800s: %+v", seg)
		}
	}
	if !sort.SliceIsSorted(transcript.Segments, func(i, j int) bool {
		return transcript.Segments[i].Start < transcript.Segments[j].Start
	}) {
		t.Error("merged segments not sorted by start time")
	}

	if transcript.ModelSize != "base" || transcript.Device != "cpu" {
		t.Errorf("metadata = %s/%s", transcript.ModelSize, transcript.Device)
	}
	if transcript.ProcessingTimeSeconds < 0 {
		t.Errorf("processing time = %v", transcript.ProcessingTimeSeconds)
	}
}

func TestRunSequentialDeterministic(t *testing.T) {
	eng := &rangeKeyedEngine{resultsByPath: map[string]*engine.Result{
		rangeKey(0):    {Segments: []engine.Segment{{Start: 1, End: 2, Text: "a"}}},
		rangeKey(1800): {Segments: []engine.Segment{{Start: 3, End: 4, Text: "b"}}},
	}}
	o := newTestOrchestrator(t, eng)

	cfg := baseConfig()
	cfg.Parallel = false
	track := AudioTrack{Path: "lecture.wav", DurationSeconds: 3600}

	first, _, err := o.Run(context.Background(), track, cfg, nil)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	second, _, err := o.Run(context.Background(), track, cfg, nil)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if len(first.Segments) != len(second.Segments) {
		t.Fatalf("segment counts differ: %d vs %d", len(first.Segments), len(second.Segments))
	}
	for i := range first.Segments {
		a, b := first.Segments[i], second.Segments[i]
		if a.Start != b.Start || a.End != b.End || a.Text != b.Text {
			t.Errorf("segment %d differs: %+v vs %+v", i, a, b)
		}
	}
}

func TestRunZeroDurationFailsEmpty(t *testing.T) {
	o := newTestOrchestrator(t, &rangeKeyedEngine{})
	_, _, err := o.Run(context.Background(), AudioTrack{Path: "a.wav", DurationSeconds: 0}, baseConfig(), nil)
	if !errors.Is(err, entities.ErrEmptyTranscript) {
		t.Errorf("expected ErrEmptyTranscript, got %v", err)
	}
}

func TestRunAllSubrangesEmptyFails(t *testing.T) {
	o := newTestOrchestrator(t, &rangeKeyedEngine{})
	_, _, err := o.Run(context.Background(), AudioTrack{Path: "a.wav", DurationSeconds: 3600}, baseConfig(), nil)
	if !errors.Is(err, entities.ErrEmptyTranscript) {
		t.Errorf("expected ErrEmptyTranscript, got %v", err)
	}
}

func TestRunInvalidConfigFailsFast(t *testing.T) {
	o := newTestOrchestrator(t, &rangeKeyedEngine{})
	track := AudioTrack{Path: "a.wav", DurationSeconds: 3600}

	bad := []entities.JobConfig{
		{ModelSize: "enormous", SegmentLengthSeconds: 1800, MaxWorkers: 2},
		{ModelSize: "base", SegmentLengthSeconds: 0, MaxWorkers: 2},
		{ModelSize: "base", SegmentLengthSeconds: 1800, MaxWorkers: 0},
		{ModelSize: "base", SegmentLengthSeconds: 1800, MaxWorkers: 2, PrivacyMode: "pseudonyms"},
	}
	for _, cfg := range bad {
		if _, _, err := o.Run(context.Background(), track, cfg, nil); !errors.Is(err, entities.ErrInvalidConfiguration) {
			t.Errorf("config %+v: expected ErrInvalidConfiguration, got %v", cfg, err)
		}
	}
}

func TestRunProgressReported(t *testing.T) {
	eng := &rangeKeyedEngine{resultsByPath: map[string]*engine.Result{
		rangeKey(0): {Segments: []engine.Segment{{Start: 1, End: 2, Text: "a"}}},
	}}
	o := newTestOrchestrator(t, eng)

	cfg := baseConfig()
	cfg.SegmentLengthSeconds = 900
	cfg.Parallel = false

	var updates []int
	_, _, err := o.Run(context.Background(), AudioTrack{Path: "a.wav", DurationSeconds: 3600}, cfg,
		func(done, total int) {
			if total != 4 {
				t.Errorf("total = %d, want 4", total)
			}
			updates = append(updates, done)
		})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if len(updates) != 4 || updates[3] != 4 {
		t.Errorf("progress updates = %v", updates)
	}
}

// failingEngine fails for one specific sub-range buffer.
type failingEngine struct {
	rangeKeyedEngine
	failPath string
}

func (f *failingEngine) Recognize(ctx context.Context, audioPath string, opts engine.Options) (*engine.Result, error) {
	if filepath.Base(audioPath) == f.failPath {
		return nil, errors.New("decoder blew up")
	}
	return f.rangeKeyedEngine.Recognize(ctx, audioPath, opts)
}

func TestRunPartialFailureTolerated(t *testing.T) {
	eng := &failingEngine{
		rangeKeyedEngine: rangeKeyedEngine{resultsByPath: map[string]*engine.Result{
			rangeKey(0): {Segments: []engine.Segment{{Start: 1, End: 2, Text: "kept"}}},
		}},
		failPath: rangeKey(1800),
	}
	o := newTestOrchestrator(t, eng)

	transcript, stats, err := o.Run(context.Background(), AudioTrack{Path: "a.wav", DurationSeconds: 3600}, baseConfig(), nil)
	if err != nil {
		t.Fatalf("one bad sub-range must not fail the job: %v", err)
	}
	if stats.FailedSubranges != 1 {
		t.Errorf("failed subranges = %d, want 1", stats.FailedSubranges)
	}
	if len(transcript.Segments) != 1 || transcript.Segments[0].Text != "kept" {
		t.Errorf("unexpected segments: %+v", transcript.Segments)
	}
}
