package transcription

import (
	"context"
	"os"

	"go.uber.org/zap"

	"github.com/karlis-benefelds/forum-transcriber/internal/domain/entities"
	"github.com/karlis-benefelds/forum-transcriber/internal/infrastructure/media"
	"github.com/karlis-benefelds/forum-transcriber/pkg/engine"
	"github.com/karlis-benefelds/forum-transcriber/pkg/textutil"
)

// AudioTrack is a handle to a decoded recording with a known duration.
// Produced once per job by the media layer.
type AudioTrack struct {
	Path            string
	DurationSeconds float64
}

// RangeExtractor cuts a time range out of an audio file into its own
// working file. Matches media.ExtractRange.
type RangeExtractor func(ctx context.Context, inputPath string, startSec, durationSec float64, workDir string) (string, error)

// Transcriber runs the speech engine over one sub-range and rewrites
// local timestamps into global time.
type Transcriber struct {
	workDir      string
	languageHint string
	prompt       string
	extractRange RangeExtractor
	logger       *zap.Logger
}

// NewTranscriber creates a sub-range transcriber. workDir holds the
// short-lived per-sub-range audio files.
func NewTranscriber(workDir, languageHint, prompt string, logger *zap.Logger) *Transcriber {
	if languageHint == "" {
		languageHint = "en"
	}
	if prompt == "" {
		prompt = "This is a university lecture."
	}
	return &Transcriber{
		workDir:      workDir,
		languageHint: languageHint,
		prompt:       prompt,
		extractRange: media.ExtractRange,
		logger:       logger,
	}
}

// WithRangeExtractor overrides the audio extraction step, used in tests.
func (t *Transcriber) WithRangeExtractor(fn RangeExtractor) *Transcriber {
	t.extractRange = fn
	return t
}

// Transcribe processes one sub-range. The returned segments carry
// global timestamps. A failed sub-range returns an empty list together
// with the cause; it never aborts sibling sub-ranges.
func (t *Transcriber) Transcribe(ctx context.Context, track AudioTrack, sr Subrange, eng engine.Engine, cfg entities.JobConfig) ([]entities.Segment, error) {
	bufferPath, err := t.extractRange(ctx, track.Path, sr.Start, sr.Duration, t.workDir)
	if err != nil {
		t.logFailure(sr, "extract audio range", err)
		return nil, err
	}
	// The working buffer is deleted on every exit path so disk usage
	// stays bounded regardless of job size.
	defer os.Remove(bufferPath)

	language := cfg.LanguageHint
	if language == "" {
		language = t.languageHint
	}
	result, err := eng.Recognize(ctx, bufferPath, engine.Options{
		Language:       language,
		Prompt:         t.prompt,
		WordTimestamps: cfg.WordLevelTimestamps,
	})
	if err != nil {
		t.logFailure(sr, "recognize", err)
		return nil, err
	}

	segments := make([]entities.Segment, 0, len(result.Segments))
	for _, raw := range result.Segments {
		seg := entities.Segment{
			Start: raw.Start + sr.Start,
			End:   raw.End + sr.Start,
			Text:  textutil.NormalizeSentenceSpacing(raw.Text),
		}
		for _, w := range raw.Words {
			seg.Words = append(seg.Words, entities.WordToken{
				Text:  w.Text,
				Start: w.Start + sr.Start,
				End:   w.End + sr.Start,
			})
		}
		segments = append(segments, seg)
	}

	if t.logger != nil {
		t.logger.Debug("sub-range transcribed",
			zap.Int("subrange", sr.Index),
			zap.Float64("start", sr.Start),
			zap.Int("segments", len(segments)))
	}
	return segments, nil
}

func (t *Transcriber) logFailure(sr Subrange, stage string, err error) {
	if t.logger != nil {
		t.logger.Warn("⚠️ Sub-range failed, continuing without it",
			zap.Int("subrange", sr.Index),
			zap.Float64("start", sr.Start),
			zap.String("stage", stage),
			zap.Error(err))
	}
}
