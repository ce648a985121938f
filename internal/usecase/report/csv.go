// Package report renders attributed transcripts into downloadable
// session reports.
package report

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"math"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/karlis-benefelds/forum-transcriber/internal/domain/entities"
	"github.com/karlis-benefelds/forum-transcriber/pkg/textutil"
)

// Generator renders session reports.
type Generator struct {
	logger *zap.Logger
}

// NewGenerator creates a report generator.
func NewGenerator(logger *zap.Logger) *Generator {
	return &Generator{logger: logger}
}

// eventWindow buckets turns under the timeline event active when they
// started.
type eventWindow struct {
	start float64
	end   float64
	label string
}

// GenerateCSV renders the full session report: header block,
// attendance, class events, then the transcript with event headers
// interleaved. Speaker names follow the privacy mode.
func (g *Generator) GenerateCSV(session *entities.ClassSession, turns []entities.SpeakerTurn, mode entities.PrivacyMode) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	// Header block
	w.Write([]string{"Session", session.SessionTitle})
	if session.SectionTitle != "" {
		w.Write([]string{session.SectionTitle})
	}
	w.Write([]string{"Class ID", session.ClassID})
	if dt := formatRecordingTime(session.RecordingStart); dt != "" {
		w.Write([]string{"Class Date/Time", dt})
	}
	if session.ClassLink != "" {
		w.Write([]string{"Class Link", session.ClassLink})
	}
	w.Write([]string{})

	// Attendance
	if len(session.Attendance) > 0 {
		w.Write([]string{"Attendance"})
		w.Write([]string{"Student", "Status"})
		for _, a := range session.Attendance {
			status := "Present"
			if a.Absent {
				status = "Absent"
			}
			w.Write([]string{a.DisplayName(mode), status})
		}
		w.Write([]string{})
	}

	// Class Events
	if len(session.Timeline) > 0 {
		w.Write([]string{"Class Events"})
		w.Write([]string{"Time", "Section", "Event"})
		for _, ev := range session.Timeline {
			w.Write([]string{textutil.FormatMMSS(ev.OffsetSeconds), ev.Section, ev.Title})
		}
		w.Write([]string{})
	}

	// Transcript, bucketed by the timeline window each turn started in
	w.Write([]string{"Time", "Speaker", "Contribution"})
	for _, win := range buildEventWindows(session.Timeline) {
		var bucket []entities.SpeakerTurn
		for _, turn := range turns {
			if win.start <= turn.Start && turn.Start < win.end {
				bucket = append(bucket, turn)
			}
		}
		if len(bucket) == 0 {
			continue
		}
		w.Write([]string{"", "", fmt.Sprintf("--- %s ---", win.label)})
		for _, turn := range bucket {
			// Unbroken runs (URLs, pasted code) get soft break points so
			// spreadsheet cells stay readable.
			text := textutil.SoftBreakLongToken(turn.Text, 40)
			w.Write([]string{textutil.FormatMMSS(turn.Start), turn.Speaker, text})
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("write csv report: %w", err)
	}

	if g.logger != nil {
		g.logger.Info("📄 CSV report generated",
			zap.String("class_id", session.ClassID),
			zap.Int("turns", len(turns)),
			zap.String("privacy_mode", string(mode)))
	}
	return buf.Bytes(), nil
}

// buildEventWindows turns the timeline into half-open bucketing windows
// covering the whole recording. No timeline gives one catch-all window.
func buildEventWindows(timeline []entities.TimelineEvent) []eventWindow {
	if len(timeline) == 0 {
		return []eventWindow{{start: 0, end: math.Inf(1), label: "Transcript"}}
	}

	var windows []eventWindow
	firstStart := math.Max(0, timeline[0].OffsetSeconds)
	if firstStart > 0 {
		windows = append(windows, eventWindow{
			start: 0,
			end:   firstStart,
			label: textutil.FormatMMSS(0) + " — Before first event",
		})
	}
	for i, ev := range timeline {
		start := math.Max(0, ev.OffsetSeconds)
		end := math.Inf(1)
		if i+1 < len(timeline) {
			end = timeline[i+1].OffsetSeconds
		}

		var bits []string
		if ev.Section != "" {
			bits = append(bits, ev.Section)
		}
		if ev.Title != "" {
			bits = append(bits, ev.Title)
		}
		label := "Event"
		if len(bits) > 0 {
			label = strings.Join(bits, " / ")
		}
		windows = append(windows, eventWindow{
			start: start,
			end:   end,
			label: textutil.FormatMMSS(start) + " — " + label,
		})
	}
	return windows
}

func formatRecordingTime(raw string) string {
	if raw == "" {
		return ""
	}
	dt, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return raw
	}
	return dt.UTC().Format("2006-01-02 15:04 UTC")
}
