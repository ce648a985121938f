package attribution

import (
	"testing"

	"github.com/karlis-benefelds/forum-transcriber/internal/domain/entities"
)

func window(start, end float64, id int, first, last string) entities.VoiceWindow {
	return entities.VoiceWindow{
		Start: start,
		End:   end,
		Speaker: entities.SpeakerIdentity{
			ID:        id,
			FirstName: first,
			LastName:  last,
		},
	}
}

func transcript(segments ...entities.Segment) *entities.Transcript {
	return &entities.Transcript{Segments: segments}
}

func TestAttributeTwoSpeakers(t *testing.T) {
	windows := []entities.VoiceWindow{
		window(0, 10, 1, "Alice", "Nguyen"),
		window(10, 20, 2, "Bob", "Smith"),
	}
	tr := transcript(
		entities.Segment{Start: 2, End: 4, Text: "hello"},
		entities.Segment{Start: 12, End: 14, Text: "world"},
	)

	turns, stats := New(Options{}, nil).Attribute(tr, windows, entities.PrivacyModeNames)
	if len(turns) != 2 {
		t.Fatalf("expected 2 turns, got %d", len(turns))
	}
	if turns[0].Speaker != "Alice Nguyen" || turns[0].Text != "hello" {
		t.Errorf("first turn = %+v", turns[0])
	}
	if turns[1].Speaker != "Bob Smith" || turns[1].Text != "world" {
		t.Errorf("second turn = %+v", turns[1])
	}
	if stats.SkippedWindows != 0 {
		t.Errorf("skipped windows = %d", stats.SkippedWindows)
	}
}

func TestAttributePrivacyModeIDs(t *testing.T) {
	windows := []entities.VoiceWindow{window(0, 10, 42, "Alice", "Nguyen")}
	tr := transcript(entities.Segment{Start: 2, End: 4, Text: "hello class"})

	turns, _ := New(Options{}, nil).Attribute(tr, windows, entities.PrivacyModeIDs)
	if len(turns) != 1 || turns[0].Speaker != "ID 42" {
		t.Errorf("turns = %+v", turns)
	}
}

func TestAttributeFallbackProfessor(t *testing.T) {
	tr := transcript(entities.Segment{Start: 50, End: 52, Text: "no window covers this"})

	turns, _ := New(Options{}, nil).Attribute(tr, nil, entities.PrivacyModeNames)
	if len(turns) != 1 || turns[0].Speaker != entities.FallbackSpeaker {
		t.Errorf("turns = %+v", turns)
	}
}

func TestAttributeOverlappingWindowsFirstWins(t *testing.T) {
	windows := []entities.VoiceWindow{
		window(0, 10, 1, "Alice", "Nguyen"),
		window(0, 10, 2, "Bob", "Smith"),
	}
	tr := transcript(entities.Segment{Start: 5, End: 6, Text: "who said this"})

	turns, _ := New(Options{}, nil).Attribute(tr, windows, entities.PrivacyModeNames)
	if turns[0].Speaker != "Alice Nguyen" {
		t.Errorf("overlap should resolve to first window, got %q", turns[0].Speaker)
	}
}

func TestAttributeMergesSmallGaps(t *testing.T) {
	windows := []entities.VoiceWindow{window(0, 60, 1, "Alice", "Nguyen")}

	// 1-second gap merges into one turn.
	tr := transcript(
		entities.Segment{Start: 0, End: 2, Text: "first part"},
		entities.Segment{Start: 3, End: 5, Text: "second part"},
	)
	turns, _ := New(Options{}, nil).Attribute(tr, windows, entities.PrivacyModeNames)
	if len(turns) != 1 {
		t.Fatalf("expected merged turn, got %d turns", len(turns))
	}
	if turns[0].Text != "first part second part" {
		t.Errorf("merged text = %q", turns[0].Text)
	}
	if turns[0].Start != 0 || turns[0].End != 5 {
		t.Errorf("merged span = [%v, %v]", turns[0].Start, turns[0].End)
	}

	// 3-second gap splits into two turns.
	tr = transcript(
		entities.Segment{Start: 0, End: 2, Text: "first part"},
		entities.Segment{Start: 5, End: 7, Text: "second part"},
	)
	turns, _ = New(Options{}, nil).Attribute(tr, windows, entities.PrivacyModeNames)
	if len(turns) != 2 {
		t.Fatalf("expected 2 turns across 3s gap, got %d", len(turns))
	}
}

func TestAttributeSpeakerChangeSplitsTurn(t *testing.T) {
	windows := []entities.VoiceWindow{
		window(0, 5, 1, "Alice", "Nguyen"),
		window(5, 10, 2, "Bob", "Smith"),
	}
	tr := transcript(
		entities.Segment{Start: 1, End: 3, Text: "mine first"},
		entities.Segment{Start: 6, End: 8, Text: "then mine"},
	)

	turns, _ := New(Options{MergeGapSeconds: 10}, nil).Attribute(tr, windows, entities.PrivacyModeNames)
	if len(turns) != 2 {
		t.Fatalf("speaker change should split turns, got %d", len(turns))
	}
}

func TestAttributeFiltersFillers(t *testing.T) {
	windows := []entities.VoiceWindow{window(0, 60, 1, "Alice", "Nguyen")}
	tr := transcript(
		entities.Segment{Start: 0, End: 2, Text: "real content here"},
		entities.Segment{Start: 2, End: 3, Text: "Mm-hmm."},
		entities.Segment{Start: 3, End: 4, Text: "..."},
		entities.Segment{Start: 4, End: 5, Text: "ah"},
		entities.Segment{Start: 5, End: 7, Text: "more real content"},
	)

	turns, stats := New(Options{}, nil).Attribute(tr, windows, entities.PrivacyModeNames)
	if len(turns) != 1 {
		t.Fatalf("expected 1 turn, got %d", len(turns))
	}
	if turns[0].Text != "real content here more real content" {
		t.Errorf("text = %q", turns[0].Text)
	}
	if stats.DroppedFragments != 3 {
		t.Errorf("dropped fragments = %d, want 3", stats.DroppedFragments)
	}
}

func TestAttributeSkipsMalformedWindows(t *testing.T) {
	windows := []entities.VoiceWindow{
		window(10, 2, 1, "Broken", "Window"),
		window(0, 10, 2, "Alice", "Nguyen"),
	}
	tr := transcript(entities.Segment{Start: 3, End: 5, Text: "still attributed"})

	turns, stats := New(Options{}, nil).Attribute(tr, windows, entities.PrivacyModeNames)
	if stats.SkippedWindows != 1 {
		t.Errorf("skipped windows = %d, want 1", stats.SkippedWindows)
	}
	if turns[0].Speaker != "Alice Nguyen" {
		t.Errorf("speaker = %q", turns[0].Speaker)
	}
}

func TestAttributeOutputOrdered(t *testing.T) {
	windows := []entities.VoiceWindow{window(0, 100, 1, "Alice", "Nguyen")}
	tr := transcript(
		entities.Segment{Start: 0, End: 2, Text: "turn one text"},
		entities.Segment{Start: 10, End: 12, Text: "turn two text"},
		entities.Segment{Start: 20, End: 22, Text: "turn three text"},
	)

	turns, _ := New(Options{}, nil).Attribute(tr, windows, entities.PrivacyModeNames)
	for i := 1; i < len(turns); i++ {
		if turns[i].Start < turns[i-1].Start {
			t.Errorf("turns out of order at %d: %v < %v", i, turns[i].Start, turns[i-1].Start)
		}
	}
}

func TestAttributeEmptyTranscript(t *testing.T) {
	turns, _ := New(Options{}, nil).Attribute(transcript(), nil, entities.PrivacyModeNames)
	if len(turns) != 0 {
		t.Errorf("expected no turns, got %d", len(turns))
	}
}
