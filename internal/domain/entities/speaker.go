package entities

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// PrivacyMode selects how attributed speakers are rendered downstream
type PrivacyMode string

const (
	PrivacyModeNames PrivacyMode = "names" // real names, fallback "Professor"
	PrivacyModeIDs   PrivacyMode = "ids"   // anonymized "ID <identifier>"
)

// Valid reports whether the privacy mode is one of the recognized values
func (m PrivacyMode) Valid() bool {
	return m == PrivacyModeNames || m == PrivacyModeIDs
}

// FallbackSpeaker is used when no voice window contains a time point, and as
// the display name for windows with no identity attached.
const FallbackSpeaker = "Professor"

// SpeakerIdentity identifies who a voice window belongs to
type SpeakerIdentity struct {
	ID        int    `json:"id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

// DisplayName resolves the identity per the privacy mode
func (s SpeakerIdentity) DisplayName(mode PrivacyMode) string {
	if mode == PrivacyModeIDs && s.ID != 0 {
		return fmt.Sprintf("ID %d", s.ID)
	}
	name := strings.TrimSpace(strings.TrimSpace(s.FirstName) + " " + strings.TrimSpace(s.LastName))
	if name == "" {
		return FallbackSpeaker
	}
	return name
}

// VoiceWindow asserts that a specific identity was speaking during an
// interval. Offsets are relative to the same zero point as the transcript.
// Supplied whole per job, read-only.
type VoiceWindow struct {
	Start   float64         `json:"start"`
	End     float64         `json:"end"`
	Speaker SpeakerIdentity `json:"speaker"`
}

// Contains reports whether the window covers the given time point (inclusive
// on both ends)
func (w VoiceWindow) Contains(t float64) bool {
	return w.Start <= t && t <= w.End
}

// Malformed reports whether the window's bounds are inverted
func (w VoiceWindow) Malformed() bool {
	return w.End < w.Start
}

// SpeakerTurn is the consolidation unit: one or more temporally-adjacent
// segments attributed to the same resolved speaker, merged into a single
// block for presentation.
type SpeakerTurn struct {
	ID           uuid.UUID `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	TranscriptID uuid.UUID `json:"transcript_id" gorm:"type:uuid;not null;index"`
	Speaker      string    `json:"speaker" gorm:"type:varchar(120);not null"`
	Start        float64   `json:"start" gorm:"not null"`
	End          float64   `json:"end" gorm:"not null"`
	Text         string    `json:"text" gorm:"type:text;not null"`
	CreatedAt    time.Time `json:"created_at" gorm:"autoCreateTime"`
}

// TableName specifies the table name for GORM
func (SpeakerTurn) TableName() string {
	return "speaker_turns"
}
