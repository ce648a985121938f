package entities

// ClassSession bundles the event-feed data for one recorded class: session
// metadata, voice-activity windows, the event timeline, and attendance. It is
// fetched whole from the Forum API and treated as read-only afterwards.
type ClassSession struct {
	ClassID        string           `json:"class_id"`
	SessionTitle   string           `json:"session_title"`
	CourseCode     string           `json:"course_code"`
	CourseTitle    string           `json:"course_title"`
	SectionTitle   string           `json:"section_title"`
	ClassType      string           `json:"class_type"`
	RecordingStart string           `json:"recording_start"`
	RecordingEnd   string           `json:"recording_end"`
	ClassLink      string           `json:"class_link,omitempty"`
	VoiceWindows   []VoiceWindow    `json:"voice_windows"`
	Timeline       []TimelineEvent  `json:"timeline"`
	Attendance     []AttendanceItem `json:"attendance"`
}

// TimelineEvent marks a titled point in the class timeline, offset-relative
// to the recording start
type TimelineEvent struct {
	OffsetSeconds float64 `json:"offset_seconds"`
	Section       string  `json:"section"`
	Title         string  `json:"title"`
}

// AttendanceItem records one student's presence in the session
type AttendanceItem struct {
	Name   string `json:"name"`
	ID     int    `json:"id"`
	Absent bool   `json:"absent"`
}

// DisplayName resolves the attendee name per the privacy mode
func (a AttendanceItem) DisplayName(mode PrivacyMode) string {
	if mode == PrivacyModeIDs && a.ID != 0 {
		return SpeakerIdentity{ID: a.ID}.DisplayName(mode)
	}
	return a.Name
}
