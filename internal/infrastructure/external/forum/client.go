// Package forum fetches class metadata and the event feed from the
// Forum learning platform API.
package forum

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"

	"github.com/karlis-benefelds/forum-transcriber/internal/domain/entities"
	"github.com/karlis-benefelds/forum-transcriber/pkg/config"
)

// Voice events shorter than this are noise, not speech.
const minVoiceEventDuration = 1.0 // seconds

// Client calls the Forum class grader API using session cookies.
type Client struct {
	baseURL    string
	csrfToken  string
	sessionID  string
	maxRetries uint64
	httpClient *http.Client
	logger     *zap.Logger
}

// NewClient creates a Forum API client from config.
func NewClient(cfg *config.ForumConfig, logger *zap.Logger) *Client {
	timeout := 30 * time.Second
	if cfg.Timeout > 0 {
		timeout = cfg.Timeout
	}
	retries := uint64(3)
	if cfg.MaxRetries > 0 {
		retries = uint64(cfg.MaxRetries)
	}
	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		csrfToken:  cfg.CSRFToken,
		sessionID:  cfg.SessionID,
		maxRetries: retries,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

// classPayload mirrors the hyphenated keys of the class endpoint.
type classPayload struct {
	Title   string `json:"title"`
	Type    string `json:"type"`
	Section struct {
		Title  string `json:"title"`
		Course struct {
			CourseCode string `json:"course-code"`
			Title      string `json:"title"`
		} `json:"course"`
	} `json:"section"`
	RecordingSessions []struct {
		RecordingStarted string `json:"recording-started"`
		RecordingEnded   string `json:"recording-ended"`
	} `json:"recording-sessions"`
	ClassUsers []struct {
		Role     string `json:"role"`
		UserID   int    `json:"user-id"`
		Absent   *bool  `json:"absent"`
		Attended *bool  `json:"attended"`
		User     struct {
			ID        int    `json:"id"`
			FirstName string `json:"first-name"`
			LastName  string `json:"last-name"`
		} `json:"user"`
	} `json:"class-users"`
}

type eventPayload struct {
	EventType string `json:"event-type"`
	StartTime string `json:"start-time"`
	EndTime   string `json:"end-time"`
	EventData struct {
		DurationMS           float64 `json:"duration"`
		TimelineSectionTitle string  `json:"timeline-section-title"`
		TimelineSegmentTitle string  `json:"timeline-segment-title"`
	} `json:"event-data"`
	Actor struct {
		ID        int    `json:"id"`
		FirstName string `json:"first-name"`
		LastName  string `json:"last-name"`
	} `json:"actor"`
}

// FetchSession retrieves class metadata, voice windows, timeline and
// attendance for a class, with offsets rebased to the recording start.
func (c *Client) FetchSession(ctx context.Context, classID string) (*entities.ClassSession, error) {
	var class classPayload
	classURL := fmt.Sprintf("%s/api/v1/class_grader/classes/%s", c.baseURL, classID)
	if err := c.getJSON(ctx, classURL, &class); err != nil {
		return nil, fmt.Errorf("fetch class data: %w", err)
	}

	session := &entities.ClassSession{
		ClassID:      classID,
		SessionTitle: class.Title,
		CourseCode:   class.Section.Course.CourseCode,
		CourseTitle:  class.Section.Course.Title,
		SectionTitle: class.Section.Title,
		ClassType:    class.Type,
	}
	if session.SessionTitle == "" {
		session.SessionTitle = "Session " + classID
	}
	if len(class.RecordingSessions) > 0 {
		session.RecordingStart = class.RecordingSessions[0].RecordingStarted
		session.RecordingEnd = class.RecordingSessions[0].RecordingEnded
	}
	if session.RecordingStart == "" {
		return nil, fmt.Errorf("class %s has no recording start time", classID)
	}
	refTime, err := time.Parse(time.RFC3339, session.RecordingStart)
	if err != nil {
		return nil, fmt.Errorf("parse recording start %q: %w", session.RecordingStart, err)
	}

	for _, cu := range class.ClassUsers {
		if strings.ToLower(cu.Role) != "student" {
			continue
		}
		name := strings.TrimSpace(strings.TrimSpace(cu.User.FirstName) + " " + strings.TrimSpace(cu.User.LastName))
		id := cu.User.ID
		if id == 0 {
			id = cu.UserID
		}
		if name == "" {
			name = fmt.Sprintf("ID %d", id)
		}
		absent := false
		if cu.Absent != nil {
			absent = *cu.Absent
		} else if cu.Attended != nil {
			absent = !*cu.Attended
		}
		session.Attendance = append(session.Attendance, entities.AttendanceItem{
			Name:   name,
			ID:     id,
			Absent: absent,
		})
	}

	var events []eventPayload
	eventsURL := classURL + "/class-events"
	if err := c.getJSON(ctx, eventsURL, &events); err != nil {
		return nil, fmt.Errorf("fetch class events: %w", err)
	}

	for _, ev := range events {
		switch ev.EventType {
		case "voice":
			duration := ev.EventData.DurationMS / 1000.0
			if duration < minVoiceEventDuration {
				continue
			}
			start, err1 := time.Parse(time.RFC3339, ev.StartTime)
			end, err2 := time.Parse(time.RFC3339, ev.EndTime)
			if err1 != nil || err2 != nil {
				continue
			}
			session.VoiceWindows = append(session.VoiceWindows, entities.VoiceWindow{
				Start: start.Sub(refTime).Seconds(),
				End:   end.Sub(refTime).Seconds(),
				Speaker: entities.SpeakerIdentity{
					ID:        ev.Actor.ID,
					FirstName: ev.Actor.FirstName,
					LastName:  ev.Actor.LastName,
				},
			})
		case "timeline-segment":
			start, err := time.Parse(time.RFC3339, ev.StartTime)
			if err != nil {
				continue
			}
			session.Timeline = append(session.Timeline, entities.TimelineEvent{
				OffsetSeconds: start.Sub(refTime).Seconds(),
				Section:       ev.EventData.TimelineSectionTitle,
				Title:         ev.EventData.TimelineSegmentTitle,
			})
		}
	}

	sort.SliceStable(session.Timeline, func(i, j int) bool {
		return session.Timeline[i].OffsetSeconds < session.Timeline[j].OffsetSeconds
	})

	if c.logger != nil {
		c.logger.Info("📥 Forum session fetched",
			zap.String("class_id", classID),
			zap.Int("voice_windows", len(session.VoiceWindows)),
			zap.Int("timeline_events", len(session.Timeline)),
			zap.Int("attendance", len(session.Attendance)))
	}
	return session, nil
}

// getJSON performs a GET with retries and decodes the JSON response.
func (c *Client) getJSON(ctx context.Context, url string, out interface{}) error {
	operation := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return backoff.Permanent(err)
		}
		req.Header.Set("Accept", "application/json")
		if c.csrfToken != "" {
			req.Header.Set("X-CSRFToken", c.csrfToken)
		}
		if c.csrfToken != "" || c.sessionID != "" {
			req.Header.Set("Cookie", fmt.Sprintf("csrftoken=%s; sessionid=%s", c.csrfToken, c.sessionID))
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			body, _ := io.ReadAll(io.LimitReader(resp.Body, 400))
			err := fmt.Errorf("forum API returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
			if resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests {
				return err
			}
			return backoff.Permanent(err)
		}

		return json.NewDecoder(resp.Body).Decode(out)
	}

	policy := backoff.WithMaxRetries(backoff.NewExponentialBackOff(), c.maxRetries)
	return backoff.Retry(operation, backoff.WithContext(policy, ctx))
}
