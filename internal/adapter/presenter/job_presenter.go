package presenter

import (
	jobDTO "github.com/karlis-benefelds/forum-transcriber/internal/adapter/dto/job"
	"github.com/karlis-benefelds/forum-transcriber/internal/domain/entities"
	"github.com/karlis-benefelds/forum-transcriber/internal/infrastructure/cache"
)

// ToJobResponse converts a TranscriptionJob entity to JobResponse DTO
func ToJobResponse(j *entities.TranscriptionJob, progress *cache.JobProgress) *jobDTO.JobResponse {
	if j == nil {
		return nil
	}

	response := &jobDTO.JobResponse{
		ID:           j.ID,
		ClassID:      j.ClassID,
		Status:       string(j.Status),
		ModelSize:    j.Config.ModelSize,
		PrivacyMode:  j.Config.PrivacyMode,
		TranscriptID: j.TranscriptID,
		RetryCount:   j.RetryCount,
		LastError:    j.LastError,

		DurationSeconds: j.Metadata.DurationSeconds,
		SubrangeCount:   j.Metadata.SubrangeCount,
		FailedSubranges: j.Metadata.FailedSubranges,
		TurnCount:       j.Metadata.TurnCount,

		CreatedAt:   j.CreatedAt,
		StartedAt:   j.StartedAt,
		CompletedAt: j.CompletedAt,
	}

	if progress != nil {
		response.Progress = &jobDTO.ProgressResponse{
			Stage:             progress.Stage,
			Fraction:          progress.Fraction,
			CompletedSegments: progress.CompletedSegments,
			TotalSegments:     progress.TotalSegments,
			UpdatedAt:         progress.UpdatedAt,
		}
	}

	return response
}

// ToTranscriptResponse converts a Transcript entity and its turns to DTO.
// Raw segments are included only when requested.
func ToTranscriptResponse(t *entities.Transcript, turns []entities.SpeakerTurn, includeSegments bool) *jobDTO.TranscriptResponse {
	if t == nil {
		return nil
	}

	response := &jobDTO.TranscriptResponse{
		ID:                    t.ID,
		JobID:                 t.JobID,
		ClassID:               t.ClassID,
		ModelSize:             t.ModelSize,
		Device:                t.Device,
		ProcessingTimeSeconds: t.ProcessingTimeSeconds,
		Turns:                 make([]jobDTO.TurnResponse, 0, len(turns)),
		CreatedAt:             t.CreatedAt,
	}

	for _, turn := range turns {
		response.Turns = append(response.Turns, jobDTO.TurnResponse{
			Speaker: turn.Speaker,
			Start:   turn.Start,
			End:     turn.End,
			Text:    turn.Text,
		})
	}

	if includeSegments {
		response.Segments = make([]jobDTO.SegmentResponse, 0, len(t.Segments))
		for _, seg := range t.Segments {
			response.Segments = append(response.Segments, jobDTO.SegmentResponse{
				Start: seg.Start,
				End:   seg.End,
				Text:  seg.Text,
			})
		}
	}

	return response
}
