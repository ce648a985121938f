// Package chat lets a user converse with an assistant about a finished
// transcript.
package chat

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/karlis-benefelds/forum-transcriber/internal/domain/entities"
	"github.com/karlis-benefelds/forum-transcriber/internal/domain/repositories"
	"github.com/karlis-benefelds/forum-transcriber/pkg/llm"
	"github.com/karlis-benefelds/forum-transcriber/pkg/textutil"
)

// Keeps the transcript context inside typical model context windows.
const maxTranscriptChars = 300_000

const systemPrompt = `You are a classroom analyst specializing in discussion-based undergraduate classes with international students.
You will be given the attributed transcript of one recorded class, with speaker labels and timestamps.
Answer the professor's questions about it. Analyze participation patterns, communication clarity,
question depth, and engagement. Be objective, specific, and reference transcript evidence.`

// Completer is the chat-completion surface the service depends on.
type Completer interface {
	Chat(ctx context.Context, messages []llm.Message) (string, error)
}

// Service answers questions about completed transcripts.
type Service struct {
	completer      Completer
	transcriptRepo repositories.TranscriptRepository
	logger         *zap.Logger
}

// NewService creates a chat service.
func NewService(completer Completer, transcriptRepo repositories.TranscriptRepository, logger *zap.Logger) *Service {
	return &Service{
		completer:      completer,
		transcriptRepo: transcriptRepo,
		logger:         logger,
	}
}

// Ask answers a question about the transcript of a finished job.
// History carries prior turns of the same conversation in order.
func (s *Service) Ask(ctx context.Context, jobID uuid.UUID, question string, history []llm.Message) (string, error) {
	transcript, err := s.transcriptRepo.FindByJobID(ctx, jobID)
	if err != nil {
		return "", fmt.Errorf("load transcript: %w", err)
	}
	if transcript == nil {
		return "", entities.ErrTranscriptNotFound
	}

	turns, err := s.transcriptRepo.FindTurns(ctx, transcript.ID)
	if err != nil {
		return "", fmt.Errorf("load speaker turns: %w", err)
	}

	messages := make([]llm.Message, 0, len(history)+3)
	messages = append(messages,
		llm.Message{Role: "system", Content: systemPrompt},
		llm.Message{Role: "system", Content: "TRANSCRIPT:\n" + renderTranscript(transcript, turns)},
	)
	messages = append(messages, history...)
	messages = append(messages, llm.Message{Role: "user", Content: question})

	answer, err := s.completer.Chat(ctx, messages)
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}

	if s.logger != nil {
		s.logger.Info("💬 Transcript question answered",
			zap.String("job_id", jobID.String()),
			zap.Int("history_turns", len(history)))
	}
	return answer, nil
}

// renderTranscript flattens the transcript into the timestamped,
// speaker-labelled text the prompt expects. Attributed turns are
// preferred; raw segments are the fallback for jobs without attribution.
func renderTranscript(transcript *entities.Transcript, turns []entities.SpeakerTurn) string {
	var b strings.Builder
	if len(turns) > 0 {
		for _, turn := range turns {
			fmt.Fprintf(&b, "[%s] %s: %s\n", textutil.FormatMMSS(turn.Start), turn.Speaker, turn.Text)
			if b.Len() > maxTranscriptChars {
				break
			}
		}
	} else {
		for _, seg := range transcript.Segments {
			fmt.Fprintf(&b, "[%s] %s\n", textutil.FormatMMSS(seg.Start), seg.Text)
			if b.Len() > maxTranscriptChars {
				break
			}
		}
	}
	return b.String()
}
