package chat

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"ragchat/internal/domain"
	"ragchat/internal/retrieval"
	"ragchat/internal/session"
)

// Service is the single synchronous entry point for a user turn: embed the
// query, search the index, call the generator, record both turns. One turn
// is processed to completion before the next is accepted.
type Service struct {
	pipeline  *retrieval.Pipeline
	generator domain.Generator
	sessions  *session.Manager
	log       *zap.Logger
}

func NewService(pipeline *retrieval.Pipeline, generator domain.Generator, sessions *session.Manager, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{pipeline: pipeline, generator: generator, sessions: sessions, log: log}
}

// Sessions exposes the session manager to the presentation layer.
func (s *Service) Sessions() *session.Manager { return s.sessions }

// HandleUserTurn processes one question against the named session and
// returns the resulting assistant turn. Retrieval errors propagate;
// generation failures do not, they surface inside the answer text.
func (s *Service) HandleUserTurn(ctx context.Context, sessionID, query string) (domain.ChatTurn, error) {
	query = strings.TrimSpace(query)

	grounding, err := s.pipeline.Retrieve(query)
	if err != nil {
		return domain.ChatTurn{}, err
	}
	s.log.Debug("retrieved grounding context",
		zap.String("session", sessionID),
		zap.Int("chunks", len(grounding.Results)))

	// History is the conversation before this question.
	prior, err := s.sessions.Get(sessionID)
	if err != nil {
		return domain.ChatTurn{}, err
	}
	userTurn := domain.ChatTurn{Role: domain.RoleUser, Content: query, Timestamp: time.Now()}
	if err := s.sessions.Append(ctx, sessionID, userTurn); err != nil {
		return domain.ChatTurn{}, err
	}

	answer := s.generator.Answer(ctx, grounding.Prompt(), query, prior.Turns)
	assistantTurn := domain.ChatTurn{Role: domain.RoleAssistant, Content: answer, Timestamp: time.Now()}
	if err := s.sessions.Append(ctx, sessionID, assistantTurn); err != nil {
		return domain.ChatTurn{}, err
	}
	return assistantTurn, nil
}
