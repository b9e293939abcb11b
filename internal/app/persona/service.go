// Package persona is the service side of the chat: catalog listing,
// history retrieval, and the send round trip that generates the
// character's reply.
package persona

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/PabloGalante/persona-chat/internal/domain"
	"github.com/PabloGalante/persona-chat/internal/observability"
)

type Service struct {
	characters domain.CharacterStore
	messages   domain.MessageStore
	llm        domain.PersonaLLM
	now        func() time.Time
}

func NewService(
	characters domain.CharacterStore,
	messages domain.MessageStore,
	llm domain.PersonaLLM,
) *Service {
	return &Service{
		characters: characters,
		messages:   messages,
		llm:        llm,
		now:        time.Now,
	}
}

// ListCharacters returns the catalog in its stored order.
func (s *Service) ListCharacters(ctx context.Context) ([]*domain.Character, error) {
	return s.characters.ListCharacters(ctx)
}

// GetHistory returns the persisted messages for one character, oldest
// first. The synthetic greeting is a client concern and never appears here.
func (s *Service) GetHistory(ctx context.Context, id domain.CharacterID) ([]*domain.Message, error) {
	if _, err := s.characters.GetCharacter(ctx, id); err != nil {
		return nil, err
	}
	return s.messages.ListMessages(ctx, id)
}

type SendMessageInput struct {
	CharacterID domain.CharacterID
	Content     string
}

type SendMessageOutput struct {
	UserMessage      *domain.Message
	AssistantMessage *domain.Message
}

// SendMessage persists the user's message, generates the persona's reply
// from the character's system prompt plus prior history, and persists the
// reply. Message ids are random UUIDs, contractually disjoint from the
// client's reserved "temp-"/"greeting" namespace.
func (s *Service) SendMessage(ctx context.Context, in SendMessageInput) (*SendMessageOutput, error) {
	content := strings.TrimSpace(in.Content)
	if content == "" {
		return nil, errors.New("content is empty")
	}

	character, err := s.characters.GetCharacter(ctx, in.CharacterID)
	if err != nil {
		return nil, err
	}

	log := observability.LoggerFromContext(ctx).With(
		"character_id", character.ID,
	)
	log.Info("sending message")

	history, err := s.messages.ListMessages(ctx, character.ID)
	if err != nil {
		log.Error("failed to load history", "error", err)
		return nil, err
	}

	// Generate before persisting anything: a failed round trip must leave
	// the stored history exactly as it was, mirroring the client rollback.
	reply, err := s.llm.GenerateReply(ctx, character, history, content)
	if err != nil {
		log.Error("reply generation failed", "error", err)
		return nil, errors.Wrap(err, "generating reply")
	}

	userMsg := &domain.Message{
		ID:          domain.MessageID(uuid.NewString()),
		CharacterID: character.ID,
		Role:        domain.RoleUser,
		Content:     content,
		CreatedAt:   s.now(),
	}
	if err := s.messages.AppendMessage(ctx, userMsg); err != nil {
		log.Error("failed to append user message", "error", err)
		return nil, err
	}

	assistantMsg := &domain.Message{
		ID:          domain.MessageID(uuid.NewString()),
		CharacterID: character.ID,
		Role:        domain.RoleAssistant,
		Content:     reply,
		CreatedAt:   s.now(),
	}
	if err := s.messages.AppendMessage(ctx, assistantMsg); err != nil {
		log.Error("failed to append assistant message", "error", err)
		return nil, err
	}

	log.Info("send message completed")

	return &SendMessageOutput{
		UserMessage:      userMsg,
		AssistantMessage: assistantMsg,
	}, nil
}
