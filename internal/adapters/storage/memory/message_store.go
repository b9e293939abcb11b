package memory

import (
	"context"
	"sync"

	"github.com/PabloGalante/persona-chat/internal/domain"
)

type MessageStore struct {
	mu       sync.RWMutex
	messages map[domain.CharacterID][]*domain.Message
}

func NewMessageStore() *MessageStore {
	return &MessageStore{
		messages: make(map[domain.CharacterID][]*domain.Message),
	}
}

func (s *MessageStore) AppendMessage(ctx context.Context, msg *domain.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.messages[msg.CharacterID] = append(s.messages[msg.CharacterID], msg)
	return nil
}

func (s *MessageStore) ListMessages(ctx context.Context, id domain.CharacterID) ([]*domain.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	msgs := s.messages[id]
	out := make([]*domain.Message, len(msgs))
	copy(out, msgs)
	return out, nil
}
