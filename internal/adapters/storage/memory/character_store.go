package memory

import (
	"context"
	"sync"

	"github.com/PabloGalante/persona-chat/internal/domain"
)

// CharacterStore keeps the catalog in memory, preserving insertion order
// so the picker sees a stable listing.
type CharacterStore struct {
	mu         sync.RWMutex
	order      []domain.CharacterID
	characters map[domain.CharacterID]*domain.Character
}

func NewCharacterStore() *CharacterStore {
	return &CharacterStore{
		characters: make(map[domain.CharacterID]*domain.Character),
	}
}

func (s *CharacterStore) CreateCharacter(ctx context.Context, character *domain.Character) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.characters[character.ID]; !exists {
		s.order = append(s.order, character.ID)
	}
	s.characters[character.ID] = character
	return nil
}

func (s *CharacterStore) GetCharacter(ctx context.Context, id domain.CharacterID) (*domain.Character, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ch, ok := s.characters[id]
	if !ok {
		return nil, domain.ErrCharacterNotFound
	}
	return ch, nil
}

func (s *CharacterStore) ListCharacters(ctx context.Context) ([]*domain.Character, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*domain.Character, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.characters[id])
	}
	return out, nil
}
