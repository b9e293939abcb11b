package llm

import (
	"context"
	"fmt"

	"github.com/PabloGalante/persona-chat/internal/domain"
)

// MockLLM answers in a deterministic way, staying vaguely in character.
// Used in local mode and in tests.
type MockLLM struct{}

func NewMockLLM() *MockLLM {
	return &MockLLM{}
}

func (m *MockLLM) GenerateReply(
	ctx context.Context,
	character *domain.Character,
	history []*domain.Message,
	userText string,
) (string, error) {
	return fmt.Sprintf("%s says: you told me %q, tell me more!", character.DisplayName, userText), nil
}
