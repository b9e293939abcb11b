package persona

import (
	"context"

	"github.com/lithammer/shortuuid/v4"

	"github.com/PabloGalante/persona-chat/internal/domain"
)

// SeedCatalog inserts the sample personas into an empty catalog. Used by
// the memory backend and for bootstrapping a fresh database in dev mode.
func SeedCatalog(ctx context.Context, store domain.CharacterStore) error {
	existing, err := store.ListCharacters(ctx)
	if err != nil {
		return err
	}
	if len(existing) > 0 {
		return nil
	}

	samples := []*domain.Character{
		{
			DisplayName:  "Troodon",
			Description:  "A clever dinosaur from the Cretaceous period, known for its intelligence.",
			AvatarRef:    "https://via.placeholder.com/150x150/FF6B6B/FFFFFF?text=Troodon",
			SystemPrompt: "You are Troodon, a smart dinosaur. You are knowledgeable about prehistoric life, science, and general questions. Be friendly, concise, and accurate in your responses.",
			Greeting:     "Hello! I'm Troodon, your dinosaur assistant. How can I help you today?",
		},
		{
			DisplayName:  "Velociraptor",
			Description:  "A fast and agile dinosaur storyteller who loves crafting engaging narratives.",
			AvatarRef:    "https://via.placeholder.com/150x150/4ECDC4/FFFFFF?text=Velociraptor",
			SystemPrompt: "You are Velociraptor, a creative storyteller. You excel at creating engaging narratives, poems, and imaginative stories. Be creative, engaging, and use vivid language.",
			Greeting:     "Greetings! I'm Velociraptor, the storyteller. What kind of tale shall we weave today?",
		},
		{
			DisplayName:  "Triceratops",
			Description:  "A strong dinosaur problem-solver who specializes in math and science.",
			AvatarRef:    "https://via.placeholder.com/150x150/45B7D1/FFFFFF?text=Triceratops",
			SystemPrompt: "You are Triceratops, a logical problem-solver. You specialize in mathematics, science, and analytical thinking. Explain concepts clearly and provide step-by-step solutions.",
			Greeting:     "Hi there! I'm Triceratops, ready to solve problems and explore the wonders of science and math with you.",
		},
	}

	for _, ch := range samples {
		ch.ID = domain.CharacterID(shortuuid.New())
		if err := store.CreateCharacter(ctx, ch); err != nil {
			return err
		}
	}
	return nil
}
