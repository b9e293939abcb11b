package firestore

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/PabloGalante/persona-chat/internal/domain"
)

// Store implements domain.CharacterStore and domain.MessageStore on
// Firestore: one "characters" collection with a "messages" subcollection
// per character.
type Store struct {
	client *firestore.Client
}

func NewStore(ctx context.Context, projectID string) (*Store, error) {
	if projectID == "" {
		return nil, fmt.Errorf("projectID is required for Firestore store")
	}

	client, err := firestore.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("creating firestore client: %w", err)
	}

	return &Store{client: client}, nil
}

// ─────────────────────────────────────────
// Helpers
// ─────────────────────────────────────────

func (s *Store) charactersCol() *firestore.CollectionRef {
	return s.client.Collection("characters")
}

func (s *Store) characterDoc(id domain.CharacterID) *firestore.DocumentRef {
	return s.charactersCol().Doc(string(id))
}

func (s *Store) messagesCol(id domain.CharacterID) *firestore.CollectionRef {
	return s.characterDoc(id).Collection("messages")
}

// ─────────────────────────────────────────
// Firestore Types
// ─────────────────────────────────────────

type characterDoc struct {
	DisplayName  string    `firestore:"display_name"`
	Description  string    `firestore:"description"`
	AvatarRef    string    `firestore:"avatar_ref"`
	SystemPrompt string    `firestore:"system_prompt"`
	Greeting     string    `firestore:"greeting"`
	Position     int       `firestore:"position"`
	CreatedAt    time.Time `firestore:"created_at"`
}

type messageDoc struct {
	CharacterID string    `firestore:"character_id"`
	Role        string    `firestore:"role"`
	Content     string    `firestore:"content"`
	CreatedAt   time.Time `firestore:"created_at"`
}

// ─────────────────────────────────────────
// CharacterStore implementation
// ─────────────────────────────────────────

func (s *Store) CreateCharacter(ctx context.Context, character *domain.Character) error {
	existing, err := s.charactersCol().Documents(ctx).GetAll()
	if err != nil {
		return fmt.Errorf("firestore CreateCharacter count: %w", err)
	}

	doc := characterDoc{
		DisplayName:  character.DisplayName,
		Description:  character.Description,
		AvatarRef:    character.AvatarRef,
		SystemPrompt: character.SystemPrompt,
		Greeting:     character.Greeting,
		Position:     len(existing) + 1,
		CreatedAt:    time.Now(),
	}

	if _, err := s.characterDoc(character.ID).Create(ctx, doc); err != nil {
		return fmt.Errorf("firestore CreateCharacter: %w", err)
	}
	return nil
}

func (s *Store) GetCharacter(ctx context.Context, id domain.CharacterID) (*domain.Character, error) {
	snap, err := s.characterDoc(id).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, domain.ErrCharacterNotFound
		}
		return nil, fmt.Errorf("firestore GetCharacter: %w", err)
	}

	var doc characterDoc
	if err := snap.DataTo(&doc); err != nil {
		return nil, fmt.Errorf("firestore GetCharacter decode: %w", err)
	}

	return toCharacter(id, doc), nil
}

func (s *Store) ListCharacters(ctx context.Context) ([]*domain.Character, error) {
	iter := s.charactersCol().OrderBy("position", firestore.Asc).Documents(ctx)
	defer iter.Stop()

	var list []*domain.Character
	for {
		snap, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("firestore ListCharacters: %w", err)
		}

		var doc characterDoc
		if err := snap.DataTo(&doc); err != nil {
			return nil, fmt.Errorf("firestore ListCharacters decode: %w", err)
		}
		list = append(list, toCharacter(domain.CharacterID(snap.Ref.ID), doc))
	}
	return list, nil
}

// ─────────────────────────────────────────
// MessageStore implementation
// ─────────────────────────────────────────

func (s *Store) AppendMessage(ctx context.Context, msg *domain.Message) error {
	doc := messageDoc{
		CharacterID: string(msg.CharacterID),
		Role:        string(msg.Role),
		Content:     msg.Content,
		CreatedAt:   msg.CreatedAt,
	}

	if _, err := s.messagesCol(msg.CharacterID).Doc(string(msg.ID)).Create(ctx, doc); err != nil {
		return fmt.Errorf("firestore AppendMessage: %w", err)
	}
	return nil
}

func (s *Store) ListMessages(ctx context.Context, id domain.CharacterID) ([]*domain.Message, error) {
	iter := s.messagesCol(id).OrderBy("created_at", firestore.Asc).Documents(ctx)
	defer iter.Stop()

	var list []*domain.Message
	for {
		snap, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("firestore ListMessages: %w", err)
		}

		var doc messageDoc
		if err := snap.DataTo(&doc); err != nil {
			return nil, fmt.Errorf("firestore ListMessages decode: %w", err)
		}

		list = append(list, &domain.Message{
			ID:          domain.MessageID(snap.Ref.ID),
			CharacterID: domain.CharacterID(doc.CharacterID),
			Role:        domain.ParseRole(doc.Role),
			Content:     doc.Content,
			CreatedAt:   doc.CreatedAt,
		})
	}
	return list, nil
}

func toCharacter(id domain.CharacterID, doc characterDoc) *domain.Character {
	return &domain.Character{
		ID:           id,
		DisplayName:  doc.DisplayName,
		Description:  doc.Description,
		AvatarRef:    doc.AvatarRef,
		SystemPrompt: doc.SystemPrompt,
		Greeting:     doc.Greeting,
	}
}
