package domain

import "context"

// CharacterCatalog lists the selectable personas. No pagination; a failed
// fetch is logged by the caller and degrades to an empty picker.
type CharacterCatalog interface {
	ListCharacters(ctx context.Context) ([]*Character, error)
}

// ConversationBackend is the session core's view of the chat service:
// history fetch and the send round trip, both opaque and possibly failing.
type ConversationBackend interface {
	// FetchHistory returns the persisted messages for a character,
	// oldest first.
	FetchHistory(ctx context.Context, id CharacterID) ([]*Message, error)

	// SendMessage delivers the user's text and returns the assistant's
	// reply text. Failures should carry a *SendError when the backend
	// provided a human-readable reason.
	SendMessage(ctx context.Context, id CharacterID, content string) (string, error)
}

// Navigator is the host's location mechanism reduced to the one thing the
// session controller writes: a single optional character-id parameter.
// An empty id encodes "no character selected". External navigation events
// (back/forward, deep links) flow the other way, into the controller.
type Navigator interface {
	Push(id CharacterID)
}

// DraftMedium is key/value text storage scoped to the browsing context,
// the shape of localStorage. Get reports absence via ok=false.
type DraftMedium interface {
	Get(key string) (value string, ok bool)
	Set(key, value string)
	Delete(key string)
}

// CharacterStore defines catalog persistence on the service side.
type CharacterStore interface {
	CreateCharacter(ctx context.Context, character *Character) error
	GetCharacter(ctx context.Context, id CharacterID) (*Character, error)
	ListCharacters(ctx context.Context) ([]*Character, error)
}

// MessageStore defines message persistence on the service side.
// Messages are append-only; listing is oldest first.
type MessageStore interface {
	AppendMessage(ctx context.Context, msg *Message) error
	ListMessages(ctx context.Context, id CharacterID) ([]*Message, error)
}

// PersonaLLM generates the assistant's reply in character.
type PersonaLLM interface {
	GenerateReply(ctx context.Context, character *Character, history []*Message, userText string) (string, error)
}
