package domain

// Character is an immutable catalog entry describing one selectable persona.
// The catalog owns these records; the session core only reads them.
type Character struct {
	ID           CharacterID
	DisplayName  string
	Description  string
	AvatarRef    string // URI, may be unreachable; purely presentational
	SystemPrompt string // persona instructions, opaque to the session core
	Greeting     string // shown when the history is empty
}

// Message is a single turn in a conversation (user or assistant).
type Message struct {
	ID          MessageID
	CharacterID CharacterID
	Role        Role
	Content     string
	CreatedAt   Timestamp
}

// Session is a read-only snapshot of the live conversation state for the
// currently selected character. All reads go through the controller's
// Snapshot; nothing hands out the mutable internals.
type Session struct {
	Character *Character
	History   []*Message
	Draft     string
	Pending   bool
	LastError string
}
