// Package conversation holds the message history for the active character
// and implements the optimistic-append/rollback protocol around the send
// round trip.
package conversation

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/PabloGalante/persona-chat/internal/domain"
)

// historyLoadNotice is surfaced on the session when the history fetch
// fails. Non-fatal: the user can re-select the character to retry.
const historyLoadNotice = "Couldn't load the conversation history."

// Cache is a passive state machine: it performs no I/O and is not safe for
// concurrent use. The session controller serializes every transition and
// runs the network round trips between them.
type Cache struct {
	now   func() time.Time
	newID func() domain.MessageID

	history   []*domain.Message
	pending   bool
	lastError string
}

func NewCache() *Cache {
	return &Cache{
		now: time.Now,
		newID: func() domain.MessageID {
			return domain.MessageID(uuid.NewString())
		},
	}
}

// History returns a copy of the current message sequence, append-ordered.
func (c *Cache) History() []*domain.Message {
	out := make([]*domain.Message, len(c.history))
	copy(out, c.history)
	return out
}

func (c *Cache) Pending() bool {
	return c.pending
}

func (c *Cache) LastError() string {
	return c.lastError
}

// Reset drops all conversation state. Called when the selection changes or
// is cleared; any in-flight round trip for the old character will find its
// generation stale and discard itself.
func (c *Cache) Reset() {
	c.history = nil
	c.pending = false
	c.lastError = ""
}

// ApplyHistory installs a fetched history. An empty fetch for a character
// with a greeting seeds a single synthetic assistant message in the
// reserved namespace; it is never persisted and never re-sent.
func (c *Cache) ApplyHistory(greeting string, msgs []*domain.Message) {
	if len(msgs) == 0 {
		if greeting == "" {
			c.history = nil
			return
		}
		c.history = []*domain.Message{{
			ID:        domain.GreetingID,
			Role:      domain.RoleAssistant,
			Content:   greeting,
			CreatedAt: c.now(),
		}}
		return
	}

	c.history = make([]*domain.Message, len(msgs))
	copy(c.history, msgs)
}

// FailLoad degrades to an empty history and leaves a non-blocking notice.
func (c *Cache) FailLoad() {
	c.history = nil
	c.lastError = historyLoadNotice
}

// BeginSend is the optimistic half of the send protocol: it validates the
// preconditions, appends the provisional user message and raises the
// single in-flight guard. A violated precondition is a silent no-op
// (ok=false) - callers disable the send affordance instead.
func (c *Cache) BeginSend(text string) (trimmed string, ok bool) {
	trimmed = strings.TrimSpace(text)
	if trimmed == "" || c.pending {
		return "", false
	}

	c.history = append(c.history, &domain.Message{
		ID:        domain.ProvisionalUserID,
		Role:      domain.RoleUser,
		Content:   trimmed,
		CreatedAt: c.now(),
	})
	c.pending = true
	c.lastError = ""
	return trimmed, true
}

// CompleteSend commits a successful round trip: the provisional message is
// replaced by a finalized user message and the assistant's reply is
// appended after it.
func (c *Cache) CompleteSend(characterID domain.CharacterID, userText, reply string) {
	c.dropProvisional()

	now := c.now()
	c.history = append(c.history,
		&domain.Message{
			ID:          c.newID(),
			CharacterID: characterID,
			Role:        domain.RoleUser,
			Content:     userText,
			CreatedAt:   now,
		},
		&domain.Message{
			ID:          c.newID(),
			CharacterID: characterID,
			Role:        domain.RoleAssistant,
			Content:     reply,
			CreatedAt:   now,
		},
	)
	c.pending = false
}

// FailSend rolls back the optimistic append and records the user-visible
// reason. The draft is untouched: it still holds the text, having been
// written continuously while the user typed.
func (c *Cache) FailSend(err error) {
	c.dropProvisional()
	c.pending = false
	c.lastError = domain.SendReason(err)
}

// dropProvisional removes the provisional message by its reserved id, not
// by position; the history can only have changed shape by that one append
// while the guard was up.
func (c *Cache) dropProvisional() {
	kept := c.history[:0]
	for _, m := range c.history {
		if m.ID != domain.ProvisionalUserID {
			kept = append(kept, m)
		}
	}
	c.history = kept
}
