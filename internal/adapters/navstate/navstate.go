// Package navstate is an in-memory stand-in for the host's location
// mechanism: a history stack holding the single optional character-id
// parameter, with back/forward traversal for tests and embedded hosts.
package navstate

import (
	"sync"

	"github.com/PabloGalante/persona-chat/internal/domain"
)

// History implements domain.Navigator. Pushing while not at the newest
// entry truncates the forward entries, the way browser history does.
type History struct {
	mu      sync.Mutex
	entries []domain.CharacterID
	pos     int
}

func NewHistory() *History {
	// Start with one entry: no character encoded.
	return &History{entries: []domain.CharacterID{""}}
}

// Push records a new navigable state. Empty id means no character.
func (h *History) Push(id domain.CharacterID) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.entries = append(h.entries[:h.pos+1], id)
	h.pos = len(h.entries) - 1
}

// Current returns the character id encoded at the present position.
func (h *History) Current() domain.CharacterID {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.entries[h.pos]
}

// Back moves one entry backwards and returns the id there. ok=false when
// already at the oldest entry; the position does not move.
func (h *History) Back() (domain.CharacterID, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.pos == 0 {
		return "", false
	}
	h.pos--
	return h.entries[h.pos], true
}

// Forward moves one entry forwards and returns the id there. ok=false when
// already at the newest entry.
func (h *History) Forward() (domain.CharacterID, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.pos == len(h.entries)-1 {
		return "", false
	}
	h.pos++
	return h.entries[h.pos], true
}
