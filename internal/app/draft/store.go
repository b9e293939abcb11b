// Package draft keeps the per-character scratch buffer for unsent input.
// Switching characters and coming back restores exactly what was being
// typed, across full reloads of the host surface.
package draft

import (
	"github.com/PabloGalante/persona-chat/internal/domain"
)

const keyPrefix = "draft:"

// Store namespaces a DraftMedium by character id. Writes happen on every
// edit, so they go straight through without batching; the medium is
// expected to be cheap.
type Store struct {
	medium domain.DraftMedium
}

func NewStore(medium domain.DraftMedium) *Store {
	return &Store{medium: medium}
}

// Restore returns the last-saved draft for the character, or "" if none.
// It never fails: an absent entry and an empty draft are the same thing.
func (s *Store) Restore(id domain.CharacterID) string {
	text, _ := s.medium.Get(key(id))
	return text
}

// Save persists text keyed by character id. Saving an empty string removes
// the entry instead; only non-empty drafts are worth keeping, and this
// stops a stale draft from outliving the text it belonged to.
func (s *Store) Save(id domain.CharacterID, text string) {
	if text == "" {
		s.medium.Delete(key(id))
		return
	}
	s.medium.Set(key(id), text)
}

// Clear removes the persisted entry. Called once, on successful send commit.
func (s *Store) Clear(id domain.CharacterID) {
	s.medium.Delete(key(id))
}

func key(id domain.CharacterID) string {
	return keyPrefix + string(id)
}
