// Package session binds the selected character to navigable state and
// orchestrates the conversation cache and draft store when the selection
// changes.
package session

import (
	"context"
	"sync"

	"github.com/PabloGalante/persona-chat/internal/app/conversation"
	"github.com/PabloGalante/persona-chat/internal/app/draft"
	"github.com/PabloGalante/persona-chat/internal/domain"
	"github.com/PabloGalante/persona-chat/internal/observability"
)

// Controller is the single source of truth for which character, if any, is
// active, and the sole authority that may trigger a history (re)load.
//
// All state transitions are serialized through one mutex; collaborator
// round trips run outside it. Every selection change bumps a generation
// counter, and a round trip applies its result only if its generation is
// still current - late-arriving results for a stale selection are
// discarded, never aborted.
type Controller struct {
	mu sync.Mutex

	catalog domain.CharacterCatalog
	backend domain.ConversationBackend
	nav     domain.Navigator
	drafts  *draft.Store

	characters   []*domain.Character
	catalogReady bool
	deferredNav  *domain.CharacterID

	selected *domain.Character
	draftBuf string
	loadGen  uint64
	cache    *conversation.Cache
}

func NewController(
	catalog domain.CharacterCatalog,
	backend domain.ConversationBackend,
	nav domain.Navigator,
	drafts *draft.Store,
) *Controller {
	return &Controller{
		catalog: catalog,
		backend: backend,
		nav:     nav,
		drafts:  drafts,
		cache:   conversation.NewCache(),
	}
}

// LoadCatalog fetches the character list once. A failed fetch degrades to
// an empty picker and is not retried. Once the catalog is available, an
// external navigation that arrived too early is re-evaluated.
func (c *Controller) LoadCatalog(ctx context.Context) {
	chars, err := c.catalog.ListCharacters(ctx)
	if err != nil {
		observability.LoggerFromContext(ctx).Error("failed to fetch character catalog", "error", err)
		chars = nil
	}

	c.mu.Lock()
	c.characters = chars
	c.catalogReady = true
	deferred := c.deferredNav
	c.deferredNav = nil
	c.mu.Unlock()

	if deferred != nil {
		c.adopt(ctx, *deferred, false)
	}
}

// Characters returns the catalog snapshot for the picker.
func (c *Controller) Characters() []*domain.Character {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]*domain.Character, len(c.characters))
	copy(out, c.characters)
	return out
}

// CatalogReady reports whether the catalog fetch has resolved (even if it
// resolved to an empty list).
func (c *Controller) CatalogReady() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.catalogReady
}

// SelectCharacter sets the selection, pushes navigable state encoding the
// id, restores the character's draft and loads its history. No-op if the
// id is already selected or unknown to the catalog.
func (c *Controller) SelectCharacter(ctx context.Context, id domain.CharacterID) {
	c.adopt(ctx, id, true)
}

// ClearSelection drops the active character and pushes navigable state
// with no character encoded. The in-memory history and draft are cleared;
// the persisted draft entry is untouched.
func (c *Controller) ClearSelection() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.clearLocked(true)
}

// HandleNavigation reconciles an externally triggered navigation event
// (back/forward, deep link, or a re-dispatch after the catalog resolved)
// against the current selection. Empty id means no character encoded.
//
// The reconciliation is idempotent: applying it repeatedly with unchanged
// inputs produces no further transitions, and it never writes navigable
// state itself.
func (c *Controller) HandleNavigation(ctx context.Context, id domain.CharacterID) {
	c.mu.Lock()

	if id == "" {
		c.deferredNav = nil
		if c.selected != nil {
			c.clearLocked(false)
		}
		c.mu.Unlock()
		return
	}

	if !c.catalogReady {
		// "Not yet found" is not "not found": remember the id and
		// re-evaluate when the catalog resolves.
		nav := id
		c.deferredNav = &nav
		c.mu.Unlock()
		return
	}

	if c.selected != nil && c.selected.ID == id {
		c.mu.Unlock()
		return
	}
	c.mu.Unlock()

	c.adopt(ctx, id, false)
}

// SetDraft records the in-progress input for the active character, both in
// memory and in the draft store. Called on every edit.
func (c *Controller) SetDraft(text string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.selected == nil {
		return
	}
	c.draftBuf = text
	c.drafts.Save(c.selected.ID, text)
}

// Send runs the optimistic send protocol for the active character. It is a
// silent no-op when no character is selected, the trimmed text is empty,
// or a send is already pending.
func (c *Controller) Send(ctx context.Context, text string) {
	c.mu.Lock()
	if c.selected == nil {
		c.mu.Unlock()
		return
	}
	trimmed, ok := c.cache.BeginSend(text)
	if !ok {
		c.mu.Unlock()
		return
	}
	id := c.selected.ID
	gen := c.loadGen
	c.mu.Unlock()

	reply, err := c.backend.SendMessage(ctx, id, trimmed)

	c.mu.Lock()
	defer c.mu.Unlock()

	if gen != c.loadGen {
		// Selection changed while the send was in flight; the cache
		// already holds the new character's state.
		observability.LoggerFromContext(ctx).Warn("discarding stale send result", "character_id", id)
		return
	}

	if err != nil {
		observability.LoggerFromContext(ctx).Error("send rejected", "character_id", id, "error", err)
		c.cache.FailSend(err)
		return
	}

	c.cache.CompleteSend(id, trimmed, reply)
	c.draftBuf = ""
	c.drafts.Clear(id)
}

// Snapshot returns the live session state as a value. There is exactly one
// session at a time; callers read it through here rather than through any
// shared mutable state.
func (c *Controller) Snapshot() domain.Session {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := domain.Session{
		History:   c.cache.History(),
		Draft:     c.draftBuf,
		Pending:   c.cache.Pending(),
		LastError: c.cache.LastError(),
	}
	if c.selected != nil {
		ch := *c.selected
		s.Character = &ch
	}
	return s
}

// adopt makes id the active character. pushNav distinguishes a deliberate
// selection (which writes navigable state) from reconciliation of an
// external navigation (which must not, or back/forward would loop).
func (c *Controller) adopt(ctx context.Context, id domain.CharacterID, pushNav bool) {
	log := observability.LoggerFromContext(ctx)

	c.mu.Lock()
	if c.selected != nil && c.selected.ID == id {
		c.mu.Unlock()
		return
	}

	ch := c.lookupLocked(id)
	if ch == nil {
		c.mu.Unlock()
		log.Warn("ignoring selection of unknown character", "character_id", id)
		return
	}

	c.selected = ch
	c.loadGen++
	gen := c.loadGen
	c.cache.Reset()
	c.draftBuf = c.drafts.Restore(id)
	if pushNav {
		c.nav.Push(id)
	}
	c.mu.Unlock()

	msgs, err := c.backend.FetchHistory(ctx, id)

	c.mu.Lock()
	defer c.mu.Unlock()

	if gen != c.loadGen {
		log.Info("discarding stale history load", "character_id", id)
		return
	}

	if err != nil {
		log.Error("failed to load history", "character_id", id, "error", err)
		c.cache.FailLoad()
		return
	}
	c.cache.ApplyHistory(ch.Greeting, msgs)
}

func (c *Controller) clearLocked(pushNav bool) {
	if c.selected == nil && pushNav {
		c.nav.Push("")
		return
	}
	c.selected = nil
	c.loadGen++
	c.cache.Reset()
	c.draftBuf = ""
	if pushNav {
		c.nav.Push("")
	}
}

func (c *Controller) lookupLocked(id domain.CharacterID) *domain.Character {
	for _, ch := range c.characters {
		if ch.ID == id {
			return ch
		}
	}
	return nil
}
