package session_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/PabloGalante/persona-chat/internal/adapters/draftmedium"
	"github.com/PabloGalante/persona-chat/internal/app/draft"
	"github.com/PabloGalante/persona-chat/internal/app/session"
	"github.com/PabloGalante/persona-chat/internal/domain"
)

// ─────────────────────────────────────────────
// Fakes
// ─────────────────────────────────────────────

type fakeCatalog struct {
	characters []*domain.Character
	err        error
}

func (f *fakeCatalog) ListCharacters(ctx context.Context) ([]*domain.Character, error) {
	return f.characters, f.err
}

// fakeBackend serves canned histories and replies. Tests that need to hold
// a round trip open install a gate channel; the fake signals "entered" and
// then blocks until the gate closes.
type fakeBackend struct {
	mu sync.Mutex

	histories   map[domain.CharacterID][]*domain.Message
	historyErr  error
	fetchCounts map[domain.CharacterID]int
	fetchGate   map[domain.CharacterID]chan struct{}
	fetchEnter  map[domain.CharacterID]chan struct{}

	reply     string
	sendErr   error
	sent      []string
	sendGate  chan struct{}
	sendEnter chan struct{}
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		histories:   make(map[domain.CharacterID][]*domain.Message),
		fetchCounts: make(map[domain.CharacterID]int),
		fetchGate:   make(map[domain.CharacterID]chan struct{}),
		fetchEnter:  make(map[domain.CharacterID]chan struct{}),
		reply:       "ok",
	}
}

func (f *fakeBackend) gateFetch(id domain.CharacterID) (entered, gate chan struct{}) {
	f.mu.Lock()
	defer f.mu.Unlock()

	entered = make(chan struct{})
	gate = make(chan struct{})
	f.fetchEnter[id] = entered
	f.fetchGate[id] = gate
	return entered, gate
}

func (f *fakeBackend) gateSend() (entered, gate chan struct{}) {
	f.mu.Lock()
	defer f.mu.Unlock()

	entered = make(chan struct{})
	gate = make(chan struct{})
	f.sendEnter = entered
	f.sendGate = gate
	return entered, gate
}

func (f *fakeBackend) FetchHistory(ctx context.Context, id domain.CharacterID) ([]*domain.Message, error) {
	f.mu.Lock()
	f.fetchCounts[id]++
	hist := f.histories[id]
	err := f.historyErr
	entered := f.fetchEnter[id]
	gate := f.fetchGate[id]
	delete(f.fetchEnter, id)
	delete(f.fetchGate, id)
	f.mu.Unlock()

	if entered != nil {
		close(entered)
	}
	if gate != nil {
		<-gate
	}
	return hist, err
}

func (f *fakeBackend) SendMessage(ctx context.Context, id domain.CharacterID, content string) (string, error) {
	f.mu.Lock()
	f.sent = append(f.sent, content)
	reply := f.reply
	err := f.sendErr
	entered := f.sendEnter
	gate := f.sendGate
	f.sendEnter = nil
	f.sendGate = nil
	f.mu.Unlock()

	if entered != nil {
		close(entered)
	}
	if gate != nil {
		<-gate
	}
	return reply, err
}

type fakeNav struct {
	mu     sync.Mutex
	pushes []domain.CharacterID
}

func (n *fakeNav) Push(id domain.CharacterID) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.pushes = append(n.pushes, id)
}

func (n *fakeNav) Pushes() []domain.CharacterID {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]domain.CharacterID, len(n.pushes))
	copy(out, n.pushes)
	return out
}

// ─────────────────────────────────────────────
// Fixture
// ─────────────────────────────────────────────

type fixture struct {
	ctrl    *session.Controller
	backend *fakeBackend
	nav     *fakeNav
	medium  *draftmedium.Memory
	drafts  *draft.Store
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	catalog := &fakeCatalog{characters: []*domain.Character{
		{ID: "char-a", DisplayName: "Troodon", Greeting: "Hello from A"},
		{ID: "char-b", DisplayName: "Velociraptor"},
	}}
	backend := newFakeBackend()
	nav := &fakeNav{}
	medium := draftmedium.NewMemory()
	drafts := draft.NewStore(medium)

	return &fixture{
		ctrl:    session.NewController(catalog, backend, nav, drafts),
		backend: backend,
		nav:     nav,
		medium:  medium,
		drafts:  drafts,
	}
}

func (fx *fixture) loadCatalog(t *testing.T) {
	t.Helper()
	fx.ctrl.LoadCatalog(context.Background())
	require.True(t, fx.ctrl.CatalogReady())
}

// ─────────────────────────────────────────────
// Selection and catalog
// ─────────────────────────────────────────────

func TestSelectCharacterLoadsHistoryAndPushesNav(t *testing.T) {
	fx := newFixture(t)
	fx.loadCatalog(t)
	fx.backend.histories["char-b"] = []*domain.Message{
		{ID: "b1", Role: domain.RoleUser, Content: "old"},
		{ID: "b2", Role: domain.RoleAssistant, Content: "older reply"},
	}

	fx.ctrl.SelectCharacter(context.Background(), "char-b")

	snap := fx.ctrl.Snapshot()
	require.NotNil(t, snap.Character)
	require.Equal(t, domain.CharacterID("char-b"), snap.Character.ID)
	require.Len(t, snap.History, 2)
	require.Equal(t, []domain.CharacterID{"char-b"}, fx.nav.Pushes())
}

func TestSelectSameCharacterIsNoOp(t *testing.T) {
	fx := newFixture(t)
	fx.loadCatalog(t)

	fx.ctrl.SelectCharacter(context.Background(), "char-a")
	fx.ctrl.SelectCharacter(context.Background(), "char-a")

	require.Equal(t, 1, fx.backend.fetchCounts["char-a"])
	require.Equal(t, []domain.CharacterID{"char-a"}, fx.nav.Pushes())
}

func TestStaleHistoryLoadIsDiscarded(t *testing.T) {
	fx := newFixture(t)
	fx.loadCatalog(t)
	fx.backend.histories["char-a"] = []*domain.Message{{ID: "a1", Role: domain.RoleUser, Content: "from A"}}
	fx.backend.histories["char-b"] = []*domain.Message{{ID: "b1", Role: domain.RoleUser, Content: "from B"}}

	entered, gate := fx.backend.gateFetch("char-a")

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		fx.ctrl.SelectCharacter(context.Background(), "char-a")
	}()
	<-entered

	// B is selected while A's load is still in flight; A's late result
	// must never be applied.
	fx.ctrl.SelectCharacter(context.Background(), "char-b")
	close(gate)
	wg.Wait()

	snap := fx.ctrl.Snapshot()
	require.Equal(t, domain.CharacterID("char-b"), snap.Character.ID)
	require.Len(t, snap.History, 1)
	require.Equal(t, domain.MessageID("b1"), snap.History[0].ID)
}

func TestGreetingSynthesisOnEmptyHistory(t *testing.T) {
	fx := newFixture(t)
	fx.loadCatalog(t)

	fx.ctrl.SelectCharacter(context.Background(), "char-a")
	snap := fx.ctrl.Snapshot()
	require.Len(t, snap.History, 1)
	require.Equal(t, domain.GreetingID, snap.History[0].ID)
	require.Equal(t, domain.RoleAssistant, snap.History[0].Role)
	require.Equal(t, "Hello from A", snap.History[0].Content)

	// A character with no greeting and an empty history renders nothing.
	fx.ctrl.SelectCharacter(context.Background(), "char-b")
	require.Empty(t, fx.ctrl.Snapshot().History)
}

func TestHistoryLoadFailureDegradesToEmpty(t *testing.T) {
	fx := newFixture(t)
	fx.loadCatalog(t)
	fx.backend.historyErr = errors.New("backend down")

	fx.ctrl.SelectCharacter(context.Background(), "char-a")

	snap := fx.ctrl.Snapshot()
	require.Equal(t, domain.CharacterID("char-a"), snap.Character.ID)
	require.Empty(t, snap.History)
	require.NotEmpty(t, snap.LastError)
}

func TestCatalogFailureDegradesToEmptyPicker(t *testing.T) {
	backend := newFakeBackend()
	ctrl := session.NewController(
		&fakeCatalog{err: errors.New("catalog down")},
		backend,
		&fakeNav{},
		draft.NewStore(draftmedium.NewMemory()),
	)

	ctrl.LoadCatalog(context.Background())

	require.True(t, ctrl.CatalogReady())
	require.Empty(t, ctrl.Characters())
}

func TestClearSelectionResetsSessionButKeepsStoredDraft(t *testing.T) {
	fx := newFixture(t)
	fx.loadCatalog(t)

	fx.ctrl.SelectCharacter(context.Background(), "char-a")
	fx.ctrl.SetDraft("keep me")
	fx.ctrl.ClearSelection()

	snap := fx.ctrl.Snapshot()
	require.Nil(t, snap.Character)
	require.Empty(t, snap.History)
	require.Equal(t, "", snap.Draft)
	require.Equal(t, []domain.CharacterID{"char-a", ""}, fx.nav.Pushes())

	// The persisted entry is untouched.
	require.Equal(t, "keep me", fx.drafts.Restore("char-a"))
}

// ─────────────────────────────────────────────
// External navigation reconciliation
// ─────────────────────────────────────────────

func TestNavigationAdoptsKnownCharacter(t *testing.T) {
	fx := newFixture(t)
	fx.loadCatalog(t)

	fx.ctrl.HandleNavigation(context.Background(), "char-b")

	snap := fx.ctrl.Snapshot()
	require.Equal(t, domain.CharacterID("char-b"), snap.Character.ID)
	// Reconciliation never writes navigable state itself.
	require.Empty(t, fx.nav.Pushes())
}

func TestNavigationReconciliationIsIdempotent(t *testing.T) {
	fx := newFixture(t)
	fx.loadCatalog(t)

	for range 3 {
		fx.ctrl.HandleNavigation(context.Background(), "char-a")
	}

	require.Equal(t, 1, fx.backend.fetchCounts["char-a"])
	require.Empty(t, fx.nav.Pushes())
}

func TestNavigationUnknownIdIsIgnored(t *testing.T) {
	fx := newFixture(t)
	fx.loadCatalog(t)

	fx.ctrl.HandleNavigation(context.Background(), "char-z")

	require.Nil(t, fx.ctrl.Snapshot().Character)
}

func TestNavigationEmptyClearsSelection(t *testing.T) {
	fx := newFixture(t)
	fx.loadCatalog(t)

	fx.ctrl.SelectCharacter(context.Background(), "char-a")
	fx.ctrl.HandleNavigation(context.Background(), "")

	require.Nil(t, fx.ctrl.Snapshot().Character)
	// Only the deliberate selection wrote navigable state.
	require.Equal(t, []domain.CharacterID{"char-a"}, fx.nav.Pushes())
}

func TestNavigationDeferredUntilCatalogLoads(t *testing.T) {
	fx := newFixture(t)

	// Deep link arrives before the catalog resolves: "not yet found"
	// must not be treated as "not found".
	fx.ctrl.HandleNavigation(context.Background(), "char-a")
	require.Nil(t, fx.ctrl.Snapshot().Character)

	fx.loadCatalog(t)

	snap := fx.ctrl.Snapshot()
	require.NotNil(t, snap.Character)
	require.Equal(t, domain.CharacterID("char-a"), snap.Character.ID)
	require.Empty(t, fx.nav.Pushes())
}

func TestDeferredNavigationOverriddenByLaterEvent(t *testing.T) {
	fx := newFixture(t)

	fx.ctrl.HandleNavigation(context.Background(), "char-a")
	fx.ctrl.HandleNavigation(context.Background(), "")
	fx.loadCatalog(t)

	require.Nil(t, fx.ctrl.Snapshot().Character)
}

// ─────────────────────────────────────────────
// Drafts
// ─────────────────────────────────────────────

func TestDraftSurvivesCharacterSwitch(t *testing.T) {
	fx := newFixture(t)
	fx.loadCatalog(t)

	fx.ctrl.SelectCharacter(context.Background(), "char-a")
	fx.ctrl.SetDraft("Hello")

	fx.ctrl.SelectCharacter(context.Background(), "char-b")
	require.Equal(t, "", fx.ctrl.Snapshot().Draft)

	fx.ctrl.SelectCharacter(context.Background(), "char-a")
	require.Equal(t, "Hello", fx.ctrl.Snapshot().Draft)
}

func TestSetDraftWithoutSelectionIsNoOp(t *testing.T) {
	fx := newFixture(t)
	fx.loadCatalog(t)

	fx.ctrl.SetDraft("lost")

	require.Equal(t, "", fx.ctrl.Snapshot().Draft)
	require.Equal(t, "", fx.drafts.Restore("char-a"))
}

// ─────────────────────────────────────────────
// Send protocol
// ─────────────────────────────────────────────

func TestSendSuccessCommitsPairAndClearsDraft(t *testing.T) {
	fx := newFixture(t)
	fx.loadCatalog(t)
	fx.backend.reply = "Hi there!"

	fx.ctrl.SelectCharacter(context.Background(), "char-a")
	fx.ctrl.SetDraft("Hi")
	fx.ctrl.Send(context.Background(), "Hi")

	snap := fx.ctrl.Snapshot()
	require.False(t, snap.Pending)
	require.Empty(t, snap.LastError)

	n := len(snap.History)
	require.GreaterOrEqual(t, n, 2)
	require.Equal(t, domain.RoleUser, snap.History[n-2].Role)
	require.Equal(t, "Hi", snap.History[n-2].Content)
	require.Equal(t, domain.RoleAssistant, snap.History[n-1].Role)
	require.Equal(t, "Hi there!", snap.History[n-1].Content)

	require.Equal(t, "", snap.Draft)
	require.Equal(t, "", fx.drafts.Restore("char-a"))
}

func TestSendFailurePreservesHistoryAndDraft(t *testing.T) {
	fx := newFixture(t)
	fx.loadCatalog(t)
	fx.backend.histories["char-b"] = []*domain.Message{
		{ID: "b1", Role: domain.RoleUser, Content: "before"},
	}
	fx.backend.sendErr = &domain.SendError{Reason: "model is overloaded"}

	fx.ctrl.SelectCharacter(context.Background(), "char-b")
	before := fx.ctrl.Snapshot().History

	fx.ctrl.SetDraft("doomed")
	fx.ctrl.Send(context.Background(), "doomed")

	snap := fx.ctrl.Snapshot()
	require.False(t, snap.Pending)
	require.Equal(t, before, snap.History)
	require.Equal(t, "model is overloaded", snap.LastError)

	// The draft still holds the text; it was written while typing.
	require.Equal(t, "doomed", snap.Draft)
	require.Equal(t, "doomed", fx.drafts.Restore("char-b"))
}

func TestSecondSendWhilePendingIsNoOp(t *testing.T) {
	fx := newFixture(t)
	fx.loadCatalog(t)
	fx.ctrl.SelectCharacter(context.Background(), "char-b")

	entered, gate := fx.backend.gateSend()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		fx.ctrl.Send(context.Background(), "first")
	}()
	<-entered

	require.True(t, fx.ctrl.Snapshot().Pending)
	fx.ctrl.Send(context.Background(), "second")
	close(gate)
	wg.Wait()

	// Exactly one round trip and one committed pair.
	require.Equal(t, []string{"first"}, fx.backend.sent)
	snap := fx.ctrl.Snapshot()
	require.Len(t, snap.History, 2)
	require.Equal(t, "first", snap.History[0].Content)
}

func TestSendWithoutSelectionIsNoOp(t *testing.T) {
	fx := newFixture(t)
	fx.loadCatalog(t)

	fx.ctrl.Send(context.Background(), "nobody home")

	require.Empty(t, fx.backend.sent)
}

func TestSendBlankTextIsNoOp(t *testing.T) {
	fx := newFixture(t)
	fx.loadCatalog(t)
	fx.ctrl.SelectCharacter(context.Background(), "char-b")

	fx.ctrl.Send(context.Background(), "   \n ")

	require.Empty(t, fx.backend.sent)
	require.Empty(t, fx.ctrl.Snapshot().History)
}
