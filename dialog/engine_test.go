package dialog

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStore struct {
	actions    map[string][]Action
	recordErr  error
	clearErr   error
	degraded   bool
	clearCalls int
}

func newFakeStore() *fakeStore {
	return &fakeStore{actions: make(map[string][]Action)}
}

func (s *fakeStore) RecordAction(_ context.Context, userID string, action Action) error {
	if s.recordErr != nil {
		return s.recordErr
	}
	s.actions[userID] = append(s.actions[userID], action)
	return nil
}

func (s *fakeStore) LastAction(_ context.Context, userID string) Action {
	if s.degraded {
		return ActionUnknown
	}
	log := s.actions[userID]
	if len(log) == 0 {
		return ActionUnknown
	}
	return log[len(log)-1]
}

func (s *fakeStore) ClearHistory(_ context.Context, userID string) error {
	s.clearCalls++
	if s.clearErr != nil {
		return s.clearErr
	}
	delete(s.actions, userID)
	return nil
}

func (s *fakeStore) recorded(userID string) []Action {
	return s.actions[userID]
}

type fakeGateway struct {
	definitions map[string]string
	outage      bool
	queries     []string
}

func (g *fakeGateway) Define(_ context.Context, query string) DefinitionResult {
	g.queries = append(g.queries, query)
	if g.outage {
		return DefinitionResult{}
	}
	text, ok := g.definitions[query]
	if !ok {
		return DefinitionResult{}
	}
	return DefinitionResult{Found: true, Text: text}
}

func newEngine(store ConversationStore, gateway LookupGateway) *Engine {
	return NewEngine(store, gateway, Options{})
}

func TestTextWithoutStartKeywordWhenIdleIsUnrecognized(t *testing.T) {
	store := newFakeStore()
	engine := newEngine(store, &fakeGateway{})

	out := engine.Handle(context.Background(), Event{Kind: KindText, UserID: "U1", Body: "halo bot"})

	assert.Equal(t, OutcomeUnrecognized, out.Kind)
	assert.Empty(t, store.recorded("U1"), "unrecognized input must not persist an action")
}

func TestStartKeywordTextWhenIdlePrompts(t *testing.T) {
	store := newFakeStore()
	engine := newEngine(store, &fakeGateway{})

	out := engine.Handle(context.Background(), Event{Kind: KindText, UserID: "U1", Body: "mulai"})

	assert.Equal(t, OutcomePromptForQuery, out.Kind)
	require.Len(t, store.recorded("U1"), 1)
	assert.Equal(t, ActionStartRequested, store.recorded("U1")[0])
}

func TestStartKeywordMatchIsCaseInsensitiveSubstring(t *testing.T) {
	store := newFakeStore()
	engine := newEngine(store, &fakeGateway{})

	out := engine.Handle(context.Background(), Event{Kind: KindText, UserID: "U1", Body: "Ayo MULAI sekarang"})

	assert.Equal(t, OutcomePromptForQuery, out.Kind)
}

func TestPostbackStartAlwaysPromptsRegardlessOfState(t *testing.T) {
	for name, prior := range map[string][]Action{
		"no history":      nil,
		"after start":     {ActionStartRequested},
		"after lookup":    {ActionStartRequested, ActionLookupPerformed},
		"historic joined": {ActionJoined},
	} {
		t.Run(name, func(t *testing.T) {
			store := newFakeStore()
			store.actions["U1"] = append([]Action(nil), prior...)
			engine := newEngine(store, &fakeGateway{})

			out := engine.Handle(context.Background(), Event{Kind: KindPostback, UserID: "U1", Body: "mulai"})

			assert.Equal(t, OutcomePromptForQuery, out.Kind)
			recorded := store.recorded("U1")
			require.NotEmpty(t, recorded)
			assert.Equal(t, ActionStartRequested, recorded[len(recorded)-1])
		})
	}
}

func TestUnknownPostbackPayloadIsUnrecognized(t *testing.T) {
	store := newFakeStore()
	engine := newEngine(store, &fakeGateway{})

	out := engine.Handle(context.Background(), Event{Kind: KindPostback, UserID: "U1", Body: "cari_kata_lain"})

	assert.Equal(t, OutcomeUnrecognized, out.Kind)
	assert.Empty(t, store.recorded("U1"))
}

func TestAwaitingQueryTreatsStartKeywordAsQuery(t *testing.T) {
	store := newFakeStore()
	store.actions["U1"] = []Action{ActionStartRequested}
	gateway := &fakeGateway{definitions: map[string]string{"mulai": "memulai; mengawali"}}
	engine := newEngine(store, gateway)

	out := engine.Handle(context.Background(), Event{Kind: KindText, UserID: "U1", Body: "mulai"})

	assert.Equal(t, OutcomeLookupResult, out.Kind)
	assert.Equal(t, "mulai", out.Query)
	assert.Equal(t, "memulai; mengawali", out.Definition)
}

func TestLookupPerformedKeepsAwaitingQuery(t *testing.T) {
	store := newFakeStore()
	store.actions["U1"] = []Action{ActionStartRequested, ActionLookupPerformed}
	gateway := &fakeGateway{definitions: map[string]string{"makan": "memasukkan makanan"}}
	engine := newEngine(store, gateway)

	out := engine.Handle(context.Background(), Event{Kind: KindText, UserID: "U1", Body: "makan"})

	assert.Equal(t, OutcomeLookupResult, out.Kind)
	recorded := store.recorded("U1")
	assert.Equal(t, ActionLookupPerformed, recorded[len(recorded)-1])
}

func TestStartThenQueryScenario(t *testing.T) {
	store := newFakeStore()
	gateway := &fakeGateway{definitions: map[string]string{"rumah": "tempat tinggal"}}
	engine := newEngine(store, gateway)
	ctx := context.Background()

	first := engine.Handle(ctx, Event{Kind: KindPostback, UserID: "U1", Body: "mulai"})
	require.Equal(t, OutcomePromptForQuery, first.Kind)

	second := engine.Handle(ctx, Event{Kind: KindText, UserID: "U1", Body: "rumah"})
	require.Equal(t, OutcomeLookupResult, second.Kind)
	assert.Equal(t, "rumah", second.Query)
	assert.Equal(t, "tempat tinggal", second.Definition)
	assert.Equal(t, []Action{ActionStartRequested, ActionLookupPerformed}, store.recorded("U1"))
}

func TestLookupOutageUsesFallbackTextAndStillAdvances(t *testing.T) {
	store := newFakeStore()
	store.actions["U1"] = []Action{ActionStartRequested}
	gateway := &fakeGateway{outage: true}
	engine := newEngine(store, gateway)

	out := engine.Handle(context.Background(), Event{Kind: KindText, UserID: "U1", Body: "xyz-nonexistent"})

	assert.Equal(t, OutcomeLookupResult, out.Kind)
	assert.Equal(t, LookupFallbackText, out.Definition)
	recorded := store.recorded("U1")
	assert.Equal(t, ActionLookupPerformed, recorded[len(recorded)-1], "a failed lookup still advances the conversation")
}

func TestEmptyQueryIsStillForwarded(t *testing.T) {
	store := newFakeStore()
	store.actions["U1"] = []Action{ActionStartRequested}
	gateway := &fakeGateway{}
	engine := newEngine(store, gateway)

	out := engine.Handle(context.Background(), Event{Kind: KindText, UserID: "U1", Body: "   "})

	assert.Equal(t, OutcomeLookupResult, out.Kind)
	require.Len(t, gateway.queries, 1)
	assert.Equal(t, "   ", gateway.queries[0])
	assert.Equal(t, LookupFallbackText, out.Definition)
}

func TestJoinGreetsWithoutRecording(t *testing.T) {
	store := newFakeStore()
	engine := newEngine(store, &fakeGateway{})

	out := engine.Handle(context.Background(), Event{Kind: KindJoin, UserID: "U1"})

	assert.Equal(t, OutcomeGreeting, out.Kind)
	assert.Equal(t, "U1", out.UserID)
	assert.Empty(t, store.recorded("U1"))
}

func TestLeaveClearsHistoryAndIsIdempotent(t *testing.T) {
	store := newFakeStore()
	store.actions["U1"] = []Action{ActionStartRequested}
	engine := newEngine(store, &fakeGateway{})
	ctx := context.Background()

	out := engine.Handle(ctx, Event{Kind: KindLeave, UserID: "U1"})
	assert.Equal(t, OutcomeNoReply, out.Kind)
	assert.Equal(t, ActionUnknown, store.LastAction(ctx, "U1"))

	// Replaying the same leave is a no-op, not an error.
	out = engine.Handle(ctx, Event{Kind: KindLeave, UserID: "U1"})
	assert.Equal(t, OutcomeNoReply, out.Kind)
	assert.Equal(t, 2, store.clearCalls)
}

func TestStoreWriteFailureStillReplies(t *testing.T) {
	store := newFakeStore()
	store.recordErr = errors.New("connection refused")
	engine := newEngine(store, &fakeGateway{})

	out := engine.Handle(context.Background(), Event{Kind: KindPostback, UserID: "U1", Body: "mulai"})

	assert.Equal(t, OutcomePromptForQuery, out.Kind, "best-effort delivery: the reply survives the failed write")
}

func TestStoreReadDegradesToIdle(t *testing.T) {
	store := newFakeStore()
	store.actions["U1"] = []Action{ActionStartRequested}
	store.degraded = true
	engine := newEngine(store, &fakeGateway{})

	out := engine.Handle(context.Background(), Event{Kind: KindText, UserID: "U1", Body: "rumah"})

	// With the read degraded to unknown the user looks idle, so plain text
	// falls back to guidance instead of a lookup.
	assert.Equal(t, OutcomeUnrecognized, out.Kind)
}

func TestOtherAndAnonymousEventsProduceNoReply(t *testing.T) {
	store := newFakeStore()
	engine := newEngine(store, &fakeGateway{})
	ctx := context.Background()

	assert.Equal(t, OutcomeNoReply, engine.Handle(ctx, Event{Kind: KindOther}).Kind)
	assert.Equal(t, OutcomeNoReply, engine.Handle(ctx, Event{Kind: KindText, Body: "halo"}).Kind)
}
