package dialog

import (
	"context"
	"log/slog"
	"time"

	"github.com/ekoyudhi/kamusbot/core/logger"
)

// LookupFallbackText is shown in place of a definition when the provider
// reports not-found or is unavailable.
const LookupFallbackText = "Error / Tidak ditemukan"

// OutcomeKind tags the reply the engine decided to produce.
type OutcomeKind int

const (
	// OutcomeNoReply means no outbound message is sent.
	OutcomeNoReply OutcomeKind = iota
	// OutcomeGreeting is the static welcome reply.
	OutcomeGreeting
	// OutcomePromptForQuery asks the user to type a search term.
	OutcomePromptForQuery
	// OutcomeLookupResult carries a query and its definition text.
	OutcomeLookupResult
	// OutcomeUnrecognized is the guidance reply for input the dialog cannot
	// route.
	OutcomeUnrecognized
)

// String returns the log-friendly name of the outcome kind.
func (k OutcomeKind) String() string {
	switch k {
	case OutcomeGreeting:
		return "greeting"
	case OutcomePromptForQuery:
		return "prompt_for_query"
	case OutcomeLookupResult:
		return "lookup_result"
	case OutcomeUnrecognized:
		return "unrecognized"
	default:
		return "no_reply"
	}
}

// Outcome is the engine's decision for one inbound event. It lives for a
// single event-processing call; only the action it already persisted
// outlives it.
type Outcome struct {
	Kind       OutcomeKind
	UserID     string
	Query      string
	Definition string
}

// Options bound the engine's dependent calls.
type Options struct {
	StoreTimeout  time.Duration
	LookupTimeout time.Duration
}

// Engine is the per-user dialog state machine. The state is implicit in the
// last recorded action: start_requested and lookup_performed mean the user is
// awaiting-query, everything else means idle.
type Engine struct {
	store         ConversationStore
	gateway       LookupGateway
	storeTimeout  time.Duration
	lookupTimeout time.Duration
}

// NewEngine builds an Engine over a conversation store and a lookup gateway.
func NewEngine(store ConversationStore, gateway LookupGateway, opts Options) *Engine {
	if opts.StoreTimeout <= 0 {
		opts.StoreTimeout = 3 * time.Second
	}
	if opts.LookupTimeout <= 0 {
		opts.LookupTimeout = 10 * time.Second
	}
	return &Engine{
		store:         store,
		gateway:       gateway,
		storeTimeout:  opts.StoreTimeout,
		lookupTimeout: opts.LookupTimeout,
	}
}

// Handle applies the transition table to one classified event and returns the
// reply to produce. Actions are persisted before the outcome is returned;
// a write failure is logged and the reply is still produced.
func (e *Engine) Handle(ctx context.Context, ev Event) Outcome {
	if ev.Kind == KindOther || ev.UserID == "" {
		return Outcome{Kind: OutcomeNoReply, UserID: ev.UserID}
	}

	switch ev.Kind {
	case KindJoin:
		// The welcome reply does not change conversational context, so
		// nothing is recorded.
		return Outcome{Kind: OutcomeGreeting, UserID: ev.UserID}

	case KindLeave:
		e.clearHistory(ctx, ev.UserID)
		return Outcome{Kind: OutcomeNoReply, UserID: ev.UserID}

	case KindPostback:
		if IsStartPayload(ev.Body) {
			e.recordAction(ctx, ev.UserID, ActionStartRequested)
			return Outcome{Kind: OutcomePromptForQuery, UserID: ev.UserID}
		}
		return Outcome{Kind: OutcomeUnrecognized, UserID: ev.UserID}

	case KindText:
		if e.awaitingQuery(ctx, ev.UserID) {
			return e.lookup(ctx, ev.UserID, ev.Body)
		}
		if ContainsStartKeyword(ev.Body) {
			e.recordAction(ctx, ev.UserID, ActionStartRequested)
			return Outcome{Kind: OutcomePromptForQuery, UserID: ev.UserID}
		}
		return Outcome{Kind: OutcomeUnrecognized, UserID: ev.UserID}

	default:
		return Outcome{Kind: OutcomeNoReply, UserID: ev.UserID}
	}
}

// awaitingQuery reports whether the user's next text input is a query. Once a
// user entered the search flow, every text message is a query until they
// leave; only the explicit postback re-enters the flow.
func (e *Engine) awaitingQuery(ctx context.Context, userID string) bool {
	readCtx, cancel := context.WithTimeout(ctx, e.storeTimeout)
	defer cancel()
	switch e.store.LastAction(readCtx, userID) {
	case ActionStartRequested, ActionLookupPerformed:
		return true
	default:
		return false
	}
}

// lookup forwards the raw body to the gateway, records the transition, and
// translates a failed lookup into the fixed fallback text. The conversation
// advances even when the lookup fails.
func (e *Engine) lookup(ctx context.Context, userID, query string) Outcome {
	start := time.Now()
	lookupCtx, cancel := context.WithTimeout(ctx, e.lookupTimeout)
	res := e.gateway.Define(lookupCtx, query)
	cancel()

	logger.Debug(ctx, "dialog", "lookup",
		slog.String("status", "ok"),
		slog.Bool("found", res.Found),
		slog.String("query", logger.SanitizeLimit(query, 64)),
		slog.Duration("duration", logger.Took(start)),
	)

	e.recordAction(ctx, userID, ActionLookupPerformed)

	definition := res.Text
	if !res.Found {
		definition = LookupFallbackText
	}
	return Outcome{
		Kind:       OutcomeLookupResult,
		UserID:     userID,
		Query:      query,
		Definition: definition,
	}
}

func (e *Engine) recordAction(ctx context.Context, userID string, action Action) {
	writeCtx, cancel := context.WithTimeout(ctx, e.storeTimeout)
	defer cancel()
	if err := e.store.RecordAction(writeCtx, userID, action); err != nil {
		// Best-effort delivery: the user still gets a reply even when the
		// history write failed.
		logger.Warn(ctx, "dialog", "store.write_failed",
			slog.String("status", "fail"),
			slog.String("action", string(action)),
			slog.String("err", err.Error()),
		)
	}
}

func (e *Engine) clearHistory(ctx context.Context, userID string) {
	clearCtx, cancel := context.WithTimeout(ctx, e.storeTimeout)
	defer cancel()
	if err := e.store.ClearHistory(clearCtx, userID); err != nil {
		logger.Warn(ctx, "dialog", "store.clear_failed",
			slog.String("status", "fail"),
			slog.String("err", err.Error()),
		)
	}
}
