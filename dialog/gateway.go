package dialog

import "context"

// DefinitionResult is the typed outcome of a dictionary lookup. Callers never
// see the difference between "no such word" and "provider unavailable"; both
// surface as Found == false.
type DefinitionResult struct {
	Found bool
	Text  string
}

// LookupGateway resolves a query against the dictionary provider.
// Implementations must not fail: every provider error, timeout, or empty
// answer is reported as not-found.
type LookupGateway interface {
	Define(ctx context.Context, query string) DefinitionResult
}

// ConversationStore persists the append-only per-user conversation log.
type ConversationStore interface {
	// RecordAction appends one log entry. A failure must be reported so the
	// caller can decide whether to continue; it must never be silently
	// dropped.
	RecordAction(ctx context.Context, userID string, action Action) error
	// LastAction returns the most recent action for the user, or
	// ActionUnknown when there is no history. It never fails the caller: a
	// read failure degrades to ActionUnknown.
	LastAction(ctx context.Context, userID string) Action
	// ClearHistory removes every entry for the user. Clearing a user with no
	// history is a no-op, not an error.
	ClearHistory(ctx context.Context, userID string) error
}
