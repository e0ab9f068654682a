// Package store provides the Postgres-backed conversation log adapter.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/ekoyudhi/kamusbot/core/logger"
	"github.com/ekoyudhi/kamusbot/dialog"
)

// StoreError wraps connectivity and write failures of the conversation log.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("store: %s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

// Entry is one row of the append-only conversation log.
type Entry struct {
	ID        int64     `db:"id"`
	UserID    string    `db:"user_id"`
	Action    string    `db:"action"`
	CreatedAt time.Time `db:"created_at"`
}

// Conversations is the Postgres implementation of dialog.ConversationStore.
// Entries are append-only; ordering by created_at descending determines the
// last action.
type Conversations struct {
	db *sqlx.DB
}

var _ dialog.ConversationStore = (*Conversations)(nil)

// NewConversations wraps a connected database handle.
func NewConversations(db *sqlx.DB) *Conversations {
	return &Conversations{db: db}
}

// RecordAction appends one log entry for the user.
func (c *Conversations) RecordAction(ctx context.Context, userID string, action dialog.Action) error {
	const q = `INSERT INTO conversation_log (user_id, action) VALUES ($1, $2)`
	if _, err := c.db.ExecContext(ctx, q, userID, string(action)); err != nil {
		return &StoreError{Op: "record_action", Err: err}
	}
	return nil
}

// LastAction returns the most recent action for the user. Read failures are
// logged and degrade to ActionUnknown so the dialog can still respond.
func (c *Conversations) LastAction(ctx context.Context, userID string) dialog.Action {
	const q = `SELECT action FROM conversation_log WHERE user_id = $1 ORDER BY created_at DESC, id DESC LIMIT 1`
	var action string
	err := c.db.GetContext(ctx, &action, q, userID)
	switch {
	case err == nil:
		return dialog.ParseAction(action)
	case errors.Is(err, sql.ErrNoRows):
		return dialog.ActionUnknown
	default:
		logger.Warn(ctx, "db", "db.last_action",
			slog.String("status", "fail"),
			slog.String("user_id", userID),
			slog.String("err", err.Error()),
		)
		return dialog.ActionUnknown
	}
}

// ClearHistory removes all entries for the user. Deleting a user with no
// history is a no-op.
func (c *Conversations) ClearHistory(ctx context.Context, userID string) error {
	const q = `DELETE FROM conversation_log WHERE user_id = $1`
	if _, err := c.db.ExecContext(ctx, q, userID); err != nil {
		return &StoreError{Op: "clear_history", Err: err}
	}
	return nil
}
