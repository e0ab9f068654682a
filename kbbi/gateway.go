package kbbi

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/ekoyudhi/kamusbot/core/logger"
	"github.com/ekoyudhi/kamusbot/dialog"
)

// Gateway adapts Client to dialog.LookupGateway. Every provider failure,
// timeout, or empty answer collapses into not-found; callers never see the
// difference.
type Gateway struct {
	client *Client
}

var _ dialog.LookupGateway = (*Gateway)(nil)

// NewGateway wraps a Client.
func NewGateway(client *Client) *Gateway {
	return &Gateway{client: client}
}

// Define resolves a query within the caller's context deadline.
func (g *Gateway) Define(ctx context.Context, query string) dialog.DefinitionResult {
	text, err := g.client.Lookup(ctx, query)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			logger.Warn(ctx, "kbbi", "lookup.failed",
				slog.String("status", "fail"),
				slog.String("query", logger.SanitizeLimit(query, 64)),
				slog.String("err", err.Error()),
			)
		}
		return dialog.DefinitionResult{}
	}
	if strings.TrimSpace(text) == "" {
		return dialog.DefinitionResult{}
	}
	return dialog.DefinitionResult{Found: true, Text: text}
}
