// Package line wires the LINE Messaging API transport to the conversation
// engine: webhook parsing with signature verification on the way in, reply
// delivery and profile fetches on the way out.
package line

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/line/line-bot-sdk-go/v8/linebot/messaging_api"

	"github.com/ekoyudhi/kamusbot/core/logger"
)

// Replier sends reply messages through the Messaging API and resolves user
// profiles for greeting personalization.
type Replier struct {
	api *messaging_api.MessagingApiAPI
}

// NewReplier builds a Replier for the channel token. httpClient may be nil to
// use the SDK default.
func NewReplier(channelToken string, httpClient *http.Client) (*Replier, error) {
	var opts []messaging_api.MessagingApiAPIOption
	if httpClient != nil {
		opts = append(opts, messaging_api.WithHTTPClient(httpClient))
	}
	api, err := messaging_api.NewMessagingApiAPI(channelToken, opts...)
	if err != nil {
		return nil, fmt.Errorf("line: messaging api init: %w", err)
	}
	return &Replier{api: api}, nil
}

// Reply sends the messages bound to one reply token. The underlying HTTP
// client bounds the call; ctx is used for log correlation only.
func (r *Replier) Reply(ctx context.Context, replyToken string, messages []messaging_api.MessageInterface) error {
	start := time.Now()
	_, err := r.api.ReplyMessage(&messaging_api.ReplyMessageRequest{
		ReplyToken: replyToken,
		Messages:   messages,
	})
	if err != nil {
		logger.Error(ctx, "line", "reply.failed",
			slog.String("status", "fail"),
			slog.Int("messages", len(messages)),
			slog.Duration("duration", logger.Took(start)),
			slog.String("err", err.Error()),
		)
		return fmt.Errorf("line: reply message: %w", err)
	}
	logger.Debug(ctx, "line", "reply.sent",
		slog.String("status", "ok"),
		slog.Int("messages", len(messages)),
		slog.Duration("duration", logger.Took(start)),
	)
	return nil
}

// DisplayName resolves the user's profile display name.
func (r *Replier) DisplayName(ctx context.Context, userID string) (string, error) {
	profile, err := r.api.GetProfile(userID)
	if err != nil {
		return "", fmt.Errorf("line: get profile: %w", err)
	}
	return profile.DisplayName, nil
}
