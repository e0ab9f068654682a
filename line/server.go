package line

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"runtime/debug"
	"time"

	"github.com/google/uuid"
	"github.com/line/line-bot-sdk-go/v8/linebot/messaging_api"
	"github.com/line/line-bot-sdk-go/v8/linebot/webhook"

	"github.com/ekoyudhi/kamusbot/core/logger"
	"github.com/ekoyudhi/kamusbot/dialog"
)

// MessageReplier delivers rendered messages for one reply token.
type MessageReplier interface {
	Reply(ctx context.Context, replyToken string, messages []messaging_api.MessageInterface) error
}

// Server accepts webhook deliveries, runs each event through the conversation
// engine, and replies. Events within one delivery are processed sequentially;
// concurrent deliveries are handled by independent goroutines of the HTTP
// server with no cross-delivery ordering guarantee.
type Server struct {
	channelSecret string
	engine        *dialog.Engine
	renderer      *dialog.Renderer
	replier       MessageReplier
}

// NewServer wires the webhook handler.
func NewServer(channelSecret string, engine *dialog.Engine, renderer *dialog.Renderer, replier MessageReplier) *Server {
	return &Server{
		channelSecret: channelSecret,
		engine:        engine,
		renderer:      renderer,
		replier:       replier,
	}
}

// Routes returns the HTTP handler exposing the webhook and liveness
// endpoints.
func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/callback", s.handleCallback)
	mux.HandleFunc("/healthz", handleHealth)
	return mux
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleCallback(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	rid := uuid.NewString()[:8]
	ctx := logger.WithRID(r.Context(), rid)

	cb, err := webhook.ParseRequest(s.channelSecret, r)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, webhook.ErrInvalidSignature) {
			status = http.StatusBadRequest
		}
		logger.Warn(ctx, "line", "webhook.rejected",
			slog.String("status", "fail"),
			slog.Int("http_status", status),
			slog.String("err", err.Error()),
		)
		w.WriteHeader(status)
		return
	}

	if logger.ShouldSampleDebug() {
		logger.Debug(ctx, "line", "webhook.received",
			slog.String("status", "ok"),
			slog.Int("events", len(cb.Events)),
		)
	}

	for _, raw := range cb.Events {
		s.handleEvent(ctx, raw)
	}

	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

// handleEvent runs one event through classify, engine, render, and reply.
// Failures are contained per event: a reply that cannot be delivered never
// fails the delivery as a whole.
func (s *Server) handleEvent(ctx context.Context, raw webhook.EventInterface) {
	defer func() {
		if rec := recover(); rec != nil {
			logger.Error(ctx, "line", "event.panic",
				slog.Any("err", rec),
				slog.String("stack", string(debug.Stack())),
			)
		}
	}()

	start := time.Now()
	ev := dialog.Classify(raw)
	ctx = logger.WithUserID(ctx, ev.UserID)
	ctx = logger.WithHandler(ctx, ev.Kind.String())

	outcome := s.engine.Handle(ctx, ev)
	messages := s.renderer.Render(ctx, outcome)

	var err error
	delivered := false
	if len(messages) > 0 {
		if token := replyTokenOf(raw); token != "" {
			err = s.replier.Reply(ctx, token, messages)
			delivered = err == nil
		}
	}

	logger.Info(ctx, "line", "event.handled",
		slog.String("status", logger.Status(err)),
		slog.String("kind", ev.Kind.String()),
		slog.String("outcome", outcome.Kind.String()),
		slog.Bool("delivered", delivered),
		slog.Duration("duration", logger.Took(start)),
	)
}

func replyTokenOf(raw webhook.EventInterface) string {
	switch e := raw.(type) {
	case webhook.MessageEvent:
		return e.ReplyToken
	case *webhook.MessageEvent:
		return e.ReplyToken
	case webhook.FollowEvent:
		return e.ReplyToken
	case *webhook.FollowEvent:
		return e.ReplyToken
	case webhook.PostbackEvent:
		return e.ReplyToken
	case *webhook.PostbackEvent:
		return e.ReplyToken
	default:
		return ""
	}
}
