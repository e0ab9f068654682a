package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/ekoyudhi/kamusbot/core/bootstrap"
	"github.com/ekoyudhi/kamusbot/core/config"
	"github.com/ekoyudhi/kamusbot/core/httpclient"
	"github.com/ekoyudhi/kamusbot/core/logger"
	"github.com/ekoyudhi/kamusbot/dialog"
	"github.com/ekoyudhi/kamusbot/kbbi"
	"github.com/ekoyudhi/kamusbot/line"
	"github.com/ekoyudhi/kamusbot/store"
)

func main() {
	if err := run(); err != nil {
		log.Printf("kamusbot: %v", err)
		os.Exit(1)
	}
}

func run() error {
	// Local development convenience; ignored when no .env exists.
	_ = godotenv.Load()

	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = "config.yaml"
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	infra, err := bootstrap.Run(bootstrap.Options{Config: cfg})
	if err != nil {
		return err
	}
	defer infra.DB.Close()
	defer func() {
		if err := logger.Shutdown(); err != nil {
			log.Printf("logger shutdown error: %v", err)
		}
	}()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	kbbiClient := kbbi.NewClient(cfg.KBBI.BaseURL, httpclient.New())
	if cfg.KBBI.Username != "" {
		loginCtx, loginCancel := context.WithTimeout(ctx, 30*time.Second)
		err := kbbiClient.Login(loginCtx, cfg.KBBI.Username, cfg.KBBI.Password)
		loginCancel()
		if err != nil {
			// Lookups still work anonymously; authenticated sessions only
			// raise the provider's search quota.
			logger.KBBI.Warn("login failed, continuing anonymously",
				slog.String("event", "login"),
				slog.String("status", "fail"),
				slog.String("err", err.Error()),
			)
		} else {
			logger.KBBI.Info("authenticated session ready",
				slog.String("event", "login"),
				slog.String("status", "ok"),
			)
		}
	}

	replier, err := line.NewReplier(cfg.Line.ChannelToken, httpclient.New())
	if err != nil {
		return err
	}

	engine := dialog.NewEngine(
		store.NewConversations(infra.DB),
		kbbi.NewGateway(kbbiClient),
		dialog.Options{
			StoreTimeout:  cfg.Dialog.StoreTimeout,
			LookupTimeout: cfg.KBBI.LookupTimeout,
		},
	)
	renderer := dialog.NewRenderer(replier)
	server := line.NewServer(cfg.Line.ChannelSecret, engine, renderer, replier)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Listen, cfg.Server.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           server.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	logger.LINE.Info("webhook listening",
		slog.String("event", "ready"),
		slog.String("addr", addr),
	)

	select {
	case <-ctx.Done():
		logger.LINE.Info("shutting down...",
			slog.String("event", "shutdown"),
		)
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("http server: %w", err)
	}
}
