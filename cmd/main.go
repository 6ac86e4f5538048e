package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/Vovarama1992/miniapp-relay/internal/avatar"
	"github.com/Vovarama1992/miniapp-relay/internal/bot"
	"github.com/Vovarama1992/miniapp-relay/internal/config"
	"github.com/Vovarama1992/miniapp-relay/internal/gateway"
	"github.com/Vovarama1992/miniapp-relay/internal/ingest"
	"github.com/Vovarama1992/miniapp-relay/internal/relay"
	"github.com/Vovarama1992/miniapp-relay/internal/telegram"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var envFile string
	v := config.NewViper()

	cmd := &cobra.Command{
		Use:          "miniapp-relay",
		Short:        "Relay website messages to a Telegram admin chat and serve user avatars",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_ = godotenv.Load(envFile)

			cfg, err := config.Load(v)
			if err != nil {
				return err
			}
			return run(cmd.Context(), cfg)
		},
	}

	cmd.Flags().StringVar(&envFile, "env-file", ".env", "dotenv file loaded before reading the environment")
	cmd.Flags().String("port", "", "HTTP listen port (overrides PORT)")
	_ = v.BindPFlag(config.KeyPort, cmd.Flags().Lookup("port"))

	return cmd
}

func run(ctx context.Context, cfg config.Config) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	retry := ingest.NewRetryPolicy(cfg.RetryBackoff)

	// --- Telegram ---
	tg, err := telegram.Dial(ctx, telegram.Config{
		Token:       cfg.BotToken,
		PollTimeout: cfg.PollTimeout,
		HTTPTimeout: cfg.HTTPTimeout,
	}, retry)
	if err != nil {
		return fmt.Errorf("telegram: %w", err)
	}

	resolver := avatar.NewResolver(tg)

	// --- Bot polling ---
	dispatcher := bot.NewDispatcher(tg, resolver, bot.Config{
		WebAppURL: cfg.WebAppURL,
		WithPhoto: cfg.WelcomeWithPhoto,
	})
	loop := ingest.NewLoop(tg, dispatcher, retry, cfg.PollTimeout)
	go func() {
		_ = loop.Run(ctx)
	}()

	// --- Router ---
	r := gateway.NewRouter(gateway.Deps{
		Relay: relay.NewHandler(relay.NewService(tg, cfg.AdminID)),
		Avatar: avatar.NewHandler(resolver, avatar.HandlerConfig{
			DefaultTier:   cfg.AvatarTier,
			PublicBaseURL: cfg.PublicBaseURL,
		}),
		AvatarEncoding: cfg.AvatarEncoding,
		Cors:           gateway.DefaultCorsPolicy(),
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("listening on :%s", cfg.Port)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
	}

	log.Println("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
