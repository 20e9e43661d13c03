package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/kitbuilder587/morvo/internal/httpapi"
	"github.com/kitbuilder587/morvo/internal/telegram"
)

const shutdownTimeout = 10 * time.Second

func newServeCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and, if a token is set, the Telegram bot",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return c.serve(ctx)
		},
	}
}

func (c *cli) serve(ctx context.Context) error {
	a, err := newApp(ctx, c.cfg, c.logger, prometheus.DefaultRegisterer)
	if err != nil {
		return err
	}
	defer a.Close()

	srv := &http.Server{
		Addr: c.cfg.HTTP.Addr,
		Handler: httpapi.NewRouter(httpapi.Deps{
			Chat:          a.chat,
			Conversations: a.conversations,
			Profiles:      a.profiles,
			History:       a.history,
			Metrics:       a.metrics,
			Logger:        c.logger,
		}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	var bot *telegram.Bot
	if c.cfg.Telegram.Token != "" {
		bot, err = telegram.New(telegram.BotConfig{Token: c.cfg.Telegram.Token}, telegram.BotDeps{
			Chat:          a.chat,
			Conversations: a.conversations,
			Profiles:      a.profiles,
			Metrics:       a.metrics,
			Logger:        c.logger.Named("telegram"),
		})
		if err != nil {
			return err
		}
	} else {
		c.logger.Info("TELEGRAM_BOT_TOKEN not set, telegram bot disabled")
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		c.logger.Info("http server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		c.logger.Info("shutting down http server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if bot != nil {
		g.Go(func() error {
			if err := bot.Run(gctx); err != nil && !errors.Is(err, context.Canceled) {
				return fmt.Errorf("telegram bot: %w", err)
			}
			return nil
		})
	}

	err = g.Wait()
	c.logger.Info("shutdown complete")
	return err
}
