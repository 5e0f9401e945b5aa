package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/Spok95/pharmacy-indent/internal/bot"
	"github.com/Spok95/pharmacy-indent/internal/cart"
	"github.com/Spok95/pharmacy-indent/internal/dialog"
	"github.com/Spok95/pharmacy-indent/internal/events"
	"github.com/Spok95/pharmacy-indent/internal/export"
	"github.com/Spok95/pharmacy-indent/internal/infra/db"
	httpx "github.com/Spok95/pharmacy-indent/internal/infra/http"
	"github.com/Spok95/pharmacy-indent/internal/locator"
	"github.com/Spok95/pharmacy-indent/internal/notify"
	"github.com/Spok95/pharmacy-indent/internal/realtime"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/spf13/cobra"
)

func serveCmd() *cobra.Command {
	var skipMigrate bool
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API with live catalogue updates",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return serve(cmd.Context(), skipMigrate)
		},
	}
	cmd.Flags().BoolVar(&skipMigrate, "skip-migrate", false, "do not apply migrations on start")
	return cmd
}

// telegram returns nil when no token is configured or login fails.
func telegram() *tgbotapi.BotAPI {
	if cfg.Telegram.Token == "" {
		return nil
	}
	api, err := tgbotapi.NewBotAPI(cfg.Telegram.Token)
	if err != nil {
		log.Error("telegram disabled", "err", err)
		return nil
	}
	log.Info("telegram authorized", "bot", api.Self.UserName)
	return api
}

func observers(tg *tgbotapi.BotAPI) ([]cart.Observer, func()) {
	var obs []cart.Observer
	var closers []func()

	if cfg.AMQP.URL != "" {
		pub, err := events.NewPublisher(cfg.AMQP.URL, log)
		if err != nil {
			log.Error("amqp publisher disabled", "err", err)
		} else {
			obs = append(obs, pub)
			closers = append(closers, pub.Close)
		}
	}

	if tg != nil && cfg.Telegram.AdminChatID != 0 {
		obs = append(obs, notify.NewTelegram(tg, cfg.Telegram.AdminChatID, signer(), cfg.Location(), log))
	}

	return obs, func() {
		for _, c := range closers {
			c()
		}
	}
}

func serve(ctx context.Context, skipMigrate bool) error {
	if !skipMigrate {
		if err := db.Migrate(cfg.Postgres.DSN, log); err != nil {
			return err
		}
	}

	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	hub := realtime.NewHub(log)
	go func() {
		if err := realtime.NewListener(a.pool, hub, log).Run(ctx); err != nil {
			log.Error("realtime listener stopped", "err", err)
		}
	}()

	session := locator.NewSession(a.items, log, cfg.Catalogue.PageSize, cfg.Catalogue.ReloadDebounce)
	if err := session.Start(ctx, hub); err != nil {
		return err
	}
	log.Info("catalogue loaded", "items", len(session.State().Items))

	tg := telegram()
	obs, closeObs := observers(tg)
	defer closeObs()
	svc := a.cart(obs...)
	columns := export.ParseColumns(cfg.Export.SheetColumns)

	if tg != nil {
		b := bot.New(tg, log, dialog.NewRepo(a.pool), a.items, svc, columns, signer(), cfg.Telegram.AdminChatID)
		go func() {
			if err := b.Run(ctx, 60); err != nil {
				log.Error("telegram bot stopped", "err", err)
			}
		}()
		log.Info("telegram bot started")
	}

	h := &httpx.Handler{
		Items:     a.items,
		Catalogue: session,
		Cart:      svc,
		Columns:   columns,
		Signer:    signer(),
		Log:       log,
	}
	srv := httpx.New(cfg.HTTP.Addr, cfg.Metrics.Enabled, h)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("http server error", "err", err)
		}
	}()
	log.Info("HTTP server started", "addr", cfg.HTTP.Addr)

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
	log.Info("graceful shutdown complete")
	return nil
}
