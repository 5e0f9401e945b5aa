package main

import (
	"context"

	"github.com/Spok95/pharmacy-indent/internal/cart"
	"github.com/Spok95/pharmacy-indent/internal/domain/catalog"
	"github.com/Spok95/pharmacy-indent/internal/domain/indent"
	"github.com/Spok95/pharmacy-indent/internal/export"
	"github.com/Spok95/pharmacy-indent/internal/infra/db"
	"github.com/jackc/pgx/v5/pgxpool"
)

// app is what every command that touches the database needs.
type app struct {
	pool    *pgxpool.Pool
	items   *catalog.Repo
	indents *indent.Repo
}

func openApp(ctx context.Context) (*app, error) {
	pool, err := db.Connect(ctx, cfg.Postgres.DSN)
	if err != nil {
		return nil, err
	}
	log.Info("db connected")
	return &app{
		pool:    pool,
		items:   catalog.NewRepo(pool),
		indents: indent.NewRepo(pool),
	}, nil
}

func (a *app) Close() { a.pool.Close() }

func (a *app) cart(obs ...cart.Observer) *cart.Service {
	return cart.NewService(a.indents, cfg.Location(), log, obs...)
}

func signer() export.Signer {
	return export.Signer{Name: cfg.Export.RequesterName, Title: cfg.Export.RequesterTitle}
}
