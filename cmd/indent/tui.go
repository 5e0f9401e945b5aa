package main

import (
	"github.com/Spok95/pharmacy-indent/internal/infra/logger"
	"github.com/Spok95/pharmacy-indent/internal/realtime"
	"github.com/Spok95/pharmacy-indent/internal/tui"
	"github.com/spf13/cobra"
)

func tuiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tui",
		Short: "Browse the catalogue and add to the cart in the terminal",
		Long:  "Browse the catalogue and add to the cart in the terminal. Item edits made elsewhere show up live.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			a, err := openApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			// stdout belongs to the alt screen
			quiet := logger.Discard()
			hub := realtime.NewHub(quiet)
			changes := hub.Subscribe(ctx, realtime.TableItems)
			go func() { _ = realtime.NewListener(a.pool, hub, quiet).Run(ctx) }()

			return tui.Run(ctx, a.items, a.cart(), changes, cfg.Catalogue.PageSize, cfg.Catalogue.ReloadDebounce)
		},
	}
}
