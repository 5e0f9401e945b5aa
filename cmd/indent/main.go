package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/Spok95/pharmacy-indent/internal/config"
	"github.com/Spok95/pharmacy-indent/internal/infra/logger"
	"github.com/spf13/cobra"
)

var (
	cfgFile string
	cfg     config.Config
	log     *slog.Logger

	rootCmd = &cobra.Command{
		Use:   "indent",
		Short: "Pharmacy drug locator and indent requisitions",
		Long: `indent keeps the shelf catalogue of the pharmacy store, collects
indent requests into a cart and exports approved carts as KEW.PS-8 forms.`,
		SilenceUsage:      true,
		PersistentPreRunE: initConfig,
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "config/example.yaml", "config file")

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(exportCmd())
	rootCmd.AddCommand(approveCmd())
	rootCmd.AddCommand(tuiCmd())
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()

	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func initConfig(_ *cobra.Command, _ []string) error {
	c, err := config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	cfg = c
	log = logger.NewWithLevel(cfg.App.Env, cfg.Log.Level)
	return nil
}
