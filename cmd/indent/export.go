package main

import (
	"fmt"
	"time"

	"github.com/Spok95/pharmacy-indent/internal/cart"
	"github.com/Spok95/pharmacy-indent/internal/export"
	"github.com/spf13/cobra"
)

func exportCmd() *cobra.Command {
	var (
		dir   string
		date  string
		kinds []string
	)
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the cart or an approved day as XLSX and PDF",
		Long: `Without --date the pending cart is exported. With --date (YYYY-MM-DD)
the requests approved on that day are exported instead.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			a, err := openApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			svc := a.cart()
			var (
				c   cart.Cart
				day time.Time
			)
			if date == "" {
				day = time.Now().In(svc.Location())
				c, err = svc.Load(ctx)
			} else {
				if day, err = cart.ParseDate(date, svc.Location()); err != nil {
					return err
				}
				c, err = svc.Day(ctx, date)
			}
			if err != nil {
				return err
			}

			ks := make([]export.Kind, len(kinds))
			for i, k := range kinds {
				if ks[i], err = export.ParseKind(k); err != nil {
					return err
				}
			}
			if dir == "" {
				dir = cfg.Export.Dir
			}
			w := &export.Writer{
				Dir:     dir,
				Columns: export.ParseColumns(cfg.Export.SheetColumns),
				Signer:  signer(),
				Log:     log,
			}
			files, err := w.WriteAll(c, day, ks...)
			for _, f := range files {
				fmt.Fprintln(cmd.OutOrStdout(), f)
			}
			return err
		},
	}
	cmd.Flags().StringVar(&dir, "dir", "", "output directory (default: export.dir)")
	cmd.Flags().StringVar(&date, "date", "", "approved day to export, YYYY-MM-DD")
	cmd.Flags().StringSliceVar(&kinds, "kind", []string{string(export.KindXLSX), string(export.KindPDF)}, "documents to write: xlsx, pdf, combined")
	return cmd
}
