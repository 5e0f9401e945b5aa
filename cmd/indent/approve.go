package main

import (
	"errors"
	"fmt"

	"github.com/Spok95/pharmacy-indent/internal/cart"
	"github.com/spf13/cobra"
)

func approveCmd() *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "approve",
		Short: "Approve every pending indent request",
		Long: `Marks the whole pending cart Approved. History keeps each request under
the day it was created.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			obs, closeObs := observers(telegram())
			defer closeObs()

			n, _, err := a.cart(obs...).Approve(cmd.Context(), yes)
			if errors.Is(err, cart.ErrNotConfirmed) {
				return fmt.Errorf("%w: pass --yes to approve", err)
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "approved %d request(s)\n", n)
			return nil
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "confirm the approval")
	return cmd
}
