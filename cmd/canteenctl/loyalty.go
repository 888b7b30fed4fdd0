package main

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/sanaol/canteen/internal/loyalty"
)

func newPointsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "points",
		Short: "Show your credit points and the offers they buy",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			api, err := a.authed(ctx)
			if err != nil {
				return err
			}
			points, err := api.Points(ctx)
			if err != nil {
				return err
			}
			offers, err := api.Offers(ctx)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "You have %d points\n", points)
			for _, o := range offers {
				mark := " "
				if points >= o.Points {
					mark = "*"
				}
				fmt.Fprintf(out, " %s %5d  %s  %s\n", mark, o.Points, o.Title, o.ID)
			}
			return nil
		},
	}
}

func newRedeemCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "redeem <offer-id>",
		Short: "Spend points on an offer",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := uuid.Parse(args[0])
			if err != nil {
				return fmt.Errorf("invalid offer id")
			}
			api, err := a.authed(cmd.Context())
			if err != nil {
				return err
			}

			res, err := api.Redeem(cmd.Context(), id)
			if errors.Is(err, loyalty.ErrInsufficientPoints) {
				fmt.Fprintln(cmd.OutOrStdout(), "Not enough points for this offer")
				return nil
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Redeemed! %d points left\n", res.RemainingPoints)
			return nil
		},
	}
}
