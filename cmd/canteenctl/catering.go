package main

import (
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/sanaol/canteen/internal/catering"
	"github.com/sanaol/canteen/internal/client"
	"github.com/sanaol/canteen/internal/enum"
)

func newCateringCmd(a *app) *cobra.Command {
	var clientName string
	var all bool
	cmd := &cobra.Command{
		Use:   "catering",
		Short: "List catering events, upcoming first",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			api, err := a.authed(ctx)
			if err != nil {
				return err
			}
			events, err := api.CateringEvents(ctx)
			if err != nil {
				return err
			}

			var b catering.Buckets
			if all {
				b = catering.ClassifyAll(events, time.Now())
			} else {
				if clientName == "" {
					p, _, err := a.session.Profile(ctx)
					if err != nil {
						return err
					}
					clientName = p.Name
				}
				b = catering.Classify(events, clientName, time.Now())
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Upcoming (%d)\n", len(b.Upcoming))
			for _, e := range b.Upcoming {
				printEventLine(out, e)
			}
			fmt.Fprintf(out, "Past (%d)\n", len(b.Past))
			for _, e := range b.Past {
				printEventLine(out, e)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&clientName, "client", "", "client name to filter by (defaults to your name)")
	cmd.Flags().BoolVar(&all, "all", false, "show every client's events")
	cmd.AddCommand(newScheduleCmd(a), newCancelEventCmd(a), newPayEventCmd(a))
	return cmd
}

func printEventLine(w io.Writer, e catering.Event) {
	fmt.Fprintf(w, "  %s  %-28s  %-15s  paid %s of %s  %s\n",
		e.EventDate.Format(catering.DateLayout), e.Name, e.Status,
		e.PaidAmount.StringFixed(2), e.TotalPrice.StringFixed(2), e.ID)
}

func newScheduleCmd(a *app) *cobra.Command {
	var req client.ScheduleCateringRequest
	var items []string
	cmd := &cobra.Command{
		Use:   "schedule",
		Short: "Book a catering event; half of the total is charged as down payment",
		RunE: func(cmd *cobra.Command, args []string) error {
			api, err := a.authed(cmd.Context())
			if err != nil {
				return err
			}
			req.Quantities = map[uuid.UUID]int32{}
			for _, s := range items {
				line, err := parseLine(s)
				if err != nil {
					return err
				}
				req.MenuItemIDs = append(req.MenuItemIDs, line.MenuItemID)
				req.Quantities[line.MenuItemID] = line.Quantity
			}

			ev, err := api.ScheduleCatering(cmd.Context(), req)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Scheduled %s on %s: total %s, down payment %s, remaining %s\n",
				ev.Name, ev.EventDate.Format(catering.DateLayout), ev.TotalPrice.StringFixed(2),
				ev.PaidAmount.StringFixed(2), ev.RemainingBalance().StringFixed(2))
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVar(&req.Name, "name", "", "event name")
	f.StringVar(&req.ClientName, "client", "", "client name")
	f.StringVar(&req.EventDate, "date", "", "event date (YYYY-MM-DD)")
	f.StringVar(&req.StartTime, "start", "", "start time (HH:MM)")
	f.StringVar(&req.EndTime, "end", "", "end time (HH:MM)")
	f.StringVar(&req.Location, "location", "", "venue")
	f.Int32Var(&req.GuestCount, "guests", 0, "number of guests")
	f.StringVar(&req.ContactName, "contact", "", "contact person")
	f.StringVar(&req.ContactPhone, "phone", "", "contact phone")
	f.StringVar(&req.Notes, "notes", "", "notes")
	f.StringArrayVar(&items, "item", nil, "menu item id, optionally :quantity (repeatable)")
	return cmd
}

func newCancelEventCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "cancel <event-id>",
		Short: "Cancel a catering event",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := uuid.Parse(args[0])
			if err != nil {
				return fmt.Errorf("invalid event id")
			}
			api, err := a.authed(cmd.Context())
			if err != nil {
				return err
			}
			ev, err := api.CancelCatering(cmd.Context(), id)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s is now %s\n", ev.Name, ev.Status)
			return nil
		},
	}
}

func newPayEventCmd(a *app) *cobra.Command {
	var method string
	cmd := &cobra.Command{
		Use:   "pay <event-id>",
		Short: "Get a payment link for the remaining balance",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return initiatePayment(cmd, a, enum.PaymentTargetCatering, args[0], method)
		},
	}
	cmd.Flags().StringVar(&method, "method", enum.PaymentMethodGCash, "GCASH or MAYA")
	return cmd
}
