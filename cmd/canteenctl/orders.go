package main

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sanaol/canteen/internal/client"
	"github.com/sanaol/canteen/internal/enum"
	"github.com/sanaol/canteen/internal/orderstatus"
	"github.com/sanaol/canteen/internal/poller"
	"github.com/sanaol/canteen/internal/tracking"
)

func newOrdersCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "orders",
		Short: "List your orders",
		RunE: func(cmd *cobra.Command, args []string) error {
			api, err := a.authed(cmd.Context())
			if err != nil {
				return err
			}
			b, err := api.Orders(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, group := range []struct {
				title  string
				orders []tracking.View
			}{
				{"Active", b.Active},
				{"Completed", b.Completed},
				{"Cancelled", b.Cancelled},
			} {
				fmt.Fprintf(out, "%s (%d)\n", group.title, len(group.orders))
				for _, o := range group.orders {
					printOrderLine(out, o)
				}
			}
			return nil
		},
	}
	cmd.AddCommand(newPlaceOrderCmd(a), newCancelOrderCmd(a), newWatchOrderCmd(a), newPayOrderCmd(a))
	return cmd
}

func printOrderLine(w io.Writer, o tracking.View) {
	fmt.Fprintf(w, "  %s  %-12s  %-11s  %8s  %s\n",
		o.OrderNumber, o.Progress.Label, o.PaymentStatus, o.Total.StringFixed(2), o.ID)
}

// parseLine reads "<menu item id>[:qty]".
func parseLine(s string) (client.OrderLine, error) {
	idPart, qtyPart, hasQty := strings.Cut(s, ":")
	id, err := uuid.Parse(strings.TrimSpace(idPart))
	if err != nil {
		return client.OrderLine{}, fmt.Errorf("item %q: invalid menu item id", s)
	}
	line := client.OrderLine{MenuItemID: id, Quantity: 1}
	if hasQty {
		n, err := strconv.ParseInt(strings.TrimSpace(qtyPart), 10, 32)
		if err != nil || n <= 0 {
			return client.OrderLine{}, fmt.Errorf("item %q: quantity must be a positive number", s)
		}
		line.Quantity = int32(n)
	}
	return line, nil
}

func newPlaceOrderCmd(a *app) *cobra.Command {
	var items []string
	var method, notes string
	cmd := &cobra.Command{
		Use:     "place",
		Short:   "Place an order",
		Example: "  canteenctl orders place --item 7c9e...:2 --item 0f1a... --method gcash",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			api, err := a.authed(ctx)
			if err != nil {
				return err
			}
			req := client.PlaceOrderRequest{PaymentMethod: strings.ToUpper(method), Notes: notes}
			for _, s := range items {
				line, err := parseLine(s)
				if err != nil {
					return err
				}
				req.Items = append(req.Items, line)
			}

			order, err := api.PlaceOrder(ctx, req)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Placed order %s, total %s\n", order.OrderNumber, order.Total().StringFixed(2))

			// The order exists now; a failed cart clear is not worth failing for.
			if err := api.ClearCart(ctx); err != nil {
				a.log.Warn("clear cart after order", zap.Error(err))
			}
			return nil
		},
	}
	f := cmd.Flags()
	f.StringArrayVar(&items, "item", nil, "menu item id, optionally :quantity (repeatable)")
	f.StringVar(&method, "method", enum.PaymentMethodCounter, "GCASH, MAYA or COUNTER")
	f.StringVar(&notes, "notes", "", "notes for the kitchen")
	_ = cmd.MarkFlagRequired("item")
	return cmd
}

func newCancelOrderCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "cancel <order-id>",
		Short: "Cancel a pending order",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := uuid.Parse(args[0])
			if err != nil {
				return fmt.Errorf("invalid order id")
			}
			api, err := a.authed(cmd.Context())
			if err != nil {
				return err
			}
			order, err := api.CancelOrder(cmd.Context(), id)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Order %s is now %s\n", order.OrderNumber, orderstatus.Parse(order.Status).Label())
			return nil
		},
	}
}

func newPayOrderCmd(a *app) *cobra.Command {
	var method string
	cmd := &cobra.Command{
		Use:   "pay <order-id>",
		Short: "Get a payment link for an order",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return initiatePayment(cmd, a, enum.PaymentTargetOrder, args[0], method)
		},
	}
	cmd.Flags().StringVar(&method, "method", enum.PaymentMethodGCash, "GCASH or MAYA")
	return cmd
}

func initiatePayment(cmd *cobra.Command, a *app, target, rawID, method string) error {
	id, err := uuid.Parse(rawID)
	if err != nil {
		return fmt.Errorf("invalid id")
	}
	api, err := a.authed(cmd.Context())
	if err != nil {
		return err
	}
	started, err := api.InitiatePayment(cmd.Context(), target, id, method)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Pay %s via %s:\n%s\n", started.Amount.StringFixed(2), started.Method, started.RedirectURL)
	return nil
}

func newWatchOrderCmd(a *app) *cobra.Command {
	var interval time.Duration
	cmd := &cobra.Command{
		Use:   "watch <order-id>",
		Short: "Follow an order until it is completed or cancelled",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := uuid.Parse(args[0])
			if err != nil {
				return fmt.Errorf("invalid order id")
			}
			api, err := a.authed(cmd.Context())
			if err != nil {
				return err
			}
			return watchOrder(cmd.Context(), cmd.OutOrStdout(), a, interval, func(ctx context.Context) (tracking.Order, error) {
				return api.Order(ctx, id)
			})
		},
	}
	cmd.Flags().DurationVar(&interval, "interval", poller.OrderTrackingInterval, "refresh interval")
	return cmd
}

// watchOrder prints the tracking bar whenever the status changes and returns
// once the order reaches a terminal state or ctx ends.
func watchOrder(ctx context.Context, w io.Writer, a *app, interval time.Duration, fetch func(context.Context) (tracking.Order, error)) error {
	last := ""
	p := &poller.Poller[tracking.Order]{
		Interval: interval,
		Fetch:    fetch,
		OnError: func(err error) {
			a.log.Warn("refresh order", zap.Error(err))
		},
	}
	p.Commit = func(o tracking.Order) {
		if o.Status != last {
			last = o.Status
			fmt.Fprintln(w, progressBar(o.Progress()))
		}
		if orderstatus.Parse(o.Status).Terminal() {
			p.Stop()
		}
	}
	p.Run(ctx)
	return nil
}

func progressBar(p orderstatus.Progress) string {
	if p.Cancelled {
		return "[ cancelled ]"
	}
	var b strings.Builder
	for i, s := range orderstatus.Steps() {
		if i > 0 {
			b.WriteString(" > ")
		}
		if i <= p.Index {
			b.WriteString(strings.ToUpper(s.Label()))
		} else {
			b.WriteString(strings.ToLower(s.Label()))
		}
	}
	return b.String()
}
