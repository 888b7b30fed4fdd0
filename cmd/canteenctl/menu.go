package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/sanaol/canteen/internal/client"
	"github.com/sanaol/canteen/internal/notification"
)

func newMenuCmd(a *app) *cobra.Command {
	var q client.MenuQuery
	cmd := &cobra.Command{
		Use:   "menu",
		Short: "List menu items",
		RunE: func(cmd *cobra.Command, args []string) error {
			api, err := a.authed(cmd.Context())
			if err != nil {
				return err
			}
			page, err := api.MenuItems(cmd.Context(), q)
			if err != nil {
				return err
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tNAME\tCATEGORY\tPRICE\tAVAILABLE")
			for _, it := range page.Items {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%t\n", it.ID, it.Name, it.Category, it.Price.StringFixed(2), it.Available)
			}
			if err := tw.Flush(); err != nil {
				return err
			}
			p := page.Pagination
			fmt.Fprintf(cmd.OutOrStdout(), "page %d of %d (%d items)\n", p.Page, p.TotalPages, p.Total)
			return nil
		},
	}
	f := cmd.Flags()
	f.IntVar(&q.Page, "page", 1, "page number")
	f.IntVar(&q.Limit, "limit", 20, "items per page")
	f.StringVar(&q.Category, "category", "", "only this category")
	f.BoolVar(&q.AvailableOnly, "available", false, "hide sold-out items")

	cmd.AddCommand(&cobra.Command{
		Use:   "categories",
		Short: "List menu categories",
		RunE: func(cmd *cobra.Command, args []string) error {
			api, err := a.authed(cmd.Context())
			if err != nil {
				return err
			}
			cats, err := api.Categories(cmd.Context())
			if err != nil {
				return err
			}
			for _, c := range cats {
				fmt.Fprintln(cmd.OutOrStdout(), c)
			}
			return nil
		},
	})
	return cmd
}

func newNotificationsCmd(a *app) *cobra.Command {
	var all bool
	cmd := &cobra.Command{
		Use:   "notifications",
		Short: "Show menu updates you have not seen yet",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			api, err := a.authed(ctx)
			if err != nil {
				return err
			}
			ns, err := api.Notifications(ctx)
			if err != nil {
				return err
			}

			shown := ns
			if !all {
				seen, err := a.session.SeenNotifications(ctx)
				if err != nil {
					return err
				}
				shown = notification.Unseen(ns, seen)
			}
			if len(shown) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No new notifications")
				return nil
			}
			for _, n := range shown {
				fmt.Fprintf(cmd.OutOrStdout(), "[%s] %s: %s (%s)\n", n.Type, n.Title, n.Message, n.CreatedAt.Local().Format("Jan 2 15:04"))
			}
			return a.session.MarkSeen(ctx, shown)
		},
	}
	cmd.Flags().BoolVar(&all, "all", false, "include notifications already seen")
	return cmd
}
