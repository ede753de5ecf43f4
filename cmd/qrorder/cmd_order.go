package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/howlrs/pos-qr-go/internal/models"
	"github.com/howlrs/pos-qr-go/internal/service"
)

func newOrderCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "order",
		Short: "Order from a seat session",
		Long: `Customer ordering for the session encoded in a seat's QR code.

Every subcommand takes the session id as its first argument.`,
	}
	cmd.AddCommand(
		newOrderShowCmd(a),
		newOrderMenuCmd(a),
		newOrderCartCmd(a),
		newOrderAddCmd(a),
		newOrderUpdateCmd(a),
		newOrderRemoveCmd(a),
		newOrderClearCmd(a),
		newOrderPlaceCmd(a),
		newOrderHistoryCmd(a),
		newOrderStatusCmd(a),
		newOrderWatchCmd(a),
		newOrderReceiptCmd(a),
	)
	return cmd
}

// withSession runs fn with an open order session for args[0]
func (a *app) withSession(fn func(cmd *cobra.Command, s *service.OrderSession, args []string) error) func(*cobra.Command, []string) error {
	return a.runE(func(cmd *cobra.Command, args []string) error {
		s, err := a.orderSession(args[0])
		if err != nil {
			return err
		}
		defer s.Close()
		return fn(cmd, s, args[1:])
	})
}

func newOrderShowCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "show SESSION",
		Short: "Show the session, its cart and the active order",
		Args:  cobra.ExactArgs(1),
		RunE: a.withSession(func(cmd *cobra.Command, s *service.OrderSession, _ []string) error {
			out := cmd.OutOrStdout()
			view, err := s.Load(cmd.Context())
			if view.Session != nil {
				printSession(out, view.Session, time.Now())
			}
			if err != nil {
				return err
			}
			printCart(out, view.Cart)

			if o, ok, err := s.ActiveOrder(cmd.Context()); err == nil && ok {
				fmt.Fprintf(out, "Order %s: %s\n", o.OrderNumber, o.Status.Message())
			}
			return nil
		}),
	}
}

func newOrderMenuCmd(a *app) *cobra.Command {
	var category, search string
	cmd := &cobra.Command{
		Use:   "menu SESSION",
		Short: "Browse the menu",
		Args:  cobra.ExactArgs(1),
		RunE: a.withSession(func(cmd *cobra.Command, s *service.OrderSession, _ []string) error {
			menu, err := s.Menu(cmd.Context())
			if err != nil {
				return err
			}
			printMenu(cmd.OutOrStdout(), menu, category, search)
			return nil
		}),
	}
	cmd.Flags().StringVarP(&category, "category", "c", models.AllCategories, "category id")
	cmd.Flags().StringVarP(&search, "search", "s", "", "search name and description")
	return cmd
}

func newOrderCartCmd(a *app) *cobra.Command {
	var watch bool
	cmd := &cobra.Command{
		Use:   "cart SESSION",
		Short: "Show the cart",
		Args:  cobra.ExactArgs(1),
		RunE: a.withSession(func(cmd *cobra.Command, s *service.OrderSession, _ []string) error {
			out := cmd.OutOrStdout()
			if !watch {
				cart, err := s.Cart(cmd.Context())
				if err != nil {
					return err
				}
				printCart(out, cart)
				return nil
			}

			err := s.PollCart(cmd.Context(), func(cart *models.Cart, err error) {
				if err != nil {
					fmt.Fprintln(out, "Refresh failed:", err)
					return
				}
				printCart(out, cart)
			})
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		}),
	}
	cmd.Flags().BoolVarP(&watch, "watch", "w", false, "keep refreshing until interrupted")
	return cmd
}

func newOrderAddCmd(a *app) *cobra.Command {
	var qty int
	var note string
	cmd := &cobra.Command{
		Use:   "add SESSION MENU_ITEM",
		Short: "Add a menu item to the cart",
		Args:  cobra.ExactArgs(2),
		RunE: a.withSession(func(cmd *cobra.Command, s *service.OrderSession, args []string) error {
			cart, err := s.AddItem(cmd.Context(), args[0], qty, note)
			if err != nil {
				return err
			}
			printCart(cmd.OutOrStdout(), cart)
			return nil
		}),
	}
	cmd.Flags().IntVarP(&qty, "qty", "q", 1, "quantity")
	cmd.Flags().StringVarP(&note, "note", "n", "", "special instructions")
	return cmd
}

func newOrderUpdateCmd(a *app) *cobra.Command {
	var qty int
	var note string
	cmd := &cobra.Command{
		Use:   "update SESSION LINE",
		Short: "Change the quantity of a cart line; 0 removes it",
		Args:  cobra.ExactArgs(2),
		RunE: a.withSession(func(cmd *cobra.Command, s *service.OrderSession, args []string) error {
			cart, err := s.UpdateItem(cmd.Context(), args[0], qty, note)
			if err != nil {
				return err
			}
			printCart(cmd.OutOrStdout(), cart)
			return nil
		}),
	}
	cmd.Flags().IntVarP(&qty, "qty", "q", 1, "new quantity")
	cmd.Flags().StringVarP(&note, "note", "n", "", "special instructions")
	_ = cmd.MarkFlagRequired("qty")
	return cmd
}

func newOrderRemoveCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "remove SESSION LINE",
		Short: "Remove a cart line",
		Args:  cobra.ExactArgs(2),
		RunE: a.withSession(func(cmd *cobra.Command, s *service.OrderSession, args []string) error {
			cart, err := s.RemoveItem(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			printCart(cmd.OutOrStdout(), cart)
			return nil
		}),
	}
}

func newOrderClearCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "clear SESSION",
		Short: "Empty the cart",
		Args:  cobra.ExactArgs(1),
		RunE: a.withSession(func(cmd *cobra.Command, s *service.OrderSession, _ []string) error {
			cart, err := s.Clear(cmd.Context())
			if err != nil {
				return err
			}
			printCart(cmd.OutOrStdout(), cart)
			return nil
		}),
	}
}

func newOrderPlaceCmd(a *app) *cobra.Command {
	var note string
	cmd := &cobra.Command{
		Use:   "place SESSION",
		Short: "Place an order for everything in the cart",
		Args:  cobra.ExactArgs(1),
		RunE: a.withSession(func(cmd *cobra.Command, s *service.OrderSession, _ []string) error {
			resp, err := s.PlaceOrder(cmd.Context(), note)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Order %s placed, %s. About %d minutes.\n",
				resp.Order.OrderNumber, models.FormatYen(resp.Order.TotalAmount), resp.EstimatedWaitTime)
			return nil
		}),
	}
	cmd.Flags().StringVarP(&note, "note", "n", "", "instructions for the whole order")
	return cmd
}

func newOrderHistoryCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "history SESSION",
		Short: "List the orders placed in the session",
		Args:  cobra.ExactArgs(1),
		RunE: a.withSession(func(cmd *cobra.Command, s *service.OrderSession, _ []string) error {
			h, err := s.RefreshHistory(cmd.Context())
			if err != nil {
				return err
			}
			printOrders(cmd.OutOrStdout(), h.Orders)
			return nil
		}),
	}
}

func newOrderStatusCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "status SESSION",
		Short: "Show the estimated progress of the active order",
		Args:  cobra.ExactArgs(1),
		RunE: a.withSession(func(cmd *cobra.Command, s *service.OrderSession, _ []string) error {
			o, ok, err := s.ActiveOrder(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if !ok {
				fmt.Fprintln(out, "No active order")
				return nil
			}
			fmt.Fprintf(out, "Order %s: %s\n", o.OrderNumber, o.Status.Message())
			printProgress(out, service.EstimateProgress(o, time.Now()))
			return nil
		}),
	}
}

func newOrderWatchCmd(a *app) *cobra.Command {
	var every time.Duration
	cmd := &cobra.Command{
		Use:   "watch SESSION",
		Short: "Follow the active order until it is done",
		Long: `Follow the active order. Status changes arrive over the push feed when it
is enabled; the history is also refreshed every --every as a fallback.`,
		Args: cobra.ExactArgs(1),
		RunE: a.withSession(func(cmd *cobra.Command, s *service.OrderSession, _ []string) error {
			return a.watch(cmd.Context(), cmd, s, every)
		}),
	}
	cmd.Flags().DurationVar(&every, "every", 15*time.Second, "history refresh interval")
	return cmd
}

func (a *app) watch(ctx context.Context, cmd *cobra.Command, s *service.OrderSession, every time.Duration) error {
	out := cmd.OutOrStdout()
	o, ok, err := s.ActiveOrder(ctx)
	if err != nil {
		return err
	}
	if !ok {
		fmt.Fprintln(out, "No active order")
		return nil
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	pushed := make(chan struct{}, 1)
	if a.feed != nil {
		go func() {
			err := a.feed.Run(ctx, s, func(service.FeedMessage) {
				select {
				case pushed <- struct{}{}:
				default:
				}
			})
			if err != nil && ctx.Err() == nil {
				a.logger.WithError(err).Warn("Order feed closed, falling back to polling")
			}
		}()
	}

	refresh := time.NewTicker(every)
	defer refresh.Stop()
	tick := time.NewTicker(service.ProgressInterval)
	defer tick.Stop()

	fmt.Fprintf(out, "Order %s: %s\n", o.OrderNumber, o.Status.Message())
	printProgress(out, service.EstimateProgress(o, time.Now()))
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-tick.C:
			printProgress(out, service.EstimateProgress(o, time.Now()))
			continue
		case <-pushed:
		case <-refresh.C:
			s.InvalidateHistory()
		}

		h, err := s.History(ctx)
		if err != nil {
			fmt.Fprintln(out, "Refresh failed:", err)
			continue
		}
		for _, next := range h.Orders {
			if next.ID != o.ID || next.Status == o.Status {
				continue
			}
			o = next
			fmt.Fprintf(out, "Order %s: %s\n", o.OrderNumber, o.Status.Message())
		}
		if !o.Status.IsActive() {
			printProgress(out, service.EstimateProgress(o, time.Now()))
			return nil
		}
	}
}

func newOrderReceiptCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "receipt SESSION [ORDER_NUMBER]",
		Short: "Print a receipt for an order, the latest by default",
		Args:  cobra.RangeArgs(1, 2),
		RunE: a.withSession(func(cmd *cobra.Command, s *service.OrderSession, args []string) error {
			ctx := cmd.Context()
			sess, err := s.Session(ctx)
			if err != nil {
				return err
			}
			h, err := s.History(ctx)
			if err != nil {
				return err
			}
			if len(h.Orders) == 0 {
				return errors.New("no orders in this session")
			}

			order := &h.Orders[0]
			if len(args) == 1 {
				order = nil
				for i := range h.Orders {
					if h.Orders[i].OrderNumber == args[0] || h.Orders[i].ID == args[0] {
						order = &h.Orders[i]
						break
					}
				}
				if order == nil {
					return fmt.Errorf("order %s not found in session %s", args[0], s.ID())
				}
			}

			fmt.Fprint(cmd.OutOrStdout(), service.GenerateReceiptText(order, &sess.Store))
			return nil
		}),
	}
}
