package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/howlrs/pos-qr-go/internal/auth"
	"github.com/howlrs/pos-qr-go/internal/models"
	"github.com/howlrs/pos-qr-go/internal/service"
)

func newStoreCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "store",
		Short: "Store back office (store role)",
	}
	cmd.AddCommand(newStoreSeatsCmd(a), newStoreSeatCmd(a), newStoreOrdersCmd(a))
	return cmd
}

func newStoreSeatsCmd(a *app) *cobra.Command {
	req := auth.StoreOnly(auth.PermManageSeats)
	cmd := &cobra.Command{Use: "seats", Short: "Manage seats"}

	var params models.ListParams
	list := &cobra.Command{
		Use:   "list",
		Short: "List seats",
		Args:  cobra.NoArgs,
		RunE: a.guarded(req, func(cmd *cobra.Command, _ []string) error {
			resp, err := a.seats.List(cmd.Context(), params)
			if err != nil {
				return err
			}
			tw := table(cmd.OutOrStdout())
			fmt.Fprintln(tw, "ID\tNUMBER\tNAME\tCAPACITY\tSTATUS\tACTIVE")
			for _, s := range resp.Seats {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\t%t\n", s.ID, s.Number, s.Name, s.Capacity, s.Status, s.IsActive)
			}
			tw.Flush()
			printPage(cmd.OutOrStdout(), len(resp.Seats), resp.Total, resp.Page, resp.Limit)
			return nil
		}),
	}
	listFlags(list.Flags(), &params, nil)
	list.Flags().StringVar(&params.Status, "status", "", "filter by seat status")

	get := &cobra.Command{
		Use:   "get SEAT",
		Short: "Show a seat",
		Args:  cobra.ExactArgs(1),
		RunE: a.guarded(req, func(cmd *cobra.Command, args []string) error {
			s, err := a.seats.Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			printSeat(cmd.OutOrStdout(), s)
			return nil
		}),
	}

	var create models.CreateSeatRequest
	createCmd := &cobra.Command{
		Use:   "create",
		Short: "Create a seat and its QR code",
		Args:  cobra.NoArgs,
		RunE: a.guarded(req, func(cmd *cobra.Command, _ []string) error {
			s, err := a.seats.Create(cmd.Context(), create)
			if err != nil {
				return err
			}
			printSeat(cmd.OutOrStdout(), s)
			return nil
		}),
	}
	createCmd.Flags().StringVar(&create.Number, "number", "", "seat number")
	createCmd.Flags().StringVar(&create.Name, "name", "", "seat name")
	createCmd.Flags().StringVar(&create.Description, "description", "", "description")
	createCmd.Flags().IntVar(&create.Capacity, "capacity", 2, "number of guests")
	_ = createCmd.MarkFlagRequired("number")
	_ = createCmd.MarkFlagRequired("name")

	var number, name, description string
	var capacity int
	update := &cobra.Command{
		Use:   "update SEAT",
		Short: "Update seat fields given as flags",
		Args:  cobra.ExactArgs(1),
		RunE: a.guarded(req, func(cmd *cobra.Command, args []string) error {
			s, err := a.seats.Update(cmd.Context(), args[0], models.UpdateSeatRequest{
				Number:      optional(cmd, "number", number),
				Name:        optional(cmd, "name", name),
				Description: optional(cmd, "description", description),
				Capacity:    optional(cmd, "capacity", capacity),
			})
			if err != nil {
				return err
			}
			printSeat(cmd.OutOrStdout(), s)
			return nil
		}),
	}
	update.Flags().StringVar(&number, "number", "", "seat number")
	update.Flags().StringVar(&name, "name", "", "seat name")
	update.Flags().StringVar(&description, "description", "", "description")
	update.Flags().IntVar(&capacity, "capacity", 0, "number of guests")

	status := &cobra.Command{
		Use:   "status SEAT STATUS",
		Short: "Set the floor status (available, occupied, reserved, cleaning, maintenance)",
		Args:  cobra.ExactArgs(2),
		RunE: a.guarded(req, func(cmd *cobra.Command, args []string) error {
			s, err := a.seats.UpdateStatus(cmd.Context(), args[0], models.SeatStatus(args[1]))
			if err != nil {
				return err
			}
			printSeat(cmd.OutOrStdout(), s)
			return nil
		}),
	}

	del := &cobra.Command{
		Use:   "delete SEAT",
		Short: "Delete a seat",
		Args:  cobra.ExactArgs(1),
		RunE: a.guarded(req, func(cmd *cobra.Command, args []string) error {
			if err := a.seats.Delete(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Seat %s deleted\n", args[0])
			return nil
		}),
	}

	cmd.AddCommand(list, get, createCmd, update, status, del)
	return cmd
}

func printSeat(out io.Writer, s *models.Seat) {
	fmt.Fprintf(out, "%s  %s (%s)\n", s.ID, s.Name, s.Number)
	fmt.Fprintf(out, "  capacity: %d\n", s.Capacity)
	fmt.Fprintf(out, "  status:   %s\n", s.Status)
	fmt.Fprintf(out, "  active:   %t\n", s.IsActive)
}

// newStoreSeatCmd groups commands acting on one seat
func newStoreSeatCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{Use: "seat", Short: "Per-seat actions"}

	var pngPath string
	var size int
	var regenerate bool
	qr := &cobra.Command{
		Use:   "qr SEAT",
		Short: "Show a seat's ordering QR code",
		Long: `Show the QR code customers scan to open an order session for the seat.
--regenerate closes the current session and issues a new code.`,
		Args: cobra.ExactArgs(1),
		RunE: a.guarded(auth.StoreOnly(auth.PermManageSeats), func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			var resp *models.QRCodeResponse
			var err error
			if regenerate {
				resp, err = a.seats.RegenerateQR(ctx, args[0])
			} else {
				resp, err = a.seats.QR(ctx, args[0])
			}
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, resp.SessionURL)
			if pngPath != "" {
				png, err := service.SeatQRCode(a.qr, resp, size)
				if err != nil {
					return err
				}
				if err := os.WriteFile(pngPath, png, 0o644); err != nil {
					return fmt.Errorf("write %s: %w", pngPath, err)
				}
				fmt.Fprintf(out, "Wrote %s\n", pngPath)
				return nil
			}

			content, err := service.SeatQRContent(resp)
			if err != nil {
				return err
			}
			art, err := a.qr.Terminal(content)
			if err != nil {
				return err
			}
			fmt.Fprint(out, art)
			return nil
		}),
	}
	qr.Flags().StringVar(&pngPath, "png", "", "write the code as a PNG file instead")
	qr.Flags().IntVar(&size, "size", 256, "PNG size in pixels")
	qr.Flags().BoolVar(&regenerate, "regenerate", false, "issue a new code")

	cmd.AddCommand(qr)
	return cmd
}

func newStoreOrdersCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{Use: "orders", Short: "Kitchen order flow"}

	advance := &cobra.Command{
		Use:   "advance ORDER STATUS",
		Short: "Move an order to confirmed, preparing, ready, served or cancelled",
		Args:  cobra.ExactArgs(2),
		RunE: a.guarded(auth.StoreOnly(auth.PermManageOrders), func(cmd *cobra.Command, args []string) error {
			o, err := a.staff.Advance(cmd.Context(), args[0], models.OrderStatus(args[1]))
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Order %s is now %s\n", o.OrderNumber, o.Status.Label())
			return nil
		}),
	}

	cmd.AddCommand(advance)
	return cmd
}
