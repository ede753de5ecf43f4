// Command qrorder is a terminal client for the QR ordering API: customers
// browse the menu, fill the cart and follow their orders; admins and store
// managers run the back office.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/howlrs/pos-qr-go/internal/client"
	"github.com/howlrs/pos-qr-go/internal/config"
	"github.com/howlrs/pos-qr-go/internal/logging"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", errorText(err))
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}

	a, err := newApp(ctx, cfg, logging.New(cfg.Logging), os.Stdout)
	if err != nil {
		return err
	}
	defer a.close()

	root := newRootCmd(a)
	root.SetArgs(args)
	return root.ExecuteContext(ctx)
}

// errorText is what the user sees for err. API failures use the
// user-facing message and keep the code for support.
func errorText(err error) string {
	apiErr, ok := client.AsAPIError(err)
	if !ok {
		return err.Error()
	}
	return fmt.Sprintf("%s (%s)", client.UserMessage(apiErr), apiErr.Code)
}

// newRootCmd builds the command tree bound to a
func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:           "qrorder",
		Short:         "QR ordering and back-office client",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(a.out)

	root.AddCommand(
		newLoginCmd(a),
		newLogoutCmd(a),
		newWhoamiCmd(a),
		newRefreshCmd(a),
		newOrderCmd(a),
		newAdminCmd(a),
		newStoreCmd(a),
	)
	return root
}

// runE runs fn inside the monitoring boundary named after the command
func (a *app) runE(fn func(cmd *cobra.Command, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		return a.boundary.Run(cmd.Context(), cmd.CommandPath(), func(context.Context) error {
			return fn(cmd, args)
		})
	}
}
