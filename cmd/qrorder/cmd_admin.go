package main

import (
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/howlrs/pos-qr-go/internal/auth"
	"github.com/howlrs/pos-qr-go/internal/models"
)

func newAdminCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "admin",
		Short: "Platform administration (admin role)",
	}
	cmd.AddCommand(newAdminStoresCmd(a), newAdminManagersCmd(a))
	return cmd
}

// guarded runs fn inside the monitoring boundary after req passes
func (a *app) guarded(req auth.Requirement, fn func(cmd *cobra.Command, args []string) error) func(*cobra.Command, []string) error {
	return a.runE(func(cmd *cobra.Command, args []string) error {
		if err := a.guard(cmd.Context(), req); err != nil {
			return err
		}
		return fn(cmd, args)
	})
}

func listFlags(fs *pflag.FlagSet, p *models.ListParams, active *string) {
	fs.IntVar(&p.Page, "page", 0, "page number")
	fs.IntVar(&p.Limit, "limit", 0, "page size")
	fs.StringVar(&p.Search, "search", "", "search text")
	if active != nil {
		fs.StringVar(active, "active", "", "filter by active flag (true|false)")
	}
}

func parseActive(p *models.ListParams, active string) error {
	if active == "" {
		return nil
	}
	v, err := strconv.ParseBool(active)
	if err != nil {
		return fmt.Errorf("--active: %w", err)
	}
	p.IsActive = &v
	return nil
}

// optional returns a pointer to the flag value when the flag was set
func optional[T any](cmd *cobra.Command, name string, v T) *T {
	if !cmd.Flags().Changed(name) {
		return nil
	}
	return &v
}

func printPage(out io.Writer, shown, total, page, limit int) {
	fmt.Fprintf(out, "%d of %d (page %d, %d per page)\n", shown, total, page, limit)
}

func newAdminStoresCmd(a *app) *cobra.Command {
	req := auth.AdminOnly(auth.PermManageStores)
	cmd := &cobra.Command{Use: "stores", Short: "Manage stores"}

	var params models.ListParams
	var active string
	list := &cobra.Command{
		Use:   "list",
		Short: "List stores",
		Args:  cobra.NoArgs,
		RunE: a.guarded(req, func(cmd *cobra.Command, _ []string) error {
			if err := parseActive(&params, active); err != nil {
				return err
			}
			resp, err := a.stores.List(cmd.Context(), params)
			if err != nil {
				return err
			}
			tw := table(cmd.OutOrStdout())
			fmt.Fprintln(tw, "ID\tNAME\tACTIVE\tPHONE\tEMAIL")
			for _, st := range resp.Stores {
				fmt.Fprintf(tw, "%s\t%s\t%t\t%s\t%s\n", st.ID, st.Name, st.IsActive, st.Phone, st.Email)
			}
			tw.Flush()
			printPage(cmd.OutOrStdout(), len(resp.Stores), resp.Total, resp.Page, resp.Limit)
			return nil
		}),
	}
	listFlags(list.Flags(), &params, &active)

	get := &cobra.Command{
		Use:   "get STORE",
		Short: "Show a store",
		Args:  cobra.ExactArgs(1),
		RunE: a.guarded(req, func(cmd *cobra.Command, args []string) error {
			st, err := a.stores.Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			printStore(cmd.OutOrStdout(), st)
			return nil
		}),
	}

	var create models.CreateStoreRequest
	createCmd := &cobra.Command{
		Use:   "create",
		Short: "Create a store",
		Args:  cobra.NoArgs,
		RunE: a.guarded(req, func(cmd *cobra.Command, _ []string) error {
			st, err := a.stores.Create(cmd.Context(), create)
			if err != nil {
				return err
			}
			printStore(cmd.OutOrStdout(), st)
			return nil
		}),
	}
	createCmd.Flags().StringVar(&create.Name, "name", "", "store name")
	createCmd.Flags().StringVar(&create.Description, "description", "", "description")
	createCmd.Flags().StringVar(&create.Address, "address", "", "address")
	createCmd.Flags().StringVar(&create.Phone, "phone", "", "phone number")
	createCmd.Flags().StringVar(&create.Email, "email", "", "contact email")
	_ = createCmd.MarkFlagRequired("name")

	var name, description, address, phone, email string
	update := &cobra.Command{
		Use:   "update STORE",
		Short: "Update store fields given as flags",
		Args:  cobra.ExactArgs(1),
		RunE: a.guarded(req, func(cmd *cobra.Command, args []string) error {
			st, err := a.stores.Update(cmd.Context(), args[0], models.UpdateStoreRequest{
				Name:        optional(cmd, "name", name),
				Description: optional(cmd, "description", description),
				Address:     optional(cmd, "address", address),
				Phone:       optional(cmd, "phone", phone),
				Email:       optional(cmd, "email", email),
			})
			if err != nil {
				return err
			}
			printStore(cmd.OutOrStdout(), st)
			return nil
		}),
	}
	update.Flags().StringVar(&name, "name", "", "store name")
	update.Flags().StringVar(&description, "description", "", "description")
	update.Flags().StringVar(&address, "address", "", "address")
	update.Flags().StringVar(&phone, "phone", "", "phone number")
	update.Flags().StringVar(&email, "email", "", "contact email")

	status := &cobra.Command{
		Use:   "status STORE true|false",
		Short: "Activate or deactivate a store",
		Args:  cobra.ExactArgs(2),
		RunE: a.guarded(req, func(cmd *cobra.Command, args []string) error {
			active, err := strconv.ParseBool(args[1])
			if err != nil {
				return err
			}
			st, err := a.stores.UpdateStatus(cmd.Context(), args[0], active)
			if err != nil {
				return err
			}
			printStore(cmd.OutOrStdout(), st)
			return nil
		}),
	}

	del := &cobra.Command{
		Use:   "delete STORE",
		Short: "Delete a store",
		Args:  cobra.ExactArgs(1),
		RunE: a.guarded(req, func(cmd *cobra.Command, args []string) error {
			if err := a.stores.Delete(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Store %s deleted\n", args[0])
			return nil
		}),
	}

	stats := &cobra.Command{
		Use:   "stats STORE",
		Short: "Show store sales statistics",
		Args:  cobra.ExactArgs(1),
		RunE: a.guarded(auth.AdminOnly(auth.PermAdminAnalytics), func(cmd *cobra.Command, args []string) error {
			s, err := a.stores.Stats(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Orders:  %d (today %d)\n", s.TotalOrders, s.OrdersToday)
			fmt.Fprintf(out, "Revenue: %s (today %s)\n", models.FormatYen(s.TotalRevenue), models.FormatYen(s.RevenueToday))
			fmt.Fprintf(out, "Average: %s\n", models.FormatYen(int64(s.AverageOrderValue)))
			fmt.Fprintf(out, "Active seats: %d\n", s.ActiveSeats)
			return nil
		}),
	}

	cmd.AddCommand(list, get, createCmd, update, status, del, stats)
	return cmd
}

func printStore(out io.Writer, st *models.Store) {
	fmt.Fprintf(out, "%s  %s\n", st.ID, st.Name)
	fmt.Fprintf(out, "  active:  %t\n", st.IsActive)
	fmt.Fprintf(out, "  address: %s\n", st.Address)
	fmt.Fprintf(out, "  phone:   %s\n", st.Phone)
	fmt.Fprintf(out, "  email:   %s\n", st.Email)
}

func newAdminManagersCmd(a *app) *cobra.Command {
	req := auth.AdminOnly(auth.PermManageManagers)
	cmd := &cobra.Command{Use: "managers", Short: "Manage store manager accounts"}

	var params models.ListParams
	var active string
	list := &cobra.Command{
		Use:   "list",
		Short: "List managers",
		Args:  cobra.NoArgs,
		RunE: a.guarded(req, func(cmd *cobra.Command, _ []string) error {
			if err := parseActive(&params, active); err != nil {
				return err
			}
			resp, err := a.managers.List(cmd.Context(), params)
			if err != nil {
				return err
			}
			tw := table(cmd.OutOrStdout())
			fmt.Fprintln(tw, "ID\tNAME\tEMAIL\tSTORE\tACTIVE")
			for _, m := range resp.Managers {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%t\n", m.ID, m.Name, m.Email, m.StoreID, m.IsActive)
			}
			tw.Flush()
			printPage(cmd.OutOrStdout(), len(resp.Managers), resp.Total, resp.Page, resp.Limit)
			return nil
		}),
	}
	listFlags(list.Flags(), &params, &active)

	get := &cobra.Command{
		Use:   "get MANAGER",
		Short: "Show a manager",
		Args:  cobra.ExactArgs(1),
		RunE: a.guarded(req, func(cmd *cobra.Command, args []string) error {
			m, err := a.managers.Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			printManager(cmd.OutOrStdout(), m)
			return nil
		}),
	}

	var create models.CreateManagerRequest
	var readonly bool
	createCmd := &cobra.Command{
		Use:   "create",
		Short: "Create a store manager",
		Args:  cobra.NoArgs,
		RunE: a.guarded(req, func(cmd *cobra.Command, _ []string) error {
			if len(create.Permissions) == 0 {
				create.Permissions = auth.StoreAll()
				if readonly {
					create.Permissions = auth.StoreReadonly()
				}
			}
			m, err := a.managers.Create(cmd.Context(), create)
			if err != nil {
				return err
			}
			printManager(cmd.OutOrStdout(), m)
			return nil
		}),
	}
	createCmd.Flags().StringVar(&create.Name, "name", "", "display name")
	createCmd.Flags().StringVar(&create.Email, "email", "", "login email")
	createCmd.Flags().StringVar(&create.Password, "password", "", "initial password")
	createCmd.Flags().StringVar(&create.StoreID, "store", "", "store the manager runs")
	createCmd.Flags().StringSliceVar(&create.Permissions, "permission", nil, "permission to grant (repeatable)")
	createCmd.Flags().BoolVar(&readonly, "readonly", false, "grant read-only store permissions")
	for _, f := range []string{"name", "email", "password", "store"} {
		_ = createCmd.MarkFlagRequired(f)
	}

	var name, email, password string
	var perms []string
	update := &cobra.Command{
		Use:   "update MANAGER",
		Short: "Update manager fields given as flags",
		Args:  cobra.ExactArgs(1),
		RunE: a.guarded(req, func(cmd *cobra.Command, args []string) error {
			m, err := a.managers.Update(cmd.Context(), args[0], models.UpdateManagerRequest{
				Name:        optional(cmd, "name", name),
				Email:       optional(cmd, "email", email),
				Password:    optional(cmd, "password", password),
				Permissions: perms,
			})
			if err != nil {
				return err
			}
			printManager(cmd.OutOrStdout(), m)
			return nil
		}),
	}
	update.Flags().StringVar(&name, "name", "", "display name")
	update.Flags().StringVar(&email, "email", "", "login email")
	update.Flags().StringVar(&password, "password", "", "new password")
	update.Flags().StringSliceVar(&perms, "permission", nil, "replace permissions (repeatable)")

	status := &cobra.Command{
		Use:   "status MANAGER true|false",
		Short: "Activate or deactivate a manager",
		Args:  cobra.ExactArgs(2),
		RunE: a.guarded(req, func(cmd *cobra.Command, args []string) error {
			active, err := strconv.ParseBool(args[1])
			if err != nil {
				return err
			}
			m, err := a.managers.UpdateStatus(cmd.Context(), args[0], active)
			if err != nil {
				return err
			}
			printManager(cmd.OutOrStdout(), m)
			return nil
		}),
	}

	del := &cobra.Command{
		Use:   "delete MANAGER",
		Short: "Delete a manager",
		Args:  cobra.ExactArgs(1),
		RunE: a.guarded(req, func(cmd *cobra.Command, args []string) error {
			if err := a.managers.Delete(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Manager %s deleted\n", args[0])
			return nil
		}),
	}

	cmd.AddCommand(list, get, createCmd, update, status, del)
	return cmd
}

func printManager(out io.Writer, m *models.Manager) {
	fmt.Fprintf(out, "%s  %s <%s>\n", m.ID, m.Name, m.Email)
	fmt.Fprintf(out, "  store:  %s\n", m.StoreID)
	fmt.Fprintf(out, "  active: %t\n", m.IsActive)
	fmt.Fprintf(out, "  permissions: %v\n", m.Permissions)
}
