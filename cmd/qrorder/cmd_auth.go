package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/howlrs/pos-qr-go/internal/auth"
	"github.com/howlrs/pos-qr-go/internal/models"
)

func newLoginCmd(a *app) *cobra.Command {
	var email, password string

	cmd := &cobra.Command{
		Use:       "login admin|store",
		Short:     "Log in to the back office",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{string(models.RoleAdmin), string(models.RoleStore)},
		RunE: a.runE(func(cmd *cobra.Command, args []string) error {
			role := models.UserRole(args[0])
			if !role.Valid() {
				return fmt.Errorf("unknown role %q", args[0])
			}
			user, err := a.auth.Login(cmd.Context(), role, email, password)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Logged in as %s <%s> (%s)\n", user.Name, user.Email, user.Role)
			return nil
		}),
	}
	cmd.Flags().StringVarP(&email, "email", "e", "", "account email")
	cmd.Flags().StringVarP(&password, "password", "p", "", "account password")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

func newLogoutCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Log out and forget the stored token",
		Args:  cobra.NoArgs,
		RunE: a.runE(func(cmd *cobra.Command, _ []string) error {
			if err := a.auth.Logout(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Logged out")
			return nil
		}),
	}
}

func newWhoamiCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the logged in user and permissions",
		Args:  cobra.NoArgs,
		RunE: a.runE(func(cmd *cobra.Command, _ []string) error {
			if err := a.guard(cmd.Context(), auth.Requirement{}); err != nil {
				return err
			}
			u := a.tokens.User()
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s <%s>\n", u.Name, u.Email)
			fmt.Fprintf(out, "Role:  %s\n", u.Role)
			if u.StoreID != "" {
				fmt.Fprintf(out, "Store: %s\n", u.StoreID)
			}
			perms := make([]string, 0, len(u.Permissions))
			for _, p := range u.Permissions {
				perms = append(perms, fmt.Sprintf("%s (%s)", p, auth.Description(p)))
			}
			fmt.Fprintf(out, "Permissions: %s\n", strings.Join(perms, ", "))
			return nil
		}),
	}
}

func newRefreshCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "refresh",
		Short: "Exchange the refresh token for a new access token",
		Args:  cobra.NoArgs,
		RunE: a.runE(func(cmd *cobra.Command, _ []string) error {
			if err := a.auth.Refresh(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Token refreshed")
			return nil
		}),
	}
}
