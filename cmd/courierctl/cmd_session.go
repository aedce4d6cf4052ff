package main

import (
	"context"
	"fmt"

	"bookcourier/internal/access"

	"github.com/spf13/cobra"
)

var (
	loginPassword string
	regName       string
	regPhoto      string
	regPassword   string
)

// courierctl login <email>
var loginCmd = &cobra.Command{
	Use:   "login <email>",
	Short: "Sign in and keep the session",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := bootApp(cmd)
		if err != nil {
			return err
		}
		pw, err := passwordFrom(cmd, loginPassword)
		if err != nil {
			return err
		}
		u, err := a.session.SignIn(cmd.Context(), args[0], pw)
		if err != nil {
			return err
		}
		fmt.Fprintf(a.out, "Signed in as %s (%s)\n", u.Email, a.role(cmd.Context()))
		return nil
	},
}

// courierctl register <email>
var registerCmd = &cobra.Command{
	Use:   "register <email>",
	Short: "Create an account and sign in",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := bootApp(cmd)
		if err != nil {
			return err
		}
		pw, err := passwordFrom(cmd, regPassword)
		if err != nil {
			return err
		}
		u, err := a.session.Register(cmd.Context(), regName, args[0], pw, regPhoto)
		if err != nil {
			return err
		}
		// first sign-in creates the backend user
		if _, err := a.catalog.SaveProfile(cmd.Context(), u.Name, u.Photo); err != nil {
			return err
		}
		fmt.Fprintf(a.out, "Welcome, %s\n", u.Name)
		return nil
	},
}

// courierctl logout
var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Sign out and forget the session",
	RunE: run(func(ctx context.Context, a *app, args []string) error {
		if err := a.session.SignOut(); err != nil {
			return err
		}
		fmt.Fprintln(a.out, "Signed out")
		return nil
	}),
}

// courierctl whoami
var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the signed-in user and role",
	RunE: run(func(ctx context.Context, a *app, args []string) error {
		u, ok := a.session.CurrentUser()
		if !ok {
			return fmt.Errorf("not signed in")
		}
		w := a.table("EMAIL", "NAME", "ROLE")
		fmt.Fprintf(w, "%s\t%s\t%s\n", u.Email, u.Name, a.role(ctx))
		return w.Flush()
	}),
}

// courierctl menu
var menuCmd = &cobra.Command{
	Use:   "menu",
	Short: "List the dashboard entries for your role",
	RunE: run(func(ctx context.Context, a *app, args []string) error {
		if err := a.enter(ctx, "/dashboard"); err != nil {
			return err
		}
		role := a.role(ctx)
		w := a.table("MENU", "PATH")
		for _, m := range access.Menu(role) {
			fmt.Fprintf(w, "%s\t%s\n", m.Label, m.Path)
		}
		for _, m := range access.QuickActions(role) {
			fmt.Fprintf(w, "%s (quick action)\t%s\n", m.Label, m.Path)
		}
		return w.Flush()
	}),
}

func init() {
	loginCmd.Flags().StringVarP(&loginPassword, "password", "p", "", "password, read from stdin when omitted")

	registerCmd.Flags().StringVar(&regName, "name", "", "display name")
	registerCmd.Flags().StringVar(&regPhoto, "photo", "", "photo URL")
	registerCmd.Flags().StringVarP(&regPassword, "password", "p", "", "password, read from stdin when omitted")
	_ = registerCmd.MarkFlagRequired("name")
}
