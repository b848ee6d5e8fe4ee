package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

func newRegisterCmd(c *cli) *cobra.Command {
	var name, email, password string

	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account and sign in",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := c.load(cmd.Context())
			if err != nil {
				return err
			}
			ctx, cancel := c.context(cmd)
			defer cancel()

			if err := a.authStore.Register(ctx, name, email, password); err != nil {
				return errors.New(a.authStore.Snapshot().Err)
			}
			return printSignedIn(cmd, a, "Registered")
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "Display name")
	cmd.Flags().StringVar(&email, "email", "", "Email address")
	cmd.Flags().StringVar(&password, "password", "", "Password (at least 6 characters)")
	cmd.MarkFlagRequired("name")
	cmd.MarkFlagRequired("email")
	cmd.MarkFlagRequired("password")
	return cmd
}

func newLoginCmd(c *cli) *cobra.Command {
	var email, password string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in with email and password",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := c.load(cmd.Context())
			if err != nil {
				return err
			}
			ctx, cancel := c.context(cmd)
			defer cancel()

			if err := a.authStore.Login(ctx, email, password); err != nil {
				return errors.New(a.authStore.Snapshot().Err)
			}
			return printSignedIn(cmd, a, "Signed in")
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "Email address")
	cmd.Flags().StringVar(&password, "password", "", "Password")
	cmd.MarkFlagRequired("email")
	cmd.MarkFlagRequired("password")
	return cmd
}

func newLogoutCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Sign out and revoke the stored token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := c.load(cmd.Context())
			if err != nil {
				return err
			}
			if !a.session.IsAuthenticated() {
				fmt.Fprintln(cmd.OutOrStdout(), "Not signed in")
				return nil
			}

			ctx, cancel := c.context(cmd)
			defer cancel()

			if err := a.authStore.Logout(ctx); err != nil {
				return errors.New(a.authStore.Snapshot().Err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Signed out")
			return nil
		},
	}
}

func newWhoamiCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := c.load(cmd.Context())
			if err != nil {
				return err
			}
			ctx, cancel := c.context(cmd)
			defer cancel()

			claims, err := a.requireUser(ctx)
			if errors.Is(err, errNotSignedIn) {
				fmt.Fprintln(cmd.OutOrStdout(), "Not signed in")
				return nil
			}
			if err != nil {
				return err
			}

			user, err := a.service.GetUser(ctx, claims.UserID)
			if err != nil {
				return fmt.Errorf("failed to load user: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s <%s>\n", user.Name, user.Email)
			return nil
		},
	}
}

func printSignedIn(cmd *cobra.Command, a *app, verb string) error {
	state := a.authStore.Snapshot()
	if state.User == nil {
		return errNotSignedIn
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s as %s <%s>\n", verb, state.User.Name, state.User.Email)
	return nil
}
