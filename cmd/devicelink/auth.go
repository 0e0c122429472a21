package main

import (
	"github.com/spf13/cobra"
)

func (c *cli) password(cmd *cobra.Command) (string, error) {
	pw, _ := cmd.Flags().GetString("password")
	if pw != "" {
		return pw, nil
	}
	return c.prompt("Password: ")
}

func (c *cli) registerCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "register USERNAME",
		Short: "Create an account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			pw, err := c.password(cmd)
			if err != nil {
				return err
			}
			if err := c.api.Register(cmd.Context(), args[0], pw); err != nil {
				return err
			}
			c.printf("Success! Please login.\n")
			return nil
		},
	}
	cmd.Flags().String("password", "", "Password (prompted when empty)")
	return cmd
}

func (c *cli) loginCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "login USERNAME",
		Short: "Sign in and remember the session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			pw, err := c.password(cmd)
			if err != nil {
				return err
			}
			s, err := c.api.Login(cmd.Context(), args[0], pw)
			if err != nil {
				return err
			}
			if err := c.persist(); err != nil {
				return err
			}
			role := "user"
			if s.IsAdmin {
				role = "admin"
			}
			c.printf("Logged in as %s (%s)\n", s.Username, role)
			return nil
		},
	}
	cmd.Flags().String("password", "", "Password (prompted when empty)")
	return cmd
}

func (c *cli) logoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Revoke and forget the session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			err := c.api.Logout(cmd.Context())
			if clearErr := clearSession(c.sessionPath); clearErr != nil {
				return clearErr
			}
			if err != nil {
				return err
			}
			c.printf("Logged out\n")
			return nil
		},
	}
}

func (c *cli) whoamiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the logged in user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := c.requireLogin(); err != nil {
				return err
			}
			s := c.api.Session()
			isAdmin, err := c.api.CheckAdmin(cmd.Context(), s.Username)
			if err != nil {
				return err
			}
			c.printf("%s on %s (admin: %t)\n", s.Username, c.server, isAdmin)
			return nil
		},
	}
}
