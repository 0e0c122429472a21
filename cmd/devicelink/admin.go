package main

import (
	"fmt"
	"strings"

	"github.com/devicelink/core/internal/client"
	"github.com/spf13/cobra"
)

func (c *cli) adminCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "admin",
		Short: "Moderation console (admin accounts only)",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := c.connect(cmd.Flags().Changed("server")); err != nil {
				return err
			}
			return c.requireLogin()
		},
	}

	var limit int
	tab := func(use, short string, t client.Tab) *cobra.Command {
		return &cobra.Command{
			Use:   use,
			Short: short,
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				k := client.NewConsole(c.api)
				k.ActivityLimit = limit
				if err := k.SwitchTab(cmd.Context(), t); err != nil {
					return err
				}
				switch t {
				case client.TabAccounts:
					printUsers(c.out, k.Users())
				case client.TabListings:
					printListings(c.out, "All listings", k.Listings())
				case client.TabActivity:
					printActivity(c.out, k.Activity())
				}
				return nil
			},
		}
	}
	activity := tab("activity", "Recent activity, newest first", client.TabActivity)
	activity.Flags().IntVar(&limit, "limit", 0, "Number of entries (server default 50, max 500)")

	cmd.AddCommand(
		tab("users", "All accounts", client.TabAccounts),
		tab("listings", "All listings including pending and deleted", client.TabListings),
		activity,
		c.warningsCmd(),
		c.warnCmd(),
		c.suspendCmd("suspend", true),
		c.suspendCmd("unsuspend", false),
		c.approveCmd("approve", true),
		c.approveCmd("reject", false),
		c.backupsCmd(),
		c.jobsCmd(),
	)
	return cmd
}

func (c *cli) warningsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "warnings USERNAME",
		Short: "Warning history of a user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			warnings, err := client.NewConsole(c.api).Warnings(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			printWarnings(c.out, warnings)
			return nil
		},
	}
}

func (c *cli) warnCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "warn USERNAME REASON...",
		Short: "Issue a warning",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			k := client.NewConsole(c.api)
			if err := k.IssueWarning(cmd.Context(), args[0], strings.Join(args[1:], " ")); err != nil {
				return err
			}
			for _, u := range k.Users() {
				if u.Username == args[0] {
					c.printf("Warning issued to %s (%d total)\n", u.Username, u.WarningCount)
					return nil
				}
			}
			c.printf("Warning issued to %s\n", args[0])
			return nil
		},
	}
}

func (c *cli) suspendCmd(use string, suspend bool) *cobra.Command {
	return &cobra.Command{
		Use:   use + " USERNAME",
		Short: strings.ToUpper(use[:1]) + use[1:] + " an account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := client.NewConsole(c.api).SetSuspended(cmd.Context(), args[0], suspend); err != nil {
				return err
			}
			c.printf("User %s %sed\n", args[0], use)
			return nil
		},
	}
}

func (c *cli) approveCmd(use string, approve bool) *cobra.Command {
	return &cobra.Command{
		Use:   use + " ID",
		Short: strings.ToUpper(use[:1]) + use[1:] + " a listing",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			k := client.NewConsole(c.api)
			if err := k.Approve(cmd.Context(), id, approve); err != nil {
				return err
			}
			for _, l := range k.Listings() {
				if l.ID == id {
					c.printf("Listing %d is %s\n", l.ID, l.Moderation)
					return nil
				}
			}
			return nil
		},
	}
}

func (c *cli) backupsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "backups",
		Short: "List database backups",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			items, err := c.api.Backups(cmd.Context())
			if err != nil {
				return err
			}
			w := newTable(c.out, "FILE\tSIZE\tCREATED")
			for _, b := range items {
				fmt.Fprintf(w, "%s\t%s\t%s\n", b.Filename, b.Size, formatTime(b.CreatedAt))
			}
			return w.Flush()
		},
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "create",
		Short: "Back up the database now",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := c.api.CreateBackup(cmd.Context())
			if err != nil {
				return err
			}
			c.printf("Backup written: %s\n", b.Filename)
			if b.ObjectKey != "" {
				c.printf("Uploaded as %s\n", b.ObjectKey)
			}
			return nil
		},
	})
	return cmd
}

func (c *cli) jobsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "jobs",
		Short: "Background jobs and their last outcome",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			jobs, err := c.api.Jobs(cmd.Context())
			if err != nil {
				return err
			}
			w := newTable(c.out, "NAME\tINTERVAL\tSTATUS\tLAST RUN\tMESSAGE")
			for _, j := range jobs {
				last := "-"
				if j.LastRunAt != nil {
					last = formatTime(*j.LastRunAt)
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", j.Name, j.Interval, j.Status, last, j.Message)
			}
			return w.Flush()
		},
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "run NAME",
		Short: "Run a job now and wait for it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			status, message, err := c.api.RunJob(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			c.printf("%s: %s %s\n", args[0], status, message)
			return nil
		},
	})
	return cmd
}
