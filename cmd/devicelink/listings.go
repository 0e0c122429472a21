package main

import (
	"fmt"
	"strconv"

	"github.com/devicelink/core/internal/client"
	"github.com/spf13/cobra"
)

func parseID(raw string) (uint, error) {
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("invalid listing id %q", raw)
	}
	return uint(id), nil
}

func (c *cli) listingsCmd() *cobra.Command {
	var f client.ListingFilter
	var minQty, maxQty int

	cmd := &cobra.Command{
		Use:   "listings",
		Short: "Browse your listings and the public ones",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := c.requireLogin(); err != nil {
				return err
			}
			if cmd.Flags().Changed("min") {
				f.MinQuantity = &minQty
			}
			if cmd.Flags().Changed("max") {
				f.MaxQuantity = &maxQty
			}
			b := client.NewBrowser(c.api)
			b.SetFilter(f)
			if err := b.Refresh(cmd.Context()); err != nil {
				return err
			}
			own, public := b.Split()
			printListings(c.out, "Your listings", own)
			c.printf("\n")
			printListings(c.out, "Public listings", public)
			return nil
		},
	}
	cmd.Flags().StringVarP(&f.Query, "query", "q", "", "Search title and description")
	cmd.Flags().StringVar(&f.Category, "category", "", "Laptop, Phone, Tablet or Other")
	cmd.Flags().StringVar(&f.Condition, "condition", "", "Excellent, Good, Fair or Poor")
	cmd.Flags().IntVar(&minQty, "min", 0, "Minimum quantity")
	cmd.Flags().IntVar(&maxQty, "max", 0, "Maximum quantity")

	cmd.AddCommand(c.showListingCmd(), c.createListingCmd(), c.editListingCmd(), c.statusListingCmd(), c.deleteListingCmd())
	return cmd
}

func (c *cli) showListingCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show ID",
		Short: "Show one listing",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			l, err := c.api.GetListing(cmd.Context(), id)
			if err != nil {
				return err
			}
			printListing(c.out, l)
			return nil
		},
	}
}

func listingFlags(cmd *cobra.Command, in *client.ListingInput) {
	cmd.Flags().StringVar(&in.Title, "title", "", "Title")
	cmd.Flags().StringVar(&in.Description, "description", "", "Description")
	cmd.Flags().StringVar(&in.Category, "category", "", "Laptop, Phone, Tablet or Other")
	cmd.Flags().StringVar(&in.Condition, "condition", "", "Excellent, Good, Fair or Poor")
	cmd.Flags().IntVar(&in.Quantity, "quantity", 1, "How many devices")
}

func (c *cli) createListingCmd() *cobra.Command {
	var in client.ListingInput
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Offer a device",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := c.requireLogin(); err != nil {
				return err
			}
			l, err := client.NewBrowser(c.api).Create(cmd.Context(), in)
			if err != nil {
				return err
			}
			c.printf("Created listing %d (%s)\n", l.ID, l.Moderation)
			return nil
		},
	}
	listingFlags(cmd, &in)
	_ = cmd.MarkFlagRequired("title")
	_ = cmd.MarkFlagRequired("category")
	_ = cmd.MarkFlagRequired("condition")
	return cmd
}

func (c *cli) editListingCmd() *cobra.Command {
	var in client.ListingInput
	var status string
	cmd := &cobra.Command{
		Use:   "edit ID",
		Short: "Change fields of one of your listings",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := c.requireLogin(); err != nil {
				return err
			}
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			current, err := c.api.GetListing(cmd.Context(), id)
			if err != nil {
				return err
			}

			// PUT replaces every field, so start from the stored listing.
			up := client.UpdateFrom(*current)
			flags := cmd.Flags()
			if flags.Changed("title") {
				up.Title = in.Title
			}
			if flags.Changed("description") {
				up.Description = in.Description
			}
			if flags.Changed("category") {
				up.Category = in.Category
			}
			if flags.Changed("condition") {
				up.Condition = in.Condition
			}
			if flags.Changed("quantity") {
				up.Quantity = in.Quantity
			}
			if flags.Changed("status") {
				up.Status = status
			}

			l, err := client.NewBrowser(c.api).Update(cmd.Context(), id, up)
			if err != nil {
				return err
			}
			c.printf("Updated listing %d (%s, %s)\n", l.ID, l.Status, l.Moderation)
			return nil
		},
	}
	listingFlags(cmd, &in)
	cmd.Flags().StringVar(&status, "status", "", "ACTIVE, COMPLETED or DELETED")
	return cmd
}

func (c *cli) statusListingCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status ID STATUS",
		Short: "Mark a listing ACTIVE or COMPLETED",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := c.requireLogin(); err != nil {
				return err
			}
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			b := client.NewBrowser(c.api)
			if err := b.Refresh(cmd.Context()); err != nil {
				return err
			}
			l, err := b.SetStatus(cmd.Context(), id, args[1])
			if err != nil {
				return err
			}
			c.printf("Listing %d is now %s\n", l.ID, l.Status)
			return nil
		},
	}
}

func (c *cli) deleteListingCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete ID",
		Short: "Remove a listing",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := c.requireLogin(); err != nil {
				return err
			}
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			if err := client.NewBrowser(c.api).Delete(cmd.Context(), id); err != nil {
				return err
			}
			c.printf("Deleted listing %d\n", id)
			return nil
		},
	}
}
