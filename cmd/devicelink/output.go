package main

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/devicelink/core/internal/client"
)

func newTable(out io.Writer, header string) *tabwriter.Writer {
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, header)
	return w
}

func printListings(out io.Writer, title string, items []client.Listing) {
	fmt.Fprintf(out, "%s (%d)\n", title, len(items))
	if len(items) == 0 {
		fmt.Fprintln(out, "  none")
		return
	}
	w := newTable(out, "ID\tTITLE\tCATEGORY\tCONDITION\tQTY\tOWNER\tSTATUS\tMODERATION")
	for _, l := range items {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%d\t%s\t%s\t%s\n", l.ID, l.Title, l.Category, l.Condition, l.Quantity, l.Owner, l.Status, l.Moderation)
	}
	w.Flush()
}

func printListing(out io.Writer, l *client.Listing) {
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintf(w, "ID:\t%d\n", l.ID)
	fmt.Fprintf(w, "Title:\t%s\n", l.Title)
	fmt.Fprintf(w, "Description:\t%s\n", l.Description)
	fmt.Fprintf(w, "Category:\t%s\n", l.Category)
	fmt.Fprintf(w, "Condition:\t%s\n", l.Condition)
	fmt.Fprintf(w, "Quantity:\t%d\n", l.Quantity)
	fmt.Fprintf(w, "Owner:\t%s\n", l.Owner)
	fmt.Fprintf(w, "Status:\t%s\n", l.Status)
	fmt.Fprintf(w, "Moderation:\t%s\n", l.Moderation)
	fmt.Fprintf(w, "Created:\t%s\n", formatTime(l.CreatedAt))
	w.Flush()
}

func printUsers(out io.Writer, users []client.User) {
	w := newTable(out, "ID\tUSERNAME\tADMIN\tSUSPENDED\tWARNINGS")
	for _, u := range users {
		fmt.Fprintf(w, "%d\t%s\t%t\t%t\t%d\n", u.ID, u.Username, u.IsAdmin, u.IsSuspended, u.WarningCount)
	}
	w.Flush()
}

func printActivity(out io.Writer, entries []client.ActivityEntry) {
	w := newTable(out, "TIME\tACTION\tUSER\tDETAILS")
	for _, e := range entries {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", formatTime(e.CreatedAt), e.Action, e.Username, e.Details)
	}
	w.Flush()
}

func printWarnings(out io.Writer, warnings []client.Warning) {
	if len(warnings) == 0 {
		fmt.Fprintln(out, "No warnings")
		return
	}
	w := newTable(out, "TIME\tISSUED BY\tREASON")
	for _, wr := range warnings {
		fmt.Fprintf(w, "%s\t%s\t%s\n", formatTime(wr.CreatedAt), wr.IssuedBy, wr.Reason)
	}
	w.Flush()
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format("2006-01-02 15:04")
}
