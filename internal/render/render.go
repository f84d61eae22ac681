// Package render formats the collections as text tables for the CLI.
package render

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/erazemk/stockroom/internal/model"
	"github.com/erazemk/stockroom/internal/tracker"
)

const timeLayout = "2006-01-02 15:04"

func newTable(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
}

// When formats t as an absolute time followed by how long ago it was.
func When(t, now time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return fmt.Sprintf("%s (%s)", t.Local().Format(timeLayout), humanize.RelTime(t, now, "ago", "from now"))
}

// Inventory writes the inventory table.
func Inventory(w io.Writer, items []model.InventoryItem) error {
	if len(items) == 0 {
		_, err := fmt.Fprintln(w, "No items in inventory.")
		return err
	}

	tw := newTable(w)
	fmt.Fprintln(tw, "NAME\tUPC\tMODEL\tQUANTITY")
	total := 0
	for _, item := range items {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", item.Name, item.UPC, item.Model, humanize.Comma(int64(item.Quantity)))
		total += item.Quantity
	}
	fmt.Fprintf(tw, "\t\tTOTAL\t%s\n", humanize.Comma(int64(total)))
	return tw.Flush()
}

// Removals writes the removal history, most recent first.
func Removals(w io.Writer, records []model.RemovalRecord, now time.Time) error {
	if len(records) == 0 {
		_, err := fmt.Fprintln(w, "No removals recorded.")
		return err
	}

	tw := newTable(w)
	fmt.Fprintln(tw, "DATE\tITEM\tMODEL\tUPC\tAMOUNT\tEMPLOYEE\tPURPOSE\tSTORE")
	for _, r := range records {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\t%s\t%s\t%s\n",
			When(r.Date, now), r.ItemName, r.Model, r.UPC, r.Amount, r.Employee, r.Purpose, r.Store)
	}
	return tw.Flush()
}

// Activity writes the activity log, most recent first.
func Activity(w io.Writer, entries []model.ActivityEntry, now time.Time) error {
	if len(entries) == 0 {
		_, err := fmt.Fprintln(w, "No activity yet.")
		return err
	}

	tw := newTable(w)
	fmt.Fprintln(tw, "TIME\tTYPE\tFIELD\tVALUE\tDETAILS")
	for _, e := range entries {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", When(e.Timestamp, now), e.Type, e.Field, e.Value, e.Details)
	}
	return tw.Flush()
}

// View writes the table for v. ViewNone writes nothing.
func View(w io.Writer, v tracker.View, snap model.Snapshot, now time.Time) error {
	switch v {
	case tracker.ViewInventory:
		return Inventory(w, snap.Inventory)
	case tracker.ViewRemovals:
		return Removals(w, snap.Removals, now)
	case tracker.ViewActivity:
		return Activity(w, snap.Activity, now)
	default:
		return nil
	}
}

// Printer is a tracker.Refresher that prints the refreshed view.
type Printer struct {
	W   io.Writer
	Now func() time.Time
}

// Refresh implements tracker.Refresher.
func (p Printer) Refresh(v tracker.View, snap model.Snapshot) {
	now := time.Now()
	if p.Now != nil {
		now = p.Now()
	}
	View(p.W, v, snap, now)
}
