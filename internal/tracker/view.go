package tracker

import (
	"path"
	"strings"

	"github.com/erazemk/stockroom/internal/model"
)

// View identifies a page of the presentation layer.
type View string

// Views.
const (
	ViewNone      View = ""
	ViewInventory View = "inventory"
	ViewRemovals  View = "removals"
	ViewActivity  View = "activity"
)

// ViewFromPage maps a page path or file name ("/app/inventory.html",
// "activity_log.html", "removals") to its view. Unknown pages map to ViewNone.
func ViewFromPage(page string) View {
	name := strings.TrimSuffix(path.Base(page), ".html")
	switch name {
	case "inventory":
		return ViewInventory
	case "removals":
		return ViewRemovals
	case "activity", "activity_log":
		return ViewActivity
	default:
		return ViewNone
	}
}

// Refresher re-renders a view from the given state.
type Refresher interface {
	Refresh(view View, snap model.Snapshot)
}

// RefreshFunc adapts a function to the Refresher interface.
type RefreshFunc func(view View, snap model.Snapshot)

// Refresh calls f.
func (f RefreshFunc) Refresh(view View, snap model.Snapshot) {
	f(view, snap)
}
