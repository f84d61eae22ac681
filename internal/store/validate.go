package store

import (
	"errors"
	"fmt"

	"github.com/erazemk/stockroom/internal/model"
)

// ErrInvalidCollection is returned when a collection fails the presence and
// non-negativity checks applied before every write.
var ErrInvalidCollection = errors.New("invalid collection")

// ValidateInventory checks that every item has a name and UPC, a
// non-negative quantity, and that UPCs are unique.
func ValidateInventory(items []model.InventoryItem) error {
	seen := make(map[string]bool, len(items))
	for i, item := range items {
		if item.Name == "" || item.UPC == "" {
			return fmt.Errorf("%w: inventory[%d]: name and upc required", ErrInvalidCollection, i)
		}
		if item.Quantity < 0 {
			return fmt.Errorf("%w: inventory[%d]: negative quantity", ErrInvalidCollection, i)
		}
		if seen[item.UPC] {
			return fmt.Errorf("%w: inventory[%d]: duplicate upc %q", ErrInvalidCollection, i, item.UPC)
		}
		seen[item.UPC] = true
	}
	return nil
}

// ValidateRemovals checks that every record names a UPC and a positive amount.
func ValidateRemovals(records []model.RemovalRecord) error {
	for i, r := range records {
		if r.UPC == "" {
			return fmt.Errorf("%w: removals[%d]: upc required", ErrInvalidCollection, i)
		}
		if r.Amount <= 0 {
			return fmt.Errorf("%w: removals[%d]: amount must be positive", ErrInvalidCollection, i)
		}
	}
	return nil
}

// ValidateActivity checks that every entry has a type.
func ValidateActivity(entries []model.ActivityEntry) error {
	for i, e := range entries {
		if e.Type == "" {
			return fmt.Errorf("%w: activity[%d]: type required", ErrInvalidCollection, i)
		}
	}
	return nil
}

// ValidateSnapshot validates all three collections.
func ValidateSnapshot(snap model.Snapshot) error {
	if err := ValidateInventory(snap.Inventory); err != nil {
		return err
	}
	if err := ValidateRemovals(snap.Removals); err != nil {
		return err
	}
	return ValidateActivity(snap.Activity)
}
