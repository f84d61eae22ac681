package tracker

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/erazemk/stockroom/internal/model"
)

// NewItem holds the add-item form values.
type NewItem struct {
	Name     string
	UPC      string
	Model    string
	Quantity int
}

// AdjustResult describes the outcome of a quantity adjustment.
type AdjustResult struct {
	Item model.InventoryItem
	// Clamped is set when the delta would have taken the quantity below zero.
	Clamped bool
}

type notFoundError struct {
	upc string
}

func (e *notFoundError) Error() string {
	return fmt.Sprintf("no item with UPC %q", e.upc)
}

func (e *notFoundError) Unwrap() error {
	return ErrItemNotFound
}

// AddItem adds stock. If an item with the same UPC exists its quantity is
// increased, otherwise a new item is appended.
func (s *Session) AddItem(ctx context.Context, in NewItem) (model.InventoryItem, error) {
	name := strings.TrimSpace(in.Name)
	upc := strings.TrimSpace(in.UPC)
	itemModel := strings.TrimSpace(in.Model)

	if name == "" || upc == "" || itemModel == "" {
		return model.InventoryItem{}, fmt.Errorf("%w: name, UPC and model are required", ErrMissingField)
	}
	if in.Quantity < 0 {
		return model.InventoryItem{}, fmt.Errorf("%w: quantity must not be negative", ErrInvalidInput)
	}

	var item model.InventoryItem
	if i := model.FindItem(s.state.Inventory, upc); i >= 0 {
		if in.Quantity > math.MaxInt-s.state.Inventory[i].Quantity {
			return model.InventoryItem{}, fmt.Errorf("%w: quantity too large", ErrInvalidInput)
		}
		s.state.Inventory[i].Quantity += in.Quantity
		item = s.state.Inventory[i]
		s.record(model.ActivityItemUpdate, "Added to Existing",
			fmt.Sprintf("%s (+%d)", name, in.Quantity),
			fmt.Sprintf("Total: %d", item.Quantity))
	} else {
		item = model.InventoryItem{Name: name, UPC: upc, Model: itemModel, Quantity: in.Quantity}
		s.state.Inventory = append(s.state.Inventory, item)
		s.record(model.ActivityItemCreation, "New Item Added", name,
			fmt.Sprintf("UPC: %s, Model: %s, Qty: %d", upc, itemModel, in.Quantity))
	}

	s.logger.Info("stock added", "upc", upc, "quantity", in.Quantity, "total", item.Quantity)
	s.persist(ctx)
	s.refresh(ViewInventory, ViewActivity)
	return item, nil
}

// AdjustQuantity adds delta to an item's quantity, clamping at zero. An
// item adjusted to zero stays in the inventory.
func (s *Session) AdjustQuantity(ctx context.Context, upc string, delta int) (AdjustResult, error) {
	i, err := s.itemIndex(strings.TrimSpace(upc))
	if err != nil {
		return AdjustResult{}, err
	}

	item := &s.state.Inventory[i]
	if delta > 0 && delta > math.MaxInt-item.Quantity {
		return AdjustResult{}, fmt.Errorf("%w: quantity too large", ErrInvalidInput)
	}
	item.Quantity += delta
	clamped := false
	if item.Quantity < 0 {
		item.Quantity = 0
		clamped = true
	}

	s.record(model.ActivityQuantityAdjust, "Adjusted Quantity", item.Name,
		fmt.Sprintf("Now: %d", item.Quantity))

	result := AdjustResult{Item: *item, Clamped: clamped}
	s.logger.Info("quantity adjusted", "upc", item.UPC, "delta", delta, "total", item.Quantity, "clamped", clamped)
	s.persist(ctx)
	s.refresh(ViewInventory, ViewActivity)
	return result, nil
}
