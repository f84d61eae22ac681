package tracker

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/google/uuid"

	"github.com/erazemk/stockroom/internal/model"
)

// PendingRemoval is a staged removal waiting for its metadata. It lives
// only in the caller; dropping it cancels the removal.
type PendingRemoval struct {
	UPC       string
	ItemName  string
	Model     string
	Amount    int
	Available int
}

// RemovalDetails are the confirmation form values.
type RemovalDetails struct {
	Employee string
	Purpose  string
	Store    string
	// Amount overrides the staged amount when positive.
	Amount int
}

// StageRemoval checks that requested units can be taken from the item and
// returns the pending removal. A requested amount below one is treated as one.
func (s *Session) StageRemoval(upc string, requested int) (PendingRemoval, error) {
	i, err := s.itemIndex(strings.TrimSpace(upc))
	if err != nil {
		return PendingRemoval{}, err
	}
	item := s.state.Inventory[i]

	if requested < 1 {
		requested = 1
	}
	if requested > item.Quantity {
		return PendingRemoval{}, fmt.Errorf("%w: cannot remove %d, only %d available",
			ErrInsufficientStock, requested, item.Quantity)
	}

	return PendingRemoval{
		UPC:       item.UPC,
		ItemName:  item.Name,
		Model:     item.Model,
		Amount:    requested,
		Available: item.Quantity,
	}, nil
}

// ConfirmRemoval applies a staged removal. The amount is checked again
// against the current quantity since state may have changed after staging.
// An item whose quantity reaches zero is deleted from the inventory.
func (s *Session) ConfirmRemoval(ctx context.Context, p PendingRemoval, d RemovalDetails) (model.RemovalRecord, error) {
	if p.UPC == "" {
		return model.RemovalRecord{}, fmt.Errorf("%w: no removal staged", ErrInvalidInput)
	}

	employee := strings.TrimSpace(d.Employee)
	purpose := strings.TrimSpace(d.Purpose)
	store := strings.TrimSpace(d.Store)
	if employee == "" || purpose == "" || store == "" {
		return model.RemovalRecord{}, fmt.Errorf("%w: employee, purpose and store are required", ErrMissingField)
	}
	if len(s.stores) > 0 && !slices.Contains(s.stores, store) {
		return model.RemovalRecord{}, fmt.Errorf("%w: unknown store %q", ErrInvalidInput, store)
	}

	amount := p.Amount
	if d.Amount != 0 {
		amount = d.Amount
	}
	if amount < 1 {
		return model.RemovalRecord{}, fmt.Errorf("%w: amount must be at least 1", ErrInvalidInput)
	}

	i, err := s.itemIndex(p.UPC)
	if err != nil {
		return model.RemovalRecord{}, err
	}
	item := &s.state.Inventory[i]
	if amount > item.Quantity {
		return model.RemovalRecord{}, fmt.Errorf("%w: cannot remove %d, only %d available",
			ErrInsufficientStock, amount, item.Quantity)
	}

	item.Quantity -= amount
	rec := model.RemovalRecord{
		ID:       uuid.NewString(),
		ItemName: item.Name,
		Model:    item.Model,
		UPC:      item.UPC,
		Amount:   amount,
		Employee: employee,
		Purpose:  purpose,
		Store:    store,
		Date:     s.now(),
	}
	s.state.Removals = append([]model.RemovalRecord{rec}, s.state.Removals...)
	s.record(model.ActivityItemRemoval, item.Name,
		fmt.Sprintf("-%d", amount),
		fmt.Sprintf("By %s at %s", employee, store))

	if item.Quantity == 0 {
		s.state.Inventory = slices.Delete(s.state.Inventory, i, i+1)
	}

	s.logger.Info("stock removed", "upc", rec.UPC, "amount", amount, "employee", employee, "store", store)
	s.persist(ctx)
	s.refresh(ViewInventory, ViewRemovals, ViewActivity)
	return rec, nil
}
