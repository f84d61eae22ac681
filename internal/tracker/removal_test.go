package tracker

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/erazemk/stockroom/internal/model"
)

func seedWidget(t *testing.T, s *Session, qty int) {
	t.Helper()
	_, err := s.AddItem(context.Background(), NewItem{Name: "Widget", UPC: "123", Model: "A1", Quantity: qty})
	require.NoError(t, err)
}

func TestWidgetScenario(t *testing.T) {
	store := &memStore{}
	s := newTestSession(t, store)
	ctx := context.Background()

	_, err := s.AddItem(ctx, NewItem{Name: "Widget", UPC: "123", Model: "A1", Quantity: 10})
	require.NoError(t, err)
	snap := s.Snapshot()
	assert.Equal(t, []model.InventoryItem{{Name: "Widget", UPC: "123", Model: "A1", Quantity: 10}}, snap.Inventory)
	require.Len(t, snap.Activity, 1)
	assert.Equal(t, model.ActivityItemCreation, snap.Activity[0].Type)

	_, err = s.AddItem(ctx, NewItem{Name: "Widget", UPC: "123", Model: "A1", Quantity: 5})
	require.NoError(t, err)
	snap = s.Snapshot()
	require.Len(t, snap.Inventory, 1)
	assert.Equal(t, 15, snap.Inventory[0].Quantity)
	assert.Len(t, snap.Activity, 2)

	p, err := s.StageRemoval("123", 15)
	require.NoError(t, err)
	rec, err := s.ConfirmRemoval(ctx, p, RemovalDetails{Employee: "Alice", Purpose: "restock", Store: "Main"})
	require.NoError(t, err)

	snap = s.Snapshot()
	assert.Empty(t, snap.Inventory)
	require.Len(t, snap.Removals, 1)
	assert.Equal(t, "Widget", snap.Removals[0].ItemName)
	assert.Equal(t, 15, snap.Removals[0].Amount)
	assert.Equal(t, "Alice", snap.Removals[0].Employee)
	assert.Equal(t, "Main", snap.Removals[0].Store)
	assert.Equal(t, "restock", snap.Removals[0].Purpose)
	assert.Equal(t, fixedTime, snap.Removals[0].Date)
	assert.Equal(t, rec, snap.Removals[0])
	assert.Len(t, snap.Activity, 3)

	// The store saw every mutation.
	assert.Equal(t, snap, store.snap)
}

func TestStageRemoval(t *testing.T) {
	s := newTestSession(t, &memStore{})
	seedWidget(t, s, 5)

	p, err := s.StageRemoval("123", 3)
	require.NoError(t, err)
	assert.Equal(t, PendingRemoval{UPC: "123", ItemName: "Widget", Model: "A1", Amount: 3, Available: 5}, p)

	p, err = s.StageRemoval("123", 0)
	require.NoError(t, err)
	assert.Equal(t, 1, p.Amount, "unparseable amounts default to one")

	_, err = s.StageRemoval("123", 6)
	assert.ErrorIs(t, err, ErrInsufficientStock)
	assert.ErrorContains(t, err, "cannot remove 6, only 5 available")

	_, err = s.StageRemoval("999", 1)
	assert.ErrorIs(t, err, ErrItemNotFound)
}

func TestStagingChangesNothing(t *testing.T) {
	store := &memStore{}
	s := newTestSession(t, store)
	seedWidget(t, s, 5)
	before := s.Snapshot()
	saves := store.saves

	_, err := s.StageRemoval("123", 2)
	require.NoError(t, err)

	assert.Equal(t, before, s.Snapshot())
	assert.Equal(t, saves, store.saves)
}

func TestConfirmPartialRemovalKeepsItem(t *testing.T) {
	s := newTestSession(t, &memStore{})
	seedWidget(t, s, 5)
	ctx := context.Background()

	p, err := s.StageRemoval("123", 2)
	require.NoError(t, err)
	_, err = s.ConfirmRemoval(ctx, p, RemovalDetails{Employee: "Alice", Purpose: "sale", Store: "Main"})
	require.NoError(t, err)

	snap := s.Snapshot()
	require.Len(t, snap.Inventory, 1)
	assert.Equal(t, 3, snap.Inventory[0].Quantity)

	entry := snap.Activity[0]
	assert.Equal(t, model.ActivityItemRemoval, entry.Type)
	assert.Equal(t, "Widget", entry.Field)
	assert.Equal(t, "-2", entry.Value)
	assert.Equal(t, "By Alice at Main", entry.Details)
}

func TestConfirmEditedAmount(t *testing.T) {
	s := newTestSession(t, &memStore{})
	seedWidget(t, s, 5)
	ctx := context.Background()

	p, err := s.StageRemoval("123", 1)
	require.NoError(t, err)
	rec, err := s.ConfirmRemoval(ctx, p, RemovalDetails{Employee: "Alice", Purpose: "sale", Store: "Main", Amount: 4})
	require.NoError(t, err)
	assert.Equal(t, 4, rec.Amount)
	assert.Equal(t, 1, s.Snapshot().Inventory[0].Quantity)
}

func TestConfirmValidation(t *testing.T) {
	tests := []struct {
		name    string
		details RemovalDetails
		want    error
	}{
		{"missing employee", RemovalDetails{Purpose: "p", Store: "Main"}, ErrInvalidInput},
		{"missing purpose", RemovalDetails{Employee: "e", Store: "Main"}, ErrInvalidInput},
		{"missing store", RemovalDetails{Employee: "e", Purpose: "p", Store: "  "}, ErrInvalidInput},
		{"negative amount", RemovalDetails{Employee: "e", Purpose: "p", Store: "Main", Amount: -1}, ErrInvalidInput},
		{"amount over stock", RemovalDetails{Employee: "e", Purpose: "p", Store: "Main", Amount: 6}, ErrInsufficientStock},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := &memStore{}
			s := newTestSession(t, store)
			seedWidget(t, s, 5)
			before := s.Snapshot()
			saves := store.saves

			p, err := s.StageRemoval("123", 1)
			require.NoError(t, err)
			_, err = s.ConfirmRemoval(context.Background(), p, tt.details)
			assert.ErrorIs(t, err, tt.want)
			assert.Equal(t, before, s.Snapshot())
			assert.Equal(t, saves, store.saves)
		})
	}
}

func TestConfirmWithoutStage(t *testing.T) {
	s := newTestSession(t, &memStore{})
	_, err := s.ConfirmRemoval(context.Background(), PendingRemoval{},
		RemovalDetails{Employee: "e", Purpose: "p", Store: "Main"})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestConfirmRechecksCurrentQuantity(t *testing.T) {
	s := newTestSession(t, &memStore{})
	seedWidget(t, s, 5)
	ctx := context.Background()

	p, err := s.StageRemoval("123", 4)
	require.NoError(t, err)

	// Stock drops between staging and confirming.
	_, err = s.AdjustQuantity(ctx, "123", -3)
	require.NoError(t, err)

	_, err = s.ConfirmRemoval(ctx, p, RemovalDetails{Employee: "Alice", Purpose: "sale", Store: "Main"})
	assert.ErrorIs(t, err, ErrInsufficientStock)
	assert.Equal(t, 2, s.Snapshot().Inventory[0].Quantity)
}

func TestConfirmItemGoneSinceStaging(t *testing.T) {
	s := newTestSession(t, &memStore{})
	seedWidget(t, s, 2)
	ctx := context.Background()
	details := RemovalDetails{Employee: "Alice", Purpose: "sale", Store: "Main"}

	first, err := s.StageRemoval("123", 2)
	require.NoError(t, err)
	second, err := s.StageRemoval("123", 1)
	require.NoError(t, err)

	_, err = s.ConfirmRemoval(ctx, first, details)
	require.NoError(t, err)

	_, err = s.ConfirmRemoval(ctx, second, details)
	assert.ErrorIs(t, err, ErrItemNotFound)
}

func TestConfirmRestrictedStores(t *testing.T) {
	s := newTestSession(t, &memStore{}, WithStores([]string{"Main", "North"}))
	seedWidget(t, s, 5)
	ctx := context.Background()

	p, err := s.StageRemoval("123", 1)
	require.NoError(t, err)

	_, err = s.ConfirmRemoval(ctx, p, RemovalDetails{Employee: "Alice", Purpose: "sale", Store: "South"})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = s.ConfirmRemoval(ctx, p, RemovalDetails{Employee: "Alice", Purpose: "sale", Store: "North"})
	assert.NoError(t, err)
}

func TestRemovalsAreMostRecentFirst(t *testing.T) {
	s := newTestSession(t, &memStore{})
	seedWidget(t, s, 10)
	ctx := context.Background()

	for _, who := range []string{"Alice", "Bob"} {
		p, err := s.StageRemoval("123", 1)
		require.NoError(t, err)
		_, err = s.ConfirmRemoval(ctx, p, RemovalDetails{Employee: who, Purpose: "sale", Store: "Main"})
		require.NoError(t, err)
	}

	snap := s.Snapshot()
	require.Len(t, snap.Removals, 2)
	assert.Equal(t, "Bob", snap.Removals[0].Employee)
	assert.Equal(t, "Alice", snap.Removals[1].Employee)
}
