package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/erazemk/stockroom/internal/model"
)

// Collections is a backend holding the three tracker collections. Each
// Replace call overwrites the whole collection.
type Collections interface {
	Inventory(ctx context.Context) ([]model.InventoryItem, error)
	Removals(ctx context.Context, upc string) ([]model.RemovalRecord, error)
	Activity(ctx context.Context) ([]model.ActivityEntry, error)

	ReplaceInventory(ctx context.Context, items []model.InventoryItem) error
	ReplaceRemovals(ctx context.Context, records []model.RemovalRecord) error
	ReplaceActivity(ctx context.Context, entries []model.ActivityEntry) error
	ReplaceAll(ctx context.Context, snap model.Snapshot) error
}

// SQLCollections is the SQLite-backed Collections.
type SQLCollections struct {
	DB *sql.DB
}

// NewSQLCollections returns Collections backed by db.
func NewSQLCollections(db *sql.DB) *SQLCollections {
	return &SQLCollections{DB: db}
}

func (c *SQLCollections) Inventory(ctx context.Context) ([]model.InventoryItem, error) {
	return ListInventory(ctx, c.DB)
}

func (c *SQLCollections) Removals(ctx context.Context, upc string) ([]model.RemovalRecord, error) {
	return ListRemovals(ctx, c.DB, upc)
}

func (c *SQLCollections) Activity(ctx context.Context) ([]model.ActivityEntry, error) {
	return ListActivity(ctx, c.DB)
}

func (c *SQLCollections) ReplaceInventory(ctx context.Context, items []model.InventoryItem) error {
	return ReplaceInventory(ctx, c.DB, items)
}

func (c *SQLCollections) ReplaceRemovals(ctx context.Context, records []model.RemovalRecord) error {
	return ReplaceRemovals(ctx, c.DB, records)
}

func (c *SQLCollections) ReplaceActivity(ctx context.Context, entries []model.ActivityEntry) error {
	return ReplaceActivity(ctx, c.DB, entries)
}

func (c *SQLCollections) ReplaceAll(ctx context.Context, snap model.Snapshot) error {
	return ReplaceSnapshot(ctx, c.DB, snap)
}

// SessionStore adapts Collections to the tracker's load/save contract so a
// server-side session can read and write the backend directly.
type SessionStore struct {
	C Collections
}

// Load reads each collection independently. A failing collection is left
// empty and its error is joined into the result.
func (s SessionStore) Load(ctx context.Context) (model.Snapshot, error) {
	var snap model.Snapshot
	var errs []error

	items, err := s.C.Inventory(ctx)
	if err != nil {
		errs = append(errs, fmt.Errorf("%s: %w", model.CollectionInventory, err))
	}
	snap.Inventory = items

	removals, err := s.C.Removals(ctx, "")
	if err != nil {
		errs = append(errs, fmt.Errorf("%s: %w", model.CollectionRemovals, err))
	}
	snap.Removals = removals

	activity, err := s.C.Activity(ctx)
	if err != nil {
		errs = append(errs, fmt.Errorf("%s: %w", model.CollectionActivity, err))
	}
	snap.Activity = activity

	return snap, errors.Join(errs...)
}

// Save writes all three collections together.
func (s SessionStore) Save(ctx context.Context, snap model.Snapshot) error {
	return s.C.ReplaceAll(ctx, snap)
}
