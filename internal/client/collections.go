package client

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sync"

	"github.com/erazemk/stockroom/internal/model"
)

type writeResponse struct {
	Status string `json:"status"`
	Length int    `json:"length"`
}

func (c *Client) get(ctx context.Context, collection string, out any) error {
	return c.do(ctx, collection, http.MethodGet, "/api/"+collection, nil, out)
}

func (c *Client) put(ctx context.Context, collection string, body any) (int, error) {
	var out writeResponse
	if err := c.do(ctx, collection, http.MethodPut, "/api/"+collection, body, &out); err != nil {
		return 0, err
	}
	return out.Length, nil
}

// Inventory fetches the inventory collection.
func (c *Client) Inventory(ctx context.Context) ([]model.InventoryItem, error) {
	items := []model.InventoryItem{}
	if err := c.get(ctx, model.CollectionInventory, &items); err != nil {
		return nil, err
	}
	return items, nil
}

// Removals fetches the removal history, optionally only for one UPC.
func (c *Client) Removals(ctx context.Context, upc string) ([]model.RemovalRecord, error) {
	path := "/api/" + model.CollectionRemovals
	if upc != "" {
		path += "?upc=" + url.QueryEscape(upc)
	}
	records := []model.RemovalRecord{}
	if err := c.do(ctx, model.CollectionRemovals, http.MethodGet, path, nil, &records); err != nil {
		return nil, err
	}
	return records, nil
}

// Activity fetches the activity log.
func (c *Client) Activity(ctx context.Context) ([]model.ActivityEntry, error) {
	entries := []model.ActivityEntry{}
	if err := c.get(ctx, model.CollectionActivity, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

// ReplaceInventory overwrites the server's inventory and returns the stored length.
func (c *Client) ReplaceInventory(ctx context.Context, items []model.InventoryItem) (int, error) {
	return c.put(ctx, model.CollectionInventory, model.NonNil(items))
}

// ReplaceRemovals overwrites the server's removal history.
func (c *Client) ReplaceRemovals(ctx context.Context, records []model.RemovalRecord) (int, error) {
	return c.put(ctx, model.CollectionRemovals, model.NonNil(records))
}

// ReplaceActivity overwrites the server's activity log.
func (c *Client) ReplaceActivity(ctx context.Context, entries []model.ActivityEntry) (int, error) {
	return c.put(ctx, model.CollectionActivity, model.NonNil(entries))
}

// ReplaceAll overwrites all three collections in one request.
func (c *Client) ReplaceAll(ctx context.Context, snap model.Snapshot) error {
	snap.Normalize()
	return c.do(ctx, "snapshot", http.MethodPut, "/api/snapshot", snap, nil)
}

// Load fetches the three collections concurrently. A collection that fails
// to load is left empty; its error is logged and joined into the result.
func (c *Client) Load(ctx context.Context) (model.Snapshot, error) {
	var snap model.Snapshot
	var invErr, remErr, actErr error

	var wg sync.WaitGroup
	wg.Go(func() { snap.Inventory, invErr = c.Inventory(ctx) })
	wg.Go(func() { snap.Removals, remErr = c.Removals(ctx, "") })
	wg.Go(func() { snap.Activity, actErr = c.Activity(ctx) })
	wg.Wait()

	errs := []error{
		c.logFailure("load", model.CollectionInventory, invErr),
		c.logFailure("load", model.CollectionRemovals, remErr),
		c.logFailure("load", model.CollectionActivity, actErr),
	}
	snap.Normalize()
	return snap, errors.Join(errs...)
}

// Save writes the three collections. Without atomic mode each collection is
// written on its own and a failure does not stop the others.
func (c *Client) Save(ctx context.Context, snap model.Snapshot) error {
	if c.atomic {
		return c.logFailure("save", "snapshot", c.ReplaceAll(ctx, snap))
	}

	_, invErr := c.ReplaceInventory(ctx, snap.Inventory)
	_, remErr := c.ReplaceRemovals(ctx, snap.Removals)
	_, actErr := c.ReplaceActivity(ctx, snap.Activity)

	return errors.Join(
		c.logFailure("save", model.CollectionInventory, invErr),
		c.logFailure("save", model.CollectionRemovals, remErr),
		c.logFailure("save", model.CollectionActivity, actErr),
	)
}

func (c *Client) logFailure(op, collection string, err error) error {
	if err == nil {
		return nil
	}
	c.logger.Warn("store request failed", "op", op, "collection", collection, "error", err)
	return fmt.Errorf("%s %s: %w", op, collection, err)
}
