package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/erazemk/stockroom/internal/model"
)

// ListInventory returns all inventory items in stored order.
func ListInventory(ctx context.Context, db *sql.DB) ([]model.InventoryItem, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT name, upc, model, quantity FROM inventory_items ORDER BY position`,
	)
	if err != nil {
		return nil, fmt.Errorf("listing inventory: %w", err)
	}
	defer rows.Close()

	items := []model.InventoryItem{}
	for rows.Next() {
		var item model.InventoryItem
		if err := rows.Scan(&item.Name, &item.UPC, &item.Model, &item.Quantity); err != nil {
			return nil, fmt.Errorf("scanning inventory item: %w", err)
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// ReplaceInventory overwrites the whole inventory collection.
func ReplaceInventory(ctx context.Context, db *sql.DB, items []model.InventoryItem) error {
	if err := ValidateInventory(items); err != nil {
		return err
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if err := replaceInventory(ctx, tx, items); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing inventory: %w", err)
	}
	return nil
}

func replaceInventory(ctx context.Context, tx *sql.Tx, items []model.InventoryItem) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM inventory_items`); err != nil {
		return fmt.Errorf("clearing inventory: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO inventory_items (position, upc, name, model, quantity) VALUES (?, ?, ?, ?, ?)`,
	)
	if err != nil {
		return fmt.Errorf("preparing inventory insert: %w", err)
	}
	defer stmt.Close()

	for i, item := range items {
		if _, err := stmt.ExecContext(ctx, i, item.UPC, item.Name, item.Model, item.Quantity); err != nil {
			return fmt.Errorf("inserting inventory item %q: %w", item.UPC, err)
		}
	}
	return nil
}
