package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/erazemk/stockroom/internal/model"
)

// ReplaceSnapshot overwrites all three collections in one transaction.
func ReplaceSnapshot(ctx context.Context, db *sql.DB, snap model.Snapshot) error {
	if err := ValidateSnapshot(snap); err != nil {
		return err
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if err := replaceInventory(ctx, tx, snap.Inventory); err != nil {
		return err
	}
	if err := replaceRemovals(ctx, tx, snap.Removals); err != nil {
		return err
	}
	if err := replaceActivity(ctx, tx, snap.Activity); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing snapshot: %w", err)
	}
	return nil
}
