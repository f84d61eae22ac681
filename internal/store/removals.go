package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/erazemk/stockroom/internal/model"
)

// ListRemovals returns removal records most-recent-first, optionally
// filtered by UPC.
func ListRemovals(ctx context.Context, db *sql.DB, upc string) ([]model.RemovalRecord, error) {
	query := `SELECT id, item_name, model, upc, amount, employee, purpose, store, removed_at
	          FROM removals`
	var args []any
	if upc != "" {
		query += ` WHERE upc = ?`
		args = append(args, upc)
	}
	query += ` ORDER BY position`

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing removals: %w", err)
	}
	defer rows.Close()

	records := []model.RemovalRecord{}
	for rows.Next() {
		var r model.RemovalRecord
		var id sql.NullString
		if err := rows.Scan(&id, &r.ItemName, &r.Model, &r.UPC, &r.Amount,
			&r.Employee, &r.Purpose, &r.Store, &r.Date); err != nil {
			return nil, fmt.Errorf("scanning removal: %w", err)
		}
		r.ID = id.String
		records = append(records, r)
	}
	return records, rows.Err()
}

// ReplaceRemovals overwrites the whole removal history.
func ReplaceRemovals(ctx context.Context, db *sql.DB, records []model.RemovalRecord) error {
	if err := ValidateRemovals(records); err != nil {
		return err
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if err := replaceRemovals(ctx, tx, records); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing removals: %w", err)
	}
	return nil
}

func replaceRemovals(ctx context.Context, tx *sql.Tx, records []model.RemovalRecord) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM removals`); err != nil {
		return fmt.Errorf("clearing removals: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO removals (position, id, item_name, model, upc, amount, employee, purpose, store, removed_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
	)
	if err != nil {
		return fmt.Errorf("preparing removal insert: %w", err)
	}
	defer stmt.Close()

	for i, r := range records {
		if _, err := stmt.ExecContext(ctx, i, nullString(r.ID), r.ItemName, r.Model, r.UPC, r.Amount,
			r.Employee, r.Purpose, r.Store, r.Date); err != nil {
			return fmt.Errorf("inserting removal %d: %w", i, err)
		}
	}
	return nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
