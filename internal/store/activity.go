package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/erazemk/stockroom/internal/model"
)

// ListActivity returns the activity log most-recent-first.
func ListActivity(ctx context.Context, db *sql.DB) ([]model.ActivityEntry, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT id, logged_at, type, field, value, details FROM activity ORDER BY position`,
	)
	if err != nil {
		return nil, fmt.Errorf("listing activity: %w", err)
	}
	defer rows.Close()

	entries := []model.ActivityEntry{}
	for rows.Next() {
		var e model.ActivityEntry
		var id, details sql.NullString
		if err := rows.Scan(&id, &e.Timestamp, &e.Type, &e.Field, &e.Value, &details); err != nil {
			return nil, fmt.Errorf("scanning activity entry: %w", err)
		}
		e.ID = id.String
		e.Details = details.String
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// ReplaceActivity overwrites the whole activity log.
func ReplaceActivity(ctx context.Context, db *sql.DB, entries []model.ActivityEntry) error {
	if err := ValidateActivity(entries); err != nil {
		return err
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if err := replaceActivity(ctx, tx, entries); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing activity: %w", err)
	}
	return nil
}

func replaceActivity(ctx context.Context, tx *sql.Tx, entries []model.ActivityEntry) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM activity`); err != nil {
		return fmt.Errorf("clearing activity: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO activity (position, id, logged_at, type, field, value, details)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
	)
	if err != nil {
		return fmt.Errorf("preparing activity insert: %w", err)
	}
	defer stmt.Close()

	for i, e := range entries {
		if _, err := stmt.ExecContext(ctx, i, nullString(e.ID), e.Timestamp, e.Type, e.Field, e.Value,
			nullString(e.Details)); err != nil {
			return fmt.Errorf("inserting activity entry %d: %w", i, err)
		}
	}
	return nil
}
