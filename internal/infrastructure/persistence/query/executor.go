// Package query is the thin raw-SQL surface over a bound tenant database.
// Callers pass parameterized SQL; values travel as driver args, never
// interpolated into the query text.
package query

import (
	"context"
	"database/sql"
	"fmt"
)

// Result summarizes a write statement.
type Result struct {
	RowsAffected int64 `json:"rowsAffected"`
	LastInsertID int64 `json:"lastInsertId,omitempty"`
}

// Select runs a parameterized query and returns the rows as maps keyed by
// column name. Byte slices are converted to strings so results marshal
// cleanly to JSON.
func Select(ctx context.Context, db *sql.DB, query string, args ...any) ([]map[string]any, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("failed to read columns: %w", err)
	}

	var results []map[string]any
	for rows.Next() {
		values := make([]any, len(columns))
		pointers := make([]any, len(columns))
		for i := range values {
			pointers[i] = &values[i]
		}
		if err := rows.Scan(pointers...); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}

		row := make(map[string]any, len(columns))
		for i, col := range columns {
			if b, ok := values[i].([]byte); ok {
				row[col] = string(b)
			} else {
				row[col] = values[i]
			}
		}
		results = append(results, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration failed: %w", err)
	}
	return results, nil
}

// Exec runs a parameterized write statement.
func Exec(ctx context.Context, db *sql.DB, query string, args ...any) (*Result, error) {
	res, err := db.ExecContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("exec failed: %w", err)
	}

	affected, _ := res.RowsAffected()
	lastID, _ := res.LastInsertId()
	return &Result{RowsAffected: affected, LastInsertID: lastID}, nil
}
