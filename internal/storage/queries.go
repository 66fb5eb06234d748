package storage

import (
	"context"
	"database/sql"
	"time"
)

type DBTX interface {
	ExecContext(context.Context, string, ...interface{}) (sql.Result, error)
	QueryContext(context.Context, string, ...interface{}) (*sql.Rows, error)
	QueryRowContext(context.Context, string, ...interface{}) *sql.Row
}

func New(db DBTX) *Queries {
	return &Queries{db: db}
}

type Queries struct {
	db DBTX
}

func (q *Queries) WithTx(tx *sql.Tx) *Queries {
	return &Queries{db: tx}
}

type SheetRange struct {
	RangeName string
	FetchedAt time.Time
	RowCount  int64
}

type SheetRow struct {
	RowIndex int64
	Cells    string
}

const upsertRange = `
INSERT INTO sheet_ranges (range_name, fetched_at, row_count)
VALUES (?, ?, ?)
ON CONFLICT(range_name) DO UPDATE SET fetched_at = excluded.fetched_at, row_count = excluded.row_count
`

func (q *Queries) UpsertRange(ctx context.Context, arg SheetRange) error {
	_, err := q.db.ExecContext(ctx, upsertRange, arg.RangeName, arg.FetchedAt.UTC(), arg.RowCount)
	return err
}

const deleteRows = `DELETE FROM sheet_rows WHERE range_name = ?`

func (q *Queries) DeleteRows(ctx context.Context, rangeName string) error {
	_, err := q.db.ExecContext(ctx, deleteRows, rangeName)
	return err
}

const insertRow = `INSERT INTO sheet_rows (range_name, row_index, cells) VALUES (?, ?, ?)`

func (q *Queries) InsertRow(ctx context.Context, rangeName string, rowIndex int64, cells string) error {
	_, err := q.db.ExecContext(ctx, insertRow, rangeName, rowIndex, cells)
	return err
}

const getRange = `SELECT range_name, fetched_at, row_count FROM sheet_ranges WHERE range_name = ?`

func (q *Queries) GetRange(ctx context.Context, rangeName string) (SheetRange, error) {
	var r SheetRange
	err := q.db.QueryRowContext(ctx, getRange, rangeName).Scan(&r.RangeName, &r.FetchedAt, &r.RowCount)
	return r, err
}

const listRanges = `SELECT range_name, fetched_at, row_count FROM sheet_ranges ORDER BY range_name`

func (q *Queries) ListRanges(ctx context.Context) ([]SheetRange, error) {
	rows, err := q.db.QueryContext(ctx, listRanges)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []SheetRange
	for rows.Next() {
		var r SheetRange
		if err := rows.Scan(&r.RangeName, &r.FetchedAt, &r.RowCount); err != nil {
			return nil, err
		}
		items = append(items, r)
	}
	return items, rows.Err()
}

const getRows = `SELECT row_index, cells FROM sheet_rows WHERE range_name = ? ORDER BY row_index`

func (q *Queries) GetRows(ctx context.Context, rangeName string) ([]SheetRow, error) {
	rows, err := q.db.QueryContext(ctx, getRows, rangeName)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []SheetRow
	for rows.Next() {
		var r SheetRow
		if err := rows.Scan(&r.RowIndex, &r.Cells); err != nil {
			return nil, err
		}
		items = append(items, r)
	}
	return items, rows.Err()
}
