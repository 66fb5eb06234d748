package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"finsight/internal/sheets"

	_ "modernc.org/sqlite"
)

// SQLiteRepository mirrors spreadsheet ranges so the dashboard can be served
// without reaching the Sheets API on every request.
type SQLiteRepository struct {
	db      *sql.DB
	queries *Queries
}

var (
	_ sheets.RangeReader = (*SQLiteRepository)(nil)
	_ sheets.RangeWriter = (*SQLiteRepository)(nil)
)

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{
		db:      db,
		queries: New(db),
	}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Ping reports whether the database is reachable.
func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// ReadRange implements sheets.RangeReader. A range that was never mirrored
// returns sheets.ErrRangeNotFound.
func (r *SQLiteRepository) ReadRange(ctx context.Context, rng string) ([][]string, error) {
	if _, err := r.queries.GetRange(ctx, rng); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", sheets.ErrRangeNotFound, rng)
		}
		return nil, fmt.Errorf("get range %s: %w", rng, err)
	}

	stored, err := r.queries.GetRows(ctx, rng)
	if err != nil {
		return nil, fmt.Errorf("get rows for %s: %w", rng, err)
	}

	out := make([][]string, 0, len(stored))
	for _, row := range stored {
		var cells []string
		if err := json.Unmarshal([]byte(row.Cells), &cells); err != nil {
			return nil, fmt.Errorf("decode row %d of %s: %w", row.RowIndex, rng, err)
		}
		if cells == nil {
			cells = []string{}
		}
		out = append(out, cells)
	}
	return out, nil
}

// WriteRange implements sheets.RangeWriter. The previous copy of the range is
// replaced in a single transaction, so readers never see a partial mirror.
func (r *SQLiteRepository) WriteRange(ctx context.Context, rng string, rows [][]string, fetchedAt time.Time) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	q := r.queries.WithTx(tx)
	if err := q.UpsertRange(ctx, SheetRange{RangeName: rng, FetchedAt: fetchedAt, RowCount: int64(len(rows))}); err != nil {
		return fmt.Errorf("upsert range %s: %w", rng, err)
	}
	if err := q.DeleteRows(ctx, rng); err != nil {
		return fmt.Errorf("delete rows for %s: %w", rng, err)
	}
	for i, row := range rows {
		if row == nil {
			row = []string{}
		}
		cells, err := json.Marshal(row)
		if err != nil {
			return fmt.Errorf("encode row %d of %s: %w", i, rng, err)
		}
		if err := q.InsertRow(ctx, rng, int64(i), string(cells)); err != nil {
			return fmt.Errorf("insert row %d of %s: %w", i, rng, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit range %s: %w", rng, err)
	}

	slog.DebugContext(ctx, "Range mirrored to SQLite",
		"range", rng,
		"rows", len(rows),
		"fetched_at", fetchedAt)
	return nil
}

// ListRanges returns every mirrored range with its last fetch time.
func (r *SQLiteRepository) ListRanges(ctx context.Context) ([]SheetRange, error) {
	ranges, err := r.queries.ListRanges(ctx)
	if err != nil {
		return nil, fmt.Errorf("list ranges: %w", err)
	}
	return ranges, nil
}
