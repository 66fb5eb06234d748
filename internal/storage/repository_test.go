package storage

import (
	"context"
	"errors"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"finsight/internal/sheets"
)

func newTestRepo(t *testing.T) *SQLiteRepository {
	t.Helper()
	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "mirror", "test.db"))
	if err != nil {
		t.Fatalf("new repository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func TestSQLiteRepository_WriteAndRead(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	rng := "'Net Worth'!A:ZZ"
	rows := [][]string{
		{"Category", "Type", "Item", "Oct-25"},
		{},
		{"Assets", "Cash", "Bank", "₹1,500"},
	}

	if err := repo.WriteRange(ctx, rng, rows, time.Date(2025, 10, 31, 9, 0, 0, 0, time.UTC)); err != nil {
		t.Fatalf("write: %v", err)
	}
	got, err := repo.ReadRange(ctx, rng)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if !reflect.DeepEqual(got, rows) {
		t.Errorf("got %q, want %q", got, rows)
	}

	// A second write replaces the previous copy entirely.
	if err := repo.WriteRange(ctx, rng, rows[:1], time.Now()); err != nil {
		t.Fatalf("rewrite: %v", err)
	}
	got, err = repo.ReadRange(ctx, rng)
	if err != nil {
		t.Fatalf("read after rewrite: %v", err)
	}
	if len(got) != 1 {
		t.Errorf("got %d rows after rewrite, want 1", len(got))
	}

	ranges, err := repo.ListRanges(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(ranges) != 1 || ranges[0].RangeName != rng || ranges[0].RowCount != 1 {
		t.Errorf("unexpected ranges: %+v", ranges)
	}
}

func TestSQLiteRepository_RangeNotFound(t *testing.T) {
	repo := newTestRepo(t)
	_, err := repo.ReadRange(context.Background(), "'Earnings'!A:G")
	if !errors.Is(err, sheets.ErrRangeNotFound) {
		t.Fatalf("expected ErrRangeNotFound, got %v", err)
	}
}

func TestSQLiteRepository_EmptyRange(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	if err := repo.WriteRange(ctx, "'Other Income'!A:I", nil, time.Now()); err != nil {
		t.Fatalf("write: %v", err)
	}
	got, err := repo.ReadRange(ctx, "'Other Income'!A:I")
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("expected no rows, got %v", got)
	}
}

func TestRunMigrations_Idempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "m.db")
	if err := RunMigrations(path); err != nil {
		t.Fatalf("first run: %v", err)
	}
	if err := RunMigrations(path); err != nil {
		t.Fatalf("second run: %v", err)
	}
}
