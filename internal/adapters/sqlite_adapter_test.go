package adapters

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"finsight/internal/sheets"
)

type fakeStore struct {
	ranges map[string][][]string
}

func (f *fakeStore) ReadRange(_ context.Context, rng string) ([][]string, error) {
	rows, ok := f.ranges[rng]
	if !ok {
		return nil, fmt.Errorf("%w: %s", sheets.ErrRangeNotFound, rng)
	}
	return rows, nil
}

func (f *fakeStore) Ping(context.Context) error { return nil }

type fakePublisher struct {
	published []string
	err       error
}

func (f *fakePublisher) PublishRefresh(_ context.Context, rng string) error {
	f.published = append(f.published, rng)
	return f.err
}

func TestSQLiteAdapter_ReadRange(t *testing.T) {
	store := &fakeStore{ranges: map[string][][]string{
		"'Net Worth'!A:ZZ": {{"Category", "Aug-25"}},
	}}
	pub := &fakePublisher{}
	a := NewSQLiteAdapter(store, pub)

	rows, err := a.ReadRange(context.Background(), "'Net Worth'!A:ZZ")
	if err != nil || len(rows) != 1 {
		t.Fatalf("ReadRange = %v, %v", rows, err)
	}
	if len(pub.published) != 0 {
		t.Errorf("published %v for a mirrored range", pub.published)
	}

	_, err = a.ReadRange(context.Background(), "'Earnings'!A:G")
	if !errors.Is(err, sheets.ErrRangeNotFound) {
		t.Fatalf("err = %v, want ErrRangeNotFound", err)
	}
	if len(pub.published) != 1 || pub.published[0] != "'Earnings'!A:G" {
		t.Errorf("published = %v", pub.published)
	}
}

func TestSQLiteAdapter_RefreshCooldown(t *testing.T) {
	pub := &fakePublisher{}
	a := NewSQLiteAdapter(&fakeStore{}, pub)
	now := time.Date(2025, 10, 15, 12, 0, 0, 0, time.UTC)
	a.now = func() time.Time { return now }

	ctx := context.Background()
	a.ReadRange(ctx, "r")
	a.ReadRange(ctx, "r")
	if len(pub.published) != 1 {
		t.Fatalf("published %d times within cooldown", len(pub.published))
	}

	now = now.Add(refreshCooldown)
	a.ReadRange(ctx, "r")
	if len(pub.published) != 2 {
		t.Errorf("published %d times after cooldown, want 2", len(pub.published))
	}
}

func TestSQLiteAdapter_NilPublisher(t *testing.T) {
	a := NewSQLiteAdapter(&fakeStore{}, nil)
	if _, err := a.ReadRange(context.Background(), "r"); !errors.Is(err, sheets.ErrRangeNotFound) {
		t.Errorf("err = %v", err)
	}
	if err := a.Ping(context.Background()); err != nil {
		t.Errorf("Ping = %v", err)
	}
}
