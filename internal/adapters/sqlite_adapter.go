package adapters

import (
	"context"
	"errors"
	"sync"
	"time"

	applog "finsight/internal/log"
	"finsight/internal/sheets"
)

// refreshCooldown bounds how often a missing range is re-requested.
const refreshCooldown = time.Minute

// MirrorStore is the part of the SQLite repository the adapter needs.
type MirrorStore interface {
	sheets.RangeReader
	Ping(ctx context.Context) error
}

// SQLiteAdapter serves reads from the SQLite mirror. A range that has never
// been mirrored is reported as missing and, when a publisher is configured,
// the mirror worker is asked to fetch it.
type SQLiteAdapter struct {
	storage   MirrorStore
	publisher sheets.RefreshPublisher
	now       func() time.Time

	mu        sync.Mutex
	requested map[string]time.Time
}

var _ sheets.RangeReader = (*SQLiteAdapter)(nil)

// NewSQLiteAdapter wraps storage. publisher may be nil.
func NewSQLiteAdapter(storage MirrorStore, publisher sheets.RefreshPublisher) *SQLiteAdapter {
	return &SQLiteAdapter{
		storage:   storage,
		publisher: publisher,
		now:       time.Now,
		requested: make(map[string]time.Time),
	}
}

// ReadRange implements sheets.RangeReader
func (a *SQLiteAdapter) ReadRange(ctx context.Context, rng string) ([][]string, error) {
	rows, err := a.storage.ReadRange(ctx, rng)
	if errors.Is(err, sheets.ErrRangeNotFound) {
		a.requestRefresh(ctx, rng)
	}
	return rows, err
}

// Ping reports whether the mirror database is reachable.
func (a *SQLiteAdapter) Ping(ctx context.Context) error {
	return a.storage.Ping(ctx)
}

func (a *SQLiteAdapter) requestRefresh(ctx context.Context, rng string) {
	if a.publisher == nil {
		return
	}

	a.mu.Lock()
	now := a.now()
	if last, ok := a.requested[rng]; ok && now.Sub(last) < refreshCooldown {
		a.mu.Unlock()
		return
	}
	a.requested[rng] = now
	a.mu.Unlock()

	logger := applog.FromContext(ctx).WithComponent(applog.ComponentStorage)
	if err := a.publisher.PublishRefresh(ctx, rng); err != nil {
		logger.WarnContext(ctx, "Failed to request mirror refresh",
			applog.FieldRange, rng,
			applog.FieldError, err)
		return
	}
	logger.InfoContext(ctx, "Requested mirror refresh for missing range", applog.FieldRange, rng)
}
