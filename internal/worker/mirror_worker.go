package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"finsight/internal/amqp"
	"finsight/internal/sheets"
)

// MirrorWorker copies spreadsheet ranges into a local store so the API can
// serve from SQLite instead of calling the Sheets API on every request.
type MirrorWorker struct {
	source      sheets.RangeReader
	store       sheets.RangeWriter
	catalog     sheets.Catalog
	concurrency int
	now         func() time.Time
}

// MirrorReport summarises one MirrorAll pass.
type MirrorReport struct {
	Total  int
	Synced int
	Failed int
}

func NewMirrorWorker(source sheets.RangeReader, store sheets.RangeWriter, catalog sheets.Catalog, concurrency int) *MirrorWorker {
	if concurrency < 1 {
		concurrency = 1
	}
	return &MirrorWorker{
		source:      source,
		store:       store,
		catalog:     catalog,
		concurrency: concurrency,
		now:         time.Now,
	}
}

// MirrorRange fetches rng from the source and replaces the stored copy.
func (w *MirrorWorker) MirrorRange(ctx context.Context, rng string) error {
	fetchedAt := w.now()
	rows, err := w.source.ReadRange(ctx, rng)
	if err != nil {
		return fmt.Errorf("read %s: %w", rng, err)
	}
	if err := w.store.WriteRange(ctx, rng, rows, fetchedAt); err != nil {
		return fmt.Errorf("store %s: %w", rng, err)
	}
	slog.InfoContext(ctx, "Range mirrored", "range", rng, "rows", len(rows))
	return nil
}

// MirrorAll mirrors every catalogued range concurrently. A failing range is
// logged and skipped; an error is returned only when no range succeeded.
func (w *MirrorWorker) MirrorAll(ctx context.Context) (MirrorReport, error) {
	ranges := w.catalog.All(w.now())
	report := MirrorReport{Total: len(ranges)}

	var synced, failed atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(w.concurrency)
	for _, rng := range ranges {
		g.Go(func() error {
			if err := w.MirrorRange(gctx, rng); err != nil {
				failed.Add(1)
				slog.WarnContext(gctx, "Failed to mirror range", "range", rng, "error", err)
				return nil
			}
			synced.Add(1)
			return nil
		})
	}
	_ = g.Wait()

	report.Synced = int(synced.Load())
	report.Failed = int(failed.Load())

	slog.InfoContext(ctx, "Mirror pass completed",
		"total", report.Total,
		"synced", report.Synced,
		"failed", report.Failed)

	if report.Total > 0 && report.Synced == 0 {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		return report, errors.New("no range could be mirrored")
	}
	return report, nil
}

// HandleRefreshMessage processes one refresh request from AMQP.
func (w *MirrorWorker) HandleRefreshMessage(ctx context.Context, msg *amqp.RefreshRangeMessage) error {
	slog.InfoContext(ctx, "Processing refresh message",
		"range", msg.Range,
		"reason", msg.Reason,
		"timestamp", msg.Timestamp)

	if msg.All() {
		_, err := w.MirrorAll(ctx)
		return err
	}
	return w.MirrorRange(ctx, msg.Range)
}

// Run mirrors everything once, then again on every tick until ctx is done.
func (w *MirrorWorker) Run(ctx context.Context, interval time.Duration) error {
	if _, err := w.MirrorAll(ctx); err != nil {
		slog.ErrorContext(ctx, "Initial mirror pass failed", "error", err)
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if _, err := w.MirrorAll(ctx); err != nil {
				slog.ErrorContext(ctx, "Periodic mirror pass failed", "error", err)
			}
		}
	}
}
