package sheets

import (
	"context"
	"errors"
	"fmt"
	"time"
)

var (
	// ErrNotConfigured marks reads attempted without a usable data source.
	ErrNotConfigured = errors.New("spreadsheet source not configured")
	// ErrRangeNotFound is returned by mirrors that have never stored a range.
	ErrRangeNotFound = errors.New("range not found")
	// ErrHeaderNotFound is returned when no header row contains "category".
	ErrHeaderNotFound = errors.New("header row not found")
)

// Ports for outbound adapters.
type (
	// RangeReader returns the raw cells of a named range such as
	// "'Net Worth'!A:ZZ". Rows may be ragged.
	RangeReader interface {
		ReadRange(ctx context.Context, rng string) ([][]string, error)
	}

	// RangeWriter stores a snapshot of a range, replacing any previous copy.
	RangeWriter interface {
		WriteRange(ctx context.Context, rng string, rows [][]string, fetchedAt time.Time) error
	}

	// RefreshPublisher asks the mirror worker to refresh ranges. An empty
	// range means every configured range.
	RefreshPublisher interface {
		PublishRefresh(ctx context.Context, rng string) error
	}
)

// Unconfigured is a RangeReader standing in for a source that could not be
// built. Every read fails with ErrNotConfigured and the original reason.
type Unconfigured struct {
	Reason error
}

func (u Unconfigured) ReadRange(_ context.Context, rng string) ([][]string, error) {
	if u.Reason == nil {
		return nil, ErrNotConfigured
	}
	return nil, fmt.Errorf("%w: %v", ErrNotConfigured, u.Reason)
}
