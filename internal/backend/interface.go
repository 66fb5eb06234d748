package backend

import (
	"context"

	"finsight/internal/sheets"
)

// CleanupFunc represents a cleanup function for resources
type CleanupFunc func() error

// BackendResult contains the range source and the optional pieces around it
type BackendResult struct {
	// Reader serves every dashboard read.
	Reader sheets.RangeReader
	// Publisher asks the mirror worker to refresh ranges. Nil without AMQP.
	Publisher sheets.RefreshPublisher
	// Ready reports whether Reader can serve data right now.
	Ready func(ctx context.Context) error
	// Cleanup releases connections. Nil when there is nothing to release.
	Cleanup CleanupFunc
}

// Factory creates backends based on configuration
type Factory interface {
	// CreateBackend creates a backend instance based on the provided config
	CreateBackend(ctx context.Context, config Config) (*BackendResult, error)
}

// BackendType represents the type of backend
type BackendType string

const (
	SQLiteBackend BackendType = "sqlite"
	SheetsBackend BackendType = "sheets"
	MemoryBackend BackendType = "memory"
)

// String implements fmt.Stringer
func (bt BackendType) String() string {
	return string(bt)
}

// IsValid returns true if the backend type is valid
func (bt BackendType) IsValid() bool {
	switch bt {
	case SQLiteBackend, SheetsBackend, MemoryBackend:
		return true
	default:
		return false
	}
}
