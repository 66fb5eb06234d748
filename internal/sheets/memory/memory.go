package memory

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"finsight/internal/sheets"
)

// Store serves ranges from memory, keyed by sheet name. When created with
// NewFromFiles, sheets not held in memory are read from "<base>/<sheet>.csv"
// on every call so fixture edits are picked up without a restart.
type Store struct {
	mu     sync.RWMutex
	base   string
	sheets map[string][][]string
}

var (
	_ sheets.RangeReader = (*Store)(nil)
	_ sheets.RangeWriter = (*Store)(nil)
)

func New(seed map[string][][]string) *Store {
	s := &Store{sheets: make(map[string][][]string, len(seed))}
	for name, rows := range seed {
		s.sheets[name] = cloneRows(rows)
	}
	return s
}

func NewFromFiles(base string) *Store {
	s := New(nil)
	s.base = base
	return s
}

// ReadRange returns a copy of the rows of the sheet named in rng. The cell
// part of the range is ignored.
func (s *Store) ReadRange(_ context.Context, rng string) ([][]string, error) {
	name := sheets.SheetName(rng)
	s.mu.RLock()
	rows, ok := s.sheets[name]
	s.mu.RUnlock()
	if ok {
		return cloneRows(rows), nil
	}
	if s.base == "" {
		return nil, fmt.Errorf("%w: %s", sheets.ErrRangeNotFound, rng)
	}
	return readCSV(filepath.Join(s.base, name+".csv"), rng)
}

// WriteRange replaces the in-memory copy of the sheet named in rng.
func (s *Store) WriteRange(_ context.Context, rng string, rows [][]string, _ time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sheets[sheets.SheetName(rng)] = cloneRows(rows)
	return nil
}

func readCSV(path, rng string) ([][]string, error) {
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", sheets.ErrRangeNotFound, rng)
	}
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	r.Comment = '#'
	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	for _, rec := range records {
		for i := range rec {
			rec[i] = strings.TrimSpace(rec[i])
		}
	}
	return records, nil
}

func cloneRows(in [][]string) [][]string {
	out := make([][]string, len(in))
	for i, row := range in {
		out[i] = append([]string(nil), row...)
	}
	return out
}
